// Package render defines the boundary between the terrain session and a
// rasterizer, and provides a CPU implementation of it.
package render

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pspoerri/terrainview/internal/colorramp"
	"github.com/pspoerri/terrainview/internal/texture"
)

var (
	// ErrShaderCompile is returned when a shader stage fails to compile.
	ErrShaderCompile = errors.New("shader compilation failed")
	// ErrLink is returned when a shader program fails to link.
	ErrLink = errors.New("shader program link failed")
	// ErrInvalidHandle is returned for handles the gateway does not own.
	ErrInvalidHandle = errors.New("invalid render handle")
)

// Handle names a mesh or texture owned by a Gateway. Zero is no resource.
type Handle uint32

// Background is the clear color, RGBA in [0,1].
var Background = [4]float32{0.9, 0.95, 1, 1}

// Profile overlay styling.
var (
	ProfilePointColor = [3]float32{1, 0, 0}
	ProfileLineColor  = [3]float32{0, 1, 0}
)

const (
	ProfilePointSize = 10
	ProfileLineWidth = 2
)

// Frame is everything one Draw needs.
type Frame struct {
	Mesh    Handle
	Texture Handle

	View       mgl32.Mat4
	Projection mgl32.Mat4

	TextureEnabled bool
	ColoredLayer   bool
	VerticalScale  float32
	MinHeight      float32
	MaxHeight      float32
	Colors         [colorramp.Stops][3]float32

	// ProfilePoints are drawn as points, joined by a line when there are two.
	ProfilePoints []mgl32.Vec3
}

// Gateway uploads terrain resources and draws frames. Meshes are flat
// stride-5 (x, y, z, u, v) triangle lists. Implementations are used from a
// single goroutine.
type Gateway interface {
	// CreateMesh uploads a vertex buffer.
	CreateMesh(vertices []float32) (Handle, error)
	// UpdateMesh replaces the contents of a mesh with a buffer of the same length.
	UpdateMesh(h Handle, vertices []float32) error
	// CreateTexture uploads a texture with mipmaps, linear filtering and
	// clamp-to-edge wrapping.
	CreateTexture(img *texture.Image) (Handle, error)
	// Release frees a mesh or texture. Unknown handles are ignored.
	Release(h Handle)
	// Draw clears the viewport and renders f.
	Draw(f *Frame) error
	// ReadDepth returns the depth at window position (x, y), origin bottom
	// left, after the last Draw. Background pixels read 1.
	ReadDepth(x, y int) (float32, error)
	// Viewport returns the drawable size in pixels.
	Viewport() (width, height int)
	// Resize changes the drawable size.
	Resize(width, height int)
	// Close releases every resource.
	Close() error
}
