// Package pick maps window positions onto the rendered terrain and back to
// DEM cells.
package pick

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pspoerri/terrainview/internal/coord"
	"github.com/pspoerri/terrainview/internal/mesh"
)

var (
	// ErrPickMiss is returned when the pixel under the pointer shows no
	// terrain.
	ErrPickMiss = errors.New("pick missed the terrain")
	// ErrSingularTransform is returned when the DEM geotransform has no inverse.
	ErrSingularTransform = coord.ErrSingularTransform
)

// DepthReader reads the depth buffer in window coordinates (origin bottom
// left). 1 is the far plane.
type DepthReader interface {
	ReadDepth(x, y int) (float32, error)
}

// Picker unprojects with the matrices of the most recent render. Picks made
// after the camera moved but before the next render use the old frame.
type Picker struct {
	view, projection mgl32.Mat4
	width, height    int
	ready            bool
}

// Update caches the matrices and viewport of a finished render.
func (p *Picker) Update(view, projection mgl32.Mat4, width, height int) {
	p.view, p.projection = view, projection
	p.width, p.height = width, height
	p.ready = true
}

// Ready reports whether a render has been recorded.
func (p *Picker) Ready() bool { return p.ready }

// WindowY converts a top-down screen row to a bottom-up window row.
func (p *Picker) WindowY(screenY int) int {
	return p.height - screenY - 1
}

// ScreenToWorld unprojects screen position (x, y), y growing downwards,
// at the given depth. Depths at or beyond the far plane are misses.
func (p *Picker) ScreenToWorld(screenX, screenY int, depth float32) (mgl32.Vec3, error) {
	if !p.Ready() {
		return mgl32.Vec3{}, fmt.Errorf("no frame rendered yet: %w", ErrPickMiss)
	}
	if depth >= 1 || depth != depth {
		return mgl32.Vec3{}, fmt.Errorf("depth %.3f at (%d, %d): %w", depth, screenX, screenY, ErrPickMiss)
	}
	win := mgl32.Vec3{float32(screenX), float32(p.WindowY(screenY)), depth}
	world, err := mgl32.UnProject(win, p.view, p.projection, 0, 0, p.width, p.height)
	if err != nil {
		return mgl32.Vec3{}, fmt.Errorf("unprojecting (%d, %d): %v: %w", screenX, screenY, err, ErrPickMiss)
	}
	return world, nil
}

// Pick reads the depth under screen position (x, y) and unprojects it.
func (p *Picker) Pick(depths DepthReader, screenX, screenY int) (mgl32.Vec3, error) {
	if !p.Ready() {
		return mgl32.Vec3{}, fmt.Errorf("no frame rendered yet: %w", ErrPickMiss)
	}
	if screenX < 0 || screenX >= p.width || screenY < 0 || screenY >= p.height {
		return mgl32.Vec3{}, fmt.Errorf("(%d, %d) is outside the %dx%d viewport: %w", screenX, screenY, p.width, p.height, ErrPickMiss)
	}
	depth, err := depths.ReadDepth(screenX, p.WindowY(screenY))
	if err != nil {
		return mgl32.Vec3{}, fmt.Errorf("reading depth: %w", err)
	}
	return p.ScreenToWorld(screenX, screenY, depth)
}

// WorldToGeo maps a scene point to projected coordinates.
func WorldToGeo(world mgl32.Vec3, frame mesh.Frame) (x, y float64) {
	return frame.ToGeo(world.X(), world.Z())
}

// WorldToGrid maps a scene point to the nearest DEM cell. The result may lie
// outside the grid.
func WorldToGrid(world mgl32.Vec3, frame mesh.Frame, gt coord.GeoTransform) (col, row int, err error) {
	x, y := WorldToGeo(world, frame)
	c, r, err := gt.ToPixel(x, y)
	if err != nil {
		return 0, 0, err
	}
	return int(math.Round(c)), int(math.Round(r)), nil
}
