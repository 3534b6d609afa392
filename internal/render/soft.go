package render

import (
	"fmt"
	"image"

	"github.com/fogleman/fauxgl"

	"github.com/pspoerri/terrainview/internal/texture"
)

const vertexStride = 5

// Soft is a Gateway that rasterizes on the CPU. It needs no window or GPU
// and is used for snapshots and tests.
type Soft struct {
	ctx      *fauxgl.Context
	next     Handle
	meshes   map[Handle][]*fauxgl.Triangle
	textures map[Handle]*image.NRGBA
}

// NewSoft returns a gateway with a width x height framebuffer.
func NewSoft(width, height int) *Soft {
	s := &Soft{
		meshes:   make(map[Handle][]*fauxgl.Triangle),
		textures: make(map[Handle]*image.NRGBA),
	}
	s.Resize(width, height)
	return s
}

func (s *Soft) allocate() Handle {
	s.next++
	return s.next
}

func (s *Soft) CreateMesh(vertices []float32) (Handle, error) {
	tris, err := triangles(vertices)
	if err != nil {
		return 0, err
	}
	h := s.allocate()
	s.meshes[h] = tris
	return h, nil
}

func (s *Soft) UpdateMesh(h Handle, vertices []float32) error {
	old, ok := s.meshes[h]
	if !ok {
		return fmt.Errorf("mesh %d: %w", h, ErrInvalidHandle)
	}
	tris, err := triangles(vertices)
	if err != nil {
		return err
	}
	if len(tris) != len(old) {
		return fmt.Errorf("mesh %d has %d triangles, update has %d", h, len(old), len(tris))
	}
	s.meshes[h] = tris
	return nil
}

func (s *Soft) CreateTexture(img *texture.Image) (Handle, error) {
	if img == nil || img.Width <= 0 || img.Height <= 0 {
		return 0, fmt.Errorf("empty texture: %w", texture.ErrUnsupportedFormat)
	}
	h := s.allocate()
	s.textures[h] = img.ToImage()
	return h, nil
}

func (s *Soft) Release(h Handle) {
	delete(s.meshes, h)
	delete(s.textures, h)
}

func (s *Soft) Draw(f *Frame) error {
	s.ctx.ClearColorBufferWith(fauxgl.Color{
		R: float64(Background[0]), G: float64(Background[1]), B: float64(Background[2]), A: float64(Background[3]),
	})
	s.ctx.ClearDepthBuffer()

	if f.Mesh != 0 {
		tris, ok := s.meshes[f.Mesh]
		if !ok {
			return fmt.Errorf("mesh %d: %w", f.Mesh, ErrInvalidHandle)
		}
		sh := &terrainShader{
			mvp:     f.Projection.Mul4(f.View),
			colored: f.ColoredLayer,
			vscale:  f.VerticalScale,
			colors:  f.Colors,
		}
		if sh.vscale == 0 {
			sh.vscale = 1
		}
		if f.TextureEnabled && f.Texture != 0 {
			tex, ok := s.textures[f.Texture]
			if !ok {
				return fmt.Errorf("texture %d: %w", f.Texture, ErrInvalidHandle)
			}
			sh.tex = tex
		}
		s.ctx.Shader = sh
		s.ctx.DrawTriangles(tris)
	}

	drawProfile(s.ctx.ColorBuffer, f)
	return nil
}

func (s *Soft) ReadDepth(x, y int) (float32, error) {
	w, h := s.ctx.Width, s.ctx.Height
	if x < 0 || x >= w || y < 0 || y >= h {
		return 0, fmt.Errorf("depth read at (%d, %d) outside %dx%d", x, y, w, h)
	}
	d := s.ctx.DepthBuffer[(h-1-y)*w+x]
	if d >= 1 {
		return 1, nil
	}
	return float32(d), nil
}

func (s *Soft) Viewport() (int, int) {
	return s.ctx.Width, s.ctx.Height
}

func (s *Soft) Resize(width, height int) {
	s.ctx = fauxgl.NewContext(max(width, 1), max(height, 1))
	s.ctx.Cull = fauxgl.CullNone
}

func (s *Soft) Close() error {
	clear(s.meshes)
	clear(s.textures)
	return nil
}

// Image returns the color buffer of the last Draw.
func (s *Soft) Image() *image.NRGBA {
	return s.ctx.ColorBuffer
}

// triangles converts a stride-5 vertex list into fauxgl triangles. Texture
// carries (u, v, y) and Color the barycentric corner for edge shading.
func triangles(vertices []float32) ([]*fauxgl.Triangle, error) {
	if len(vertices)%(3*vertexStride) != 0 {
		return nil, fmt.Errorf("vertex buffer length %d is not a multiple of %d", len(vertices), 3*vertexStride)
	}
	corners := [3]fauxgl.Color{{R: 1, A: 1}, {G: 1, A: 1}, {B: 1, A: 1}}
	tris := make([]*fauxgl.Triangle, 0, len(vertices)/(3*vertexStride))
	for i := 0; i < len(vertices); i += 3 * vertexStride {
		var vs [3]fauxgl.Vertex
		for k := range vs {
			v := vertices[i+k*vertexStride : i+(k+1)*vertexStride]
			vs[k] = fauxgl.Vertex{
				Position: fauxgl.Vector{X: float64(v[0]), Y: float64(v[1]), Z: float64(v[2])},
				Texture:  fauxgl.Vector{X: float64(v[3]), Y: float64(v[4]), Z: float64(v[1])},
				Color:    corners[k],
			}
		}
		tris = append(tris, &fauxgl.Triangle{V1: vs[0], V2: vs[1], V3: vs[2]})
	}
	return tris, nil
}

