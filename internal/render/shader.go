package render

import (
	"image"
	"math"

	"github.com/fogleman/fauxgl"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/pspoerri/terrainview/internal/colorramp"
)

// edgeThreshold is the barycentric distance under which untextured
// surfaces draw their triangle edges.
const edgeThreshold = 0.01

var (
	surfaceGray = fauxgl.Color{R: 0.7, G: 0.7, B: 0.7, A: 1}
	edgeBlack   = fauxgl.Color{A: 1}
)

// terrainShader shades a mesh the way the GLSL program does: an elevation
// ramp, a texture, or a gray surface with dark edges. Vertices carry u, v
// and the scaled height in Texture, and barycentric weights in Color.
type terrainShader struct {
	mvp     mgl32.Mat4
	colored bool
	tex     *image.NRGBA
	vscale  float32
	colors  [colorramp.Stops][3]float32
}

func (s *terrainShader) Vertex(v fauxgl.Vertex) fauxgl.Vertex {
	p := s.mvp.Mul4x1(mgl32.Vec4{float32(v.Position.X), float32(v.Position.Y), float32(v.Position.Z), 1})
	v.Output = fauxgl.VectorW{X: float64(p[0]), Y: float64(p[1]), Z: float64(p[2]), W: float64(p[3])}
	return v
}

func (s *terrainShader) Fragment(v fauxgl.Vertex) fauxgl.Color {
	switch {
	case s.colored:
		c := colorramp.Interpolate(s.colors, float32(v.Texture.Z)/s.vscale)
		return fauxgl.Color{R: float64(c[0]), G: float64(c[1]), B: float64(c[2]), A: 1}
	case s.tex != nil:
		return sampleBilinear(s.tex, v.Texture.X, v.Texture.Y)
	}
	if math.Min(math.Min(v.Color.R, v.Color.G), v.Color.B) < edgeThreshold {
		return edgeBlack
	}
	return surfaceGray
}

// sampleBilinear reads img at texture coordinates (u, v), clamped to the
// edge. v = 1 is the first image row.
func sampleBilinear(img *image.NRGBA, u, v float64) fauxgl.Color {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	x := clampf(u, 0, 1) * float64(w-1)
	y := (1 - clampf(v, 0, 1)) * float64(h-1)

	x0, y0 := int(x), int(y)
	x1, y1 := min(x0+1, w-1), min(y0+1, h-1)
	fx, fy := x-float64(x0), y-float64(y0)

	var out [4]float64
	for k := 0; k < 4; k++ {
		p00 := float64(img.Pix[img.PixOffset(b.Min.X+x0, b.Min.Y+y0)+k])
		p10 := float64(img.Pix[img.PixOffset(b.Min.X+x1, b.Min.Y+y0)+k])
		p01 := float64(img.Pix[img.PixOffset(b.Min.X+x0, b.Min.Y+y1)+k])
		p11 := float64(img.Pix[img.PixOffset(b.Min.X+x1, b.Min.Y+y1)+k])
		top := p00 + (p10-p00)*fx
		bottom := p01 + (p11-p01)*fx
		out[k] = (top + (bottom-top)*fy) / 255
	}
	return fauxgl.Color{R: out[0], G: out[1], B: out[2], A: out[3]}
}

func clampf(v, lo, hi float64) float64 {
	if v != v {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
