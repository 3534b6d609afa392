package render

import (
	"image"
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// drawProfile paints the profile markers over buf without depth testing.
func drawProfile(buf *image.NRGBA, f *Frame) {
	if len(f.ProfilePoints) == 0 {
		return
	}
	w, h := buf.Bounds().Dx(), buf.Bounds().Dy()
	mvp := f.Projection.Mul4(f.View)

	var pts []mgl32.Vec2
	for _, p := range f.ProfilePoints {
		if s, ok := toScreen(mvp, p, w, h); ok {
			pts = append(pts, s)
		}
	}

	if len(f.ProfilePoints) == 2 && len(pts) == 2 {
		line := nrgba(ProfileLineColor)
		d := pts[1].Sub(pts[0])
		steps := int(math.Ceil(float64(max(abs32(d.X()), abs32(d.Y())))))
		for i := 0; i <= steps; i++ {
			t := float32(0)
			if steps > 0 {
				t = float32(i) / float32(steps)
			}
			p := pts[0].Add(d.Mul(t))
			fillSquare(buf, p, ProfileLineWidth, line)
		}
	}

	point := nrgba(ProfilePointColor)
	for _, p := range pts {
		fillSquare(buf, p, ProfilePointSize, point)
	}
}

// toScreen projects p to pixel coordinates with row 0 at the top. Points
// behind the camera are not drawn.
func toScreen(mvp mgl32.Mat4, p mgl32.Vec3, w, h int) (mgl32.Vec2, bool) {
	clip := mvp.Mul4x1(p.Vec4(1))
	if clip.W() <= 0 {
		return mgl32.Vec2{}, false
	}
	ndc := clip.Vec3().Mul(1 / clip.W())
	x := (ndc.X() + 1) / 2 * float32(w)
	y := (1 - ndc.Y()) / 2 * float32(h)
	return mgl32.Vec2{x, y}, true
}

func fillSquare(buf *image.NRGBA, center mgl32.Vec2, size int, c color.NRGBA) {
	x0 := int(math.Floor(float64(center.X()) - float64(size)/2))
	y0 := int(math.Floor(float64(center.Y()) - float64(size)/2))
	r := image.Rect(x0, y0, x0+size, y0+size).Intersect(buf.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			buf.SetNRGBA(x, y, c)
		}
	}
}

func nrgba(c [3]float32) color.NRGBA {
	return color.NRGBA{uint8(c[0] * 255), uint8(c[1] * 255), uint8(c[2] * 255), 255}
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
