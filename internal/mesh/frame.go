// Package mesh turns a DEM into a textured triangle list in scene space.
package mesh

import (
	"github.com/paulmach/orb"
)

// DefaultSceneScale converts projected meters to scene units.
const DefaultSceneScale = 0.01

// Frame places projected coordinates in the scene: x grows east, z grows
// north, both relative to Center and multiplied by Scale.
type Frame struct {
	Center orb.Point
	Scale  float64
}

// NewFrame centers a frame on the DEM bounds. A non-positive scale selects
// DefaultSceneScale.
func NewFrame(center orb.Point, scale float64) Frame {
	if scale <= 0 {
		scale = DefaultSceneScale
	}
	return Frame{Center: center, Scale: scale}
}

// ToScene maps projected (x, y) to scene (x, z).
func (f Frame) ToScene(x, y float64) (float32, float32) {
	return float32((x - f.Center[0]) * f.Scale), float32((y - f.Center[1]) * f.Scale)
}

// ToGeo maps scene (x, z) back to projected coordinates.
func (f Frame) ToGeo(sx, sz float32) (float64, float64) {
	return float64(sx)/f.Scale + f.Center[0], float64(sz)/f.Scale + f.Center[1]
}
