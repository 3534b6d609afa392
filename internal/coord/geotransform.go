package coord

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// ErrSingularTransform is returned when a geotransform has no inverse.
var ErrSingularTransform = errors.New("singular geotransform")

// singularEpsilon is the smallest determinant treated as invertible.
const singularEpsilon = 1e-9

// GeoTransform is the GDAL-style affine pixel-to-CRS transform:
//
//	x = gt[0] + col*gt[1] + row*gt[2]
//	y = gt[3] + col*gt[4] + row*gt[5]
//
// where (col, row) addresses the top-left corner of a pixel.
type GeoTransform [6]float64

// NorthUp builds a transform without rotation terms.
func NorthUp(originX, originY, pixelW, pixelH float64) GeoTransform {
	return GeoTransform{originX, pixelW, 0, originY, 0, pixelH}
}

// Apply maps pixel coordinates to CRS coordinates.
func (gt GeoTransform) Apply(col, row float64) (x, y float64) {
	return gt[0] + col*gt[1] + row*gt[2], gt[3] + col*gt[4] + row*gt[5]
}

// Determinant of the linear part.
func (gt GeoTransform) Determinant() float64 {
	return gt[1]*gt[5] - gt[2]*gt[4]
}

// Invertible reports whether the transform has a usable inverse.
func (gt GeoTransform) Invertible() bool {
	return math.Abs(gt.Determinant()) >= singularEpsilon
}

// Invert returns the CRS-to-pixel transform.
func (gt GeoTransform) Invert() (GeoTransform, error) {
	if !gt.Invertible() {
		return GeoTransform{}, fmt.Errorf("determinant %g: %w", gt.Determinant(), ErrSingularTransform)
	}
	det := gt.Determinant()
	inv := 1 / det
	return GeoTransform{
		(gt[2]*gt[3] - gt[0]*gt[5]) * inv,
		gt[5] * inv,
		-gt[2] * inv,
		(-gt[1]*gt[3] + gt[0]*gt[4]) * inv,
		-gt[4] * inv,
		gt[1] * inv,
	}, nil
}

// ToPixel maps CRS coordinates to fractional pixel coordinates.
func (gt GeoTransform) ToPixel(x, y float64) (col, row float64, err error) {
	inv, err := gt.Invert()
	if err != nil {
		return 0, 0, err
	}
	col, row = inv.Apply(x, y)
	return col, row, nil
}

// Bounds returns the extent of a width x height raster spanned by the origin
// and width*pixelW, height*pixelH. Rotation terms are ignored.
func (gt GeoTransform) Bounds(width, height int) orb.Bound {
	minX := gt[0]
	maxX := gt[0] + float64(width)*gt[1]
	maxY := gt[3]
	minY := gt[3] + float64(height)*gt[5]
	return orb.Bound{
		Min: orb.Point{math.Min(minX, maxX), math.Min(minY, maxY)},
		Max: orb.Point{math.Max(minX, maxX), math.Max(minY, maxY)},
	}
}

// Center is the midpoint of Bounds.
func (gt GeoTransform) Center(width, height int) orb.Point {
	return gt.Bounds(width, height).Center()
}

// LooksGeographic guesses whether the transform is in degrees: the whole
// extent must fit in longitude/latitude ranges.
func (gt GeoTransform) LooksGeographic(width, height int) bool {
	b := gt.Bounds(width, height)
	return b.Min[0] >= -180 && b.Max[0] <= 360 && b.Min[1] >= -90 && b.Max[1] <= 90
}

func (gt GeoTransform) String() string {
	return fmt.Sprintf("[%.6f, %.9f, %.9f, %.6f, %.9f, %.9f]", gt[0], gt[1], gt[2], gt[3], gt[4], gt[5])
}
