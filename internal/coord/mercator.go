package coord

import (
	"fmt"
	"math"
)

// OriginShift is half the equatorial circumference of the Web Mercator sphere.
const OriginShift = 20037508.342789244

// maxMercatorLat is the latitude at which Web Mercator becomes square.
const maxMercatorLat = 85.05112878

// WebMercatorProj implements the Projection interface for EPSG:3857.
type WebMercatorProj struct{}

func (w *WebMercatorProj) EPSG() int    { return 3857 }
func (w *WebMercatorProj) Name() string { return "WGS 84 / Pseudo-Mercator" }

func (w *WebMercatorProj) ToWGS84(x, y float64) (lon, lat float64, err error) {
	lon = x / OriginShift * 180.0
	lat = math.Atan(math.Exp(y*math.Pi/OriginShift))*360.0/math.Pi - 90.0
	return lon, lat, nil
}

func (w *WebMercatorProj) FromWGS84(lon, lat float64) (x, y float64, err error) {
	if math.Abs(lat) > maxMercatorLat {
		return 0, 0, fmt.Errorf("latitude %g outside Web Mercator range: %w", lat, ErrProjection)
	}
	x = lon * OriginShift / 180.0
	y = math.Log(math.Tan((90.0+lat)*math.Pi/360.0)) / (math.Pi / 180.0)
	y = y * OriginShift / 180.0
	return x, y, nil
}
