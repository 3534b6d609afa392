package coord

import (
	"errors"
	"fmt"
)

// ErrProjection is returned when a target CRS cannot be built or a point
// cannot be transformed into it.
var ErrProjection = errors.New("projection failure")

// Projection converts between a projected CRS and WGS84.
type Projection interface {
	// ToWGS84 converts CRS coordinates to WGS84 longitude/latitude (degrees).
	ToWGS84(x, y float64) (lon, lat float64, err error)

	// FromWGS84 converts WGS84 longitude/latitude (degrees) to CRS coordinates.
	FromWGS84(lon, lat float64) (x, y float64, err error)

	// EPSG returns the EPSG code, or 0 for a CRS defined only by a proj4 string.
	EPSG() int

	// Name is a human readable label for logs and overlays.
	Name() string
}

// ForEPSG returns a built-in Projection for the given EPSG code.
//
// Supported codes:
//   - 4326 (identity)
//   - 3857 (Web Mercator)
//   - 2056 (Swiss LV95)
//   - 4513-4533 CGCS2000 3-degree Gauss-Kruger, zone-prefixed eastings
//   - 4534-4554 CGCS2000 3-degree Gauss-Kruger by central meridian
//   - 32601-32660, 32701-32760 WGS84 UTM north/south
func ForEPSG(epsg int) (Projection, error) {
	switch {
	case epsg == 4326:
		return &WGS84Identity{}, nil
	case epsg == 3857:
		return &WebMercatorProj{}, nil
	case epsg == 2056:
		return &SwissLV95{}, nil
	case epsg >= 4513 && epsg <= 4533:
		zone := epsg - 4513 + 25
		return &TransverseMercator{
			Code:            epsg,
			Label:           fmt.Sprintf("CGCS2000 / 3-degree Gauss-Kruger zone %d", zone),
			Ellipsoid:       CGCS2000,
			CentralMeridian: float64(zone * 3),
			ScaleFactor:     1,
			FalseEasting:    float64(zone)*1e6 + 500000,
		}, nil
	case epsg >= 4534 && epsg <= 4554:
		cm := 75 + (epsg-4534)*3
		return &TransverseMercator{
			Code:            epsg,
			Label:           fmt.Sprintf("CGCS2000 / 3-degree Gauss-Kruger CM %dE", cm),
			Ellipsoid:       CGCS2000,
			CentralMeridian: float64(cm),
			ScaleFactor:     1,
			FalseEasting:    500000,
		}, nil
	case epsg >= 32601 && epsg <= 32660, epsg >= 32701 && epsg <= 32760:
		zone := epsg % 100
		tm := &TransverseMercator{
			Code:            epsg,
			Label:           fmt.Sprintf("WGS 84 / UTM zone %dN", zone),
			Ellipsoid:       WGS84,
			CentralMeridian: float64(-183 + 6*zone),
			ScaleFactor:     0.9996,
			FalseEasting:    500000,
		}
		if epsg >= 32701 {
			tm.Label = fmt.Sprintf("WGS 84 / UTM zone %dS", zone)
			tm.FalseNorthing = 10000000
		}
		return tm, nil
	default:
		return nil, fmt.Errorf("EPSG:%d is not a built-in CRS: %w", epsg, ErrProjection)
	}
}

// Resolve picks the target projection from configuration: a non-empty proj4
// definition wins over the EPSG code.
func Resolve(epsg int, proj4 string) (Projection, error) {
	if proj4 != "" {
		return NewProj4(proj4)
	}
	return ForEPSG(epsg)
}

// WGS84Identity is a no-op projection for data already in EPSG:4326.
type WGS84Identity struct{}

func (w *WGS84Identity) ToWGS84(x, y float64) (float64, float64, error)      { return x, y, nil }
func (w *WGS84Identity) FromWGS84(lon, lat float64) (float64, float64, error) { return lon, lat, nil }
func (w *WGS84Identity) EPSG() int                                            { return 4326 }
func (w *WGS84Identity) Name() string                                         { return "WGS 84" }
