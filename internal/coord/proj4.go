package coord

import (
	"fmt"

	"github.com/ctessum/geom/proj"
)

// wgs84Def is the geographic source CRS, longitude first.
const wgs84Def = "+proj=longlat +ellps=WGS84 +datum=WGS84 +no_defs"

// Proj4 is a Projection defined by a proj4 string.
type Proj4 struct {
	def     string
	forward proj.Transformer
	inverse proj.Transformer
}

// NewProj4 parses a proj4 definition and prepares transforms to and from WGS84.
func NewProj4(def string) (*Proj4, error) {
	dst, err := proj.Parse(def)
	if err != nil {
		return nil, fmt.Errorf("parsing proj4 %q: %v: %w", def, err, ErrProjection)
	}
	src, err := proj.Parse(wgs84Def)
	if err != nil {
		return nil, fmt.Errorf("parsing WGS84 definition: %v: %w", err, ErrProjection)
	}
	fwd, err := src.NewTransform(dst)
	if err != nil {
		return nil, fmt.Errorf("creating transform to %q: %v: %w", def, err, ErrProjection)
	}
	inv, err := dst.NewTransform(src)
	if err != nil {
		return nil, fmt.Errorf("creating transform from %q: %v: %w", def, err, ErrProjection)
	}
	return &Proj4{def: def, forward: fwd, inverse: inv}, nil
}

func (p *Proj4) FromWGS84(lon, lat float64) (x, y float64, err error) {
	x, y, err = p.forward(lon, lat)
	if err != nil {
		return 0, 0, fmt.Errorf("transforming (%g, %g): %v: %w", lon, lat, err, ErrProjection)
	}
	return x, y, nil
}

func (p *Proj4) ToWGS84(x, y float64) (lon, lat float64, err error) {
	lon, lat, err = p.inverse(x, y)
	if err != nil {
		return 0, 0, fmt.Errorf("transforming (%g, %g): %v: %w", x, y, err, ErrProjection)
	}
	return lon, lat, nil
}

func (p *Proj4) EPSG() int    { return 0 }
func (p *Proj4) Name() string { return p.def }
