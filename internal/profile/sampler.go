// Package profile samples elevation cross-sections between two picked points.
package profile

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/pspoerri/terrainview/internal/mesh"
	"github.com/pspoerri/terrainview/internal/pick"
	"github.com/pspoerri/terrainview/internal/raster"
)

// ErrProfileConversion is returned when an endpoint cannot be mapped to the DEM.
var ErrProfileConversion = errors.New("profile endpoint conversion failed")

const (
	// shortLineSamples is used when both endpoints fall in one cell but are
	// apart on the ground.
	shortLineSamples = 100
	minSamples       = 2
)

// Sample is one point of a cross-section.
type Sample struct {
	Distance  float64 // meters from the first endpoint
	Elevation float32
	Col, Row  int       // DEM cell the elevation was read from
	Point     orb.Point // projected position along the line
}

// Sampler reads cross-sections from a DEM placed in the scene by Frame.
type Sampler struct {
	DEM   *raster.DemGrid
	Frame mesh.Frame
}

// Sample walks the DEM from p1 to p2 in grid-aligned steps: one sample per
// cell along the longer axis. Grid positions are clamped into the DEM, so
// endpoints picked on the terrain edge are safe.
func (s *Sampler) Sample(p1, p2 mgl32.Vec3) ([]Sample, error) {
	gt := s.DEM.Transform
	c1, r1, err := pick.WorldToGrid(p1, s.Frame, gt)
	if err != nil {
		return nil, fmt.Errorf("first endpoint: %w: %w", ErrProfileConversion, err)
	}
	c2, r2, err := pick.WorldToGrid(p2, s.Frame, gt)
	if err != nil {
		return nil, fmt.Errorf("second endpoint: %w: %w", ErrProfileConversion, err)
	}

	x1, y1 := pick.WorldToGeo(p1, s.Frame)
	x2, y2 := pick.WorldToGeo(p2, s.Frame)
	start := orb.Point{x1, y1}
	total := planar.Distance(start, orb.Point{x2, y2})

	n := max(absInt(c2-c1), absInt(r2-r1)) + 1
	switch {
	case n <= 1 && total > 0:
		n = shortLineSamples
	case n <= 1:
		n = minSamples
	}

	out := make([]Sample, n)
	for i := range out {
		t := float64(i) / float64(n-1)
		col, row := s.DEM.Clamp(
			int(math.Round(float64(c1)+t*float64(c2-c1))),
			int(math.Round(float64(r1)+t*float64(r2-r1))),
		)
		pt := orb.Point{x1 + t*(x2-x1), y1 + t*(y2-y1)}
		out[i] = Sample{
			Distance:  planar.Distance(start, pt),
			Elevation: s.DEM.At(col, row),
			Col:       col,
			Row:       row,
			Point:     pt,
		}
	}
	return out, nil
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
