package raster

import (
	"fmt"
	"log"

	"github.com/chewxy/math32"
	"github.com/paulmach/orb"

	"github.com/pspoerri/terrainview/internal/coord"
)

// DemGrid is a loaded elevation raster in projected coordinates.
type DemGrid struct {
	Width     int
	Height    int
	Heights   []float32 // row-major, Width*Height
	Transform coord.GeoTransform
	Min, Max  float32
	Filled    int // nodata cells replaced by Min
}

// NewDemGrid validates heights and computes the height range. NaN cells and
// cells equal to nodata (when hasNoData) are replaced by the minimum valid height.
func NewDemGrid(width, height int, heights []float32, gt coord.GeoTransform, nodata float32, hasNoData bool) (*DemGrid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid DEM size %dx%d", width, height)
	}
	if len(heights) != width*height {
		return nil, fmt.Errorf("DEM has %d heights, want %d", len(heights), width*height)
	}

	invalid := func(v float32) bool {
		return math32.IsNaN(v) || (hasNoData && v == nodata)
	}

	lo, hi := math32.Inf(1), math32.Inf(-1)
	for _, v := range heights {
		if invalid(v) {
			continue
		}
		lo = math32.Min(lo, v)
		hi = math32.Max(hi, v)
	}
	if math32.IsInf(lo, 1) {
		lo, hi = 0, 0
	}

	g := &DemGrid{Width: width, Height: height, Heights: heights, Transform: gt, Min: lo, Max: hi}
	for i, v := range heights {
		if invalid(v) {
			heights[i] = lo
			g.Filled++
		}
	}
	return g, nil
}

// Contains reports whether (col, row) addresses a cell.
func (g *DemGrid) Contains(col, row int) bool {
	return col >= 0 && col < g.Width && row >= 0 && row < g.Height
}

// At returns the height at (col, row), which must be inside the grid.
func (g *DemGrid) At(col, row int) float32 {
	return g.Heights[row*g.Width+col]
}

// Clamp moves (col, row) onto the nearest cell.
func (g *DemGrid) Clamp(col, row int) (int, int) {
	return clampInt(col, 0, g.Width-1), clampInt(row, 0, g.Height-1)
}

// Bounds returns the projected extent.
func (g *DemGrid) Bounds() orb.Bound {
	return g.Transform.Bounds(g.Width, g.Height)
}

// Center is the midpoint of the projected extent, the scene origin.
func (g *DemGrid) Center() orb.Point {
	return g.Bounds().Center()
}

// Loader opens rasters and brings their geotransforms into the target CRS.
type Loader struct {
	Reprojector *coord.Reprojector
	Verbose     bool
}

// Georeference returns ds's geotransform in the target CRS.
func (l *Loader) Georeference(ds *Dataset) (coord.GeoTransform, error) {
	gt, err := ds.GeoTransform()
	if err != nil {
		return coord.GeoTransform{}, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	if l.Reprojector == nil {
		return gt, nil
	}
	projected, err := l.Reprojector.Reproject(gt, ds.Width(), ds.Height())
	if err != nil {
		return coord.GeoTransform{}, fmt.Errorf("reprojecting %s: %w: %w", ds.Path(), ErrLoad, err)
	}
	if l.Verbose {
		log.Printf("Georeferenced %s: %v -> %v", ds.Path(), gt, projected)
	}
	return projected, nil
}

// LoadDEM reads band 1 of path as a DemGrid in the target CRS. Nothing is
// kept open on return.
func (l *Loader) LoadDEM(path string) (*DemGrid, error) {
	ds, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer ds.Close()

	gt, err := l.Georeference(ds)
	if err != nil {
		return nil, err
	}

	heights, err := ds.ReadBandFloat32(1)
	if err != nil {
		return nil, err
	}

	nodata, hasNoData := ds.NoData()
	grid, err := NewDemGrid(ds.Width(), ds.Height(), heights, gt, float32(nodata), hasNoData)
	if err != nil {
		return nil, fmt.Errorf("%s: %v: %w", path, err, ErrLoad)
	}

	if l.Verbose {
		log.Printf("Loaded DEM %s: %dx%d, height [%.1f, %.1f], %d nodata cells filled",
			path, grid.Width, grid.Height, grid.Min, grid.Max, grid.Filled)
	}
	return grid, nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
