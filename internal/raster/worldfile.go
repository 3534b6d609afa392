package raster

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pspoerri/terrainview/internal/coord"
)

// WorldFile holds the six parameters of an ESRI world file (.tfw, .wld).
//
// Line 1: A, x-component of pixel width
// Line 2: D, rotation about y-axis
// Line 3: B, rotation about x-axis
// Line 4: E, y-component of pixel height (negative for north-up)
// Line 5: C, x of the center of the upper-left pixel
// Line 6: F, y of the center of the upper-left pixel
type WorldFile struct {
	A, D, B, E, C, F float64
}

// parseWorldFile reads a world file from the given path.
func parseWorldFile(path string) (*WorldFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading world file %s: %w", path, err)
	}

	fields := strings.Fields(string(data))
	if len(fields) < 6 {
		return nil, fmt.Errorf("world file %s: expected 6 values, got %d", path, len(fields))
	}

	var vals [6]float64
	for i := range vals {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return nil, fmt.Errorf("world file %s line %d: %w", path, i+1, err)
		}
		vals[i] = v
	}

	return &WorldFile{A: vals[0], D: vals[1], B: vals[2], E: vals[3], C: vals[4], F: vals[5]}, nil
}

// findWorldFile looks for a world file sidecar next to the raster.
func findWorldFile(rasterPath string) string {
	ext := filepath.Ext(rasterPath)
	base := rasterPath[:len(rasterPath)-len(ext)]

	for _, c := range []string{".tfw", ".TFW", ".tifw", ".TIFW", ".wld", ".WLD"} {
		p := base + c
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// GeoTransform converts the world file into a corner-based geotransform by
// moving the origin half a pixel up and left from the first pixel center.
func (wf *WorldFile) GeoTransform() coord.GeoTransform {
	return coord.GeoTransform{
		wf.C - 0.5*wf.A - 0.5*wf.B,
		wf.A,
		wf.B,
		wf.F - 0.5*wf.D - 0.5*wf.E,
		wf.D,
		wf.E,
	}
}
