package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/pspoerri/terrainview/internal/raster"
	"github.com/pspoerri/terrainview/internal/raster/rastertest"
)

func writeDEM(t *testing.T) string {
	t.Helper()
	heights := make([]float32, 8*6)
	for i := range heights {
		heights[i] = float32(i * 20)
	}
	path := filepath.Join(t.TempDir(), "dem.tif")
	if err := rastertest.Write(path, rastertest.Spec{
		Width: 8, Height: 6, Bands: 1, Bits: 32, Format: rastertest.Float,
		Data:      rastertest.Float32s(heights),
		Transform: &[6]float64{115.85, 0.0003, 0, 29.65, 0, -0.0003},
	}); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	o := options{
		demPath:     writeDEM(t),
		outPath:     filepath.Join(dir, "view.png"),
		stlPath:     filepath.Join(dir, "mesh.stl"),
		quality:     90,
		width:       64,
		height:      48,
		supersample: 1,
		colored:     true,
	}
	if err := run(o); err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, path := range []string{o.outPath, o.stlPath} {
		if fi, err := os.Stat(path); err != nil || fi.Size() == 0 {
			t.Errorf("%s not written: %v", filepath.Base(path), err)
		}
	}
}

func TestRun_ReturnsErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		o    options
		want error
	}{
		{"missing DEM", options{demPath: filepath.Join(dir, "missing.tif"), supersample: 1}, raster.ErrLoad},
		{"bad orbit", options{demPath: writeDEM(t), orbit: "1", supersample: 1}, nil},
		{"missing config", options{demPath: writeDEM(t), configPath: filepath.Join(dir, "missing.yaml")}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(tt.o)
			if err == nil {
				t.Fatal("run succeeded")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}
