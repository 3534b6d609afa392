package mesh

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/pspoerri/terrainview/internal/raster"
	"github.com/pspoerri/terrainview/internal/texture"
)

// Stride is the number of float32 values per vertex: x, y, z, u, v.
const Stride = 5

// VerticesPerCell is the vertex count of the two triangles of one cell.
const VerticesPerCell = 6

// VertexCount returns the number of vertices Build emits for dem.
func VertexCount(dem *raster.DemGrid) int {
	if dem.Width < 2 || dem.Height < 2 {
		return 0
	}
	return (dem.Width - 1) * (dem.Height - 1) * VerticesPerCell
}

// Build emits two triangles per DEM cell, (c,r) (c+1,r) (c,r+1) and
// (c+1,r) (c+1,r+1) (c,r+1), as a flat stride-5 vertex list. Heights are
// multiplied by verticalScale. Texture coordinates come from tex; a nil tex
// maps the DEM's own footprint.
func Build(dem *raster.DemGrid, tex *texture.Footprint, frame Frame, verticalScale float32) ([]float32, error) {
	fp := texture.Footprint{Transform: dem.Transform, Width: dem.Width, Height: dem.Height}
	if tex != nil {
		fp = *tex
	}
	inv, err := fp.Transform.Invert()
	if err != nil {
		return nil, fmt.Errorf("texture geotransform: %w", err)
	}

	// Vertices are shared by up to six triangles; compute each grid node once.
	nodes := make([][Stride]float32, dem.Width*dem.Height)
	uScale, vScale := span(fp.Width), span(fp.Height)
	for r := 0; r < dem.Height; r++ {
		for c := 0; c < dem.Width; c++ {
			gx, gy := dem.Transform.Apply(float64(c), float64(r))
			x, z := frame.ToScene(gx, gy)
			px, py := inv.Apply(gx, gy)
			u := clamp01(float32(px) * uScale)
			v := clamp01(1 - float32(py)*vScale)
			nodes[r*dem.Width+c] = [Stride]float32{x, dem.At(c, r) * verticalScale, z, u, v}
		}
	}

	out := make([]float32, 0, VertexCount(dem)*Stride)
	for r := 0; r < dem.Height-1; r++ {
		for c := 0; c < dem.Width-1; c++ {
			tl := r*dem.Width + c
			tr, bl, br := tl+1, tl+dem.Width, tl+dem.Width+1
			for _, i := range [VerticesPerCell]int{tl, tr, bl, tr, br, bl} {
				out = append(out, nodes[i][:]...)
			}
		}
	}
	return out, nil
}

// span is the reciprocal of the last pixel index, or 0 for a single pixel.
func span(n int) float32 {
	if n <= 1 {
		return 0
	}
	return 1 / float32(n-1)
}

func clamp01(v float32) float32 {
	if math32.IsNaN(v) {
		return 0
	}
	return math32.Max(0, math32.Min(1, v))
}
