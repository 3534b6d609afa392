package profile

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// WriteCSV writes one row per sample: distance, elevation, col, row, x, y.
func WriteCSV(w io.Writer, samples []Sample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"distance", "elevation", "col", "row", "x", "y"}); err != nil {
		return err
	}
	for _, s := range samples {
		rec := []string{
			strconv.FormatFloat(s.Distance, 'f', 3, 64),
			strconv.FormatFloat(float64(s.Elevation), 'f', 3, 32),
			strconv.Itoa(s.Col),
			strconv.Itoa(s.Row),
			strconv.FormatFloat(s.Point[0], 'f', 3, 64),
			strconv.FormatFloat(s.Point[1], 'f', 3, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Feature returns the profile line in projected coordinates with its
// summary as properties.
func Feature(samples []Sample) *geojson.Feature {
	line := make(orb.LineString, 0, 2)
	if len(samples) > 0 {
		line = append(line, samples[0].Point, samples[len(samples)-1].Point)
	}
	f := geojson.NewFeature(line)
	sum := Summarize(samples)
	f.Properties["samples"] = len(samples)
	f.Properties["length"] = sum.Length
	f.Properties["min_elevation"] = sum.Min
	f.Properties["max_elevation"] = sum.Max
	f.Properties["mean_elevation"] = sum.Mean
	f.Properties["ascent"] = sum.Ascent
	f.Properties["descent"] = sum.Descent
	return f
}

// Chart builds an elevation-over-distance line plot.
func Chart(samples []Sample, title string) (*plot.Plot, error) {
	dist, elev := Distances(samples), Elevations(samples)
	xys := make(plotter.XYs, len(samples))
	for i := range xys {
		xys[i].X, xys[i].Y = dist[i], elev[i]
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Distance (m)"
	p.Y.Label.Text = "Elevation (m)"
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(xys)
	if err != nil {
		return nil, fmt.Errorf("building profile line: %w", err)
	}
	p.Add(line)
	return p, nil
}

// WriteChart renders the profile chart to w in the format named by ext
// ("png", "svg", "pdf", ...).
func WriteChart(w io.Writer, samples []Sample, title, ext string) error {
	p, err := Chart(samples, title)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(16*vg.Centimeter, 8*vg.Centimeter, strings.TrimPrefix(ext, "."))
	if err != nil {
		return fmt.Errorf("chart format %q: %w", ext, err)
	}
	_, err = wt.WriteTo(w)
	return err
}

// SaveChart writes the profile chart to path; the extension selects the format.
func SaveChart(path string, samples []Sample, title string) error {
	p, err := Chart(samples, title)
	if err != nil {
		return err
	}
	if err := p.Save(16*vg.Centimeter, 8*vg.Centimeter, path); err != nil {
		return fmt.Errorf("saving chart %s: %w", filepath.Base(path), err)
	}
	return nil
}
