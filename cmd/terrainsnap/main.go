package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/nfnt/resize"

	"github.com/pspoerri/terrainview/internal/config"
	"github.com/pspoerri/terrainview/internal/encode"
	"github.com/pspoerri/terrainview/internal/profile"
	"github.com/pspoerri/terrainview/internal/render"
	"github.com/pspoerri/terrainview/internal/session"
)

// Set via -ldflags at build time.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

type options struct {
	configPath     string
	demPath        string
	imgPath        string
	outPath        string
	quality        int
	width, height  int
	supersample    int
	verticalScale  float64
	colored        bool
	noTexture      bool
	orbit          string
	zoom           int
	profileLine    string
	profileCSV     string
	profileChart   string
	profileGeoJSON string
	stlPath        string
	terrariumPath  string
	verbose        bool
}

func main() {
	var (
		o           options
		showVersion bool
	)

	flag.StringVar(&o.configPath, "config", "", "YAML config file")
	flag.StringVar(&o.demPath, "dem", "", "DEM GeoTIFF (required)")
	flag.StringVar(&o.imgPath, "img", "", "Imagery GeoTIFF draped over the DEM")
	flag.StringVar(&o.outPath, "out", "", "Snapshot image: .png, .jpg or .webp")
	flag.IntVar(&o.quality, "quality", 90, "JPEG/WebP quality 1-100")
	flag.IntVar(&o.width, "width", 0, "Snapshot width (default: config viewport)")
	flag.IntVar(&o.height, "height", 0, "Snapshot height (default: config viewport)")
	flag.IntVar(&o.supersample, "supersample", 2, "Render at N times the size and downsample")
	flag.Float64Var(&o.verticalScale, "vertical-scale", 0, "Height exaggeration (default: config)")
	flag.BoolVar(&o.colored, "colored", false, "Shade by elevation instead of imagery")
	flag.BoolVar(&o.noTexture, "no-texture", false, "Hide the imagery")
	flag.StringVar(&o.orbit, "orbit", "", "Camera drag in pixels before rendering, as dx,dy")
	flag.IntVar(&o.zoom, "zoom", 0, "Zoom steps; negative zooms out")
	flag.StringVar(&o.profileLine, "profile", "", "Profile between two screen points x1,y1,x2,y2")
	flag.StringVar(&o.profileCSV, "profile-csv", "", "Write profile samples as CSV")
	flag.StringVar(&o.profileChart, "profile-chart", "", "Write profile chart (.png, .svg, .pdf)")
	flag.StringVar(&o.profileGeoJSON, "profile-geojson", "", "Write profile line as GeoJSON")
	flag.StringVar(&o.stlPath, "stl", "", "Write the terrain mesh as binary STL")
	flag.StringVar(&o.terrariumPath, "terrarium", "", "Write the DEM as a Terrarium-encoded PNG")
	flag.BoolVar(&o.verbose, "verbose", false, "Verbose progress output")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: terrainsnap [flags] -dem dem.tif [-img image.tif] -out view.png\n\n")
		fmt.Fprintf(os.Stderr, "Render a terrain view without a window and export profiles and meshes.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if showVersion {
		fmt.Printf("terrainsnap %s (commit %s, built %s)\n", version, commit, buildDate)
		os.Exit(0)
	}
	if o.demPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if err := run(o); err != nil {
		log.Fatal(err)
	}
}

// run owns the session so its deferred Close runs on every error path.
func run(o options) error {
	cfg := config.Default()
	if o.configPath != "" {
		var err error
		if cfg, err = config.Load(o.configPath); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	cfg.Verbose = cfg.Verbose || o.verbose
	if o.width > 0 {
		cfg.Viewport.Width = o.width
	}
	if o.height > 0 {
		cfg.Viewport.Height = o.height
	}
	supersample := max(o.supersample, 1)

	gw := render.NewSoft(cfg.Viewport.Width*supersample, cfg.Viewport.Height*supersample)
	s, err := session.New(cfg, gw)
	if err != nil {
		return fmt.Errorf("session: %w", err)
	}
	defer s.Close()

	start := time.Now()
	if err := s.OpenTerrain(o.demPath, o.imgPath); err != nil {
		return fmt.Errorf("opening terrain: %w", err)
	}
	if cfg.Verbose {
		log.Printf("Opened terrain in %v", time.Since(start).Round(time.Millisecond))
	}

	if o.verticalScale > 0 {
		if err := s.SetVerticalScale(float32(o.verticalScale)); err != nil {
			return fmt.Errorf("vertical scale: %w", err)
		}
	}
	if o.colored {
		s.ToggleColoredLayer()
	} else if o.noTexture {
		s.SetTextureEnabled(false)
	}
	if o.orbit != "" {
		d, err := parseFloats(o.orbit, 2)
		if err != nil {
			return fmt.Errorf("-orbit: %w", err)
		}
		s.Orbit(float32(d[0]), float32(d[1]))
	}
	for zoom := o.zoom; zoom > 0; zoom-- {
		s.ZoomIn()
	}
	for zoom := o.zoom; zoom < 0; zoom++ {
		s.ZoomOut()
	}

	if o.profileLine != "" {
		samples, err := runProfile(s, o.profileLine, supersample)
		if err != nil {
			return fmt.Errorf("profile: %w", err)
		}
		sum := profile.Summarize(samples)
		fmt.Printf("Profile: %d samples, length %.1f m, elevation [%.1f, %.1f], mean %.1f, ascent %.1f, descent %.1f\n",
			len(samples), sum.Length, sum.Min, sum.Max, sum.Mean, sum.Ascent, sum.Descent)
		if err := exportProfile(samples, o.profileCSV, o.profileChart, o.profileGeoJSON); err != nil {
			return fmt.Errorf("profile export: %w", err)
		}
	}

	if o.outPath != "" {
		if err := snapshot(s, gw, o.outPath, o.quality, cfg.Viewport.Width, cfg.Viewport.Height); err != nil {
			return fmt.Errorf("snapshot: %w", err)
		}
		fmt.Printf("Snapshot %dx%d (vertical scale %s) → %s\n", cfg.Viewport.Width, cfg.Viewport.Height, s.ScaleLabel(), o.outPath)
	}

	if o.stlPath != "" {
		if err := s.ExportSTL(o.stlPath); err != nil {
			return fmt.Errorf("STL: %w", err)
		}
		fmt.Printf("Mesh → %s\n", o.stlPath)
	}

	if o.terrariumPath != "" {
		if err := encode.WriteFile(o.terrariumPath, encode.TerrariumImage(s.DEM()), &encode.TerrariumEncoder{}); err != nil {
			return fmt.Errorf("terrarium: %w", err)
		}
		fmt.Printf("Terrarium DEM → %s\n", o.terrariumPath)
	}
	return nil
}

// runProfile renders once, then picks both endpoints given in output
// pixels.
func runProfile(s *session.Session, line string, supersample int) ([]profile.Sample, error) {
	v, err := parseFloats(line, 4)
	if err != nil {
		return nil, err
	}
	if err := s.BeginProfile(); err != nil {
		return nil, err
	}
	if err := s.Render(); err != nil {
		return nil, err
	}
	if _, err := s.PickPoint(int(v[0])*supersample, int(v[1])*supersample); err != nil {
		return nil, fmt.Errorf("first point: %w", err)
	}
	samples, err := s.PickPoint(int(v[2])*supersample, int(v[3])*supersample)
	if err != nil {
		return nil, fmt.Errorf("second point: %w", err)
	}
	return samples, nil
}

func exportProfile(samples []profile.Sample, csvPath, chartPath, geojsonPath string) error {
	if csvPath != "" {
		f, err := os.Create(csvPath)
		if err != nil {
			return err
		}
		if err := profile.WriteCSV(f, samples); err != nil {
			f.Close()
			return fmt.Errorf("writing %s: %w", csvPath, err)
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	if chartPath != "" {
		if err := profile.SaveChart(chartPath, samples, "Elevation profile"); err != nil {
			return err
		}
	}
	if geojsonPath != "" {
		data, err := profile.Feature(samples).MarshalJSON()
		if err != nil {
			return err
		}
		if err := os.WriteFile(geojsonPath, data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", geojsonPath, err)
		}
	}
	return nil
}

// snapshot renders the view and downsamples the supersampled buffer to
// width x height.
func snapshot(s *session.Session, gw *render.Soft, path string, quality, width, height int) error {
	enc, err := encode.ForPath(path, quality)
	if err != nil {
		return err
	}
	if err := s.Render(); err != nil {
		return err
	}
	img := resize.Resize(uint(width), uint(height), gw.Image(), resize.Lanczos3)
	return encode.WriteFile(path, img, enc)
}

func parseFloats(s string, n int) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("%q: want %d comma-separated numbers", s, n)
	}
	out := make([]float64, n)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", s, err)
		}
		out[i] = v
	}
	return out, nil
}
