// Package config loads terrain viewer settings from YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pspoerri/terrainview/internal/camera"
	"github.com/pspoerri/terrainview/internal/colorramp"
	"github.com/pspoerri/terrainview/internal/coord"
	"github.com/pspoerri/terrainview/internal/mesh"
	"github.com/pspoerri/terrainview/internal/raster"
	"github.com/pspoerri/terrainview/internal/texture"
)

// DefaultEPSG is CGCS2000 / 3-degree Gauss-Kruger CM 75E.
const DefaultEPSG = 4534

// CRS selects the projected coordinate system terrain is placed in. A
// non-empty Proj4 definition takes precedence over EPSG.
type CRS struct {
	EPSG  int    `yaml:"epsg"`
	Proj4 string `yaml:"proj4"`
}

// Viewport is the initial window or snapshot size in pixels.
type Viewport struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Config holds every tunable of the viewer.
type Config struct {
	Verbose          bool            `yaml:"verbose"`
	TargetCRS        CRS             `yaml:"target_crs"`
	SourceGeographic string          `yaml:"source_geographic"` // force, auto or never
	SceneScale       float64         `yaml:"scene_scale"`
	VerticalScale    float32         `yaml:"vertical_scale"`
	MaxTextureSize   int             `yaml:"max_texture_size"`
	Colors           []string        `yaml:"colors"`
	Camera           camera.Settings `yaml:"camera"`
	Viewport         Viewport        `yaml:"viewport"`
}

// Default returns the stock configuration.
func Default() Config {
	return Config{
		TargetCRS:        CRS{EPSG: DefaultEPSG},
		SourceGeographic: coord.SourceForce.String(),
		SceneScale:       mesh.DefaultSceneScale,
		VerticalScale:    mesh.DefaultVerticalScale,
		MaxTextureSize:   texture.DefaultMaxSize,
		Colors:           colorramp.Default().Hex(),
		Camera:           camera.DefaultSettings(),
		Viewport:         Viewport{Width: 1280, Height: 800},
	}
}

// Load reads a YAML file over the defaults. Keys missing from the file keep
// their default values; unknown keys are an error.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges and resolves every derived setting once.
func (c *Config) Validate() error {
	if c.SceneScale <= 0 {
		return fmt.Errorf("scene_scale must be positive, got %g", c.SceneScale)
	}
	if c.VerticalScale < mesh.MinVerticalScale {
		return fmt.Errorf("vertical_scale must be at least %g, got %g", mesh.MinVerticalScale, c.VerticalScale)
	}
	if c.MaxTextureSize < 0 {
		return fmt.Errorf("max_texture_size must not be negative, got %d", c.MaxTextureSize)
	}
	if c.Viewport.Width <= 0 || c.Viewport.Height <= 0 {
		return fmt.Errorf("viewport must be positive, got %dx%d", c.Viewport.Width, c.Viewport.Height)
	}
	if _, err := coord.ParseSourceMode(c.SourceGeographic); err != nil {
		return err
	}
	if _, err := c.Scheme(); err != nil {
		return err
	}
	if _, err := c.Projection(); err != nil {
		return fmt.Errorf("target_crs: %w", err)
	}
	return nil
}

// Projection resolves the target CRS.
func (c *Config) Projection() (coord.Projection, error) {
	return coord.Resolve(c.TargetCRS.EPSG, c.TargetCRS.Proj4)
}

// Scheme parses the configured ramp colors.
func (c *Config) Scheme() (colorramp.Scheme, error) {
	return colorramp.ParseScheme(c.Colors)
}

// Loader builds a raster loader that places rasters in the target CRS.
func (c *Config) Loader() (*raster.Loader, error) {
	target, err := c.Projection()
	if err != nil {
		return nil, err
	}
	mode, err := coord.ParseSourceMode(c.SourceGeographic)
	if err != nil {
		return nil, err
	}
	return &raster.Loader{
		Reprojector: coord.NewReprojector(target, mode),
		Verbose:     c.Verbose,
	}, nil
}
