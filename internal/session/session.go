// Package session holds the state of one terrain view and exposes every
// user operation as a synchronous command. A Session is not safe for
// concurrent use; drive it from the goroutine that owns the gateway.
package session

import (
	"errors"
	"fmt"
	"image/color"
	"log"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pspoerri/terrainview/internal/camera"
	"github.com/pspoerri/terrainview/internal/colorramp"
	"github.com/pspoerri/terrainview/internal/config"
	"github.com/pspoerri/terrainview/internal/mesh"
	"github.com/pspoerri/terrainview/internal/pick"
	"github.com/pspoerri/terrainview/internal/profile"
	"github.com/pspoerri/terrainview/internal/raster"
	"github.com/pspoerri/terrainview/internal/render"
	"github.com/pspoerri/terrainview/internal/texture"
)

// ErrNoTerrain is returned by commands that need a loaded DEM.
var ErrNoTerrain = errors.New("no terrain loaded")

// terrain is everything built from one DEM and imagery pair.
type terrain struct {
	dem      *raster.DemGrid
	tex      *texture.Image // nil without imagery
	frame    mesh.Frame
	vertices []float32
	mesh     render.Handle
	texture  render.Handle
}

// Session is one terrain view.
type Session struct {
	gw      render.Gateway
	loader  *raster.Loader
	cfg     config.Config
	verbose bool

	terrain *terrain

	verticalScale  float32
	textureEnabled bool
	coloredLayer   bool
	ramp           *colorramp.Ramp
	cam            *camera.Camera
	picker         pick.Picker
	profile        profile.Session
	lastProfile    []profile.Sample

	// OnProfile, when set, receives every completed profile.
	OnProfile func(samples []profile.Sample)
}

// New creates an empty session drawing through gw.
func New(cfg config.Config, gw render.Gateway) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	loader, err := cfg.Loader()
	if err != nil {
		return nil, err
	}
	scheme, err := cfg.Scheme()
	if err != nil {
		return nil, err
	}
	ramp := colorramp.New()
	if err := ramp.Apply(scheme[:]); err != nil {
		return nil, err
	}
	return &Session{
		gw:             gw,
		loader:         loader,
		cfg:            cfg,
		verbose:        cfg.Verbose,
		verticalScale:  cfg.VerticalScale,
		textureEnabled: true,
		ramp:           ramp,
		cam:            camera.New(cfg.Camera),
	}, nil
}

// OpenTerrain loads a DEM and, when imgPath is not empty, the imagery draped
// over it. Everything is loaded and uploaded before the previous terrain is
// released, so a failure leaves the session unchanged.
func (s *Session) OpenTerrain(demPath, imgPath string) error {
	var tex *texture.Image
	if imgPath != "" {
		var err error
		tex, err = texture.Load(s.loader, imgPath, s.cfg.MaxTextureSize)
		if err != nil {
			return fmt.Errorf("loading imagery: %w", err)
		}
	}

	dem, err := s.loader.LoadDEM(demPath)
	if err != nil {
		return fmt.Errorf("loading DEM: %w", err)
	}

	t := &terrain{dem: dem, tex: tex, frame: mesh.NewFrame(dem.Center(), s.cfg.SceneScale)}
	var fp *texture.Footprint
	if tex != nil {
		f := tex.Footprint()
		fp = &f
	}
	if t.vertices, err = mesh.Build(dem, fp, t.frame, s.verticalScale); err != nil {
		return fmt.Errorf("building mesh: %w", err)
	}

	if t.mesh, err = s.gw.CreateMesh(t.vertices); err != nil {
		return fmt.Errorf("uploading mesh: %w", err)
	}
	if tex != nil {
		if t.texture, err = s.gw.CreateTexture(tex); err != nil {
			s.gw.Release(t.mesh)
			return fmt.Errorf("uploading texture: %w", err)
		}
	}

	s.release()
	s.terrain = t
	s.profile.Cancel()
	s.lastProfile = nil
	s.cam.Reset(dem.Width, dem.Height)

	if s.verbose {
		log.Printf("Opened terrain %s: %dx%d, %d vertices, texture %v",
			demPath, dem.Width, dem.Height, len(t.vertices)/mesh.Stride, tex != nil)
	}
	return nil
}

func (s *Session) release() {
	if s.terrain == nil {
		return
	}
	s.gw.Release(s.terrain.mesh)
	if s.terrain.texture != 0 {
		s.gw.Release(s.terrain.texture)
	}
	s.terrain = nil
}

// HasTerrain reports whether a DEM is loaded.
func (s *Session) HasTerrain() bool { return s.terrain != nil }

// DEM returns the loaded DEM, or nil.
func (s *Session) DEM() *raster.DemGrid {
	if s.terrain == nil {
		return nil
	}
	return s.terrain.dem
}

// Texture returns the loaded imagery, or nil.
func (s *Session) Texture() *texture.Image {
	if s.terrain == nil {
		return nil
	}
	return s.terrain.tex
}

// Vertices returns the current mesh vertex buffer.
func (s *Session) Vertices() []float32 {
	if s.terrain == nil {
		return nil
	}
	return s.terrain.vertices
}

// VerticalScale returns the current height exaggeration.
func (s *Session) VerticalScale() float32 { return s.verticalScale }

// ScaleLabel renders the vertical scale for display.
func (s *Session) ScaleLabel() string { return mesh.ScaleLabel(s.verticalScale) }

// IncreaseScale steps the vertical scale up.
func (s *Session) IncreaseScale() error {
	return s.SetVerticalScale(mesh.IncreaseScale(s.verticalScale))
}

// DecreaseScale steps the vertical scale down.
func (s *Session) DecreaseScale() error {
	return s.SetVerticalScale(mesh.DecreaseScale(s.verticalScale))
}

// SetVerticalScale sets the height exaggeration and regenerates the mesh.
func (s *Session) SetVerticalScale(scale float32) error {
	if math.IsNaN(float64(scale)) || scale < mesh.MinVerticalScale {
		return fmt.Errorf("vertical scale %g is below the minimum %g", scale, mesh.MinVerticalScale)
	}
	if s.terrain != nil {
		t := s.terrain
		var fp *texture.Footprint
		if t.tex != nil {
			f := t.tex.Footprint()
			fp = &f
		}
		vertices, err := mesh.Build(t.dem, fp, t.frame, scale)
		if err != nil {
			return fmt.Errorf("rebuilding mesh: %w", err)
		}
		if err := s.gw.UpdateMesh(t.mesh, vertices); err != nil {
			return fmt.Errorf("updating mesh: %w", err)
		}
		t.vertices = vertices
	}
	s.verticalScale = scale
	if s.verbose {
		log.Printf("Vertical scale %s", s.ScaleLabel())
	}
	return nil
}

// TextureEnabled reports whether imagery is shown.
func (s *Session) TextureEnabled() bool { return s.textureEnabled }

// ColoredLayer reports whether the elevation ramp is shown.
func (s *Session) ColoredLayer() bool { return s.coloredLayer }

// SetTextureEnabled shows or hides the imagery. Showing it turns the
// colored layer off.
func (s *Session) SetTextureEnabled(on bool) {
	s.textureEnabled = on
	if on {
		s.coloredLayer = false
	}
}

// ToggleColoredLayer switches the elevation ramp. Turning it on hides the
// imagery.
func (s *Session) ToggleColoredLayer() {
	s.coloredLayer = !s.coloredLayer
	if s.coloredLayer {
		s.textureEnabled = false
	}
}

// ColorScheme returns the active ramp colors.
func (s *Session) ColorScheme() colorramp.Scheme { return s.ramp.Scheme() }

// ApplyColorScheme stores the result of a color editor. A cancelled editor
// (accepted false) changes nothing.
func (s *Session) ApplyColorScheme(accepted bool, colors []color.RGBA) error {
	if !accepted {
		return nil
	}
	return s.ramp.Apply(colors)
}

// ResetColorScheme restores the default ramp.
func (s *Session) ResetColorScheme() { s.ramp.Reset() }

// Camera exposes the camera for direct inspection.
func (s *Session) Camera() *camera.Camera { return s.cam }

func (s *Session) Orbit(dx, dy float32) { s.cam.Orbit(dx, dy) }
func (s *Session) Pan(dx, dy float32)   { s.cam.Pan(dx, dy) }
func (s *Session) Dolly(dy float32)     { s.cam.Dolly(dy) }
func (s *Session) Wheel(delta float32)  { s.cam.Wheel(delta) }
func (s *Session) ZoomIn()              { s.cam.ZoomIn() }
func (s *Session) ZoomOut()             { s.cam.ZoomOut() }

// ResetCamera frames the loaded DEM, or the default view without one.
func (s *Session) ResetCamera() {
	if s.terrain == nil {
		s.cam.Reset(0, 0)
		return
	}
	s.cam.Reset(s.terrain.dem.Width, s.terrain.dem.Height)
}

// Resize changes the viewport.
func (s *Session) Resize(width, height int) { s.gw.Resize(width, height) }

// Frame assembles the draw parameters for the current state.
func (s *Session) Frame() *render.Frame {
	w, h := s.gw.Viewport()
	f := &render.Frame{
		View:           s.cam.View(),
		Projection:     camera.Projection(w, h),
		TextureEnabled: s.textureEnabled && !s.coloredLayer,
		ColoredLayer:   s.coloredLayer,
		VerticalScale:  s.verticalScale,
		Colors:         s.ramp.Scheme().Uniforms(),
		ProfilePoints:  append([]mgl32.Vec3(nil), s.profile.Points()...),
	}
	if t := s.terrain; t != nil {
		f.Mesh, f.Texture = t.mesh, t.texture
		f.MinHeight, f.MaxHeight = t.dem.Min, t.dem.Max
	}
	return f
}

// Render draws the current state and records its matrices for picking.
func (s *Session) Render() error {
	f := s.Frame()
	if err := s.gw.Draw(f); err != nil {
		return fmt.Errorf("drawing frame: %w", err)
	}
	w, h := s.gw.Viewport()
	s.picker.Update(f.View, f.Projection, w, h)
	return nil
}

// BeginProfile enters profile mode.
func (s *Session) BeginProfile() error {
	if s.terrain == nil {
		return ErrNoTerrain
	}
	s.profile.Begin()
	return nil
}

// EndProfile leaves profile mode and drops collected points.
func (s *Session) EndProfile() { s.profile.Cancel() }

// ProfileState returns the progress of the current profile request.
func (s *Session) ProfileState() profile.State { return s.profile.State() }

// ProfilePoints returns the endpoints picked so far.
func (s *Session) ProfilePoints() []mgl32.Vec3 { return s.profile.Points() }

// LastProfile returns the most recent completed profile.
func (s *Session) LastProfile() []profile.Sample { return s.lastProfile }

// PickPoint adds the terrain point under screen position (x, y) to the
// profile. A pick that misses the terrain returns pick.ErrPickMiss and
// changes nothing. The second point samples the profile, hands it to
// OnProfile and leaves profile mode.
func (s *Session) PickPoint(x, y int) ([]profile.Sample, error) {
	if s.terrain == nil {
		return nil, ErrNoTerrain
	}
	if s.profile.State() == profile.Idle {
		return nil, profile.ErrInactive
	}
	world, err := s.picker.Pick(s.gw, x, y)
	if err != nil {
		return nil, err
	}

	sampler := &profile.Sampler{DEM: s.terrain.dem, Frame: s.terrain.frame}
	samples, err := s.profile.Add(world, sampler.Sample)
	if err != nil {
		return nil, fmt.Errorf("sampling profile: %w", err)
	}
	if samples == nil {
		if s.verbose {
			log.Printf("Profile start at %v", world)
		}
		return nil, nil
	}

	s.lastProfile = samples
	if s.verbose {
		sum := profile.Summarize(samples)
		log.Printf("Profile: %d samples, %.1f m, height [%.1f, %.1f]", len(samples), sum.Length, sum.Min, sum.Max)
	}
	if s.OnProfile != nil {
		s.OnProfile(samples)
	}
	return samples, nil
}

// ExportSTL writes the current mesh as binary STL.
func (s *Session) ExportSTL(path string) error {
	if s.terrain == nil {
		return ErrNoTerrain
	}
	return mesh.WriteSTLFile(path, s.terrain.vertices)
}

// Close releases every gateway resource.
func (s *Session) Close() error {
	s.release()
	s.profile.Cancel()
	return s.gw.Close()
}
