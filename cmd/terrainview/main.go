package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/pspoerri/terrainview/internal/config"
	"github.com/pspoerri/terrainview/internal/pick"
	"github.com/pspoerri/terrainview/internal/profile"
	"github.com/pspoerri/terrainview/internal/render/glrender"
	"github.com/pspoerri/terrainview/internal/session"
)

// Set via -ldflags at build time.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func init() {
	// GLFW and GL calls must stay on the main thread.
	runtime.LockOSThread()
}

func main() {
	var (
		configPath  string
		demPath     string
		imgPath     string
		profileCSV  string
		verbose     bool
		showVersion bool
	)

	flag.StringVar(&configPath, "config", "", "YAML config file")
	flag.StringVar(&demPath, "dem", "", "DEM GeoTIFF (required)")
	flag.StringVar(&imgPath, "img", "", "Imagery GeoTIFF draped over the DEM")
	flag.StringVar(&profileCSV, "profile-csv", "", "Write each completed profile as CSV")
	flag.BoolVar(&verbose, "verbose", false, "Verbose progress output")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: terrainview [flags] -dem dem.tif [-img image.tif]\n\n")
		fmt.Fprintf(os.Stderr, "Interactive 3D terrain viewer.\n\n")
		fmt.Fprintf(os.Stderr, "Mouse: left drag orbits, middle drag pans, right drag dollies, wheel moves.\n")
		fmt.Fprintf(os.Stderr, "Keys:  +/- vertical scale, T texture, C colored layer, P profile,\n")
		fmt.Fprintf(os.Stderr, "       Esc cancel profile, R reset camera, Z/X zoom, Q quit.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if showVersion {
		fmt.Printf("terrainview %s (commit %s, built %s)\n", version, commit, buildDate)
		os.Exit(0)
	}
	if demPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			log.Fatalf("Config: %v", err)
		}
	}
	cfg.Verbose = cfg.Verbose || verbose

	if err := run(cfg, demPath, imgPath, profileCSV); err != nil {
		log.Fatal(err)
	}
}

func run(cfg config.Config, demPath, imgPath, profileCSV string) error {
	if err := glfw.Init(); err != nil {
		return fmt.Errorf("initializing GLFW: %w", err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.Samples, 4)

	win, err := glfw.CreateWindow(cfg.Viewport.Width, cfg.Viewport.Height, "terrainview", nil, nil)
	if err != nil {
		return fmt.Errorf("creating window: %w", err)
	}
	defer win.Destroy()
	win.MakeContextCurrent()
	glfw.SwapInterval(1)

	fbw, fbh := win.GetFramebufferSize()
	gw, err := glrender.New(fbw, fbh)
	if err != nil {
		return err
	}
	if err := gw.ShaderErr(); err != nil {
		log.Printf("Shaders: %v; affected passes are skipped", err)
	}
	s, err := session.New(cfg, gw)
	if err != nil {
		gw.Close()
		return err
	}
	defer s.Close()

	s.OnProfile = func(samples []profile.Sample) {
		sum := profile.Summarize(samples)
		log.Printf("Profile: %d samples, length %.1f m, elevation [%.1f, %.1f], ascent %.1f, descent %.1f",
			len(samples), sum.Length, sum.Min, sum.Max, sum.Ascent, sum.Descent)
		if profileCSV == "" {
			return
		}
		f, err := os.Create(profileCSV)
		if err != nil {
			log.Printf("Profile CSV: %v", err)
			return
		}
		defer f.Close()
		if err := profile.WriteCSV(f, samples); err != nil {
			log.Printf("Profile CSV: %v", err)
		}
	}

	if err := s.OpenTerrain(demPath, imgPath); err != nil {
		return fmt.Errorf("opening terrain: %w", err)
	}

	v := &viewer{win: win, s: s}
	win.SetFramebufferSizeCallback(v.onFramebufferSize)
	win.SetMouseButtonCallback(v.onMouseButton)
	win.SetCursorPosCallback(v.onCursorPos)
	win.SetScrollCallback(v.onScroll)
	win.SetKeyCallback(v.onKey)
	v.updateTitle()

	for !win.ShouldClose() {
		if err := s.Render(); err != nil {
			return err
		}
		win.SwapBuffers()
		glfw.WaitEvents()
	}
	return nil
}

// viewer maps window input onto session commands.
type viewer struct {
	win    *glfw.Window
	s      *session.Session
	button glfw.MouseButton
	drag   bool
	lastX  float64
	lastY  float64
}

func (v *viewer) updateTitle() {
	title := fmt.Sprintf("terrainview  vertical %s", v.s.ScaleLabel())
	switch {
	case v.s.ProfileState() != profile.Idle:
		title += fmt.Sprintf("  profile: pick point %d of 2", len(v.s.ProfilePoints())+1)
	case v.s.ColoredLayer():
		title += "  colored"
	case !v.s.TextureEnabled():
		title += "  untextured"
	}
	v.win.SetTitle(title)
}

func (v *viewer) onFramebufferSize(_ *glfw.Window, width, height int) {
	v.s.Resize(width, height)
}

// framebufferPos converts window coordinates to framebuffer pixels, which
// differ on high-DPI displays.
func (v *viewer) framebufferPos(x, y float64) (int, int) {
	ww, wh := v.win.GetSize()
	fw, fh := v.win.GetFramebufferSize()
	if ww == 0 || wh == 0 {
		return int(x), int(y)
	}
	return int(x * float64(fw) / float64(ww)), int(y * float64(fh) / float64(wh))
}

func (v *viewer) onMouseButton(w *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
	x, y := w.GetCursorPos()
	if action == glfw.Release {
		v.drag = false
		return
	}
	if action != glfw.Press {
		return
	}

	if button == glfw.MouseButtonLeft && v.s.ProfileState() != profile.Idle {
		v.pickProfilePoint(x, y)
		return
	}
	v.button, v.drag = button, true
	v.lastX, v.lastY = x, y
}

func (v *viewer) pickProfilePoint(x, y float64) {
	// The depth buffer must hold the current view.
	if err := v.s.Render(); err != nil {
		log.Printf("Render: %v", err)
		return
	}
	px, py := v.framebufferPos(x, y)
	_, err := v.s.PickPoint(px, py)
	switch {
	case errors.Is(err, pick.ErrPickMiss):
		log.Printf("No terrain under the cursor")
	case err != nil:
		log.Printf("Profile: %v", err)
		v.s.EndProfile()
	}
	v.updateTitle()
}

func (v *viewer) onCursorPos(_ *glfw.Window, x, y float64) {
	if !v.drag {
		return
	}
	dx, dy := float32(x-v.lastX), float32(y-v.lastY)
	v.lastX, v.lastY = x, y
	switch v.button {
	case glfw.MouseButtonLeft:
		v.s.Orbit(dx, dy)
	case glfw.MouseButtonMiddle:
		v.s.Pan(dx, dy)
	case glfw.MouseButtonRight:
		v.s.Dolly(dy)
	}
}

func (v *viewer) onScroll(_ *glfw.Window, _, yoff float64) {
	v.s.Wheel(float32(yoff * 120))
}

func (v *viewer) onKey(w *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
	if action == glfw.Release {
		return
	}
	var err error
	switch key {
	case glfw.KeyEqual, glfw.KeyKPAdd:
		err = v.s.IncreaseScale()
	case glfw.KeyMinus, glfw.KeyKPSubtract:
		err = v.s.DecreaseScale()
	case glfw.KeyT:
		v.s.SetTextureEnabled(!v.s.TextureEnabled())
	case glfw.KeyC:
		v.s.ToggleColoredLayer()
	case glfw.KeyP:
		err = v.s.BeginProfile()
	case glfw.KeyEscape:
		v.s.EndProfile()
	case glfw.KeyR:
		v.s.ResetCamera()
	case glfw.KeyZ:
		v.s.ZoomIn()
	case glfw.KeyX:
		v.s.ZoomOut()
	case glfw.KeyQ:
		w.SetShouldClose(true)
	}
	if err != nil {
		log.Printf("%v", err)
	}
	v.updateTitle()
}
