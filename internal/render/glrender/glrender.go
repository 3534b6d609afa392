// Package glrender implements render.Gateway on OpenGL 4.1 core. Every
// method must be called on the goroutine that owns the current GL context.
package glrender

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/pspoerri/terrainview/internal/render"
	"github.com/pspoerri/terrainview/internal/texture"
)

const floatSize = 4

type mesh struct {
	vao, vbo uint32
	count    int32 // vertices
	length   int   // floats
}

// Gateway draws into the framebuffer of the current GL context.
type Gateway struct {
	width, height int

	// A program that failed to build is 0 and its pass is skipped.
	terrain   uint32
	overlay   uint32
	shaderErr error

	// terrain uniforms
	locView, locProjection     int32
	locColored, locUseTexture  int32
	locHeightScale, locTexture int32
	locRamp                    int32
	// overlay uniforms
	locOverlayView, locOverlayProjection, locLineColor int32

	overlayVAO, overlayVBO uint32

	next     render.Handle
	meshes   map[render.Handle]*mesh
	textures map[render.Handle]uint32
}

var _ render.Gateway = (*Gateway)(nil)

// New loads GL entry points and builds the shader programs. A GL context
// must be current. Only a failure to load OpenGL is returned; shader
// compile or link failures are kept in ShaderErr and the affected pass is
// skipped by Draw.
func New(width, height int) (*Gateway, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("initializing OpenGL: %w", err)
	}

	g := &Gateway{
		meshes:   make(map[render.Handle]*mesh),
		textures: make(map[render.Handle]uint32),
	}
	g.terrain, g.overlay, g.shaderErr = buildPrograms(newProgram)

	g.locView = uniform(g.terrain, "view")
	g.locProjection = uniform(g.terrain, "projection")
	g.locColored = uniform(g.terrain, "coloredLayer")
	g.locUseTexture = uniform(g.terrain, "useTexture")
	g.locHeightScale = uniform(g.terrain, "heightScale")
	g.locTexture = uniform(g.terrain, "terrainTexture")
	g.locRamp = uniform(g.terrain, "rampColors")
	g.locOverlayView = uniform(g.overlay, "view")
	g.locOverlayProjection = uniform(g.overlay, "projection")
	g.locLineColor = uniform(g.overlay, "lineColor")

	gl.GenVertexArrays(1, &g.overlayVAO)
	gl.GenBuffers(1, &g.overlayVBO)
	gl.BindVertexArray(g.overlayVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, g.overlayVBO)
	gl.BufferData(gl.ARRAY_BUFFER, 6*floatSize, nil, gl.DYNAMIC_DRAW)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, 3*floatSize, gl.PtrOffset(0))
	gl.EnableVertexAttribArray(0)
	gl.BindVertexArray(0)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	g.Resize(width, height)
	return g, nil
}

// buildPrograms links the terrain and overlay programs independently. A
// failed program is returned as 0 and its error joined into err.
func buildPrograms(link func(vertexSource, fragmentSource string) (uint32, error)) (terrain, overlay uint32, err error) {
	var errs []error
	terrain, terr := link(terrainVertexShader, terrainFragmentShader)
	if terr != nil {
		terrain = 0
		errs = append(errs, fmt.Errorf("terrain program: %w", terr))
	}
	overlay, oerr := link(overlayVertexShader, overlayFragmentShader)
	if oerr != nil {
		overlay = 0
		errs = append(errs, fmt.Errorf("overlay program: %w", oerr))
	}
	return terrain, overlay, errors.Join(errs...)
}

// ShaderErr reports the programs that failed to build, or nil.
func (g *Gateway) ShaderErr() error { return g.shaderErr }

// passes reports which draw passes f needs and has a program for.
func (g *Gateway) passes(f *render.Frame) (terrain, overlay bool) {
	return g.terrain != 0 && f.Mesh != 0, g.overlay != 0 && len(f.ProfilePoints) > 0
}

func uniform(program uint32, name string) int32 {
	if program == 0 {
		return -1
	}
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}

func compileShader(source string, kind uint32) (uint32, error) {
	shader := gl.CreateShader(kind)
	csources, free := gl.Strs(source)
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("%w: %s", render.ErrShaderCompile, strings.TrimRight(log, "\x00"))
	}
	return shader, nil
}

func newProgram(vertexSource, fragmentSource string) (uint32, error) {
	vs, err := compileShader(vertexSource, gl.VERTEX_SHADER)
	if err != nil {
		return 0, fmt.Errorf("vertex shader: %w", err)
	}
	defer gl.DeleteShader(vs)
	fs, err := compileShader(fragmentSource, gl.FRAGMENT_SHADER)
	if err != nil {
		return 0, fmt.Errorf("fragment shader: %w", err)
	}
	defer gl.DeleteShader(fs)

	program := gl.CreateProgram()
	gl.AttachShader(program, vs)
	gl.AttachShader(program, fs)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("%w: %s", render.ErrLink, strings.TrimRight(log, "\x00"))
	}
	return program, nil
}

func (g *Gateway) allocate() render.Handle {
	g.next++
	return g.next
}

func (g *Gateway) CreateMesh(vertices []float32) (render.Handle, error) {
	if len(vertices) == 0 || len(vertices)%(3*5) != 0 {
		return 0, fmt.Errorf("vertex buffer length %d is not a whole number of triangles", len(vertices))
	}
	m := &mesh{count: int32(len(vertices) / 5), length: len(vertices)}
	gl.GenVertexArrays(1, &m.vao)
	gl.GenBuffers(1, &m.vbo)
	gl.BindVertexArray(m.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*floatSize, gl.Ptr(vertices), gl.STATIC_DRAW)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, 5*floatSize, gl.PtrOffset(0))
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(1, 2, gl.FLOAT, false, 5*floatSize, gl.PtrOffset(3*floatSize))
	gl.EnableVertexAttribArray(1)
	gl.BindVertexArray(0)

	h := g.allocate()
	g.meshes[h] = m
	return h, nil
}

func (g *Gateway) UpdateMesh(h render.Handle, vertices []float32) error {
	m, ok := g.meshes[h]
	if !ok {
		return fmt.Errorf("mesh %d: %w", h, render.ErrInvalidHandle)
	}
	if len(vertices) != m.length {
		return fmt.Errorf("mesh %d has %d floats, update has %d", h, m.length, len(vertices))
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	gl.BufferSubData(gl.ARRAY_BUFFER, 0, len(vertices)*floatSize, gl.Ptr(vertices))
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	return nil
}

func (g *Gateway) CreateTexture(img *texture.Image) (render.Handle, error) {
	if img == nil || img.Width <= 0 || img.Height <= 0 || len(img.Pix) == 0 {
		return 0, fmt.Errorf("empty texture: %w", texture.ErrUnsupportedFormat)
	}
	internal, format, dtype, err := glFormats(img)
	if err != nil {
		return 0, err
	}

	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, internal, int32(img.Width), int32(img.Height), 0, format, dtype, gl.Ptr(img.Pix))
	gl.GenerateMipmap(gl.TEXTURE_2D)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	h := g.allocate()
	g.textures[h] = tex
	return h, nil
}

// glFormats maps a texture layout onto GL upload enums.
func glFormats(img *texture.Image) (internal int32, format, dtype uint32, err error) {
	switch img.InternalFormat {
	case texture.R8:
		internal = gl.R8
	case texture.RGB8:
		internal = gl.RGB8
	case texture.RGBA8:
		internal = gl.RGBA8
	case texture.R16:
		internal = gl.R16
	case texture.RGB16:
		internal = gl.RGB16
	case texture.RGBA16:
		internal = gl.RGBA16
	case texture.R32F:
		internal = gl.R32F
	case texture.RGB32F:
		internal = gl.RGB32F
	case texture.RGBA32F:
		internal = gl.RGBA32F
	default:
		return 0, 0, 0, fmt.Errorf("internal format %v: %w", img.InternalFormat, texture.ErrUnsupportedFormat)
	}
	switch img.Format {
	case texture.FormatRed:
		format = gl.RED
	case texture.FormatRGB:
		format = gl.RGB
	case texture.FormatRGBA:
		format = gl.RGBA
	}
	switch img.DataType {
	case texture.UnsignedByte:
		dtype = gl.UNSIGNED_BYTE
	case texture.UnsignedShort:
		dtype = gl.UNSIGNED_SHORT
	case texture.UnsignedInt:
		dtype = gl.UNSIGNED_INT
	case texture.Float:
		dtype = gl.FLOAT
	}
	return internal, format, dtype, nil
}

func (g *Gateway) Release(h render.Handle) {
	if m, ok := g.meshes[h]; ok {
		gl.DeleteBuffers(1, &m.vbo)
		gl.DeleteVertexArrays(1, &m.vao)
		delete(g.meshes, h)
	}
	if tex, ok := g.textures[h]; ok {
		gl.DeleteTextures(1, &tex)
		delete(g.textures, h)
	}
}

func (g *Gateway) Draw(f *render.Frame) error {
	bg := render.Background
	gl.ClearColor(bg[0], bg[1], bg[2], bg[3])
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	terrainPass, overlayPass := g.passes(f)
	if terrainPass {
		m, ok := g.meshes[f.Mesh]
		if !ok {
			return fmt.Errorf("mesh %d: %w", f.Mesh, render.ErrInvalidHandle)
		}
		var tex uint32
		if f.TextureEnabled && f.Texture != 0 {
			if tex, ok = g.textures[f.Texture]; !ok {
				return fmt.Errorf("texture %d: %w", f.Texture, render.ErrInvalidHandle)
			}
		}

		scale := f.VerticalScale
		if scale == 0 {
			scale = 1
		}
		gl.UseProgram(g.terrain)
		gl.UniformMatrix4fv(g.locView, 1, false, &f.View[0])
		gl.UniformMatrix4fv(g.locProjection, 1, false, &f.Projection[0])
		gl.Uniform1i(g.locColored, boolInt(f.ColoredLayer))
		gl.Uniform1i(g.locUseTexture, boolInt(tex != 0))
		gl.Uniform1f(g.locHeightScale, scale)
		gl.Uniform3fv(g.locRamp, int32(len(f.Colors)), &f.Colors[0][0])

		gl.ActiveTexture(gl.TEXTURE0)
		gl.BindTexture(gl.TEXTURE_2D, tex)
		gl.Uniform1i(g.locTexture, 0)

		gl.BindVertexArray(m.vao)
		gl.DrawArrays(gl.TRIANGLES, 0, m.count)
		gl.BindVertexArray(0)
	}

	if overlayPass {
		g.drawProfile(f)
	}
	return nil
}

func (g *Gateway) drawProfile(f *render.Frame) {
	n := min(len(f.ProfilePoints), 2)
	if n == 0 {
		return
	}
	pts := make([]float32, 0, 6)
	for _, p := range f.ProfilePoints[:n] {
		pts = append(pts, p[0], p[1], p[2])
	}

	gl.Disable(gl.DEPTH_TEST)
	defer gl.Enable(gl.DEPTH_TEST)

	gl.UseProgram(g.overlay)
	gl.UniformMatrix4fv(g.locOverlayView, 1, false, &f.View[0])
	gl.UniformMatrix4fv(g.locOverlayProjection, 1, false, &f.Projection[0])
	gl.BindVertexArray(g.overlayVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, g.overlayVBO)
	gl.BufferSubData(gl.ARRAY_BUFFER, 0, len(pts)*floatSize, gl.Ptr(pts))

	if n == 2 {
		c := render.ProfileLineColor
		gl.Uniform3f(g.locLineColor, c[0], c[1], c[2])
		gl.LineWidth(render.ProfileLineWidth)
		gl.DrawArrays(gl.LINES, 0, 2)
	}
	c := render.ProfilePointColor
	gl.Uniform3f(g.locLineColor, c[0], c[1], c[2])
	gl.PointSize(render.ProfilePointSize)
	gl.DrawArrays(gl.POINTS, 0, int32(n))
	gl.BindVertexArray(0)
}

func (g *Gateway) ReadDepth(x, y int) (float32, error) {
	if x < 0 || x >= g.width || y < 0 || y >= g.height {
		return 0, fmt.Errorf("depth read at (%d, %d) outside %dx%d", x, y, g.width, g.height)
	}
	var depth float32
	gl.ReadPixels(int32(x), int32(y), 1, 1, gl.DEPTH_COMPONENT, gl.FLOAT, gl.Ptr(&depth))
	return depth, nil
}

func (g *Gateway) Viewport() (int, int) {
	return g.width, g.height
}

func (g *Gateway) Resize(width, height int) {
	g.width, g.height = max(width, 1), max(height, 1)
	gl.Viewport(0, 0, int32(g.width), int32(g.height))
}

func (g *Gateway) Close() error {
	for h := range g.meshes {
		g.Release(h)
	}
	for h := range g.textures {
		g.Release(h)
	}
	gl.DeleteBuffers(1, &g.overlayVBO)
	gl.DeleteVertexArrays(1, &g.overlayVAO)
	for _, p := range []uint32{g.terrain, g.overlay} {
		if p != 0 {
			gl.DeleteProgram(p)
		}
	}
	return nil
}

func boolInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
