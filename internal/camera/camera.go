// Package camera implements the free-flying terrain camera.
package camera

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	fovDegrees = 45
	nearPlane  = 0.1
	farPlane   = 1000
	maxPitch   = 89
)

var worldUp = mgl32.Vec3{0, 1, 0}

// Settings are the input sensitivities.
type Settings struct {
	RotateSpeed float32 `yaml:"rotate_speed"` // degrees per pixel
	PanSpeed    float32 `yaml:"pan_speed"`    // scene units per pixel
	DollySpeed  float32 `yaml:"dolly_speed"`  // scene units per pixel
	WheelStep   float32 `yaml:"wheel_step"`   // scene units per wheel notch
	ZoomStep    float32 `yaml:"zoom_step"`    // scene units per zoom command
}

// DefaultSettings returns the stock sensitivities.
func DefaultSettings() Settings {
	return Settings{
		RotateSpeed: 0.1,
		PanSpeed:    0.1,
		DollySpeed:  0.1,
		WheelStep:   1,
		ZoomStep:    20,
	}
}

// Camera is a position plus a yaw/pitch orientation.
type Camera struct {
	Position mgl32.Vec3
	Front    mgl32.Vec3
	Up       mgl32.Vec3
	Yaw      float32 // degrees
	Pitch    float32 // degrees, within [-89, 89]

	Settings Settings
}

// New returns a camera at (0, 100, 50) looking down and north.
func New(s Settings) *Camera {
	c := &Camera{Settings: s}
	c.lookDown()
	c.Position = mgl32.Vec3{0, 100, 50}
	return c
}

// lookDown points the camera along (0, -0.5, -1) with world up.
func (c *Camera) lookDown() {
	c.Front = mgl32.Vec3{0, -0.5, -1}.Normalize()
	c.Up = worldUp
	c.Pitch = mgl32.RadToDeg(math32.Asin(c.Front.Y()))
	c.Yaw = mgl32.RadToDeg(math32.Atan2(c.Front.Z(), c.Front.X()))
}

// Reset frames a demWidth x demHeight DEM. Without a DEM (either size 0)
// the camera moves to (0, 50, 50).
func (c *Camera) Reset(demWidth, demHeight int) {
	if demWidth > 0 && demHeight > 0 {
		c.Position = mgl32.Vec3{0, float32(demHeight) * 0.115, float32(demWidth) * 0.2}
	} else {
		c.Position = mgl32.Vec3{0, 50, 50}
	}
	c.lookDown()
}

// Orbit turns the camera by a pointer drag of (dx, dy) pixels.
func (c *Camera) Orbit(dx, dy float32) {
	c.Yaw -= dx * c.Settings.RotateSpeed
	c.Pitch -= dy * c.Settings.RotateSpeed
	c.Pitch = max(-maxPitch, min(maxPitch, c.Pitch))

	yaw, pitch := mgl32.DegToRad(c.Yaw), mgl32.DegToRad(c.Pitch)
	c.Front = mgl32.Vec3{
		math32.Cos(yaw) * math32.Cos(pitch),
		math32.Sin(pitch),
		math32.Sin(yaw) * math32.Cos(pitch),
	}.Normalize()
	right := c.Front.Cross(worldUp).Normalize()
	c.Up = right.Cross(c.Front).Normalize()
}

// Right is the camera's right vector.
func (c *Camera) Right() mgl32.Vec3 {
	return c.Front.Cross(c.Up).Normalize()
}

// Pan slides the camera in its view plane.
func (c *Camera) Pan(dx, dy float32) {
	c.Position = c.Position.
		Sub(c.Right().Mul(dx * c.Settings.PanSpeed)).
		Add(c.Up.Mul(dy * c.Settings.PanSpeed))
}

// Dolly moves along the view direction; dragging up (negative dy) moves
// forward.
func (c *Camera) Dolly(dy float32) {
	c.Position = c.Position.Add(c.Front.Mul(-dy * c.Settings.DollySpeed))
}

// Wheel moves along the view direction by delta/120 notches.
func (c *Camera) Wheel(delta float32) {
	c.Position = c.Position.Add(c.Front.Mul(delta / 120 * c.Settings.WheelStep))
}

// ZoomIn steps forward.
func (c *Camera) ZoomIn() {
	c.Position = c.Position.Add(c.Front.Mul(c.Settings.ZoomStep))
}

// ZoomOut steps back.
func (c *Camera) ZoomOut() {
	c.Position = c.Position.Sub(c.Front.Mul(c.Settings.ZoomStep))
}

// View returns the look-at matrix.
func (c *Camera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Position.Add(c.Front), c.Up)
}

// Projection returns the perspective matrix for a width x height viewport.
func Projection(width, height int) mgl32.Mat4 {
	aspect := float32(width) / float32(max(height, 1))
	return mgl32.Perspective(mgl32.DegToRad(fovDegrees), aspect, nearPlane, farPlane)
}
