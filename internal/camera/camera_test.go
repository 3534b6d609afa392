package camera

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

const eps = 1e-4

func vecNear(a, b mgl32.Vec3) bool { return a.ApproxEqualThreshold(b, eps) }

func TestNew(t *testing.T) {
	c := New(DefaultSettings())
	if !vecNear(c.Position, mgl32.Vec3{0, 100, 50}) {
		t.Errorf("Position = %v", c.Position)
	}
	wantFront := mgl32.Vec3{0, -0.5, -1}.Normalize()
	if !vecNear(c.Front, wantFront) || !vecNear(c.Up, mgl32.Vec3{0, 1, 0}) {
		t.Errorf("Front = %v, Up = %v", c.Front, c.Up)
	}
	// asin(-0.447) and atan2(-0.894, 0).
	if math.Abs(float64(c.Pitch)+26.565) > 0.01 || math.Abs(float64(c.Yaw)+90) > 0.01 {
		t.Errorf("yaw/pitch = %v/%v", c.Yaw, c.Pitch)
	}
}

func TestReset(t *testing.T) {
	c := New(DefaultSettings())
	c.Orbit(100, 40)
	c.Reset(1000, 800)
	if !vecNear(c.Position, mgl32.Vec3{0, 92, 200}) {
		t.Errorf("Position = %v, want (0, 92, 200)", c.Position)
	}
	if !vecNear(c.Front, mgl32.Vec3{0, -0.5, -1}.Normalize()) {
		t.Errorf("Front = %v", c.Front)
	}
	c.Reset(0, 0)
	if !vecNear(c.Position, mgl32.Vec3{0, 50, 50}) {
		t.Errorf("Position without DEM = %v", c.Position)
	}
}

func TestOrbit(t *testing.T) {
	c := New(DefaultSettings())
	yaw, pitch := c.Yaw, c.Pitch
	c.Orbit(10, -20)
	if math.Abs(float64(c.Yaw-(yaw-1))) > eps || math.Abs(float64(c.Pitch-(pitch+2))) > eps {
		t.Errorf("yaw/pitch = %v/%v, want %v/%v", c.Yaw, c.Pitch, yaw-1, pitch+2)
	}
	if l := c.Front.Len(); math.Abs(float64(l-1)) > eps {
		t.Errorf("|Front| = %v", l)
	}
	if d := c.Front.Dot(c.Up); math.Abs(float64(d)) > eps {
		t.Errorf("Front.Up = %v, want orthogonal", d)
	}

	c.Orbit(0, -10000)
	if c.Pitch != 89 {
		t.Errorf("Pitch = %v, want clamped to 89", c.Pitch)
	}
	c.Orbit(0, 10000)
	if c.Pitch != -89 {
		t.Errorf("Pitch = %v, want clamped to -89", c.Pitch)
	}
}

func TestMoves(t *testing.T) {
	c := New(DefaultSettings())
	start := c.Position

	c.ZoomIn()
	if !vecNear(c.Position, start.Add(c.Front.Mul(20))) {
		t.Errorf("ZoomIn moved to %v", c.Position)
	}
	c.ZoomOut()
	if !vecNear(c.Position, start) {
		t.Errorf("ZoomOut did not undo ZoomIn: %v", c.Position)
	}

	c.Wheel(240)
	if !vecNear(c.Position, start.Add(c.Front.Mul(2))) {
		t.Errorf("Wheel(240) moved to %v", c.Position)
	}
	c.Wheel(-240)

	c.Dolly(-50)
	if !vecNear(c.Position, start.Add(c.Front.Mul(5))) {
		t.Errorf("Dolly(-50) moved to %v", c.Position)
	}
	c.Dolly(50)

	c.Pan(10, 0)
	if !vecNear(c.Position, start.Sub(c.Right())) {
		t.Errorf("Pan(10, 0) moved to %v", c.Position)
	}
	// Looking down -z, right is +x.
	if !vecNear(c.Right(), mgl32.Vec3{1, 0, 0}) {
		t.Errorf("Right() = %v", c.Right())
	}
}

func TestProjection(t *testing.T) {
	p := Projection(800, 0)
	q := mgl32.Perspective(mgl32.DegToRad(45), 800, 0.1, 1000)
	if !p.ApproxEqual(q) {
		t.Errorf("zero height should use 1: %v", p)
	}
	c := New(DefaultSettings())
	v := c.View()
	// The camera position maps to the eye-space origin.
	eye := v.Mul4x1(c.Position.Vec4(1))
	if !eye.Vec3().ApproxEqualThreshold(mgl32.Vec3{}, eps) {
		t.Errorf("eye-space position = %v", eye)
	}
}
