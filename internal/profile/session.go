package profile

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrInactive is returned when a point is added outside profile mode.
var ErrInactive = errors.New("profile mode is not active")

// State is the progress of a two-click profile request.
type State int

const (
	// Idle is outside profile mode.
	Idle State = iota
	// AwaitingFirst waits for the first endpoint.
	AwaitingFirst
	// AwaitingSecond holds one endpoint and waits for the other.
	AwaitingSecond
)

func (s State) String() string {
	switch s {
	case AwaitingFirst:
		return "awaiting first point"
	case AwaitingSecond:
		return "awaiting second point"
	default:
		return "idle"
	}
}

// Session collects two endpoints and samples the profile between them.
// Completing or failing a profile ends profile mode.
type Session struct {
	state  State
	points []mgl32.Vec3
}

// State returns the current state.
func (s *Session) State() State { return s.state }

// Points returns the endpoints collected so far.
func (s *Session) Points() []mgl32.Vec3 { return s.points }

// Begin enters profile mode with no points.
func (s *Session) Begin() {
	s.state = AwaitingFirst
	s.points = s.points[:0]
}

// Cancel leaves profile mode and drops any collected point.
func (s *Session) Cancel() {
	s.state = Idle
	s.points = nil
}

// Add records an endpoint. The second endpoint runs sample and returns
// the session to Idle whether or not sampling succeeded.
func (s *Session) Add(p mgl32.Vec3, sample func(p1, p2 mgl32.Vec3) ([]Sample, error)) ([]Sample, error) {
	switch s.state {
	case Idle:
		return nil, ErrInactive
	case AwaitingFirst:
		s.points = append(s.points, p)
		s.state = AwaitingSecond
		return nil, nil
	}

	p1 := s.points[0]
	s.Cancel()
	return sample(p1, p)
}
