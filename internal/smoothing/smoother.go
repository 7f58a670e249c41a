// Package smoothing reduces frame-to-frame jitter in joint positions with a
// first-order exponential low-pass filter, applied independently per joint
// index and per axis.
package smoothing

import "github.com/banshee-data/motion.report/internal/skeleton"

// JointSmoother holds the last smoothed position of every joint index seen
// so far. It is owned by a single frame loop and is not safe for concurrent
// use.
//
// Factor weights the new observation: 1 passes raw positions through, 0
// freezes every joint at its first observation. A joint that stops being
// reported keeps its last state indefinitely and is not re-emitted.
type JointSmoother struct {
	factor float64
	state  map[int]skeleton.Position
}

// NewJointSmoother returns an empty smoother. Callers validate factor
// against [0, 1]; config.TrackerConfig does so on load.
func NewJointSmoother(factor float64) *JointSmoother {
	return &JointSmoother{
		factor: factor,
		state:  make(map[int]skeleton.Position),
	}
}

// Update filters raw for joint index and stores the result. The first
// observation of an index is returned unchanged.
func (s *JointSmoother) Update(index int, raw skeleton.Position) skeleton.Position {
	prev, ok := s.state[index]
	if !ok {
		s.state[index] = raw
		return raw
	}

	keep := 1.0 - s.factor
	smoothed := skeleton.Position{
		X: s.factor*raw.X + keep*prev.X,
		Y: s.factor*raw.Y + keep*prev.Y,
		Z: s.factor*raw.Z + keep*prev.Z,
	}
	s.state[index] = smoothed
	return smoothed
}

// Last returns the stored state for index.
func (s *JointSmoother) Last(index int) (skeleton.Position, bool) {
	p, ok := s.state[index]
	return p, ok
}

// Len returns the number of joint indices with state.
func (s *JointSmoother) Len() int { return len(s.state) }

// Factor returns the configured smoothing factor.
func (s *JointSmoother) Factor() float64 { return s.factor }

// Reset forgets all joint state.
func (s *JointSmoother) Reset() {
	s.state = make(map[int]skeleton.Position)
}
