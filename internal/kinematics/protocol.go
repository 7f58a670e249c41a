package kinematics

import (
	"fmt"

	"github.com/banshee-data/motion.report/internal/skeleton"
)

// Metric is one angle measured by a clinical protocol: the angle at joint
// B between joints A and C.
type Metric struct {
	Name    string
	A, B, C int
}

// Protocol is an ordered set of metrics. The order defines the CSV column
// order of a recording.
type Protocol []Metric

// DefaultProtocol measures both elbows and both knees.
var DefaultProtocol = Protocol{
	{Name: "L_Elbow", A: skeleton.LeftShoulder, B: skeleton.LeftElbow, C: skeleton.LeftWrist},
	{Name: "R_Elbow", A: skeleton.RightShoulder, B: skeleton.RightElbow, C: skeleton.RightWrist},
	{Name: "L_Knee", A: skeleton.LeftHip, B: skeleton.LeftKnee, C: skeleton.LeftAnkle},
	{Name: "R_Knee", A: skeleton.RightHip, B: skeleton.RightKnee, C: skeleton.RightAnkle},
}

// AngleResult is the outcome of one metric for one frame. Err is nil when
// Degrees holds a valid angle.
type AngleResult struct {
	Metric  string
	Degrees float64
	Err     error
}

// OK reports whether the metric was computable.
func (r AngleResult) OK() bool { return r.Err == nil }

// Names returns the metric names in protocol order.
func (p Protocol) Names() []string {
	names := make([]string, len(p))
	for i, m := range p {
		names[i] = m.Name
	}
	return names
}

// MaxJointIndex returns the highest joint index referenced by p, or -1 for
// an empty protocol.
func (p Protocol) MaxJointIndex() int {
	hi := -1
	for _, m := range p {
		for _, idx := range []int{m.A, m.B, m.C} {
			if idx > hi {
				hi = idx
			}
		}
	}
	return hi
}

// Evaluate computes every metric from positions keyed by joint index. A
// metric that cannot be computed carries its error; the others are still
// evaluated.
func (p Protocol) Evaluate(positions map[int]skeleton.Position) []AngleResult {
	results := make([]AngleResult, len(p))
	for i, m := range p {
		results[i] = AngleResult{Metric: m.Name}

		a, okA := positions[m.A]
		b, okB := positions[m.B]
		c, okC := positions[m.C]
		if !okA || !okB || !okC {
			results[i].Err = fmt.Errorf("%s: %w", m.Name, ErrMissingJoint)
			continue
		}

		deg, err := Angle(a, b, c)
		if err != nil {
			results[i].Err = fmt.Errorf("%s: %w", m.Name, err)
			continue
		}
		results[i].Degrees = deg
	}
	return results
}

// AllOK reports whether every result is usable.
func AllOK(results []AngleResult) bool {
	for _, r := range results {
		if !r.OK() {
			return false
		}
	}
	return true
}

// Degrees extracts the angle values in result order.
func Degrees(results []AngleResult) []float64 {
	out := make([]float64, len(results))
	for i, r := range results {
		out[i] = r.Degrees
	}
	return out
}
