// Package kinematics derives clinical joint angles from smoothed 3D joint
// positions.
package kinematics

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/motion.report/internal/skeleton"
)

var (
	// ErrDegenerateAngle is returned when a limb segment has zero length
	// (two of the three joints coincide), so the angle is undefined.
	ErrDegenerateAngle = errors.New("degenerate angle: coincident joints")

	// ErrMissingJoint is returned when a joint needed by a metric was not
	// reported in the current frame.
	ErrMissingJoint = errors.New("joint not present in frame")
)

// Angle returns the angle in degrees, in [0, 180], at vertex b formed by
// the rays b->a and b->c.
func Angle(a, b, c skeleton.Position) (float64, error) {
	vb := b.Vec()
	ba := r3.Sub(a.Vec(), vb)
	bc := r3.Sub(c.Vec(), vb)

	denom := r3.Norm(ba) * r3.Norm(bc)
	if denom == 0 || math.IsNaN(denom) {
		return 0, ErrDegenerateAngle
	}

	cos := r3.Dot(ba, bc) / denom
	// Rounding can push |cos| slightly past 1 for (anti)parallel rays.
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos) * 180 / math.Pi, nil
}
