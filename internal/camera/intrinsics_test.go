package camera

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/floats/scalar"

	"github.com/banshee-data/motion.report/internal/skeleton"
)

const tol = 1e-9

func TestBackProject_PrincipalPointAtZeroDepth(t *testing.T) {
	for _, in := range []Intrinsics{
		DefaultIntrinsics,
		{Fx: 910.5, Fy: 908.2, Cx: 652.1, Cy: 371.9},
		{Fx: -300, Fy: 1, Cx: 0, Cy: 0},
	} {
		got := BackProject(in.Cx, in.Cy, 0, in)
		assert.Equal(t, skeleton.Position{}, got, "intrinsics %+v", in)
	}
}

func TestBackProject_RoundTripThroughForwardModel(t *testing.T) {
	in := Intrinsics{Fx: 615.3, Fy: 614.9, Cx: 641.2, Cy: 358.7}
	points := []skeleton.Position{
		{X: 0, Y: 0, Z: 2},
		{X: 0.35, Y: -0.42, Z: 1.8},
		{X: -1.2, Y: 0.9, Z: 3.5},
		{X: 0.001, Y: 0.002, Z: 0.5},
	}

	for _, p := range points {
		px, py := in.Project(p)
		got := BackProject(px, py, p.Z, in)
		if !scalar.EqualWithinAbs(got.X, p.X, tol) ||
			!scalar.EqualWithinAbs(got.Y, p.Y, tol) ||
			!scalar.EqualWithinAbs(got.Z, p.Z, tol) {
			t.Errorf("round trip of %+v = %+v", p, got)
		}
	}
}

func TestBackProject_Formula(t *testing.T) {
	got := BackProject(940, 60, 2, DefaultIntrinsics)
	assert.InDelta(t, 1.0, got.X, tol)
	assert.InDelta(t, -1.0, got.Y, tol)
	assert.InDelta(t, 2.0, got.Z, tol)
}

func TestBackProject_DegenerateIntrinsicsPropagate(t *testing.T) {
	got := BackProject(700, 360, 2, Intrinsics{Fx: 0, Fy: 600, Cx: 640, Cy: 360})
	assert.True(t, math.IsInf(got.X, 1))
	assert.Equal(t, 0.0, got.Y)
}

func TestIntrinsics_Validate(t *testing.T) {
	assert.NoError(t, DefaultIntrinsics.Validate())
	assert.Error(t, Intrinsics{Fx: 0, Fy: 1}.Validate())
	assert.Error(t, Intrinsics{Fx: 1, Fy: -1}.Validate())
}
