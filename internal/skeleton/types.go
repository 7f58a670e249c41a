package skeleton

import "gonum.org/v1/gonum/spatial/r3"

// Position is a 3D point in camera coordinates, in metres.
// X grows to the right, Y grows downwards and Z points away from the camera.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Vec converts p to a gonum vector for geometry operations.
func (p Position) Vec() r3.Vec {
	return r3.Vec{X: p.X, Y: p.Y, Z: p.Z}
}

// PositionFromVec converts a gonum vector back to a Position.
func PositionFromVec(v r3.Vec) Position {
	return Position{X: v.X, Y: v.Y, Z: v.Z}
}

// Landmark is a single 2D detection from the pose estimator. X and Y are
// normalised to the colour image (0..1, may fall slightly outside when the
// model extrapolates an occluded joint).
type Landmark struct {
	Index      int     `json:"id"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Visibility float64 `json:"visibility"`
}

// Joint is one smoothed 3D joint inside a SkeletonFrame.
type Joint struct {
	ID         int      `json:"id"`
	Position   Position `json:"position"`
	Visibility float64  `json:"visibility"`
}

// SkeletonFrame is the per-frame output of the tracker. It is built once and
// not modified afterwards.
type SkeletonFrame struct {
	FrameIndex uint64  `json:"frame"`
	Joints     []Joint `json:"joints"`
}

// NewSkeletonFrame returns an empty frame with a non-nil joint list so that
// the JSON form always carries "joints": [].
func NewSkeletonFrame(index uint64, capacity int) *SkeletonFrame {
	return &SkeletonFrame{
		FrameIndex: index,
		Joints:     make([]Joint, 0, capacity),
	}
}

// Positions returns the joint positions keyed by joint index.
func (f *SkeletonFrame) Positions() map[int]Position {
	out := make(map[int]Position, len(f.Joints))
	for _, j := range f.Joints {
		out[j.ID] = j.Position
	}
	return out
}
