package camera

import (
	"fmt"

	"github.com/banshee-data/motion.report/internal/skeleton"
)

// Intrinsics are the pinhole parameters of the colour sensor, in pixels.
type Intrinsics struct {
	Fx float64 `json:"fx"`
	Fy float64 `json:"fy"`
	Cx float64 `json:"cx"`
	Cy float64 `json:"cy"`
}

// DefaultIntrinsics is used when the camera cannot report its calibration.
// It corresponds to a 1280x720 colour stream with a ~93° horizontal FOV.
var DefaultIntrinsics = Intrinsics{Fx: 600, Fy: 600, Cx: 640, Cy: 360}

// Validate reports whether the focal lengths can be divided by.
func (in Intrinsics) Validate() error {
	if in.Fx <= 0 {
		return fmt.Errorf("invalid focal length fx=%v", in.Fx)
	}
	if in.Fy <= 0 {
		return fmt.Errorf("invalid focal length fy=%v", in.Fy)
	}
	return nil
}

// BackProject converts a colour pixel and a depth in metres into a 3D point
// in camera coordinates using the inverse pinhole model. Degenerate
// intrinsics propagate NaN/Inf into the result.
func BackProject(px, py, depth float64, in Intrinsics) skeleton.Position {
	return skeleton.Position{
		X: (px - in.Cx) * depth / in.Fx,
		Y: (py - in.Cy) * depth / in.Fy,
		Z: depth,
	}
}

// Project maps a 3D camera-frame point to sub-pixel colour coordinates.
// It is the forward model that BackProject inverts.
func (in Intrinsics) Project(p skeleton.Position) (px, py float64) {
	px = p.X/p.Z*in.Fx + in.Cx
	py = p.Y/p.Z*in.Fy + in.Cy
	return px, py
}
