package pose

import (
	"context"
	"math"

	"github.com/banshee-data/motion.report/internal/camera"
	"github.com/banshee-data/motion.report/internal/skeleton"
)

// standing is a front-facing figure in normalised image coordinates,
// indexed by landmark.
var standing = [skeleton.NumLandmarks][2]float64{
	skeleton.Nose:           {0.50, 0.18},
	skeleton.LeftEyeInner:   {0.51, 0.16},
	skeleton.LeftEye:        {0.52, 0.16},
	skeleton.LeftEyeOuter:   {0.53, 0.16},
	skeleton.RightEyeInner:  {0.49, 0.16},
	skeleton.RightEye:       {0.48, 0.16},
	skeleton.RightEyeOuter:  {0.47, 0.16},
	skeleton.LeftEar:        {0.54, 0.17},
	skeleton.RightEar:       {0.46, 0.17},
	skeleton.MouthLeft:      {0.51, 0.20},
	skeleton.MouthRight:     {0.49, 0.20},
	skeleton.LeftShoulder:   {0.56, 0.28},
	skeleton.RightShoulder:  {0.44, 0.28},
	skeleton.LeftElbow:      {0.60, 0.40},
	skeleton.RightElbow:     {0.40, 0.40},
	skeleton.LeftWrist:      {0.62, 0.52},
	skeleton.RightWrist:     {0.38, 0.52},
	skeleton.LeftPinky:      {0.63, 0.55},
	skeleton.RightPinky:     {0.37, 0.55},
	skeleton.LeftIndex:      {0.62, 0.56},
	skeleton.RightIndex:     {0.38, 0.56},
	skeleton.LeftThumb:      {0.61, 0.54},
	skeleton.RightThumb:     {0.39, 0.54},
	skeleton.LeftHip:        {0.54, 0.55},
	skeleton.RightHip:       {0.46, 0.55},
	skeleton.LeftKnee:       {0.55, 0.72},
	skeleton.RightKnee:      {0.45, 0.72},
	skeleton.LeftAnkle:      {0.55, 0.90},
	skeleton.RightAnkle:     {0.45, 0.90},
	skeleton.LeftHeel:       {0.54, 0.92},
	skeleton.RightHeel:      {0.46, 0.92},
	skeleton.LeftFootIndex:  {0.57, 0.93},
	skeleton.RightFootIndex: {0.43, 0.93},
}

// SyntheticEstimator reports a standing figure whose forearms swing about
// the elbows, one full cycle every Period frames. It is used in dev mode
// so the rest of the pipeline sees realistic, changing angles.
type SyntheticEstimator struct {
	Period     uint64
	Visibility float64
}

// NewSyntheticEstimator returns an estimator with a 90-frame cycle.
func NewSyntheticEstimator() *SyntheticEstimator {
	return &SyntheticEstimator{Period: 90, Visibility: 0.95}
}

// Estimate ignores pixel data and derives the pose from img.Sequence.
func (e *SyntheticEstimator) Estimate(ctx context.Context, img *camera.ColorImage) ([]skeleton.Landmark, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	period := e.Period
	if period == 0 {
		period = 90
	}

	phase := 2 * math.Pi * float64(img.Sequence%period) / float64(period)
	// Elbow flexion between roughly 0 and 110 degrees.
	flex := (1 - math.Cos(phase)) / 2 * 110 * math.Pi / 180

	out := make([]skeleton.Landmark, skeleton.NumLandmarks)
	for i, xy := range standing {
		out[i] = skeleton.Landmark{Index: i, X: xy[0], Y: xy[1], Visibility: e.Visibility}
	}
	swingForearm(out, skeleton.LeftElbow, skeleton.LeftWrist, flex, img)
	swingForearm(out, skeleton.RightElbow, skeleton.RightWrist, -flex, img)
	return out, nil
}

// swingForearm rotates the wrist about the elbow by angle radians in pixel
// space, so the rotation stays rigid on non-square images.
func swingForearm(lm []skeleton.Landmark, elbow, wrist int, angle float64, img *camera.ColorImage) {
	w, h := float64(img.Width), float64(img.Height)
	if w <= 0 || h <= 0 {
		return
	}
	ex, ey := lm[elbow].X*w, lm[elbow].Y*h
	dx, dy := lm[wrist].X*w-ex, lm[wrist].Y*h-ey
	sin, cos := math.Sincos(angle)
	lm[wrist].X = (ex + dx*cos - dy*sin) / w
	lm[wrist].Y = (ey + dx*sin + dy*cos) / h
}
