package camera

import (
	"context"
	"time"

	"github.com/banshee-data/motion.report/internal/timeutil"
)

// SyntheticSource produces paced, geometry-only frame pairs for dev mode
// and tests. The colour frame carries no pixels; the depth frame is a flat
// wall at DepthMM.
type SyntheticSource struct {
	Width       int
	Height      int
	DepthWidth  int
	DepthHeight int
	DepthMM     uint16

	clock  timeutil.Clock
	ticker timeutil.Ticker
	depth  *DepthImage
	seq    uint64
}

// NewSyntheticSource returns a 1280x720 colour / 640x480 depth source that
// emits frameRate pairs per second on clock.
func NewSyntheticSource(clock timeutil.Clock, frameRate float64) *SyntheticSource {
	if frameRate <= 0 {
		frameRate = 30
	}
	s := &SyntheticSource{
		Width:       1280,
		Height:      720,
		DepthWidth:  640,
		DepthHeight: 480,
		DepthMM:     2000,
		clock:       clock,
		ticker:      clock.NewTicker(time.Duration(float64(time.Second) / frameRate)),
	}
	s.depth = NewDepthImage(s.DepthWidth, s.DepthHeight, s.DepthMM)
	return s
}

// Next waits for the next frame tick.
func (s *SyntheticSource) Next(ctx context.Context, timeout time.Duration) (*FramePair, error) {
	timer := s.clock.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C():
		return nil, ErrNoFrame
	case now := <-s.ticker.C():
		seq := s.seq
		s.seq++
		return &FramePair{
			Color:      &ColorImage{Width: s.Width, Height: s.Height, Sequence: seq},
			Depth:      s.depth,
			CapturedAt: now,
		}, nil
	}
}

// Intrinsics reports the default calibration, which matches the synthetic
// 1280x720 colour stream.
func (s *SyntheticSource) Intrinsics() (Intrinsics, bool) {
	return DefaultIntrinsics, true
}

// Close stops the frame ticker.
func (s *SyntheticSource) Close() error {
	s.ticker.Stop()
	return nil
}
