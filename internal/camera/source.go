package camera

import (
	"context"
	"errors"
	"image"
	"time"
)

// ErrNoFrame is returned by FrameSource.Next when the wait timed out
// without a frame. Callers skip the iteration and try again.
var ErrNoFrame = errors.New("no frame available")

// ColorImage is a decoded colour frame. Image may be nil for sources that
// only carry geometry (synthetic frames); Width and Height are always set.
type ColorImage struct {
	Width    int
	Height   int
	Sequence uint64
	Image    image.Image
}

// FramePair is a colour frame and the depth frame captured with it. Either
// may be missing: pairs without colour are skipped, pairs without depth
// fall back to the default depth for every joint.
type FramePair struct {
	Color      *ColorImage
	Depth      *DepthImage
	CapturedAt time.Time
}

// FrameSource supplies paired frames from a depth camera.
type FrameSource interface {
	// Next blocks for at most timeout waiting for the next pair. It returns
	// ErrNoFrame on timeout, io.EOF when a finite source is exhausted, and
	// ctx.Err() when the context is cancelled.
	Next(ctx context.Context, timeout time.Duration) (*FramePair, error)

	// Intrinsics returns the colour sensor calibration, or false if the
	// device could not report it.
	Intrinsics() (Intrinsics, bool)

	Close() error
}
