package camera

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"

	"github.com/banshee-data/motion.report/internal/monitoring"
)

// Replay directories hold one file per stream per frame, numbered from 0.
const (
	ReplayColorPattern   = "color_%06d.png"
	ReplayDepthPattern   = "depth_%06d.png"
	ReplayIntrinsicsFile = "intrinsics.json"
)

// ReplaySource reads previously captured frame pairs from a directory.
// Colour frames may be any format imaging can decode; depth frames must be
// 16-bit greyscale PNGs holding millimetres.
type ReplaySource struct {
	dir        string
	next       uint64
	intrinsics Intrinsics
	hasIntr    bool
}

// NewReplaySource opens dir for replay. The directory must exist and hold
// at least the first colour frame.
func NewReplaySource(dir string) (*ReplaySource, error) {
	first := filepath.Join(dir, fmt.Sprintf(ReplayColorPattern, 0))
	if _, err := os.Stat(first); err != nil {
		return nil, fmt.Errorf("replay directory %q has no frames: %w", dir, err)
	}

	s := &ReplaySource{dir: dir}
	data, err := os.ReadFile(filepath.Join(dir, ReplayIntrinsicsFile))
	switch {
	case err == nil:
		var in Intrinsics
		if err := json.Unmarshal(data, &in); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", ReplayIntrinsicsFile, err)
		}
		if err := in.Validate(); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", ReplayIntrinsicsFile, err)
		}
		s.intrinsics, s.hasIntr = in, true
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("failed to read %s: %w", ReplayIntrinsicsFile, err)
	}
	return s, nil
}

// Next returns the next stored pair, or io.EOF after the last colour frame.
// A colour file that cannot be decoded yields a pair without colour, which
// the pipeline skips.
func (s *ReplaySource) Next(ctx context.Context, _ time.Duration) (*FramePair, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seq := s.next
	colorPath := filepath.Join(s.dir, fmt.Sprintf(ReplayColorPattern, seq))
	if _, err := os.Stat(colorPath); err != nil {
		if os.IsNotExist(err) {
			return nil, io.EOF
		}
		return nil, err
	}
	s.next++

	pair := &FramePair{CapturedAt: time.Now()}
	if img, err := imaging.Open(colorPath); err != nil {
		monitoring.Logf("replay: skipping undecodable colour frame %d: %v", seq, err)
	} else {
		b := img.Bounds()
		pair.Color = &ColorImage{Width: b.Dx(), Height: b.Dy(), Sequence: seq, Image: img}
	}

	depthPath := filepath.Join(s.dir, fmt.Sprintf(ReplayDepthPattern, seq))
	depth, err := readDepthPNG(depthPath)
	if err != nil && !os.IsNotExist(err) {
		monitoring.Logf("replay: ignoring depth frame %d: %v", seq, err)
	}
	pair.Depth = depth
	return pair, nil
}

// Intrinsics returns the calibration stored alongside the frames, if any.
func (s *ReplaySource) Intrinsics() (Intrinsics, bool) {
	return s.intrinsics, s.hasIntr
}

// Close is a no-op; files are opened per frame.
func (s *ReplaySource) Close() error { return nil }

func readDepthPNG(path string) (*DepthImage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return depthFromImage(img), nil
}

func depthFromImage(img image.Image) *DepthImage {
	b := img.Bounds()
	out := NewDepthImage(b.Dx(), b.Dy(), 0)
	if g, ok := img.(*image.Gray16); ok {
		for y := 0; y < out.Height; y++ {
			for x := 0; x < out.Width; x++ {
				out.Set(x, y, g.Gray16At(b.Min.X+x, b.Min.Y+y).Y)
			}
		}
		return out
	}
	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			c := color.Gray16Model.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray16)
			out.Set(x, y, c.Y)
		}
	}
	return out
}

// WriteDepthPNG stores d as a 16-bit greyscale PNG readable by ReplaySource.
func WriteDepthPNG(w io.Writer, d *DepthImage) error {
	img := image.NewGray16(image.Rect(0, 0, d.Width, d.Height))
	for y := 0; y < d.Height; y++ {
		for x := 0; x < d.Width; x++ {
			mm, _ := d.At(x, y)
			img.SetGray16(x, y, color.Gray16{Y: mm})
		}
	}
	return png.Encode(w, img)
}
