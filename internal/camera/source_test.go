package camera

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/motion.report/internal/monitoring"
	"github.com/banshee-data/motion.report/internal/timeutil"
)

func TestSyntheticSource_TimeoutReturnsErrNoFrame(t *testing.T) {
	src := NewSyntheticSource(timeutil.RealClock{}, 0.5)
	defer src.Close()

	_, err := src.Next(context.Background(), 5*time.Millisecond)
	assert.ErrorIs(t, err, ErrNoFrame)
}

func TestSyntheticSource_DeliversSequencedFrames(t *testing.T) {
	src := NewSyntheticSource(timeutil.RealClock{}, 200)
	defer src.Close()

	for want := uint64(0); want < 3; want++ {
		pair, err := src.Next(context.Background(), time.Second)
		require.NoError(t, err)
		require.NotNil(t, pair.Color)
		assert.Equal(t, want, pair.Color.Sequence)
		assert.Equal(t, 1280, pair.Color.Width)
		assert.Equal(t, 640, pair.Depth.Width)
	}

	in, ok := src.Intrinsics()
	assert.True(t, ok)
	assert.Equal(t, DefaultIntrinsics, in)
}

func TestSyntheticSource_ContextCancelled(t *testing.T) {
	src := NewSyntheticSource(timeutil.RealClock{}, 0.5)
	defer src.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := src.Next(ctx, time.Second)
	assert.True(t, errors.Is(err, context.Canceled))
}

func writeColorPNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestReplaySource_ReadsPairsUntilEOF(t *testing.T) {
	monitoring.SetLogger(nil)
	defer monitoring.SetLogger(log.Printf)

	dir := t.TempDir()
	writeColorPNG(t, filepath.Join(dir, "color_000000.png"), 64, 48)
	writeColorPNG(t, filepath.Join(dir, "color_000001.png"), 64, 48)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "color_000002.png"), []byte("not a png"), 0644))

	depth := NewDepthImage(32, 24, 1800)
	depth.Set(5, 6, 0)
	f, err := os.Create(filepath.Join(dir, "depth_000000.png"))
	require.NoError(t, err)
	require.NoError(t, WriteDepthPNG(f, depth))
	require.NoError(t, f.Close())

	require.NoError(t, os.WriteFile(filepath.Join(dir, ReplayIntrinsicsFile),
		[]byte(`{"fx":50,"fy":51,"cx":32,"cy":24}`), 0644))

	src, err := NewReplaySource(dir)
	require.NoError(t, err)
	defer src.Close()

	in, ok := src.Intrinsics()
	require.True(t, ok)
	assert.Equal(t, Intrinsics{Fx: 50, Fy: 51, Cx: 32, Cy: 24}, in)

	ctx := context.Background()

	pair, err := src.Next(ctx, 0)
	require.NoError(t, err)
	require.NotNil(t, pair.Color)
	assert.Equal(t, 64, pair.Color.Width)
	assert.Equal(t, uint64(0), pair.Color.Sequence)
	require.NotNil(t, pair.Depth)
	mm, _ := pair.Depth.At(0, 0)
	assert.Equal(t, uint16(1800), mm)
	mm, _ = pair.Depth.At(5, 6)
	assert.Equal(t, uint16(0), mm)

	pair, err = src.Next(ctx, 0)
	require.NoError(t, err)
	assert.NotNil(t, pair.Color)
	assert.Nil(t, pair.Depth, "frame 1 has no depth file")

	pair, err = src.Next(ctx, 0)
	require.NoError(t, err)
	assert.Nil(t, pair.Color, "undecodable colour frame must be dropped")

	_, err = src.Next(ctx, 0)
	assert.ErrorIs(t, err, io.EOF)
}

func TestReplaySource_MissingDirectory(t *testing.T) {
	_, err := NewReplaySource(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestReplaySource_NoIntrinsicsFile(t *testing.T) {
	dir := t.TempDir()
	writeColorPNG(t, filepath.Join(dir, "color_000000.png"), 4, 4)

	src, err := NewReplaySource(dir)
	require.NoError(t, err)
	_, ok := src.Intrinsics()
	assert.False(t, ok)
}
