package pipeline

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/motion.report/internal/camera"
	"github.com/banshee-data/motion.report/internal/commands"
	"github.com/banshee-data/motion.report/internal/recorder"
)

func TestRun_ProcessesUntilEOFAndClosesRecording(t *testing.T) {
	h := newHarness(t, fullBody(t))
	src := &scriptedSource{steps: []step{
		{err: camera.ErrNoFrame},
		{pair: pairWith(flatDepth(2000))},
		{pair: &camera.FramePair{}}, // no colour
		{pair: pairWith(nil)},
	}}

	cmds := make(chan commands.Command, 1)
	cmds <- commands.Start

	require.NoError(t, h.p.Run(context.Background(), src, cmds))

	assert.Equal(t, Idle, h.p.State())
	assert.Equal(t, uint64(2), h.p.FrameIndex())
	require.Len(t, h.pub.frames, 2)
	assert.Equal(t, uint64(1), h.pub.frames[1].FrameIndex)

	files := h.fs.Files()
	require.Len(t, files, 1)
	data, err := h.fs.ReadFile(files[0])
	require.NoError(t, err)
	_, rows, err := recorder.ReadAll(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, 0, h.fs.OpenWriters())
}

func TestRun_CommandsAppliedBetweenFrames(t *testing.T) {
	h := newHarness(t, fullBody(t))
	cmds := make(chan commands.Command, 4)

	src := &scriptedSource{steps: []step{
		{pair: pairWith(flatDepth(2000))},
		{pair: pairWith(flatDepth(2000))},
		{pair: pairWith(flatDepth(2000))},
	}}
	src.onNext = func(i int) {
		switch i {
		case 1:
			cmds <- commands.Toggle
		case 2:
			cmds <- commands.Stop
		}
	}

	require.NoError(t, h.p.Run(context.Background(), src, cmds))

	// The toggle queued while fetching frame 1 takes effect before frame 2.
	require.Len(t, h.store.samples, 1)
	assert.Equal(t, uint64(2), h.store.samples[0].frame)
	assert.Len(t, h.store.begun, 1)
	assert.Len(t, h.store.ended, 1)
}

func TestRun_QuitClosesRecording(t *testing.T) {
	h := newHarness(t, fullBody(t))
	cmds := make(chan commands.Command, 4)
	src := &scriptedSource{steps: []step{
		{pair: pairWith(flatDepth(2000))},
		{pair: pairWith(flatDepth(2000))},
		{pair: pairWith(flatDepth(2000))},
	}}
	src.onNext = func(i int) {
		if i == 1 {
			cmds <- commands.Quit
		}
	}
	cmds <- commands.Start

	require.NoError(t, h.p.Run(context.Background(), src, cmds))
	assert.Equal(t, uint64(2), h.p.FrameIndex())
	assert.Equal(t, Idle, h.p.State())
	assert.Equal(t, 0, h.fs.OpenWriters())
	assert.Equal(t, 1, len(h.store.ended))
}

func TestRun_CancelledContext(t *testing.T) {
	h := newHarness(t, fullBody(t))
	ctx, cancel := context.WithCancel(context.Background())
	src := &scriptedSource{steps: []step{
		{pair: pairWith(flatDepth(2000))},
		{pair: pairWith(flatDepth(2000))},
	}}
	src.onNext = func(i int) {
		if i == 1 {
			cancel()
		}
	}
	cmds := make(chan commands.Command, 1)
	cmds <- commands.Start

	require.NoError(t, h.p.Run(ctx, src, cmds))
	assert.Equal(t, Idle, h.p.State())
	assert.Equal(t, 0, h.fs.OpenWriters())
}

func TestRun_SourceFailure(t *testing.T) {
	h := newHarness(t, fullBody(t))
	src := &scriptedSource{steps: []step{
		{pair: pairWith(flatDepth(2000))},
		{err: errUnplugged},
	}}
	cmds := make(chan commands.Command, 1)
	cmds <- commands.Start

	err := h.p.Run(context.Background(), src, cmds)
	require.ErrorIs(t, err, errUnplugged)
	assert.Equal(t, Idle, h.p.State())
	assert.Equal(t, 0, h.fs.OpenWriters())
}

func TestRun_ClosedCommandChannel(t *testing.T) {
	h := newHarness(t, fullBody(t))
	cmds := make(chan commands.Command)
	close(cmds)
	src := &scriptedSource{steps: []step{{pair: pairWith(flatDepth(2000))}}}

	require.NoError(t, h.p.Run(context.Background(), src, cmds))
	assert.Equal(t, uint64(1), h.p.FrameIndex())
}

func TestResolveIntrinsics(t *testing.T) {
	override := camera.Intrinsics{Fx: 610, Fy: 611, Cx: 320, Cy: 240}
	reported := camera.Intrinsics{Fx: 900, Fy: 900, Cx: 640, Cy: 360}

	assert.Equal(t, override, ResolveIntrinsics(override, true, &scriptedSource{intrinsics: &reported}))
	assert.Equal(t, reported, ResolveIntrinsics(override, false, &scriptedSource{intrinsics: &reported}))
	assert.Equal(t, camera.DefaultIntrinsics, ResolveIntrinsics(override, false, &scriptedSource{}))

	bad := camera.Intrinsics{}
	assert.Equal(t, camera.DefaultIntrinsics, ResolveIntrinsics(override, false, &scriptedSource{intrinsics: &bad}))
}
