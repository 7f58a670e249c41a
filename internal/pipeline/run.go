package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/banshee-data/motion.report/internal/camera"
	"github.com/banshee-data/motion.report/internal/commands"
	"github.com/banshee-data/motion.report/internal/monitoring"
)

// Run drives the frame loop until a quit command, cancellation of ctx, or
// the end of a finite source. Commands are drained between frames only.
// The active recording is closed on every exit path. Run returns an error
// only when the source fails for a reason other than a timeout.
func (p *Pipeline) Run(ctx context.Context, source camera.FrameSource, cmds <-chan commands.Command) error {
	defer func() {
		if cerr := p.stopRecording(); cerr != nil {
			monitoring.Logf("%v", cerr)
		}
	}()

	for {
		if quit := p.drainCommands(&cmds); quit {
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}

		pair, err := source.Next(ctx, p.cfg.FrameTimeout)
		switch {
		case err == nil:
			p.ProcessFrame(ctx, pair)
		case errors.Is(err, camera.ErrNoFrame):
			continue
		case errors.Is(err, io.EOF):
			monitoring.Logf("Frame source finished after %d frames", p.frameIndex)
			return nil
		case ctx.Err() != nil:
			return nil
		default:
			return fmt.Errorf("frame source: %w", err)
		}
	}
}

// drainCommands applies every queued command and reports whether a quit
// was among them. A closed channel is replaced by nil so it is no longer
// polled.
func (p *Pipeline) drainCommands(cmds *<-chan commands.Command) bool {
	for {
		select {
		case cmd, ok := <-*cmds:
			if !ok {
				*cmds = nil
				return false
			}
			err := p.HandleCommand(cmd)
			if errors.Is(err, ErrQuit) {
				return true
			}
			if err != nil {
				monitoring.Logf("command %v: %v", cmd, err)
			}
		default:
			return false
		}
	}
}

// ResolveIntrinsics picks the calibration to use: an explicit override,
// then the one reported by the source, then the default set.
func ResolveIntrinsics(override camera.Intrinsics, hasOverride bool, source camera.FrameSource) camera.Intrinsics {
	if hasOverride {
		return override
	}
	if in, ok := source.Intrinsics(); ok {
		if err := in.Validate(); err == nil {
			return in
		}
		monitoring.Warnf("Camera reported unusable intrinsics %+v; using defaults", in)
		return camera.DefaultIntrinsics
	}
	monitoring.Warnf("Camera intrinsics unavailable; using defaults %+v", camera.DefaultIntrinsics)
	return camera.DefaultIntrinsics
}
