package pipeline

import (
	"errors"
	"fmt"

	"github.com/banshee-data/motion.report/internal/commands"
	"github.com/banshee-data/motion.report/internal/monitoring"
	"github.com/banshee-data/motion.report/internal/recorder"
)

// ErrQuit is returned by HandleCommand for a quit request.
var ErrQuit = errors.New("quit requested")

// HandleCommand applies an operator command. Commands that ask for the
// state the pipeline is already in do nothing.
func (p *Pipeline) HandleCommand(cmd commands.Command) error {
	switch cmd {
	case commands.Start:
		return p.startRecording()
	case commands.Stop:
		return p.stopRecording()
	case commands.Toggle:
		if p.state == Recording {
			return p.stopRecording()
		}
		return p.startRecording()
	case commands.Quit:
		return ErrQuit
	default:
		return fmt.Errorf("unknown command %v", cmd)
	}
}

func (p *Pipeline) startRecording() error {
	if p.state == Recording {
		return nil
	}
	if p.closed {
		return errors.New("pipeline is closed")
	}

	s, err := recorder.Open(p.deps.FS, p.deps.Clock, recorder.Options{
		Dir:     p.cfg.RecordingsDir,
		Prefix:  p.cfg.RecordingPrefix,
		Metrics: p.cfg.Protocol.Names(),
	})
	if err != nil {
		return fmt.Errorf("failed to start recording: %w", err)
	}
	if p.deps.Store != nil {
		if err := p.deps.Store.BeginSession(s.ID, s.Path, s.StartedAt, p.cfg.SmoothingFactor); err != nil {
			monitoring.Logf("session store: %v", err)
		}
	}

	p.session = s
	p.state = Recording
	p.publishStatus()
	monitoring.Logf("Recording started: %s", s.Path)
	return nil
}

func (p *Pipeline) stopRecording() error {
	if p.state != Recording {
		return nil
	}
	s := p.session
	p.session = nil
	p.state = Idle
	defer p.publishStatus()

	err := s.Close()
	if p.deps.Store != nil {
		if serr := p.deps.Store.EndSession(s.ID, p.deps.Clock.Now(), s.Rows()); serr != nil {
			monitoring.Logf("session store: %v", serr)
		}
	}
	if err != nil {
		return fmt.Errorf("failed to close recording %s: %w", s.Path, err)
	}
	monitoring.Logf("Recording saved: %s (%d rows)", s.Path, s.Rows())
	return nil
}
