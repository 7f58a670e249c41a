// Package pipeline runs the per-frame tracking loop: landmark detection,
// depth lookup, back-projection, smoothing, angle evaluation, recording and
// streaming.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/banshee-data/motion.report/internal/camera"
	"github.com/banshee-data/motion.report/internal/fsutil"
	"github.com/banshee-data/motion.report/internal/kinematics"
	"github.com/banshee-data/motion.report/internal/monitoring"
	"github.com/banshee-data/motion.report/internal/pose"
	"github.com/banshee-data/motion.report/internal/recorder"
	"github.com/banshee-data/motion.report/internal/skeleton"
	"github.com/banshee-data/motion.report/internal/smoothing"
	"github.com/banshee-data/motion.report/internal/timeutil"
)

// State is the recording state of the pipeline.
type State int32

const (
	Idle State = iota
	Recording
)

func (s State) String() string {
	if s == Recording {
		return "recording"
	}
	return "idle"
}

// Publisher receives every SkeletonFrame. Publish must not block.
type Publisher interface {
	Publish(frame *skeleton.SkeletonFrame)
}

// SessionStore indexes recordings and their angle samples. Failures are
// logged by the pipeline and never stop the frame loop.
type SessionStore interface {
	BeginSession(id, csvPath string, startedAt time.Time, smoothingFactor float64) error
	RecordSample(id string, frame uint64, capturedAt time.Time, degrees []float64) error
	EndSession(id string, endedAt time.Time, rows int) error
}

// Config holds the numeric parameters of the pipeline.
type Config struct {
	Intrinsics      camera.Intrinsics
	DefaultDepthM   float64
	SmoothingFactor float64
	// MinAngleJoints is the number of joints a frame must carry before the
	// protocol is evaluated. New raises it to cover every joint the protocol
	// references.
	MinAngleJoints int
	Protocol       kinematics.Protocol
	FrameTimeout   time.Duration

	RecordingsDir   string
	RecordingPrefix string
}

// Deps are the collaborators of the pipeline. Store may be nil.
type Deps struct {
	Estimator pose.Estimator
	Publisher Publisher
	Store     SessionStore
	FS        fsutil.FileSystem
	Clock     timeutil.Clock
}

// Status is a snapshot of the pipeline, safe to read from other goroutines.
type Status struct {
	State       string    `json:"state"`
	FrameIndex  uint64    `json:"frame"`
	Joints      int       `json:"joints"`
	SessionID   string    `json:"session_id,omitempty"`
	SessionPath string    `json:"session_path,omitempty"`
	RowsWritten int       `json:"rows_written"`
	RowsSkipped uint64    `json:"rows_skipped"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Pipeline owns the smoother state, the frame counter and the active
// recording. All methods except Status must be called from the frame loop
// goroutine.
type Pipeline struct {
	cfg     Config
	sampler camera.DepthSampler
	deps    Deps

	smoother   *smoothing.JointSmoother
	state      State
	frameIndex uint64
	joints     int
	session    *recorder.Session
	skipped    uint64
	closed     bool

	status atomic.Pointer[Status]
}

// New validates cfg and returns an idle pipeline.
func New(cfg Config, deps Deps) (*Pipeline, error) {
	if err := cfg.Intrinsics.Validate(); err != nil {
		return nil, err
	}
	if cfg.SmoothingFactor < 0 || cfg.SmoothingFactor > 1 {
		return nil, fmt.Errorf("smoothing factor must be between 0 and 1, got %g", cfg.SmoothingFactor)
	}
	if len(cfg.Protocol) == 0 {
		cfg.Protocol = kinematics.DefaultProtocol
	}
	if need := cfg.Protocol.MaxJointIndex() + 1; cfg.MinAngleJoints < need {
		if cfg.MinAngleJoints > 0 {
			monitoring.Logf("min angle joints %d is below the %d joints the protocol reads; using %d", cfg.MinAngleJoints, need, need)
		}
		cfg.MinAngleJoints = need
	}
	if cfg.FrameTimeout <= 0 {
		cfg.FrameTimeout = 100 * time.Millisecond
	}
	if deps.Estimator == nil || deps.Publisher == nil {
		return nil, errors.New("pipeline needs an estimator and a publisher")
	}
	if deps.FS == nil {
		deps.FS = fsutil.OSFileSystem{}
	}
	if deps.Clock == nil {
		deps.Clock = timeutil.RealClock{}
	}

	p := &Pipeline{
		cfg:      cfg,
		sampler:  camera.NewDepthSampler(cfg.DefaultDepthM),
		deps:     deps,
		smoother: smoothing.NewJointSmoother(cfg.SmoothingFactor),
	}
	p.publishStatus()
	return p, nil
}

// State returns the current recording state.
func (p *Pipeline) State() State { return p.state }

// FrameIndex returns the index the next processed frame will carry.
func (p *Pipeline) FrameIndex() uint64 { return p.frameIndex }

// Session returns the active recording, or nil when idle.
func (p *Pipeline) Session() *recorder.Session { return p.session }

// Status returns the latest snapshot.
func (p *Pipeline) Status() Status { return *p.status.Load() }

func (p *Pipeline) publishStatus() {
	st := &Status{
		State:       p.state.String(),
		FrameIndex:  p.frameIndex,
		Joints:      p.joints,
		RowsSkipped: p.skipped,
		UpdatedAt:   p.deps.Clock.Now(),
	}
	if p.session != nil {
		st.SessionID = p.session.ID
		st.SessionPath = p.session.Path
		st.RowsWritten = p.session.Rows()
	}
	p.status.Store(st)
}

// ProcessFrame runs one frame pair through the pipeline. It returns false,
// without touching the frame counter, when the pair has no colour image.
// Every other pair produces exactly one published SkeletonFrame, which may
// have no joints when nobody is detected.
func (p *Pipeline) ProcessFrame(ctx context.Context, pair *camera.FramePair) (*skeleton.SkeletonFrame, bool) {
	if pair == nil || pair.Color == nil {
		return nil, false
	}
	color := pair.Color

	landmarks, err := p.deps.Estimator.Estimate(ctx, color)
	if err != nil {
		monitoring.Logf("pose estimation failed on frame %d: %v", p.frameIndex, err)
		landmarks = nil
	}

	frame := skeleton.NewSkeletonFrame(p.frameIndex, len(landmarks))
	for _, lm := range landmarks {
		px := int(lm.X * float64(color.Width))
		py := int(lm.Y * float64(color.Height))
		depth := p.sampler.Sample(px, py, color.Width, color.Height, pair.Depth)
		raw := camera.BackProject(float64(px), float64(py), depth, p.cfg.Intrinsics)
		frame.Joints = append(frame.Joints, skeleton.Joint{
			ID:         lm.Index,
			Position:   p.smoother.Update(lm.Index, raw),
			Visibility: lm.Visibility,
		})
	}

	if p.state == Recording && len(frame.Joints) >= p.cfg.MinAngleJoints {
		p.recordAngles(frame)
	}

	p.deps.Publisher.Publish(frame)
	p.frameIndex++
	p.joints = len(frame.Joints)
	p.publishStatus()
	return frame, true
}

// recordAngles writes one row when every protocol metric is computable.
func (p *Pipeline) recordAngles(frame *skeleton.SkeletonFrame) {
	results := p.cfg.Protocol.Evaluate(frame.Positions())
	if !kinematics.AllOK(results) {
		p.skipped++
		return
	}
	degrees := kinematics.Degrees(results)

	if err := p.session.WriteRow(frame.FrameIndex, degrees); err != nil {
		monitoring.Logf("recording %s: %v", p.session.ID, err)
		return
	}
	if p.deps.Store != nil {
		if err := p.deps.Store.RecordSample(p.session.ID, frame.FrameIndex, p.deps.Clock.Now(), degrees); err != nil {
			monitoring.Logf("session store: %v", err)
		}
	}
}

// Reset clears the smoother state so the next observation of every joint
// is taken raw.
func (p *Pipeline) Reset() {
	p.smoother.Reset()
}

// Close stops any active recording. It is safe to call more than once.
func (p *Pipeline) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	return p.stopRecording()
}
