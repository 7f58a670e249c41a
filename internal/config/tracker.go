package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/banshee-data/motion.report/internal/camera"
	"github.com/banshee-data/motion.report/internal/security"
)

// DefaultConfigPath is the canonical defaults file, relative to the
// repository root.
const DefaultConfigPath = "config/tracker.defaults.json"

// IntrinsicsConfig overrides the colour camera calibration.
type IntrinsicsConfig struct {
	Fx float64 `json:"fx"`
	Fy float64 `json:"fy"`
	Cx float64 `json:"cx"`
	Cy float64 `json:"cy"`
}

// TrackerConfig holds the tracker's tunables. Every field is optional: the
// Get* accessors fall back to the documented defaults, so a partial file
// (or none at all) is valid.
type TrackerConfig struct {
	// Geometry
	SmoothingFactor *float64          `json:"smoothing_factor,omitempty"`
	DefaultDepthM   *float64          `json:"default_depth_m,omitempty"`
	Intrinsics      *IntrinsicsConfig `json:"intrinsics,omitempty"`

	// Frame loop
	FrameTimeout   *string  `json:"frame_timeout,omitempty"` // duration string like "100ms"
	MinAngleJoints *int     `json:"min_angle_joints,omitempty"`
	SyntheticFPS   *float64 `json:"synthetic_fps,omitempty"`

	// Streaming
	UDPHost            *string `json:"udp_host,omitempty"`
	UDPPort            *int    `json:"udp_port,omitempty"`
	ForwardBuffer      *int    `json:"forward_buffer,omitempty"`
	ForwardLogInterval *string `json:"forward_log_interval,omitempty"`

	// Recording
	RecordingsDir   *string `json:"recordings_dir,omitempty"`
	RecordingPrefix *string `json:"recording_prefix,omitempty"`

	// Foot switch (optional)
	FootswitchPort *string `json:"footswitch_port,omitempty"`
	FootswitchBaud *int    `json:"footswitch_baud,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// DefaultTrackerConfig returns a config with every field set to its
// default, matching config/tracker.defaults.json.
func DefaultTrackerConfig() *TrackerConfig {
	in := camera.DefaultIntrinsics
	return &TrackerConfig{
		SmoothingFactor:    ptrFloat64(0.5),
		DefaultDepthM:      ptrFloat64(camera.DefaultDepthMeters),
		Intrinsics:         &IntrinsicsConfig{Fx: in.Fx, Fy: in.Fy, Cx: in.Cx, Cy: in.Cy},
		FrameTimeout:       ptrString("100ms"),
		MinAngleJoints:     ptrInt(29),
		SyntheticFPS:       ptrFloat64(30),
		UDPHost:            ptrString("127.0.0.1"),
		UDPPort:            ptrInt(5065),
		ForwardBuffer:      ptrInt(64),
		ForwardLogInterval: ptrString("10s"),
		RecordingsDir:      ptrString("."),
		RecordingPrefix:    ptrString("Rehab_Data_"),
		FootswitchPort:     ptrString(""),
		FootswitchBaud:     ptrInt(9600),
	}
}

// LoadTrackerConfig reads and validates a JSON config file. The path must
// end in .json and the file must be under 1MB.
func LoadTrackerConfig(path string) (*TrackerConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &TrackerConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath from the working directory
// or a parent. It panics when the file is missing; tests use it to check
// that the file and DefaultTrackerConfig agree.
func MustLoadDefaultConfig() *TrackerConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // from cmd/tools/*
	}
	for _, path := range candidates {
		if cfg, err := LoadTrackerConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks the fields that are set.
func (c *TrackerConfig) Validate() error {
	if c.SmoothingFactor != nil {
		if f := *c.SmoothingFactor; f < 0 || f > 1 {
			return fmt.Errorf("smoothing_factor must be between 0 and 1, got %g", f)
		}
	}
	if c.DefaultDepthM != nil && *c.DefaultDepthM <= 0 {
		return fmt.Errorf("default_depth_m must be positive, got %g", *c.DefaultDepthM)
	}
	if c.Intrinsics != nil {
		in := camera.Intrinsics{Fx: c.Intrinsics.Fx, Fy: c.Intrinsics.Fy, Cx: c.Intrinsics.Cx, Cy: c.Intrinsics.Cy}
		if err := in.Validate(); err != nil {
			return fmt.Errorf("intrinsics: %w", err)
		}
	}
	for name, v := range map[string]*string{
		"frame_timeout":        c.FrameTimeout,
		"forward_log_interval": c.ForwardLogInterval,
	} {
		if v == nil || *v == "" {
			continue
		}
		d, err := time.ParseDuration(*v)
		if err != nil {
			return fmt.Errorf("invalid %s '%s': %w", name, *v, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}
	if c.MinAngleJoints != nil && *c.MinAngleJoints < 0 {
		return fmt.Errorf("min_angle_joints must be non-negative, got %d", *c.MinAngleJoints)
	}
	if c.SyntheticFPS != nil && *c.SyntheticFPS <= 0 {
		return fmt.Errorf("synthetic_fps must be positive, got %g", *c.SyntheticFPS)
	}
	if c.UDPPort != nil && (*c.UDPPort < 1 || *c.UDPPort > 65535) {
		return fmt.Errorf("udp_port must be between 1 and 65535, got %d", *c.UDPPort)
	}
	if c.ForwardBuffer != nil && *c.ForwardBuffer < 1 {
		return fmt.Errorf("forward_buffer must be at least 1, got %d", *c.ForwardBuffer)
	}
	if c.RecordingPrefix != nil && *c.RecordingPrefix != "" && security.SanitizeFilename(*c.RecordingPrefix) != *c.RecordingPrefix {
		return fmt.Errorf("recording_prefix %q may only contain letters, digits, '.', '_' and '-'", *c.RecordingPrefix)
	}
	if c.FootswitchBaud != nil && *c.FootswitchBaud <= 0 {
		return fmt.Errorf("footswitch_baud must be positive, got %d", *c.FootswitchBaud)
	}
	return nil
}

// GetSmoothingFactor returns smoothing_factor or 0.5.
func (c *TrackerConfig) GetSmoothingFactor() float64 {
	if c.SmoothingFactor == nil {
		return 0.5
	}
	return *c.SmoothingFactor
}

// GetDefaultDepthM returns default_depth_m or 1.5.
func (c *TrackerConfig) GetDefaultDepthM() float64 {
	if c.DefaultDepthM == nil {
		return camera.DefaultDepthMeters
	}
	return *c.DefaultDepthM
}

// GetIntrinsics returns the configured calibration, or the default set.
// The bool reports whether the value came from the config file; a
// configured calibration takes precedence over what the camera reports.
func (c *TrackerConfig) GetIntrinsics() (camera.Intrinsics, bool) {
	if c.Intrinsics == nil {
		return camera.DefaultIntrinsics, false
	}
	return camera.Intrinsics{Fx: c.Intrinsics.Fx, Fy: c.Intrinsics.Fy, Cx: c.Intrinsics.Cx, Cy: c.Intrinsics.Cy}, true
}

// GetFrameTimeout returns the per-iteration frame wait.
func (c *TrackerConfig) GetFrameTimeout() time.Duration {
	return parseDurationOr(c.FrameTimeout, 100*time.Millisecond)
}

// GetForwardLogInterval returns how often send failures are summarised.
func (c *TrackerConfig) GetForwardLogInterval() time.Duration {
	return parseDurationOr(c.ForwardLogInterval, 10*time.Second)
}

func parseDurationOr(v *string, def time.Duration) time.Duration {
	if v == nil || *v == "" {
		return def
	}
	d, err := time.ParseDuration(*v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// GetMinAngleJoints returns the joint count a frame needs before angles
// are evaluated.
func (c *TrackerConfig) GetMinAngleJoints() int {
	if c.MinAngleJoints == nil {
		return 29
	}
	return *c.MinAngleJoints
}

func (c *TrackerConfig) GetSyntheticFPS() float64 {
	if c.SyntheticFPS == nil {
		return 30
	}
	return *c.SyntheticFPS
}

func (c *TrackerConfig) GetUDPHost() string {
	if c.UDPHost == nil || *c.UDPHost == "" {
		return "127.0.0.1"
	}
	return *c.UDPHost
}

func (c *TrackerConfig) GetUDPPort() int {
	if c.UDPPort == nil {
		return 5065
	}
	return *c.UDPPort
}

func (c *TrackerConfig) GetForwardBuffer() int {
	if c.ForwardBuffer == nil {
		return 64
	}
	return *c.ForwardBuffer
}

// GetRecordingsDir returns where CSV recordings are written.
func (c *TrackerConfig) GetRecordingsDir() string {
	if c.RecordingsDir == nil || *c.RecordingsDir == "" {
		return "."
	}
	return *c.RecordingsDir
}

func (c *TrackerConfig) GetRecordingPrefix() string {
	if c.RecordingPrefix == nil || *c.RecordingPrefix == "" {
		return "Rehab_Data_"
	}
	return *c.RecordingPrefix
}

// GetFootswitchPort returns the serial device of the foot switch, or "" if
// none is configured.
func (c *TrackerConfig) GetFootswitchPort() string {
	if c.FootswitchPort == nil {
		return ""
	}
	return *c.FootswitchPort
}

func (c *TrackerConfig) GetFootswitchBaud() int {
	if c.FootswitchBaud == nil {
		return 9600
	}
	return *c.FootswitchBaud
}
