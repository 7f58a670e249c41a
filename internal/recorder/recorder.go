// Package recorder writes clinical angle recordings as CSV files.
package recorder

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/motion.report/internal/fsutil"
	"github.com/banshee-data/motion.report/internal/timeutil"
)

const (
	// FileExtension is the extension of recording files.
	FileExtension = ".csv"

	// DefaultPrefix starts every recording file name.
	DefaultPrefix = "Rehab_Data_"

	// FileTimeLayout is the session start time embedded in the file name.
	FileTimeLayout = "20060102_150405"

	// RowTimeLayout is the wall-clock timestamp written on each row.
	RowTimeLayout = "15:04:05.000"
)

// Options control where a session is written and which angle columns it has.
type Options struct {
	Dir     string
	Prefix  string
	Metrics []string
}

// Header returns the CSV header for the given metric columns.
func Header(metrics []string) []string {
	return append([]string{"Timestamp", "Frame"}, metrics...)
}

// FileName derives the recording file name from the session start time.
func FileName(prefix string, start time.Time) string {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return prefix + start.Format(FileTimeLayout) + FileExtension
}

// Session is one open recording. Methods are safe for concurrent use; the
// frame loop writes rows while the HTTP API reads Rows.
type Session struct {
	ID        string
	Path      string
	StartedAt time.Time

	clock   timeutil.Clock
	columns int

	mu     sync.Mutex
	file   io.WriteCloser
	w      *csv.Writer
	rows   int
	closed bool
}

// Open creates the output directory if needed, creates a new recording
// file and writes the header row. If a file with the derived name already
// exists (two sessions started within the same second) a numeric suffix is
// added rather than overwriting it.
func Open(fsys fsutil.FileSystem, clock timeutil.Clock, opts Options) (*Session, error) {
	if len(opts.Metrics) == 0 {
		return nil, fmt.Errorf("recording needs at least one metric column")
	}
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create recordings directory: %w", err)
	}

	start := clock.Now()
	path := filepath.Join(dir, FileName(opts.Prefix, start))
	for n := 1; fsys.Exists(path); n++ {
		base := FileName(opts.Prefix, start)
		path = filepath.Join(dir, fmt.Sprintf("%s_%d%s", base[:len(base)-len(FileExtension)], n, FileExtension))
	}

	f, err := fsys.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create recording: %w", err)
	}

	s := &Session{
		ID:        uuid.NewString(),
		Path:      path,
		StartedAt: start,
		clock:     clock,
		columns:   len(opts.Metrics),
		file:      f,
		w:         csv.NewWriter(f),
	}
	if err := s.w.Write(Header(opts.Metrics)); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	return s, nil
}

// WriteRow appends one data row stamped with the current wall-clock time.
// Angles are written with one decimal place.
func (s *Session) WriteRow(frame uint64, degrees []float64) error {
	if len(degrees) != s.columns {
		return fmt.Errorf("row has %d angles, session has %d columns", len(degrees), s.columns)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("recording %s is closed", s.ID)
	}

	record := make([]string, 0, 2+len(degrees))
	record = append(record,
		s.clock.Now().Format(RowTimeLayout),
		strconv.FormatUint(frame, 10),
	)
	for _, d := range degrees {
		record = append(record, strconv.FormatFloat(d, 'f', 1, 64))
	}
	if err := s.w.Write(record); err != nil {
		return fmt.Errorf("failed to write row: %w", err)
	}
	s.rows++
	return nil
}

// Rows returns the number of data rows written so far.
func (s *Session) Rows() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows
}

// Close flushes buffered rows and closes the file. Calling Close more than
// once is a no-op.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	s.w.Flush()
	flushErr := s.w.Error()
	closeErr := s.file.Close()
	if flushErr != nil {
		return fmt.Errorf("failed to flush recording: %w", flushErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close recording: %w", closeErr)
	}
	return nil
}
