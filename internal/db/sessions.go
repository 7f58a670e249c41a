package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrSessionNotFound is returned when a session id is unknown.
var ErrSessionNotFound = errors.New("session not found")

// MetricNames are the angle columns of angle_samples, in CSV order.
var MetricNames = []string{"L_Elbow", "R_Elbow", "L_Knee", "R_Knee"}

// Session is one recording.
type Session struct {
	ID              string     `json:"id"`
	StartedAt       time.Time  `json:"started_at"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	CSVPath         string     `json:"csv_path"`
	SmoothingFactor float64    `json:"smoothing_factor"`
	RowsWritten     int        `json:"rows_written"`
	Notes           string     `json:"notes,omitempty"`
}

// Active reports whether the session has not been ended.
func (s *Session) Active() bool { return s.EndedAt == nil }

// AngleSample is one recorded row.
type AngleSample struct {
	Frame      uint64    `json:"frame"`
	CapturedAt time.Time `json:"captured_at"`
	LElbow     float64   `json:"l_elbow"`
	RElbow     float64   `json:"r_elbow"`
	LKnee      float64   `json:"l_knee"`
	RKnee      float64   `json:"r_knee"`
}

// Degrees returns the angles in MetricNames order.
func (a AngleSample) Degrees() []float64 {
	return []float64{a.LElbow, a.RElbow, a.LKnee, a.RKnee}
}

func toMillis(t time.Time) int64 { return t.UnixMilli() }

func fromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }

// BeginSession records the start of a recording.
func (db *DB) BeginSession(id, csvPath string, startedAt time.Time, smoothingFactor float64) error {
	_, err := db.Exec(
		`INSERT INTO sessions (session_id, started_at_ms, csv_path, smoothing_factor) VALUES (?, ?, ?, ?)`,
		id, toMillis(startedAt), csvPath, smoothingFactor,
	)
	if err != nil {
		return fmt.Errorf("failed to begin session %s: %w", id, err)
	}
	return nil
}

// RecordSample stores one row of angles for session id.
func (db *DB) RecordSample(id string, frame uint64, capturedAt time.Time, degrees []float64) error {
	if len(degrees) != len(MetricNames) {
		return fmt.Errorf("sample has %d angles, want %d", len(degrees), len(MetricNames))
	}
	_, err := db.Exec(
		`INSERT INTO angle_samples (session_id, frame, captured_at_ms, l_elbow, r_elbow, l_knee, r_knee)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, int64(frame), toMillis(capturedAt), degrees[0], degrees[1], degrees[2], degrees[3],
	)
	if err != nil {
		return fmt.Errorf("failed to record sample for frame %d: %w", frame, err)
	}
	return nil
}

// EndSession marks session id as finished.
func (db *DB) EndSession(id string, endedAt time.Time, rows int) error {
	res, err := db.Exec(
		`UPDATE sessions SET ended_at_ms = ?, rows_written = ? WHERE session_id = ?`,
		toMillis(endedAt), rows, id,
	)
	if err != nil {
		return fmt.Errorf("failed to end session %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("end session %s: %w", id, ErrSessionNotFound)
	}
	return nil
}

// SetSessionNotes replaces the clinician notes on a session.
func (db *DB) SetSessionNotes(id, notes string) error {
	res, err := db.Exec(`UPDATE sessions SET notes = ? WHERE session_id = ?`, notes, id)
	if err != nil {
		return fmt.Errorf("failed to update notes: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

const sessionColumns = `session_id, started_at_ms, ended_at_ms, csv_path, smoothing_factor, rows_written, notes`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*Session, error) {
	var (
		s       Session
		started int64
		ended   sql.NullInt64
	)
	if err := row.Scan(&s.ID, &started, &ended, &s.CSVPath, &s.SmoothingFactor, &s.RowsWritten, &s.Notes); err != nil {
		return nil, err
	}
	s.StartedAt = fromMillis(started)
	if ended.Valid {
		t := fromMillis(ended.Int64)
		s.EndedAt = &t
	}
	return &s, nil
}

// ListSessions returns all sessions, newest first.
func (db *DB) ListSessions() ([]Session, error) {
	rows, err := db.Query(`SELECT ` + sessionColumns + ` FROM sessions ORDER BY started_at_ms DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

// GetSession returns one session or ErrSessionNotFound.
func (db *DB) GetSession(id string) (*Session, error) {
	s, err := scanSession(db.QueryRow(`SELECT `+sessionColumns+` FROM sessions WHERE session_id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	return s, err
}

// SessionSamples returns the samples of session id in frame order.
func (db *DB) SessionSamples(id string) ([]AngleSample, error) {
	rows, err := db.Query(
		`SELECT frame, captured_at_ms, l_elbow, r_elbow, l_knee, r_knee
		FROM angle_samples WHERE session_id = ? ORDER BY frame`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	samples := []AngleSample{}
	for rows.Next() {
		var (
			a     AngleSample
			frame int64
			at    int64
		)
		if err := rows.Scan(&frame, &at, &a.LElbow, &a.RElbow, &a.LKnee, &a.RKnee); err != nil {
			return nil, err
		}
		a.Frame = uint64(frame)
		a.CapturedAt = fromMillis(at)
		samples = append(samples, a)
	}
	return samples, rows.Err()
}

// DeleteSession removes a session and its samples. The CSV file is left
// on disk.
func (db *DB) DeleteSession(id string) error {
	res, err := db.Exec(`DELETE FROM sessions WHERE session_id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrSessionNotFound
	}
	return nil
}
