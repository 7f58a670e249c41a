package db

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

var t0 = time.Date(2024, 5, 2, 10, 30, 0, 0, time.UTC)

func TestNewDB_AppliesPragmasAndMigrations(t *testing.T) {
	db := newTestDB(t)

	var journalMode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	assert.Equal(t, "wal", journalMode)

	var busyTimeout, foreignKeys int
	require.NoError(t, db.QueryRow("PRAGMA busy_timeout").Scan(&busyTimeout))
	require.NoError(t, db.QueryRow("PRAGMA foreign_keys").Scan(&foreignKeys))
	assert.Equal(t, 5000, busyTimeout)
	assert.Equal(t, 1, foreignKeys)

	version, dirty, err := db.MigrateVersion()
	require.NoError(t, err)
	assert.False(t, dirty)
	latest, err := LatestMigrationVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(2), latest)
	assert.Equal(t, latest, version)
}

func TestNewDB_ReopenIsNoOp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.db")
	db, err := NewDB(path)
	require.NoError(t, err)
	require.NoError(t, db.BeginSession("a", "a.csv", t0, 0.5))
	require.NoError(t, db.Close())

	db, err = NewDB(path)
	require.NoError(t, err)
	defer db.Close()
	sessions, err := db.ListSessions()
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
	assert.Equal(t, path, db.Path())
}

func TestSessions_Lifecycle(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, db.BeginSession("s1", "rec/Rehab_Data_20240502_103000.csv", t0, 0.5))
	require.NoError(t, db.RecordSample("s1", 3, t0.Add(100*time.Millisecond), []float64{90, 170.5, 178, 179.9}))
	require.NoError(t, db.RecordSample("s1", 1, t0.Add(33*time.Millisecond), []float64{91, 171, 177, 180}))

	s, err := db.GetSession("s1")
	require.NoError(t, err)
	assert.True(t, s.Active())
	assert.Equal(t, t0, s.StartedAt)

	require.NoError(t, db.EndSession("s1", t0.Add(time.Minute), 2))
	s, err = db.GetSession("s1")
	require.NoError(t, err)
	assert.False(t, s.Active())

	end := t0.Add(time.Minute)
	want := &Session{
		ID:              "s1",
		StartedAt:       t0,
		EndedAt:         &end,
		CSVPath:         "rec/Rehab_Data_20240502_103000.csv",
		SmoothingFactor: 0.5,
		RowsWritten:     2,
	}
	if diff := cmp.Diff(want, s); diff != "" {
		t.Errorf("session mismatch (-want +got):\n%s", diff)
	}

	samples, err := db.SessionSamples("s1")
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.Equal(t, uint64(1), samples[0].Frame, "ordered by frame")
	assert.Equal(t, []float64{90, 170.5, 178, 179.9}, samples[1].Degrees())
	assert.Equal(t, t0.Add(100*time.Millisecond), samples[1].CapturedAt)
}

func TestSessions_ListNewestFirst(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.BeginSession("old", "old.csv", t0, 0.5))
	require.NoError(t, db.BeginSession("new", "new.csv", t0.Add(time.Hour), 0.3))

	sessions, err := db.ListSessions()
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "new", sessions[0].ID)
	assert.Equal(t, "old", sessions[1].ID)
}

func TestSessions_EmptyListsAreNotNil(t *testing.T) {
	db := newTestDB(t)
	sessions, err := db.ListSessions()
	require.NoError(t, err)
	assert.NotNil(t, sessions)

	samples, err := db.SessionSamples("none")
	require.NoError(t, err)
	assert.NotNil(t, samples)
}

func TestSessions_Errors(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetSession("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, db.EndSession("missing", t0, 0), ErrSessionNotFound)
	assert.ErrorIs(t, db.SetSessionNotes("missing", "x"), ErrSessionNotFound)
	assert.ErrorIs(t, db.DeleteSession("missing"), ErrSessionNotFound)

	// Samples need an existing session.
	assert.Error(t, db.RecordSample("missing", 1, t0, []float64{1, 2, 3, 4}))

	require.NoError(t, db.BeginSession("s1", "a.csv", t0, 0.5))
	assert.Error(t, db.BeginSession("s1", "a.csv", t0, 0.5), "duplicate id")
	assert.Error(t, db.RecordSample("s1", 1, t0, []float64{1, 2}))
	require.NoError(t, db.RecordSample("s1", 1, t0, []float64{1, 2, 3, 4}))
	assert.Error(t, db.RecordSample("s1", 1, t0, []float64{1, 2, 3, 4}), "duplicate frame")
}

func TestSessions_NotesAndDelete(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.BeginSession("s1", "a.csv", t0, 0.5))
	require.NoError(t, db.RecordSample("s1", 1, t0, []float64{1, 2, 3, 4}))

	require.NoError(t, db.SetSessionNotes("s1", "left knee post-op week 3"))
	s, err := db.GetSession("s1")
	require.NoError(t, err)
	assert.Equal(t, "left knee post-op week 3", s.Notes)

	require.NoError(t, db.DeleteSession("s1"))
	_, err = db.GetSession("s1")
	assert.True(t, errors.Is(err, ErrSessionNotFound))

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM angle_samples").Scan(&n))
	assert.Equal(t, 0, n, "samples cascade with their session")
}

func TestMigrateDownAndUp(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, db.MigrateDown())
	version, _, err := db.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)

	// Version 1 has no notes column.
	_, err = db.Exec(`UPDATE sessions SET notes = 'x'`)
	assert.Error(t, err)

	require.NoError(t, db.MigrateUp())
	version, _, err = db.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
}

func TestRunMigrateCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.db")

	var out bytes.Buffer
	require.NoError(t, RunMigrateCommand([]string{"status"}, path, &out))
	assert.Equal(t, "schema version 0 of 2\n", out.String())

	out.Reset()
	require.NoError(t, RunMigrateCommand([]string{"up"}, path, &out))
	assert.Equal(t, "schema version 2 of 2\n", out.String())

	out.Reset()
	require.NoError(t, RunMigrateCommand([]string{"down"}, path, &out))
	assert.Equal(t, "schema version 1 of 2\n", out.String())

	out.Reset()
	assert.Error(t, RunMigrateCommand(nil, path, &out))
	assert.Contains(t, out.String(), "Usage")
	assert.Error(t, RunMigrateCommand([]string{"sideways"}, path, &out))
	assert.Error(t, RunMigrateCommand([]string{"force"}, path, &out))
	assert.Error(t, RunMigrateCommand([]string{"force", "x"}, path, &out))
}

func TestAttachAdminRoutes(t *testing.T) {
	db := newTestDB(t)
	mux := http.NewServeMux()
	require.NoError(t, db.AttachAdminRoutes(mux))

	for _, path := range []string{"/debug/", "/debug/tailsql/", "/debug/backup"} {
		t.Run(path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, path, nil)
			req.RemoteAddr = "127.0.0.1:54321"
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			// Access control may reject the request, but the route must exist.
			assert.NotEqual(t, http.StatusNotFound, w.Code)
		})
	}
}
