// Command session-plot renders the joint angles of a recorded session as a
// PNG (gonum/plot) or an HTML chart (go-echarts). The session is read from
// the session database or straight from its CSV file.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/banshee-data/motion.report/internal/db"
	"github.com/banshee-data/motion.report/internal/recorder"
	"github.com/banshee-data/motion.report/internal/report"
	"github.com/banshee-data/motion.report/internal/security"
)

func main() {
	dbPath := flag.String("db", "sessions.db", "session database")
	sessionID := flag.String("session", "", "session id (default: most recent)")
	csvPath := flag.String("csv", "", "read a recording CSV instead of the database")
	output := flag.String("o", "", "output file; .png or .html (default: <session>.png)")
	flag.Parse()

	var (
		session *db.Session
		samples []db.AngleSample
		err     error
	)
	if *csvPath != "" {
		session, samples, err = loadCSV(*csvPath)
	} else {
		session, samples, err = loadDB(*dbPath, *sessionID)
	}
	if err != nil {
		log.Fatal(err)
	}

	out := *output
	if out == "" {
		out = security.SanitizeFilename(session.ID) + ".png"
	}
	if err := security.ValidateOutputPath(out); err != nil {
		log.Fatalf("Refusing to write %s: %v", out, err)
	}
	if err := render(session, samples, out); err != nil {
		log.Fatal(err)
	}
	log.Printf("✓ Wrote %d samples of session %s to %s", len(samples), session.ID, out)
}

func render(session *db.Session, samples []db.AngleSample, out string) error {
	if strings.EqualFold(filepath.Ext(out), ".html") {
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		if err := report.AngleChartHTML(session, samples, f); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}
	return report.SaveAnglePlot(samples, out)
}

func loadDB(path, id string) (*db.Session, []db.AngleSample, error) {
	database, err := db.NewDB(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open session database: %w", err)
	}
	defer database.Close()

	if id == "" {
		sessions, err := database.ListSessions()
		if err != nil {
			return nil, nil, err
		}
		if len(sessions) == 0 {
			return nil, nil, errors.New("no sessions recorded")
		}
		id = sessions[0].ID
	}
	session, err := database.GetSession(id)
	if err != nil {
		return nil, nil, fmt.Errorf("session %s: %w", id, err)
	}
	samples, err := database.SessionSamples(id)
	if err != nil {
		return nil, nil, err
	}
	return session, samples, nil
}

// loadCSV reads a recording file. Only the standard four metrics are
// supported, in their CSV order.
func loadCSV(path string) (*db.Session, []db.AngleSample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	metrics, rows, err := recorder.ReadAll(f)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if strings.Join(metrics, ",") != strings.Join(db.MetricNames, ",") {
		return nil, nil, fmt.Errorf("unsupported metric columns %v", metrics)
	}

	samples := make([]db.AngleSample, 0, len(rows))
	for _, r := range rows {
		samples = append(samples, db.AngleSample{
			Frame:  r.Frame,
			LElbow: r.Degrees[0],
			RElbow: r.Degrees[1],
			LKnee:  r.Degrees[2],
			RKnee:  r.Degrees[3],
		})
	}
	id := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return &db.Session{ID: id, CSVPath: path, RowsWritten: len(rows)}, samples, nil
}
