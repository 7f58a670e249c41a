package report

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/motion.report/internal/db"
)

func sampleRows(n int) []db.AngleSample {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	out := make([]db.AngleSample, n)
	for i := range out {
		out[i] = db.AngleSample{
			Frame:      uint64(i + 1),
			CapturedAt: base.Add(time.Duration(i) * 33 * time.Millisecond),
			LElbow:     90 + float64(i),
			RElbow:     120 - float64(i),
			LKnee:      170,
			RKnee:      165.5,
		}
	}
	return out
}

func TestAngleChartHTML(t *testing.T) {
	var buf bytes.Buffer
	s := &db.Session{ID: "abc-123"}
	require.NoError(t, AngleChartHTML(s, sampleRows(10), &buf))

	html := buf.String()
	assert.Contains(t, html, "Joint angles")
	assert.Contains(t, html, "abc-123")
	for _, name := range db.MetricNames {
		assert.Contains(t, html, name)
	}
}

func TestAngleChartHTML_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, AngleChartHTML(&db.Session{ID: "empty"}, nil, &buf))
	assert.Contains(t, buf.String(), "rows=0")
}

func TestAngleChartHTML_NilSession(t *testing.T) {
	assert.Error(t, AngleChartHTML(nil, sampleRows(1), &bytes.Buffer{}))
}

func TestSaveAnglePlot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "angles.png")
	require.NoError(t, SaveAnglePlot(sampleRows(30), path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Greater(t, img.Bounds().Dx(), img.Bounds().Dy())
}

func TestNewAnglePlot_NoSamples(t *testing.T) {
	_, err := NewAnglePlot("x", nil)
	assert.Error(t, err)
}

func TestNewAnglePlot_Legend(t *testing.T) {
	p, err := NewAnglePlot("Session", sampleRows(5))
	require.NoError(t, err)
	assert.Equal(t, "Session", p.Title.Text)
	assert.Equal(t, "Frame", p.X.Label.Text)
}

func TestWriteAnglePlot(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteAnglePlot(sampleRows(8), "png", &buf))
	_, err := png.Decode(&buf)
	require.NoError(t, err)

	assert.Error(t, WriteAnglePlot(sampleRows(8), "bogus", &bytes.Buffer{}))
}
