package report

import (
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/motion.report/internal/db"
)

var metricColors = []color.Color{
	color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 255},
	color.RGBA{R: 0xff, G: 0x7f, B: 0x0e, A: 255},
	color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 255},
	color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 255},
}

// NewAnglePlot builds a plot with one line per metric over frame index.
func NewAnglePlot(title string, samples []db.AngleSample) (*plot.Plot, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("no samples to plot")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Frame"
	p.Y.Label.Text = "Degrees"
	p.Add(plotter.NewGrid())

	for m, name := range db.MetricNames {
		pts := make(plotter.XYs, 0, len(samples))
		for _, s := range samples {
			pts = append(pts, plotter.XY{X: float64(s.Frame), Y: s.Degrees()[m]})
		}
		l, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("failed to build %s line: %w", name, err)
		}
		l.Color = metricColors[m%len(metricColors)]
		l.Width = vg.Points(1.5)
		p.Add(l)
		p.Legend.Add(name, l)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p, nil
}

// SaveAnglePlot writes the angle plot to path; the extension selects the format.
func SaveAnglePlot(samples []db.AngleSample, path string) error {
	p, err := NewAnglePlot("Joint angles", samples)
	if err != nil {
		return err
	}
	if err := p.Save(14*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save angle plot %s: %w", path, err)
	}
	return nil
}

// WriteAnglePlot renders the angle plot in format ("png", "svg", ...) to w.
func WriteAnglePlot(samples []db.AngleSample, format string, w io.Writer) error {
	p, err := NewAnglePlot("Joint angles", samples)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(14*vg.Inch, 6*vg.Inch, format)
	if err != nil {
		return fmt.Errorf("failed to render angle plot: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write angle plot: %w", err)
	}
	return nil
}
