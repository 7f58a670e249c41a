package report

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/motion.report/internal/db"
)

// EchartsAssetsHost is where rendered pages load the echarts runtime from.
var EchartsAssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

// AngleChartHTML renders one line per angle metric over frame index.
func AngleChartHTML(session *db.Session, samples []db.AngleSample, w io.Writer) error {
	if session == nil {
		return fmt.Errorf("nil session")
	}

	frames := make([]uint64, len(samples))
	series := make([][]opts.LineData, len(db.MetricNames))
	for i := range series {
		series[i] = make([]opts.LineData, 0, len(samples))
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for i, s := range samples {
		frames[i] = s.Frame
		for m, deg := range s.Degrees() {
			series[m] = append(series[m], opts.LineData{Value: deg})
			lo = math.Min(lo, deg)
			hi = math.Max(hi, deg)
		}
	}
	if len(samples) == 0 {
		lo, hi = 0, 180
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Joint angles", Theme: "dark", Width: "100%", Height: "640px", AssetsHost: EchartsAssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: "Joint angles", Subtitle: fmt.Sprintf("session=%s rows=%d", session.ID, len(samples))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Frame", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Degrees", NameLocation: "middle", NameGap: 35, Min: math.Floor(lo), Max: math.Ceil(hi)}),
	)
	line.SetXAxis(frames)
	for m, name := range db.MetricNames {
		line.AddSeries(name, series[m])
	}
	line.SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}))

	if err := line.Render(w); err != nil {
		return fmt.Errorf("failed to render angle chart: %w", err)
	}
	return nil
}
