package export

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/NVIDIA/fleet-telemetry/pkg/measurement"
	"github.com/NVIDIA/fleet-telemetry/pkg/persistency"
)

const timeLabelFormat = "15:04:05.000"

// series is the values of one device scope over time.
type series struct {
	name   string
	points map[int64]float64
}

// WriteChart renders one line chart per measurement type found in
// records, each with one series per device scope. Types without any
// value are left out.
func WriteChart(w io.Writer, title string, records []persistency.Record) error {
	page := components.NewPage()
	page.PageTitle = title

	byType := make(map[measurement.Type][]persistency.Record)
	var types []measurement.Type
	for _, r := range records {
		if _, ok := byType[r.Type]; !ok {
			types = append(types, r.Type)
		}
		byType[r.Type] = append(byType[r.Type], r)
	}
	sort.Slice(types, func(i, j int) bool { return types[i].Index() < types[j].Index() })

	for _, t := range types {
		if line := lineChart(t, byType[t]); line != nil {
			page.AddCharts(line)
		}
	}

	if err := page.Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

func lineChart(t measurement.Type, records []persistency.Record) *charts.Line {
	stamps, all := collect(records)
	if len(all) == 0 {
		return nil
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: t.DisplayName()}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", AxisLabel: &opts.AxisLabel{Rotate: 45}}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}),
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "400px"}),
	)

	labels := make([]string, 0, len(stamps))
	for _, ts := range stamps {
		labels = append(labels, time.Unix(0, ts).UTC().Format(timeLabelFormat))
	}
	line.SetXAxis(labels)

	for _, s := range all {
		data := make([]opts.LineData, 0, len(stamps))
		for _, ts := range stamps {
			if v, ok := s.points[ts]; ok {
				data = append(data, opts.LineData{Value: v})
			} else {
				data = append(data, opts.LineData{Value: nil})
			}
		}
		line.AddSeries(s.name, data,
			charts.WithLineChartOpts(opts.LineChart{ConnectNulls: opts.Bool(true), ShowSymbol: opts.Bool(false)}),
		)
	}
	return line
}

// collect returns the sorted unique timestamps and the series sorted by
// name. Records without a value are skipped.
func collect(records []persistency.Record) ([]int64, []*series) {
	byName := make(map[string]*series)
	seen := make(map[int64]struct{})
	for _, r := range records {
		v, ok := r.Float()
		if !ok {
			continue
		}
		name := r.DeviceID + " " + r.Scope
		s, ok := byName[name]
		if !ok {
			s = &series{name: name, points: make(map[int64]float64)}
			byName[name] = s
		}
		ts := r.Timestamp.UnixNano()
		s.points[ts] = v
		seen[ts] = struct{}{}
	}

	stamps := make([]int64, 0, len(seen))
	for ts := range seen {
		stamps = append(stamps, ts)
	}
	sort.Slice(stamps, func(i, j int) bool { return stamps[i] < stamps[j] })

	all := make([]*series, 0, len(byName))
	for _, s := range byName {
		all = append(all, s)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].name < all[j].name })
	return stamps, all
}
