package domain

import (
	"sort"
	"strconv"
)

const (
	// BacktestTitle titles the training and back-testing chart.
	BacktestTitle = "Training and back-testing"
	// ForecastTitle titles the future forecast chart.
	ForecastTitle = "Future forecast"
)

// SeriesPoint is one row of a region's backtest or forecast series.
type SeriesPoint struct {
	ValidStart Date    `json:"valid_start"`
	Value      float64 `json:"value"`
	Type       string  `json:"type"` // e.g. "actual", "predicted"
}

// LinePoint is one plotted (x, y) pair.
type LinePoint struct {
	X Date    `json:"x"`
	Y float64 `json:"y"`
}

// LineSeries is one colored line, named after the series type.
type LineSeries struct {
	Name   string      `json:"name"`
	Points []LinePoint `json:"points"`
}

// LineChart is a renderable multi-line time-series chart.
type LineChart struct {
	Title  string       `json:"title"`
	Region string       `json:"region"`
	XField string       `json:"x_field"`
	YField string       `json:"y_field"`
	Series []LineSeries `json:"series"`
}

// BuildLineChart sorts points ascending by ValidStart and splits them into one
// line per Type, ordered by each type's first appearance after sorting.
func BuildLineChart(title, region string, points []SeriesPoint) LineChart {
	sorted := append([]SeriesPoint(nil), points...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ValidStart.Before(sorted[j].ValidStart)
	})

	chart := LineChart{
		Title:  title,
		Region: region,
		XField: "ValidStart",
		YField: "value",
		Series: make([]LineSeries, 0),
	}
	index := make(map[string]int)
	for _, p := range sorted {
		i, ok := index[p.Type]
		if !ok {
			i = len(chart.Series)
			index[p.Type] = i
			chart.Series = append(chart.Series, LineSeries{Name: p.Type})
		}
		chart.Series[i].Points = append(chart.Series[i].Points, LinePoint{X: p.ValidStart, Y: p.Value})
	}
	return chart
}

func formatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
