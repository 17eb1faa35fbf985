package dashboard

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/couchcryptid/drought-dashboard/internal/domain"
)

// Control names accepted in events.
const (
	ControlDate          = "date"
	ControlLevel         = "level"
	ControlCounty        = "county"
	ControlBacktestState = "backtest_state"
	ControlForecastState = "forecast_state"
)

// View names produced by the dashboard.
const (
	ViewHeatmapTitle = "heatmap_title"
	ViewHeatmap      = "heatmap"
	ViewCountyTable  = "county_table"
	ViewBacktest     = "backtest"
	ViewForecast     = "forecast"
)

// dependencies is the declarative control -> view wiring. A view is
// recomputed when, and only when, one of its listed controls changes. Order
// here is render order.
var dependencies = []struct {
	view     string
	controls []string
}{
	{ViewHeatmapTitle, []string{ControlDate}},
	{ViewHeatmap, []string{ControlDate, ControlLevel}},
	{ViewCountyTable, []string{ControlCounty}},
	{ViewBacktest, []string{ControlBacktestState}},
	{ViewForecast, []string{ControlForecastState}},
}

// Views returns every view name in render order.
func Views() []string {
	out := make([]string, len(dependencies))
	for i, d := range dependencies {
		out[i] = d.view
	}
	return out
}

// ViewsFor returns the views that depend on control, in render order. Unknown
// controls affect nothing.
func ViewsFor(control string) []string {
	var out []string
	for _, d := range dependencies {
		for _, c := range d.controls {
			if c == control {
				out = append(out, d.view)
				break
			}
		}
	}
	return out
}

// DependsOn returns the controls view reads.
func DependsOn(view string) []string {
	for _, d := range dependencies {
		if d.view == view {
			return append([]string(nil), d.controls...)
		}
	}
	return nil
}

// Controls is the current value of every dashboard control.
type Controls struct {
	DateIndex     int          `json:"date_index"`
	Date          domain.Date  `json:"date"`
	Level         domain.Level `json:"level"`
	County        string       `json:"county"`
	BacktestState string       `json:"backtest_state"`
	ForecastState string       `json:"forecast_state"`
}

// apply sets control to value and reports whether anything changed. County
// values must name a county in data; state values are accepted as-is so a
// missing series surfaces on its own view.
func (c *Controls) apply(data *domain.Dataset, control, value string) (bool, error) {
	value = strings.TrimSpace(value)
	switch control {
	case ControlDate:
		idx, err := dateIndex(data, value)
		if err != nil {
			return false, err
		}
		if idx == c.DateIndex {
			return false, nil
		}
		date, _ := data.DateAt(idx)
		c.DateIndex, c.Date = idx, date
		return true, nil

	case ControlLevel:
		level, err := domain.ParseLevel(value)
		if err != nil {
			return false, fmt.Errorf("%w: %w", domain.ErrInvalidControlValue, err)
		}
		if level == c.Level {
			return false, nil
		}
		c.Level = level
		return true, nil

	case ControlCounty:
		if !data.HasCounty(value) {
			return false, fmt.Errorf("%w: unknown county %q", domain.ErrInvalidControlValue, value)
		}
		if value == c.County {
			return false, nil
		}
		c.County = value
		return true, nil

	case ControlBacktestState, ControlForecastState:
		if value == "" {
			return false, fmt.Errorf("%w: empty state", domain.ErrInvalidControlValue)
		}
		target := &c.BacktestState
		if control == ControlForecastState {
			target = &c.ForecastState
		}
		if value == *target {
			return false, nil
		}
		*target = value
		return true, nil

	default:
		return false, fmt.Errorf("%w: %q", domain.ErrUnknownControl, control)
	}
}

// dateIndex accepts a slider position or a release date. Values of eight or
// more characters are always dates, so compact YYYYMMDD input is not mistaken
// for a position.
func dateIndex(data *domain.Dataset, value string) (int, error) {
	if len(value) >= 8 {
		return releaseIndex(data, value)
	}
	if idx, err := strconv.Atoi(value); err == nil {
		if _, ok := data.DateAt(idx); !ok {
			return 0, fmt.Errorf("%w: slider position %d out of range", domain.ErrInvalidControlValue, idx)
		}
		return idx, nil
	}
	return releaseIndex(data, value)
}

func releaseIndex(data *domain.Dataset, value string) (int, error) {
	date, err := domain.ParseDate(value)
	if err != nil {
		return 0, errors.Join(domain.ErrInvalidControlValue, err)
	}
	idx := data.IndexOf(date)
	if idx < 0 {
		return 0, fmt.Errorf("%w: no release on %s", domain.ErrInvalidControlValue, date)
	}
	return idx, nil
}
