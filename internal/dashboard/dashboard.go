// Package dashboard holds the control state of the drought dashboard and
// recomputes only the views whose declared inputs change.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/couchcryptid/drought-dashboard/internal/domain"
	"github.com/couchcryptid/drought-dashboard/internal/observability"
	"github.com/couchcryptid/drought-dashboard/internal/viewcache"
)

const defaultState = "CA"

// SeriesSource enumerates regions and loads their model series.
type SeriesSource interface {
	Regions(ctx context.Context) ([]string, error)
	Load(ctx context.Context, region string) ([]domain.SeriesPoint, error)
}

// HeatmapCache memoizes heatmaps by selection key.
type HeatmapCache interface {
	GetOrBuild(ctx context.Context, key domain.SelectionKey, build viewcache.BuildFunc) (*domain.Heatmap, error)
}

// EventPublisher receives one event per applied control change.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.InteractionEvent) error
}

// Params wires a Dashboard. Publisher is optional.
type Params struct {
	Dataset      *domain.Dataset
	Cache        HeatmapCache
	Backtest     SeriesSource
	Forecast     SeriesSource
	Publisher    EventPublisher
	DefaultLevel domain.Level
	DefaultState string
	Logger       *slog.Logger
	Metrics      *observability.Metrics
}

// Dashboard owns the control state and renders views from the shared,
// immutable dataset.
type Dashboard struct {
	data      *domain.Dataset
	cache     HeatmapCache
	backtest  SeriesSource
	forecast  SeriesSource
	publisher EventPublisher
	logger    *slog.Logger
	metrics   *observability.Metrics
	tracer    trace.Tracer

	backtestRegions []string
	forecastRegions []string
	defaults        Controls

	mu       sync.Mutex
	controls Controls

	ready atomic.Bool
}

// New builds a Dashboard with every control at its default: the latest release
// date, the configured level, the alphabetically first county, and the
// configured state (falling back to the first available region).
func New(ctx context.Context, p Params) (*Dashboard, error) {
	if p.Dataset == nil {
		return nil, errors.New("dashboard: nil dataset")
	}
	if p.Cache == nil {
		return nil, errors.New("dashboard: nil heatmap cache")
	}
	if !p.DefaultLevel.Valid() {
		return nil, fmt.Errorf("dashboard: default level: %w", domain.ErrUnknownLevel)
	}
	if p.Logger == nil {
		p.Logger = slog.Default()
	}
	if p.Metrics == nil {
		p.Metrics = observability.NewMetricsForTesting()
	}
	if p.DefaultState == "" {
		p.DefaultState = defaultState
	}

	d := &Dashboard{
		data:      p.Dataset,
		cache:     p.Cache,
		backtest:  p.Backtest,
		forecast:  p.Forecast,
		publisher: p.Publisher,
		logger:    p.Logger,
		metrics:   p.Metrics,
		tracer:    otel.Tracer("github.com/couchcryptid/drought-dashboard/internal/dashboard"),
	}
	d.backtestRegions = d.listRegions(ctx, "backtest", p.Backtest)
	d.forecastRegions = d.listRegions(ctx, "forecast", p.Forecast)

	d.defaults = Controls{
		Level:         p.DefaultLevel,
		BacktestState: pickState(d.backtestRegions, p.DefaultState),
		ForecastState: pickState(d.forecastRegions, p.DefaultState),
	}
	if n := len(p.Dataset.Dates()); n > 0 {
		d.defaults.DateIndex = n - 1
		d.defaults.Date = p.Dataset.LatestDate()
	}
	if counties := p.Dataset.Counties(); len(counties) > 0 {
		d.defaults.County = counties[0]
	}
	d.controls = d.defaults

	return d, nil
}

func (d *Dashboard) listRegions(ctx context.Context, kind string, src SeriesSource) []string {
	if src == nil {
		return nil
	}
	regions, err := src.Regions(ctx)
	if err != nil {
		d.logger.Warn("list series regions failed", "kind", kind, "error", err)
		return nil
	}
	return regions
}

func pickState(regions []string, preferred string) string {
	if slices.Contains(regions, preferred) {
		return preferred
	}
	if len(regions) > 0 {
		return regions[0]
	}
	return preferred
}

// Warm builds the heatmap for the default selection so the first request is
// served from cache, and marks the dashboard ready.
func (d *Dashboard) Warm(ctx context.Context) error {
	if _, err := d.Heatmap(ctx, d.defaults.Date, d.defaults.Level); err != nil {
		return fmt.Errorf("warm default heatmap: %w", err)
	}
	d.ready.Store(true)
	return nil
}

// CheckReadiness returns nil once the default heatmap has been built.
func (d *Dashboard) CheckReadiness(_ context.Context) error {
	if !d.ready.Load() {
		return errors.New("default heatmap has not been built yet")
	}
	return nil
}

// Controls returns a snapshot of the current control values.
func (d *Dashboard) Controls() Controls {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.controls
}

// Defaults returns the control values the dashboard started with.
func (d *Dashboard) Defaults() Controls { return d.defaults }

// Boundaries returns the county boundary GeoJSON exactly as loaded.
func (d *Dashboard) Boundaries() []byte { return d.data.GeoJSON() }

// LevelOption is one entry of the intensity-level dropdown.
type LevelOption struct {
	Value domain.Level `json:"value"`
	Label string       `json:"label"`
}

// Options describes the domain of every control.
type Options struct {
	Dates           []domain.Date       `json:"dates"`
	Marks           map[int]string      `json:"marks"`
	Levels          []LevelOption       `json:"levels"`
	Counties        []string            `json:"counties"`
	BacktestRegions []string            `json:"backtest_regions"`
	ForecastRegions []string            `json:"forecast_regions"`
	Defaults        Controls            `json:"defaults"`
	Bounds          domain.Bounds       `json:"bounds"`
	Dependencies    map[string][]string `json:"dependencies"`
}

// Options returns the control domains and defaults.
func (d *Dashboard) Options() Options {
	dates := d.data.Dates()
	levels := make([]LevelOption, 0, domain.LevelCount)
	for _, l := range domain.Levels() {
		levels = append(levels, LevelOption{Value: l, Label: l.Label()})
	}
	return Options{
		Dates:           dates,
		Marks:           domain.SliderMarks(dates),
		Levels:          levels,
		Counties:        d.data.Counties(),
		BacktestRegions: slices.Clone(d.backtestRegions),
		ForecastRegions: slices.Clone(d.forecastRegions),
		Defaults:        d.defaults,
		Bounds:          d.data.Bounds(),
		Dependencies:    dependencyTable(),
	}
}

// dependencyTable maps each view to the controls it reads.
func dependencyTable() map[string][]string {
	out := make(map[string][]string, len(dependencies))
	for _, v := range Views() {
		out[v] = DependsOn(v)
	}
	return out
}

// Heatmap returns the choropleth for (date, level), building it at most once
// per process. A date with no release yields an empty map.
func (d *Dashboard) Heatmap(ctx context.Context, date domain.Date, level domain.Level) (*domain.Heatmap, error) {
	if !level.Valid() {
		return nil, domain.ErrUnknownLevel
	}
	key := domain.SelectionKey{Date: date, Level: level}
	if d.data.IndexOf(date) < 0 {
		// Dates without a release are not cached; they would grow the cache without bound.
		return d.buildHeatmap(ctx, key), nil
	}
	return d.cache.GetOrBuild(ctx, key, func(ctx context.Context) (*domain.Heatmap, error) {
		return d.buildHeatmap(ctx, key), nil
	})
}

func (d *Dashboard) buildHeatmap(ctx context.Context, key domain.SelectionKey) *domain.Heatmap {
	_, span := d.tracer.Start(ctx, "heatmap.build", trace.WithAttributes(
		attribute.String("date", key.Date.String()),
		attribute.String("level", key.Level.String()),
	))
	defer span.End()

	start := time.Now()
	selection := domain.NormalizeAll(d.data.Resolve(key.Date, key.Level), key.Level)
	h, unmatched := domain.BuildHeatmap(key, d.data, selection)
	d.metrics.HeatmapBuildDuration.Observe(time.Since(start).Seconds())

	if len(unmatched) > 0 {
		d.metrics.UnmatchedCounties.Add(float64(len(unmatched)))
		d.logger.Debug("heatmap counties without boundary dropped",
			"key", key.String(), "count", len(unmatched))
	}
	span.SetAttributes(attribute.Int("counties", len(h.Locations)))
	return h
}

// CountyTable returns the detail table for county. A county with no records
// yields an empty table.
func (d *Dashboard) CountyTable(county string) domain.CountyTable {
	return domain.BuildCountyTable(d.data.CountyRecords(county), county)
}

// Backtest returns the training and back-testing chart for region.
func (d *Dashboard) Backtest(ctx context.Context, region string) (domain.LineChart, error) {
	return d.lineChart(ctx, d.backtest, domain.BacktestTitle, region)
}

// Forecast returns the future forecast chart for region.
func (d *Dashboard) Forecast(ctx context.Context, region string) (domain.LineChart, error) {
	return d.lineChart(ctx, d.forecast, domain.ForecastTitle, region)
}

func (d *Dashboard) lineChart(ctx context.Context, src SeriesSource, title, region string) (domain.LineChart, error) {
	if src == nil {
		return domain.LineChart{}, fmt.Errorf("%s %q: %w", title, region, domain.ErrRegionNotFound)
	}
	points, err := src.Load(ctx, region)
	if err != nil {
		return domain.LineChart{}, fmt.Errorf("load %q series: %w", region, err)
	}
	return domain.BuildLineChart(title, region, points), nil
}

// ViewResult is one rendered view. Exactly one of Payload and Error is set.
type ViewResult struct {
	View    string `json:"view"`
	Payload any    `json:"payload,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Update is the outcome of a render or dispatch: the control snapshot the
// views were computed from and the views themselves.
type Update struct {
	Controls Controls     `json:"controls"`
	Views    []ViewResult `json:"views"`
}

// Render computes every view from the current controls.
func (d *Dashboard) Render(ctx context.Context) Update {
	snapshot := d.Controls()
	return Update{Controls: snapshot, Views: d.renderViews(ctx, Views(), snapshot)}
}

// renderViews computes views concurrently from one snapshot. A failing view
// is reported in its own result and does not affect the others.
func (d *Dashboard) renderViews(ctx context.Context, views []string, c Controls) []ViewResult {
	results := make([]ViewResult, len(views))
	var wg sync.WaitGroup
	for i, view := range views {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = d.renderView(ctx, view, c)
		}()
	}
	wg.Wait()
	return results
}

func (d *Dashboard) renderView(ctx context.Context, view string, c Controls) ViewResult {
	d.metrics.ViewRenders.WithLabelValues(view).Inc()

	payload, err := d.computeView(ctx, view, c)
	if err != nil {
		d.metrics.ViewErrors.WithLabelValues(view).Inc()
		d.logger.Warn("view render failed", "view", view, "error", err)
		return ViewResult{View: view, Error: err.Error()}
	}
	return ViewResult{View: view, Payload: payload}
}

func (d *Dashboard) computeView(ctx context.Context, view string, c Controls) (any, error) {
	switch view {
	case ViewHeatmapTitle:
		return domain.HeatmapTitle(c.Date), nil
	case ViewHeatmap:
		return d.Heatmap(ctx, c.Date, c.Level)
	case ViewCountyTable:
		return d.CountyTable(c.County), nil
	case ViewBacktest:
		return d.Backtest(ctx, c.BacktestState)
	case ViewForecast:
		return d.Forecast(ctx, c.ForecastState)
	default:
		return nil, fmt.Errorf("unknown view %q", view)
	}
}
