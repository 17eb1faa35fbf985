package dashboard_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/drought-dashboard/internal/dashboard"
	"github.com/couchcryptid/drought-dashboard/internal/domain"
	"github.com/couchcryptid/drought-dashboard/internal/observability"
	"github.com/couchcryptid/drought-dashboard/internal/viewcache"
)

// --- fakes ---

type fakeSeries struct {
	points map[string][]domain.SeriesPoint
	mu     sync.Mutex
	loads  map[string]int
}

func newFakeSeries(regions ...string) *fakeSeries {
	f := &fakeSeries{points: make(map[string][]domain.SeriesPoint), loads: make(map[string]int)}
	for i, r := range regions {
		f.points[r] = []domain.SeriesPoint{
			{ValidStart: domain.Date{Year: 2020, Month: time.February, Day: 1}, Value: float64(i) + 2, Type: "predicted"},
			{ValidStart: domain.Date{Year: 2020, Month: time.January, Day: 1}, Value: float64(i) + 1, Type: "actual"},
		}
	}
	return f
}

func (f *fakeSeries) Regions(_ context.Context) ([]string, error) {
	var out []string
	for r := range f.points {
		out = append(out, r)
	}
	// Sorted, as the directory source returns them.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j] < out[j-1]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out, nil
}

func (f *fakeSeries) Load(_ context.Context, region string) ([]domain.SeriesPoint, error) {
	f.mu.Lock()
	f.loads[region]++
	f.mu.Unlock()
	p, ok := f.points[region]
	if !ok {
		return nil, fmt.Errorf("series %q: %w", region, domain.ErrRegionNotFound)
	}
	return p, nil
}

func (f *fakeSeries) loadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.loads {
		n += c
	}
	return n
}

// countingCache counts how many heatmap builds actually run.
type countingCache struct {
	inner  *viewcache.Cache
	builds atomic.Int32
}

func (c *countingCache) GetOrBuild(ctx context.Context, key domain.SelectionKey, build viewcache.BuildFunc) (*domain.Heatmap, error) {
	return c.inner.GetOrBuild(ctx, key, func(ctx context.Context) (*domain.Heatmap, error) {
		c.builds.Add(1)
		return build(ctx)
	})
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.InteractionEvent
}

func (p *recordingPublisher) Publish(_ context.Context, e domain.InteractionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

// --- fixtures ---

var (
	sep1 = domain.Date{Year: 2020, Month: time.September, Day: 1}
	sep8 = domain.Date{Year: 2020, Month: time.September, Day: 8}
)

func testDataset() *domain.Dataset {
	rec := func(fips, county, state string, release domain.Date, in domain.Intensities) domain.DroughtRecord {
		return domain.DroughtRecord{
			FIPS: fips, County: county, State: state, ReleaseDate: release,
			ValidStart: domain.DateOf(release.Time().AddDate(0, 0, -9)),
			ValidEnd:   domain.DateOf(release.Time().AddDate(0, 0, -3)),
			Intensity:  in,
		}
	}
	records := []domain.DroughtRecord{
		rec("06001", "Alameda County", "CA", sep1, domain.Intensities{None: 55, D0: 45, D1: 20, D2: 5}),
		rec("06003", "Alpine County", "CA", sep1, domain.Intensities{None: 100}),
		rec("48201", "Harris County", "TX", sep1, domain.Intensities{None: 10, D0: 90, D1: 60}),
		rec("06001", "Alameda County", "CA", sep8, domain.Intensities{None: 40, D0: 60, D1: 30}),
		rec("06003", "Alpine County", "CA", sep8, domain.Intensities{None: 90, D0: 10}),
	}
	boundaries := []domain.CountyBoundary{
		{FIPS: "06001", Bounds: domain.Bounds{South: 37, West: -122, North: 38, East: -121}},
		{FIPS: "06003", Bounds: domain.Bounds{South: 38, West: -120, North: 39, East: -119}},
	}
	return domain.NewDataset(records, boundaries, []byte(`{"type":"FeatureCollection","features":[]}`))
}

type harness struct {
	dash      *dashboard.Dashboard
	cache     *countingCache
	backtest  *fakeSeries
	forecast  *fakeSeries
	publisher *recordingPublisher
	metrics   *observability.Metrics
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		cache:     &countingCache{inner: viewcache.New(nil)},
		backtest:  newFakeSeries("CA", "TX"),
		forecast:  newFakeSeries("AZ", "CA"),
		publisher: &recordingPublisher{},
		metrics:   observability.NewMetricsForTesting(),
	}
	dash, err := dashboard.New(context.Background(), dashboard.Params{
		Dataset:      testDataset(),
		Cache:        h.cache,
		Backtest:     h.backtest,
		Forecast:     h.forecast,
		Publisher:    h.publisher,
		DefaultLevel: domain.LevelD0,
		DefaultState: "CA",
		Metrics:      h.metrics,
	})
	require.NoError(t, err)
	h.dash = dash
	return h
}

func viewNames(results []dashboard.ViewResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.View
	}
	return out
}

func findView(t *testing.T, results []dashboard.ViewResult, view string) dashboard.ViewResult {
	t.Helper()
	for _, r := range results {
		if r.View == view {
			return r
		}
	}
	t.Fatalf("view %q not rendered", view)
	return dashboard.ViewResult{}
}

// --- tests ---

func TestViewsFor(t *testing.T) {
	tests := []struct {
		control string
		want    []string
	}{
		{dashboard.ControlDate, []string{dashboard.ViewHeatmapTitle, dashboard.ViewHeatmap}},
		{dashboard.ControlLevel, []string{dashboard.ViewHeatmap}},
		{dashboard.ControlCounty, []string{dashboard.ViewCountyTable}},
		{dashboard.ControlBacktestState, []string{dashboard.ViewBacktest}},
		{dashboard.ControlForecastState, []string{dashboard.ViewForecast}},
		{"unknown", nil},
	}
	for _, tt := range tests {
		t.Run(tt.control, func(t *testing.T) {
			assert.Equal(t, tt.want, dashboard.ViewsFor(tt.control))
		})
	}
	assert.Equal(t, []string{dashboard.ControlDate, dashboard.ControlLevel}, dashboard.DependsOn(dashboard.ViewHeatmap))
	assert.Len(t, dashboard.Views(), 5)
}

func TestNew_Defaults(t *testing.T) {
	h := newHarness(t)

	c := h.dash.Controls()
	assert.Equal(t, 1, c.DateIndex)
	assert.Equal(t, sep8, c.Date)
	assert.Equal(t, domain.LevelD0, c.Level)
	assert.Equal(t, "Alameda County", c.County)
	assert.Equal(t, "CA", c.BacktestState)
	assert.Equal(t, "CA", c.ForecastState)
}

func TestNew_StateFallsBackToFirstRegion(t *testing.T) {
	dash, err := dashboard.New(context.Background(), dashboard.Params{
		Dataset:      testDataset(),
		Cache:        viewcache.New(nil),
		Backtest:     newFakeSeries("TX", "NM"),
		Forecast:     newFakeSeries(),
		DefaultLevel: domain.LevelD0,
	})
	require.NoError(t, err)

	c := dash.Controls()
	assert.Equal(t, "NM", c.BacktestState)
	assert.Equal(t, "CA", c.ForecastState, "no regions keeps the preferred state")
}

func TestNew_RejectsInvalidParams(t *testing.T) {
	_, err := dashboard.New(context.Background(), dashboard.Params{Cache: viewcache.New(nil)})
	require.Error(t, err)

	_, err = dashboard.New(context.Background(), dashboard.Params{Dataset: testDataset(), Cache: viewcache.New(nil), DefaultLevel: domain.Level(9)})
	require.ErrorIs(t, err, domain.ErrUnknownLevel)
}

func TestOptions(t *testing.T) {
	h := newHarness(t)

	opts := h.dash.Options()
	assert.Equal(t, []domain.Date{sep1, sep8}, opts.Dates)
	assert.Equal(t, map[int]string{0: "2020-09-01", 1: "2020-09-08"}, opts.Marks)
	require.Len(t, opts.Levels, 6)
	assert.Equal(t, "Drought %", opts.Levels[0].Label)
	assert.Equal(t, []string{"Alameda County", "Alpine County", "Harris County"}, opts.Counties)
	assert.Equal(t, []string{"CA", "TX"}, opts.BacktestRegions)
	assert.Equal(t, []string{"AZ", "CA"}, opts.ForecastRegions)
	assert.Equal(t, h.dash.Controls(), opts.Defaults)

	assert.InDelta(t, 37.0, opts.Bounds.South, 1e-6)
	assert.InDelta(t, 39.0, opts.Bounds.North, 1e-6)
	assert.InDelta(t, -122.0, opts.Bounds.West, 1e-6)
	assert.InDelta(t, -119.0, opts.Bounds.East, 1e-6)

	assert.Len(t, opts.Dependencies, len(dashboard.Views()))
	assert.Equal(t, []string{dashboard.ControlDate, dashboard.ControlLevel}, opts.Dependencies[dashboard.ViewHeatmap])
	assert.Equal(t, []string{dashboard.ControlCounty}, opts.Dependencies[dashboard.ViewCountyTable])
}

func TestHeatmap_DateWithoutReleaseIsNotCached(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.dash.Warm(ctx))
	entries := h.cache.inner.Len()
	builds := h.cache.builds.Load()

	for day := 1; day <= 28; day++ {
		date := domain.Date{Year: 1900, Month: time.February, Day: day}
		hm, err := h.dash.Heatmap(ctx, date, domain.LevelD1)
		require.NoError(t, err)
		assert.Empty(t, hm.Locations)
	}

	assert.Equal(t, entries, h.cache.inner.Len())
	assert.Equal(t, builds, h.cache.builds.Load())
}

func TestRender_AllViews(t *testing.T) {
	h := newHarness(t)

	update := h.dash.Render(context.Background())
	assert.Equal(t, dashboard.Views(), viewNames(update.Views))
	for _, v := range update.Views {
		assert.Empty(t, v.Error, v.View)
	}

	assert.Equal(t, "Heatmap on 2020-09-08", findView(t, update.Views, dashboard.ViewHeatmapTitle).Payload)

	hm, ok := findView(t, update.Views, dashboard.ViewHeatmap).Payload.(*domain.Heatmap)
	require.True(t, ok)
	v, ok := hm.Value("06001")
	require.True(t, ok)
	assert.Equal(t, 60.0, v)

	table, ok := findView(t, update.Views, dashboard.ViewCountyTable).Payload.(domain.CountyTable)
	require.True(t, ok)
	assert.Len(t, table.Rows, 2)

	chart, ok := findView(t, update.Views, dashboard.ViewBacktest).Payload.(domain.LineChart)
	require.True(t, ok)
	assert.Equal(t, "CA", chart.Region)
	assert.Equal(t, domain.BacktestTitle, chart.Title)
}

func TestDispatch_LevelRebuildsOnlyHeatmap(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.dash.Render(ctx)
	tableRenders := testutil.ToFloat64(h.metrics.ViewRenders.WithLabelValues(dashboard.ViewCountyTable))

	update, err := h.dash.Dispatch(ctx, dashboard.Event{Control: dashboard.ControlLevel, Value: "NONE"})
	require.NoError(t, err)

	assert.Equal(t, []string{dashboard.ViewHeatmap}, viewNames(update.Views))
	assert.Equal(t, domain.LevelNone, update.Controls.Level)
	assert.Equal(t, tableRenders, testutil.ToFloat64(h.metrics.ViewRenders.WithLabelValues(dashboard.ViewCountyTable)))

	hm := update.Views[0].Payload.(*domain.Heatmap)
	v, ok := hm.Value("06001")
	require.True(t, ok)
	// NONE is shown inverted on the map (100 - NONE), so a raw 40 displays as 60.
	assert.Equal(t, 60.0, v, "NONE=40 displays as 100-40")
}

func TestDispatch_NoneAndD0OnSameDate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.dash.Dispatch(ctx, dashboard.Event{Control: dashboard.ControlDate, Value: "2020-09-01"})
	require.NoError(t, err)

	update, err := h.dash.Dispatch(ctx, dashboard.Event{Control: dashboard.ControlLevel, Value: "none"})
	require.NoError(t, err)
	v, _ := update.Views[0].Payload.(*domain.Heatmap).Value("06001")
	// NONE is shown inverted (100 - NONE), so Alameda's raw 55 displays as 45.
	assert.Equal(t, 45.0, v)

	update, err = h.dash.Dispatch(ctx, dashboard.Event{Control: dashboard.ControlLevel, Value: "D0"})
	require.NoError(t, err)
	hm := update.Views[0].Payload.(*domain.Heatmap)
	v, _ = hm.Value("06001")
	assert.Equal(t, 45.0, v)

	_, ok := hm.Value("48201")
	assert.False(t, ok, "county without boundary is dropped")
	assert.Equal(t, 1, hm.Unmatched)
}

func TestDispatch_BacktestStateSwitch(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	before := h.dash.Render(ctx)
	builds := h.cache.builds.Load()
	forecastLoads := h.forecast.loadCount()

	update, err := h.dash.Dispatch(ctx, dashboard.Event{Control: dashboard.ControlBacktestState, Value: "TX"})
	require.NoError(t, err)

	assert.Equal(t, []string{dashboard.ViewBacktest}, viewNames(update.Views))
	chart := update.Views[0].Payload.(domain.LineChart)
	assert.Equal(t, "TX", chart.Region)
	require.Len(t, chart.Series, 2)
	assert.Equal(t, "actual", chart.Series[0].Name)

	assert.Equal(t, builds, h.cache.builds.Load(), "heatmap not rebuilt")
	assert.Equal(t, forecastLoads, h.forecast.loadCount(), "forecast not reloaded")

	after := h.dash.Render(ctx)
	assert.Same(t,
		findView(t, before.Views, dashboard.ViewHeatmap).Payload.(*domain.Heatmap),
		findView(t, after.Views, dashboard.ViewHeatmap).Payload.(*domain.Heatmap))
	assert.Equal(t,
		findView(t, before.Views, dashboard.ViewForecast).Payload,
		findView(t, after.Views, dashboard.ViewForecast).Payload)
}

func TestDispatch_UnchangedValueRecomputesNothing(t *testing.T) {
	h := newHarness(t)

	update, err := h.dash.Dispatch(context.Background(), dashboard.Event{Control: dashboard.ControlCounty, Value: "Alameda County"})
	require.NoError(t, err)
	assert.Empty(t, update.Views)
	assert.Empty(t, h.publisher.events)
}

func TestDispatch_DateBySliderPosition(t *testing.T) {
	h := newHarness(t)

	update, err := h.dash.Dispatch(context.Background(), dashboard.Event{Control: dashboard.ControlDate, Value: "0"})
	require.NoError(t, err)

	assert.Equal(t, sep1, update.Controls.Date)
	assert.Equal(t, []string{dashboard.ViewHeatmapTitle, dashboard.ViewHeatmap}, viewNames(update.Views))
	assert.Equal(t, "Heatmap on 2020-09-01", update.Views[0].Payload)
}

func TestDispatch_DateByCompactRelease(t *testing.T) {
	h := newHarness(t)

	update, err := h.dash.Dispatch(context.Background(), dashboard.Event{Control: dashboard.ControlDate, Value: "20200901"})
	require.NoError(t, err)

	assert.Equal(t, sep1, update.Controls.Date)
	assert.Equal(t, 0, update.Controls.DateIndex)
}

func TestDispatch_InvalidEvents(t *testing.T) {
	tests := []struct {
		name  string
		event dashboard.Event
		want  error
	}{
		{"unknown control", dashboard.Event{Control: "colour", Value: "red"}, domain.ErrUnknownControl},
		{"unknown level", dashboard.Event{Control: dashboard.ControlLevel, Value: "D9"}, domain.ErrInvalidControlValue},
		{"unknown county", dashboard.Event{Control: dashboard.ControlCounty, Value: "Nowhere County"}, domain.ErrInvalidControlValue},
		{"slider out of range", dashboard.Event{Control: dashboard.ControlDate, Value: "7"}, domain.ErrInvalidControlValue},
		{"date without release", dashboard.Event{Control: dashboard.ControlDate, Value: "2020-09-02"}, domain.ErrInvalidControlValue},
		{"garbage date", dashboard.Event{Control: dashboard.ControlDate, Value: "yesterday"}, domain.ErrInvalidControlValue},
		{"compact date without release", dashboard.Event{Control: dashboard.ControlDate, Value: "20200902"}, domain.ErrInvalidControlValue},
		{"empty state", dashboard.Event{Control: dashboard.ControlForecastState, Value: " "}, domain.ErrInvalidControlValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			before := h.dash.Controls()

			_, err := h.dash.Dispatch(context.Background(), tt.event)
			require.ErrorIs(t, err, tt.want)
			assert.Equal(t, before, h.dash.Controls())
		})
	}
}

func TestDispatch_MissingRegionFailsOnlyItsView(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	update, err := h.dash.Dispatch(ctx, dashboard.Event{Control: dashboard.ControlForecastState, Value: "ZZ"})
	require.NoError(t, err)
	require.Len(t, update.Views, 1)
	assert.Contains(t, update.Views[0].Error, "region not found")
	assert.Nil(t, update.Views[0].Payload)

	all := h.dash.Render(ctx)
	for _, v := range all.Views {
		if v.View == dashboard.ViewForecast {
			assert.NotEmpty(t, v.Error)
			continue
		}
		assert.Empty(t, v.Error, v.View)
	}
	assert.Equal(t, 2.0, testutil.ToFloat64(h.metrics.ViewErrors.WithLabelValues(dashboard.ViewForecast)))
}

func TestDispatch_PublishesInteractionEvent(t *testing.T) {
	h := newHarness(t)

	_, err := h.dash.Dispatch(context.Background(), dashboard.Event{Control: dashboard.ControlDate, Value: "2020-09-01"})
	require.NoError(t, err)

	require.Len(t, h.publisher.events, 1)
	e := h.publisher.events[0]
	assert.Equal(t, dashboard.ControlDate, e.Control)
	assert.Equal(t, "2020-09-01", e.Value)
	assert.Equal(t, []string{dashboard.ViewHeatmapTitle, dashboard.ViewHeatmap}, e.Views)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.EventsPublished.WithLabelValues("success")))
}

func TestDispatch_ConcurrentSliderBurst(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.dash.Render(ctx)

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.dash.Dispatch(ctx, dashboard.Event{Control: dashboard.ControlDate, Value: fmt.Sprint(i % 2)})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, h.cache.builds.Load(), int32(2), "one build per (date, level)")
	assert.Equal(t, 2, h.cache.inner.Len())
}

func TestWarmAndReadiness(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.Error(t, h.dash.CheckReadiness(ctx))
	require.NoError(t, h.dash.Warm(ctx))
	require.NoError(t, h.dash.CheckReadiness(ctx))
	assert.Equal(t, int32(1), h.cache.builds.Load())
}
