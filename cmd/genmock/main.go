// Command genmock writes a deterministic set of dashboard fixtures: a drought
// records CSV, a matching county boundaries GeoJSON, and backtest and forecast
// series directories. The same seed always produces byte-identical files.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock -weeks 156 -seed 1
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/couchcryptid/drought-dashboard/internal/adapter/series"
	"github.com/couchcryptid/drought-dashboard/internal/domain"
)

// firstRelease is a Tuesday; releases follow weekly.
var firstRelease = time.Date(2018, time.September, 4, 0, 0, 0, 0, time.UTC)

type mockCounty struct {
	fips, name, state string
	south, west       float64
}

var counties = []mockCounty{
	{"06001", "Alameda County", "CA", 37.45, -122.37},
	{"06003", "Alpine County", "CA", 38.33, -120.07},
	{"06037", "Los Angeles County", "CA", 33.70, -118.95},
	{"04013", "Maricopa County", "AZ", 32.50, -113.33},
	{"32003", "Clark County", "NV", 35.00, -115.90},
	{"48201", "Harris County", "TX", 29.50, -95.96},
	{"48453", "Travis County", "TX", 30.02, -98.17},
	{"08031", "Denver County", "CO", 39.61, -105.11},
}

var regions = []string{"AZ", "CA", "TX"}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "data/mock", "output directory")
	weeks := flag.Int("weeks", 156, "number of weekly releases")
	seed := flag.Uint64("seed", 1, "random seed")
	flag.Parse()

	if *weeks <= 0 {
		flag.Usage()
		return fmt.Errorf("-weeks must be positive")
	}

	paths, err := generate(*out, *weeks, *seed)
	if err != nil {
		return err
	}
	for _, p := range paths {
		log.Printf("wrote %s", p)
	}
	log.Printf("total: %d counties x %d releases = %d records", len(counties), *weeks, len(counties)*(*weeks))
	return nil
}

// generate writes every fixture under dir and returns the paths written.
func generate(dir string, weeks int, seed uint64) ([]string, error) {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	droughtPath := filepath.Join(dir, "dm_export.csv")
	geoPath := filepath.Join(dir, "counties.geojson")
	backtestDir := filepath.Join(dir, "states")
	forecastDir := filepath.Join(dir, "states_future")
	for _, d := range []string{dir, backtestDir, forecastDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", d, err)
		}
	}

	paths := []string{droughtPath, geoPath}
	if err := writeCSV(droughtPath, droughtRows(rng, weeks)); err != nil {
		return nil, fmt.Errorf("writing drought fixture: %w", err)
	}
	if err := writeJSON(geoPath, boundaryCollection()); err != nil {
		return nil, fmt.Errorf("writing boundary fixture: %w", err)
	}

	for _, region := range regions {
		pre := filepath.Join(backtestDir, region+series.BacktestSuffix)
		if err := writeCSV(pre, backtestRows(rng, weeks)); err != nil {
			return nil, fmt.Errorf("writing %s backtest: %w", region, err)
		}
		future := filepath.Join(forecastDir, region+series.ForecastSuffix)
		if err := writeCSV(future, forecastRows(rng, weeks)); err != nil {
			return nil, fmt.Errorf("writing %s forecast: %w", region, err)
		}
		paths = append(paths, pre, future)
	}
	return paths, nil
}

// droughtRows random-walks each county's D0 coverage and derives the
// cumulative D1-D4 shares below it, so every row satisfies
// NONE + D0 = 100 and D0 >= D1 >= ... >= D4.
func droughtRows(rng *rand.Rand, weeks int) [][]string {
	rows := [][]string{{"FIPS", "County", "State", "ReleaseDate", "ValidStart", "ValidEnd", "NONE", "D0", "D1", "D2", "D3", "D4"}}

	d0 := make([]float64, len(counties))
	for i := range d0 {
		d0[i] = rng.Float64() * 100
	}

	for w := range weeks {
		release := firstRelease.AddDate(0, 0, 7*w)
		for i, c := range counties {
			d0[i] = clamp(d0[i]+rng.NormFloat64()*8, 0, 100)
			in := domain.Intensities{D0: round2(d0[i])}
			in.None = round2(100 - in.D0)
			prev := in.D0
			for l := domain.LevelD1; l <= domain.LevelD4; l++ {
				prev = round2(prev * rng.Float64())
				in = in.Set(l, prev)
			}
			rows = append(rows, []string{
				c.fips, c.name, c.state,
				domain.DateOf(release).Compact(),
				domain.DateOf(release).Compact(),
				domain.DateOf(release.AddDate(0, 0, 6)).Compact(),
				formatFloat(in.None), formatFloat(in.D0), formatFloat(in.D1),
				formatFloat(in.D2), formatFloat(in.D3), formatFloat(in.D4),
			})
		}
	}
	return rows
}

func backtestRows(rng *rand.Rand, weeks int) [][]string {
	rows := [][]string{{"ValidStart", "value", "type"}}
	level := rng.Float64() * 60
	for w := range weeks {
		date := domain.DateOf(firstRelease.AddDate(0, 0, 7*w)).String()
		level = clamp(level+rng.NormFloat64()*4, 0, 100)
		predicted := clamp(level+rng.NormFloat64()*3, 0, 100)
		rows = append(rows,
			[]string{date, formatFloat(round2(level)), "actual"},
			[]string{date, formatFloat(round2(predicted)), "predicted"},
		)
	}
	return rows
}

func forecastRows(rng *rand.Rand, weeks int) [][]string {
	rows := [][]string{{"ValidStart", "value", "type"}}
	level := rng.Float64() * 60
	start := firstRelease.AddDate(0, 0, 7*weeks)
	for w := range 26 {
		date := domain.DateOf(start.AddDate(0, 0, 7*w)).String()
		level = clamp(level+rng.NormFloat64()*4, 0, 100)
		spread := 2 + float64(w)*0.5
		rows = append(rows,
			[]string{date, formatFloat(round2(level)), "forecast"},
			[]string{date, formatFloat(round2(clamp(level-spread, 0, 100))), "lower"},
			[]string{date, formatFloat(round2(clamp(level+spread, 0, 100))), "upper"},
		)
	}
	return rows
}

type featureCollection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

type feature struct {
	Type       string            `json:"type"`
	ID         string            `json:"id"`
	Properties map[string]string `json:"properties"`
	Geometry   polygon           `json:"geometry"`
}

type polygon struct {
	Type        string         `json:"type"`
	Coordinates [][][2]float64 `json:"coordinates"`
}

// boundaryCollection draws each county as a half-degree square anchored at
// its south-west corner.
func boundaryCollection() featureCollection {
	fc := featureCollection{Type: "FeatureCollection"}
	for _, c := range counties {
		s, w, n, e := c.south, c.west, c.south+0.5, c.west+0.5
		fc.Features = append(fc.Features, feature{
			Type: "Feature",
			ID:   c.fips,
			Properties: map[string]string{
				"GEO_ID": "0500000US" + c.fips,
				"STATE":  c.fips[:2],
				"NAME":   c.name,
			},
			Geometry: polygon{
				Type:        "Polygon",
				Coordinates: [][][2]float64{{{w, s}, {e, s}, {e, n}, {w, n}, {w, s}}},
			},
		})
	}
	return fc
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return f.Close()
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644) //nolint:gosec // fixture files are not sensitive
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
