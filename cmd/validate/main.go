// Command validate performs offline data integrity checks on the dashboard's
// inputs: the drought records CSV, the county boundaries GeoJSON, and the
// backtest and forecast series directories. It verifies value ranges,
// cumulative-category ordering, boundary coverage, and series readability.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -drought-csv data/dm_export_20100101_20200901.csv \
//	  -geojson data/geojson-counties-fips.json \
//	  -backtest-dir data/states \
//	  -forecast-dir data/states_future
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/couchcryptid/drought-dashboard/internal/adapter/dataset"
	"github.com/couchcryptid/drought-dashboard/internal/adapter/series"
	"github.com/couchcryptid/drought-dashboard/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	droughtCSV := flag.String("drought-csv", "data/dm_export_20100101_20200901.csv", "drought records CSV")
	geoJSON := flag.String("geojson", "data/geojson-counties-fips.json", "county boundaries GeoJSON")
	boundaryKey := flag.String("boundary-key", dataset.IDKey, "feature id or property holding the FIPS code")
	backtestDir := flag.String("backtest-dir", "data/states", "directory of <region>_pre.csv files")
	forecastDir := flag.String("forecast-dir", "data/states_future", "directory of <region>_future.csv files")
	flag.Parse()

	if *droughtCSV == "" || *geoJSON == "" {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(*droughtCSV, *geoJSON, *boundaryKey, *backtestDir, *forecastDir))
}

func run(droughtCSV, geoJSON, boundaryKey, backtestDir, forecastDir string) int {
	ctx := context.Background()

	fmt.Println("=== Drought Data Integrity Validation ===")
	fmt.Println()

	records, err := readRecords(droughtCSV)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load drought CSV: %v\n", err)
		return 1
	}
	raw, err := os.ReadFile(geoJSON)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read boundaries: %v\n", err)
		return 1
	}
	boundaries, err := dataset.ReadBoundaries(raw, boundaryKey)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: parse boundaries: %v\n", err)
		return 1
	}
	lookup := make(domain.Boundaries, len(boundaries))
	for _, b := range boundaries {
		lookup[b.FIPS] = b
	}

	phases := []*phase{
		validateRecords(records),
		validateCoverage(records, lookup),
		validateSeries(ctx, "Phase 3: Backtest Series", series.NewDirectory(backtestDir, series.BacktestSuffix)),
		validateSeries(ctx, "Phase 4: Forecast Series", series.NewDirectory(forecastDir, series.ForecastSuffix)),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	ds := domain.NewDataset(records, boundaries, nil)
	fmt.Println()
	fmt.Printf("Records: %d rows, %d counties, %d release dates, %d boundaries\n",
		ds.Len(), len(ds.Counties()), len(ds.Dates()), len(boundaries))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func readRecords(path string) ([]domain.DroughtRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return dataset.ReadRecords(f)
}
