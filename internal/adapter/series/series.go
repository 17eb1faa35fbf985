// Package series reads per-region model series (backtest and forecast) from a
// directory of "<region>_<kind>.csv" files.
package series

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/drought-dashboard/internal/domain"
)

const (
	// BacktestSuffix names training and back-testing files, e.g. "CA_pre.csv".
	BacktestSuffix = "_pre.csv"
	// ForecastSuffix names future forecast files, e.g. "CA_future.csv".
	ForecastSuffix = "_future.csv"
)

var regionRe = regexp.MustCompile(`^[A-Za-z0-9-]+$`)

// validStartLayouts are the date forms seen in model output files.
var validStartLayouts = []string{
	"2006-01-02",
	"20060102",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"01/02/2006",
}

// Directory is a region series source backed by one directory.
type Directory struct {
	dir    string
	suffix string
}

// NewDirectory creates a source reading "<region><suffix>" files from dir.
func NewDirectory(dir, suffix string) *Directory {
	return &Directory{dir: dir, suffix: suffix}
}

// Regions lists the distinct region identifiers in the directory: the part of
// each regular file name before its first underscore, sorted.
func (d *Directory) Regions(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, fmt.Errorf("list regions in %s: %w", d.dir, err)
	}
	seen := make(map[string]struct{})
	var regions []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		region, _, _ := strings.Cut(e.Name(), "_")
		if region == "" {
			continue
		}
		if _, ok := seen[region]; ok {
			continue
		}
		seen[region] = struct{}{}
		regions = append(regions, region)
	}
	sort.Strings(regions)
	return regions, nil
}

// Load reads the series for region. A region with no file returns an error
// wrapping domain.ErrRegionNotFound.
func (d *Directory) Load(ctx context.Context, region string) ([]domain.SeriesPoint, error) {
	if !regionRe.MatchString(region) {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidRegion, region)
	}
	path := filepath.Join(d.dir, region+d.suffix)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", domain.ErrRegionNotFound, region)
	}
	if err != nil {
		return nil, fmt.Errorf("open series: %w", err)
	}
	defer f.Close()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	points, err := ReadSeries(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return points, nil
}

// ReadSeries parses a series CSV with at least ValidStart, value, and type
// columns (case-insensitive). Rows keep file order.
func ReadSeries(r io.Reader) ([]domain.SeriesPoint, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("series csv: empty file")
	}
	if err != nil {
		return nil, fmt.Errorf("series csv header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, name := range []string{"validstart", "value", "type"} {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("series csv: missing column %s", name)
		}
	}

	points := make([]domain.SeriesPoint, 0)
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("series csv line %d: %w", line, err)
		}
		get := func(name string) string {
			if i := cols[name]; i < len(row) {
				return strings.TrimSpace(row[i])
			}
			return ""
		}

		date, err := parseValidStart(get("validstart"))
		if err != nil {
			return nil, fmt.Errorf("series csv line %d: %w", line, err)
		}
		value, err := strconv.ParseFloat(get("value"), 64)
		if err != nil {
			return nil, fmt.Errorf("series csv line %d: invalid value %q", line, get("value"))
		}
		points = append(points, domain.SeriesPoint{ValidStart: date, Value: value, Type: get("type")})
	}
	return points, nil
}

func parseValidStart(s string) (domain.Date, error) {
	for _, layout := range validStartLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return domain.DateOf(t), nil
		}
	}
	return domain.Date{}, fmt.Errorf("%w: ValidStart %q", domain.ErrInvalidDate, s)
}
