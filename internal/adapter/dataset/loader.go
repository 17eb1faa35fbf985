package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/couchcryptid/drought-dashboard/internal/domain"
)

// Loader reads the drought CSV and county boundaries from disk. It runs once
// at startup; any error means the dashboard cannot start.
type Loader struct {
	recordsPath    string
	boundariesPath string
	boundaryKey    string
	logger         *slog.Logger
}

// NewLoader creates a Loader for the given files. boundaryKey is IDKey or the
// name of the FIPS property in each feature.
func NewLoader(recordsPath, boundariesPath, boundaryKey string, logger *slog.Logger) *Loader {
	return &Loader{
		recordsPath:    recordsPath,
		boundariesPath: boundariesPath,
		boundaryKey:    boundaryKey,
		logger:         logger,
	}
}

// Load reads both sources and returns the immutable dataset.
func (l *Loader) Load(ctx context.Context) (*domain.Dataset, error) {
	start := time.Now()

	records, err := l.loadRecords()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(l.boundariesPath)
	if err != nil {
		return nil, fmt.Errorf("read boundaries: %w", err)
	}
	boundaries, err := ReadBoundaries(data, l.boundaryKey)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", l.boundariesPath, err)
	}

	ds := domain.NewDataset(records, boundaries, data)
	l.logger.Info("dataset loaded",
		"records", ds.Len(),
		"boundaries", len(boundaries),
		"dates", len(ds.Dates()),
		"counties", len(ds.Counties()),
		"loaded_at", ds.LoadedAt(),
		"duration", time.Since(start),
	)
	if missing := unmatchedFIPS(records, ds); len(missing) > 0 {
		l.logger.Warn("counties without boundaries will not be drawn",
			"count", len(missing), "sample", sample(missing, 5))
	}
	return ds, nil
}

func (l *Loader) loadRecords() ([]domain.DroughtRecord, error) {
	f, err := os.Open(l.recordsPath)
	if err != nil {
		return nil, fmt.Errorf("open drought csv: %w", err)
	}
	defer f.Close()

	records, err := ReadRecords(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", l.recordsPath, err)
	}
	return records, nil
}

// unmatchedFIPS lists distinct record FIPS codes with no boundary.
func unmatchedFIPS(records []domain.DroughtRecord, lookup domain.BoundaryLookup) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range records {
		if _, ok := seen[r.FIPS]; ok {
			continue
		}
		seen[r.FIPS] = struct{}{}
		if _, ok := lookup.Boundary(r.FIPS); !ok {
			out = append(out, r.FIPS)
		}
	}
	return out
}

func sample(s []string, n int) []string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
