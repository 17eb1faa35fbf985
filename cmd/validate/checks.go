package main

import (
	"context"
	"math"

	"github.com/couchcryptid/drought-dashboard/internal/domain"
)

// sumTolerance is how far NONE + D0 may drift from 100 through rounding in
// the published percentages.
const sumTolerance = 0.5

// maxReported caps per-phase error lists so one bad column does not flood the
// report.
const maxReported = 50

// ── Phase 1: Record integrity ──
// Every percentage lies in [0, 100]; the cumulative categories never increase
// with severity; NONE and D0 are complementary; validity windows are ordered;
// no county appears twice in one release.

func validateRecords(records []domain.DroughtRecord) *phase {
	p := &phase{name: "Phase 1: Record Integrity"}

	type releaseKey struct {
		fips string
		date domain.Date
	}
	seen := make(map[releaseKey]struct{}, len(records))

	for i, r := range records {
		if len(p.errors) >= maxReported {
			p.errorf("... further errors suppressed")
			break
		}
		row := i + 2

		for _, l := range domain.Levels() {
			v := r.Intensity.Get(l)
			if math.IsNaN(v) || v < 0 || v > 100 {
				p.errorf("line %d (%s %s): %s=%v out of [0,100]", row, r.FIPS, r.ReleaseDate, l, v)
			}
		}
		for l := domain.LevelD0; l < domain.LevelD4; l++ {
			if r.Intensity.Get(l) < r.Intensity.Get(l+1) {
				p.errorf("line %d (%s %s): %s=%v < %s=%v", row, r.FIPS, r.ReleaseDate,
					l, r.Intensity.Get(l), l+1, r.Intensity.Get(l+1))
			}
		}
		if sum := r.Intensity.None + r.Intensity.D0; math.Abs(sum-100) > sumTolerance {
			p.errorf("line %d (%s %s): NONE+D0=%v, want 100", row, r.FIPS, r.ReleaseDate, sum)
		}
		if r.ValidEnd.Before(r.ValidStart) {
			p.errorf("line %d (%s): ValidEnd %s before ValidStart %s", row, r.FIPS, r.ValidEnd, r.ValidStart)
		}

		k := releaseKey{r.FIPS, r.ReleaseDate}
		if _, dup := seen[k]; dup {
			p.errorf("line %d: duplicate record for %s on %s", row, r.FIPS, r.ReleaseDate)
		}
		seen[k] = struct{}{}
	}
	return p
}

// ── Phase 2: Boundary coverage ──
// Every county in the records has a boundary; counties without one are
// silently left off the map at runtime.

func validateCoverage(records []domain.DroughtRecord, boundaries domain.BoundaryLookup) *phase {
	p := &phase{name: "Phase 2: Boundary Coverage"}

	reported := make(map[string]struct{})
	for _, r := range records {
		if _, ok := boundaries.Boundary(r.FIPS); ok {
			continue
		}
		if _, done := reported[r.FIPS]; done {
			continue
		}
		reported[r.FIPS] = struct{}{}
		p.errorf("%s (%s, %s): no boundary", r.FIPS, r.County, r.State)
	}
	return p
}

// seriesSource is the read side of a series directory.
type seriesSource interface {
	Regions(ctx context.Context) ([]string, error)
	Load(ctx context.Context, region string) ([]domain.SeriesPoint, error)
}

// ── Phases 3 and 4: Series ──
// Every region file parses, is non-empty, and names a type on every row.

func validateSeries(ctx context.Context, name string, src seriesSource) *phase {
	p := &phase{name: name}

	regions, err := src.Regions(ctx)
	if err != nil {
		p.errorf("list regions: %v", err)
		return p
	}
	if len(regions) == 0 {
		p.errorf("no region files found")
	}
	for _, region := range regions {
		points, err := src.Load(ctx, region)
		if err != nil {
			p.errorf("%s: %v", region, err)
			continue
		}
		if len(points) == 0 {
			p.errorf("%s: no rows", region)
			continue
		}
		for i, pt := range points {
			if pt.Type == "" {
				p.errorf("%s line %d: empty type", region, i+2)
			}
			if math.IsNaN(pt.Value) || math.IsInf(pt.Value, 0) {
				p.errorf("%s line %d: non-finite value", region, i+2)
			}
		}
	}
	return p
}
