package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/couchcryptid/drought-dashboard/internal/domain"
)

var sep1 = domain.Date{Year: 2020, Month: time.September, Day: 1}

func goodRecord(fips string) domain.DroughtRecord {
	return domain.DroughtRecord{
		FIPS: fips, County: "Alameda County", State: "CA", ReleaseDate: sep1,
		ValidStart: domain.Date{Year: 2020, Month: time.August, Day: 25},
		ValidEnd:   domain.Date{Year: 2020, Month: time.August, Day: 31},
		Intensity:  domain.Intensities{None: 55, D0: 45, D1: 20, D2: 10, D3: 5, D4: 0},
	}
}

func TestValidateRecords_Pass(t *testing.T) {
	p := validateRecords([]domain.DroughtRecord{goodRecord("06001"), goodRecord("06003")})
	assert.True(t, p.passed(), p.errors)
}

func TestValidateRecords_Failures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.DroughtRecord)
		want   string
	}{
		{"out of range", func(r *domain.DroughtRecord) { r.Intensity.D4 = -1 }, "out of [0,100]"},
		{"not cumulative", func(r *domain.DroughtRecord) { r.Intensity.D3 = 15 }, "D2=10 < D3=15"},
		{"not complementary", func(r *domain.DroughtRecord) { r.Intensity.None = 70 }, "NONE+D0=115"},
		{"window reversed", func(r *domain.DroughtRecord) { r.ValidEnd = domain.Date{Year: 2020, Month: time.August, Day: 1} }, "before ValidStart"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := goodRecord("06001")
			tt.mutate(&r)

			p := validateRecords([]domain.DroughtRecord{r})
			assert.False(t, p.passed())
			assert.Contains(t, p.errors[0], tt.want)
		})
	}
}

func TestValidateRecords_Duplicate(t *testing.T) {
	p := validateRecords([]domain.DroughtRecord{goodRecord("06001"), goodRecord("06001")})
	assert.Equal(t, []string{"line 3: duplicate record for 06001 on 2020-09-01"}, p.errors)
}

func TestValidateCoverage(t *testing.T) {
	boundaries := domain.Boundaries{"06001": {FIPS: "06001"}}
	records := []domain.DroughtRecord{goodRecord("06001"), goodRecord("48201"), goodRecord("48201")}

	p := validateCoverage(records, boundaries)
	assert.Equal(t, []string{"48201 (Alameda County, CA): no boundary"}, p.errors)
}

type stubSeries struct {
	regions []string
	points  map[string][]domain.SeriesPoint
}

func (s stubSeries) Regions(context.Context) ([]string, error) { return s.regions, nil }

func (s stubSeries) Load(_ context.Context, region string) ([]domain.SeriesPoint, error) {
	p, ok := s.points[region]
	if !ok {
		return nil, errors.New("region not found")
	}
	return p, nil
}

func TestValidateSeries(t *testing.T) {
	src := stubSeries{
		regions: []string{"CA", "NV", "TX"},
		points: map[string][]domain.SeriesPoint{
			"CA": {{ValidStart: sep1, Value: 1, Type: "actual"}},
			"NV": {},
			"TX": {{ValidStart: sep1, Value: 2, Type: ""}},
		},
	}

	p := validateSeries(context.Background(), "series", src)
	assert.Equal(t, []string{"NV: no rows", "TX line 2: empty type"}, p.errors)

	empty := validateSeries(context.Background(), "series", stubSeries{})
	assert.Equal(t, []string{"no region files found"}, empty.errors)
}
