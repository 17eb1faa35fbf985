package domain

import "testing"

const (
	fipsAlameda = "06001"
	fipsAlpine  = "06003"
	fipsHarris  = "48201"
)

func mustDate(t *testing.T, s string) Date {
	t.Helper()
	d, err := ParseDate(s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}

func record(fips, county, state string, release Date, in Intensities) DroughtRecord {
	return DroughtRecord{
		FIPS:        fips,
		County:      county,
		State:       state,
		ReleaseDate: release,
		ValidStart:  DateOf(release.Time().AddDate(0, 0, -9)),
		ValidEnd:    DateOf(release.Time().AddDate(0, 0, -3)),
		Intensity:   in,
	}
}

func square(fips string, south, west float64) CountyBoundary {
	return CountyBoundary{
		FIPS:   fips,
		Bounds: Bounds{South: south, West: west, North: south + 1, East: west + 1},
	}
}
