package domain

import (
	"slices"
	"sort"
	"time"
)

// sliderMarkStep is the spacing, in releases, between labelled slider marks.
const sliderMarkStep = 70

// Dataset is the load-once, read-many context every resolver and builder reads
// from. It is never mutated after NewDataset returns, so it is safe for
// concurrent use without locking.
type Dataset struct {
	records    []DroughtRecord
	boundaries Boundaries
	geoJSON    []byte

	byDate   map[Date][]int
	dates    []Date
	counties []string
	bounds   Bounds
	loadedAt time.Time
}

// NewDataset indexes records and boundaries. Records keep their input order;
// geoJSON is the raw boundary document handed to renderers verbatim.
func NewDataset(records []DroughtRecord, boundaries []CountyBoundary, geoJSON []byte) *Dataset {
	ds := &Dataset{
		records:    slices.Clone(records),
		boundaries: make(Boundaries, len(boundaries)),
		geoJSON:    slices.Clone(geoJSON),
		byDate:     make(map[Date][]int),
		loadedAt:   clock.Now(),
	}

	rect := Bounds{}.Rect()
	for _, b := range boundaries {
		ds.boundaries[b.FIPS] = b
		rect = rect.Union(b.Bounds.Rect())
	}
	ds.bounds = BoundsFromRect(rect)

	seenCounty := make(map[string]struct{})
	for i, r := range ds.records {
		if _, ok := ds.byDate[r.ReleaseDate]; !ok {
			ds.dates = append(ds.dates, r.ReleaseDate)
		}
		ds.byDate[r.ReleaseDate] = append(ds.byDate[r.ReleaseDate], i)
		if _, ok := seenCounty[r.County]; !ok {
			seenCounty[r.County] = struct{}{}
			ds.counties = append(ds.counties, r.County)
		}
	}
	sort.Slice(ds.dates, func(i, j int) bool { return ds.dates[i].Before(ds.dates[j]) })
	sort.Strings(ds.counties)

	return ds
}

// Len returns the number of records.
func (d *Dataset) Len() int { return len(d.records) }

// Dates returns the distinct release dates in ascending order.
func (d *Dataset) Dates() []Date { return slices.Clone(d.dates) }

// DateAt returns the release date at slider position i.
func (d *Dataset) DateAt(i int) (Date, bool) {
	if i < 0 || i >= len(d.dates) {
		return Date{}, false
	}
	return d.dates[i], true
}

// IndexOf returns the slider position of date, or -1 if no release exists for it.
func (d *Dataset) IndexOf(date Date) int {
	i := sort.Search(len(d.dates), func(i int) bool { return !d.dates[i].Before(date) })
	if i < len(d.dates) && d.dates[i] == date {
		return i
	}
	return -1
}

// LatestDate returns the most recent release date, or the zero Date when empty.
func (d *Dataset) LatestDate() Date {
	if len(d.dates) == 0 {
		return Date{}
	}
	return d.dates[len(d.dates)-1]
}

// Counties returns the distinct county names in alphabetical order.
func (d *Dataset) Counties() []string { return slices.Clone(d.counties) }

// HasCounty reports whether any record names county.
func (d *Dataset) HasCounty(county string) bool {
	_, ok := slices.BinarySearch(d.counties, county)
	return ok
}

// Boundaries returns the boundary lookup. Callers must not modify it.
func (d *Dataset) Boundaries() Boundaries { return d.boundaries }

// Boundary returns the boundary for a FIPS code.
func (d *Dataset) Boundary(fips string) (CountyBoundary, bool) {
	return d.boundaries.Boundary(fips)
}

// GeoJSON returns the raw boundary document. Callers must not modify it.
func (d *Dataset) GeoJSON() []byte { return d.geoJSON }

// Bounds returns the bounding rectangle of every loaded boundary.
func (d *Dataset) Bounds() Bounds { return d.bounds }

// LoadedAt returns when the dataset was constructed.
func (d *Dataset) LoadedAt() time.Time { return d.loadedAt }

// Resolve is the indexed equivalent of the package-level Resolve.
func (d *Dataset) Resolve(date Date, level Level) []CountyValue {
	idx := d.byDate[date]
	out := make([]CountyValue, 0, len(idx))
	for _, i := range idx {
		r := d.records[i]
		out = append(out, CountyValue{FIPS: r.FIPS, Value: r.Intensity.Get(level)})
	}
	return out
}

// CountyRecords returns the records naming county, in load order.
func (d *Dataset) CountyRecords(county string) []DroughtRecord {
	var out []DroughtRecord
	for _, r := range d.records {
		if r.County == county {
			out = append(out, r)
		}
	}
	return out
}

// SliderMarks labels every 70th release date plus the latest one, keyed by
// slider position.
func SliderMarks(dates []Date) map[int]string {
	marks := make(map[int]string)
	for i, d := range dates {
		if i%sliderMarkStep == 0 || i == len(dates)-1 {
			marks[i] = d.String()
		}
	}
	return marks
}
