package domain

import (
	"encoding/json"

	"github.com/golang/geo/s2"
)

// Intensities holds the six cumulative area percentages of one county release.
type Intensities struct {
	None float64 `json:"NONE"`
	D0   float64 `json:"D0"`
	D1   float64 `json:"D1"`
	D2   float64 `json:"D2"`
	D3   float64 `json:"D3"`
	D4   float64 `json:"D4"`
}

// Get returns the percentage for level l, or 0 for an invalid level.
func (i Intensities) Get(l Level) float64 {
	switch l {
	case LevelNone:
		return i.None
	case LevelD0:
		return i.D0
	case LevelD1:
		return i.D1
	case LevelD2:
		return i.D2
	case LevelD3:
		return i.D3
	case LevelD4:
		return i.D4
	default:
		return 0
	}
}

// Set returns a copy of i with level l set to v.
func (i Intensities) Set(l Level, v float64) Intensities {
	switch l {
	case LevelNone:
		i.None = v
	case LevelD0:
		i.D0 = v
	case LevelD1:
		i.D1 = v
	case LevelD2:
		i.D2 = v
	case LevelD3:
		i.D3 = v
	case LevelD4:
		i.D4 = v
	}
	return i
}

// DroughtRecord is one county's statistics for one weekly map release.
type DroughtRecord struct {
	FIPS        string      `json:"fips"`
	County      string      `json:"county"`
	State       string      `json:"state"`
	ReleaseDate Date        `json:"release_date"`
	ValidStart  Date        `json:"valid_start"`
	ValidEnd    Date        `json:"valid_end"`
	Intensity   Intensities `json:"intensity"`
}

// CountyBoundary is a county polygon or multipolygon keyed by FIPS code.
// Geometry is kept as the raw GeoJSON geometry object; Bounds is derived once
// at load time from its vertices.
type CountyBoundary struct {
	FIPS     string          `json:"fips"`
	Geometry json.RawMessage `json:"geometry"`
	Bounds   Bounds          `json:"bounds"`
}

// LatLng is a WGS-84 coordinate pair in degrees.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Bounds is a latitude/longitude bounding rectangle in degrees.
type Bounds struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

// BoundsFromRect converts an s2 rectangle to degree bounds. An empty rectangle
// yields zero Bounds.
func BoundsFromRect(r s2.Rect) Bounds {
	if r.IsEmpty() {
		return Bounds{}
	}
	lo, hi := r.Lo(), r.Hi()
	return Bounds{
		South: lo.Lat.Degrees(),
		West:  lo.Lng.Degrees(),
		North: hi.Lat.Degrees(),
		East:  hi.Lng.Degrees(),
	}
}

// Rect converts b back into an s2 rectangle.
func (b Bounds) Rect() s2.Rect {
	if b == (Bounds{}) {
		return s2.EmptyRect()
	}
	return s2.RectFromLatLng(s2.LatLngFromDegrees(b.South, b.West)).
		AddPoint(s2.LatLngFromDegrees(b.North, b.East))
}
