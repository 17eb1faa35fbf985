package domain

import (
	"fmt"
	"time"
)

// ColorScale fixes the choropleth color mapping so payloads for different dates
// stay visually comparable.
type ColorScale struct {
	Palette   string  `json:"palette"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	Opacity   float64 `json:"opacity"`
	LineWidth float64 `json:"line_width"`
}

// MapView is the fixed base-map camera.
type MapView struct {
	Style  string  `json:"style"`
	Zoom   float64 `json:"zoom"`
	Center LatLng  `json:"center"`
}

var (
	// DefaultColorScale is the OrRd scale over [0, 100].
	DefaultColorScale = ColorScale{Palette: "OrRd", Min: displayMin, Max: displayMax, Opacity: 0.5, LineWidth: 0.1}

	// DefaultMapView centers the contiguous United States.
	DefaultMapView = MapView{Style: "carto-positron", Zoom: 3, Center: LatLng{Lat: 37.0902, Lon: -95.7129}}
)

// SelectionKey identifies one cacheable heatmap view.
type SelectionKey struct {
	Date  Date  `json:"date"`
	Level Level `json:"level"`
}

func (k SelectionKey) String() string {
	return fmt.Sprintf("%s|%s", k.Date.Compact(), k.Level)
}

// Heatmap is a renderable choropleth payload. Locations and Values are
// parallel: Values[i] is the display value of county Locations[i]. A Heatmap is
// immutable once built and may be shared by any number of renderers.
type Heatmap struct {
	Date      Date       `json:"date"`
	Level     Level      `json:"level"`
	Locations []string   `json:"locations"`
	Values    []float64  `json:"values"`
	Scale     ColorScale `json:"scale"`
	Map       MapView    `json:"map"`
	Bounds    Bounds     `json:"bounds"`
	Unmatched int        `json:"unmatched"`
	BuiltAt   time.Time  `json:"built_at"`
}

// Value returns the display value for fips, if the county is filled.
func (h *Heatmap) Value(fips string) (float64, bool) {
	for i, loc := range h.Locations {
		if loc == fips {
			return h.Values[i], true
		}
	}
	return 0, false
}

// BoundaryLookup finds a county boundary by FIPS code.
type BoundaryLookup interface {
	Boundary(fips string) (CountyBoundary, bool)
}

// Boundaries is a FIPS-keyed BoundaryLookup.
type Boundaries map[string]CountyBoundary

func (b Boundaries) Boundary(fips string) (CountyBoundary, bool) {
	cb, ok := b[fips]
	return cb, ok
}

// BuildHeatmap joins display values to boundaries on FIPS. Selections with no
// boundary are left out of the payload and returned as unmatched; boundaries
// with no selection are simply not filled. Bounds cover the filled counties.
func BuildHeatmap(key SelectionKey, boundaries BoundaryLookup, selection []CountyValue) (*Heatmap, []string) {
	h := &Heatmap{
		Date:      key.Date,
		Level:     key.Level,
		Locations: make([]string, 0, len(selection)),
		Values:    make([]float64, 0, len(selection)),
		Scale:     DefaultColorScale,
		Map:       DefaultMapView,
		BuiltAt:   clock.Now(),
	}

	var unmatched []string
	rect := Bounds{}.Rect()
	for _, sel := range selection {
		b, ok := boundaries.Boundary(sel.FIPS)
		if !ok {
			unmatched = append(unmatched, sel.FIPS)
			continue
		}
		h.Locations = append(h.Locations, sel.FIPS)
		h.Values = append(h.Values, sel.Value)
		rect = rect.Union(b.Bounds.Rect())
	}
	h.Bounds = BoundsFromRect(rect)
	h.Unmatched = len(unmatched)

	return h, unmatched
}

// HeatmapTitle is the heading shown above the map for date.
func HeatmapTitle(date Date) string {
	return "Heatmap on " + date.String()
}
