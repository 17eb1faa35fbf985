package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/couchcryptid/drought-dashboard/internal/domain"
)

// IDKey selects the GeoJSON feature "id" member as the FIPS key.
const IDKey = "id"

// ReadBoundaries parses a county FeatureCollection. key names the member that
// carries the FIPS code: IDKey for the feature id, anything else for a
// property. Every feature must carry a unique key.
func ReadBoundaries(data []byte, key string) ([]domain.CountyBoundary, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decode geojson: %w", err)
	}
	if fc.Type != "FeatureCollection" {
		return nil, fmt.Errorf("geojson: expected FeatureCollection, got %q", fc.Type)
	}
	if len(fc.Features) == 0 {
		return nil, errors.New("geojson: no features")
	}

	seen := make(map[string]struct{}, len(fc.Features))
	out := make([]domain.CountyBoundary, 0, len(fc.Features))
	for i, f := range fc.Features {
		raw := f.ID
		if key != IDKey {
			raw = f.Properties[key]
		}
		fips, err := featureKey(raw)
		if err != nil {
			return nil, fmt.Errorf("geojson feature %d: %s: %w", i, key, err)
		}
		if _, dup := seen[fips]; dup {
			return nil, fmt.Errorf("geojson feature %d: duplicate FIPS %s", i, fips)
		}
		seen[fips] = struct{}{}

		rect, err := geometryBounds(f.Geometry)
		if err != nil {
			return nil, fmt.Errorf("geojson feature %d (%s): %w", i, fips, err)
		}
		var geometry json.RawMessage
		if f.Geometry != nil {
			if geometry, err = json.Marshal(geojson.NewGeometry(f.Geometry)); err != nil {
				return nil, fmt.Errorf("geojson feature %d (%s): encode geometry: %w", i, fips, err)
			}
		}
		out = append(out, domain.CountyBoundary{
			FIPS:     fips,
			Geometry: geometry,
			Bounds:   domain.BoundsFromRect(rect),
		})
	}
	return out, nil
}

// featureKey accepts a string or integral number and returns a padded FIPS code.
func featureKey(v any) (string, error) {
	var s string
	switch k := v.(type) {
	case nil:
		return "", errors.New("missing key")
	case string:
		s = k
	case float64:
		if k != math.Trunc(k) || k < 0 {
			return "", fmt.Errorf("unsupported key %v", k)
		}
		s = strconv.FormatInt(int64(k), 10)
	default:
		return "", fmt.Errorf("unsupported key %v", k)
	}
	// Census GEO_ID values look like "0500000US06001"; keep the trailing code.
	if i := strings.LastIndex(s, "US"); i >= 0 {
		s = s[i+2:]
	}
	return NormalizeFIPS(s)
}

// geometryBounds returns the bounding rectangle of a Polygon or MultiPolygon.
// A null geometry has empty bounds.
func geometryBounds(g orb.Geometry) (s2.Rect, error) {
	rect := s2.EmptyRect()
	switch g.(type) {
	case nil:
		return rect, nil
	case orb.Polygon, orb.MultiPolygon:
	default:
		return rect, fmt.Errorf("unsupported geometry type %q", g.GeoJSONType())
	}

	b := g.Bound()
	rect = rect.AddPoint(s2.LatLngFromDegrees(b.Min.Lat(), b.Min.Lon()))
	rect = rect.AddPoint(s2.LatLngFromDegrees(b.Max.Lat(), b.Max.Lon()))
	return rect, nil
}
