package domain

import "math"

const (
	displayMin = 0.0
	displayMax = 100.0
)

// Normalize converts a raw cumulative percentage into the 0–100 display value
// for level. NONE is inverted (100 - raw) so every level reads as a share of
// the county in dry or drought conditions. The result is always clamped into
// [0, 100]; NaN maps to 0.
func Normalize(raw float64, level Level) float64 {
	v := raw
	if level == LevelNone {
		v = displayMax - raw
	}
	return clamp(v)
}

func clamp(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return displayMin
	case v < displayMin:
		return displayMin
	case v > displayMax:
		return displayMax
	default:
		return v
	}
}
