package domain

// CountyValue pairs a FIPS code with a raw or display value.
type CountyValue struct {
	FIPS  string  `json:"fips"`
	Value float64 `json:"value"`
}

// Resolve returns the raw level percentage of every record released on date,
// in record order. A date with no release yields an empty, non-nil slice.
func Resolve(records []DroughtRecord, date Date, level Level) []CountyValue {
	out := make([]CountyValue, 0)
	for _, r := range records {
		if r.ReleaseDate != date {
			continue
		}
		out = append(out, CountyValue{FIPS: r.FIPS, Value: r.Intensity.Get(level)})
	}
	return out
}

// NormalizeAll applies Normalize to each value, returning a new slice.
func NormalizeAll(values []CountyValue, level Level) []CountyValue {
	out := make([]CountyValue, len(values))
	for i, v := range values {
		out[i] = CountyValue{FIPS: v.FIPS, Value: Normalize(v.Value, level)}
	}
	return out
}
