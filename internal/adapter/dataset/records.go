package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/couchcryptid/drought-dashboard/internal/domain"
)

const fipsLen = 5

// Required drought CSV columns, matched case-insensitively.
const (
	colFIPS        = "fips"
	colCounty      = "county"
	colState       = "state"
	colReleaseDate = "releasedate"
	colValidStart  = "validstart"
	colValidEnd    = "validend"
)

var levelColumns = map[domain.Level]string{
	domain.LevelNone: "none",
	domain.LevelD0:   "d0",
	domain.LevelD1:   "d1",
	domain.LevelD2:   "d2",
	domain.LevelD3:   "d3",
	domain.LevelD4:   "d4",
}

// ReadRecords parses a USDM county statistics CSV. Extra columns are ignored.
// Any missing column, unparseable value, or empty body is an error; there is no
// partial load.
func ReadRecords(r io.Reader) ([]domain.DroughtRecord, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("drought csv: empty file")
	}
	if err != nil {
		return nil, fmt.Errorf("drought csv header: %w", err)
	}
	cols, err := indexColumns(header)
	if err != nil {
		return nil, err
	}

	var records []domain.DroughtRecord
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("drought csv line %d: %w", line, err)
		}
		rec, err := parseRecord(row, cols)
		if err != nil {
			return nil, fmt.Errorf("drought csv line %d: %w", line, err)
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, errors.New("drought csv: no data rows")
	}
	return records, nil
}

func indexColumns(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}

	required := []string{colFIPS, colCounty, colState, colReleaseDate, colValidStart, colValidEnd}
	for _, l := range domain.Levels() {
		required = append(required, levelColumns[l])
	}
	var missing []string
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("drought csv: missing columns %s", strings.Join(missing, ", "))
	}
	return cols, nil
}

func parseRecord(row []string, cols map[string]int) (domain.DroughtRecord, error) {
	field := func(name string) string {
		i := cols[name]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	fips, err := NormalizeFIPS(field(colFIPS))
	if err != nil {
		return domain.DroughtRecord{}, err
	}

	rec := domain.DroughtRecord{
		FIPS:   fips,
		County: field(colCounty),
		State:  field(colState),
	}
	dates := []struct {
		col string
		dst *domain.Date
	}{
		{colReleaseDate, &rec.ReleaseDate},
		{colValidStart, &rec.ValidStart},
		{colValidEnd, &rec.ValidEnd},
	}
	for _, d := range dates {
		parsed, err := domain.ParseDate(field(d.col))
		if err != nil {
			return domain.DroughtRecord{}, fmt.Errorf("%s: %w", d.col, err)
		}
		*d.dst = parsed
	}

	for _, l := range domain.Levels() {
		raw := field(levelColumns[l])
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return domain.DroughtRecord{}, fmt.Errorf("%s: invalid percentage %q", l, raw)
		}
		rec.Intensity = rec.Intensity.Set(l, v)
	}
	return rec, nil
}

// NormalizeFIPS left-pads a numeric county code to five digits, restoring the
// leading zero that spreadsheet tools strip ("6001" -> "06001").
func NormalizeFIPS(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > fipsLen {
		return "", fmt.Errorf("invalid FIPS code %q", s)
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("invalid FIPS code %q", s)
		}
	}
	return strings.Repeat("0", fipsLen-len(s)) + s, nil
}
