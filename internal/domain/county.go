package domain

import "sort"

// CountyTableHeader is the fixed column order of the county detail table.
var CountyTableHeader = []string{
	"Release Date", "County", "State",
	"Drought %", "Abnormally Dry %", "Moderate Drought %",
	"Severe Drought %", "Extreme Drought %", "Exceptional Drought %",
	"Valid Start", "Valid End",
}

// CountyRow is one release of a county's statistics.
type CountyRow struct {
	ReleaseDate Date        `json:"release_date"`
	County      string      `json:"county"`
	State       string      `json:"state"`
	Intensity   Intensities `json:"intensity"`
	ValidStart  Date        `json:"valid_start"`
	ValidEnd    Date        `json:"valid_end"`
}

// Cells renders the row as strings in CountyTableHeader order.
func (r CountyRow) Cells() []string {
	cells := []string{r.ReleaseDate.Compact(), r.County, r.State}
	for _, l := range Levels() {
		cells = append(cells, formatPercent(r.Intensity.Get(l)))
	}
	return append(cells, r.ValidStart.Compact(), r.ValidEnd.Compact())
}

// CountyTable is the tabular county detail view.
type CountyTable struct {
	County string      `json:"county"`
	Header []string    `json:"header"`
	Rows   []CountyRow `json:"rows"`
}

// BuildCountyTable returns one row per record naming county, ascending by
// release date. Records sharing a release date keep their input order.
func BuildCountyTable(records []DroughtRecord, county string) CountyTable {
	rows := make([]CountyRow, 0)
	for _, r := range records {
		if r.County != county {
			continue
		}
		rows = append(rows, CountyRow{
			ReleaseDate: r.ReleaseDate,
			County:      r.County,
			State:       r.State,
			Intensity:   r.Intensity,
			ValidStart:  r.ValidStart,
			ValidEnd:    r.ValidEnd,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].ReleaseDate.Before(rows[j].ReleaseDate)
	})

	return CountyTable{
		County: county,
		Header: append([]string(nil), CountyTableHeader...),
		Rows:   rows,
	}
}
