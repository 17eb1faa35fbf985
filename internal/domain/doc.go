// Package domain models U.S. Drought Monitor (USDM) county statistics and the
// views derived from them.
//
// # Data Source
//
// County statistics come from the USDM "comprehensive statistics" export, one
// CSV row per county per weekly map release. Boundaries come from a GeoJSON
// FeatureCollection of county polygons keyed by FIPS code.
//
// # USDM Conventions
//
// FIPS codes:
//
//	Five-digit zero-padded county identifiers: two-digit state code followed by a
//	three-digit county code, e.g. "06001" = Alameda County, CA. Spreadsheet
//	round trips often strip the leading zero ("6001"); the loader pads it back.
//
// Dates:
//
//	ReleaseDate, ValidStart, and ValidEnd are compact YYYYMMDD integers,
//	e.g. 20200901. Maps are released weekly on Thursdays and cover the
//	Tuesday-to-Monday period that ends the day before release.
//
// Intensity levels (cumulative area percentages):
//
//	NONE  area with no drought or dryness
//	D0    abnormally dry or worse
//	D1    moderate drought or worse
//	D2    severe drought or worse
//	D3    extreme drought or worse
//	D4    exceptional drought
//
//	D0 through D4 are cumulative, so D0 >= D1 >= D2 >= D3 >= D4, and NONE is
//	the complement of D0 (NONE + D0 = 100).
//
// Display values:
//
//	The heatmap shows "percent of county experiencing the selected condition".
//	For NONE this is inverted (100 - NONE) so that every level reads as a
//	drought share on the same 0–100 color scale. See [Normalize].
//
// # Views
//
// [Dataset] is the immutable, load-once context every builder reads from.
// [Resolve], [Normalize], and [BuildHeatmap] compose into the heatmap view;
// [BuildCountyTable] and [BuildLineChart] produce the tabular and time-series
// views. All builders are pure functions of their inputs.
package domain
