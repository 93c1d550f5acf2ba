// Package delimited reads and writes fixture directories of delimited text
// files. Each file holds one table: the file base name is the table name,
// the first line is the header, and every following line is one row.
//
// Cell encoding carries three distinctions that survive a round trip:
//
//   - an unquoted empty cell is null
//   - a quoted empty cell ("") is the empty string
//   - an unquoted cell starting with the [base64] prefix is binary
//
// Fields containing the delimiter, a double quote, or a line break are
// enclosed in double quotes, with embedded quotes doubled.
//
// A directory may carry a load-order file (table-ordering.txt) naming table
// base names one per line; listed tables come first in the parsed dataset,
// remaining files follow in alphabetical order. A header cell equal to the
// reserved [Scenario] marker designates a pseudo-column of per-row scenario
// tags; the marker column never appears in the parsed table.
package delimited

import (
	"fmt"
	"strings"
)

// ScenarioMarker is the reserved header cell designating the scenario tag
// pseudo-column.
const ScenarioMarker = "[Scenario]"

// BinaryPrefix marks an unquoted cell as base64-encoded binary content.
const BinaryPrefix = "[base64]"

// OrderFile is the per-directory load-order file name.
const OrderFile = "table-ordering.txt"

// Format describes one delimited file format.
type Format struct {
	// Name identifies the format in flags and configuration.
	Name string

	// Delimiter separates fields. It must be a single ASCII character.
	Delimiter byte

	// Ext is the file extension, including the dot. Matching is
	// case-insensitive.
	Ext string
}

// CSV is the comma-separated format (.csv files).
var CSV = Format{Name: "csv", Delimiter: ',', Ext: ".csv"}

// TSV is the tab-separated format (.tsv files).
var TSV = Format{Name: "tsv", Delimiter: '\t', Ext: ".tsv"}

// FormatNamed returns the format with the given name.
func FormatNamed(name string) (Format, error) {
	switch strings.ToLower(name) {
	case CSV.Name:
		return CSV, nil
	case TSV.Name:
		return TSV, nil
	default:
		return Format{}, fmt.Errorf("unknown format %q (want csv or tsv)", name)
	}
}
