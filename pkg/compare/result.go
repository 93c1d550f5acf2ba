package compare

import (
	"fmt"
	"strings"

	"github.com/seijikohara/db-tester-sub006/pkg/dataset"
)

// CellDiff reports one cell whose actual value did not match.
type CellDiff struct {
	// Row is the zero-based position of the row in key-sorted order.
	Row int

	// Column is the column name.
	Column string

	// Expected and Actual are the two cell values.
	Expected dataset.Value
	Actual   dataset.Value
}

// TableDiff aggregates every finding for one table.
type TableDiff struct {
	// Table is the table name.
	Table string

	// MissingTable marks a table absent from the actual dataset.
	MissingTable bool

	// ExtraTable marks a table absent from the expected dataset.
	ExtraTable bool

	// MissingColumns and ExtraColumns record column-set differences
	// relative to the expected table.
	MissingColumns []string
	ExtraColumns   []string

	// RowCountMismatch is set together with both counts when the row
	// counts differ.
	RowCountMismatch bool
	ExpectedRows     int
	ActualRows       int

	// Cells lists the mismatched cells.
	Cells []CellDiff
}

// Empty reports whether the table produced no findings.
func (d *TableDiff) Empty() bool {
	return d.Count() == 0
}

// Count returns the number of findings for the table.
func (d *TableDiff) Count() int {
	n := len(d.MissingColumns) + len(d.ExtraColumns) + len(d.Cells)
	if d.MissingTable {
		n++
	}
	if d.ExtraTable {
		n++
	}
	if d.RowCountMismatch {
		n++
	}
	return n
}

func (d *TableDiff) render(b *strings.Builder) {
	if d.MissingTable {
		fmt.Fprintf(b, "%s: table is missing\n", d.Table)
	}
	if d.ExtraTable {
		fmt.Fprintf(b, "%s: table is unexpected\n", d.Table)
	}
	if len(d.MissingColumns) > 0 {
		fmt.Fprintf(b, "%s: missing columns: %s\n", d.Table, strings.Join(d.MissingColumns, ", "))
	}
	if len(d.ExtraColumns) > 0 {
		fmt.Fprintf(b, "%s: extra columns: %s\n", d.Table, strings.Join(d.ExtraColumns, ", "))
	}
	if d.RowCountMismatch {
		fmt.Fprintf(b, "%s: expected %d rows, found %d\n", d.Table, d.ExpectedRows, d.ActualRows)
	}
	for _, cd := range d.Cells {
		fmt.Fprintf(b, "%s: row %d, %s: expected %s, found %s\n",
			d.Table, cd.Row, cd.Column, cd.Expected, cd.Actual)
	}
}

// Result aggregates the findings of one comparison. Discrepancies are
// reportable outcomes, not errors: an empty Result is the passing case.
type Result struct {
	// Tables holds the tables with findings, expected-dataset order
	// first, unexpected tables after.
	Tables []TableDiff
}

func (r *Result) add(d TableDiff) {
	r.Tables = append(r.Tables, d)
}

// Empty reports whether the comparison found no differences.
func (r *Result) Empty() bool {
	return len(r.Tables) == 0
}

// Count returns the total number of findings.
func (r *Result) Count() int {
	n := 0
	for i := range r.Tables {
		n += r.Tables[i].Count()
	}
	return n
}

// String renders one line per finding.
func (r *Result) String() string {
	var b strings.Builder
	for i := range r.Tables {
		r.Tables[i].render(&b)
	}
	return b.String()
}
