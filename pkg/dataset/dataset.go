// Package dataset defines the in-memory model shared by every stage of the
// fixture pipeline: an ordered collection of named tables, each holding an
// ordered column list and positional rows of cell values.
//
// The model is database-agnostic. Parsers produce datasets, the executor
// writes them to a database, and the comparator diffs an expected dataset
// against a fetched one.
package dataset

import (
	"fmt"
	"slices"
)

// Row is one table row, positionally aligned with the table's columns.
type Row []Value

// Clone returns a copy of the row.
func (r Row) Clone() Row {
	return slices.Clone(r)
}

// Table is a named table: an ordered column list plus rows. Every row has
// exactly one value per column.
//
// Rows may carry a scenario tag (set by parsers when the source file has a
// scenario marker column). Tags narrow the table to one scenario via
// FilterScenario; untagged rows belong to every scenario.
type Table struct {
	Name    string
	Columns []string
	Rows    []Row

	// Scenarios holds the per-row scenario tags. It is nil when the source
	// had no marker column; otherwise it has one entry per row, "" meaning
	// the row belongs to every scenario.
	Scenarios []string
}

// NewTable returns an empty table with the given name and columns.
func NewTable(name string, columns ...string) *Table {
	return &Table{Name: name, Columns: slices.Clone(columns)}
}

// AppendRow appends an untagged row. The row must have exactly one value
// per column.
func (t *Table) AppendRow(r Row) error {
	return t.AppendScenarioRow("", r)
}

// AppendScenarioRow appends a row tagged with the given scenario name.
// An empty scenario tags the row as belonging to every scenario.
func (t *Table) AppendScenarioRow(scenario string, r Row) error {
	if len(r) != len(t.Columns) {
		return fmt.Errorf("table %s: row has %d values, want %d", t.Name, len(r), len(t.Columns))
	}
	if scenario != "" && t.Scenarios == nil {
		t.Scenarios = make([]string, len(t.Rows))
	}
	t.Rows = append(t.Rows, r)
	if t.Scenarios != nil {
		t.Scenarios = append(t.Scenarios, scenario)
	}
	return nil
}

// Scenario returns the scenario tag of row i, or "" when the row is
// untagged.
func (t *Table) Scenario(i int) string {
	if t.Scenarios == nil || i >= len(t.Scenarios) {
		return ""
	}
	return t.Scenarios[i]
}

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	return slices.Index(t.Columns, name)
}

// Value returns the cell at (row, column name). The second result is false
// when the column does not exist or the row index is out of range.
func (t *Table) Value(row int, column string) (Value, bool) {
	c := t.ColumnIndex(column)
	if c < 0 || row < 0 || row >= len(t.Rows) {
		return Value{}, false
	}
	return t.Rows[row][c], true
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	c := &Table{
		Name:    t.Name,
		Columns: slices.Clone(t.Columns),
		Rows:    make([]Row, len(t.Rows)),
	}
	for i, r := range t.Rows {
		c.Rows[i] = r.Clone()
	}
	if t.Scenarios != nil {
		c.Scenarios = slices.Clone(t.Scenarios)
	}
	return c
}

// Equal reports whether two tables have the same name, columns, rows and
// scenario tags, all order-sensitive.
func (t *Table) Equal(o *Table) bool {
	if t.Name != o.Name || !slices.Equal(t.Columns, o.Columns) || len(t.Rows) != len(o.Rows) {
		return false
	}
	for i, r := range t.Rows {
		if !slices.EqualFunc(r, o.Rows[i], Value.Equal) {
			return false
		}
		if t.Scenario(i) != o.Scenario(i) {
			return false
		}
	}
	return true
}

// Dataset is an ordered collection of tables with unique names.
type Dataset struct {
	tables []*Table
	index  map[string]int

	// DeclaredOrder is the table order from a load-order file, when the
	// source directory carried one. It is nil otherwise.
	DeclaredOrder []string
}

// New returns an empty dataset.
func New() *Dataset {
	return &Dataset{index: make(map[string]int)}
}

// Append adds a table. Table names are unique within a dataset.
func (d *Dataset) Append(t *Table) error {
	if d.index == nil {
		d.index = make(map[string]int)
	}
	if _, ok := d.index[t.Name]; ok {
		return fmt.Errorf("duplicate table %s", t.Name)
	}
	d.index[t.Name] = len(d.tables)
	d.tables = append(d.tables, t)
	return nil
}

// Table returns the named table.
func (d *Dataset) Table(name string) (*Table, bool) {
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return d.tables[i], true
}

// Tables returns the tables in dataset order. The slice is shared; callers
// must not modify it.
func (d *Dataset) Tables() []*Table {
	return d.tables
}

// TableNames returns the table names in dataset order.
func (d *Dataset) TableNames() []string {
	names := make([]string, len(d.tables))
	for i, t := range d.tables {
		names[i] = t.Name
	}
	return names
}

// Len returns the number of tables.
func (d *Dataset) Len() int {
	return len(d.tables)
}

// Equal reports whether two datasets hold equal tables. Table order is
// ignored; table content comparison is order-sensitive.
func (d *Dataset) Equal(o *Dataset) bool {
	if d.Len() != o.Len() {
		return false
	}
	for _, t := range d.tables {
		ot, ok := o.Table(t.Name)
		if !ok || !t.Equal(ot) {
			return false
		}
	}
	return true
}
