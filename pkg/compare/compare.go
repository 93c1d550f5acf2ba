// Package compare diffs an expected dataset against observed table
// contents and aggregates every discrepancy into a Result. Comparison
// never fails fast: every table is examined and every finding reported.
package compare

import (
	"sort"
	"strconv"
	"strings"

	sorted "github.com/tobshub/go-sortedmap"

	"github.com/seijikohara/db-tester-sub006/pkg/dataset"
)

// Comparator compares datasets cell by cell. The zero value applies the
// default equivalence rules to every column.
type Comparator struct {
	excluded  map[string]map[string]bool
	comparers map[string]map[string]Comparer
}

// Option configures a Comparator.
type Option func(*Comparator)

// WithExcludedColumns skips the named columns of one table during both
// structural and cell comparison.
func WithExcludedColumns(table string, columns ...string) Option {
	return func(c *Comparator) {
		if c.excluded == nil {
			c.excluded = make(map[string]map[string]bool)
		}
		set := c.excluded[table]
		if set == nil {
			set = make(map[string]bool)
			c.excluded[table] = set
		}
		for _, col := range columns {
			set[col] = true
		}
	}
}

// WithComparer compares one table's column with fn instead of the
// default equivalence rules.
func WithComparer(table, column string, fn Comparer) Option {
	return func(c *Comparator) {
		if c.comparers == nil {
			c.comparers = make(map[string]map[string]Comparer)
		}
		m := c.comparers[table]
		if m == nil {
			m = make(map[string]Comparer)
			c.comparers[table] = m
		}
		m[column] = fn
	}
}

// New returns a Comparator with the given options applied.
func New(opts ...Option) *Comparator {
	c := &Comparator{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compare diffs expected against actual. Tables are reported in
// expected-dataset order; tables only present in actual follow in their
// own order. A structural finding for a table suppresses its cell
// comparison but never the comparison of other tables.
func (c *Comparator) Compare(expected, actual *dataset.Dataset) *Result {
	res := &Result{}
	for _, et := range expected.Tables() {
		at, ok := actual.Table(et.Name)
		if !ok {
			res.add(TableDiff{Table: et.Name, MissingTable: true})
			continue
		}
		if d := c.compareTable(et, at); !d.Empty() {
			res.add(d)
		}
	}
	for _, at := range actual.Tables() {
		if _, ok := expected.Table(at.Name); !ok {
			res.add(TableDiff{Table: at.Name, ExtraTable: true})
		}
	}
	return res
}

func (c *Comparator) compareTable(expected, actual *dataset.Table) TableDiff {
	d := TableDiff{Table: expected.Name}

	ecols := c.keptColumns(expected)
	acols := c.keptColumns(actual)
	aset := make(map[string]bool, len(acols))
	for _, col := range acols {
		aset[col] = true
	}
	eset := make(map[string]bool, len(ecols))
	for _, col := range ecols {
		eset[col] = true
		if !aset[col] {
			d.MissingColumns = append(d.MissingColumns, col)
		}
	}
	for _, col := range acols {
		if !eset[col] {
			d.ExtraColumns = append(d.ExtraColumns, col)
		}
	}
	if len(d.MissingColumns) > 0 || len(d.ExtraColumns) > 0 {
		return d
	}

	if len(expected.Rows) != len(actual.Rows) {
		d.RowCountMismatch = true
		d.ExpectedRows = len(expected.Rows)
		d.ActualRows = len(actual.Rows)
		return d
	}

	// Sorting both sides by the same composite key makes the pairing
	// insensitive to row order on either side.
	keyCols := append([]string(nil), ecols...)
	sort.Strings(keyCols)
	eidx := columnIndexes(expected)
	aidx := columnIndexes(actual)
	erows := sortRows(expected, keyCols, eidx)
	arows := sortRows(actual, keyCols, aidx)

	for i := range erows {
		for _, col := range ecols {
			ev := erows[i][eidx[col]]
			av := arows[i][aidx[col]]
			if c.comparer(expected.Name, col)(ev, av) {
				continue
			}
			d.Cells = append(d.Cells, CellDiff{Row: i, Column: col, Expected: ev, Actual: av})
		}
	}
	return d
}

func (c *Comparator) keptColumns(t *dataset.Table) []string {
	ex := c.excluded[t.Name]
	out := make([]string, 0, len(t.Columns))
	for _, col := range t.Columns {
		if ex[col] {
			continue
		}
		out = append(out, col)
	}
	return out
}

func (c *Comparator) comparer(table, column string) Comparer {
	if m := c.comparers[table]; m != nil {
		if fn := m[column]; fn != nil {
			return fn
		}
	}
	return Equivalent
}

func columnIndexes(t *dataset.Table) map[string]int {
	idx := make(map[string]int, len(t.Columns))
	for i, col := range t.Columns {
		idx[col] = i
	}
	return idx
}

type keyedRow struct {
	key string
	row dataset.Row
}

// sortRows returns the table's rows ordered by the composite key built
// from the given columns.
func sortRows(t *dataset.Table, keyColumns []string, idx map[string]int) []dataset.Row {
	m := sorted.New[int, keyedRow](len(t.Rows), func(a, b keyedRow) bool {
		return a.key < b.key
	})
	for i, row := range t.Rows {
		m.Insert(i, keyedRow{key: rowKey(row, keyColumns, idx), row: row})
	}
	out := make([]dataset.Row, 0, len(t.Rows))
	for _, k := range m.Keys() {
		kr, _ := m.Get(k)
		out = append(out, kr.row)
	}
	return out
}

// rowKey length-prefixes each column's key part so distinct rows can
// never collide on the joined form.
func rowKey(row dataset.Row, keyColumns []string, idx map[string]int) string {
	var b strings.Builder
	for _, col := range keyColumns {
		part := row[idx[col]].Key()
		b.WriteString(strconv.Itoa(len(part)))
		b.WriteByte(':')
		b.WriteString(part)
	}
	return b.String()
}
