package compare

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seijikohara/db-tester-sub006/pkg/dataset"
)

func makeTable(t *testing.T, name string, columns []string, rows ...dataset.Row) *dataset.Table {
	t.Helper()
	tbl := dataset.NewTable(name, columns...)
	for _, r := range rows {
		require.NoError(t, tbl.AppendRow(r))
	}
	return tbl
}

func makeDataset(t *testing.T, tables ...*dataset.Table) *dataset.Dataset {
	t.Helper()
	ds := dataset.New()
	for _, tbl := range tables {
		require.NoError(t, ds.Append(tbl))
	}
	return ds
}

func textRow(vals ...string) dataset.Row {
	row := make(dataset.Row, len(vals))
	for i, v := range vals {
		row[i] = dataset.String(v)
	}
	return row
}

func TestCompare_IdenticalDatasets(t *testing.T) {
	expected := makeDataset(t, makeTable(t, "USERS", []string{"ID", "NAME"},
		textRow("1", "alice"),
		textRow("2", "bob"),
	))
	actual := makeDataset(t, makeTable(t, "USERS", []string{"ID", "NAME"},
		textRow("1", "alice"),
		textRow("2", "bob"),
	))

	var c Comparator
	res := c.Compare(expected, actual)
	assert.True(t, res.Empty())
	assert.Zero(t, res.Count())
	assert.Empty(t, res.String())
}

func TestCompare_RowOrderInsensitive(t *testing.T) {
	expected := makeDataset(t, makeTable(t, "USERS", []string{"ID", "NAME"},
		textRow("1", "A"),
		textRow("2", "B"),
	))
	actual := makeDataset(t, makeTable(t, "USERS", []string{"ID", "NAME"},
		textRow("2", "B"),
		textRow("1", "A"),
	))

	res := New().Compare(expected, actual)
	assert.True(t, res.Empty())
}

func TestCompare_ColumnOrderInsensitive(t *testing.T) {
	expected := makeDataset(t, makeTable(t, "USERS", []string{"ID", "NAME"},
		textRow("1", "alice"),
	))
	actual := makeDataset(t, makeTable(t, "USERS", []string{"NAME", "ID"},
		textRow("alice", "1"),
	))

	res := New().Compare(expected, actual)
	assert.True(t, res.Empty())
}

func TestCompare_MissingAndExtraTables(t *testing.T) {
	expected := makeDataset(t, makeTable(t, "USERS", []string{"ID"}, textRow("1")))
	actual := makeDataset(t, makeTable(t, "AUDIT", []string{"ID"}, textRow("1")))

	res := New().Compare(expected, actual)
	require.Len(t, res.Tables, 2)
	assert.Equal(t, "USERS", res.Tables[0].Table)
	assert.True(t, res.Tables[0].MissingTable)
	assert.Equal(t, "AUDIT", res.Tables[1].Table)
	assert.True(t, res.Tables[1].ExtraTable)
}

func TestCompare_ColumnMismatchSkipsCells(t *testing.T) {
	expected := makeDataset(t, makeTable(t, "ORDERS", []string{"ID", "AMOUNT"},
		textRow("1", "9.50"),
	))
	actual := makeDataset(t, makeTable(t, "ORDERS", []string{"ID", "TOTAL"},
		textRow("2", "12.00"),
	))

	res := New().Compare(expected, actual)
	require.Len(t, res.Tables, 1)
	d := res.Tables[0]
	assert.Equal(t, []string{"AMOUNT"}, d.MissingColumns)
	assert.Equal(t, []string{"TOTAL"}, d.ExtraColumns)
	assert.False(t, d.RowCountMismatch)
	assert.Empty(t, d.Cells)
}

func TestCompare_RowCountMismatchSkipsCells(t *testing.T) {
	expected := makeDataset(t, makeTable(t, "TAGS", []string{"NAME"},
		textRow("x"),
		textRow("y"),
	))
	actual := makeDataset(t, makeTable(t, "TAGS", []string{"NAME"},
		textRow("z"),
	))

	res := New().Compare(expected, actual)
	require.Len(t, res.Tables, 1)
	d := res.Tables[0]
	assert.True(t, d.RowCountMismatch)
	assert.Equal(t, 2, d.ExpectedRows)
	assert.Equal(t, 1, d.ActualRows)
	assert.Empty(t, d.Cells)
}

func TestCompare_CellMismatches(t *testing.T) {
	expected := makeDataset(t,
		makeTable(t, "USERS", []string{"ID", "NAME"},
			textRow("1", "alice"),
			textRow("2", "bob"),
		),
		makeTable(t, "GROUPS", []string{"ID"},
			textRow("1"),
		),
	)
	// USERS rows arrive reordered; GROUPS has a row count mismatch. Both
	// tables must be reported.
	actual := makeDataset(t,
		makeTable(t, "USERS", []string{"ID", "NAME"},
			textRow("2", "bob"),
			textRow("1", "alicia"),
		),
		makeTable(t, "GROUPS", []string{"ID"}),
	)

	res := New().Compare(expected, actual)
	require.Len(t, res.Tables, 2)
	assert.Equal(t, 2, res.Count())

	users := res.Tables[0]
	require.Len(t, users.Cells, 1)
	assert.Equal(t, CellDiff{
		Row:      0,
		Column:   "NAME",
		Expected: dataset.String("alice"),
		Actual:   dataset.String("alicia"),
	}, users.Cells[0])

	assert.True(t, res.Tables[1].RowCountMismatch)
}

func TestCompare_NullIsNotEmpty(t *testing.T) {
	expected := makeDataset(t, makeTable(t, "USERS", []string{"ID", "EMAIL"},
		dataset.Row{dataset.String("1"), dataset.String("")},
	))
	actual := makeDataset(t, makeTable(t, "USERS", []string{"ID", "EMAIL"},
		dataset.Row{dataset.String("1"), dataset.Null()},
	))

	res := New().Compare(expected, actual)
	require.Equal(t, 1, res.Count())
	d := res.Tables[0]
	assert.Equal(t, "EMAIL", d.Cells[0].Column)
	assert.True(t, d.Cells[0].Actual.IsNull())
}

func TestCompare_ExcludedColumns(t *testing.T) {
	c := New(WithExcludedColumns("USERS", "UPDATED_AT"))

	expected := makeDataset(t, makeTable(t, "USERS", []string{"ID", "NAME", "UPDATED_AT"},
		textRow("1", "alice", "2024-01-01 00:00:00"),
	))

	// Excluded column carries a different value.
	actual := makeDataset(t, makeTable(t, "USERS", []string{"ID", "NAME", "UPDATED_AT"},
		textRow("1", "alice", "2025-06-07 08:09:10"),
	))
	assert.True(t, c.Compare(expected, actual).Empty())

	// Excluded column missing entirely is not a structural finding.
	actual = makeDataset(t, makeTable(t, "USERS", []string{"ID", "NAME"},
		textRow("1", "alice"),
	))
	assert.True(t, c.Compare(expected, actual).Empty())
}

func TestCompare_CustomComparer(t *testing.T) {
	anyValue := func(expected, actual dataset.Value) bool { return true }
	c := New(WithComparer("EVENTS", "CREATED_AT", anyValue))

	expected := makeDataset(t, makeTable(t, "EVENTS", []string{"ID", "CREATED_AT"},
		textRow("1", "whenever"),
	))
	actual := makeDataset(t, makeTable(t, "EVENTS", []string{"ID", "CREATED_AT"},
		textRow("1", "2024-05-05 01:02:03"),
	))

	assert.True(t, c.Compare(expected, actual).Empty())
	assert.False(t, New().Compare(expected, actual).Empty())
}

func TestCompare_NormalizedCellEquality(t *testing.T) {
	expected := makeDataset(t, makeTable(t, "NUMS", []string{"ID", "RATIO", "ACTIVE"},
		textRow("1", "1.5", "TRUE"),
	))
	actual := makeDataset(t, makeTable(t, "NUMS", []string{"ID", "RATIO", "ACTIVE"},
		textRow("1", "1.50", "1"),
	))

	assert.True(t, New().Compare(expected, actual).Empty())
}

func TestCompare_DuplicateRows(t *testing.T) {
	expected := makeDataset(t, makeTable(t, "TAGS", []string{"NAME"},
		textRow("x"),
		textRow("x"),
	))
	actual := makeDataset(t, makeTable(t, "TAGS", []string{"NAME"},
		textRow("x"),
		textRow("x"),
	))

	assert.True(t, New().Compare(expected, actual).Empty())
}
