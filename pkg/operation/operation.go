// Package operation applies a dataset to a database under one of the nine
// mutation strategies. Execution walks the tables in a computed order and
// fails fast: the first failing table aborts the run.
package operation

import "fmt"

// Operation is one mutation strategy.
type Operation int

const (
	// None performs no database work.
	None Operation = iota

	// Update updates existing rows by primary key. A row matching nothing
	// is a RowNotFoundError.
	Update

	// Insert inserts every row.
	Insert

	// Refresh updates each row by primary key, inserting rows that match
	// nothing.
	Refresh

	// Delete deletes rows by primary key. Absent rows are skipped.
	Delete

	// DeleteAll deletes every row of each dataset table.
	DeleteAll

	// TruncateTable empties each dataset table and resets its identity
	// counters.
	TruncateTable

	// CleanInsert deletes all rows of a table then inserts the dataset's
	// rows, table by table in one pass.
	CleanInsert

	// TruncateInsert truncates a table then inserts the dataset's rows,
	// table by table in one pass.
	TruncateInsert
)

var operationNames = map[Operation]string{
	None:           "NONE",
	Update:         "UPDATE",
	Insert:         "INSERT",
	Refresh:        "REFRESH",
	Delete:         "DELETE",
	DeleteAll:      "DELETE_ALL",
	TruncateTable:  "TRUNCATE_TABLE",
	CleanInsert:    "CLEAN_INSERT",
	TruncateInsert: "TRUNCATE_INSERT",
}

// Parse returns the operation with the given canonical name.
func Parse(name string) (Operation, error) {
	for op, n := range operationNames {
		if n == name {
			return op, nil
		}
	}
	return None, fmt.Errorf("unknown operation %q", name)
}

// String implements fmt.Stringer.
func (o Operation) String() string {
	if n, ok := operationNames[o]; ok {
		return n
	}
	return fmt.Sprintf("Operation(%d)", int(o))
}

// reversed reports whether the operation must walk tables children-first,
// so foreign key constraints see referencing rows removed before the rows
// they reference.
func (o Operation) reversed() bool {
	switch o {
	case Delete, DeleteAll, TruncateTable:
		return true
	default:
		return false
	}
}
