package operation

import "fmt"

// ExecutionError reports a database failure while applying one table.
type ExecutionError struct {
	// Table is the table being applied.
	Table string

	// Row is the zero-based index of the failing row within the fixture
	// table, or -1 when the failure is not row-scoped.
	Row int

	// Op is the operation being applied.
	Op Operation

	// Err is the underlying database error.
	Err error
}

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	if e.Row >= 0 {
		return fmt.Sprintf("apply %s to %s: row %d: %v", e.Op, e.Table, e.Row, e.Err)
	}
	return fmt.Sprintf("apply %s to %s: %v", e.Op, e.Table, e.Err)
}

// Unwrap returns the underlying error.
func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// RowNotFoundError reports a strict update whose primary key matched no
// database row.
type RowNotFoundError struct {
	// Table is the table being updated.
	Table string

	// Row is the zero-based index of the fixture row that matched nothing.
	Row int
}

// Error implements the error interface.
func (e *RowNotFoundError) Error() string {
	return fmt.Sprintf("update %s: row %d matches no database row", e.Table, e.Row)
}
