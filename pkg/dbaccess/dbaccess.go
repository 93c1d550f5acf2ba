// Package dbaccess connects the fixture pipeline to real databases. It
// defines the Access interface the executor and comparator work against,
// an implementation over database/sql with per-engine dialects, and a
// registry of named connections.
package dbaccess

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"

	"github.com/seijikohara/db-tester-sub006/pkg/dataset"
	"github.com/seijikohara/db-tester-sub006/pkg/ordering"
)

// Access is the database surface the engine needs: reading one table,
// writing rows under the primitive mutation shapes, and schema facts. All
// row-slice arguments follow the table's column list positionally.
type Access interface {
	// FetchTable reads every row of a table. Column order follows the
	// database result set; rows arrive in primary key order when the
	// table has one, in driver order otherwise.
	FetchTable(ctx context.Context, table string) (*dataset.Table, error)

	// InsertRows inserts every row of t. A failing row yields a RowError.
	InsertRows(ctx context.Context, t *dataset.Table) error

	// UpdateRows updates every row of t by primary key. A row matching
	// nothing yields a RowError wrapping ErrNoMatchingRow.
	UpdateRows(ctx context.Context, t *dataset.Table) error

	// MergeRows updates each row of t by primary key, inserting rows that
	// match nothing.
	MergeRows(ctx context.Context, t *dataset.Table) error

	// DeleteRows deletes each row of t by primary key. Rows matching
	// nothing are skipped.
	DeleteRows(ctx context.Context, t *dataset.Table) error

	// DeleteAll deletes every row of a table.
	DeleteAll(ctx context.Context, table string) error

	// Truncate empties a table and resets its identity counters.
	Truncate(ctx context.Context, table string) error

	// PrimaryKey returns the table's key columns in key order.
	PrimaryKey(ctx context.Context, table string) ([]string, error)

	// ForeignKeyEdges reports the schema's foreign key relationships.
	ForeignKeyEdges(ctx context.Context) ([]ordering.Edge, error)
}

// ErrNoMatchingRow reports a strict update that matched no database row.
var ErrNoMatchingRow = errors.New("no row matches the primary key")

// RowError locates a row-level failure inside a multi-row operation.
type RowError struct {
	// Index is the zero-based row position within the table being applied.
	Index int

	// Err is the underlying failure.
	Err error
}

// Error implements the error interface.
func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Index, e.Err)
}

// Unwrap returns the underlying error.
func (e *RowError) Unwrap() error {
	return e.Err
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// validIdent rejects table and column names that cannot be interpolated
// into SQL safely. Fixture file and header names feed directly into
// statements, so everything outside the plain identifier alphabet is
// refused.
func validIdent(name string) error {
	if !identPattern.MatchString(name) {
		return fmt.Errorf("invalid identifier %q", name)
	}
	return nil
}

// Open connects to a database and wraps it in a Handle. The driver name
// selects the dialect. SQLite connections are capped to one open
// connection, which keeps in-memory databases coherent and respects the
// single-writer model.
func Open(ctx context.Context, driver, dsn string) (*Handle, error) {
	dialect, err := DialectNamed(driver)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(dialect.Driver(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dialect.Name() == SQLite.Name() {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Handle{DB: db, Dialect: dialect, Access: New(db, dialect)}, nil
}
