package dbaccess

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/seijikohara/db-tester-sub006/pkg/ordering"
)

// Dialect adapts SQL generation and schema introspection to one database
// engine.
type Dialect interface {
	// Name identifies the dialect in configuration and flags.
	Name() string

	// Driver is the database/sql driver name the dialect opens with.
	Driver() string

	// QuoteIdent quotes a table or column identifier.
	QuoteIdent(name string) string

	// Placeholder renders the 1-based n-th statement parameter.
	Placeholder(n int) string

	// Truncate empties a table and resets its identity counters.
	Truncate(ctx context.Context, db *sql.DB, table string) error

	// PrimaryKey returns the table's key columns in key order. An empty
	// result means the table has no primary key.
	PrimaryKey(ctx context.Context, db *sql.DB, table string) ([]string, error)

	// ForeignKeyEdges returns every child-references-parent relationship
	// visible in the connected schema.
	ForeignKeyEdges(ctx context.Context, db *sql.DB) ([]ordering.Edge, error)
}

// DialectNamed returns the dialect for a driver or dialect name.
func DialectNamed(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	default:
		return nil, fmt.Errorf("unknown database dialect %q (want sqlite or postgres)", name)
	}
}
