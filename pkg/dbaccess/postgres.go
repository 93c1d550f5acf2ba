package dbaccess

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	// Registers the pgx driver under database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/seijikohara/db-tester-sub006/pkg/ordering"
)

// Postgres is the dialect for PostgreSQL databases via the pgx stdlib
// driver.
var Postgres Dialect = postgresDialect{}

type postgresDialect struct{}

func (postgresDialect) Name() string { return "postgres" }

func (postgresDialect) Driver() string { return "pgx" }

func (postgresDialect) QuoteIdent(name string) string {
	return `"` + name + `"`
}

func (postgresDialect) Placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}

func (d postgresDialect) Truncate(ctx context.Context, db *sql.DB, table string) error {
	if err := validIdent(table); err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, "TRUNCATE TABLE "+d.QuoteIdent(table)+" RESTART IDENTITY"); err != nil {
		return fmt.Errorf("truncate %s: %w", table, err)
	}
	return nil
}

func (postgresDialect) PrimaryKey(ctx context.Context, db *sql.DB, table string) ([]string, error) {
	if err := validIdent(table); err != nil {
		return nil, err
	}
	const query = `
		SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name
		 AND tc.table_schema = kcu.table_schema
		WHERE tc.constraint_type = 'PRIMARY KEY'
		  AND tc.table_schema = current_schema()
		  AND tc.table_name = $1
		ORDER BY kcu.ordinal_position`

	rows, err := db.QueryContext(ctx, query, table)
	if err != nil {
		return nil, fmt.Errorf("primary key of %s: %w", table, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("primary key of %s: %w", table, err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("primary key of %s: %w", table, err)
	}
	return names, nil
}

func (postgresDialect) ForeignKeyEdges(ctx context.Context, db *sql.DB) ([]ordering.Edge, error) {
	const query = `
		SELECT tc.table_name, ccu.table_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.constraint_column_usage ccu
		  ON tc.constraint_name = ccu.constraint_name
		 AND tc.table_schema = ccu.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
		  AND tc.table_schema = current_schema()`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list foreign keys: %w", err)
	}
	defer rows.Close()

	var edges []ordering.Edge
	for rows.Next() {
		var child, parent string
		if err := rows.Scan(&child, &parent); err != nil {
			return nil, fmt.Errorf("list foreign keys: %w", err)
		}
		edges = append(edges, ordering.Edge{Child: child, Parent: parent})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list foreign keys: %w", err)
	}
	return edges, nil
}
