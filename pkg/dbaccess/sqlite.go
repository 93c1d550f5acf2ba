package dbaccess

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	// Registers the sqlite3 driver.
	_ "github.com/mattn/go-sqlite3"

	"github.com/seijikohara/db-tester-sub006/pkg/ordering"
)

// SQLite is the dialect for SQLite databases via mattn/go-sqlite3.
var SQLite Dialect = sqliteDialect{}

type sqliteDialect struct{}

func (sqliteDialect) Name() string { return "sqlite" }

func (sqliteDialect) Driver() string { return "sqlite3" }

func (sqliteDialect) QuoteIdent(name string) string {
	return `"` + name + `"`
}

func (sqliteDialect) Placeholder(n int) string { return "?" }

// Truncate deletes all rows and resets the AUTOINCREMENT counter. The
// sqlite_sequence table only exists once some table declared AUTOINCREMENT,
// so a missing-table error on the reset is ignored.
func (d sqliteDialect) Truncate(ctx context.Context, db *sql.DB, table string) error {
	if err := validIdent(table); err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, "DELETE FROM "+d.QuoteIdent(table)); err != nil {
		return fmt.Errorf("truncate %s: %w", table, err)
	}
	if _, err := db.ExecContext(ctx, "DELETE FROM sqlite_sequence WHERE name = ?", table); err != nil {
		if !strings.Contains(err.Error(), "no such table") {
			return fmt.Errorf("reset sequence for %s: %w", table, err)
		}
	}
	return nil
}

func (d sqliteDialect) PrimaryKey(ctx context.Context, db *sql.DB, table string) ([]string, error) {
	if err := validIdent(table); err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, "PRAGMA table_info("+d.QuoteIdent(table)+")")
	if err != nil {
		return nil, fmt.Errorf("table_info %s: %w", table, err)
	}
	defer rows.Close()

	type keyCol struct {
		name string
		pos  int
	}
	var keys []keyCol
	for rows.Next() {
		var (
			cid     int
			name    string
			colType string
			notNull int
			dflt    any
			pk      int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("table_info %s: %w", table, err)
		}
		if pk > 0 {
			keys = append(keys, keyCol{name: name, pos: pk})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("table_info %s: %w", table, err)
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i].pos < keys[j].pos })
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.name
	}
	return names, nil
}

func (d sqliteDialect) ForeignKeyEdges(ctx context.Context, db *sql.DB) ([]ordering.Edge, error) {
	rows, err := db.QueryContext(ctx, "SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'")
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("list tables: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}

	var edges []ordering.Edge
	for _, child := range tables {
		if err := validIdent(child); err != nil {
			continue
		}
		fkRows, err := db.QueryContext(ctx, "PRAGMA foreign_key_list("+d.QuoteIdent(child)+")")
		if err != nil {
			return nil, fmt.Errorf("foreign_key_list %s: %w", child, err)
		}
		for fkRows.Next() {
			var (
				id, seq                     int
				parent, from                string
				to, onUpdate, onDelete, mat any
			)
			if err := fkRows.Scan(&id, &seq, &parent, &from, &to, &onUpdate, &onDelete, &mat); err != nil {
				fkRows.Close()
				return nil, fmt.Errorf("foreign_key_list %s: %w", child, err)
			}
			edges = append(edges, ordering.Edge{Child: child, Parent: parent})
		}
		if err := fkRows.Err(); err != nil {
			fkRows.Close()
			return nil, fmt.Errorf("foreign_key_list %s: %w", child, err)
		}
		fkRows.Close()
	}
	return edges, nil
}
