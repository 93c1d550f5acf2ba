package dbaccess

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/seijikohara/db-tester-sub006/pkg/dataset"
	"github.com/seijikohara/db-tester-sub006/pkg/ordering"
)

// SQL implements Access over a database/sql handle with a Dialect.
type SQL struct {
	db      *sql.DB
	dialect Dialect

	mu      sync.RWMutex
	pkCache map[string][]string
}

// New wraps a database handle in an Access implementation.
func New(db *sql.DB, dialect Dialect) *SQL {
	return &SQL{db: db, dialect: dialect, pkCache: make(map[string][]string)}
}

// FetchTable implements Access. Rows come back ordered by primary key
// when the table has one, so repeated fetches are deterministic.
func (s *SQL) FetchTable(ctx context.Context, table string) (*dataset.Table, error) {
	if err := validIdent(table); err != nil {
		return nil, err
	}
	query := "SELECT * FROM " + s.dialect.QuoteIdent(table)
	if pk, err := s.PrimaryKey(ctx, table); err == nil && len(pk) > 0 {
		quoted := make([]string, len(pk))
		for i, c := range pk {
			quoted[i] = s.dialect.QuoteIdent(c)
		}
		query += " ORDER BY " + strings.Join(quoted, ", ")
	}
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", table, err)
	}
	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", table, err)
	}
	blob := make([]bool, len(cols))
	for i, ct := range colTypes {
		blob[i] = blobType(ct.DatabaseTypeName())
	}

	tbl := dataset.NewTable(table, cols...)
	for rows.Next() {
		raw := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("fetch %s: %w", table, err)
		}
		row := make(dataset.Row, len(cols))
		for i, v := range raw {
			row[i] = scanValue(v, blob[i])
		}
		if err := tbl.AppendRow(row); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", table, err)
	}
	return tbl, nil
}

// blobType reports whether a driver column type holds binary content.
// Text columns arrive as []byte from some drivers, so the declared type
// decides between text and binary, defaulting to text.
func blobType(name string) bool {
	switch strings.ToUpper(name) {
	case "BLOB", "BYTEA", "BINARY", "VARBINARY", "TINYBLOB", "MEDIUMBLOB", "LONGBLOB":
		return true
	default:
		return false
	}
}

// scanValue maps one scanned database value into the cell model.
func scanValue(v any, blob bool) dataset.Value {
	switch x := v.(type) {
	case nil:
		return dataset.Null()
	case string:
		return dataset.String(x)
	case []byte:
		if blob {
			return dataset.Binary(x)
		}
		return dataset.String(string(x))
	case int64:
		return dataset.String(strconv.FormatInt(x, 10))
	case float64:
		return dataset.String(strconv.FormatFloat(x, 'g', -1, 64))
	case bool:
		if x {
			return dataset.String("true")
		}
		return dataset.String("false")
	case time.Time:
		return dataset.String(x.Format(time.RFC3339Nano))
	default:
		return dataset.String(fmt.Sprintf("%v", x))
	}
}

// rowArgs renders a row as statement arguments, picking the listed column
// positions.
func rowArgs(row dataset.Row, idx []int) []any {
	args := make([]any, len(idx))
	for i, j := range idx {
		v := row[j]
		switch {
		case v.IsNull():
			args[i] = nil
		case v.IsBinary():
			args[i] = v.Bytes()
		default:
			args[i] = v.Text()
		}
	}
	return args
}

// InsertRows implements Access.
func (s *SQL) InsertRows(ctx context.Context, t *dataset.Table) error {
	if len(t.Rows) == 0 {
		return nil
	}
	if err := s.checkTable(t); err != nil {
		return err
	}
	stmt, err := s.db.PrepareContext(ctx, s.insertQuery(t.Columns, t.Name))
	if err != nil {
		return fmt.Errorf("prepare insert into %s: %w", t.Name, err)
	}
	defer stmt.Close()

	all := indexRange(len(t.Columns))
	for i, row := range t.Rows {
		if _, err := stmt.ExecContext(ctx, rowArgs(row, all)...); err != nil {
			return &RowError{Index: i, Err: err}
		}
	}
	return nil
}

// UpdateRows implements Access.
func (s *SQL) UpdateRows(ctx context.Context, t *dataset.Table) error {
	if len(t.Rows) == 0 {
		return nil
	}
	if err := s.checkTable(t); err != nil {
		return err
	}
	keyIdx, nonKeyIdx, err := s.splitKey(ctx, t)
	if err != nil {
		return err
	}
	if len(nonKeyIdx) == 0 {
		return fmt.Errorf("update %s: every column belongs to the primary key, nothing to set", t.Name)
	}
	stmt, err := s.db.PrepareContext(ctx, s.updateQuery(t, keyIdx, nonKeyIdx))
	if err != nil {
		return fmt.Errorf("prepare update of %s: %w", t.Name, err)
	}
	defer stmt.Close()

	for i, row := range t.Rows {
		args := append(rowArgs(row, nonKeyIdx), rowArgs(row, keyIdx)...)
		res, err := stmt.ExecContext(ctx, args...)
		if err != nil {
			return &RowError{Index: i, Err: err}
		}
		n, err := res.RowsAffected()
		if err != nil {
			return &RowError{Index: i, Err: err}
		}
		if n == 0 {
			return &RowError{Index: i, Err: ErrNoMatchingRow}
		}
	}
	return nil
}

// MergeRows implements Access.
func (s *SQL) MergeRows(ctx context.Context, t *dataset.Table) error {
	if len(t.Rows) == 0 {
		return nil
	}
	if err := s.checkTable(t); err != nil {
		return err
	}
	keyIdx, nonKeyIdx, err := s.splitKey(ctx, t)
	if err != nil {
		return err
	}
	insert, err := s.db.PrepareContext(ctx, s.insertQuery(t.Columns, t.Name))
	if err != nil {
		return fmt.Errorf("prepare insert into %s: %w", t.Name, err)
	}
	defer insert.Close()

	all := indexRange(len(t.Columns))

	// A table whose columns are all key columns has nothing to update;
	// rows either exist already or get inserted.
	if len(nonKeyIdx) == 0 {
		exists, err := s.db.PrepareContext(ctx, s.existsQuery(t, keyIdx))
		if err != nil {
			return fmt.Errorf("prepare lookup of %s: %w", t.Name, err)
		}
		defer exists.Close()
		for i, row := range t.Rows {
			var n int
			if err := exists.QueryRowContext(ctx, rowArgs(row, keyIdx)...).Scan(&n); err != nil {
				return &RowError{Index: i, Err: err}
			}
			if n > 0 {
				continue
			}
			if _, err := insert.ExecContext(ctx, rowArgs(row, all)...); err != nil {
				return &RowError{Index: i, Err: err}
			}
		}
		return nil
	}

	update, err := s.db.PrepareContext(ctx, s.updateQuery(t, keyIdx, nonKeyIdx))
	if err != nil {
		return fmt.Errorf("prepare update of %s: %w", t.Name, err)
	}
	defer update.Close()

	for i, row := range t.Rows {
		args := append(rowArgs(row, nonKeyIdx), rowArgs(row, keyIdx)...)
		res, err := update.ExecContext(ctx, args...)
		if err != nil {
			return &RowError{Index: i, Err: err}
		}
		n, err := res.RowsAffected()
		if err != nil {
			return &RowError{Index: i, Err: err}
		}
		if n > 0 {
			continue
		}
		if _, err := insert.ExecContext(ctx, rowArgs(row, all)...); err != nil {
			return &RowError{Index: i, Err: err}
		}
	}
	return nil
}

// DeleteRows implements Access.
func (s *SQL) DeleteRows(ctx context.Context, t *dataset.Table) error {
	if len(t.Rows) == 0 {
		return nil
	}
	if err := s.checkTable(t); err != nil {
		return err
	}
	keyIdx, _, err := s.splitKey(ctx, t)
	if err != nil {
		return err
	}
	stmt, err := s.db.PrepareContext(ctx, s.deleteQuery(t, keyIdx))
	if err != nil {
		return fmt.Errorf("prepare delete from %s: %w", t.Name, err)
	}
	defer stmt.Close()

	for i, row := range t.Rows {
		// Absent rows are fine: deleting is idempotent.
		if _, err := stmt.ExecContext(ctx, rowArgs(row, keyIdx)...); err != nil {
			return &RowError{Index: i, Err: err}
		}
	}
	return nil
}

// DeleteAll implements Access.
func (s *SQL) DeleteAll(ctx context.Context, table string) error {
	if err := validIdent(table); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM "+s.dialect.QuoteIdent(table)); err != nil {
		return fmt.Errorf("delete all from %s: %w", table, err)
	}
	return nil
}

// Truncate implements Access.
func (s *SQL) Truncate(ctx context.Context, table string) error {
	return s.dialect.Truncate(ctx, s.db, table)
}

// PrimaryKey implements Access. Results are cached per table.
func (s *SQL) PrimaryKey(ctx context.Context, table string) ([]string, error) {
	s.mu.RLock()
	pk, ok := s.pkCache[table]
	s.mu.RUnlock()
	if ok {
		return slices.Clone(pk), nil
	}
	pk, err := s.dialect.PrimaryKey(ctx, s.db, table)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.pkCache[table] = pk
	s.mu.Unlock()
	return slices.Clone(pk), nil
}

// ForeignKeyEdges implements Access and ordering.Oracle.
func (s *SQL) ForeignKeyEdges(ctx context.Context) ([]ordering.Edge, error) {
	return s.dialect.ForeignKeyEdges(ctx, s.db)
}

func (s *SQL) checkTable(t *dataset.Table) error {
	if err := validIdent(t.Name); err != nil {
		return err
	}
	if len(t.Columns) == 0 {
		return fmt.Errorf("table %s has no columns", t.Name)
	}
	for _, c := range t.Columns {
		if err := validIdent(c); err != nil {
			return fmt.Errorf("table %s: %w", t.Name, err)
		}
	}
	return nil
}

// splitKey partitions the table's column positions into primary key and
// non-key columns.
func (s *SQL) splitKey(ctx context.Context, t *dataset.Table) (keyIdx, nonKeyIdx []int, err error) {
	pk, err := s.PrimaryKey(ctx, t.Name)
	if err != nil {
		return nil, nil, err
	}
	if len(pk) == 0 {
		return nil, nil, fmt.Errorf("table %s has no primary key", t.Name)
	}
	for _, k := range pk {
		i := t.ColumnIndex(k)
		if i < 0 {
			return nil, nil, fmt.Errorf("table %s: fixture lacks key column %s", t.Name, k)
		}
		keyIdx = append(keyIdx, i)
	}
	for i, c := range t.Columns {
		if !slices.Contains(pk, c) {
			nonKeyIdx = append(nonKeyIdx, i)
		}
	}
	return keyIdx, nonKeyIdx, nil
}

func (s *SQL) insertQuery(columns []string, table string) string {
	quoted := make([]string, len(columns))
	ph := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = s.dialect.QuoteIdent(c)
		ph[i] = s.dialect.Placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		s.dialect.QuoteIdent(table), strings.Join(quoted, ", "), strings.Join(ph, ", "))
}

func (s *SQL) updateQuery(t *dataset.Table, keyIdx, nonKeyIdx []int) string {
	sets := make([]string, len(nonKeyIdx))
	n := 0
	for i, j := range nonKeyIdx {
		n++
		sets[i] = s.dialect.QuoteIdent(t.Columns[j]) + " = " + s.dialect.Placeholder(n)
	}
	where := make([]string, len(keyIdx))
	for i, j := range keyIdx {
		n++
		where[i] = s.dialect.QuoteIdent(t.Columns[j]) + " = " + s.dialect.Placeholder(n)
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE %s",
		s.dialect.QuoteIdent(t.Name), strings.Join(sets, ", "), strings.Join(where, " AND "))
}

func (s *SQL) deleteQuery(t *dataset.Table, keyIdx []int) string {
	where := make([]string, len(keyIdx))
	for i, j := range keyIdx {
		where[i] = s.dialect.QuoteIdent(t.Columns[j]) + " = " + s.dialect.Placeholder(i+1)
	}
	return fmt.Sprintf("DELETE FROM %s WHERE %s",
		s.dialect.QuoteIdent(t.Name), strings.Join(where, " AND "))
}

func (s *SQL) existsQuery(t *dataset.Table, keyIdx []int) string {
	where := make([]string, len(keyIdx))
	for i, j := range keyIdx {
		where[i] = s.dialect.QuoteIdent(t.Columns[j]) + " = " + s.dialect.Placeholder(i+1)
	}
	return fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s",
		s.dialect.QuoteIdent(t.Name), strings.Join(where, " AND "))
}

func indexRange(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}
