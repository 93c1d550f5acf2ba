package testutil

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/seijikohara/db-tester-sub006/pkg/dbaccess"
)

// OpenSQLite opens an isolated in-memory database with foreign key
// enforcement on, closed when the test finishes.
func OpenSQLite(t *testing.T) *dbaccess.Handle {
	t.Helper()
	h, err := dbaccess.Open(context.Background(), "sqlite", "file::memory:?_fk=1")
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })
	return h
}

// Exec runs each statement against the handle, failing the test on error.
func Exec(t *testing.T, h *dbaccess.Handle, stmts ...string) {
	t.Helper()
	for _, stmt := range stmts {
		_, err := h.DB.ExecContext(context.Background(), stmt)
		require.NoError(t, err)
	}
}

// WriteFixtures writes the given file contents into a fresh temporary
// directory and returns its path. Keys may contain slashes to create
// subdirectories.
func WriteFixtures(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

// DiscardLogger returns a logger that drops every record.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
