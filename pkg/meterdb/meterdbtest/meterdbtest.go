// Package meterdbtest opens throwaway meter databases for tests.
package meterdbtest

import (
	"database/sql"
	"io/fs"
	"path"
	"path/filepath"
	"strings"
	"testing"

	"github.com/NotCoffee418/p1_obis_reader/pkg/meterdb"
	"github.com/stretchr/testify/require"
)

// Open creates an empty database in t.TempDir() with the up section of
// every migration applied. It is closed when the test ends.
func Open(t testing.TB) *sql.DB {
	t.Helper()
	conn, err := meterdb.OpenDatabase(filepath.Join(t.TempDir(), "meter.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	entries, err := fs.ReadDir(meterdb.Migrations, "migrations")
	require.NoError(t, err)
	for _, entry := range entries {
		migration, err := fs.ReadFile(meterdb.Migrations, path.Join("migrations", entry.Name()))
		require.NoError(t, err)
		up, _, _ := strings.Cut(string(migration), "-- +down")
		_, err = conn.Exec(strings.TrimPrefix(up, "-- +up"))
		require.NoError(t, err, entry.Name())
	}
	return conn
}
