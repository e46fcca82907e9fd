package meterdb

import (
	"database/sql"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/NotCoffee418/p1_obis_reader/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// useTestDB points GetDB at a fresh database with the up migrations applied.
func useTestDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := OpenDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	migration, err := Migrations.ReadFile("migrations/0001_obis_readings.sql")
	require.NoError(t, err)
	up, _, found := strings.Cut(string(migration), "-- +down")
	require.True(t, found)
	_, err = conn.Exec(strings.TrimPrefix(up, "-- +up"))
	require.NoError(t, err)

	once = sync.Once{}
	once.Do(func() { db = conn })
	return conn
}

func sampleReading() *types.TelegramReading {
	energy := 2.331
	current := uint64(3)
	serial := "36303834303335343534"
	return &types.TelegramReading{
		Timestamp: "2024-05-01T12:00:00Z",
		CycleID:   "0b7d1f5e-3c2a-4f11-8d2e-9a7c6b5d4e3f",
		Valid:     true,
		OBIS: []types.ObisReading{
			{ID: "1-0:1.8.0", Code: "1.8.0", Type: "double", DValue: &energy, Unit: "kWh"},
			{ID: "1-0:31.7.0", Code: "31.7.0", Type: "int32", IValue: &current, Unit: "A"},
			{ID: "0-0:96.1.1", Code: "96.1.1", Type: "string", SValue: &serial},
			{ID: "0-0:96.7.21", Code: "96.7.21", Type: "none"},
		},
	}
}

func TestReadingsFromTelegram(t *testing.T) {
	rows := ReadingsFromTelegram(sampleReading())
	require.Len(t, rows, 3)

	assert.Equal(t, int64(1714564800), rows[0].Timestamp)
	assert.Equal(t, ValueDecimal, rows[0].ValueType)
	assert.True(t, rows[0].DValue.Valid)
	assert.InDelta(t, 2331, rows[0].BaseValue.Float64, 1e-9)
	assert.Equal(t, "Wh", rows[0].BaseUnit)

	assert.Equal(t, ValueInt32, rows[1].ValueType)
	assert.Equal(t, int64(3), rows[1].IValue.Int64)
	assert.Equal(t, "A", rows[1].BaseUnit)

	assert.Equal(t, ValueText, rows[2].ValueType)
	assert.Equal(t, "36303834303335343534", rows[2].SValue.String)
	assert.False(t, rows[2].BaseValue.Valid)
}

func TestInsertTelegramReading(t *testing.T) {
	conn := useTestDB(t)

	n, err := InsertTelegramReading(sampleReading())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	var count int
	require.NoError(t, conn.QueryRow("SELECT COUNT(*) FROM obis_readings WHERE cycle_id = ?", sampleReading().CycleID).Scan(&count))
	assert.Equal(t, 3, count)

	var base float64
	require.NoError(t, conn.QueryRow("SELECT base_value FROM obis_readings WHERE obis_id = '1-0:1.8.0'").Scan(&base))
	assert.InDelta(t, 2331, base, 1e-9)
}
