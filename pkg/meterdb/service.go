// MeterDB contains the OBIS readings collected from the interpreter API.
// This database should only be written to by meter_collector
// but can be read by any service.
package meterdb

import (
	"database/sql"
	"embed"
	"sync"

	"github.com/NotCoffee418/dbmigrator"
	"github.com/NotCoffee418/p1_obis_reader/pkg/pathing"
	"go.uber.org/zap"

	_ "modernc.org/sqlite"
)

var (
	db   *sql.DB
	once sync.Once
)

// Migrations holds the schema, applied in file name order.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// Initialize must be called manually on startup
func InitializeDatabase() {
	// Create DB before migrations
	db := GetDB()
	_, err := db.Exec("SELECT 1;")
	if err != nil {
		zap.L().Warn("could not create DB", zap.Error(err))
	}

	// Apply migrations
	dbmigrator.SetDatabaseType(dbmigrator.SQLite)
	<-dbmigrator.MigrateUpCh(
		db,
		Migrations,
		"migrations",
	)
}

func GetDB() *sql.DB {
	once.Do(func() {
		conn, err := OpenDatabase(pathing.GetMeterDbPath())
		if err != nil {
			zap.L().Fatal("open meter database", zap.Error(err))
		}
		db = conn
	})
	return db
}

// OpenDatabase opens and pings an sqlite database at path.
func OpenDatabase(path string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Verify connection
	if err = conn.Ping(); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}
