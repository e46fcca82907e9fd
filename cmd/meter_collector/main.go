// Responsible for storing the data collected from the smart meter
// Depends on the interpreter API being online.
package main

import (
	"fmt"

	"github.com/NotCoffee418/p1_obis_reader/pkg/aggregator"
	"github.com/NotCoffee418/p1_obis_reader/pkg/config"
	"github.com/NotCoffee418/p1_obis_reader/pkg/interpreter"
	"github.com/NotCoffee418/p1_obis_reader/pkg/logging"
	"github.com/NotCoffee418/p1_obis_reader/pkg/meterdb"
	"github.com/NotCoffee418/p1_obis_reader/pkg/pathing"
	"github.com/NotCoffee418/p1_obis_reader/pkg/types"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var logger *zap.Logger

func main() {
	if err := pathing.EnsureDirectories(); err != nil {
		panic(err)
	}
	if err := config.LoadMeterCollectorConfig(); err != nil {
		panic(fmt.Sprintf("Failed to load meter collector config: %v", err))
	}
	cfg := config.ActiveMeterCollectorConfig

	var err error
	logger, err = logging.Setup(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	// Initialize database
	meterdb.InitializeDatabase()

	// Aggregate on schedule
	cronLogger := logging.CronLogger(logger)
	scheduler := cron.New(cron.WithLogger(cronLogger), cron.WithChain(cron.Recover(cronLogger)))
	_, err = scheduler.AddFunc(cfg.AggregationSchedule, func() {
		if err := aggregator.AggregateAndCleanup(cfg.RetentionMonths); err != nil {
			logger.Error("Aggregation failed", zap.Error(err))
		}
	})
	if err != nil {
		logger.Fatal("Invalid aggregation schedule", zap.String("schedule", cfg.AggregationSchedule), zap.Error(err))
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Subscribe to websocket with revive
	interpreter.StartListener(cfg.InterpreterAPIHost, cfg.TLSEnabled, handleMeterReading)
}

// Handle meter reading data
func handleMeterReading(reading *types.TelegramReading) {
	if !reading.Valid {
		logger.Debug("Skipping invalid reading", zap.String("error", reading.Error))
		return
	}
	n, err := meterdb.InsertTelegramReading(reading)
	if err != nil {
		logger.Error("Failed to store reading", zap.String("cycle_id", reading.CycleID), zap.Error(err))
		return
	}
	logger.Debug("Stored reading", zap.String("cycle_id", reading.CycleID), zap.Int("items", n))
}
