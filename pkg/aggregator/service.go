package aggregator

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/NotCoffee418/p1_obis_reader/pkg/meterdb"
	"go.uber.org/zap"
)

const DefaultRetentionMonths = 3

// roundToHourStart returns the Unix timestamp of the start of the hour for the given time
func roundToHourStart(t time.Time) int64 {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, time.UTC).Unix()
}

// roundToDayStart returns the Unix timestamp of the start of the day for the given time
func roundToDayStart(t time.Time) int64 {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).Unix()
}

// getHourEnd returns the Unix timestamp of the last second of the hour (next hour start - 1)
func getHourEnd(hourStart int64) int64 {
	return time.Unix(hourStart, 0).Add(time.Hour).Unix() - 1
}

// getDayEnd returns the Unix timestamp of the last second of the day (next day start - 1)
func getDayEnd(dayStart int64) int64 {
	return time.Unix(dayStart, 0).UTC().AddDate(0, 0, 1).Unix() - 1
}

// aggregateObis computes avg/min/max/last of every numeric OBIS item
// within the timeframe starting at start.
func aggregateObis(db *sql.DB, tf Timeframe, start int64) (int, error) {
	end := tf.end(start)
	table, startColumn := tf.table()

	query := `
		SELECT
			r.obis_id,
			MAX(r.unit),
			AVG(COALESCE(r.dvalue, r.ivalue)),
			MIN(COALESCE(r.dvalue, r.ivalue)),
			MAX(COALESCE(r.dvalue, r.ivalue)),
			COUNT(*),
			(
				SELECT COALESCE(l.dvalue, l.ivalue)
				FROM obis_readings l
				WHERE l.obis_id = r.obis_id AND l.timestamp >= ? AND l.timestamp <= ?
					AND l.value_type IN (?, ?, ?)
				ORDER BY l.timestamp DESC, l.id DESC
				LIMIT 1
			)
		FROM obis_readings r
		WHERE r.timestamp >= ? AND r.timestamp <= ? AND r.value_type IN (?, ?, ?)
		GROUP BY r.obis_id
	`
	numeric := []any{meterdb.ValueDecimal, meterdb.ValueInt32, meterdb.ValueInt64}
	args := append([]any{start, end}, numeric...)
	args = append(args, start, end)
	args = append(args, numeric...)

	rows, err := db.Query(query, args...)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var aggregates []meterdb.AggregateObisTable
	for rows.Next() {
		a := meterdb.AggregateObisTable{StartTime: start}
		if err := rows.Scan(&a.ObisID, &a.Unit, &a.AvgValue, &a.MinValue, &a.MaxValue, &a.SampleCount, &a.LastValue); err != nil {
			return 0, err
		}
		aggregates = append(aggregates, a)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	// Only insert if we have data
	if len(aggregates) == 0 {
		return 0, nil
	}

	insertQuery := fmt.Sprintf(`
		INSERT OR REPLACE INTO %s
		(%s, obis_id, unit, avg_value, min_value, max_value, last_value, sample_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, table, startColumn)
	for _, a := range aggregates {
		_, err := db.Exec(insertQuery, a.StartTime, a.ObisID, a.Unit, a.AvgValue, a.MinValue, a.MaxValue, a.LastValue, a.SampleCount)
		if err != nil {
			return 0, err
		}
	}
	return len(aggregates), nil
}

// cleanupOldData removes raw readings older than the retention window
// if we have aggregated past the cutoff
func cleanupOldData(db *sql.DB, now time.Time, retentionMonths int) error {
	cutoff := now.AddDate(0, -retentionMonths, 0)
	cutoffTimestamp := cutoff.Unix()

	var lastAggregateHour sql.NullInt64
	if err := db.QueryRow("SELECT MAX(hour_start) FROM aggregate_obis_hourly").Scan(&lastAggregateHour); err != nil {
		return err
	}
	// No aggregates yet, or not recent enough: don't clean up
	if !lastAggregateHour.Valid || lastAggregateHour.Int64 < cutoffTimestamp {
		return nil
	}

	result, err := db.Exec("DELETE FROM obis_readings WHERE timestamp < ?", cutoffTimestamp)
	if err != nil {
		return err
	}
	deleted, _ := result.RowsAffected()
	zap.L().Info("Cleaned up old readings",
		zap.String("before", cutoff.Format(time.RFC3339)),
		zap.Int64("rows", deleted))
	return nil
}

// AggregateAndCleanup performs all aggregation and cleanup tasks
// This is the main function to call for data aggregation
func AggregateAndCleanup(retentionMonths int) error {
	if retentionMonths <= 0 {
		retentionMonths = DefaultRetentionMonths
	}
	return aggregateAndCleanupAt(meterdb.GetDB(), time.Now().UTC(), retentionMonths)
}

func aggregateAndCleanupAt(db *sql.DB, now time.Time, retentionMonths int) error {
	logger := zap.L()
	var errs []error

	// Aggregate the previous hour (current hour is still ongoing)
	hourStart := roundToHourStart(now.Add(-time.Hour))
	n, err := aggregateObis(db, TimeframeHourly, hourStart)
	if err != nil {
		errs = append(errs, fmt.Errorf("hourly aggregate: %w", err))
	} else {
		logger.Info("Aggregated hour",
			zap.String("start", time.Unix(hourStart, 0).UTC().Format(time.RFC3339)),
			zap.Int("items", n))
	}

	// Aggregate the previous day if it's a new day
	if now.Hour() == 0 {
		dayStart := roundToDayStart(now.AddDate(0, 0, -1))
		n, err := aggregateObis(db, TimeframeDaily, dayStart)
		if err != nil {
			errs = append(errs, fmt.Errorf("daily aggregate: %w", err))
		} else {
			logger.Info("Aggregated day",
				zap.String("start", time.Unix(dayStart, 0).UTC().Format(time.RFC3339)),
				zap.Int("items", n))
		}
	}

	if err := cleanupOldData(db, now, retentionMonths); err != nil {
		errs = append(errs, fmt.Errorf("cleanup: %w", err))
	}

	return errors.Join(errs...)
}
