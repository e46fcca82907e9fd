package meterdb

import (
	"database/sql"
	"time"

	"github.com/NotCoffee418/p1_obis_reader/pkg/esmutils"
	"github.com/NotCoffee418/p1_obis_reader/pkg/types"
)

const insertObisReadingQuery = "INSERT INTO obis_readings " +
	"(timestamp, cycle_id, obis_id, code, value_type, dvalue, ivalue, svalue, unit, base_value, base_unit) " +
	"VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"

// ReadingsFromTelegram flattens a telegram reading into rows. Items that
// never carried a value are skipped.
func ReadingsFromTelegram(reading *types.TelegramReading) []MeterDbObisReading {
	timestamp := time.Now().Unix()
	if t, err := time.Parse(time.RFC3339, reading.Timestamp); err == nil && !t.IsZero() {
		timestamp = t.Unix()
	}

	rows := make([]MeterDbObisReading, 0, len(reading.OBIS))
	for _, item := range reading.OBIS {
		row := MeterDbObisReading{
			Timestamp: timestamp,
			CycleID:   reading.CycleID,
			ObisID:    item.ID,
			Code:      item.Code,
			ValueType: ValueTypeFromName(item.Type),
			Unit:      item.Unit,
		}
		switch {
		case item.DValue != nil:
			row.DValue = sql.NullFloat64{Float64: *item.DValue, Valid: true}
		case item.IValue != nil:
			row.IValue = sql.NullInt64{Int64: int64(*item.IValue), Valid: true}
		case item.SValue != nil:
			row.SValue = sql.NullString{String: *item.SValue, Valid: true}
		default:
			continue
		}
		if f, ok := item.Float(); ok {
			base, unit := esmutils.ToBaseUnit(f, item.Unit)
			row.BaseValue = sql.NullFloat64{Float64: base, Valid: true}
			row.BaseUnit = unit
		}
		rows = append(rows, row)
	}
	return rows
}

// InsertTelegramReading stores every item of a reading in one transaction.
func InsertTelegramReading(reading *types.TelegramReading) (int, error) {
	rows := ReadingsFromTelegram(reading)
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := GetDB().Begin()
	if err != nil {
		return 0, err
	}
	stmt, err := tx.Prepare(insertObisReadingQuery)
	if err != nil {
		tx.Rollback()
		return 0, err
	}
	defer stmt.Close()

	for _, r := range rows {
		_, err := stmt.Exec(r.Timestamp, r.CycleID, r.ObisID, r.Code, r.ValueType,
			r.DValue, r.IValue, r.SValue, r.Unit, r.BaseValue, r.BaseUnit)
		if err != nil {
			tx.Rollback()
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(rows), nil
}
