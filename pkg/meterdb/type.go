package meterdb

import "database/sql"

// MeterDbValueType mirrors the value kinds of a parsed OBIS item.
type MeterDbValueType uint8

const (
	ValueNone    MeterDbValueType = 0
	ValueDecimal MeterDbValueType = 1
	ValueInt32   MeterDbValueType = 2
	ValueInt64   MeterDbValueType = 3
	ValueText    MeterDbValueType = 4
)

func ValueTypeFromName(name string) MeterDbValueType {
	switch name {
	case "double":
		return ValueDecimal
	case "int32":
		return ValueInt32
	case "int64":
		return ValueInt64
	case "string":
		return ValueText
	default:
		return ValueNone
	}
}

// One item of one telegram.
type MeterDbObisReading struct {
	Timestamp int64            `db:"timestamp"`
	CycleID   string           `db:"cycle_id"`
	ObisID    string           `db:"obis_id"`
	Code      string           `db:"code"`
	ValueType MeterDbValueType `db:"value_type"`
	DValue    sql.NullFloat64  `db:"dvalue"`
	IValue    sql.NullInt64    `db:"ivalue"`
	SValue    sql.NullString   `db:"svalue"`
	Unit      string           `db:"unit"`
	BaseValue sql.NullFloat64  `db:"base_value"`
	BaseUnit  string           `db:"base_unit"`
}

// Aggregate models - statistics of numeric items per timeframe
// Use timeframe specified types instead of this directly
type AggregateObisTable struct {
	StartTime   int64   `db:"start_time"`
	ObisID      string  `db:"obis_id"`
	Unit        string  `db:"unit"`
	AvgValue    float64 `db:"avg_value"`
	MinValue    float64 `db:"min_value"`
	MaxValue    float64 `db:"max_value"`
	LastValue   float64 `db:"last_value"`
	SampleCount uint32  `db:"sample_count"`
}

type AggregateObisHourly = AggregateObisTable
type AggregateObisDaily = AggregateObisTable
