package aggregator

type Timeframe uint8

const (
	TimeframeHourly Timeframe = iota
	TimeframeDaily
)

func (t Timeframe) String() string {
	if t == TimeframeDaily {
		return "daily"
	}
	return "hourly"
}

// table and start column of the aggregate table for the timeframe
func (t Timeframe) table() (string, string) {
	if t == TimeframeDaily {
		return "aggregate_obis_daily", "day_start"
	}
	return "aggregate_obis_hourly", "hour_start"
}

// end returns the last second of the timeframe starting at start.
func (t Timeframe) end(start int64) int64 {
	if t == TimeframeDaily {
		return getDayEnd(start)
	}
	return getHourEnd(start)
}
