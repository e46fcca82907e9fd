package types

import (
	"encoding/json"

	"go.uber.org/zap"
)

// TelegramReading is the presentation of the item store after a read cycle,
// as served on /api and pushed over /ws.
type TelegramReading struct {
	Timestamp string        `json:"timestamp"`
	CycleID   string        `json:"cycle_id"`
	Valid     bool          `json:"valid"`
	Error     string        `json:"error,omitempty"`
	Device    DeviceInfo    `json:"device"`
	OBIS      []ObisReading `json:"obis"`
}

type DeviceInfo struct {
	Name          string `json:"name"`
	Version       string `json:"version"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	ItemCount     int    `json:"item_count"`
}

// ObisReading is one item. Exactly one of DValue, IValue and SValue is set,
// according to Type. Items that never carried a value have none.
type ObisReading struct {
	ID             string   `json:"id"`   // e.g. 1-0:1.8.0
	Code           string   `json:"code"` // e.g. 1.8.0
	DeviceGroup    uint16   `json:"device_group"`
	DeviceInstance uint16   `json:"device_instance"`
	Type           string   `json:"type"`
	DValue         *float64 `json:"dvalue,omitempty"`
	IValue         *uint64  `json:"ivalue,omitempty"`
	SValue         *string  `json:"svalue,omitempty"`
	Unit           string   `json:"unit,omitempty"`
}

func (r *TelegramReading) ToJsonBytes() []byte {
	data, err := json.Marshal(r)
	if err != nil {
		zap.L().Error("marshal reading", zap.Error(err))
		return nil
	}
	return data
}

// Returns nil if the message is not a reading.
func MeterReadingFromJsonBytes(data []byte) *TelegramReading {
	var reading TelegramReading
	if err := json.Unmarshal(data, &reading); err != nil {
		return nil
	}
	if reading.CycleID == "" {
		return nil
	}
	return &reading
}

// Find returns the reading with the given id ("1-0:1.8.0").
func (r *TelegramReading) Find(id string) (*ObisReading, bool) {
	for i := range r.OBIS {
		if r.OBIS[i].ID == id {
			return &r.OBIS[i], true
		}
	}
	return nil, false
}

// Float returns the numeric value of the reading, if it has one.
func (o *ObisReading) Float() (float64, bool) {
	switch {
	case o.DValue != nil:
		return *o.DValue, true
	case o.IValue != nil:
		return float64(*o.IValue), true
	}
	return 0, false
}
