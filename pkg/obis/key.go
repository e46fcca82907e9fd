package obis

import "fmt"

// Key identifies a measurement channel: device group, device instance and
// the three part OBIS code. A line `1-0:32.7.0(...)` maps to {1, 0, 32, 7, 0}.
type Key [5]uint16

func NewKey(deviceGroup, deviceInstance, a, b, c uint16) Key {
	return Key{deviceGroup, deviceInstance, a, b, c}
}

func (k Key) DeviceGroup() uint16    { return k[0] }
func (k Key) DeviceInstance() uint16 { return k[1] }

// Code renders the trailing three fields as "a.b.c".
func (k Key) Code() string {
	return fmt.Sprintf("%d.%d.%d", k[2], k[3], k[4])
}

// String renders the full identifier as it appears on the wire, e.g. "1-0:1.8.0".
func (k Key) String() string {
	return fmt.Sprintf("%d-%d:%d.%d.%d", k[0], k[1], k[2], k[3], k[4])
}

// hasCode reports whether at least one of the three code fields is non-zero.
// Lines with an all zero code are never captured.
func (k Key) hasCode() bool {
	return k[2] != 0 || k[3] != 0 || k[4] != 0
}

// Less orders keys field by field.
func (k Key) Less(other Key) bool {
	for i := range k {
		if k[i] != other[i] {
			return k[i] < other[i]
		}
	}
	return false
}
