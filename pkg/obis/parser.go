package obis

import (
	"errors"

	"go.uber.org/zap"
)

var (
	errNotDataLine       = errors.New("not an OBIS data line")
	errBadDeviceID       = errors.New("device id is not digit-digit")
	errMissingColon      = errors.New("no ':' after device id")
	errCodeTooLong       = errors.New("OBIS code has more than 3 fields")
	errCodeInvalid       = errors.New("invalid character in OBIS code")
	errCodeOverflow      = errors.New("OBIS code field out of range")
	errCodeUnterminated  = errors.New("line ended before '('")
	errValueUnterminated = errors.New("value has no closing ')'")
)

// ParseStats summarises one pass over a telegram.
type ParseStats struct {
	Lines     int // all lines, including header and footer
	DataLines int // lines that looked like G-I:a.b.c
	Captured  int // values written to the store
	Failed    int // data lines abandoned on error
}

// Parser turns telegram lines into store items. It knows no OBIS codes,
// every well formed line is captured.
type Parser struct {
	store  *Store
	units  *UnitPool
	logger *zap.Logger
}

func NewParser(store *Store, units *UnitPool, logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{store: store, units: units, logger: logger}
}

// Parse makes a single forward pass over buf. A broken line never affects
// the lines after it.
func (p *Parser) Parse(buf []byte) ParseStats {
	var stats ParseStats
	start := 0
	for i := 0; i <= len(buf); i++ {
		if i < len(buf) && buf[i] != '\r' && buf[i] != '\n' {
			continue
		}
		if i == len(buf) && start == len(buf) {
			break
		}
		line := buf[start:i]
		// CRLF is one boundary.
		if i < len(buf) && buf[i] == '\r' && i+1 < len(buf) && buf[i+1] == '\n' {
			i++
		}
		start = i + 1

		stats.Lines++
		captured, err := p.parseLine(line)
		switch {
		case errors.Is(err, errNotDataLine), errors.Is(err, errBadDeviceID), errors.Is(err, errMissingColon):
			// Header, footer and blank lines end up here.
		case err != nil:
			stats.DataLines++
			stats.Failed++
			p.logger.Debug("OBIS line skipped",
				zap.Int("line", stats.Lines),
				zap.ByteString("content", line),
				zap.Error(err))
		default:
			stats.DataLines++
			if captured {
				stats.Captured++
			}
		}
	}
	return stats
}

func (p *Parser) parseLine(line []byte) (bool, error) {
	if len(line) < 4 {
		return false, errNotDataLine
	}
	group, ok := digit(line[0])
	if !ok {
		return false, errBadDeviceID
	}
	if line[1] != '-' {
		return false, errBadDeviceID
	}
	instance, ok := digit(line[2])
	if !ok {
		return false, errBadDeviceID
	}
	if line[3] != ':' {
		return false, errMissingColon
	}

	key := Key{uint16(group), uint16(instance)}
	field := 0
	i := 4
	for ; ; i++ {
		if i >= len(line) {
			return false, errCodeUnterminated
		}
		c := line[i]
		if c == '(' {
			break
		}
		if c == '.' {
			field++
			if field > 2 {
				return false, errCodeTooLong
			}
			continue
		}
		d, ok := digit(c)
		if !ok {
			return false, errCodeInvalid
		}
		next := uint32(key[field+2])*10 + uint32(d)
		if next > 0xFFFF {
			return false, errCodeOverflow
		}
		key[field+2] = uint16(next)
	}

	if !key.hasCode() {
		return false, nil
	}

	item, _ := p.store.FindOrCreate(key)

	valueStart := i + 1
	dot, star, closing := -1, -1, -1
	for j := valueStart; j < len(line); j++ {
		c := line[j]
		if c == ')' {
			closing = j
			break
		}
		if c == '.' && dot < 0 && star < 0 {
			dot = j
		} else if c == '*' && star < 0 {
			star = j
		}
	}
	if closing < 0 {
		return false, errValueUnterminated
	}

	valueEnd := closing
	if star >= 0 {
		valueEnd = star
	}
	item.setValue(InferValue(line[valueStart:valueEnd], dot >= 0))

	if star >= 0 && item.Unit() == nil {
		item.bindUnit(p.units.Intern(line[star+1 : closing]))
	}
	return true, nil
}
