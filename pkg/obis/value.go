package obis

import "strconv"

type ValueKind uint8

const (
	KindNone ValueKind = iota
	KindDecimal
	KindUint32
	KindUint64
	KindText
)

func (k ValueKind) String() string {
	switch k {
	case KindDecimal:
		return "double"
	case KindUint32:
		return "int32"
	case KindUint64:
		return "int64"
	case KindText:
		return "string"
	default:
		return "none"
	}
}

// Value is the parsed content of a value span. Only the payload matching
// Kind is meaningful.
type Value struct {
	kind    ValueKind
	decimal float64
	integer uint64
	text    []byte
}

func DecimalValue(f float64) Value { return Value{kind: KindDecimal, decimal: f} }
func Uint32Value(u uint32) Value   { return Value{kind: KindUint32, integer: uint64(u)} }
func Uint64Value(u uint64) Value   { return Value{kind: KindUint64, integer: u} }

// TextValue copies b, the value never aliases the telegram buffer.
func TextValue(b []byte) Value {
	owned := make([]byte, len(b))
	copy(owned, b)
	return Value{kind: KindText, text: owned}
}

func (v Value) Kind() ValueKind { return v.kind }

func (v Value) IsNone() bool { return v.kind == KindNone }

func (v Value) Decimal() (float64, bool) {
	return v.decimal, v.kind == KindDecimal
}

func (v Value) Uint32() (uint32, bool) {
	return uint32(v.integer), v.kind == KindUint32
}

func (v Value) Uint64() (uint64, bool) {
	return v.integer, v.kind == KindUint64
}

// Integer returns the payload of either integer kind.
func (v Value) Integer() (uint64, bool) {
	return v.integer, v.kind == KindUint32 || v.kind == KindUint64
}

func (v Value) Text() (string, bool) {
	return string(v.text), v.kind == KindText
}

// Float returns any numeric payload as float64.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindDecimal:
		return v.decimal, true
	case KindUint32, KindUint64:
		return float64(v.integer), true
	}
	return 0, false
}

func (v Value) String() string {
	switch v.kind {
	case KindDecimal:
		return strconv.FormatFloat(v.decimal, 'f', -1, 64)
	case KindUint32, KindUint64:
		return strconv.FormatUint(v.integer, 10)
	case KindText:
		return string(v.text)
	}
	return ""
}
