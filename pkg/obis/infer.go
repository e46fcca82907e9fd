package obis

// Length limits for point-less digit spans. Existing consumers depend on
// these exact values; do not re-derive them from integer ranges.
const (
	maxIntegerDigits = 18 // longer spans are kept as text
	maxUint32Digits  = 9  // up to this length the value fits uint32
)

// digit classifies c. ok is false for anything but '0'..'9'.
func digit(c byte) (d uint8, ok bool) {
	if c < '0' || c > '9' {
		return 0, false
	}
	return c - '0', true
}

func allDigits(span []byte) bool {
	for _, c := range span {
		if _, ok := digit(c); !ok {
			return false
		}
	}
	return true
}

// InferValue decides how a value span is stored. hasPoint is set when the
// scanner saw a '.' inside the value. Anything that is not a clean number
// falls back to the exact bytes as text.
func InferValue(span []byte, hasPoint bool) Value {
	if len(span) == 0 {
		return TextValue(span)
	}

	if hasPoint {
		if f, ok := parseDecimal(span); ok {
			return DecimalValue(f)
		}
		return TextValue(span)
	}

	if !allDigits(span) || len(span) > maxIntegerDigits {
		return TextValue(span)
	}
	if len(span) <= maxUint32Digits {
		return Uint32Value(uint32(parseUnsigned(span)))
	}
	return Uint64Value(parseUnsigned(span))
}

// parseDecimal accumulates the integer part as ×10+digit and the fraction
// with a factor shrinking by 0.1 per digit. A second point or any other
// non-digit invalidates the parse.
func parseDecimal(span []byte) (float64, bool) {
	result := 0.0
	i := 0
	for ; i < len(span) && span[i] != '.'; i++ {
		d, ok := digit(span[i])
		if !ok {
			return 0, false
		}
		result = result*10 + float64(d)
	}
	factor := 1.0
	for i++; i < len(span); i++ {
		d, ok := digit(span[i])
		if !ok {
			return 0, false
		}
		factor *= 0.1
		result += float64(d) * factor
	}
	return result, true
}

// parseUnsigned expects a span of digits only.
func parseUnsigned(span []byte) uint64 {
	var result uint64
	for _, c := range span {
		d, _ := digit(c)
		result = result*10 + uint64(d)
	}
	return result
}
