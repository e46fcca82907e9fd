package esmutils

// Kilo prefixed units the meter reports and the base unit they scale to.
var kiloUnits = map[string]string{
	"kWh":   "Wh",
	"kW":    "W",
	"kvar":  "var",
	"kvarh": "varh",
	"kVA":   "VA",
	"kV":    "V",
	"kA":    "A",
}

// ToBaseUnit scales a kilo prefixed value to its base unit.
// Unknown units are returned unchanged.
func ToBaseUnit(value float64, unit string) (float64, string) {
	if base, ok := kiloUnits[unit]; ok {
		return value * 1000, base
	}
	return value, unit
}
