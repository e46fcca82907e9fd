package obis

// Unit is an interned unit string such as "kWh" or "V". Two items with the
// same unit text share the same *Unit.
type Unit struct {
	name string
}

func (u *Unit) String() string {
	if u == nil {
		return ""
	}
	return u.name
}

// UnitPool interns unit strings. A meter only ever reports a few dozen
// distinct units so entries are kept for the process lifetime.
type UnitPool struct {
	units map[string]*Unit
}

func NewUnitPool() *UnitPool {
	return &UnitPool{units: make(map[string]*Unit)}
}

// Intern returns the pooled unit matching b exactly, creating it on first use.
func (p *UnitPool) Intern(b []byte) *Unit {
	// The string conversion in a map index does not allocate.
	if u, ok := p.units[string(b)]; ok {
		return u
	}
	u := &Unit{name: string(b)}
	p.units[u.name] = u
	return u
}

func (p *UnitPool) Len() int {
	return len(p.units)
}
