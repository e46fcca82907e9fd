package port_reader

// RequestSignal is the data request line of the P1 port. The meter only
// transmits while it is asserted.
type RequestSignal interface {
	Assert() error
	Deassert() error
}

// NoopSignal is used when the request line is hard wired or absent.
type NoopSignal struct{}

func (NoopSignal) Assert() error   { return nil }
func (NoopSignal) Deassert() error { return nil }
