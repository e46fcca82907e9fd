//go:build !linux

package port_reader

import "errors"

var errGPIOUnsupported = errors.New("gpio request pin is only supported on linux")

type GPIOSignal struct{}

func NewGPIOSignal(chip string, offset int) (*GPIOSignal, error) {
	return nil, errGPIOUnsupported
}

func (s *GPIOSignal) Assert() error   { return errGPIOUnsupported }
func (s *GPIOSignal) Deassert() error { return errGPIOUnsupported }
func (s *GPIOSignal) Close() error    { return nil }
