//go:build linux

package port_reader

import (
	"fmt"

	"github.com/warthog618/gpiod"
)

// GPIOSignal drives the request line from a GPIO character device line.
type GPIOSignal struct {
	line *gpiod.Line
}

func NewGPIOSignal(chip string, offset int) (*GPIOSignal, error) {
	line, err := gpiod.RequestLine(chip, offset, gpiod.AsOutput(0))
	if err != nil {
		return nil, fmt.Errorf("request gpio %s:%d: %w", chip, offset, err)
	}
	return &GPIOSignal{line: line}, nil
}

func (s *GPIOSignal) Assert() error   { return s.line.SetValue(1) }
func (s *GPIOSignal) Deassert() error { return s.line.SetValue(0) }

func (s *GPIOSignal) Close() error {
	_ = s.line.SetValue(0)
	return s.line.Close()
}
