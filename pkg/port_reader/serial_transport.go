package port_reader

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jacobsa/go-serial/serial"
)

// SerialTransport adapts a serial port to the Transport interface. Reads
// are done in chunks, Available blocks for at most the port's inter
// character timeout.
type SerialTransport struct {
	port io.Reader
	buf  [256]byte
	head int
	tail int
	err  error
}

func newSerialTransport(port io.Reader) *SerialTransport {
	return &SerialTransport{port: port}
}

// Open the P1 port.
func OpenSerialTransport(opts Options) (*SerialTransport, io.Closer, error) {
	options := serial.OpenOptions{
		PortName:              opts.SerialDevice,
		BaudRate:              opts.Baudrate,
		DataBits:              opts.DataBits,
		StopBits:              opts.StopBits,
		ParityMode:            parityMode(opts.Parity),
		MinimumReadSize:       0,
		InterCharacterTimeout: 100,
	}

	port, err := serial.Open(options)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open serial port: %w", err)
	}
	return newSerialTransport(port), port, nil
}

func parityMode(parity string) serial.ParityMode {
	switch strings.ToLower(parity) {
	case "odd":
		return serial.PARITY_ODD
	case "even":
		return serial.PARITY_EVEN
	default:
		return serial.PARITY_NONE
	}
}

func (s *SerialTransport) Available() bool {
	if s.head < s.tail || s.err != nil {
		return true
	}
	n, err := s.port.Read(s.buf[:])
	if n > 0 {
		s.head, s.tail = 0, n
		return true
	}
	// A read timeout surfaces as zero bytes, possibly with io.EOF.
	if err != nil && !errors.Is(err, io.EOF) {
		s.err = err
		return true
	}
	return false
}

func (s *SerialTransport) ReadByte() (byte, error) {
	if s.head < s.tail {
		b := s.buf[s.head]
		s.head++
		return b, nil
	}
	if s.err != nil {
		err := s.err
		s.err = nil
		return 0, err
	}
	return 0, io.EOF
}
