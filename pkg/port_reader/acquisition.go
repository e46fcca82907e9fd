package port_reader

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrAcquisitionTimeout = errors.New("time out")
	ErrBufferOverflow     = errors.New("max buffer")
	ErrTransport          = errors.New("serial transport failure")
)

const (
	DefaultBufferSize   = 1500
	DefaultReadTimeout  = 12 * time.Second
	defaultPollInterval = 5 * time.Millisecond

	telegramStart = '/'
	telegramEnd   = '!'
)

// Transport is the byte source of the P1 port. The acquirer does its own
// framing and only needs to know whether a byte is waiting.
type Transport interface {
	Available() bool
	ReadByte() (byte, error)
}

// Telegram is the result of one acquisition cycle. Data points into the
// acquirer's buffer and is overwritten by the next cycle.
type Telegram struct {
	CycleID  uuid.UUID
	Data     []byte
	Valid    bool
	Err      error
	Started  time.Time
	Finished time.Time
}

func (t Telegram) Len() int { return len(t.Data) }

// ErrorReason is empty for valid telegrams.
func (t Telegram) ErrorReason() string {
	if t.Err == nil {
		return ""
	}
	return t.Err.Error()
}

// Acquirer captures telegrams from a Transport into a fixed buffer.
type Acquirer struct {
	transport    Transport
	signal       RequestSignal
	buf          []byte
	timeout      time.Duration
	pollInterval time.Duration
	now          func() time.Time
	sleep        func(time.Duration)
	logger       *zap.Logger
}

func NewAcquirer(transport Transport, signal RequestSignal, bufferSize int, timeout time.Duration) *Acquirer {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	if timeout <= 0 {
		timeout = DefaultReadTimeout
	}
	if signal == nil {
		signal = NoopSignal{}
	}
	return &Acquirer{
		transport:    transport,
		signal:       signal,
		buf:          make([]byte, bufferSize),
		timeout:      timeout,
		pollInterval: defaultPollInterval,
		now:          time.Now,
		sleep:        time.Sleep,
		logger:       zap.L(),
	}
}

// Acquire raises the request signal and reads one telegram, '/' through '!'.
// It blocks for at most the configured timeout. The signal is lowered again
// whatever the outcome.
func (a *Acquirer) Acquire() Telegram {
	t := Telegram{CycleID: uuid.New(), Started: a.now()}

	if err := a.signal.Assert(); err != nil {
		a.logger.Warn("raise request signal", zap.Error(err))
	}
	defer func() {
		if err := a.signal.Deassert(); err != nil {
			a.logger.Warn("lower request signal", zap.Error(err))
		}
	}()

	n, err := a.fill(t.Started.Add(a.timeout))
	t.Finished = a.now()
	if err != nil {
		t.Err = err
		t.Data = a.buf[:0]
		return t
	}
	t.Valid = true
	t.Data = a.buf[:n]
	return t
}

func (a *Acquirer) fill(deadline time.Time) (int, error) {
	started := false
	n := 0
	for {
		if !a.now().Before(deadline) {
			return 0, ErrAcquisitionTimeout
		}
		if !a.transport.Available() {
			a.sleep(a.pollInterval)
			continue
		}
		c, err := a.transport.ReadByte()
		if err != nil {
			return 0, fmt.Errorf("%w: %w", ErrTransport, err)
		}

		if !started {
			if c != telegramStart {
				continue
			}
			started = true
		}

		if n >= len(a.buf) {
			return 0, ErrBufferOverflow
		}
		a.buf[n] = c
		n++

		if c == telegramEnd {
			return n, nil
		}
	}
}
