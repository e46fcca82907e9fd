package port_reader

import (
	"errors"
	"time"

	"github.com/NotCoffee418/p1_obis_reader/pkg/obis"
	"github.com/NotCoffee418/p1_obis_reader/pkg/types"
	"go.uber.org/zap"
)

const (
	DefaultReadInterval  = 5 * time.Second
	maxConsecutiveErrors = 10
)

var ErrNotConnected = errors.New("serial port not connected")

// Initialize a new P1Reader client. The port is opened by StartReading.
func NewP1Reader(options Options) *P1Reader {
	if options.ReadInterval <= 0 {
		options.ReadInterval = DefaultReadInterval
	}
	store := obis.NewStore()
	units := obis.NewUnitPool()
	logger := zap.L().Named("p1")
	return &P1Reader{
		options: options,
		store:   store,
		units:   units,
		parser:  obis.NewParser(store, units, logger),
		started: time.Now(),
		logger:  logger,
	}
}

// NewP1ReaderWithTransport builds a reader on an already open transport,
// e.g. a simulator replay.
func NewP1ReaderWithTransport(options Options, transport Transport, signal RequestSignal) *P1Reader {
	p := NewP1Reader(options)
	p.attach(transport, signal)
	return p
}

func (p *P1Reader) attach(transport Transport, signal RequestSignal) {
	p.transport = transport
	p.signal = signal
	p.acquirer = NewAcquirer(transport, signal, p.options.BufferSize, p.options.ReadTimeout)
	p.acquirer.logger = p.logger
}

// ReadAndParseNow runs one acquisition and one parse. A failed acquisition
// leaves the items of earlier cycles in place and only marks the state
// invalid.
func (p *P1Reader) ReadAndParseNow() {
	if p.acquirer == nil {
		p.readingMutex.Lock()
		p.valid = false
		p.lastError = ErrNotConnected.Error()
		p.readingMutex.Unlock()
		return
	}

	telegram := p.acquirer.Acquire()

	p.readingMutex.Lock()
	p.lastRead = telegram.Finished
	p.lastCycle = telegram.CycleID
	if !telegram.Valid {
		p.valid = false
		p.lastError = telegram.ErrorReason()
		p.readingMutex.Unlock()
		p.logger.Warn("telegram read failed",
			zap.String("cycle_id", telegram.CycleID.String()),
			zap.Error(telegram.Err))
		return
	}
	p.lastStats = p.parser.Parse(telegram.Data)
	p.valid = true
	p.hasReading = true
	p.lastError = ""
	p.readingMutex.Unlock()

	p.logger.Debug("telegram parsed",
		zap.String("cycle_id", telegram.CycleID.String()),
		zap.Int("bytes", telegram.Len()),
		zap.Int("captured", p.lastStats.Captured),
		zap.Int("failed", p.lastStats.Failed),
		zap.Int("items", p.ItemCount()))
	p.logItems()
}

// Valid reports whether the last cycle succeeded, with the reason if not.
func (p *P1Reader) Valid() (bool, string) {
	p.readingMutex.RLock()
	defer p.readingMutex.RUnlock()
	return p.valid, p.lastError
}

func (p *P1Reader) ItemCount() int {
	p.readingMutex.RLock()
	defer p.readingMutex.RUnlock()
	return p.store.Len()
}

// EachItem calls fn for every parsed item until fn returns false. The store
// is locked against parse cycles for the duration.
func (p *P1Reader) EachItem(fn func(item obis.ItemView) bool) {
	p.readingMutex.RLock()
	defer p.readingMutex.RUnlock()
	p.store.Each(func(item *obis.Item) bool {
		return fn(item.View())
	})
}

// Snapshot renders the current store.
func (p *P1Reader) Snapshot() *types.TelegramReading {
	p.readingMutex.RLock()
	defer p.readingMutex.RUnlock()

	reading := &types.TelegramReading{
		Timestamp: p.lastRead.Format(time.RFC3339),
		CycleID:   p.lastCycle.String(),
		Valid:     p.valid,
		Error:     p.lastError,
		Device: types.DeviceInfo{
			Name:          p.options.DeviceName,
			Version:       p.options.Version,
			UptimeSeconds: int64(time.Since(p.started).Seconds()),
			ItemCount:     p.store.Len(),
		},
		OBIS: make([]types.ObisReading, 0, p.store.Len()),
	}
	p.store.Each(func(item *obis.Item) bool {
		reading.OBIS = append(reading.OBIS, toObisReading(item.View()))
		return true
	})
	return reading
}

// GetLatestReading returns nil until a telegram has been parsed.
func (p *P1Reader) GetLatestReading() *types.TelegramReading {
	p.readingMutex.RLock()
	hasReading := p.hasReading
	p.readingMutex.RUnlock()
	if !hasReading {
		return nil
	}
	return p.Snapshot()
}

func toObisReading(item obis.ItemView) types.ObisReading {
	r := types.ObisReading{
		ID:             item.Key.String(),
		Code:           item.Code,
		DeviceGroup:    item.Key.DeviceGroup(),
		DeviceInstance: item.Key.DeviceInstance(),
		Type:           item.Value.Kind().String(),
		Unit:           item.Unit,
	}
	if f, ok := item.Value.Decimal(); ok {
		r.DValue = &f
	} else if i, ok := item.Value.Integer(); ok {
		r.IValue = &i
	} else if s, ok := item.Value.Text(); ok {
		r.SValue = &s
	}
	return r
}

func (p *P1Reader) logItems() {
	if !p.logger.Core().Enabled(zap.DebugLevel) {
		return
	}
	p.EachItem(func(item obis.ItemView) bool {
		p.logger.Debug("OBIS",
			zap.String("id", item.Key.String()),
			zap.String("type", item.Value.Kind().String()),
			zap.String("value", item.Value.String()),
			zap.String("unit", item.Unit))
		return true
	})
}

// Start reading telegrams every ReadInterval. Runs in goroutine.
// handleReading() also runs in goroutine. handleError() is called on the
// loop goroutine when the port cannot be opened and after every run of
// consecutive failed cycles; reading continues with stale data in the
// meantime. handleError must not call StartReading or StopReading.
// A loop that is already running is stopped first.
func (p *P1Reader) StartReading(
	handleReading func(reading *types.TelegramReading),
	handleError func(error),
) {
	p.runMutex.Lock()
	defer p.runMutex.Unlock()
	p.stopLocked()

	stop := make(chan struct{})
	done := make(chan struct{})
	p.stop, p.done = stop, done
	go p.readLoop(stop, done, handleReading, handleError)
}

// StopReading ends the read loop and returns once it has exited.
func (p *P1Reader) StopReading() {
	p.runMutex.Lock()
	defer p.runMutex.Unlock()
	p.stopLocked()
}

func (p *P1Reader) stopLocked() {
	if p.stop == nil {
		return
	}
	close(p.stop)
	<-p.done
	p.stop, p.done = nil, nil
}

func (p *P1Reader) readLoop(
	stop <-chan struct{},
	done chan<- struct{},
	handleReading func(reading *types.TelegramReading),
	handleError func(error),
) {
	defer close(done)

	if p.acquirer == nil {
		if err := p.connect(); err != nil {
			handleError(err)
			return
		}
	}

	consecutiveErrors := 0
	for {
		select {
		case <-stop:
			p.logger.Info("Stop signal received, disconnecting")
			p.disconnect()
			return
		default:
		}

		cycleStart := time.Now()
		p.ReadAndParseNow()

		if valid, reason := p.Valid(); valid {
			consecutiveErrors = 0
			go handleReading(p.Snapshot())
		} else {
			consecutiveErrors++
			p.logger.Warn("read cycle failed",
				zap.Int("consecutive", consecutiveErrors),
				zap.String("reason", reason))
			if consecutiveErrors >= maxConsecutiveErrors {
				handleError(errors.New(reason))
				consecutiveErrors = 0
			}
		}

		select {
		case <-stop:
		case <-time.After(p.options.ReadInterval - time.Since(cycleStart)):
		}
	}
}

// Open the connection to the P1 port and the request line.
func (p *P1Reader) connect() error {
	transport, port, err := OpenSerialTransport(p.options)
	if err != nil {
		return err
	}
	p.closers = append(p.closers, port)

	var signal RequestSignal = NoopSignal{}
	if p.options.RequestPinOffset >= 0 {
		gpio, err := NewGPIOSignal(p.options.RequestPinChip, p.options.RequestPinOffset)
		if err != nil {
			p.disconnect()
			return err
		}
		p.closers = append(p.closers, gpio)
		signal = gpio
	}

	p.attach(transport, signal)
	p.logger.Info("Connected to P1 port", zap.String("port", p.options.SerialDevice))
	return nil
}

func (p *P1Reader) disconnect() {
	if len(p.closers) == 0 {
		return
	}
	for _, c := range p.closers {
		_ = c.Close()
	}
	p.closers = nil
	p.acquirer = nil
	p.logger.Info("Disconnected from P1 port")
}
