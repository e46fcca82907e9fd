package port_reader

import (
	"io"
	"sync"
	"time"

	"github.com/NotCoffee418/p1_obis_reader/pkg/obis"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Options describe the P1 port and the read cycle.
type Options struct {
	SerialDevice string
	Baudrate     uint
	DataBits     uint
	Parity       string
	StopBits     uint

	// RequestPinOffset < 0 means the request line is not driven.
	RequestPinChip   string
	RequestPinOffset int

	BufferSize   int
	ReadTimeout  time.Duration
	ReadInterval time.Duration

	DeviceName string
	Version    string
}

type P1Reader struct {
	options   Options
	transport Transport
	signal    RequestSignal
	closers   []io.Closer
	acquirer  *Acquirer

	store  *obis.Store
	units  *obis.UnitPool
	parser *obis.Parser

	readingMutex sync.RWMutex
	hasReading   bool
	valid        bool
	lastError    string
	lastCycle    uuid.UUID
	lastRead     time.Time
	lastStats    obis.ParseStats

	started time.Time
	logger  *zap.Logger

	// runMutex guards the channels of the running read loop.
	runMutex sync.Mutex
	stop     chan struct{}
	done     chan struct{}
}
