package interpreter

import (
	"net/url"
	"os"
	"os/signal"
	"time"

	"github.com/NotCoffee418/p1_obis_reader/pkg/types"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Failed read cycles push nothing, so allow several intervals of silence.
	readDeadline     = 60 * time.Second
	pingInterval     = 30 * time.Second
	handshakeTimeout = 10 * time.Second
	maxDialFailures  = 10
)

// Manage websocket connection and call funcToCall for each telegram reading.
// Blocks until interrupted or the interpreter API stays unreachable for
// maxDialFailures attempts in a row.
func StartListener(host string, tlsEnabled bool, funcToCall func(reading *types.TelegramReading)) {
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	defer signal.Stop(interrupt)

	newListener(readingsURL(host, tlsEnabled), funcToCall).run(interrupt)
}

func readingsURL(host string, tlsEnabled bool) string {
	scheme := "ws"
	if tlsEnabled {
		scheme = "wss"
	}
	u := url.URL{Scheme: scheme, Host: host, Path: "/ws"}
	return u.String()
}

// listener holds one subscription to the interpreter API's reading feed.
type listener struct {
	url    string
	dialer websocket.Dialer
	retry  backoff
	handle func(reading *types.TelegramReading)
	logger *zap.Logger
}

func newListener(url string, handle func(reading *types.TelegramReading)) *listener {
	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = handshakeTimeout
	return &listener{
		url:    url,
		dialer: dialer,
		retry:  backoff{base: 2 * time.Second, max: 60 * time.Second, limit: maxDialFailures},
		handle: handle,
		logger: zap.L().Named("listener"),
	}
}

func (l *listener) run(interrupt <-chan os.Signal) {
	for {
		l.logger.Info("Connecting", zap.String("url", l.url))
		c, _, err := l.dialer.Dial(l.url, nil)
		if err != nil {
			delay, ok := l.retry.next()
			if !ok {
				l.logger.Error("Interpreter API unreachable, giving up", zap.Int("attempts", l.retry.limit), zap.Error(err))
				return
			}
			l.logger.Warn("Connection failed", zap.Duration("retry_in", delay), zap.Error(err))
			select {
			case <-time.After(delay):
				continue
			case <-interrupt:
				l.logger.Info("Interrupt received during retry wait, shutting down")
				return
			}
		}

		l.logger.Info("Connected, accepting meter readings")
		l.retry.reset()
		broken := l.serve(c, interrupt)
		c.Close()
		if !broken {
			return
		}
		l.logger.Warn("Connection lost, will retry")
	}
}

// serve dispatches readings from c until the connection breaks (true) or
// an interrupt closes it cleanly (false).
func (l *listener) serve(c *websocket.Conn, interrupt <-chan os.Signal) bool {
	done := make(chan struct{})
	go func() {
		defer close(done)
		l.readLoop(c)
	}()

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	for {
		select {
		case <-done:
			return true
		case <-ping.C:
			if err := c.WriteMessage(websocket.PingMessage, nil); err != nil {
				l.logger.Warn("Failed to send ping", zap.Error(err))
			}
		case <-interrupt:
			l.logger.Info("Interrupt received, closing connection")
			err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			if err != nil {
				l.logger.Warn("Error sending close message", zap.Error(err))
			}
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			return false
		}
	}
}

func (l *listener) readLoop(c *websocket.Conn) {
	c.SetReadDeadline(time.Now().Add(readDeadline))
	for {
		messageType, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				l.logger.Warn("WebSocket error", zap.Error(err))
			} else {
				l.logger.Info("Connection closed", zap.Error(err))
			}
			return
		}
		c.SetReadDeadline(time.Now().Add(readDeadline))

		if messageType != websocket.TextMessage {
			l.logger.Debug("Ignoring non-text message", zap.Int("type", messageType))
			continue
		}
		reading := types.MeterReadingFromJsonBytes(message)
		if reading == nil {
			l.logger.Warn("Failed to parse meter reading", zap.ByteString("message", message))
			continue
		}
		l.handle(reading)
	}
}

// backoff doubles the wait after every failed attempt, capped at max,
// and gives up after limit failures in a row.
type backoff struct {
	base     time.Duration
	max      time.Duration
	limit    int
	failures int
}

func (b *backoff) next() (time.Duration, bool) {
	b.failures++
	if b.failures >= b.limit {
		return 0, false
	}
	delay := b.base << (b.failures - 1)
	if delay > b.max || delay <= 0 {
		delay = b.max
	}
	return delay, true
}

func (b *backoff) reset() {
	b.failures = 0
}
