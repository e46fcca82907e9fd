package interpreter

import (
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/NotCoffee418/p1_obis_reader/pkg/types"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testReading(cycleID string) *types.TelegramReading {
	voltage := 230.9
	return &types.TelegramReading{
		CycleID: cycleID,
		Valid:   true,
		OBIS:    []types.ObisReading{{ID: "1-0:32.7.0", Code: "32.7.0", Type: "double", DValue: &voltage, Unit: "V"}},
	}
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
}

func TestReadingsURL(t *testing.T) {
	assert.Equal(t, "ws://localhost:9039/ws", readingsURL("localhost:9039", false))
	assert.Equal(t, "wss://meter.lan/ws", readingsURL("meter.lan", true))
}

func TestBackoff(t *testing.T) {
	b := backoff{base: time.Second, max: 5 * time.Second, limit: 5}

	var delays []time.Duration
	for {
		d, ok := b.next()
		if !ok {
			break
		}
		delays = append(delays, d)
	}
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 5 * time.Second}, delays)

	b.reset()
	d, ok := b.next()
	assert.True(t, ok)
	assert.Equal(t, time.Second, d)
}

func TestListener_Serve(t *testing.T) {
	reading := testReading("c4a1e0b2-7f36-4f0e-9a55-2b1d3c4e5f60")

	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.WriteMessage(websocket.TextMessage, []byte(`{"message":"not a reading"}`))
		conn.WriteMessage(websocket.BinaryMessage, []byte{0x01})
		conn.WriteMessage(websocket.TextMessage, reading.ToJsonBytes())
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}))
	defer server.Close()

	var received []*types.TelegramReading
	l := newListener(wsURL(server), func(r *types.TelegramReading) {
		received = append(received, r)
	})
	c, _, err := l.dialer.Dial(l.url, nil)
	require.NoError(t, err)
	defer c.Close()

	broken := l.serve(c, make(chan os.Signal))

	assert.True(t, broken)
	require.Len(t, received, 1)
	assert.Equal(t, reading.CycleID, received[0].CycleID)
}

func TestListener_ServeInterrupt(t *testing.T) {
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	l := newListener(wsURL(server), func(*types.TelegramReading) {})
	c, _, err := l.dialer.Dial(l.url, nil)
	require.NoError(t, err)
	defer c.Close()

	interrupt := make(chan os.Signal, 1)
	interrupt <- os.Interrupt
	assert.False(t, l.serve(c, interrupt))
}

func TestListener_RunReconnectsThenGivesUp(t *testing.T) {
	var connections atomic.Int32
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := connections.Add(1)
		if n > 2 {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.WriteMessage(websocket.TextMessage, testReading(string(rune('a'+n))).ToJsonBytes())
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
	}))
	defer server.Close()

	var received []string
	l := newListener(wsURL(server), func(r *types.TelegramReading) {
		received = append(received, r.CycleID)
	})
	l.retry = backoff{base: time.Millisecond, max: 4 * time.Millisecond, limit: 3}

	l.run(make(chan os.Signal))

	assert.Equal(t, []string{"b", "c"}, received)
	assert.Equal(t, int32(5), connections.Load())
}
