// Interpreter API is responsible for reading the P1 port and broadcasting the readings.
package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/NotCoffee418/p1_obis_reader/pkg/config"
	"github.com/NotCoffee418/p1_obis_reader/pkg/logging"
	"github.com/NotCoffee418/p1_obis_reader/pkg/pathing"
	"github.com/NotCoffee418/p1_obis_reader/pkg/port_reader"
	"github.com/NotCoffee418/p1_obis_reader/pkg/types"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const version = "1.0.0"

var p1Reader *port_reader.P1Reader

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in development
	},
}

// ws clients for broadcasting live readings
var (
	wsClients                   = make(map[*websocket.Conn]bool)
	wsClientsMutex sync.RWMutex = sync.RWMutex{}
	// a connection supports one writer at a time
	broadcastMutex sync.Mutex
)

var logger *zap.Logger

func main() {
	if err := pathing.EnsureDirectories(); err != nil {
		panic(err)
	}

	// Load config
	if err := config.LoadInterpreterAPIConfig(); err != nil {
		panic(fmt.Sprintf("Failed to load interpreter API config: %v", err))
	}
	cfg := config.ActiveInterpreterAPIConfig

	var err error
	logger, err = logging.Setup(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	// Start P1 reader
	p1Reader = port_reader.NewP1Reader(readerOptions(cfg))

	// Start reading P1 port and handle signals/errors
	p1Reader.StartReading(
		func(reading *types.TelegramReading) {
			BroadcastToWebSockets(reading)
		},
		func(err error) {
			// Keep serving the last known items
			logger.Error("Error reading P1 port", zap.Error(err))
		},
	)

	// Setup HTTP handlers
	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		response := map[string]string{
			"message": "P1 OBIS Reader API",
			"status":  "running",
			"api":     "/api",
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	})

	// Full item store including validity of the last cycle
	http.HandleFunc("/api", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(p1Reader.Snapshot())
	})

	http.HandleFunc("/latest", func(w http.ResponseWriter, r *http.Request) {
		reading := p1Reader.GetLatestReading()
		w.Header().Set("Content-Type", "application/json")
		if reading == nil {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{
				"error": "No readings available yet",
			})
			return
		}

		json.NewEncoder(w).Encode(reading)
	})

	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("WebSocket upgrade error", zap.Error(err))
			return
		}

		// Send current reading immediately if available
		if reading := p1Reader.GetLatestReading(); reading != nil {
			conn.WriteMessage(websocket.TextMessage, reading.ToJsonBytes())
		}

		AddWebSocketClient(conn)

		// Keep connection alive
		for {
			_, _, err := conn.ReadMessage()
			if err != nil {
				RemoveWebSocketClient(conn)
				break
			}
		}
	})

	listener := fmt.Sprintf("%s:%d", cfg.ListenAddress, cfg.ListenPort)

	logger.Info("Starting P1 OBIS Reader API", zap.String("listen", listener))
	logger.Fatal("http server", zap.Error(http.ListenAndServe(listener, nil)))
}

func readerOptions(cfg *config.InterpreterAPIConfig) port_reader.Options {
	return port_reader.Options{
		SerialDevice:     cfg.SerialDevice,
		Baudrate:         cfg.Baudrate,
		DataBits:         cfg.DataBits,
		Parity:           cfg.Parity,
		StopBits:         cfg.StopBits,
		RequestPinChip:   cfg.RequestPinChip,
		RequestPinOffset: cfg.RequestPinOffset,
		BufferSize:       cfg.BufferSize,
		ReadTimeout:      time.Duration(cfg.ReadTimeoutMs) * time.Millisecond,
		ReadInterval:     time.Duration(cfg.ReadIntervalMs) * time.Millisecond,
		DeviceName:       cfg.DeviceName,
		Version:          version,
	}
}

func BroadcastToWebSockets(reading *types.TelegramReading) {
	broadcastMutex.Lock()
	defer broadcastMutex.Unlock()

	wsClientsMutex.RLock()
	clients := make([]*websocket.Conn, 0, len(wsClients))
	for client := range wsClients {
		clients = append(clients, client)
	}
	wsClientsMutex.RUnlock()

	data := reading.ToJsonBytes()
	for _, client := range clients {
		if err := client.WriteMessage(websocket.TextMessage, data); err != nil {
			RemoveWebSocketClient(client)
		}
	}
}

func AddWebSocketClient(conn *websocket.Conn) {
	wsClientsMutex.Lock()
	wsClients[conn] = true
	wsClientsMutex.Unlock()
}

func RemoveWebSocketClient(conn *websocket.Conn) {
	wsClientsMutex.Lock()
	delete(wsClients, conn)
	wsClientsMutex.Unlock()
	conn.Close()
}
