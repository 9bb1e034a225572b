// Package telemetry exposes the measurement controller's live state
// over HTTP and WebSocket: the latest wind record, connected device
// info, and calibration/error-dump controls. Adapted from the original
// audio-modem web interface's internal/server package.
package telemetry

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Message is a tagged WebSocket payload, mirroring the original
// WSMessage{Type, Payload} envelope.
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// WSHub fans a Message out to every connected browser.
type WSHub struct {
	clients map[*websocket.Conn]bool
	mu      sync.RWMutex
	logger  *log.Logger
}

// NewWSHub builds an empty hub.
func NewWSHub(logger *log.Logger) *WSHub {
	return &WSHub{clients: make(map[*websocket.Conn]bool), logger: logger}
}

// AddClient registers a new WebSocket connection.
func (h *WSHub) AddClient(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = true
	h.logger.Info("telemetry client connected", "total", len(h.clients))
}

// RemoveClient closes and drops a connection.
func (h *WSHub) RemoveClient(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, conn)
	conn.Close()
	h.logger.Info("telemetry client disconnected", "remaining", len(h.clients))
}

// Broadcast sends msg to every connected client, dropping any that
// error on write.
func (h *WSHub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Warn("telemetry marshal error", "err", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			go h.RemoveClient(conn)
		}
	}
}

// BroadcastRecord publishes a measure.Record-shaped payload; Record is
// passed as interface{} to avoid telemetry depending on measure's
// package for anything beyond this shape.
func (h *WSHub) BroadcastRecord(record interface{}) {
	h.Broadcast(Message{Type: "record", Payload: record})
}

// BroadcastStatus publishes a status/message pair (e.g. calibration
// progress, enable/disable toggles).
func (h *WSHub) BroadcastStatus(status, message string) {
	h.Broadcast(Message{Type: "status", Payload: map[string]string{"status": status, "message": message}})
}

// BroadcastLog forwards a structured log line to connected clients.
func (h *WSHub) BroadcastLog(level, message string) {
	h.Broadcast(Message{Type: "log", Payload: map[string]string{"level": level, "message": message}})
}
