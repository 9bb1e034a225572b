package telemetry

import (
	"encoding/json"
	"net/http"
	"os"
	"sync"

	"github.com/charmbracelet/log"
)

// Record is the subset of measure.Record telemetry needs to publish;
// duplicated here rather than importing internal/measure so telemetry
// stays a leaf package wired only to what it serves over HTTP.
type Record struct {
	Speed       float64 `json:"speed"`
	Course      float64 `json:"course"`
	SoundSpeed  float64 `json:"soundSpeed"`
	Speed30sAvg float64 `json:"speed30sAvg"`
	Speed30sMax float64 `json:"speed30sMax"`
	ErrCode     string  `json:"errCode"`
}

// DeviceInfo describes a discoverable measurement front end.
type DeviceInfo struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// Handlers backs the HTTP/WebSocket routes: the latest published
// record, device inventory, a calibration trigger, and the error-dump
// directory listing.
type Handlers struct {
	hub    *WSHub
	logger *log.Logger

	mu     sync.RWMutex
	latest Record

	devices   func() []DeviceInfo
	calibrate func() error
	dumpDir   string
}

// NewHandlers wires a Handlers instance. devices and calibrate may be
// nil, in which case their endpoints report an empty/unsupported
// response instead of panicking.
func NewHandlers(hub *WSHub, logger *log.Logger, devices func() []DeviceInfo, calibrate func() error, dumpDir string) *Handlers {
	return &Handlers{hub: hub, logger: logger, devices: devices, calibrate: calibrate, dumpDir: dumpDir}
}

// PublishRecord updates the latest snapshot and fans it out over
// WebSocket.
func (h *Handlers) PublishRecord(r Record) {
	h.mu.Lock()
	h.latest = r
	h.mu.Unlock()
	h.hub.BroadcastRecord(r)
}

// HandleStatus returns the most recently published record as JSON.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	latest := h.latest
	h.mu.RUnlock()
	writeJSON(w, latest)
}

// HandleDevices lists the front ends available to the controller.
func (h *Handlers) HandleDevices(w http.ResponseWriter, r *http.Request) {
	if h.devices == nil {
		writeJSON(w, []DeviceInfo{})
		return
	}
	writeJSON(w, h.devices())
}

// HandleCalibrate triggers a fresh calibration run out of band from the
// measurement loop.
func (h *Handlers) HandleCalibrate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	if h.calibrate == nil {
		http.Error(w, "calibration not available", http.StatusNotImplemented)
		return
	}
	if err := h.calibrate(); err != nil {
		h.logger.Warn("calibration request failed", "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]string{"status": "calibrated"})
}

// HandleDumps lists the error-measurement CSV dumps on disk.
func (h *Handlers) HandleDumps(w http.ResponseWriter, r *http.Request) {
	entries, err := os.ReadDir(h.dumpDir)
	if err != nil {
		writeJSON(w, []string{})
		return
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	writeJSON(w, names)
}

// HandleWebSocket upgrades the connection and registers it with the
// hub, keeping it open until the client disconnects.
func (h *Handlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "err", err)
		return
	}
	h.hub.AddClient(conn)
	defer h.hub.RemoveClient(conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
