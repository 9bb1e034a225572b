package telemetry

import (
	"net/http"

	"github.com/charmbracelet/log"
)

// Server is the anemometer's telemetry HTTP server.
type Server struct {
	mux     *http.ServeMux
	handler *Handlers
	addr    string
	logger  *log.Logger
}

// NewServer builds a server wired to handler's routes.
func NewServer(addr string, handler *Handlers, logger *log.Logger) *Server {
	s := &Server{mux: http.NewServeMux(), handler: handler, addr: addr, logger: logger}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/status", s.handler.HandleStatus)
	s.mux.HandleFunc("/api/devices", s.handler.HandleDevices)
	s.mux.HandleFunc("/api/calibrate", s.handler.HandleCalibrate)
	s.mux.HandleFunc("/api/dumps", s.handler.HandleDumps)
	s.mux.HandleFunc("/ws", s.handler.HandleWebSocket)
}

// Start blocks serving HTTP until the listener fails.
func (s *Server) Start() error {
	s.logger.Info("telemetry server starting", "addr", s.addr)
	return http.ListenAndServe(s.addr, s.mux)
}
