package server

import (
	"net/http"

	"github.com/charmbracelet/log"
)

// Server is the HTTP server for the diagnostic API.
type Server struct {
	mux     *http.ServeMux
	handler *Handlers
	addr    string
	logger  *log.Logger
}

// NewServer creates a server around a set of handlers.
func NewServer(addr string, handler *Handlers, logger *log.Logger) *Server {
	s := &Server{
		mux:     http.NewServeMux(),
		handler: handler,
		addr:    addr,
		logger:  logger,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// API routes
	s.mux.HandleFunc("/api/constellation", s.handler.HandleConstellation)
	s.mux.HandleFunc("/api/decide", s.handler.HandleDecide)
	s.mux.HandleFunc("/api/simulate", s.handler.HandleSimulate)
	s.mux.HandleFunc("/api/heatmap", s.handler.HandleHeatmap)

	// WebSocket
	s.mux.HandleFunc("/ws", s.handler.HandleWebSocket)
}

// Handler returns the route multiplexer, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.mux }

// Start runs the HTTP server until it fails.
func (s *Server) Start() error {
	s.logger.Info("starting diagnostic server", "addr", s.addr)
	return http.ListenAndServe(s.addr, s.mux)
}
