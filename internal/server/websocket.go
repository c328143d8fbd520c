package server

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // local diagnostic tool, any origin may connect
	},
}

// WSMessage is the envelope for every pushed telemetry message.
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// ProgressPayload reports simulation progress.
type ProgressPayload struct {
	Status       string  `json:"status"`
	Message      string  `json:"message"`
	Progress     float64 `json:"progress"` // 0.0 to 1.0
	SymbolsDone  int     `json:"symbolsDone,omitempty"`
	TotalSymbols int     `json:"totalSymbols,omitempty"`
}

// ResultPayload reports a finished simulation.
type ResultPayload struct {
	Symbols      int     `json:"symbols"`
	SymbolErrors int     `json:"symbolErrors"`
	BitErrors    int     `json:"bitErrors"`
	SER          float64 `json:"ser"`
	BER          float64 `json:"ber"`
	SoftBER      float64 `json:"softBer,omitempty"`
}

// WSHub fans telemetry out to connected WebSocket clients.
type WSHub struct {
	clients map[*websocket.Conn]bool
	mu      sync.RWMutex
	logger  *log.Logger
}

// NewWSHub creates an empty hub.
func NewWSHub(logger *log.Logger) *WSHub {
	return &WSHub{
		clients: make(map[*websocket.Conn]bool),
		logger:  logger,
	}
}

// AddClient registers a connection.
func (h *WSHub) AddClient(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = true
	h.logger.Info("websocket client connected", "total", len(h.clients))
}

// RemoveClient drops and closes a connection.
func (h *WSHub) RemoveClient(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, conn)
	conn.Close()
	h.logger.Info("websocket client disconnected", "remaining", len(h.clients))
}

// Broadcast sends a message to every connected client.
func (h *WSHub) Broadcast(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("websocket marshal", "err", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.logger.Warn("websocket write", "err", err)
			go h.RemoveClient(conn)
		}
	}
}

// BroadcastProgress pushes a progress update.
func (h *WSHub) BroadcastProgress(status, message string, progress float64, done, total int) {
	h.Broadcast(WSMessage{
		Type: "progress",
		Payload: ProgressPayload{
			Status:       status,
			Message:      message,
			Progress:     progress,
			SymbolsDone:  done,
			TotalSymbols: total,
		},
	})
}

// BroadcastStatus pushes a bare status change.
func (h *WSHub) BroadcastStatus(status, message string) {
	h.Broadcast(WSMessage{
		Type: "status",
		Payload: map[string]string{
			"status":  status,
			"message": message,
		},
	})
}

// BroadcastResult pushes a finished simulation result.
func (h *WSHub) BroadcastResult(res ResultPayload) {
	h.Broadcast(WSMessage{Type: "result", Payload: res})
}
