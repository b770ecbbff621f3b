package server

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// ProgressHub fans dispatch progress lines out to websocket subscribers.
// Clients subscribe per request ID; a request with no subscribers costs one
// map lookup per line.
type ProgressHub struct {
	mu       sync.Mutex
	subs     map[string]map[*websocket.Conn]struct{}
	upgrader websocket.Upgrader
	log      *slog.Logger
}

func NewProgressHub(logger *slog.Logger) *ProgressHub {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProgressHub{
		subs: make(map[string]map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  512,
			WriteBufferSize: 1024,
		},
		log: logger,
	}
}

// Publish sends one progress line to every subscriber of requestID. Write
// failures drop the subscriber.
func (h *ProgressHub) Publish(requestID, line string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.subs[requestID] {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
			conn.Close()
			delete(h.subs[requestID], conn)
		}
	}
}

// ServeHTTP upgrades GET /ws/progress?request_id=… and holds the connection
// until the client closes it.
func (h *ProgressHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := r.URL.Query().Get("request_id")
	if requestID == "" {
		http.Error(w, "request_id query parameter is required", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("progress: websocket upgrade failed", "error", err)
		return
	}

	h.subscribe(requestID, conn)
	defer h.unsubscribe(requestID, conn)

	// Drain until the peer disconnects; inbound frames are ignored.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *ProgressHub) subscribe(requestID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[requestID] == nil {
		h.subs[requestID] = make(map[*websocket.Conn]struct{})
	}
	h.subs[requestID][conn] = struct{}{}
}

func (h *ProgressHub) unsubscribe(requestID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conn.Close()
	delete(h.subs[requestID], conn)
	if len(h.subs[requestID]) == 0 {
		delete(h.subs, requestID)
	}
}
