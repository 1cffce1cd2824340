package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"arcade-chat/internal/models"
	"arcade-chat/internal/observability"
)

const chatRoutingKey = "ws_events.chat"

// Hub maintains the subscribers of the single global chat channel.
type Hub struct {
	clients map[*websocket.Conn]ConnInfo
	mu      sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]ConnInfo)}
}

// AddClient registers a websocket connection on the chat channel.
func (h *Hub) AddClient(conn *websocket.Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = info
}

// RemoveClient removes a websocket connection.
func (h *Hub) RemoveClient(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, conn)
}

// ClientCount reports the number of connected subscribers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast fans an event out to every subscriber, including the sender's own
// connections. Failed writes evict the connection.
func (h *Hub) Broadcast(event models.ChatEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("broadcast marshal error: %v", err)
		return
	}

	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Printf("websocket write error: %v", err)
			conn.Close()
			h.publishWSError(conn, err)
			h.RemoveClient(conn)
		}
	}
	observability.IncWSEvent("chat", event.Type)
}

func (h *Hub) publishWSError(conn *websocket.Conn, err error) {
	h.mu.RLock()
	info, ok := h.clients[conn]
	h.mu.RUnlock()
	if !ok {
		return
	}

	payload := map[string]interface{}{
		"ws": map[string]interface{}{
			"event":       "ws_error",
			"conn_id":     info.ConnID,
			"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
			"reason":      err.Error(),
		},
		"identity": map[string]interface{}{
			"user_id":   info.UserID,
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}

	headers := observability.BuildHeaders(info.RequestID, info.TraceID)
	_ = observability.PublishEvent(context.Background(), chatRoutingKey,
		observability.NewEnvelope("ws_events", "ws_error", payload), headers)
	observability.IncWSEvent("chat", "ws_error")
}
