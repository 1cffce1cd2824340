package ws

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"arcade-chat/internal/auth"
	"arcade-chat/internal/observability"
)

// ChatWebSocketHandler handles subscriptions to the chat broadcast channel.
// Inbound frames are ignored: all commands travel over the REST API and the
// socket is a one-way fan-out.
type ChatWebSocketHandler struct {
	hub  *Hub
	auth *auth.Manager
}

// NewChatWebSocketHandler constructs a ChatWebSocketHandler.
func NewChatWebSocketHandler(hub *Hub, auth *auth.Manager) *ChatWebSocketHandler {
	return &ChatWebSocketHandler{hub: hub, auth: auth}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the connection and registers the client on the channel.
func (h *ChatWebSocketHandler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("arcade-chat/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	token := bearerToken(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	user, _, err := h.auth.GetSession(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	// The chess gate applies to the realtime stream too; admins bypass it.
	if !user.ChessCompleted && !user.IsAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "puzzle not solved"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	traceID := span.SpanContext().TraceID().String()
	requestID := observability.RequestIDFromRequest(c.Request)
	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      user.ID,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   requestID,
		TraceID:     traceID,
		ConnectedAt: time.Now(),
	}
	h.hub.AddClient(conn, info)

	observability.IncWSActive("chat")
	observability.IncWSEvent("chat", "ws_connect")
	_ = observability.PublishEvent(ctx, chatRoutingKey,
		observability.NewEnvelope("ws_events", "ws_connect", wsEventPayload(info, "ws_connect", 0, "")),
		observability.BuildHeaders(requestID, traceID))

	// Keep connection alive and clean up on close.
	go func() {
		var closeReason string
		defer func() {
			h.hub.RemoveClient(conn)
			observability.DecWSActive("chat")
			observability.IncWSEvent("chat", "ws_disconnect")
			_ = observability.PublishEvent(ctx, chatRoutingKey,
				observability.NewEnvelope("ws_events", "ws_disconnect",
					wsEventPayload(info, "ws_disconnect", time.Since(info.ConnectedAt).Milliseconds(), closeReason)),
				observability.BuildHeaders(requestID, traceID))
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				closeReason = err.Error()
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					observability.IncWSEvent("chat", "ws_error")
				}
				return
			}
		}
	}()
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
		return ""
	}
	return c.Query("token")
}

func wsEventPayload(info ConnInfo, event string, durationMS int64, reason string) map[string]interface{} {
	return map[string]interface{}{
		"ws": map[string]interface{}{
			"event":       event,
			"conn_id":     info.ConnID,
			"duration_ms": durationMS,
			"reason":      reason,
		},
		"identity": map[string]interface{}{
			"user_id":   info.UserID,
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}
}
