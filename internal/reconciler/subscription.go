package reconciler

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"arcade-chat/internal/models"
)

// Subscription is a live broadcast-channel connection. Decoded events flow to
// the apply callback until the peer closes or Close is called.
type Subscription struct {
	conn *websocket.Conn

	mu     sync.Mutex
	closed bool

	onDisconnect func(error)
}

// Subscribe dials the chat websocket endpoint with the given bearer token and
// starts the read pump. onDisconnect fires once when the connection drops for
// any reason other than Close.
func Subscribe(url, token string, apply func(models.ChatEvent), onDisconnect func(error)) (*Subscription, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return nil, err
	}

	s := &Subscription{conn: conn, onDisconnect: onDisconnect}
	go s.readPump(apply)
	return s, nil
}

func (s *Subscription) readPump(apply func(models.ChatEvent)) {
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if !closed && s.onDisconnect != nil {
				s.onDisconnect(err)
			}
			return
		}

		var event models.ChatEvent
		if err := json.Unmarshal(data, &event); err != nil {
			log.Printf("subscription: dropping malformed event: %v", err)
			continue
		}
		apply(event)
	}
}

// Close shuts the connection down. The read pump exits without firing
// onDisconnect.
func (s *Subscription) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return s.conn.Close()
}
