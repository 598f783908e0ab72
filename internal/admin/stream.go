package admin

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"

	"eremos-run/internal/run"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleWS streams store notifications to a map frontend. Every
// mutation pushes a {type, state} frame; slow consumers drop frames
// rather than stall the run.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "err", err)
		return
	}

	send := make(chan []byte, 64)
	unsub := s.store.Subscribe(func(n run.Notification) {
		data, err := json.Marshal(n)
		if err != nil {
			return
		}
		select {
		case send <- data:
		default:
		}
	})

	// Sends an initial frame so the client renders without waiting for
	// the next mutation.
	if st, ok := s.store.State(); ok {
		if data, err := json.Marshal(run.Notification{Type: run.MutationStart, State: st}); err == nil {
			select {
			case send <- data:
			default:
			}
		}
	}

	// The send channel is never closed: a listener callback may still
	// fire briefly after unsubscribe, and its send just drops.
	done := make(chan struct{})
	go func() {
		defer conn.Close()
		for {
			select {
			case data := <-send:
				if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	// Reader loop exists only to notice the peer going away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	unsub()
	close(done)
}
