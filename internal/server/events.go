package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/matzehuels/railgen/pkg/generator"
)

// Event types sent on /events.
const (
	EventHello       = "hello"
	EventMapCreated  = "map.created"
	EventMapDeleted  = "map.deleted"
	eventSendTimeout = 3 * time.Second
)

// Event is a store change pushed to /events subscribers.
type Event struct {
	Type   string            `json:"type"`
	ID     string            `json:"id,omitempty"`
	Report *generator.Report `json:"report,omitempty"`
}

// hub fans events out to websocket subscribers.
type hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func newHub() *hub {
	return &hub{clients: make(map[*websocket.Conn]struct{})}
}

func (h *hub) add(conn *websocket.Conn) {
	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()
}

func (h *hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
}

// broadcast sends ev to every subscriber. Subscribers that cannot keep up
// are dropped.
func (h *hub) broadcast(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		if err := send(conn, data); err != nil {
			_ = conn.Close(websocket.StatusPolicyViolation, "too slow")
			delete(h.clients, conn)
		}
	}
}

// closeAll disconnects every subscriber. Hijacked connections are not
// closed by http.Server.Shutdown.
func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
		delete(h.clients, conn)
	}
}

func send(conn *websocket.Conn, data []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), eventSendTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, data)
}

// events upgrades the request and streams store events until the client
// goes away. Client messages are ignored.
func (s *Server) events(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: s.origins})
	if err != nil {
		s.logger.Debug("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	s.hub.add(conn)
	defer s.hub.remove(conn)

	hello, _ := json.Marshal(Event{Type: EventHello})
	if err := send(conn, hello); err != nil {
		return
	}

	<-conn.CloseRead(context.Background()).Done()
}
