// internal/ws/hub.go
//
// Best-effort broadcast channel for game-state notifications.
// Every connected client receives every event; there is no acknowledgment,
// no replay of missed messages, and no per-client subscription filtering.
// Clients that fall behind have events dropped (non-blocking send).

package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"nhooyr.io/websocket"
)

// Event is the wire envelope: a name tagging the mutation and the same
// authoritative payload the mutating handler returned to its caller.
type Event struct {
	Name    string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Client is one connected subscriber.
type Client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Hub fans events out to every connected client.
type Hub struct {
	mu        sync.RWMutex
	clients   map[*Client]struct{}
	broadcast chan []byte
}

// NewHub constructs an idle hub; call Run in a goroutine to start fan-out.
func NewHub() *Hub {
	return &Hub{
		clients:   map[*Client]struct{}{},
		broadcast: make(chan []byte, 256),
	}
}

// Run pumps the broadcast channel to every client until the channel closes.
func (h *Hub) Run() {
	for msg := range h.broadcast {
		h.mu.RLock()
		for c := range h.clients {
			select {
			case c.send <- msg:
			default:
				// slow client, drop the event
			}
		}
		h.mu.RUnlock()
	}
}

// Broadcast marshals payload and queues the event for every client.
func (h *Hub) Broadcast(name string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("event", name).Msg("marshal broadcast payload")
		return
	}
	b, _ := json.Marshal(Event{Name: name, Payload: raw})
	select {
	case h.broadcast <- b:
	default:
		log.Warn().Str("event", name).Msg("broadcast queue full, event dropped")
	}
}

// ClientCount reports the number of connected subscribers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeWS upgrades the request and joins the client to the broadcast group.
// There is no handshake beyond the transport-level connection. The only
// client->server event is "update-victory-points", which is rebroadcast to
// the group as "victory-points-updated" without persistence.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		return
	}

	client := &Client{id: randID(), conn: conn, send: make(chan []byte, 64)}

	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()
	log.Info().Str("client", client.id).Msg("ws client connected")

	ctx := r.Context()

	// writer
	go func() {
		ping := time.NewTicker(15 * time.Second)
		defer func() { ping.Stop(); _ = conn.Close(websocket.StatusNormalClosure, "bye") }()
		for {
			select {
			case msg, ok := <-client.send:
				if !ok {
					return
				}
				_ = conn.Write(ctx, websocket.MessageText, msg)
			case <-ping.C:
				_ = conn.Ping(ctx)
			}
		}
	}()

	// reader
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			break
		}
		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			continue
		}
		if ev.Name == "update-victory-points" {
			b, _ := json.Marshal(Event{Name: "victory-points-updated", Payload: ev.Payload})
			select {
			case h.broadcast <- b:
			default:
			}
		}
	}

	h.mu.Lock()
	delete(h.clients, client)
	close(client.send)
	h.mu.Unlock()
	log.Info().Str("client", client.id).Msg("ws client disconnected")
}
