package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"nhooyr.io/websocket"
)

func dial(t *testing.T, ctx context.Context, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.Dial(ctx, "ws"+url[len("http"):], nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "bye") })
	return conn
}

func readEvent(t *testing.T, ctx context.Context, conn *websocket.Conn) Event {
	t.Helper()
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatal(err)
	}
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		t.Fatalf("unparseable event %s: %v", data, err)
	}
	return ev
}

func waitForClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, got %d", n, h.ClientCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestBroadcastReachesAllClients(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	a := dial(t, ctx, srv.URL)
	b := dial(t, ctx, srv.URL)
	waitForClients(t, hub, 2)

	hub.Broadcast("player-joined", map[string]string{"id": "p1", "name": "Alice"})

	for _, conn := range []*websocket.Conn{a, b} {
		ev := readEvent(t, ctx, conn)
		if ev.Name != "player-joined" {
			t.Errorf("expected player-joined, got %q", ev.Name)
		}
		var body map[string]string
		if err := json.Unmarshal(ev.Payload, &body); err != nil {
			t.Fatal(err)
		}
		if body["name"] != "Alice" {
			t.Errorf("unexpected payload %v", body)
		}
	}
}

func TestClientVictoryPointsRebroadcast(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sender := dial(t, ctx, srv.URL)
	receiver := dial(t, ctx, srv.URL)
	waitForClients(t, hub, 2)

	payload, _ := json.Marshal(map[string]any{"playerId": "p1", "points": 6})
	msg, _ := json.Marshal(Event{Name: "update-victory-points", Payload: payload})
	if err := sender.Write(ctx, websocket.MessageText, msg); err != nil {
		t.Fatal(err)
	}

	ev := readEvent(t, ctx, receiver)
	if ev.Name != "victory-points-updated" {
		t.Errorf("expected rebroadcast as victory-points-updated, got %q", ev.Name)
	}
}
