package httpserver

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"nhooyr.io/websocket"

	"github.com/ti4table/companion/internal/game"
	"github.com/ti4table/companion/internal/store"
	"github.com/ti4table/companion/internal/ws"
)

// newTestServer builds a Server on a throwaway SQLite file and wraps it in
// an httptest server.
func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite3", dsn+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	st := store.New(db)
	if err := st.InitSchema(context.Background()); err != nil {
		t.Fatal(err)
	}

	hub := ws.NewHub()
	go hub.Run()

	srv := New(st, hub)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return srv, ts
}

func seedPlanet(t *testing.T, s *Server, name string, terrain game.Terrain) int {
	t.Helper()
	res, err := s.store.DB().Exec(
		`INSERT INTO planets (name, resources, influence, terrain) VALUES (?, 1, 1, ?)`, name, terrain)
	if err != nil {
		t.Fatal(err)
	}
	id, _ := res.LastInsertId()
	return int(id)
}

func seedDeckCard(t *testing.T, s *Server, name string, terrain game.Terrain, subtype game.Subtype) int {
	t.Helper()
	res, err := s.store.DB().Exec(
		`INSERT INTO exploration_cards (name, terrain, subtype, image) VALUES (?,?,?,'')`, name, terrain, subtype)
	if err != nil {
		t.Fatal(err)
	}
	id, _ := res.LastInsertId()
	if _, err := s.store.DB().Exec(`INSERT INTO exploration_deck (card_id) VALUES (?)`, id); err != nil {
		t.Fatal(err)
	}
	return int(id)
}

// postJSON posts a body and decodes the response, returning the status code.
func postJSON(t *testing.T, client *http.Client, url string, body any, dst any) int {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := client.Post(url, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	if dst != nil && resp.StatusCode < 400 {
		if err := json.Unmarshal(data, dst); err != nil {
			t.Fatalf("decode %s: %v (body %s)", url, err, data)
		}
	}
	return resp.StatusCode
}

func getJSON(t *testing.T, client *http.Client, url string, dst any) int {
	t.Helper()
	resp, err := client.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if dst != nil && resp.StatusCode < 400 {
		if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t)
	var body map[string]string
	if code := getJSON(t, ts.Client(), ts.URL+"/api/health", &body); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if body["message"] == "" {
		t.Error("expected health message")
	}
}

func TestJoinAndDuplicate(t *testing.T) {
	_, ts := newTestServer(t)
	c := ts.Client()

	var p game.Player
	code := postJSON(t, c, ts.URL+"/api/player/join", map[string]string{"name": "Alice"}, &p)
	if code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", code)
	}
	if p.ID == "" || p.Name != "Alice" {
		t.Errorf("unexpected player %+v", p)
	}

	code = postJSON(t, c, ts.URL+"/api/player/join", map[string]string{"name": "Alice"}, nil)
	if code != http.StatusConflict {
		t.Errorf("expected 409 for duplicate name, got %d", code)
	}

	code = postJSON(t, c, ts.URL+"/api/player/join", map[string]string{"name": "  "}, nil)
	if code != http.StatusBadRequest {
		t.Errorf("expected 400 for blank name, got %d", code)
	}
}

func TestVictoryPointsUpdate(t *testing.T) {
	_, ts := newTestServer(t)
	c := ts.Client()

	var p game.Player
	postJSON(t, c, ts.URL+"/api/player/join", map[string]string{"name": "Alice"}, &p)

	var updated game.Player
	code := postJSON(t, c, ts.URL+"/api/victory-points/update",
		map[string]any{"playerId": p.ID, "points": 7}, &updated)
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if updated.VictoryPoints != 7 {
		t.Errorf("expected 7 points, got %d", updated.VictoryPoints)
	}

	// Missing fields
	code = postJSON(t, c, ts.URL+"/api/victory-points/update", map[string]any{"playerId": p.ID}, nil)
	if code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing points, got %d", code)
	}

	// Unknown player
	code = postJSON(t, c, ts.URL+"/api/victory-points/update",
		map[string]any{"playerId": "nope", "points": 1}, nil)
	if code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown player, got %d", code)
	}
}

// TestPlaySession walks a complete flow: register, take planets, explore, and
// verify the snapshot reflects it all.
func TestPlaySession(t *testing.T) {
	srv, ts := newTestServer(t)
	c := ts.Client()

	lodor := seedPlanet(t, srv, "Lodor", game.TerrainCultural)
	quann := seedPlanet(t, srv, "Quann", game.TerrainCultural)
	card := seedDeckCard(t, srv, "Tomb of Emphidia", game.TerrainCultural, game.SubtypeAttach)

	var p game.Player
	if code := postJSON(t, c, ts.URL+"/api/player/join", map[string]string{"name": "Alice"}, &p); code != http.StatusCreated {
		t.Fatalf("join failed with %d", code)
	}

	code := postJSON(t, c, ts.URL+"/api/player/assign-planets",
		map[string]any{"playerId": p.ID, "planetIds": []int{lodor, quann}}, nil)
	if code != http.StatusOK {
		t.Fatalf("assign-planets failed with %d", code)
	}

	code = postJSON(t, c, ts.URL+"/api/player/update-tapped",
		map[string]any{"playerId": p.ID, "planetId": quann, "tapped": true}, nil)
	if code != http.StatusOK {
		t.Fatalf("update-tapped failed with %d", code)
	}

	var explore struct {
		Card     game.ExplorationCard `json:"card"`
		Attached bool                 `json:"attached"`
	}
	code = postJSON(t, c, ts.URL+"/api/explore-planet",
		map[string]any{"playerId": p.ID, "planetId": lodor}, &explore)
	if code != http.StatusOK {
		t.Fatalf("explore failed with %d", code)
	}
	if explore.Card.ID != card || !explore.Attached {
		t.Errorf("unexpected exploration result %+v", explore)
	}

	var state game.GameState
	if code := getJSON(t, c, ts.URL+"/api/game-state", &state); code != http.StatusOK {
		t.Fatalf("game-state failed with %d", code)
	}
	if len(state.Players) != 1 {
		t.Fatalf("expected 1 player, got %d", len(state.Players))
	}
	planets := state.Players[0].Planets
	if len(planets) != 2 {
		t.Fatalf("expected 2 planets, got %d", len(planets))
	}
	for _, pp := range planets {
		switch pp.ID {
		case lodor:
			if len(pp.Attachments) != 1 || pp.Attachments[0].ID != card {
				t.Errorf("expected attachment on Lodor, got %v", pp.Attachments)
			}
		case quann:
			if !pp.Tapped {
				t.Error("expected Quann tapped")
			}
		default:
			t.Errorf("unexpected planet %d", pp.ID)
		}
	}

	// Deck exhausted for that terrain now.
	code = postJSON(t, c, ts.URL+"/api/explore-planet",
		map[string]any{"playerId": p.ID, "planetId": quann}, nil)
	if code != http.StatusNotFound {
		t.Errorf("expected 404 on empty deck, got %d", code)
	}
}

func TestHostGatedRoutes(t *testing.T) {
	srv, ts := newTestServer(t)
	c := ts.Client()

	// Unauthenticated admin calls are rejected.
	code := postJSON(t, c, ts.URL+"/api/objectives",
		map[string]any{"description": "Hold three planets", "type": "public", "points": 1}, nil)
	if code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without auth, got %d", code)
	}

	// Sign up a host; keep the token cookie for subsequent calls.
	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/api/host/signup",
		bytes.NewReader([]byte(`{"username":"gamemaster","password":"hunter2hunter2"}`)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup failed with %d", resp.StatusCode)
	}
	var cookie *http.Cookie
	for _, ck := range resp.Cookies() {
		if ck.Value != "" {
			cookie = ck
		}
	}
	if cookie == nil {
		t.Fatal("expected auth cookie on signup")
	}

	authed := func(method, path string, body string) *http.Response {
		t.Helper()
		req, _ := http.NewRequest(method, ts.URL+path, bytes.NewReader([]byte(body)))
		req.Header.Set("Content-Type", "application/json")
		req.AddCookie(cookie)
		resp, err := c.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		return resp
	}

	// Objective creation now works.
	resp = authed(http.MethodPost, "/api/objectives",
		`{"description":"Hold three planets","type":"public","points":1}`)
	var obj game.Objective
	if err := json.NewDecoder(resp.Body).Decode(&obj); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create objective failed with %d", resp.StatusCode)
	}
	if obj.ID == 0 || obj.Description != "Hold three planets" {
		t.Errorf("unexpected objective %+v", obj)
	}

	// Host identity round trip.
	resp = authed(http.MethodGet, "/api/host/me", "")
	var me struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&me); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if me.Username != "gamemaster" {
		t.Errorf("expected gamemaster, got %q", me.Username)
	}

	// Planet deletion and reset are host-gated too.
	planet := seedPlanet(t, srv, "Lodor", game.TerrainCultural)
	resp = authed(http.MethodDelete, fmt.Sprintf("/api/planet/%d", planet), "")
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("delete planet failed with %d", resp.StatusCode)
	}

	resp = authed(http.MethodPost, "/api/game/reset", "")
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("game reset failed with %d", resp.StatusCode)
	}
}

// TestPlayerRouteSurface checks that the /player paths registered across the
// different route files all coexist on one router and respond.
func TestPlayerRouteSurface(t *testing.T) {
	_, ts := newTestServer(t)
	c := ts.Client()

	var p game.Player
	if code := postJSON(t, c, ts.URL+"/api/player/join", map[string]string{"name": "Alice"}, &p); code != http.StatusCreated {
		t.Fatalf("join failed with %d", code)
	}

	if code := postJSON(t, c, ts.URL+"/api/player/update-resources",
		map[string]any{"playerId": p.ID, "value": 3}, nil); code != http.StatusOK {
		t.Errorf("update-resources failed with %d", code)
	}
	if code := postJSON(t, c, ts.URL+"/api/player/assign-planets",
		map[string]any{"playerId": p.ID, "planetIds": []int{}}, nil); code != http.StatusOK {
		t.Errorf("assign-planets failed with %d", code)
	}
	if code := postJSON(t, c, ts.URL+"/api/player/assign-strategy-cards",
		map[string]any{"playerId": p.ID, "cardIds": []int{}}, nil); code != http.StatusOK {
		t.Errorf("assign-strategy-cards failed with %d", code)
	}

	var hand map[string]any
	if code := getJSON(t, c, ts.URL+"/api/player/hand?playerId="+p.ID, &hand); code != http.StatusOK {
		t.Errorf("hand failed with %d", code)
	}
	var objectives []game.Objective
	if code := getJSON(t, c, ts.URL+"/api/player/objectives?playerId="+p.ID, &objectives); code != http.StatusOK {
		t.Errorf("objectives failed with %d", code)
	}
}

// TestWebsocketOutlivesRequestTimeout verifies the event stream is not torn
// down by the REST handler deadline: the connection must still be alive and
// receiving broadcasts well past the 10 second mark.
func TestWebsocketOutlivesRequestTimeout(t *testing.T) {
	if testing.Short() {
		t.Skip("waits past the REST handler deadline")
	}
	srv, ts := newTestServer(t)
	ctx := context.Background()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/api/ws", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	deadline := time.Now().Add(5 * time.Second)
	for srv.hub.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	time.Sleep(11 * time.Second)
	if n := srv.hub.ClientCount(); n != 1 {
		t.Fatalf("expected connection to survive, got %d clients", n)
	}

	srv.hub.Broadcast("player-updated", map[string]string{"id": "p1"})
	readCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, data, err := conn.Read(readCtx)
	if err != nil {
		t.Fatalf("read after deadline window: %v", err)
	}
	var ev ws.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		t.Fatal(err)
	}
	if ev.Name != "player-updated" {
		t.Errorf("expected player-updated, got %q", ev.Name)
	}
}

func TestManualAttachmentRoutes(t *testing.T) {
	srv, ts := newTestServer(t)
	c := ts.Client()

	planet := seedPlanet(t, srv, "Lodor", game.TerrainCultural)
	res, err := srv.store.DB().Exec(
		`INSERT INTO exploration_cards (name, terrain, subtype, image) VALUES ('Tomb of Emphidia', 'cultural', 'attach', '')`)
	if err != nil {
		t.Fatal(err)
	}
	cardID, _ := res.LastInsertId()
	tomb := int(cardID)

	var catalog []game.ExplorationCard
	if code := getJSON(t, c, ts.URL+"/api/attach-cards", &catalog); code != http.StatusOK {
		t.Fatalf("attach-cards listing failed with %d", code)
	}
	if len(catalog) != 1 || catalog[0].ID != tomb {
		t.Fatalf("unexpected attach catalog %v", catalog)
	}

	var up store.AttachmentUpdate
	code := postJSON(t, c, ts.URL+"/api/planet/attach-cards",
		map[string]any{"planetId": planet, "cardIds": []int{tomb}}, &up)
	if code != http.StatusOK {
		t.Fatalf("attach failed with %d", code)
	}
	if up.PlanetID != planet || len(up.Attachments) != 1 || up.Attachments[0].ID != tomb {
		t.Errorf("unexpected attach result %+v", up)
	}

	// Attaching again stays a single row.
	code = postJSON(t, c, ts.URL+"/api/planet/attach-cards",
		map[string]any{"planetId": planet, "cardIds": []int{tomb}}, &up)
	if code != http.StatusOK || len(up.Attachments) != 1 {
		t.Errorf("expected unique pair kept, got %d / %+v", code, up)
	}

	code = postJSON(t, c, ts.URL+"/api/planet/detach-cards",
		map[string]any{"planetId": planet, "cardIds": []int{tomb}}, &up)
	if code != http.StatusOK {
		t.Fatalf("detach failed with %d", code)
	}
	if len(up.Attachments) != 0 {
		t.Errorf("expected empty attachment list, got %+v", up.Attachments)
	}

	code = postJSON(t, c, ts.URL+"/api/planet/attach-cards",
		map[string]any{"planetId": 9999, "cardIds": []int{tomb}}, nil)
	if code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown planet, got %d", code)
	}
}

func TestObjectiveCompletion(t *testing.T) {
	srv, ts := newTestServer(t)
	c := ts.Client()

	var p game.Player
	postJSON(t, c, ts.URL+"/api/player/join", map[string]string{"name": "Alice"}, &p)

	res, err := srv.store.DB().Exec(
		`INSERT INTO objectives (description, type, points) VALUES ('Corner the market', 'public', 1)`)
	if err != nil {
		t.Fatal(err)
	}
	objID, _ := res.LastInsertId()

	var out struct {
		Completed bool `json:"completed"`
	}
	code := postJSON(t, c, ts.URL+"/api/objective/update-completed",
		map[string]any{"playerId": p.ID, "objectiveId": objID, "completed": true}, &out)
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if !out.Completed {
		t.Error("expected completion recorded")
	}

	// The completion reads back both per player and in the snapshot.
	var objectives []game.Objective
	if code := getJSON(t, c, ts.URL+"/api/player/objectives?playerId="+p.ID, &objectives); code != http.StatusOK {
		t.Fatalf("player objectives failed with %d", code)
	}
	if len(objectives) != 1 || objectives[0].ID != int(objID) || !objectives[0].Completed {
		t.Errorf("unexpected player objectives %+v", objectives)
	}
	var state game.GameState
	if code := getJSON(t, c, ts.URL+"/api/game-state", &state); code != http.StatusOK {
		t.Fatalf("game-state failed with %d", code)
	}
	if len(state.Players) != 1 || len(state.Players[0].Objectives) != 1 || !state.Players[0].Objectives[0].Completed {
		t.Errorf("expected completion in snapshot, got %+v", state.Players)
	}

	code = postJSON(t, c, ts.URL+"/api/objective/update-completed",
		map[string]any{"playerId": p.ID, "objectiveId": 9999, "completed": true}, nil)
	if code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown objective, got %d", code)
	}
}
