package client

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ti4table/companion/internal/game"
	"github.com/ti4table/companion/internal/httpserver"
	"github.com/ti4table/companion/internal/store"
	"github.com/ti4table/companion/internal/ws"
)

func event(t *testing.T, name string, payload any) ws.Event {
	t.Helper()
	b, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	return ws.Event{Name: name, Payload: b}
}

func TestReducerPlayerEvents(t *testing.T) {
	c := New("http://localhost:0", t.TempDir())

	c.apply(event(t, "player-joined", game.Player{ID: "p1", Name: "Alice"}))
	c.apply(event(t, "player-joined", game.Player{ID: "p2", Name: "Bob"}))

	st := c.State()
	if len(st.Players) != 2 {
		t.Fatalf("expected 2 players, got %d", len(st.Players))
	}

	c.apply(event(t, "victory-points-updated", game.Player{ID: "p1", Name: "Alice", VictoryPoints: 5}))
	st = c.State()
	if st.VictoryPoints["p1"] != 5 {
		t.Errorf("expected 5 points in map, got %d", st.VictoryPoints["p1"])
	}
	for _, p := range st.Players {
		if p.ID == "p1" && p.VictoryPoints != 5 {
			t.Errorf("expected player row updated, got %d", p.VictoryPoints)
		}
	}

	// Unknown events are ignored, not fatal.
	c.apply(event(t, "some-future-event", map[string]string{"x": "y"}))
	if len(c.State().Players) != 2 {
		t.Error("unknown event must not disturb state")
	}
}

func TestReducerPlanetEvents(t *testing.T) {
	c := New("http://localhost:0", t.TempDir())
	c.apply(event(t, "player-joined", game.Player{ID: "p1", Name: "Alice"}))

	planets := []game.PlayerPlanet{
		{Planet: game.Planet{ID: 1, Name: "Lodor", Terrain: game.TerrainCultural}},
		{Planet: game.Planet{ID: 2, Name: "Quann", Terrain: game.TerrainCultural}},
	}
	c.apply(event(t, "planets-assigned", map[string]any{"playerId": "p1", "planets": planets}))

	st := c.State()
	if got := len(st.Players[0].Planets); got != 2 {
		t.Fatalf("expected 2 planets, got %d", got)
	}

	tapped := planets[1]
	tapped.Tapped = true
	c.apply(event(t, "planet-tapped", map[string]any{"playerId": "p1", "planet": tapped}))
	st = c.State()
	if !st.Players[0].Planets[1].Tapped {
		t.Error("expected planet 2 tapped")
	}

	card := game.ExplorationCard{ID: 9, Name: "Tomb of Emphidia", Terrain: game.TerrainCultural, Subtype: game.SubtypeAttach}
	c.apply(event(t, "planet-explored", map[string]any{
		"playerId": "p1", "planetId": 1, "card": card, "attached": true,
	}))
	st = c.State()
	if atts := st.Players[0].Planets[0].Attachments; len(atts) != 1 || atts[0].ID != 9 {
		t.Errorf("expected attachment merged, got %v", atts)
	}

	c.apply(event(t, "planet-deleted", map[string]int{"planetId": 1}))
	st = c.State()
	if got := len(st.Players[0].Planets); got != 1 {
		t.Errorf("expected planet removed, got %d left", got)
	}

	// A player row arriving without planets keeps the merged planet list.
	c.apply(event(t, "player-updated", game.Player{ID: "p1", Name: "Alice", Resources: 3}))
	st = c.State()
	if got := len(st.Players[0].Planets); got != 1 {
		t.Errorf("partial player payload must not drop planets, got %d", got)
	}
	if st.Players[0].Resources != 3 {
		t.Errorf("expected resources merged, got %d", st.Players[0].Resources)
	}
}

func TestReducerHandEvents(t *testing.T) {
	c := New("http://localhost:0", t.TempDir())
	c.apply(event(t, "player-joined", game.Player{ID: "p1", Name: "Alice"}))

	// A non-attach exploration draw lands in the player's hand.
	frag := game.ExplorationCard{ID: 5, Name: "Cultural Relic Fragment", Terrain: game.TerrainCultural, Subtype: game.SubtypeFragment}
	c.apply(event(t, "planet-explored", map[string]any{
		"playerId": "p1", "planetId": 1, "card": frag, "attached": false,
	}))
	frag2 := frag
	frag2.ID = 6
	c.apply(event(t, "planet-explored", map[string]any{
		"playerId": "p1", "planetId": 1, "card": frag2, "attached": false,
	}))
	frag3 := frag
	frag3.ID = 7
	c.apply(event(t, "planet-explored", map[string]any{
		"playerId": "p1", "planetId": 1, "card": frag3, "attached": false,
	}))

	st := c.State()
	if got := len(st.Players[0].ExplorationCards); got != 3 {
		t.Fatalf("expected 3 hand cards, got %d", got)
	}

	// Combining removes the fragments and grants the relic.
	c.apply(event(t, "relic-gained", map[string]any{
		"playerId":    "p1",
		"fragmentIds": []int{5, 6, 7},
		"relic":       game.RelicCard{ID: 1, Name: "Shard of the Throne"},
	}))
	st = c.State()
	if got := len(st.Players[0].ExplorationCards); got != 0 {
		t.Errorf("expected empty hand after combine, got %d cards", got)
	}
	if relics := st.Players[0].Relics; len(relics) != 1 || relics[0].ID != 1 {
		t.Errorf("expected relic merged, got %v", relics)
	}
}

func TestReducerObjectiveAndReset(t *testing.T) {
	c := New("http://localhost:0", t.TempDir())
	c.apply(event(t, "player-joined", game.Player{ID: "p1", Name: "Alice"}))
	c.apply(event(t, "objective-created", game.Objective{ID: 1, Description: "Hold three planets", Type: "public", Points: 1}))

	st := c.State()
	if len(st.Objectives) != 1 {
		t.Fatalf("expected 1 objective, got %d", len(st.Objectives))
	}

	c.apply(event(t, "game-reset", map[string]bool{"reset": true}))
	st = c.State()
	if len(st.Players) != 0 {
		t.Errorf("expected players cleared on reset, got %d", len(st.Players))
	}
	if len(st.Objectives) != 1 {
		t.Errorf("objective catalog should survive reset, got %d", len(st.Objectives))
	}
}

func TestReducerObjectiveCompletion(t *testing.T) {
	c := New("http://localhost:0", t.TempDir())
	c.apply(event(t, "player-joined", game.Player{ID: "p1", Name: "Alice"}))
	c.apply(event(t, "objective-created", game.Objective{ID: 1, Description: "Hold three planets", Type: "public", Points: 1}))

	// First completion copies the catalog entry onto the player.
	c.apply(event(t, "objective-updated", map[string]any{"playerId": "p1", "objectiveId": 1, "completed": true}))
	st := c.State()
	if len(st.Players[0].Objectives) != 1 || !st.Players[0].Objectives[0].Completed {
		t.Fatalf("expected completed objective on player, got %+v", st.Players[0].Objectives)
	}
	if st.Players[0].Objectives[0].Description != "Hold three planets" {
		t.Errorf("expected catalog description carried over, got %+v", st.Players[0].Objectives[0])
	}

	// Toggling back updates in place rather than appending.
	c.apply(event(t, "objective-updated", map[string]any{"playerId": "p1", "objectiveId": 1, "completed": false}))
	st = c.State()
	if len(st.Players[0].Objectives) != 1 || st.Players[0].Objectives[0].Completed {
		t.Errorf("expected single incomplete objective, got %+v", st.Players[0].Objectives)
	}

	// Later player payloads keep the objective list alive.
	c.apply(event(t, "player-updated", game.Player{ID: "p1", Name: "Alice", Resources: 2}))
	st = c.State()
	if len(st.Players[0].Objectives) != 1 {
		t.Errorf("expected objectives to survive a partial player payload, got %+v", st.Players[0])
	}

	// Unknown player or objective is dropped on the floor.
	c.apply(event(t, "objective-updated", map[string]any{"playerId": "ghost", "objectiveId": 1, "completed": true}))
	c.apply(event(t, "objective-updated", map[string]any{"playerId": "p1", "objectiveId": 99, "completed": true}))
}

func TestReducerAttachmentEvents(t *testing.T) {
	c := New("http://localhost:0", t.TempDir())
	c.apply(event(t, "player-joined", game.Player{ID: "p1", Name: "Alice"}))
	c.apply(event(t, "planets-assigned", map[string]any{
		"playerId": "p1",
		"planets":  []game.PlayerPlanet{{Planet: game.Planet{ID: 4, Name: "Lodor"}}},
	}))

	tomb := game.ExplorationCard{ID: 7, Name: "Tomb of Emphidia", Terrain: game.TerrainCultural, Subtype: game.SubtypeAttach}
	c.apply(event(t, "attachments-updated", map[string]any{
		"planetId":    4,
		"attachments": []game.ExplorationCard{tomb},
	}))
	st := c.State()
	atts := st.Players[0].Planets[0].Attachments
	if len(atts) != 1 || atts[0].ID != tomb.ID {
		t.Fatalf("expected attachment on Lodor, got %v", atts)
	}

	c.apply(event(t, "attachments-updated", map[string]any{
		"planetId":    4,
		"attachments": []game.ExplorationCard{},
	}))
	st = c.State()
	if len(st.Players[0].Planets[0].Attachments) != 0 {
		t.Errorf("expected attachments cleared, got %v", st.Players[0].Planets[0].Attachments)
	}

	// Unknown planet leaves the state untouched.
	c.apply(event(t, "attachments-updated", map[string]any{
		"planetId":    99,
		"attachments": []game.ExplorationCard{tomb},
	}))
}

func TestSessionPersistence(t *testing.T) {
	dir := t.TempDir()

	s, err := loadSession(dir)
	if err != nil {
		t.Fatal(err)
	}
	if s.PlayerID != "" {
		t.Errorf("expected empty session, got %+v", s)
	}

	want := Session{PlayerID: "p1", Name: "Alice"}
	if err := saveSession(dir, want); err != nil {
		t.Fatal(err)
	}
	got, err := loadSession(dir)
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

// TestBootstrapRoundTrip runs a real server and checks that Bootstrap,
// Join, and a remote mutation all converge in the container.
func TestBootstrapRoundTrip(t *testing.T) {
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
	ts := httptest.NewServer(httpserver.New(st, hub).Router())
	t.Cleanup(ts.Close)

	dataDir := t.TempDir()
	c := New(ts.URL, dataDir)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := c.Bootstrap(ctx); err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	p, err := c.Join(ctx, "Alice")
	if err != nil {
		t.Fatal(err)
	}
	if c.Session().PlayerID != p.ID {
		t.Errorf("expected session to hold %s, got %s", p.ID, c.Session().PlayerID)
	}

	if err := c.UpdateVictoryPoints(ctx, p.ID, 3); err != nil {
		t.Fatal(err)
	}
	if got := c.State().VictoryPoints[p.ID]; got != 3 {
		t.Errorf("expected 3 points merged locally, got %d", got)
	}

	// The persisted session survives a fresh container.
	c2 := New(ts.URL, dataDir)
	if err := c2.Bootstrap(ctx); err != nil {
		t.Fatal(err)
	}
	defer c2.Close()
	if c2.Session().PlayerID != p.ID {
		t.Errorf("expected restored session %s, got %s", p.ID, c2.Session().PlayerID)
	}
	if got := c2.State().VictoryPoints[p.ID]; got != 3 {
		t.Errorf("expected snapshot fetch to carry points, got %d", got)
	}
}
