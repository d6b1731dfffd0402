// internal/client/container.go
//
// Container is the process-wide state holder for a companion client: the
// last full game-state snapshot plus the local session identity. It is
// bootstrapped once, subscribes to the server's event stream, and folds
// every event into the snapshot through a single reducer. Handler return
// values from local mutations go through the same reducer, so container
// state is always a function of the last snapshot plus the event stream.

package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"nhooyr.io/websocket"

	"github.com/ti4table/companion/internal/game"
	"github.com/ti4table/companion/internal/ws"
)

// Container caches the snapshot and session and exposes mutation helpers.
type Container struct {
	baseURL string
	dataDir string
	httpc   *http.Client
	logger  zerolog.Logger

	mu      sync.RWMutex
	state   game.GameState
	session Session

	conn   *websocket.Conn
	cancel context.CancelFunc
}

// New creates a container pointing at baseURL (e.g. "http://localhost:5000").
// dataDir is where the session file lives.
func New(baseURL, dataDir string) *Container {
	return &Container{
		baseURL: strings.TrimRight(baseURL, "/"),
		dataDir: dataDir,
		httpc:   &http.Client{Timeout: 10 * time.Second},
		logger:  log.With().Str("component", "client").Logger(),
	}
}

// Bootstrap loads the persisted session, fetches the full snapshot, and opens
// the websocket subscription. Events arriving on the socket are merged into
// the snapshot until ctx is cancelled or Close is called.
func (c *Container) Bootstrap(ctx context.Context) error {
	sess, err := loadSession(c.dataDir)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.session = sess
	c.mu.Unlock()

	if err := c.Refresh(ctx); err != nil {
		return err
	}

	wsURL := "ws" + strings.TrimPrefix(c.baseURL, "http") + "/api/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		return err
	}

	subCtx, cancel := context.WithCancel(ctx)
	c.conn = conn
	c.cancel = cancel
	go c.listen(subCtx, conn)
	return nil
}

// Close tears down the websocket subscription.
func (c *Container) Close() {
	if c.cancel != nil {
		c.cancel()
	}
	if c.conn != nil {
		_ = c.conn.Close(websocket.StatusNormalClosure, "bye")
	}
}

// Refresh replaces the snapshot wholesale from GET /api/game-state.
func (c *Container) Refresh(ctx context.Context) error {
	var st game.GameState
	if err := c.getJSON(ctx, "/api/game-state", &st); err != nil {
		return err
	}
	if st.VictoryPoints == nil {
		st.VictoryPoints = map[string]int{}
	}
	c.mu.Lock()
	c.state = st
	c.mu.Unlock()
	return nil
}

// State returns a copy of the current snapshot.
func (c *Container) State() game.GameState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	st := c.state
	st.Players = append([]game.Player(nil), c.state.Players...)
	st.Objectives = append([]game.Objective(nil), c.state.Objectives...)
	st.VictoryPoints = make(map[string]int, len(c.state.VictoryPoints))
	for k, v := range c.state.VictoryPoints {
		st.VictoryPoints[k] = v
	}
	return st
}

// Session returns the cached local identity.
func (c *Container) Session() Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// listen reads events off the socket and feeds them to the reducer.
func (c *Container) listen(ctx context.Context, conn *websocket.Conn) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if ctx.Err() == nil {
				c.logger.Warn().Err(err).Msg("event stream closed")
			}
			return
		}
		var ev ws.Event
		if err := json.Unmarshal(data, &ev); err != nil {
			c.logger.Warn().Err(err).Msg("unparseable event")
			continue
		}
		c.apply(ev)
	}
}

// SendVictoryPoints pushes an update-victory-points event over the socket.
// The server rebroadcasts it without persistence; use UpdateVictoryPoints for
// the durable path.
func (c *Container) SendVictoryPoints(ctx context.Context, playerID string, points int) error {
	if c.conn == nil {
		return errors.New("not connected")
	}
	payload, _ := json.Marshal(map[string]any{"playerId": playerID, "points": points})
	msg, _ := json.Marshal(ws.Event{Name: "update-victory-points", Payload: payload})
	return c.conn.Write(ctx, websocket.MessageText, msg)
}

// ------------------------------- reducer -----------------------------------

// apply folds one named event into the snapshot. Every event — whether it
// arrived on the socket or was returned by a local mutation call — passes
// through here, keyed by entity id. Unknown events are ignored.
func (c *Container) apply(ev ws.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.VictoryPoints == nil {
		c.state.VictoryPoints = map[string]int{}
	}

	switch ev.Name {
	case "player-joined", "player-updated", "victory-points-updated", "faction-selected":
		var p game.Player
		if json.Unmarshal(ev.Payload, &p) != nil || p.ID == "" {
			return
		}
		c.upsertPlayer(p)
		c.state.VictoryPoints[p.ID] = p.VictoryPoints

	case "planets-assigned":
		var body struct {
			PlayerID string              `json:"playerId"`
			Planets  []game.PlayerPlanet `json:"planets"`
		}
		if json.Unmarshal(ev.Payload, &body) != nil || body.PlayerID == "" {
			return
		}
		if p := c.findPlayer(body.PlayerID); p != nil {
			p.Planets = body.Planets
		}

	case "planet-tapped":
		var body struct {
			PlayerID string            `json:"playerId"`
			Planet   game.PlayerPlanet `json:"planet"`
		}
		if json.Unmarshal(ev.Payload, &body) != nil || body.PlayerID == "" {
			return
		}
		if p := c.findPlayer(body.PlayerID); p != nil {
			for i := range p.Planets {
				if p.Planets[i].ID == body.Planet.ID {
					p.Planets[i] = body.Planet
					return
				}
			}
			p.Planets = append(p.Planets, body.Planet)
		}

	case "planet-explored":
		var body struct {
			PlayerID string               `json:"playerId"`
			PlanetID int                  `json:"planetId"`
			Card     game.ExplorationCard `json:"card"`
			Attached bool                 `json:"attached"`
		}
		if json.Unmarshal(ev.Payload, &body) != nil {
			return
		}
		p := c.findPlayer(body.PlayerID)
		if p == nil {
			return
		}
		if !body.Attached {
			p.ExplorationCards = append(p.ExplorationCards, body.Card)
			return
		}
		for i := range p.Planets {
			if p.Planets[i].ID == body.PlanetID {
				p.Planets[i].Attachments = append(p.Planets[i].Attachments, body.Card)
				return
			}
		}

	case "planet-deleted":
		var body struct {
			PlanetID int `json:"planetId"`
		}
		if json.Unmarshal(ev.Payload, &body) != nil {
			return
		}
		for i := range c.state.Players {
			p := &c.state.Players[i]
			kept := p.Planets[:0]
			for _, pp := range p.Planets {
				if pp.ID != body.PlanetID {
					kept = append(kept, pp)
				}
			}
			p.Planets = kept
		}

	case "attachments-updated":
		var body struct {
			PlanetID    int                    `json:"planetId"`
			Attachments []game.ExplorationCard `json:"attachments"`
		}
		if json.Unmarshal(ev.Payload, &body) != nil {
			return
		}
		// The planet may sit in any player's set (or nobody's).
		for i := range c.state.Players {
			for j := range c.state.Players[i].Planets {
				if c.state.Players[i].Planets[j].ID == body.PlanetID {
					c.state.Players[i].Planets[j].Attachments = body.Attachments
				}
			}
		}

	case "objective-created":
		var o game.Objective
		if json.Unmarshal(ev.Payload, &o) != nil || o.ID == 0 {
			return
		}
		c.state.Objectives = append(c.state.Objectives, o)

	case "game-reset":
		c.state = game.GameState{
			Objectives:    c.state.Objectives,
			VictoryPoints: map[string]int{},
		}

	case "relic-gained":
		var body struct {
			PlayerID    string         `json:"playerId"`
			FragmentIDs []int          `json:"fragmentIds"`
			Relic       game.RelicCard `json:"relic"`
		}
		if json.Unmarshal(ev.Payload, &body) != nil {
			return
		}
		p := c.findPlayer(body.PlayerID)
		if p == nil {
			return
		}
		consumed := map[int]bool{}
		for _, id := range body.FragmentIDs {
			consumed[id] = true
		}
		kept := p.ExplorationCards[:0]
		for _, card := range p.ExplorationCards {
			if !consumed[card.ID] {
				kept = append(kept, card)
			}
		}
		p.ExplorationCards = kept
		p.Relics = append(p.Relics, body.Relic)

	case "objective-updated":
		var body struct {
			PlayerID    string `json:"playerId"`
			ObjectiveID int    `json:"objectiveId"`
			Completed   bool   `json:"completed"`
		}
		if json.Unmarshal(ev.Payload, &body) != nil {
			return
		}
		p := c.findPlayer(body.PlayerID)
		if p == nil {
			return
		}
		for i := range p.Objectives {
			if p.Objectives[i].ID == body.ObjectiveID {
				p.Objectives[i].Completed = body.Completed
				return
			}
		}
		// First touch for this player: copy the catalog entry in.
		for _, o := range c.state.Objectives {
			if o.ID == body.ObjectiveID {
				o.Completed = body.Completed
				p.Objectives = append(p.Objectives, o)
				return
			}
		}

	case "cards-assigned", "technology-tapped", "tradeGoodUpdated":
		// Card catalogs and per-player card sets are not part of the snapshot.

	default:
		// Events this build does not know about are dropped on the floor.
	}
}

// upsertPlayer replaces a player row by id, or appends a new one.
// The snapshot's planet and hand lists survive a partial player payload.
func (c *Container) upsertPlayer(p game.Player) {
	for i := range c.state.Players {
		if c.state.Players[i].ID == p.ID {
			if p.Planets == nil {
				p.Planets = c.state.Players[i].Planets
			}
			if p.ExplorationCards == nil {
				p.ExplorationCards = c.state.Players[i].ExplorationCards
			}
			if p.Relics == nil {
				p.Relics = c.state.Players[i].Relics
			}
			if p.Objectives == nil {
				p.Objectives = c.state.Players[i].Objectives
			}
			c.state.Players[i] = p
			return
		}
	}
	c.state.Players = append(c.state.Players, p)
}

// findPlayer returns a pointer into the snapshot, or nil.
// Callers must hold c.mu.
func (c *Container) findPlayer(id string) *game.Player {
	for i := range c.state.Players {
		if c.state.Players[i].ID == id {
			return &c.state.Players[i]
		}
	}
	return nil
}
