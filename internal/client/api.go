// internal/client/api.go
//
// REST helpers mirroring the server's mutation surface. Every mutation
// decodes the handler's authoritative response and merges it through the
// same reducer the websocket events go through.

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/ti4table/companion/internal/game"
	"github.com/ti4table/companion/internal/ws"
)

// apiError is the JSON error body the server returns on 4xx/5xx. Structured
// taxonomy errors carry code/message; a few raw paths use an "error" field.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     string `json:"error"`
}

// getJSON performs a GET and decodes the body into dst.
func (c *Container) getJSON(ctx context.Context, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeResponse(resp, dst)
}

// postJSON performs a POST with a JSON body and decodes the response into dst.
func (c *Container) postJSON(ctx context.Context, path string, body, dst any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeResponse(resp, dst)
}

// decodeResponse maps non-2xx bodies to errors and decodes success bodies.
func decodeResponse(resp *http.Response, dst any) error {
	if resp.StatusCode >= 400 {
		var ae apiError
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		msg := ""
		if json.Unmarshal(body, &ae) == nil {
			msg = ae.Message
			if msg == "" {
				msg = ae.Err
			}
		}
		if msg != "" {
			return fmt.Errorf("%s (%d)", msg, resp.StatusCode)
		}
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}
	if dst == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}

// mutate posts the request, then feeds the handler's response through the
// reducer under the given event name so local state converges the same way
// remote clients' state does.
func (c *Container) mutate(ctx context.Context, path string, body any, event string) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.postJSON(ctx, path, body, &raw); err != nil {
		return nil, err
	}
	c.apply(ws.Event{Name: event, Payload: raw})
	return raw, nil
}

// Join registers a player and persists the identity for future sessions.
func (c *Container) Join(ctx context.Context, name string) (*game.Player, error) {
	raw, err := c.mutate(ctx, "/api/player/join", map[string]string{"name": name}, "player-joined")
	if err != nil {
		return nil, err
	}
	var p game.Player
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	sess := Session{PlayerID: p.ID, Name: p.Name}
	c.mu.Lock()
	c.session = sess
	c.mu.Unlock()
	if err := saveSession(c.dataDir, sess); err != nil {
		c.logger.Warn().Err(err).Msg("failed to persist session")
	}
	return &p, nil
}

// UpdateVictoryPoints overwrites a player's victory points.
func (c *Container) UpdateVictoryPoints(ctx context.Context, playerID string, points int) error {
	_, err := c.mutate(ctx, "/api/victory-points/update",
		map[string]any{"playerId": playerID, "points": points}, "victory-points-updated")
	return err
}

// UpdateResources overwrites a player's resource counter.
func (c *Container) UpdateResources(ctx context.Context, playerID string, value int) error {
	return c.updateCounter(ctx, "update-resources", playerID, value)
}

// UpdateInfluence overwrites a player's influence counter.
func (c *Container) UpdateInfluence(ctx context.Context, playerID string, value int) error {
	return c.updateCounter(ctx, "update-influence", playerID, value)
}

// UpdateCommodities overwrites a player's commodity counter.
func (c *Container) UpdateCommodities(ctx context.Context, playerID string, value int) error {
	return c.updateCounter(ctx, "update-commodities", playerID, value)
}

// UpdateTradeGoods overwrites a player's trade-good counter.
func (c *Container) UpdateTradeGoods(ctx context.Context, playerID string, value int) error {
	return c.updateCounter(ctx, "update-trade-goods", playerID, value)
}

func (c *Container) updateCounter(ctx context.Context, op, playerID string, value int) error {
	_, err := c.mutate(ctx, "/api/player/"+op,
		map[string]any{"playerId": playerID, "value": value}, "player-updated")
	return err
}

// SelectFaction records a player's faction choice.
func (c *Container) SelectFaction(ctx context.Context, playerID, faction string) error {
	_, err := c.mutate(ctx, "/api/player/select-faction",
		map[string]any{"playerId": playerID, "faction": faction}, "faction-selected")
	return err
}

// AssignPlanets replaces the player's whole planet set.
func (c *Container) AssignPlanets(ctx context.Context, playerID string, planetIDs []int) error {
	_, err := c.mutate(ctx, "/api/player/assign-planets",
		map[string]any{"playerId": playerID, "planetIds": planetIDs}, "planets-assigned")
	return err
}

// UpdateTapped sets one controlled planet's tapped flag.
func (c *Container) UpdateTapped(ctx context.Context, playerID string, planetID int, tapped bool) error {
	_, err := c.mutate(ctx, "/api/player/update-tapped",
		map[string]any{"playerId": playerID, "planetId": planetID, "tapped": tapped}, "planet-tapped")
	return err
}

// ExplorePlanet draws from the planet's terrain deck and returns the result.
func (c *Container) ExplorePlanet(ctx context.Context, playerID string, planetID int) (*ExploreResult, error) {
	raw, err := c.mutate(ctx, "/api/explore-planet",
		map[string]any{"playerId": playerID, "planetId": planetID}, "planet-explored")
	if err != nil {
		return nil, err
	}
	var res ExploreResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ExploreResult mirrors the server's exploration response.
type ExploreResult struct {
	PlayerID string               `json:"playerId"`
	PlanetID int                  `json:"planetId"`
	Card     game.ExplorationCard `json:"card"`
	Attached bool                 `json:"attached"`
}

// CombineRelicFragments trades three fragments for a relic.
func (c *Container) CombineRelicFragments(ctx context.Context, playerID string, fragmentIDs []int) (*game.RelicCard, error) {
	raw, err := c.mutate(ctx, "/api/combine-relic-fragments",
		map[string]any{"playerId": playerID, "fragmentIds": fragmentIDs}, "relic-gained")
	if err != nil {
		return nil, err
	}
	var res struct {
		Relic game.RelicCard `json:"relic"`
	}
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, err
	}
	return &res.Relic, nil
}

// AssignStrategyCards replaces the player's strategy card set.
func (c *Container) AssignStrategyCards(ctx context.Context, playerID string, cardIDs []int) error {
	_, err := c.mutate(ctx, "/api/player/assign-strategy-cards",
		map[string]any{"playerId": playerID, "cardIds": cardIDs}, "cards-assigned")
	return err
}

// AssignActionCards replaces the player's action card set.
func (c *Container) AssignActionCards(ctx context.Context, playerID string, cardIDs []int) error {
	_, err := c.mutate(ctx, "/api/player/assign-action-cards",
		map[string]any{"playerId": playerID, "cardIds": cardIDs}, "cards-assigned")
	return err
}

// AssignTechnologies replaces the player's technology set.
func (c *Container) AssignTechnologies(ctx context.Context, playerID string, cardIDs []int) error {
	_, err := c.mutate(ctx, "/api/player/assign-technologies",
		map[string]any{"playerId": playerID, "cardIds": cardIDs}, "cards-assigned")
	return err
}

// UpdateTechTapped sets an owned technology's tapped flag.
func (c *Container) UpdateTechTapped(ctx context.Context, playerID string, cardID int, tapped bool) error {
	_, err := c.mutate(ctx, "/api/technology/update-tapped",
		map[string]any{"playerId": playerID, "cardId": cardID, "tapped": tapped}, "technology-tapped")
	return err
}

// UpdateStrategyTradeGoods adjusts the trade-good pool on a strategy card.
func (c *Container) UpdateStrategyTradeGoods(ctx context.Context, cardID int, increment bool) error {
	_, err := c.mutate(ctx, "/api/strategy-card/update-trade-goods",
		map[string]any{"cardId": cardID, "increment": increment}, "tradeGoodUpdated")
	return err
}

// UpdateObjectiveCompleted records an objective's completion for a player.
func (c *Container) UpdateObjectiveCompleted(ctx context.Context, playerID string, objectiveID int, completed bool) error {
	_, err := c.mutate(ctx, "/api/objective/update-completed",
		map[string]any{"playerId": playerID, "objectiveId": objectiveID, "completed": completed}, "objective-updated")
	return err
}

// AttachCards manually fixes attach-subtype cards to a planet.
func (c *Container) AttachCards(ctx context.Context, planetID int, cardIDs []int) error {
	_, err := c.mutate(ctx, "/api/planet/attach-cards",
		map[string]any{"planetId": planetID, "cardIds": cardIDs}, "attachments-updated")
	return err
}

// DetachCards removes manual attachments from a planet.
func (c *Container) DetachCards(ctx context.Context, planetID int, cardIDs []int) error {
	_, err := c.mutate(ctx, "/api/planet/detach-cards",
		map[string]any{"planetId": planetID, "cardIds": cardIDs}, "attachments-updated")
	return err
}

// AttachTypeCards fetches the catalog of manually attachable cards.
func (c *Container) AttachTypeCards(ctx context.Context) ([]game.ExplorationCard, error) {
	var out []game.ExplorationCard
	if err := c.getJSON(ctx, "/api/attach-cards", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PlayerObjectives fetches the objectives a player has a completion record for.
func (c *Container) PlayerObjectives(ctx context.Context, playerID string) ([]game.Objective, error) {
	var out []game.Objective
	if err := c.getJSON(ctx, "/api/player/objectives?playerId="+url.QueryEscape(playerID), &out); err != nil {
		return nil, err
	}
	return out, nil
}
