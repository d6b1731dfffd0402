// internal/store/snapshot.go
//
// GameState assembles the full snapshot served by GET /api/game-state:
// all players with their planets and hands resolved, the objective catalog,
// and the victory-point map keyed by player ID.

package store

import (
	"context"
	"database/sql"

	"github.com/ti4table/companion/internal/apperr"
	"github.com/ti4table/companion/internal/game"
)

// GameState builds the full snapshot.
func (s *Store) GameState(ctx context.Context) (*game.GameState, error) {
	players, err := s.ListPlayers(ctx)
	if err != nil {
		return nil, err
	}

	vps := map[string]int{}
	for i := range players {
		planets, err := s.PlayerPlanets(ctx, players[i].ID)
		if err != nil {
			return nil, err
		}
		hand, err := s.PlayerExplorationCards(ctx, players[i].ID)
		if err != nil {
			return nil, err
		}
		relics, err := s.PlayerRelics(ctx, players[i].ID)
		if err != nil {
			return nil, err
		}
		objectives, err := s.PlayerObjectives(ctx, players[i].ID)
		if err != nil {
			return nil, err
		}
		players[i].Planets = planets
		players[i].ExplorationCards = hand
		players[i].Relics = relics
		players[i].Objectives = objectives
		vps[players[i].ID] = players[i].VictoryPoints
	}

	objectives, err := s.ListObjectives(ctx)
	if err != nil {
		return nil, err
	}

	return &game.GameState{
		Players:       players,
		Objectives:    objectives,
		VictoryPoints: vps,
	}, nil
}

// Reset clears all per-player state and refills the shared decks from the
// catalog tables. Catalog entities survive; registered players do not.
func (s *Store) Reset(ctx context.Context) error {
	stmts := []string{
		`DELETE FROM players`,
		`DELETE FROM player_planets`,
		`DELETE FROM player_exploration_cards`,
		`DELETE FROM player_relics`,
		`DELETE FROM player_strategy_cards`,
		`DELETE FROM player_action_cards`,
		`DELETE FROM player_technologies`,
		`DELETE FROM player_objectives`,
		`DELETE FROM planet_attachments`,
		`UPDATE strategy_cards SET trade_goods=0`,
		`INSERT OR IGNORE INTO exploration_deck (card_id) SELECT id FROM exploration_cards`,
		`INSERT OR IGNORE INTO relic_deck (card_id) SELECT id FROM relic_cards`,
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, stmt := range stmts {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return apperr.Store(err)
			}
		}
		return nil
	})
}
