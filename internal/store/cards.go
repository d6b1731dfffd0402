// internal/store/cards.go
//
// Card catalogs and player ownership: strategy, action, relic, technology,
// and the relic-fragment combination flow. Set assignments use the same
// delete-all-then-insert transaction as planets.

package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/ti4table/companion/internal/apperr"
	"github.com/ti4table/companion/internal/game"
)

//
// Strategy cards.
//

// ListStrategyCards returns the strategy card catalog ordered by initiative.
func (s *Store) ListStrategyCards(ctx context.Context) ([]game.StrategyCard, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, initiative, image, trade_goods FROM strategy_cards ORDER BY initiative ASC`)
	if err != nil {
		return nil, apperr.Store(err)
	}
	defer rows.Close()

	out := []game.StrategyCard{}
	for rows.Next() {
		var c game.StrategyCard
		if err := rows.Scan(&c.ID, &c.Name, &c.Initiative, &c.Image, &c.TradeGoods); err != nil {
			return nil, apperr.Store(err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// AssignStrategyCards replaces the player's strategy card set.
func (s *Store) AssignStrategyCards(ctx context.Context, playerID string, cardIDs []int) ([]game.StrategyCard, error) {
	if err := s.replaceSet(ctx, "player_strategy_cards", playerID, cardIDs); err != nil {
		return nil, err
	}
	return s.playerStrategyCards(ctx, playerID)
}

func (s *Store) playerStrategyCards(ctx context.Context, playerID string) ([]game.StrategyCard, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.name, c.initiative, c.image, c.trade_goods
		FROM player_strategy_cards pc
		JOIN strategy_cards c ON c.id = pc.card_id
		WHERE pc.player_id=?
		ORDER BY c.initiative ASC`, playerID)
	if err != nil {
		return nil, apperr.Store(err)
	}
	defer rows.Close()

	out := []game.StrategyCard{}
	for rows.Next() {
		var c game.StrategyCard
		if err := rows.Scan(&c.ID, &c.Name, &c.Initiative, &c.Image, &c.TradeGoods); err != nil {
			return nil, apperr.Store(err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpdateTradeGoods applies +1 or -1 to a strategy card's trade-good count,
// floored at zero, and returns the updated card.
func (s *Store) UpdateTradeGoods(ctx context.Context, cardID int, increment bool) (*game.StrategyCard, error) {
	var c game.StrategyCard
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var count int
		err := tx.QueryRowContext(ctx, `SELECT trade_goods FROM strategy_cards WHERE id=?`, cardID).Scan(&count)
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("strategy card %d not found", cardID)
		}
		if err != nil {
			return apperr.Store(err)
		}

		if increment {
			count++
		} else if count > 0 {
			count--
		}

		if _, err := tx.ExecContext(ctx, `UPDATE strategy_cards SET trade_goods=? WHERE id=?`, count, cardID); err != nil {
			return apperr.Store(err)
		}
		return tx.QueryRowContext(ctx,
			`SELECT id, name, initiative, image, trade_goods FROM strategy_cards WHERE id=?`, cardID).
			Scan(&c.ID, &c.Name, &c.Initiative, &c.Image, &c.TradeGoods)
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

//
// Action cards.
//

// ListActionCards returns the action card catalog.
func (s *Store) ListActionCards(ctx context.Context) ([]game.ActionCard, error) {
	return s.listNamedCards(ctx, `SELECT id, name, image FROM action_cards ORDER BY name ASC`)
}

// AssignActionCards replaces the player's action card set.
func (s *Store) AssignActionCards(ctx context.Context, playerID string, cardIDs []int) ([]game.ActionCard, error) {
	if err := s.replaceSet(ctx, "player_action_cards", playerID, cardIDs); err != nil {
		return nil, err
	}
	return s.listNamedCards(ctx, `
		SELECT c.id, c.name, c.image
		FROM player_action_cards pc
		JOIN action_cards c ON c.id = pc.card_id
		WHERE pc.player_id=?
		ORDER BY c.name ASC`, playerID)
}

func (s *Store) listNamedCards(ctx context.Context, query string, args ...any) ([]game.ActionCard, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperr.Store(err)
	}
	defer rows.Close()

	out := []game.ActionCard{}
	for rows.Next() {
		var c game.ActionCard
		if err := rows.Scan(&c.ID, &c.Name, &c.Image); err != nil {
			return nil, apperr.Store(err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

//
// Relics and fragments.
//

// ListRelics returns the relic card catalog.
func (s *Store) ListRelics(ctx context.Context) ([]game.RelicCard, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, image FROM relic_cards ORDER BY name ASC`)
	if err != nil {
		return nil, apperr.Store(err)
	}
	defer rows.Close()

	out := []game.RelicCard{}
	for rows.Next() {
		var c game.RelicCard
		if err := rows.Scan(&c.ID, &c.Name, &c.Image); err != nil {
			return nil, apperr.Store(err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// PlayerExplorationCards returns the exploration cards in a player's hand.
func (s *Store) PlayerExplorationCards(ctx context.Context, playerID string) ([]game.ExplorationCard, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.name, c.terrain, c.subtype, c.image
		FROM player_exploration_cards pc
		JOIN exploration_cards c ON c.id = pc.card_id
		WHERE pc.player_id=?
		ORDER BY c.name ASC`, playerID)
	if err != nil {
		return nil, apperr.Store(err)
	}
	defer rows.Close()

	out := []game.ExplorationCard{}
	for rows.Next() {
		var c game.ExplorationCard
		if err := rows.Scan(&c.ID, &c.Name, &c.Terrain, &c.Subtype, &c.Image); err != nil {
			return nil, apperr.Store(err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CombineResult is the outcome of a successful fragment combination.
type CombineResult struct {
	PlayerID    string         `json:"playerId"`
	FragmentIDs []int          `json:"fragmentIds"`
	Relic       game.RelicCard `json:"relic"`
}

// CombineRelicFragments trades three compatible relic fragments from the
// player's hand for one random relic. The whole flow is a single transaction:
// when the relic deck turns out to be empty the fragment removal rolls back
// and the player keeps all three cards.
func (s *Store) CombineRelicFragments(ctx context.Context, playerID string, fragmentIDs []int) (*CombineResult, error) {
	if len(fragmentIDs) != 3 {
		return nil, apperr.Validation("exactly 3 fragment ids required, got %d", len(fragmentIDs))
	}
	seen := map[int]bool{}
	for _, id := range fragmentIDs {
		if seen[id] {
			return nil, apperr.Validation("fragment id %d listed more than once", id)
		}
		seen[id] = true
	}

	out := &CombineResult{PlayerID: playerID, FragmentIDs: fragmentIDs}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		frags := make([]game.ExplorationCard, 0, 3)
		for _, id := range fragmentIDs {
			var c game.ExplorationCard
			err := tx.QueryRowContext(ctx, `
				SELECT c.id, c.name, c.terrain, c.subtype, c.image
				FROM player_exploration_cards pc
				JOIN exploration_cards c ON c.id = pc.card_id
				WHERE pc.player_id=? AND pc.card_id=?`, playerID, id).
				Scan(&c.ID, &c.Name, &c.Terrain, &c.Subtype, &c.Image)
			if errors.Is(err, sql.ErrNoRows) {
				return apperr.NotFound("player %s does not hold card %d", playerID, id)
			}
			if err != nil {
				return apperr.Store(err)
			}
			frags = append(frags, c)
		}

		if err := game.ValidateFragmentSet(frags); err != nil {
			return apperr.Validation("%v", err)
		}

		for _, id := range fragmentIDs {
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM player_exploration_cards WHERE player_id=? AND card_id=?`, playerID, id); err != nil {
				return apperr.Store(err)
			}
		}

		var relicID int
		err := tx.QueryRowContext(ctx, `
			DELETE FROM relic_deck WHERE card_id IN (
				SELECT card_id FROM relic_deck ORDER BY RANDOM() LIMIT 1
			) RETURNING card_id`).Scan(&relicID)
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("relic deck is empty")
		}
		if err != nil {
			return apperr.Store(err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO player_relics (player_id, card_id) VALUES (?,?)`, playerID, relicID); err != nil {
			return apperr.Store(err)
		}
		return tx.QueryRowContext(ctx,
			`SELECT id, name, image FROM relic_cards WHERE id=?`, relicID).
			Scan(&out.Relic.ID, &out.Relic.Name, &out.Relic.Image)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// PlayerRelics returns the relics a player owns.
func (s *Store) PlayerRelics(ctx context.Context, playerID string) ([]game.RelicCard, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.name, c.image
		FROM player_relics pc
		JOIN relic_cards c ON c.id = pc.card_id
		WHERE pc.player_id=?
		ORDER BY c.name ASC`, playerID)
	if err != nil {
		return nil, apperr.Store(err)
	}
	defer rows.Close()

	out := []game.RelicCard{}
	for rows.Next() {
		var c game.RelicCard
		if err := rows.Scan(&c.ID, &c.Name, &c.Image); err != nil {
			return nil, apperr.Store(err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

//
// Technologies.
//

// ListTechnologies returns the technology catalog.
func (s *Store) ListTechnologies(ctx context.Context) ([]game.TechnologyCard, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, color, image FROM technology_cards ORDER BY name ASC`)
	if err != nil {
		return nil, apperr.Store(err)
	}
	defer rows.Close()

	out := []game.TechnologyCard{}
	for rows.Next() {
		var c game.TechnologyCard
		if err := rows.Scan(&c.ID, &c.Name, &c.Color, &c.Image); err != nil {
			return nil, apperr.Store(err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// AssignTechnologies replaces the player's technology set (all untapped).
func (s *Store) AssignTechnologies(ctx context.Context, playerID string, cardIDs []int) ([]game.TechnologyCard, error) {
	if err := s.replaceSet(ctx, "player_technologies", playerID, cardIDs); err != nil {
		return nil, err
	}
	return s.PlayerTechnologies(ctx, playerID)
}

// PlayerTechnologies returns the technologies a player owns with tapped state.
func (s *Store) PlayerTechnologies(ctx context.Context, playerID string) ([]game.TechnologyCard, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.name, c.color, c.image, pt.tapped
		FROM player_technologies pt
		JOIN technology_cards c ON c.id = pt.card_id
		WHERE pt.player_id=?
		ORDER BY c.name ASC`, playerID)
	if err != nil {
		return nil, apperr.Store(err)
	}
	defer rows.Close()

	out := []game.TechnologyCard{}
	for rows.Next() {
		var c game.TechnologyCard
		if err := rows.Scan(&c.ID, &c.Name, &c.Color, &c.Image, &c.Tapped); err != nil {
			return nil, apperr.Store(err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpdateTechTapped flips the tapped flag on one owned technology.
func (s *Store) UpdateTechTapped(ctx context.Context, playerID string, cardID int, tapped bool) (*game.TechnologyCard, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE player_technologies SET tapped=? WHERE player_id=? AND card_id=?`, tapped, playerID, cardID)
	if err != nil {
		return nil, apperr.Store(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, apperr.NotFound("player %s does not own technology %d", playerID, cardID)
	}

	var c game.TechnologyCard
	err = s.db.QueryRowContext(ctx, `
		SELECT c.id, c.name, c.color, c.image, pt.tapped
		FROM player_technologies pt
		JOIN technology_cards c ON c.id = pt.card_id
		WHERE pt.player_id=? AND pt.card_id=?`, playerID, cardID).
		Scan(&c.ID, &c.Name, &c.Color, &c.Image, &c.Tapped)
	if err != nil {
		return nil, apperr.Store(err)
	}
	return &c, nil
}

//
// Shared replace-set helper.
//

// setTables whitelists the ownership join tables replaceSet may touch.
var setTables = map[string]bool{
	"player_strategy_cards": true,
	"player_action_cards":   true,
	"player_technologies":   true,
}

// replaceSet deletes all of the player's rows in the given join table and
// inserts one row per requested card, in one transaction.
func (s *Store) replaceSet(ctx context.Context, table, playerID string, cardIDs []int) error {
	if !setTables[table] {
		return apperr.Validation("unknown ownership table %q", table)
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE player_id=?`, playerID); err != nil {
			return apperr.Store(err)
		}
		for _, id := range cardIDs {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO `+table+` (player_id, card_id) VALUES (?,?)`, playerID, id); err != nil {
				return apperr.Store(err)
			}
		}
		return nil
	})
}
