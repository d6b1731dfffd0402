// internal/store/seed.go
//
// Seeds the catalog tables and the shared decks from the bundled static data.
// Runs once per fresh database: seeding is skipped when a game is already in
// progress (players registered) or the catalog is already present.

package store

import (
	"context"
	"database/sql"

	"github.com/ti4table/companion/internal/apperr"
	"github.com/ti4table/companion/internal/catalog"
	"github.com/ti4table/companion/internal/game"
)

// Seed populates catalogs and decks. Returns (false, nil) when skipped.
func (s *Store) Seed(ctx context.Context, c *catalog.Catalog) (bool, error) {
	var players, planets int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM players`).Scan(&players); err != nil {
		return false, apperr.Store(err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM planets`).Scan(&planets); err != nil {
		return false, apperr.Store(err)
	}
	if players > 0 || planets > 0 {
		return false, nil
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for _, p := range c.Planets {
			if _, err := tx.ExecContext(ctx, `
				INSERT OR IGNORE INTO planets (name, resources, influence, terrain, legendary_ability)
				VALUES (?,?,?,?,?)`, p.Name, p.Resources, p.Influence, p.Terrain, p.Legendary); err != nil {
				return apperr.Store(err)
			}
		}
		for _, e := range c.ExplorationCards {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO exploration_cards (name, terrain, subtype, image)
				VALUES (?,?,?,?)`, e.Name, e.Terrain, e.Subtype, e.Image); err != nil {
				return apperr.Store(err)
			}
		}
		for _, r := range c.RelicCards {
			if _, err := tx.ExecContext(ctx, `
				INSERT OR IGNORE INTO relic_cards (name, image) VALUES (?,?)`, r.Name, r.Image); err != nil {
				return apperr.Store(err)
			}
		}
		for _, sc := range c.StrategyCards {
			if _, err := tx.ExecContext(ctx, `
				INSERT OR IGNORE INTO strategy_cards (name, initiative, image)
				VALUES (?,?,?)`, sc.Name, sc.Initiative, sc.Image); err != nil {
				return apperr.Store(err)
			}
		}
		for _, a := range c.ActionCards {
			if _, err := tx.ExecContext(ctx, `
				INSERT OR IGNORE INTO action_cards (name, image) VALUES (?,?)`, a.Name, a.Image); err != nil {
				return apperr.Store(err)
			}
		}
		for _, t := range c.TechnologyCards {
			if _, err := tx.ExecContext(ctx, `
				INSERT OR IGNORE INTO technology_cards (name, color, image)
				VALUES (?,?,?)`, t.Name, t.Color, t.Image); err != nil {
				return apperr.Store(err)
			}
		}
		for _, o := range c.Objectives {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO objectives (description, type, points) VALUES (?,?,?)`,
				o.Description, o.Type, o.Points); err != nil {
				return apperr.Store(err)
			}
		}
		for _, f := range c.Factions {
			if _, err := tx.ExecContext(ctx, `
				INSERT OR IGNORE INTO factions (name, front_image, back_image, reference_image, token_image)
				VALUES (?,?,?,?,?)`, f.Name, f.FrontImage, f.BackImage, f.ReferenceImage, f.TokenImage); err != nil {
				return apperr.Store(err)
			}
		}

		// Every catalog card starts in its deck.
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO exploration_deck (card_id) SELECT id FROM exploration_cards`); err != nil {
			return apperr.Store(err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO relic_deck (card_id) SELECT id FROM relic_cards`); err != nil {
			return apperr.Store(err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// DeckCounts reports remaining deck sizes per exploration terrain plus the
// relic deck, for diagnostics.
func (s *Store) DeckCounts(ctx context.Context) (map[string]int, error) {
	out := map[string]int{}
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.terrain, COUNT(1)
		FROM exploration_deck d
		JOIN exploration_cards c ON c.id = d.card_id
		GROUP BY c.terrain`)
	if err != nil {
		return nil, apperr.Store(err)
	}
	defer rows.Close()
	for rows.Next() {
		var terrain game.Terrain
		var n int
		if err := rows.Scan(&terrain, &n); err != nil {
			return nil, apperr.Store(err)
		}
		out[string(terrain)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store(err)
	}

	var relics int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM relic_deck`).Scan(&relics); err != nil {
		return nil, apperr.Store(err)
	}
	out["relic"] = relics
	return out, nil
}
