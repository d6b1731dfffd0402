// internal/store/planets.go
//
// Planet catalog, per-player planet assignments, exploration, attachments.
// Assignment replaces the whole set (delete-all-then-insert) inside one
// transaction; exploration draws with a single DELETE ... RETURNING so a card
// leaves the deck exactly once even under concurrent requests.

package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/ti4table/companion/internal/apperr"
	"github.com/ti4table/companion/internal/game"
)

// ListPlanets returns the full planet catalog.
func (s *Store) ListPlanets(ctx context.Context) ([]game.Planet, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, resources, influence, terrain, legendary_ability FROM planets ORDER BY name ASC`)
	if err != nil {
		return nil, apperr.Store(err)
	}
	defer rows.Close()

	out := []game.Planet{}
	for rows.Next() {
		var p game.Planet
		if err := rows.Scan(&p.ID, &p.Name, &p.Resources, &p.Influence, &p.Terrain, &p.Legendary); err != nil {
			return nil, apperr.Store(err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store(err)
	}
	return out, nil
}

// AssignPlanets replaces the player's entire planet set in one transaction:
// delete all existing rows, insert one untapped row per requested planet.
// Requested IDs are not validated against the catalog.
func (s *Store) AssignPlanets(ctx context.Context, playerID string, planetIDs []int) ([]game.PlayerPlanet, error) {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM player_planets WHERE player_id=?`, playerID); err != nil {
			return apperr.Store(err)
		}
		for _, id := range planetIDs {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO player_planets (player_id, planet_id, tapped) VALUES (?,?,0)`,
				playerID, id); err != nil {
				return apperr.Store(err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.PlayerPlanets(ctx, playerID)
}

// PlayerPlanets returns the planets a player controls, with attachments.
func (s *Store) PlayerPlanets(ctx context.Context, playerID string) ([]game.PlayerPlanet, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.name, p.resources, p.influence, p.terrain, p.legendary_ability, pp.tapped
		FROM player_planets pp
		JOIN planets p ON p.id = pp.planet_id
		WHERE pp.player_id=?
		ORDER BY p.name ASC`, playerID)
	if err != nil {
		return nil, apperr.Store(err)
	}
	defer rows.Close()

	out := []game.PlayerPlanet{}
	for rows.Next() {
		var pp game.PlayerPlanet
		if err := rows.Scan(&pp.ID, &pp.Name, &pp.Resources, &pp.Influence, &pp.Terrain, &pp.Legendary, &pp.Tapped); err != nil {
			return nil, apperr.Store(err)
		}
		out = append(out, pp)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store(err)
	}

	for i := range out {
		att, err := s.ListAttachments(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		if len(att) > 0 {
			out[i].Attachments = att
		}
	}
	return out, nil
}

// UpdatePlanetTapped flips the tapped flag on a single assignment row.
// Idempotent; NotFound when the player does not control the planet.
func (s *Store) UpdatePlanetTapped(ctx context.Context, playerID string, planetID int, tapped bool) (*game.PlayerPlanet, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE player_planets SET tapped=? WHERE player_id=? AND planet_id=?`, tapped, playerID, planetID)
	if err != nil {
		return nil, apperr.Store(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, apperr.NotFound("player %s does not control planet %d", playerID, planetID)
	}

	var pp game.PlayerPlanet
	err = s.db.QueryRowContext(ctx, `
		SELECT p.id, p.name, p.resources, p.influence, p.terrain, p.legendary_ability, pp.tapped
		FROM player_planets pp
		JOIN planets p ON p.id = pp.planet_id
		WHERE pp.player_id=? AND pp.planet_id=?`, playerID, planetID).
		Scan(&pp.ID, &pp.Name, &pp.Resources, &pp.Influence, &pp.Terrain, &pp.Legendary, &pp.Tapped)
	if errors.Is(err, sql.ErrNoRows) {
		// assignment row without a catalog planet (unvalidated assign)
		return &game.PlayerPlanet{Planet: game.Planet{ID: planetID}, Tapped: tapped}, nil
	}
	if err != nil {
		return nil, apperr.Store(err)
	}
	return &pp, nil
}

// ExploreResult is what an exploration produced: the drawn card and where it
// went (attached to the planet, or into the player's hand).
type ExploreResult struct {
	PlayerID string               `json:"playerId"`
	PlanetID int                  `json:"planetId"`
	Card     game.ExplorationCard `json:"card"`
	Attached bool                 `json:"attached"`
}

// ExplorePlanet draws one random card from the exploration deck matching the
// planet's terrain and resolves it: "attach" cards fix to the planet, all
// others go to the player's hand. The draw and the deck-row deletion are a
// single DELETE ... RETURNING statement inside the transaction, so two
// concurrent explores can never both take the last card. NotFound when the
// planet is unknown or the terrain deck is empty.
func (s *Store) ExplorePlanet(ctx context.Context, playerID string, planetID int) (*ExploreResult, error) {
	out := &ExploreResult{PlayerID: playerID, PlanetID: planetID}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var terrain game.Terrain
		err := tx.QueryRowContext(ctx, `SELECT terrain FROM planets WHERE id=?`, planetID).Scan(&terrain)
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("planet %d not found", planetID)
		}
		if err != nil {
			return apperr.Store(err)
		}

		var cardID int
		err = tx.QueryRowContext(ctx, `
			DELETE FROM exploration_deck WHERE card_id IN (
				SELECT d.card_id FROM exploration_deck d
				JOIN exploration_cards c ON c.id = d.card_id
				WHERE c.terrain=?
				ORDER BY RANDOM() LIMIT 1
			) RETURNING card_id`, terrain).Scan(&cardID)
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("%s exploration deck is empty", terrain)
		}
		if err != nil {
			return apperr.Store(err)
		}

		c := &out.Card
		err = tx.QueryRowContext(ctx,
			`SELECT id, name, terrain, subtype, image FROM exploration_cards WHERE id=?`, cardID).
			Scan(&c.ID, &c.Name, &c.Terrain, &c.Subtype, &c.Image)
		if err != nil {
			return apperr.Store(err)
		}

		if c.Subtype == game.SubtypeAttach {
			out.Attached = true
			_, err = tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO planet_attachments (planet_id, card_id) VALUES (?,?)`, planetID, cardID)
		} else {
			_, err = tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO player_exploration_cards (player_id, card_id) VALUES (?,?)`, playerID, cardID)
		}
		if err != nil {
			return apperr.Store(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListAttachments returns the exploration cards fixed to a planet.
func (s *Store) ListAttachments(ctx context.Context, planetID int) ([]game.ExplorationCard, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.name, c.terrain, c.subtype, c.image
		FROM planet_attachments a
		JOIN exploration_cards c ON c.id = a.card_id
		WHERE a.planet_id=?
		ORDER BY c.name ASC`, planetID)
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

// ListAttachTypeCards returns every exploration card that can be fixed to a
// planet, for the manual attachment picker.
func (s *Store) ListAttachTypeCards(ctx context.Context) ([]game.ExplorationCard, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, terrain, subtype, image
		FROM exploration_cards
		WHERE subtype=?
		ORDER BY name ASC`, game.SubtypeAttach)
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

// AttachmentUpdate is the result of a manual attach or detach: the planet and
// its full attachment list after the change.
type AttachmentUpdate struct {
	PlanetID    int                    `json:"planetId"`
	Attachments []game.ExplorationCard `json:"attachments"`
}

// AttachCards fixes the listed attach-subtype cards to a planet. The
// (planet, card) pair is unique; attaching an already-attached card is a
// no-op rather than a duplicate row. Cards that are not attach-subtype are
// rejected before anything is written.
func (s *Store) AttachCards(ctx context.Context, planetID int, cardIDs []int) (*AttachmentUpdate, error) {
	if len(cardIDs) == 0 {
		return nil, apperr.Validation("cardIds must not be empty")
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM planets WHERE id=?`, planetID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("planet %d not found", planetID)
		}
		if err != nil {
			return apperr.Store(err)
		}

		for _, id := range cardIDs {
			var subtype game.Subtype
			err := tx.QueryRowContext(ctx, `SELECT subtype FROM exploration_cards WHERE id=?`, id).Scan(&subtype)
			if errors.Is(err, sql.ErrNoRows) {
				return apperr.NotFound("exploration card %d not found", id)
			}
			if err != nil {
				return apperr.Store(err)
			}
			if subtype != game.SubtypeAttach {
				return apperr.Validation("card %d is not an attachable card", id)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO planet_attachments (planet_id, card_id) VALUES (?,?)`, planetID, id); err != nil {
				return apperr.Store(err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	att, err := s.ListAttachments(ctx, planetID)
	if err != nil {
		return nil, err
	}
	return &AttachmentUpdate{PlanetID: planetID, Attachments: att}, nil
}

// DetachCards removes the listed attachments from a planet. IDs that are not
// currently attached are ignored.
func (s *Store) DetachCards(ctx context.Context, planetID int, cardIDs []int) (*AttachmentUpdate, error) {
	if len(cardIDs) == 0 {
		return nil, apperr.Validation("cardIds must not be empty")
	}

	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM planets WHERE id=?`, planetID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("planet %d not found", planetID)
	}
	if err != nil {
		return nil, apperr.Store(err)
	}

	for _, id := range cardIDs {
		if _, err := s.db.ExecContext(ctx,
			`DELETE FROM planet_attachments WHERE planet_id=? AND card_id=?`, planetID, id); err != nil {
			return nil, apperr.Store(err)
		}
	}

	att, err := s.ListAttachments(ctx, planetID)
	if err != nil {
		return nil, err
	}
	return &AttachmentUpdate{PlanetID: planetID, Attachments: att}, nil
}

// DeletePlanet removes a planet from the catalog along with its assignment
// and attachment rows. Administrative use only.
func (s *Store) DeletePlanet(ctx context.Context, planetID int) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM planets WHERE id=?`, planetID)
		if err != nil {
			return apperr.Store(err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return apperr.NotFound("planet %d not found", planetID)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM player_planets WHERE planet_id=?`, planetID); err != nil {
			return apperr.Store(err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM planet_attachments WHERE planet_id=?`, planetID); err != nil {
			return apperr.Store(err)
		}
		return nil
	})
}
