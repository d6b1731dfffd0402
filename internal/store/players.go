// internal/store/players.go
//
// Player rows: registration, counters, faction selection.
// Counters are overwritten, never incremented; the later write wins.

package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/ti4table/companion/internal/apperr"
	"github.com/ti4table/companion/internal/game"
)

// playerColumns is the whitelist of counter columns the update endpoints may
// touch. Anything else is a programming error, not client input.
var playerColumns = map[string]bool{
	"resources":      true,
	"influence":      true,
	"commodities":    true,
	"trade_goods":    true,
	"victory_points": true,
}

const playerSelect = `SELECT id, name, resources, influence, commodities, trade_goods, victory_points, faction FROM players`

func scanPlayer(row interface{ Scan(...any) error }) (*game.Player, error) {
	var p game.Player
	if err := row.Scan(&p.ID, &p.Name, &p.Resources, &p.Influence, &p.Commodities, &p.TradeGoods, &p.VictoryPoints, &p.Faction); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePlayer registers a new player with all counters zeroed.
// The name is trimmed and must be unique (case-sensitive); a duplicate fails
// with Conflict, checked by pre-query so the caller can tell it apart from
// other store failures.
func (s *Store) CreatePlayer(ctx context.Context, name string) (*game.Player, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}

	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM players WHERE name=?`, name).Scan(&exists)
	if err == nil {
		return nil, apperr.Conflict("player name %q already taken", name)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.Store(err)
	}

	p := &game.Player{ID: newID(), Name: name}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO players (id, name) VALUES (?,?)`, p.ID, p.Name); err != nil {
		return nil, apperr.Store(err)
	}
	return p, nil
}

// GetPlayer loads a single player row.
func (s *Store) GetPlayer(ctx context.Context, id string) (*game.Player, error) {
	p, err := scanPlayer(s.db.QueryRowContext(ctx, playerSelect+` WHERE id=?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("player %s not found", id)
	}
	if err != nil {
		return nil, apperr.Store(err)
	}
	return p, nil
}

// ListPlayers returns all registered players ordered by name.
func (s *Store) ListPlayers(ctx context.Context) ([]game.Player, error) {
	rows, err := s.db.QueryContext(ctx, playerSelect+` ORDER BY name ASC`)
	if err != nil {
		return nil, apperr.Store(err)
	}
	defer rows.Close()

	out := []game.Player{}
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, apperr.Store(err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store(err)
	}
	return out, nil
}

// UpdateCounter overwrites one whitelisted counter column and returns the
// updated player. NotFound when no row matches the player ID.
func (s *Store) UpdateCounter(ctx context.Context, playerID, column string, value int) (*game.Player, error) {
	if !playerColumns[column] {
		return nil, apperr.Validation("unknown counter %q", column)
	}
	res, err := s.db.ExecContext(ctx, `UPDATE players SET `+column+`=? WHERE id=?`, value, playerID)
	if err != nil {
		return nil, apperr.Store(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, apperr.NotFound("player %s not found", playerID)
	}
	return s.GetPlayer(ctx, playerID)
}

// UpdateVictoryPoints overwrites the victory-point counter (no increment
// semantics) and returns the updated player.
func (s *Store) UpdateVictoryPoints(ctx context.Context, playerID string, points int) (*game.Player, error) {
	return s.UpdateCounter(ctx, playerID, "victory_points", points)
}

// SelectFaction records a faction choice by name string. The faction must
// exist in the catalog, but nothing prevents two players picking the same one.
func (s *Store) SelectFaction(ctx context.Context, playerID, faction string) (*game.Player, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM factions WHERE name=?`, faction).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("faction %q not found", faction)
	}
	if err != nil {
		return nil, apperr.Store(err)
	}

	res, err := s.db.ExecContext(ctx, `UPDATE players SET faction=? WHERE id=?`, faction, playerID)
	if err != nil {
		return nil, apperr.Store(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, apperr.NotFound("player %s not found", playerID)
	}
	return s.GetPlayer(ctx, playerID)
}
