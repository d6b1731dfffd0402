// internal/store/objectives.go

package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/ti4table/companion/internal/apperr"
	"github.com/ti4table/companion/internal/game"
)

// ListObjectives returns the objective catalog.
func (s *Store) ListObjectives(ctx context.Context) ([]game.Objective, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, description, type, points FROM objectives ORDER BY id ASC`)
	if err != nil {
		return nil, apperr.Store(err)
	}
	defer rows.Close()

	out := []game.Objective{}
	for rows.Next() {
		var o game.Objective
		if err := rows.Scan(&o.ID, &o.Description, &o.Type, &o.Points); err != nil {
			return nil, apperr.Store(err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// CreateObjective adds a new objective to the catalog (host-only).
func (s *Store) CreateObjective(ctx context.Context, description, typ string, points int) (*game.Objective, error) {
	if description == "" {
		return nil, apperr.Validation("description is required")
	}
	if typ != "public" && typ != "secret" {
		return nil, apperr.Validation("type must be public or secret")
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO objectives (description, type, points) VALUES (?,?,?)`, description, typ, points)
	if err != nil {
		return nil, apperr.Store(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, apperr.Store(err)
	}
	return &game.Objective{ID: int(id), Description: description, Type: typ, Points: points}, nil
}

// PlayerObjectives returns the objectives a player has a recorded completion
// state for, with Completed resolved from the join row.
func (s *Store) PlayerObjectives(ctx context.Context, playerID string) ([]game.Objective, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT o.id, o.description, o.type, o.points, po.completed
		FROM player_objectives po
		JOIN objectives o ON o.id = po.objective_id
		WHERE po.player_id=?
		ORDER BY o.id ASC`, playerID)
	if err != nil {
		return nil, apperr.Store(err)
	}
	defer rows.Close()

	out := []game.Objective{}
	for rows.Next() {
		var o game.Objective
		if err := rows.Scan(&o.ID, &o.Description, &o.Type, &o.Points, &o.Completed); err != nil {
			return nil, apperr.Store(err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// PlayerObjective is one player's completion state for an objective.
type PlayerObjective struct {
	PlayerID    string `json:"playerId"`
	ObjectiveID int    `json:"objectiveId"`
	Completed   bool   `json:"completed"`
}

// UpdateObjectiveCompleted records whether a player has completed an
// objective, creating the join row on first touch.
func (s *Store) UpdateObjectiveCompleted(ctx context.Context, playerID string, objectiveID int, completed bool) (*PlayerObjective, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM objectives WHERE id=?`, objectiveID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("objective %d not found", objectiveID)
	}
	if err != nil {
		return nil, apperr.Store(err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO player_objectives (player_id, objective_id, completed) VALUES (?,?,?)
		ON CONFLICT (player_id, objective_id) DO UPDATE SET completed=excluded.completed`,
		playerID, objectiveID, completed)
	if err != nil {
		return nil, apperr.Store(err)
	}
	return &PlayerObjective{PlayerID: playerID, ObjectiveID: objectiveID, Completed: completed}, nil
}
