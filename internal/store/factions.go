// internal/store/factions.go

package store

import (
	"context"

	"github.com/ti4table/companion/internal/apperr"
	"github.com/ti4table/companion/internal/game"
)

// ListFactions returns the faction catalog.
func (s *Store) ListFactions(ctx context.Context) ([]game.Faction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, front_image, back_image, reference_image, token_image
		FROM factions ORDER BY name ASC`)
	if err != nil {
		return nil, apperr.Store(err)
	}
	defer rows.Close()

	out := []game.Faction{}
	for rows.Next() {
		var f game.Faction
		if err := rows.Scan(&f.Name, &f.FrontImage, &f.BackImage, &f.ReferenceImage, &f.TokenImage); err != nil {
			return nil, apperr.Store(err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
