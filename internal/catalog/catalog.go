// internal/catalog/catalog.go
//
// Static seed data for the companion app, bundled into the binary.
// Each JSON file is a flat array of catalog rows; Load parses all of them
// once at startup and the store seeds the database from the result.

package catalog

import (
	"embed"
	"encoding/json"
	"fmt"

	"github.com/ti4table/companion/internal/game"
)

//go:embed data/*.json
var fs embed.FS

// Catalog holds every static dataset the game needs.
type Catalog struct {
	Planets          []game.Planet
	ExplorationCards []game.ExplorationCard
	RelicCards       []game.RelicCard
	StrategyCards    []game.StrategyCard
	ActionCards      []game.ActionCard
	TechnologyCards  []game.TechnologyCard
	Objectives       []game.Objective
	Factions         []game.Faction
}

// Load parses all embedded catalogs.
func Load() (*Catalog, error) {
	c := &Catalog{}
	for name, dst := range map[string]any{
		"planets.json":           &c.Planets,
		"exploration_cards.json": &c.ExplorationCards,
		"relic_cards.json":       &c.RelicCards,
		"strategy_cards.json":    &c.StrategyCards,
		"action_cards.json":      &c.ActionCards,
		"technology_cards.json":  &c.TechnologyCards,
		"objectives.json":        &c.Objectives,
		"factions.json":          &c.Factions,
	} {
		if err := readJSON(name, dst); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func readJSON(name string, dst any) error {
	b, err := fs.ReadFile("data/" + name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}
