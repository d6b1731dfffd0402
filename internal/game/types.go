// internal/game/types.go
//
// Core type definitions for the companion app.
// Defines:
//   - Terrain / Subtype enumerations for planets and exploration cards.
//   - Row types for every entity the store persists.
//   - GameState: the full snapshot returned by GET /api/game-state.

package game

// Terrain classifies a planet and selects which exploration deck it draws from.
// "frontier" never appears on a planet; it is the wildcard terrain used by
// deck-only cards and relic fragments.
type Terrain string

const (
	TerrainCultural   Terrain = "cultural"
	TerrainHazardous  Terrain = "hazardous"
	TerrainIndustrial Terrain = "industrial"
	TerrainFrontier   Terrain = "frontier"
)

// Valid reports whether t is one of the known terrain values.
func (t Terrain) Valid() bool {
	switch t {
	case TerrainCultural, TerrainHazardous, TerrainIndustrial, TerrainFrontier:
		return true
	}
	return false
}

// Subtype classifies an exploration card.
// Possible values:
//   - "attach":         card is fixed to the explored planet.
//   - "relic_fragment": card goes to the player's hand; three combine into a relic.
//   - "action":         card goes to the player's hand as a one-shot.
type Subtype string

const (
	SubtypeAttach   Subtype = "attach"
	SubtypeFragment Subtype = "relic_fragment"
	SubtypeAction   Subtype = "action"
)

// Player is a registered participant. Counters are overwritten by dedicated
// endpoints (last write wins, no increment semantics).
type Player struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Resources     int     `json:"resources"`
	Influence     int     `json:"influence"`
	Commodities   int     `json:"commodities"`
	TradeGoods    int     `json:"tradeGoods"`
	VictoryPoints int     `json:"victoryPoints"`
	Faction       *string `json:"faction,omitempty"`

	// Populated only in the game-state snapshot.
	Planets          []PlayerPlanet    `json:"planets,omitempty"`
	ExplorationCards []ExplorationCard `json:"explorationCards,omitempty"`
	Relics           []RelicCard       `json:"relics,omitempty"`
	Objectives       []Objective       `json:"objectives,omitempty"`
}

// Planet is a catalog entity seeded at startup.
type Planet struct {
	ID        int     `json:"id"`
	Name      string  `json:"name"`
	Resources int     `json:"resources"`
	Influence int     `json:"influence"`
	Terrain   Terrain `json:"terrain"`
	Legendary *string `json:"legendaryAbility,omitempty"`
}

// PlayerPlanet is a planet currently controlled by a player.
type PlayerPlanet struct {
	Planet
	Tapped      bool              `json:"tapped"`
	Attachments []ExplorationCard `json:"attachments,omitempty"`
}

// ExplorationCard is a catalog card drawn from a terrain deck.
type ExplorationCard struct {
	ID      int     `json:"id"`
	Name    string  `json:"name"`
	Terrain Terrain `json:"terrain"`
	Subtype Subtype `json:"subtype"`
	Image   string  `json:"image"`
}

// RelicCard is a catalog card drawn from the shared relic deck.
type RelicCard struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image"`
}

// StrategyCard is one of the eight strategy cards. TradeGoods accumulates on
// the card itself while it sits unpicked.
type StrategyCard struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Initiative int    `json:"initiative"`
	Image      string `json:"image"`
	TradeGoods int    `json:"tradeGoods"`
}

// ActionCard is a catalog action card.
type ActionCard struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image"`
}

// TechnologyCard is a catalog technology.
type TechnologyCard struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Color  string `json:"color"`
	Image  string `json:"image"`
	Tapped bool   `json:"tapped"` // meaningful only on a player's owned copy
}

// Objective is a public or secret objective worth points.
type Objective struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
	Type        string `json:"type"` // "public" | "secret"
	Points      int    `json:"points"`
	Completed   bool   `json:"completed"` // meaningful only per player
}

// Faction is a catalog entry holding the four board art references. Assignment
// is by name string on the player row; nothing prevents two players picking
// the same faction.
type Faction struct {
	Name           string `json:"name"`
	FrontImage     string `json:"frontImage"`
	BackImage      string `json:"backImage"`
	ReferenceImage string `json:"referenceImage"`
	TokenImage     string `json:"tokenImage"`
}

// GameState is the full snapshot: players (with planets and hands resolved),
// objectives, and the victory-point map keyed by player ID.
type GameState struct {
	Players       []Player       `json:"players"`
	Objectives    []Objective    `json:"objectives"`
	VictoryPoints map[string]int `json:"victoryPoints"`
}
