// internal/game/rules.go
//
// The only pure game rule the companion enforces: which sets of relic
// fragments may be combined into a relic draw.

package game

import "fmt"

// ValidateFragmentSet checks a proposed relic-fragment combination.
// The set must contain exactly three cards, every card must be a relic
// fragment, and the terrains must be compatible: all identical, or all but
// one identical with the remainder being the "frontier" wildcard.
func ValidateFragmentSet(cards []ExplorationCard) error {
	if len(cards) != 3 {
		return fmt.Errorf("exactly 3 fragments required, got %d", len(cards))
	}

	counts := map[Terrain]int{}
	for _, c := range cards {
		if c.Subtype != SubtypeFragment {
			return fmt.Errorf("%s is not a relic fragment", c.Name)
		}
		counts[c.Terrain]++
	}

	frontier := counts[TerrainFrontier]
	delete(counts, TerrainFrontier)

	switch len(counts) {
	case 0:
		// three frontier wildcards
		return nil
	case 1:
		for _, n := range counts {
			if n+frontier == 3 && frontier <= 1 {
				return nil
			}
		}
		return fmt.Errorf("at most one frontier wildcard may substitute")
	default:
		return fmt.Errorf("fragment terrains do not match")
	}
}
