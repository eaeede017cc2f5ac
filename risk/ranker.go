package risk

import (
	"fmt"
	"sort"
)

// MaxAlternatives caps the number of suggested windows.
const MaxAlternatives = 3

type windowRisk struct {
	window TimeWindow
	risk   float64
}

// Rank scores every window for s and returns up to three other windows.
// Windows safer than principal come first, each group in ascending risk with
// ties kept in time-of-day order.
func Rank(clf Classifier, s Scenario, principal float64) ([]Alternative, error) {
	candidates := make([]windowRisk, 0, len(TimeWindows))
	for _, w := range TimeWindows {
		r, err := Score(clf, s.WithWindow(w))
		if err != nil {
			return nil, fmt.Errorf("score window %s: %w", w, err)
		}
		if w == s.TimeWindow {
			continue
		}
		candidates = append(candidates, windowRisk{window: w, risk: r})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].risk < candidates[j].risk
	})

	ordered := make([]windowRisk, 0, len(candidates))
	for _, c := range candidates {
		if c.risk < principal {
			ordered = append(ordered, c)
		}
	}
	for _, c := range candidates {
		if c.risk >= principal {
			ordered = append(ordered, c)
		}
	}

	if len(ordered) > MaxAlternatives {
		ordered = ordered[:MaxAlternatives]
	}
	alts := make([]Alternative, 0, len(ordered))
	for i, c := range ordered {
		alts = append(alts, Alternative{
			Label:  fmt.Sprintf("%s (%s)", c.window.Label(), OptionTag(i)),
			Window: c.window,
			Risk:   c.risk,
		})
	}
	return alts, nil
}

// OptionTag names the rank position: 0 is "Opción A".
func OptionTag(rank int) string {
	return fmt.Sprintf("Opción %c", rune('A'+rank))
}
