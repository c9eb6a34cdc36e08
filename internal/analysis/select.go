package analysis

import (
	"math"
	"sort"

	"flowmapper/internal/domain"
)

// SelectorLimits bound the adaptive key-page selection.
type SelectorLimits struct {
	// TargetFraction of the total page count to aim for.
	TargetFraction float64
	// MinKeyPages / MaxKeyPages clamp the target.
	MinKeyPages int
	MaxKeyPages int
	// SafetyFloor: fewer selected pages than this (on a crawl of at
	// least SafetyFloor pages) widens the selection.
	SafetyFloor int
	// WidenLimit caps the widened selection.
	WidenLimit int
}

func DefaultSelectorLimits() SelectorLimits {
	return SelectorLimits{
		TargetFraction: 0.30,
		MinKeyPages:    10,
		MaxKeyPages:    30,
		SafetyFloor:    5,
		WidenLimit:     15,
	}
}

// SelectKeyPages picks the pages worth showing in the flow graph: the
// top-scoring slice of the crawl, clamped to the configured bounds,
// with the crawl start page always included. The sort is stable, so
// equal scores keep crawl discovery order. Never fails; an empty crawl
// selects nothing.
func SelectKeyPages(pages *domain.PageSet, scored []ScoredPage, limits SelectorLimits) []string {
	total := pages.Len()
	if total == 0 {
		return nil
	}

	ranked := make([]ScoredPage, len(scored))
	copy(ranked, scored)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	target := int(math.Ceil(limits.TargetFraction * float64(total)))
	if target < limits.MinKeyPages {
		target = limits.MinKeyPages
	}
	if target > limits.MaxKeyPages {
		target = limits.MaxKeyPages
	}

	selected := topN(ranked, target)

	// A degenerate score distribution can leave the graph too thin to
	// read; widen rather than render a near-empty flow.
	if len(selected) < limits.SafetyFloor && total >= limits.SafetyFloor {
		widen := limits.WidenLimit
		if widen > total {
			widen = total
		}
		selected = topN(ranked, widen)
	}

	// The crawl start page anchors the flow regardless of score.
	if start, ok := pages.First(); ok {
		if _, in := selected[start.URL]; !in {
			selected[start.URL] = len(selected)
		}
	}

	// Back to rank order.
	out := make([]string, len(selected))
	for url, idx := range selected {
		out[idx] = url
	}
	return out
}

// topN returns the first n ranked URLs mapped to their rank index.
func topN(ranked []ScoredPage, n int) map[string]int {
	if n > len(ranked) {
		n = len(ranked)
	}
	sel := make(map[string]int, n)
	for i := 0; i < n; i++ {
		sel[ranked[i].URL] = i
	}
	return sel
}
