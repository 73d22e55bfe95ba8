package resolver

import (
	"github.com/quirelabs/orderd/internal/page"
)

// checkIntegrity scans the ordered non-empty pages for advisory findings.
// Near-duplicate pairs are found over the raw similarity matrix; suspected
// gaps over the transition scores of adjacent pages in the final order.
// Findings never alter the ordering.
func (r *Resolver) checkIntegrity(nonEmpty []page.Page, path []int, matrix, similarity [][]float64) []Warning {
	var warnings []Warning

	if similarity != nil {
		for i := 0; i < len(nonEmpty); i++ {
			for j := i + 1; j < len(nonEmpty); j++ {
				if similarity[i][j] >= r.opts.DuplicateThreshold {
					warnings = append(warnings, Warning{
						Kind:   WarningDuplicate,
						PageA:  nonEmpty[i].Number,
						PageB:  nonEmpty[j].Number,
						Score:  similarity[i][j],
						Detail: "pages are near-identical",
					})
				}
			}
		}
	}

	for k := 0; k+1 < len(path); k++ {
		score := matrix[path[k]][path[k+1]]
		if score < r.opts.GapThreshold {
			warnings = append(warnings, Warning{
				Kind:   WarningGap,
				PageA:  nonEmpty[path[k]].Number,
				PageB:  nonEmpty[path[k+1]].Number,
				Score:  score,
				Detail: "weak transition; content may be missing between these pages",
			})
		}
	}

	return warnings
}
