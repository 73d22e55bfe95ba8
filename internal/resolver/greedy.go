package resolver

import (
	"regexp"
	"strings"

	"github.com/quirelabs/orderd/internal/page"
	"github.com/quirelabs/orderd/internal/scoring"
)

var pageOneRe = regexp.MustCompile(`\bPAGE\s+1\b`)

// continuation markers that argue against a page being the opening page.
var notStartMarkers = []string{
	"CONTINUED", "CONTINUATION", "AS SET FORTH", "AS PROVIDED", "PURSUANT TO",
}

// greedyOrder builds a reading order with nearest-neighbor extension over
// the transition matrix. This is deliberately not an optimal
// shortest-Hamiltonian-path solver; page counts and latency budgets argue
// against exponential search.
//
// The start page is the best title-heuristic match, or the page with the
// highest total outgoing score when no keyword matches. Extension always
// picks the unvisited page with the highest transition score from the
// current last page; all ties break to the lowest original page number, so
// the path is reproducible.
func (r *Resolver) greedyOrder(nonEmpty []page.Page, matrix [][]float64) ([]int, []float64) {
	n := len(nonEmpty)
	startIdx, startConf := r.selectStart(nonEmpty, matrix)

	path := make([]int, 0, n)
	confidences := make([]float64, 0, n)
	path = append(path, startIdx)
	confidences = append(confidences, startConf)

	visited := make([]bool, n)
	visited[startIdx] = true

	for len(path) < n {
		current := path[len(path)-1]
		next := -1
		bestScore := -1.0
		for candidate := 0; candidate < n; candidate++ {
			if visited[candidate] {
				continue
			}
			score := matrix[current][candidate]
			switch {
			case score > bestScore:
				next = candidate
				bestScore = score
			case score == bestScore && nonEmpty[candidate].Number < nonEmpty[next].Number:
				next = candidate
			}
		}
		visited[next] = true
		path = append(path, next)
		confidences = append(confidences, clamp01(bestScore+placementBoost))
	}
	return path, confidences
}

// selectStart picks the path's first page and its confidence.
func (r *Resolver) selectStart(nonEmpty []page.Page, matrix [][]float64) (int, float64) {
	bestIdx := -1
	bestScore := 0
	for i, p := range nonEmpty {
		score := titleScore(p.Text, r.opts.TitleKeywords)
		if score > bestScore || (score == bestScore && score > 0 && p.Number < nonEmpty[bestIdx].Number) {
			bestIdx = i
			bestScore = score
		}
	}
	if bestIdx >= 0 && bestScore > 0 {
		// Confidence grows with match strength, saturating at 1.
		return bestIdx, clamp01(0.6 + float64(bestScore)*0.02)
	}

	// No keyword match: the page with the highest total outgoing score is
	// the most likely opener.
	bestIdx = 0
	bestTotal := scoring.TotalOutgoing(matrix, 0)
	for i := 1; i < len(nonEmpty); i++ {
		total := scoring.TotalOutgoing(matrix, i)
		if total > bestTotal || (total == bestTotal && nonEmpty[i].Number < nonEmpty[bestIdx].Number) {
			bestIdx = i
			bestTotal = total
		}
	}
	return bestIdx, fallbackStartDefault
}

// titleScore rates how much a page looks like a document opening. The
// keyword set is configurable because opening phrasing is domain-specific.
func titleScore(text string, keywords []string) int {
	upper := strings.ToUpper(strings.TrimSpace(text))
	if upper == "" {
		return 0
	}
	headText := head(upper, 300)

	score := 0
	for _, kw := range keywords {
		switch {
		case strings.HasPrefix(upper, kw):
			score += 15
		case strings.Contains(headText, kw):
			score += 10
		}
	}

	if pageOneRe.MatchString(headText) {
		score += 12
	}

	// Short title-like opening lines naming two parties.
	for _, line := range firstLines(upper, 3) {
		if len(line) < 100 && strings.Contains(line, "BETWEEN") && strings.Contains(line, " AND ") {
			score += 8
		}
	}

	// Pages that open mid-thought are unlikely starts.
	if strings.HasPrefix(upper, "-") || strings.HasPrefix(upper, "...") {
		score -= 5
	}
	head200 := head(upper, 200)
	for _, marker := range notStartMarkers {
		if strings.Contains(head200, marker) {
			score -= 3
			break
		}
	}

	return score
}

func firstLines(text string, n int) []string {
	lines := strings.Split(text, "\n")
	if len(lines) > n {
		lines = lines[:n]
	}
	return lines
}

func head(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
