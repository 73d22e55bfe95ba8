package resolver

// Source tags which strategy produced an ordering.
type Source string

const (
	// SourceAdvisor means the advisor's proposal was accepted as-is.
	SourceAdvisor Source = "advisor"

	// SourceFallback means the greedy path builder produced the order.
	SourceFallback Source = "fallback"

	// SourceHybrid means the advisor's order was accepted and per-page
	// confidence was refined with transition scores.
	SourceHybrid Source = "hybrid"
)

// WarningKind classifies an integrity finding.
type WarningKind string

const (
	// WarningDuplicate flags a near-duplicate page pair.
	WarningDuplicate WarningKind = "duplicate"

	// WarningGap flags an adjacent pair with a suspiciously low
	// transition score, suggesting missing content between them.
	WarningGap WarningKind = "gap"

	// WarningDegraded records a degraded pipeline step, such as an
	// unreachable embedding service.
	WarningDegraded WarningKind = "degraded"
)

// Warning is an advisory integrity finding. Warnings never alter the order.
type Warning struct {
	Kind   WarningKind `json:"kind"`
	PageA  int         `json:"page_a,omitempty"`
	PageB  int         `json:"page_b,omitempty"`
	Score  float64     `json:"score,omitempty"`
	Detail string      `json:"detail,omitempty"`
}

// OrderingResult is the engine's output for one request. It is created once
// per request and immutable once returned.
//
// FinalOrder is always a permutation of OriginalOrder's page-number set, and
// ConfidenceScores aligns with FinalOrder position by position.
type OrderingResult struct {
	OriginalOrder    []int     `json:"original_order"`
	FinalOrder       []int     `json:"final_order"`
	ConfidenceScores []float64 `json:"confidence_scores"`
	Reasoning        string    `json:"reasoning,omitempty"`
	Source           Source    `json:"source"`
	Warnings         []Warning `json:"warnings,omitempty"`
}
