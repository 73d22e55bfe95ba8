// Package scoring combines semantic similarity and flow heuristics into
// directed page transition scores.
package scoring

import (
	"errors"
	"fmt"

	"github.com/quirelabs/orderd/internal/flow"
)

// ErrInvalidWeights indicates weights that cannot produce scores in [0,1].
var ErrInvalidWeights = errors.New("invalid transition weights")

// flowExcerptRunes bounds the text handed to the flow scorer per pair.
const flowExcerptRunes = 500

// Weights balances the semantic and flow components of a transition score.
type Weights struct {
	Semantic float64 `koanf:"semantic"`
	Flow     float64 `koanf:"flow"`
}

// DefaultWeights returns the documented default weighting.
func DefaultWeights() Weights {
	return Weights{Semantic: 0.6, Flow: 0.4}
}

// Validate checks that the weights are non-negative and sum to at most 1,
// keeping combined scores inside [0,1].
func (w Weights) Validate() error {
	if w.Semantic < 0 || w.Flow < 0 {
		return fmt.Errorf("%w: weights must be non-negative", ErrInvalidWeights)
	}
	if w.Semantic+w.Flow == 0 {
		return fmt.Errorf("%w: at least one weight must be positive", ErrInvalidWeights)
	}
	if w.Semantic+w.Flow > 1 {
		return fmt.Errorf("%w: weights must sum to at most 1", ErrInvalidWeights)
	}
	return nil
}

// Scorer produces directed transition score matrices.
type Scorer struct {
	weights Weights
	flow    *flow.Scorer
}

// NewScorer creates a transition scorer. A nil flow scorer gets the default.
func NewScorer(weights Weights, flowScorer *flow.Scorer) (*Scorer, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	if flowScorer == nil {
		flowScorer = flow.NewScorer(0)
	}
	return &Scorer{weights: weights, flow: flowScorer}, nil
}

// Matrix computes the complete directed score matrix over the given page
// texts. similarity is the pairwise cosine-similarity matrix; pass nil when
// the embedding service is unavailable to degrade to flow-heuristics-only
// scoring (similarity treated as 0 for all pairs). The diagonal is zero.
func (s *Scorer) Matrix(similarity [][]float64, texts []string) [][]float64 {
	n := len(texts)
	excerpts := make([]string, n)
	for i, t := range texts {
		excerpts[i] = truncateRunes(t, flowExcerptRunes)
	}

	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
		for j := range m[i] {
			if i == j {
				continue
			}
			sem := 0.0
			if similarity != nil {
				sem = similarity[i][j]
			}
			score := s.weights.Semantic*sem + s.weights.Flow*s.flow.Score(excerpts[i], excerpts[j])
			m[i][j] = clamp01(score)
		}
	}
	return m
}

// TotalOutgoing sums the outgoing transition scores of page index i.
func TotalOutgoing(matrix [][]float64, i int) float64 {
	total := 0.0
	for j, score := range matrix[i] {
		if j != i {
			total += score
		}
	}
	return total
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
