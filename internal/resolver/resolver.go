// Package resolver is the decision core of the ordering engine.
//
// One request runs a strict validate-then-fallback state machine: the
// advisor's proposal is accepted only when it is a valid permutation of the
// non-empty page numbers; any typed advisor failure routes to a
// deterministic greedy path built over the transition score matrix. Empty
// pages never participate in scoring and are reinserted at their original
// absolute positions.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/quirelabs/orderd/internal/advisor"
	"github.com/quirelabs/orderd/internal/embeddings"
	"github.com/quirelabs/orderd/internal/flow"
	"github.com/quirelabs/orderd/internal/page"
	"github.com/quirelabs/orderd/internal/scoring"
)

var (
	// ErrInvalidConfig indicates invalid resolver configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrOrderValidation indicates even the fallback could not produce a
	// valid permutation. The accompanying result carries the identity
	// order as a degraded value.
	ErrOrderValidation = errors.New("order validation failed")
)

// Confidence constants. Fallback placements get the transition score that
// justified them plus a small boost; pages without a meaningful signal get
// neutral defaults.
const (
	emptyPageConfidence   = 0.5
	advisorConfidence     = 0.75
	fallbackStartDefault  = 0.7
	placementBoost        = 0.2
	singlePageConfidence  = 1.0
)

// Indexer builds embeddings and the similarity matrix for page texts.
type Indexer interface {
	BuildIndex(ctx context.Context, texts []string) (*embeddings.Index, error)
}

// OrderAdvisor proposes a page ordering, or fails with a typed error.
type OrderAdvisor interface {
	Propose(ctx context.Context, pages []page.Page) (*advisor.Proposal, error)
}

// Options holds the tunable parameters of the resolver.
type Options struct {
	// Weights balances semantic similarity against flow heuristics.
	Weights scoring.Weights `koanf:"weights"`

	// NeutralFlowScore is the flow score for cue-free pairs.
	NeutralFlowScore float64 `koanf:"neutral_flow_score"`

	// TitleKeywords are start-page markers, matched case-insensitively
	// against the head of each page. Domain-specific and configurable.
	TitleKeywords []string `koanf:"title_keywords"`

	// DuplicateThreshold is the similarity above which a page pair is
	// flagged as a near-duplicate.
	DuplicateThreshold float64 `koanf:"duplicate_threshold"`

	// GapThreshold is the transition score below which an adjacent pair
	// is flagged as a suspected content gap.
	GapThreshold float64 `koanf:"gap_threshold"`
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		Weights:            scoring.DefaultWeights(),
		NeutralFlowScore:   flow.DefaultNeutral,
		TitleKeywords:      DefaultTitleKeywords(),
		DuplicateThreshold: 0.95,
		GapThreshold:       0.2,
	}
}

// DefaultTitleKeywords returns start-page markers typical of the financial
// and legal documents the engine most often sees.
func DefaultTitleKeywords() []string {
	return []string{
		"LOAN AGREEMENT",
		"AGREEMENT BETWEEN",
		"PROMISSORY NOTE",
		"MEMORANDUM OF UNDERSTANDING",
		"TABLE OF CONTENTS",
		"EXECUTIVE SUMMARY",
	}
}

// Resolver runs the ordering state machine.
type Resolver struct {
	indexer Indexer
	advisor OrderAdvisor
	scorer  *scoring.Scorer
	opts    Options
	logger  *zap.Logger
	metrics *Metrics
}

// New creates a Resolver. orderAdvisor may be nil, which disables the
// advisor attempt and always takes the fallback path.
func New(indexer Indexer, orderAdvisor OrderAdvisor, opts Options, logger *zap.Logger) (*Resolver, error) {
	if indexer == nil {
		return nil, fmt.Errorf("%w: indexer required", ErrInvalidConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.TitleKeywords == nil {
		opts.TitleKeywords = DefaultTitleKeywords()
	}
	if opts.DuplicateThreshold <= 0 {
		opts.DuplicateThreshold = 0.95
	}
	if opts.GapThreshold <= 0 {
		opts.GapThreshold = 0.2
	}
	if opts.Weights == (scoring.Weights{}) {
		opts.Weights = scoring.DefaultWeights()
	}

	scorer, err := scoring.NewScorer(opts.Weights, flow.NewScorer(opts.NeutralFlowScore))
	if err != nil {
		return nil, err
	}

	return &Resolver{
		indexer: indexer,
		advisor: orderAdvisor,
		scorer:  scorer,
		opts:    opts,
		logger:  logger,
		metrics: NewMetrics(logger),
	}, nil
}

// Resolve computes the reading order for one document.
//
// Component failures degrade rather than abort: an embedding failure drops
// the semantic score component, any advisor failure routes to the greedy
// fallback. The returned result always satisfies the permutation invariant;
// if that cannot be guaranteed the identity order is returned together with
// ErrOrderValidation.
func (r *Resolver) Resolve(ctx context.Context, doc *page.Document) (*OrderingResult, error) {
	start := time.Now()
	result, err := r.resolve(ctx, doc)
	if result != nil {
		r.metrics.RecordOrdering(ctx, result.Source, doc.Len(), time.Since(start), err)
	}
	return result, err
}

func (r *Resolver) resolve(ctx context.Context, doc *page.Document) (*OrderingResult, error) {
	originalOrder := doc.Numbers()
	nonEmpty := doc.NonEmpty()

	// Degenerate inputs are a valid no-op, never a failure.
	if len(nonEmpty) < 2 {
		return r.identityResult(doc, nonEmpty), nil
	}

	texts := make([]string, len(nonEmpty))
	for i, p := range nonEmpty {
		texts[i] = p.Text
	}

	var warnings []Warning
	var similarity [][]float64
	idx, err := r.indexer.BuildIndex(ctx, texts)
	switch {
	case err == nil:
		similarity = idx.Similarity
	case ctx.Err() != nil:
		return nil, ctx.Err()
	default:
		r.logger.Warn("embedding index unavailable, degrading to flow-only scoring", zap.Error(err))
		warnings = append(warnings, Warning{
			Kind:   WarningDegraded,
			Detail: "embedding service unavailable; transitions scored with flow heuristics only",
		})
	}

	matrix := r.scorer.Matrix(similarity, texts)

	path, confidences, reasoning, source := r.orderNonEmpty(ctx, nonEmpty, matrix, similarity)

	warnings = append(warnings, r.checkIntegrity(nonEmpty, path, matrix, similarity)...)

	finalOrder, finalConfs := reinsertEmpty(doc, nonEmpty, path, confidences)

	result := &OrderingResult{
		OriginalOrder:    originalOrder,
		FinalOrder:       finalOrder,
		ConfidenceScores: finalConfs,
		Reasoning:        reasoning,
		Source:           source,
		Warnings:         warnings,
	}

	if err := validatePermutation(originalOrder, finalOrder); err != nil {
		r.logger.Error("ordering failed validation, returning identity order", zap.Error(err))
		return r.degradedIdentity(doc), fmt.Errorf("%w: %v", ErrOrderValidation, err)
	}
	return result, nil
}

// orderNonEmpty runs the advisor attempt and the fallback, returning the
// path as indices into nonEmpty plus aligned confidences.
func (r *Resolver) orderNonEmpty(ctx context.Context, nonEmpty []page.Page, matrix, similarity [][]float64) (path []int, confidences []float64, reasoning string, source Source) {
	if r.advisor != nil {
		proposal, err := r.advisor.Propose(ctx, nonEmpty)
		if err == nil {
			return r.acceptProposal(nonEmpty, proposal, matrix, similarity)
		}
		r.logger.Warn("advisor failed, taking fallback path", zap.Error(err))
	}

	path, confidences = r.greedyOrder(nonEmpty, matrix)
	return path, confidences, "", SourceFallback
}

// acceptProposal maps a validated proposal onto indices and derives
// confidence. When semantic similarity is available the confidence of each
// page is refined with the transition score of the advisor's adjacent-page
// choice, and the source becomes hybrid; otherwise the neutral advisor
// confidence stands.
func (r *Resolver) acceptProposal(nonEmpty []page.Page, proposal *advisor.Proposal, matrix, similarity [][]float64) ([]int, []float64, string, Source) {
	byNumber := make(map[int]int, len(nonEmpty))
	for i, p := range nonEmpty {
		byNumber[p.Number] = i
	}

	path := make([]int, len(proposal.Order))
	for i, n := range proposal.Order {
		path[i] = byNumber[n]
	}

	confidences := make([]float64, len(path))
	for i := range confidences {
		confidences[i] = advisorConfidence
	}
	if similarity == nil {
		return path, confidences, proposal.Rationale, SourceAdvisor
	}

	for i := 1; i < len(path); i++ {
		confidences[i] = clamp01(matrix[path[i-1]][path[i]] + placementBoost)
	}
	return path, confidences, proposal.Rationale, SourceHybrid
}

// identityResult handles documents with fewer than two non-empty pages.
func (r *Resolver) identityResult(doc *page.Document, nonEmpty []page.Page) *OrderingResult {
	numbers := doc.Numbers()
	confidences := make([]float64, len(numbers))
	reasoning := ""
	if len(nonEmpty) == 1 {
		reasoning = "not enough non-empty pages to reorder"
		for i, p := range doc.Pages() {
			if p.IsEmpty {
				confidences[i] = emptyPageConfidence
			} else {
				confidences[i] = singlePageConfidence
			}
		}
	}
	return &OrderingResult{
		OriginalOrder:    numbers,
		FinalOrder:       append([]int(nil), numbers...),
		ConfidenceScores: confidences,
		Reasoning:        reasoning,
		Source:           SourceFallback,
	}
}

// degradedIdentity returns the identity order with minimum confidence.
func (r *Resolver) degradedIdentity(doc *page.Document) *OrderingResult {
	numbers := doc.Numbers()
	return &OrderingResult{
		OriginalOrder:    numbers,
		FinalOrder:       append([]int(nil), numbers...),
		ConfidenceScores: make([]float64, len(numbers)),
		Source:           SourceFallback,
	}
}

// reinsertEmpty merges the ordered non-empty pages with the empty pages,
// placing each empty page at the absolute position it occupied in the
// original sequence and filling the remaining slots in path order.
func reinsertEmpty(doc *page.Document, nonEmpty []page.Page, path []int, confidences []float64) ([]int, []float64) {
	n := doc.Len()
	finalOrder := make([]int, n)
	finalConfs := make([]float64, n)
	occupied := make([]bool, n)

	for number, pos := range doc.EmptyPositions() {
		finalOrder[pos] = number
		finalConfs[pos] = emptyPageConfidence
		occupied[pos] = true
	}

	k := 0
	for i := 0; i < n; i++ {
		if occupied[i] {
			continue
		}
		finalOrder[i] = nonEmpty[path[k]].Number
		finalConfs[i] = confidences[k]
		k++
	}
	return finalOrder, finalConfs
}

// validatePermutation checks that got is a permutation of want.
func validatePermutation(want, got []int) error {
	if len(want) != len(got) {
		return fmt.Errorf("length mismatch: %d vs %d", len(want), len(got))
	}
	set := make(map[int]int, len(want))
	for _, n := range want {
		set[n]++
	}
	for _, n := range got {
		set[n]--
		if set[n] < 0 {
			return fmt.Errorf("page %d duplicated or foreign", n)
		}
	}
	return nil
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
