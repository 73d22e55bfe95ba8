package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/quirelabs/orderd/internal/advisor"
	"github.com/quirelabs/orderd/internal/embeddings"
	"github.com/quirelabs/orderd/internal/page"
)

// fakeIndexer returns canned vectors keyed by page text.
type fakeIndexer struct {
	vectors map[string][]float32
	err     error
	calls   int
}

func (f *fakeIndexer) BuildIndex(_ context.Context, texts []string) (*embeddings.Index, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	vecs := make([][]float32, len(texts))
	for i, t := range texts {
		vecs[i] = f.vectors[t]
	}
	return &embeddings.Index{Vectors: vecs, Similarity: embeddings.CosineMatrix(vecs)}, nil
}

type fakeAdvisor struct {
	proposal *advisor.Proposal
	err      error
	calls    int
}

func (f *fakeAdvisor) Propose(context.Context, []page.Page) (*advisor.Proposal, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.proposal, nil
}

const (
	titleText    = "LOAN AGREEMENT BETWEEN X AND Y"
	articleOne   = "Article I. Definitions. The following terms apply."
	articleTwo   = "Article II. Terms. The lender agrees as follows."
	witnessText  = "IN WITNESS WHEREOF the parties have executed this agreement. Signatures follow."
)

// loanVectors gives the four loan-agreement pages embeddings whose cosine
// similarity decays with logical distance.
func loanVectors() map[string][]float32 {
	return map[string][]float32{
		titleText:   {1, 1, 0, 0},
		articleOne:  {0, 1, 1, 0},
		articleTwo:  {0, 0, 1, 1},
		witnessText: {0, 0, 0, 1},
	}
}

func loanDocumentShuffled(t *testing.T) *page.Document {
	t.Helper()
	doc, err := page.NewDocument([]page.Page{
		{Number: 2, Text: articleOne},
		{Number: 4, Text: witnessText},
		{Number: 1, Text: titleText},
		{Number: 3, Text: articleTwo},
	}, 0)
	require.NoError(t, err)
	return doc
}

func newResolver(t *testing.T, ix Indexer, adv OrderAdvisor) *Resolver {
	t.Helper()
	r, err := New(ix, adv, DefaultOptions(), zap.NewNop())
	require.NoError(t, err)
	return r
}

func assertPermutation(t *testing.T, result *OrderingResult) {
	t.Helper()
	require.Equal(t, len(result.OriginalOrder), len(result.FinalOrder))
	require.Equal(t, len(result.FinalOrder), len(result.ConfidenceScores))
	seen := make(map[int]bool)
	want := make(map[int]bool)
	for _, n := range result.OriginalOrder {
		want[n] = true
	}
	for _, n := range result.FinalOrder {
		assert.True(t, want[n], "page %d not in original set", n)
		assert.False(t, seen[n], "page %d duplicated", n)
		seen[n] = true
	}
	for _, c := range result.ConfidenceScores {
		assert.GreaterOrEqual(t, c, 0.0)
		assert.LessOrEqual(t, c, 1.0)
	}
}

func TestResolveFallbackReordersShuffledLoanAgreement(t *testing.T) {
	r := newResolver(t, &fakeIndexer{vectors: loanVectors()}, nil)

	result, err := r.Resolve(context.Background(), loanDocumentShuffled(t))
	require.NoError(t, err)

	assertPermutation(t, result)
	assert.Equal(t, []int{2, 4, 1, 3}, result.OriginalOrder)
	assert.Equal(t, []int{1, 2, 3, 4}, result.FinalOrder)
	assert.Equal(t, SourceFallback, result.Source)
	assert.Empty(t, result.Reasoning)
}

func TestResolveAdvisorAccepted(t *testing.T) {
	adv := &fakeAdvisor{proposal: &advisor.Proposal{
		Order:     []int{1, 2, 3, 4},
		Rationale: "title page first, then the articles in sequence, signatures last",
	}}
	r := newResolver(t, &fakeIndexer{vectors: loanVectors()}, adv)

	result, err := r.Resolve(context.Background(), loanDocumentShuffled(t))
	require.NoError(t, err)

	assertPermutation(t, result)
	assert.Equal(t, []int{1, 2, 3, 4}, result.FinalOrder)
	// Similarity was available, so confidence was refined with transition
	// agreement and the source is hybrid.
	assert.Equal(t, SourceHybrid, result.Source)
	assert.NotEmpty(t, result.Reasoning)
}

func TestResolveAdvisorWithoutEmbeddingsKeepsAdvisorSource(t *testing.T) {
	adv := &fakeAdvisor{proposal: &advisor.Proposal{
		Order:     []int{1, 2, 3, 4},
		Rationale: "headings run in sequence",
	}}
	r := newResolver(t, &fakeIndexer{err: embeddings.ErrEmbeddingService}, adv)

	result, err := r.Resolve(context.Background(), loanDocumentShuffled(t))
	require.NoError(t, err)

	assertPermutation(t, result)
	assert.Equal(t, SourceAdvisor, result.Source)

	// The embedding degradation is recorded.
	var degraded bool
	for _, w := range result.Warnings {
		if w.Kind == WarningDegraded {
			degraded = true
		}
	}
	assert.True(t, degraded)
}

func TestResolveAdvisorFailureRoutesToFallback(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"unavailable", advisor.ErrAdvisorUnavailable},
		{"timeout", advisor.ErrAdvisorTimeout},
		{"parse failure", advisor.ErrAdvisorParse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adv := &fakeAdvisor{err: tt.err}
			r := newResolver(t, &fakeIndexer{vectors: loanVectors()}, adv)

			result, err := r.Resolve(context.Background(), loanDocumentShuffled(t))
			require.NoError(t, err)
			assert.Equal(t, 1, adv.calls)
			assert.Equal(t, SourceFallback, result.Source)
			assert.Equal(t, []int{1, 2, 3, 4}, result.FinalOrder)
		})
	}
}

func TestResolveIdempotentOnOrderedInput(t *testing.T) {
	doc, err := page.NewDocument([]page.Page{
		{Number: 1, Text: "Article I. Definitions. The terms below apply."},
		{Number: 2, Text: "Article II. Terms. The lender agrees as follows."},
		{Number: 3, Text: "Article III. Conditions. Disbursement requires the following."},
	}, 0)
	require.NoError(t, err)

	// Identical vectors: semantic signal is flat, flow cues decide.
	ix := &fakeIndexer{vectors: map[string][]float32{
		"Article I. Definitions. The terms below apply.":              {1, 0},
		"Article II. Terms. The lender agrees as follows.":            {1, 0},
		"Article III. Conditions. Disbursement requires the following.": {1, 0},
	}}
	r := newResolver(t, ix, nil)

	result, err := r.Resolve(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, result.OriginalOrder, result.FinalOrder)
}

func TestResolveEmptyPagePositionalStability(t *testing.T) {
	// Page 2 is empty and must stay at position 2 (index 1) no matter how
	// the non-empty pages are reordered.
	doc, err := page.NewDocument([]page.Page{
		{Number: 1, Text: articleOne},
		{Number: 2, Text: ""},
		{Number: 3, Text: titleText},
		{Number: 4, Text: articleTwo},
	}, 0)
	require.NoError(t, err)

	ix := &fakeIndexer{vectors: map[string][]float32{
		articleOne: {0, 1, 1, 0},
		titleText:  {1, 1, 0, 0},
		articleTwo: {0, 0, 1, 1},
	}}
	r := newResolver(t, ix, nil)

	result, err := r.Resolve(context.Background(), doc)
	require.NoError(t, err)
	assertPermutation(t, result)
	assert.Equal(t, 2, result.FinalOrder[1], "empty page must hold its original position")
	// The title page (number 3) leads among non-empty slots.
	assert.Equal(t, 3, result.FinalOrder[0])
}

func TestResolveDuplicateWarning(t *testing.T) {
	doc, err := page.NewDocument([]page.Page{
		{Number: 1, Text: "The borrower shall repay the loan in monthly installments."},
		{Number: 2, Text: "The borrower shall repay the loan in monthly payments."},
	}, 0)
	require.NoError(t, err)

	ix := &fakeIndexer{vectors: map[string][]float32{
		"The borrower shall repay the loan in monthly installments.": {1, 0.01},
		"The borrower shall repay the loan in monthly payments.":     {1, 0},
	}}
	r := newResolver(t, ix, nil)

	result, err := r.Resolve(context.Background(), doc)
	require.NoError(t, err)
	assertPermutation(t, result)

	var dup *Warning
	for i := range result.Warnings {
		if result.Warnings[i].Kind == WarningDuplicate {
			dup = &result.Warnings[i]
		}
	}
	require.NotNil(t, dup, "expected a duplicate warning")
	assert.Equal(t, 1, dup.PageA)
	assert.Equal(t, 2, dup.PageB)
	assert.GreaterOrEqual(t, dup.Score, 0.95)
}

func TestResolveGapWarning(t *testing.T) {
	doc, err := page.NewDocument([]page.Page{
		{Number: 1, Text: "completely unrelated prose about gardening and soil quality"},
		{Number: 2, Text: "a technical appendix on database replication strategies"},
	}, 0)
	require.NoError(t, err)

	// No embeddings: transitions carry only the neutral flow score, which
	// lands below the gap threshold.
	r := newResolver(t, &fakeIndexer{err: embeddings.ErrEmbeddingService}, nil)

	result, err := r.Resolve(context.Background(), doc)
	require.NoError(t, err)

	var gap bool
	for _, w := range result.Warnings {
		if w.Kind == WarningGap {
			gap = true
		}
	}
	assert.True(t, gap, "expected a gap warning")
}

func TestResolveSinglePageSkipsExternalCalls(t *testing.T) {
	doc, err := page.NewDocument([]page.Page{
		{Number: 1, Text: "the only page with real content in this document"},
	}, 0)
	require.NoError(t, err)

	ix := &fakeIndexer{}
	adv := &fakeAdvisor{}
	r := newResolver(t, ix, adv)

	result, err := r.Resolve(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, result.FinalOrder)
	assert.Equal(t, SourceFallback, result.Source)
	assert.Zero(t, ix.calls)
	assert.Zero(t, adv.calls)
}

func TestResolveAllPagesEmpty(t *testing.T) {
	doc, err := page.NewDocument([]page.Page{
		{Number: 1, Text: ""},
		{Number: 2, Text: "  "},
	}, 0)
	require.NoError(t, err)

	r := newResolver(t, &fakeIndexer{}, nil)
	result, err := r.Resolve(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, result.FinalOrder)
	assert.Equal(t, []float64{0, 0}, result.ConfidenceScores)
	assert.Equal(t, SourceFallback, result.Source)
}

func TestResolveCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := newResolver(t, &fakeIndexer{err: context.Canceled}, nil)
	_, err := r.Resolve(ctx, loanDocumentShuffled(t))
	require.ErrorIs(t, err, context.Canceled)
}

func TestValidatePermutation(t *testing.T) {
	require.NoError(t, validatePermutation([]int{1, 2, 3}, []int{3, 1, 2}))
	require.Error(t, validatePermutation([]int{1, 2, 3}, []int{1, 2}))
	require.Error(t, validatePermutation([]int{1, 2, 3}, []int{1, 2, 2}))
	require.Error(t, validatePermutation([]int{1, 2, 3}, []int{1, 2, 4}))
}

func TestGreedyTieBreaksToLowestPageNumber(t *testing.T) {
	// Three cue-free pages with identical vectors: every transition ties,
	// so the path must follow ascending page numbers deterministically.
	doc, err := page.NewDocument([]page.Page{
		{Number: 3, Text: "plain prose without any structural cues at all"},
		{Number: 1, Text: "more plain prose without structural cues either"},
		{Number: 2, Text: "yet more plain prose lacking any ordering cues"},
	}, 0)
	require.NoError(t, err)

	ix := &fakeIndexer{vectors: map[string][]float32{
		"plain prose without any structural cues at all":  {1, 0},
		"more plain prose without structural cues either": {1, 0},
		"yet more plain prose lacking any ordering cues":  {1, 0},
	}}
	r := newResolver(t, ix, nil)

	first, err := r.Resolve(context.Background(), doc)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := r.Resolve(context.Background(), doc)
		require.NoError(t, err)
		assert.Equal(t, first.FinalOrder, again.FinalOrder)
	}
	assert.Equal(t, []int{1, 2, 3}, first.FinalOrder)
}
