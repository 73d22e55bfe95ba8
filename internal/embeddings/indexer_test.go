package embeddings

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeEmbedder returns canned vectors and records the texts it receives.
type fakeEmbedder struct {
	vectors  [][]float32
	err      error
	failures int
	calls    int
	gotTexts []string
}

func (f *fakeEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	f.gotTexts = texts
	if f.failures > 0 {
		f.failures--
		return nil, errors.New("connection refused")
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.vectors, nil
}

func TestNewIndexerRequiresEmbedder(t *testing.T) {
	_, err := NewIndexer(nil, IndexerConfig{}, zap.NewNop())
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestBuildIndex(t *testing.T) {
	fake := &fakeEmbedder{vectors: [][]float32{
		{1, 0},
		{0, 1},
		{1, 0},
	}}
	ix, err := NewIndexer(fake, IndexerConfig{}, zap.NewNop())
	require.NoError(t, err)

	idx, err := ix.BuildIndex(context.Background(), []string{"a page", "b page", "c page"})
	require.NoError(t, err)
	require.Len(t, idx.Similarity, 3)

	assert.InDelta(t, 1.0, idx.Similarity[0][0], 1e-9)
	assert.InDelta(t, 0.0, idx.Similarity[0][1], 1e-9)
	assert.InDelta(t, 1.0, idx.Similarity[0][2], 1e-9)

	// Symmetry.
	assert.Equal(t, idx.Similarity[1][2], idx.Similarity[2][1])
}

func TestBuildIndexTruncatesDeterministically(t *testing.T) {
	long := make([]rune, 5000)
	for i := range long {
		long[i] = 'x'
	}
	fake := &fakeEmbedder{vectors: [][]float32{{1, 0}}}
	ix, err := NewIndexer(fake, IndexerConfig{MaxTextRunes: 100}, zap.NewNop())
	require.NoError(t, err)

	_, err = ix.BuildIndex(context.Background(), []string{string(long)})
	require.NoError(t, err)
	require.Len(t, fake.gotTexts, 1)
	assert.Len(t, []rune(fake.gotTexts[0]), 100)
	assert.Equal(t, string(long[:100]), fake.gotTexts[0])
}

func TestBuildIndexRetriesOnce(t *testing.T) {
	fake := &fakeEmbedder{
		vectors:  [][]float32{{1, 0}},
		failures: 1,
	}
	ix, err := NewIndexer(fake, IndexerConfig{}, zap.NewNop())
	require.NoError(t, err)

	_, err = ix.BuildIndex(context.Background(), []string{"a page"})
	require.NoError(t, err)
	assert.Equal(t, 2, fake.calls)
}

func TestBuildIndexSecondFailureIsTerminal(t *testing.T) {
	fake := &fakeEmbedder{failures: 2}
	ix, err := NewIndexer(fake, IndexerConfig{}, zap.NewNop())
	require.NoError(t, err)

	_, err = ix.BuildIndex(context.Background(), []string{"a page"})
	require.ErrorIs(t, err, ErrEmbeddingService)
	assert.Equal(t, 2, fake.calls)
}

func TestBuildIndexRejectsMalformedVectors(t *testing.T) {
	tests := []struct {
		name    string
		vectors [][]float32
	}{
		{"wrong count", [][]float32{{1, 0}}},
		{"inconsistent dimensionality", [][]float32{{1, 0}, {1, 0, 0}}},
		{"nan value", [][]float32{{1, 0}, {float32(math.NaN()), 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ix, err := NewIndexer(&fakeEmbedder{vectors: tt.vectors}, IndexerConfig{}, zap.NewNop())
			require.NoError(t, err)
			_, err = ix.BuildIndex(context.Background(), []string{"first page", "second page"})
			require.ErrorIs(t, err, ErrEmbeddingService)
		})
	}
}

func TestBuildIndexEmptyInput(t *testing.T) {
	ix, err := NewIndexer(&fakeEmbedder{}, IndexerConfig{}, zap.NewNop())
	require.NoError(t, err)
	_, err = ix.BuildIndex(context.Background(), nil)
	require.ErrorIs(t, err, ErrEmptyInput)
}

func TestCosineMatrixZeroVector(t *testing.T) {
	m := CosineMatrix([][]float32{{0, 0}, {1, 0}})
	assert.InDelta(t, 0.0, m[0][1], 1e-9)
	assert.InDelta(t, 1.0, m[0][0], 1e-9)
}
