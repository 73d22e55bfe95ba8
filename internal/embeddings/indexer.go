package embeddings

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultMaxTextRunes bounds the text sent per page so per-call cost
	// stays constant. Truncation always takes the first N runes, keeping
	// results deterministic for identical input.
	DefaultMaxTextRunes = 2000

	// DefaultTimeout bounds a single embedding call.
	DefaultTimeout = 30 * time.Second
)

// IndexerConfig holds configuration for the Indexer.
type IndexerConfig struct {
	// MaxTextRunes is the per-page truncation bound (default 2000).
	MaxTextRunes int `koanf:"max_text_runes"`

	// Timeout bounds each embedding call (default 30s).
	Timeout time.Duration `koanf:"timeout"`
}

// Indexer embeds page texts and computes their similarity matrix.
type Indexer struct {
	embedder Embedder
	config   IndexerConfig
	logger   *zap.Logger
	metrics  *Metrics
}

// Index is the output of one indexing pass: one vector per input text and
// the symmetric pairwise cosine-similarity matrix.
type Index struct {
	Vectors    [][]float32
	Similarity [][]float64
}

// NewIndexer creates an Indexer over the given embedder.
func NewIndexer(embedder Embedder, cfg IndexerConfig, logger *zap.Logger) (*Indexer, error) {
	if embedder == nil {
		return nil, fmt.Errorf("%w: embedder required", ErrInvalidConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxTextRunes <= 0 {
		cfg.MaxTextRunes = DefaultMaxTextRunes
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Indexer{
		embedder: embedder,
		config:   cfg,
		logger:   logger,
		metrics:  NewMetrics(logger),
	}, nil
}

// BuildIndex embeds the given page texts and computes the similarity matrix.
//
// Each text is truncated to the configured bound before embedding. The
// remote call is retried once; a second failure is terminal for this
// request and surfaces as ErrEmbeddingService, as do malformed responses
// (wrong count, inconsistent dimensionality, NaN values).
func (ix *Indexer) BuildIndex(ctx context.Context, texts []string) (*Index, error) {
	start := time.Now()
	var indexErr error
	defer func() {
		ix.metrics.RecordIndexing(ctx, time.Since(start), len(texts), indexErr)
	}()

	if len(texts) == 0 {
		indexErr = fmt.Errorf("%w: no texts to index", ErrEmptyInput)
		return nil, indexErr
	}

	truncated := make([]string, len(texts))
	for i, t := range texts {
		truncated[i] = truncateRunes(t, ix.config.MaxTextRunes)
	}

	vectors, err := ix.embedOnceRetried(ctx, truncated)
	if err != nil {
		indexErr = err
		return nil, indexErr
	}

	if err := validateVectors(vectors, len(texts)); err != nil {
		indexErr = err
		return nil, indexErr
	}

	return &Index{
		Vectors:    vectors,
		Similarity: CosineMatrix(vectors),
	}, nil
}

// embedOnceRetried calls the embedder with a bounded timeout and at most one
// retry. Context cancellation is never retried.
func (ix *Indexer) embedOnceRetried(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := ix.embedWithTimeout(ctx, texts)
	if err == nil {
		return vectors, nil
	}
	if ctx.Err() != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingService, ctx.Err())
	}

	ix.logger.Warn("embedding call failed, retrying once", zap.Error(err))
	vectors, err = ix.embedWithTimeout(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingService, err)
	}
	return vectors, nil
}

func (ix *Indexer) embedWithTimeout(ctx context.Context, texts []string) ([][]float32, error) {
	callCtx, cancel := context.WithTimeout(ctx, ix.config.Timeout)
	defer cancel()
	return ix.embedder.EmbedDocuments(callCtx, texts)
}

// validateVectors checks count, consistent dimensionality, and NaN values.
func validateVectors(vectors [][]float32, want int) error {
	if len(vectors) != want {
		return fmt.Errorf("%w: got %d vectors for %d texts", ErrEmbeddingService, len(vectors), want)
	}
	dim := len(vectors[0])
	if dim == 0 {
		return fmt.Errorf("%w: zero-dimensional vectors", ErrEmbeddingService)
	}
	for i, v := range vectors {
		if len(v) != dim {
			return fmt.Errorf("%w: inconsistent dimensionality (%d vs %d)", ErrEmbeddingService, len(v), dim)
		}
		for _, x := range v {
			if math.IsNaN(float64(x)) {
				return fmt.Errorf("%w: NaN value in vector %d", ErrEmbeddingService, i)
			}
		}
	}
	return nil
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
