// Package advisor asks an external reasoning service for a page ordering
// proposal. The advisor is purely advisory: every failure mode is a typed
// error the resolver converts into its deterministic fallback path, and a
// proposal is only accepted when it is exactly a permutation of the known
// non-empty page numbers.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/quirelabs/orderd/internal/page"
)

var (
	// ErrAdvisorUnavailable indicates the reasoning service could not be
	// reached or returned a transport-level failure.
	ErrAdvisorUnavailable = errors.New("advisor unavailable")

	// ErrAdvisorTimeout indicates the reasoning service did not answer
	// within the configured bound.
	ErrAdvisorTimeout = errors.New("advisor timeout")

	// ErrAdvisorParse indicates no valid permutation could be extracted
	// from the response. Covers missing, duplicated, and foreign page
	// numbers: an incomplete proposal is a parse failure, never repaired.
	ErrAdvisorParse = errors.New("advisor parse failure")

	// ErrInvalidConfig indicates invalid advisor configuration.
	ErrInvalidConfig = errors.New("invalid configuration")
)

const (
	// DefaultMaxExcerptRunes bounds the per-page excerpt sent to the
	// service, keeping request size proportional to page count only.
	DefaultMaxExcerptRunes = 400

	// DefaultTimeout bounds a single advisor call.
	DefaultTimeout = 60 * time.Second
)

// Client completes a prompt against the reasoning service.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Options configures the Advisor.
type Options struct {
	// MaxExcerptRunes bounds the per-page excerpt (default 400).
	MaxExcerptRunes int `koanf:"max_excerpt_runes"`

	// Timeout bounds each advisor call (default 60s).
	Timeout time.Duration `koanf:"timeout"`
}

// Proposal is a validated ordering proposal from the reasoning service.
type Proposal struct {
	// Order holds the non-empty page numbers in proposed reading order.
	Order []int

	// Rationale is the service's free-form explanation.
	Rationale string
}

// Advisor requests and validates ordering proposals.
type Advisor struct {
	client  Client
	opts    Options
	logger  *zap.Logger
	metrics *Metrics
}

// New creates an Advisor over the given client.
func New(client Client, opts Options, logger *zap.Logger) (*Advisor, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: client required", ErrInvalidConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxExcerptRunes <= 0 {
		opts.MaxExcerptRunes = DefaultMaxExcerptRunes
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Advisor{
		client:  client,
		opts:    opts,
		logger:  logger,
		metrics: NewMetrics(logger),
	}, nil
}

// Propose asks the reasoning service for an ordering of the given non-empty
// pages and validates the answer.
//
// The transport call gets one retry; timeouts surface as ErrAdvisorTimeout
// and other transport failures as ErrAdvisorUnavailable. A response that
// parses but does not cover exactly the given page-number set surfaces as
// ErrAdvisorParse.
func (a *Advisor) Propose(ctx context.Context, pages []page.Page) (*Proposal, error) {
	start := time.Now()
	var proposeErr error
	defer func() {
		a.metrics.RecordProposal(ctx, time.Since(start), proposeErr)
	}()

	if len(pages) < 2 {
		proposeErr = fmt.Errorf("%w: need at least 2 pages", ErrInvalidConfig)
		return nil, proposeErr
	}

	prompt := buildPrompt(pages, a.opts.MaxExcerptRunes)

	response, err := a.completeOnceRetried(ctx, prompt)
	if err != nil {
		proposeErr = err
		return nil, proposeErr
	}

	parsed, err := parseResponse(response)
	if err != nil {
		a.logger.Warn("advisor response not parseable",
			zap.Int("response_len", len(response)),
			zap.Error(err))
		proposeErr = err
		return nil, proposeErr
	}

	want := make(map[int]bool, len(pages))
	for _, p := range pages {
		want[p.Number] = true
	}
	if err := validateOrder(parsed.Order, want); err != nil {
		a.logger.Warn("advisor proposal rejected",
			zap.Ints("proposed", parsed.Order),
			zap.Error(err))
		proposeErr = err
		return nil, proposeErr
	}

	return &Proposal{Order: parsed.Order, Rationale: parsed.Reasoning}, nil
}

func (a *Advisor) completeOnceRetried(ctx context.Context, prompt string) (string, error) {
	response, err := a.completeWithTimeout(ctx, prompt)
	if err == nil {
		return response, nil
	}
	if classified := classifyTransportErr(ctx, err); errors.Is(classified, ErrAdvisorTimeout) && ctx.Err() != nil {
		// Parent context expired; a retry cannot succeed.
		return "", classified
	}

	a.logger.Warn("advisor call failed, retrying once", zap.Error(err))
	response, err = a.completeWithTimeout(ctx, prompt)
	if err != nil {
		return "", classifyTransportErr(ctx, err)
	}
	return response, nil
}

func (a *Advisor) completeWithTimeout(ctx context.Context, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, a.opts.Timeout)
	defer cancel()
	return a.client.Complete(callCtx, prompt)
}

func classifyTransportErr(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.Canceled) {
		return fmt.Errorf("%w: %v", ErrAdvisorTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrAdvisorUnavailable, err)
}

// validateOrder checks that order is exactly a permutation of the wanted
// page-number set.
func validateOrder(order []int, want map[int]bool) error {
	if len(order) != len(want) {
		return fmt.Errorf("%w: proposal covers %d of %d pages", ErrAdvisorParse, len(order), len(want))
	}
	seen := make(map[int]bool, len(order))
	for _, n := range order {
		if !want[n] {
			return fmt.Errorf("%w: foreign page number %d", ErrAdvisorParse, n)
		}
		if seen[n] {
			return fmt.Errorf("%w: duplicated page number %d", ErrAdvisorParse, n)
		}
		seen[n] = true
	}
	return nil
}
