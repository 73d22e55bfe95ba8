package advisor

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const advisorInstrumentationName = "github.com/quirelabs/orderd/internal/advisor"

// Metrics holds advisor-related metrics.
type Metrics struct {
	meter    metric.Meter
	logger   *zap.Logger
	duration metric.Float64Histogram
	failures metric.Int64Counter
}

// NewMetrics creates a Metrics instance for the advisor.
func NewMetrics(logger *zap.Logger) *Metrics {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Metrics{
		meter:  otel.Meter(advisorInstrumentationName),
		logger: logger,
	}
	m.init()
	return m
}

func (m *Metrics) init() {
	var err error

	m.duration, err = m.meter.Float64Histogram(
		"orderd.advisor.proposal_duration_seconds",
		metric.WithDescription("Duration of one advisor proposal round trip, including parsing and validation"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0, 120.0),
	)
	if err != nil {
		m.logger.Warn("failed to create duration histogram", zap.Error(err))
	}

	m.failures, err = m.meter.Int64Counter(
		"orderd.advisor.failures_total",
		metric.WithDescription("Total advisor failures labeled by kind (unavailable, timeout, parse)"),
		metric.WithUnit("{failure}"),
	)
	if err != nil {
		m.logger.Warn("failed to create failures counter", zap.Error(err))
	}
}

// RecordProposal records one proposal attempt.
func (m *Metrics) RecordProposal(ctx context.Context, duration time.Duration, err error) {
	if m.duration != nil {
		m.duration.Record(ctx, duration.Seconds())
	}
	if err != nil && m.failures != nil {
		m.failures.Add(ctx, 1, metric.WithAttributes(
			attribute.String("kind", failureKind(err)),
		))
	}
}

func failureKind(err error) string {
	switch {
	case errors.Is(err, ErrAdvisorTimeout):
		return "timeout"
	case errors.Is(err, ErrAdvisorUnavailable):
		return "unavailable"
	case errors.Is(err, ErrAdvisorParse):
		return "parse"
	default:
		return "other"
	}
}
