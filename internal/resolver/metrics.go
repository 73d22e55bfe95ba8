package resolver

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const resolverInstrumentationName = "github.com/quirelabs/orderd/internal/resolver"

// Metrics holds ordering-related metrics.
type Metrics struct {
	meter     metric.Meter
	logger    *zap.Logger
	orderings metric.Int64Counter
	duration  metric.Float64Histogram
	pageCount metric.Int64Histogram
}

// NewMetrics creates a Metrics instance for the resolver.
func NewMetrics(logger *zap.Logger) *Metrics {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Metrics{
		meter:  otel.Meter(resolverInstrumentationName),
		logger: logger,
	}
	m.init()
	return m
}

func (m *Metrics) init() {
	var err error

	m.orderings, err = m.meter.Int64Counter(
		"orderd.ordering.requests_total",
		metric.WithDescription("Total ordering requests labeled by source (advisor, fallback, hybrid) and outcome"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		m.logger.Warn("failed to create orderings counter", zap.Error(err))
	}

	m.duration, err = m.meter.Float64Histogram(
		"orderd.ordering.duration_seconds",
		metric.WithDescription("End-to-end duration of one ordering request, including embedding and advisor calls"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0, 120.0),
	)
	if err != nil {
		m.logger.Warn("failed to create duration histogram", zap.Error(err))
	}

	m.pageCount, err = m.meter.Int64Histogram(
		"orderd.ordering.pages_per_document",
		metric.WithDescription("Total pages per ordering request, empty pages included"),
		metric.WithUnit("{page}"),
		metric.WithExplicitBucketBoundaries(1, 2, 5, 10, 25, 50, 100, 250),
	)
	if err != nil {
		m.logger.Warn("failed to create page count histogram", zap.Error(err))
	}
}

// RecordOrdering records one completed ordering request.
func (m *Metrics) RecordOrdering(ctx context.Context, source Source, pages int, duration time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "degraded"
	}
	attrs := metric.WithAttributes(
		attribute.String("source", string(source)),
		attribute.String("outcome", outcome),
	)

	if m.orderings != nil {
		m.orderings.Add(ctx, 1, attrs)
	}
	if m.duration != nil {
		m.duration.Record(ctx, duration.Seconds(), attrs)
	}
	if m.pageCount != nil && pages > 0 {
		m.pageCount.Record(ctx, int64(pages))
	}
}
