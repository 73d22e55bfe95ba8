package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestSetup(t *testing.T) {
	p, err := Setup("orderd-test", "0.0.0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })

	require.NotNil(t, p.Registry())

	// Instruments created through the global meter land in the registry.
	counter, err := otel.Meter("test").Int64Counter("orderd.test.events_total")
	require.NoError(t, err)
	counter.Add(context.Background(), 1)

	families, err := p.Registry().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}
