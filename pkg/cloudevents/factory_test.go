package cloudevents

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestCreateActionEvent(t *testing.T) {
	fixed := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	factory := NewEventFactory(SourceConsole)
	factory.now = func() time.Time { return fixed }

	event := factory.CreateActionEvent(context.Background(), WaveReleased, ActionEventData{
		Action:       "release-wave",
		ResourceType: "outbound-wave",
		ResourceID:   "12",
	}, "corr-1")

	assert.Equal(t, "1.0", event.SpecVersion)
	assert.Equal(t, WaveReleased, event.Type)
	assert.Equal(t, SourceConsole, event.Source)
	assert.Equal(t, "outbound-wave/12", event.Subject)
	assert.Equal(t, "12", event.WaveNumber)
	assert.Equal(t, "corr-1", event.CorrelationID)
	assert.Empty(t, event.TraceParent)

	data, ok := event.Data.(ActionEventData)
	require.True(t, ok)
	assert.Equal(t, fixed, data.CompletedAt)
}

func TestCreateEvent_CarriesTraceParent(t *testing.T) {
	provider := sdktrace.NewTracerProvider()
	ctx, span := provider.Tracer("test").Start(context.Background(), "release-order")
	defer span.End()

	event := NewEventFactory(SourceConsole).CreateEvent(ctx, OrderReleased, "outbound-order/5", nil)

	require.NotEmpty(t, event.TraceParent)
	assert.Contains(t, event.TraceParent, span.SpanContext().TraceID().String())
}
