package cloudevents

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/propagation"
)

// EventFactory creates CloudEvents for one source
type EventFactory struct {
	source string
	now    func() time.Time
}

// NewEventFactory creates a new EventFactory for a specific source
func NewEventFactory(source string) *EventFactory {
	return &EventFactory{source: source, now: time.Now}
}

// CreateEvent creates a new WMSCloudEvent carrying the trace context found in ctx
func (f *EventFactory) CreateEvent(ctx context.Context, eventType, subject string, data interface{}) *WMSCloudEvent {
	event := &WMSCloudEvent{
		SpecVersion:     "1.0",
		Type:            eventType,
		Source:          f.source,
		Subject:         subject,
		ID:              uuid.New().String(),
		Time:            f.now().UTC(),
		DataContentType: "application/json",
		Data:            data,
	}

	carrier := propagation.MapCarrier{}
	propagation.TraceContext{}.Inject(ctx, carrier)
	event.TraceParent = carrier.Get("traceparent")
	event.TraceState = carrier.Get("tracestate")

	return event
}

// CreateActionEvent creates the event announcing a completed console action
func (f *EventFactory) CreateActionEvent(ctx context.Context, eventType string, data ActionEventData, correlationID string) *WMSCloudEvent {
	if data.CompletedAt.IsZero() {
		data.CompletedAt = f.now().UTC()
	}

	event := f.CreateEvent(ctx, eventType, data.ResourceType+"/"+data.ResourceID, data)
	event.CorrelationID = correlationID

	switch data.ResourceType {
	case "outbound-order":
		event.OrderID = data.ResourceID
	case "outbound-wave":
		event.WaveNumber = data.ResourceID
	}

	return event
}
