package kafka

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/wms-platform/fulfillment-console/internal/domain"
	"github.com/wms-platform/fulfillment-console/pkg/cloudevents"
	wmskafka "github.com/wms-platform/fulfillment-console/pkg/kafka"
	"github.com/wms-platform/fulfillment-console/pkg/logging"
	"github.com/wms-platform/fulfillment-console/pkg/metrics"
)

// EventWriter publishes CloudEvents to a topic; *wmskafka.Producer satisfies it
type EventWriter interface {
	PublishEvent(ctx context.Context, topic string, event *cloudevents.WMSCloudEvent) error
}

// EventValidator checks an event payload against its contract
type EventValidator interface {
	Validate(eventType string, data interface{}) error
}

var actionEventTypes = map[domain.Action]string{
	domain.ActionReleaseOrder:        cloudevents.OrderReleased,
	domain.ActionAcceptShortages:     cloudevents.OrderShortageAccepted,
	domain.ActionAllocateOrder:       cloudevents.OrderAllocated,
	domain.ActionAllocateWave:        cloudevents.WaveAllocated,
	domain.ActionReleaseWave:         cloudevents.WaveReleased,
	domain.ActionAddOrdersToWave:     cloudevents.WaveOrdersAdded,
	domain.ActionRemoveOrderFromWave: cloudevents.WaveOrderRemoved,
	domain.ActionCompletePickTask:    cloudevents.PickTaskCompleted,
	domain.ActionReceiveItem:         cloudevents.ItemReceived,
	domain.ActionCloseInboundOrder:   cloudevents.InboundOrderClosed,
}

// EventTypeFor returns the CloudEvent type announcing action
func EventTypeFor(action domain.Action) (string, bool) {
	eventType, ok := actionEventTypes[action]
	return eventType, ok
}

// ActionPublisher publishes one CloudEvent per successful console action
type ActionPublisher struct {
	writer    EventWriter
	validator EventValidator
	factory   *cloudevents.EventFactory
	topic     string
	logger    *logging.Logger
	metrics   *metrics.Metrics
}

// NewActionPublisher creates an ActionPublisher. validator and m may be nil.
func NewActionPublisher(writer EventWriter, validator EventValidator, logger *logging.Logger, m *metrics.Metrics) *ActionPublisher {
	return &ActionPublisher{
		writer:    writer,
		validator: validator,
		factory:   cloudevents.NewEventFactory(cloudevents.SourceConsole),
		topic:     wmskafka.Topics.ConsoleActions,
		logger:    logger.WithComponent("action-publisher"),
		metrics:   m,
	}
}

// PublishAction implements domain.EventPublisher
func (p *ActionPublisher) PublishAction(ctx context.Context, event domain.ActionEvent) error {
	eventType, ok := EventTypeFor(event.Action)
	if !ok {
		return fmt.Errorf("no event type for action %q", event.Action)
	}

	data := cloudevents.ActionEventData{
		Action:       string(event.Action),
		ResourceType: string(event.Action.ResourceType()),
		ResourceID:   strconv.FormatInt(event.ResourceID, 10),
		Operator:     event.Operator,
		RequestID:    event.RequestID,
		Params:       event.Params,
		CompletedAt:  time.Now().UTC(),
	}

	if p.validator != nil {
		if err := p.validator.Validate(eventType, data); err != nil {
			return fmt.Errorf("action event failed contract validation: %w", err)
		}
	}

	correlationID := logging.CorrelationIDFromContext(ctx)
	if correlationID == "" {
		correlationID = event.RequestID
	}
	ce := p.factory.CreateActionEvent(ctx, eventType, data, correlationID)

	start := time.Now()
	err := p.writer.PublishEvent(ctx, p.topic, ce)
	duration := time.Since(start)

	p.metrics.RecordKafkaPublish(p.topic, eventType, err == nil, duration)
	p.logger.KafkaPublish(ctx, p.topic, eventType, err == nil, duration)
	return err
}

var _ domain.EventPublisher = (*ActionPublisher)(nil)
