package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/fulfillment-console/internal/application"
	"github.com/wms-platform/fulfillment-console/internal/domain"
	"github.com/wms-platform/fulfillment-console/internal/infrastructure/cache"
	"github.com/wms-platform/fulfillment-console/pkg/cloudevents"
	"github.com/wms-platform/fulfillment-console/pkg/contracts/asyncapi"
	wmskafka "github.com/wms-platform/fulfillment-console/pkg/kafka"
	"github.com/wms-platform/fulfillment-console/pkg/logging"
)

type MockEventWriter struct {
	mock.Mock
}

func (m *MockEventWriter) PublishEvent(ctx context.Context, topic string, event *cloudevents.WMSCloudEvent) error {
	return m.Called(ctx, topic, event).Error(0)
}

type MockInvalidator struct {
	mock.Mock
}

func (m *MockInvalidator) InvalidateFrom(ctx context.Context, source string, keys ...string) error {
	return m.Called(ctx, source, keys).Error(0)
}

type recordingSubscriber struct {
	topics []string
}

func (s *recordingSubscriber) SubscribeAll(topic string, handler wmskafka.EventHandler) {
	s.topics = append(s.topics, topic)
}

func newValidator(t *testing.T) *asyncapi.EventValidator {
	t.Helper()
	v, err := asyncapi.NewConsoleActionValidator()
	require.NoError(t, err)
	return v
}

func TestEveryActionHasAnEventType(t *testing.T) {
	validator := newValidator(t)

	for _, action := range []domain.Action{
		domain.ActionReleaseOrder,
		domain.ActionAcceptShortages,
		domain.ActionAllocateOrder,
		domain.ActionAllocateWave,
		domain.ActionReleaseWave,
		domain.ActionAddOrdersToWave,
		domain.ActionRemoveOrderFromWave,
		domain.ActionCompletePickTask,
		domain.ActionReceiveItem,
		domain.ActionCloseInboundOrder,
	} {
		eventType, ok := EventTypeFor(action)
		require.True(t, ok, action)
		assert.True(t, validator.HasSchema(eventType), eventType)
	}
}

func TestPublishAction(t *testing.T) {
	writer := new(MockEventWriter)
	publisher := NewActionPublisher(writer, newValidator(t), logging.NewNop(), nil)

	var published *cloudevents.WMSCloudEvent
	writer.On("PublishEvent", mock.Anything, wmskafka.Topics.ConsoleActions, mock.Anything).
		Run(func(args mock.Arguments) { published = args.Get(2).(*cloudevents.WMSCloudEvent) }).
		Return(nil)

	err := publisher.PublishAction(context.Background(), domain.ActionEvent{
		Action:     domain.ActionReleaseOrder,
		ResourceID: 42,
		Operator:   "jdoe",
		RequestID:  "req-1",
	})

	require.NoError(t, err)
	require.NotNil(t, published)
	assert.Equal(t, cloudevents.OrderReleased, published.Type)
	assert.Equal(t, "outbound-order/42", published.Subject)
	assert.Equal(t, "42", published.OrderID)
	assert.Equal(t, "req-1", published.CorrelationID)

	data := published.Data.(cloudevents.ActionEventData)
	assert.Equal(t, "release-order", data.Action)
	assert.Equal(t, "jdoe", data.Operator)
	assert.False(t, data.CompletedAt.IsZero())
}

func TestPublishAction_CorrelationFromContext(t *testing.T) {
	writer := new(MockEventWriter)
	publisher := NewActionPublisher(writer, nil, logging.NewNop(), nil)
	writer.On("PublishEvent", mock.Anything, mock.Anything, mock.MatchedBy(func(e *cloudevents.WMSCloudEvent) bool {
		return e.CorrelationID == "corr-7" && e.WaveNumber == "9"
	})).Return(nil).Once()

	ctx := logging.ContextWithCorrelationID(context.Background(), "corr-7")
	err := publisher.PublishAction(ctx, domain.ActionEvent{Action: domain.ActionReleaseWave, ResourceID: 9, RequestID: "req-2"})

	require.NoError(t, err)
	writer.AssertExpectations(t)
}

func TestPublishAction_ContractViolation(t *testing.T) {
	writer := new(MockEventWriter)
	publisher := NewActionPublisher(writer, newValidator(t), logging.NewNop(), nil)

	err := publisher.PublishAction(context.Background(), domain.ActionEvent{
		Action:     domain.ActionReceiveItem,
		ResourceID: 12,
		Params:     map[string]string{"quantity": "5"},
	})

	require.Error(t, err)
	writer.AssertNotCalled(t, "PublishEvent", mock.Anything, mock.Anything, mock.Anything)
}

func TestPublishAction_WriterError(t *testing.T) {
	writer := new(MockEventWriter)
	publisher := NewActionPublisher(writer, nil, logging.NewNop(), nil)
	boom := errors.New("broker down")
	writer.On("PublishEvent", mock.Anything, mock.Anything, mock.Anything).Return(boom)

	err := publisher.PublishAction(context.Background(), domain.ActionEvent{Action: domain.ActionCloseInboundOrder, ResourceID: 3})

	assert.ErrorIs(t, err, boom)
}

func TestPublishAction_UnknownAction(t *testing.T) {
	publisher := NewActionPublisher(new(MockEventWriter), nil, logging.NewNop(), nil)

	err := publisher.PublishAction(context.Background(), domain.ActionEvent{Action: "teleport", ResourceID: 1})

	assert.Error(t, err)
}

func TestKeysForEvent(t *testing.T) {
	tests := []struct {
		name     string
		topic    string
		event    *cloudevents.WMSCloudEvent
		expected []string
	}{
		{
			name:  "Order subject",
			topic: wmskafka.Topics.OrdersEvents,
			event: &cloudevents.WMSCloudEvent{Type: "wms.order.shipped", Subject: "outbound-order/42"},
			expected: []string{
				application.OrderKey(42),
				application.KeyOutboundOrders,
			},
		},
		{
			name:  "Wave subject",
			topic: wmskafka.Topics.WavesEvents,
			event: &cloudevents.WMSCloudEvent{Type: "wms.wave.completed", Subject: "outbound-wave/9"},
			expected: []string{
				application.WaveKey(9),
				application.WaveTasksKey(9),
				application.KeyOutboundWaves,
			},
		},
		{
			name:  "Picking event with ids in data",
			topic: wmskafka.Topics.PickingEvents,
			event: &cloudevents.WMSCloudEvent{
				Type:    "wms.picking.task-shorted",
				Subject: "pick-task/77",
				Data:    map[string]interface{}{"wave_id": float64(9), "order_id": "42"},
			},
			expected: []string{
				application.OrderKey(42),
				application.KeyOutboundOrders,
				application.WaveKey(9),
				application.WaveTasksKey(9),
				application.KeyOutboundWaves,
			},
		},
		{
			name:  "Receiving event with struct data",
			topic: wmskafka.Topics.ReceivingEvents,
			event: &cloudevents.WMSCloudEvent{
				Type: "wms.receiving.item-received",
				Data: struct {
					InboundOrderID int64 `json:"inboundOrderId"`
				}{InboundOrderID: 3},
			},
			expected: []string{
				application.InboundOrderKey(3),
				application.KeyInboundOrders,
			},
		},
		{
			name:     "Unknown subject falls back to list",
			topic:    wmskafka.Topics.WavesEvents,
			event:    &cloudevents.WMSCloudEvent{Type: "wms.wave.created", Subject: "wave/WAVE-2024-001"},
			expected: []string{application.KeyOutboundWaves},
		},
		{
			name:     "Console's own events are ignored",
			topic:    wmskafka.Topics.OrdersEvents,
			event:    &cloudevents.WMSCloudEvent{Source: cloudevents.SourceConsole, Subject: "outbound-order/1"},
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, KeysForEvent(tt.topic, tt.event))
		})
	}
}

func TestInvalidationHandler(t *testing.T) {
	invalidator := new(MockInvalidator)
	handler := NewInvalidationHandler(invalidator, logging.NewNop(), nil)

	invalidator.On("InvalidateFrom", mock.Anything, cache.SourceEvent,
		[]string{application.InboundOrderKey(5), application.KeyInboundOrders},
	).Return(nil).Once()

	err := handler.HandlerFor(wmskafka.Topics.ReceivingEvents)(context.Background(), &cloudevents.WMSCloudEvent{
		Type:    "wms.receiving.order-closed",
		Subject: "inbound-order/5",
	})

	require.NoError(t, err)
	invalidator.AssertExpectations(t)
}

func TestInvalidationHandler_Register(t *testing.T) {
	subscriber := &recordingSubscriber{}
	NewInvalidationHandler(new(MockInvalidator), logging.NewNop(), nil).Register(subscriber)

	assert.ElementsMatch(t, wmskafka.InvalidationTopics(), subscriber.topics)
}
