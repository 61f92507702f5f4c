package kafka

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/wms-platform/fulfillment-console/internal/application"
	"github.com/wms-platform/fulfillment-console/internal/domain"
	"github.com/wms-platform/fulfillment-console/internal/infrastructure/cache"
	"github.com/wms-platform/fulfillment-console/pkg/cloudevents"
	wmskafka "github.com/wms-platform/fulfillment-console/pkg/kafka"
	"github.com/wms-platform/fulfillment-console/pkg/logging"
	"github.com/wms-platform/fulfillment-console/pkg/metrics"
)

// Invalidator drops cached query keys
type Invalidator interface {
	InvalidateFrom(ctx context.Context, source string, keys ...string) error
}

// Subscriber registers topic handlers; *wmskafka.Consumer satisfies it
type Subscriber interface {
	SubscribeAll(topic string, handler wmskafka.EventHandler)
}

// InvalidationHandler drops cache keys when upstream events report that the
// WMS changed state outside the console
type InvalidationHandler struct {
	cache   Invalidator
	logger  *logging.Logger
	metrics *metrics.Metrics
}

// NewInvalidationHandler creates an InvalidationHandler. m may be nil.
func NewInvalidationHandler(cache Invalidator, logger *logging.Logger, m *metrics.Metrics) *InvalidationHandler {
	return &InvalidationHandler{
		cache:   cache,
		logger:  logger.WithComponent("cache-invalidation"),
		metrics: m,
	}
}

// Register subscribes the handler to every invalidation topic
func (h *InvalidationHandler) Register(s Subscriber) {
	for _, topic := range wmskafka.InvalidationTopics() {
		s.SubscribeAll(topic, h.HandlerFor(topic))
	}
}

// HandlerFor returns the event handler for one topic
func (h *InvalidationHandler) HandlerFor(topic string) wmskafka.EventHandler {
	return func(ctx context.Context, event *cloudevents.WMSCloudEvent) error {
		keys := KeysForEvent(topic, event)
		h.metrics.RecordKafkaConsume(topic, event.Type, true)
		if len(keys) == 0 {
			return nil
		}

		h.logger.WithContext(ctx).Debug("Invalidating cache from event",
			"topic", topic,
			"eventType", event.Type,
			"subject", event.Subject,
			"keys", keys,
		)
		return h.cache.InvalidateFrom(ctx, cache.SourceEvent, keys...)
	}
}

// KeysForEvent maps an upstream event to the cache keys it makes stale.
// Events without a recognizable subject fall back to the topic's list keys.
func KeysForEvent(topic string, event *cloudevents.WMSCloudEvent) []string {
	if event == nil || event.Source == cloudevents.SourceConsole {
		return nil
	}

	keys := newKeySet()

	if resource, id, ok := parseSubject(event.Subject); ok {
		keys.addResource(resource, id)
	}
	if id, ok := parseID(event.OrderID); ok {
		keys.addResource(domain.ResourceOutboundOrder, id)
	}

	data := dataFields(event.Data)
	for _, field := range []string{"order_id", "orderId"} {
		if id, ok := numericField(data, field); ok {
			keys.addResource(domain.ResourceOutboundOrder, id)
		}
	}
	for _, field := range []string{"wave_id", "waveId"} {
		if id, ok := numericField(data, field); ok {
			keys.addResource(domain.ResourceOutboundWave, id)
		}
	}
	for _, field := range []string{"inbound_order_id", "inboundOrderId"} {
		if id, ok := numericField(data, field); ok {
			keys.addResource(domain.ResourceInboundOrder, id)
		}
	}

	switch topic {
	case wmskafka.Topics.OrdersEvents:
		keys.add(application.KeyOutboundOrders)
	case wmskafka.Topics.WavesEvents, wmskafka.Topics.PickingEvents:
		keys.add(application.KeyOutboundWaves)
	case wmskafka.Topics.ReceivingEvents:
		keys.add(application.KeyInboundOrders)
	}

	return keys.list
}

type keySet struct {
	seen map[string]bool
	list []string
}

func newKeySet() *keySet {
	return &keySet{seen: make(map[string]bool)}
}

func (s *keySet) add(keys ...string) {
	for _, key := range keys {
		if !s.seen[key] {
			s.seen[key] = true
			s.list = append(s.list, key)
		}
	}
}

func (s *keySet) addResource(resource domain.ResourceType, id int64) {
	switch resource {
	case domain.ResourceOutboundOrder:
		s.add(application.OrderKey(id), application.KeyOutboundOrders)
	case domain.ResourceOutboundWave:
		s.add(application.WaveKey(id), application.WaveTasksKey(id), application.KeyOutboundWaves)
	case domain.ResourceInboundOrder:
		s.add(application.InboundOrderKey(id), application.KeyInboundOrders)
	}
}

// parseSubject reads subjects of the form "<resource-type>/<id>"
func parseSubject(subject string) (domain.ResourceType, int64, bool) {
	resource, rawID, found := strings.Cut(subject, "/")
	if !found {
		return "", 0, false
	}
	id, ok := parseID(rawID)
	if !ok {
		return "", 0, false
	}
	return domain.ResourceType(resource), id, true
}

func parseID(raw string) (int64, bool) {
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func dataFields(data interface{}) map[string]interface{} {
	switch d := data.(type) {
	case map[string]interface{}:
		return d
	case nil:
		return nil
	default:
		raw, err := json.Marshal(d)
		if err != nil {
			return nil
		}
		var fields map[string]interface{}
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil
		}
		return fields
	}
}

func numericField(data map[string]interface{}, field string) (int64, bool) {
	switch v := data[field].(type) {
	case float64:
		if v > 0 && v == float64(int64(v)) {
			return int64(v), true
		}
	case string:
		return parseID(v)
	}
	return 0, false
}
