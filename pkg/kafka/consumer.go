package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/wms-platform/fulfillment-console/pkg/cloudevents"
	"github.com/wms-platform/fulfillment-console/pkg/logging"
)

// EventHandler is a function that handles a CloudEvent
type EventHandler func(ctx context.Context, event *cloudevents.WMSCloudEvent) error

// MessageReader is the subset of *kafka.Reader the consumer uses
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

const anyType = "*"

// Consumer reads the subscribed topics in one consumer group. Every fetched
// message is committed once handled, whatever the handler returned: the
// console's handlers are best-effort and never replay.
type Consumer struct {
	config    *Config
	logger    *slog.Logger
	handlers  map[string]map[string]EventHandler // topic -> event type -> handler
	newReader func(topic string) MessageReader

	mu      sync.Mutex
	readers []MessageReader
	wg      sync.WaitGroup
}

// NewConsumer creates a new Kafka consumer
func NewConsumer(config *Config, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Consumer{
		config:   config,
		logger:   logger,
		handlers: make(map[string]map[string]EventHandler),
	}
	c.newReader = c.kafkaReader
	return c
}

func (c *Consumer) kafkaReader(topic string) MessageReader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        c.config.Brokers,
		GroupID:        c.config.ConsumerGroup,
		Topic:          topic,
		MinBytes:       c.config.MinBytes,
		MaxBytes:       c.config.MaxBytes,
		MaxWait:        c.config.MaxWait,
		CommitInterval: c.config.CommitTimeout,
	})
}

// Subscribe registers a handler for one event type on a topic. Call before Start.
func (c *Consumer) Subscribe(topic, eventType string, handler EventHandler) {
	if c.handlers[topic] == nil {
		c.handlers[topic] = make(map[string]EventHandler)
	}
	c.handlers[topic][eventType] = handler
}

// SubscribeAll handles every event type on a topic not claimed by Subscribe
func (c *Consumer) SubscribeAll(topic string, handler EventHandler) {
	c.Subscribe(topic, anyType, handler)
}

// Start reads every subscribed topic until ctx is done
func (c *Consumer) Start(ctx context.Context) error {
	for topic := range c.handlers {
		reader := c.newReader(topic)

		c.mu.Lock()
		c.readers = append(c.readers, reader)
		c.mu.Unlock()

		c.wg.Add(1)
		go func(topic string, reader MessageReader) {
			defer c.wg.Done()
			c.consume(ctx, topic, reader)
		}(topic, reader)
	}

	<-ctx.Done()
	c.wg.Wait()
	return ctx.Err()
}

func (c *Consumer) consume(ctx context.Context, topic string, reader MessageReader) {
	c.logger.Info("Consuming topic", "topic", topic, "group", c.config.ConsumerGroup)

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("Failed to fetch message", "topic", topic, "error", err)
			continue
		}

		event, err := ParseMessage(msg)
		if err != nil {
			c.logger.Error("Dropping unparseable message", "topic", topic, "offset", msg.Offset, "error", err)
		} else if err := c.HandleEvent(ctx, topic, event); err != nil {
			c.logger.Error("Failed to handle event",
				"topic", topic,
				"eventType", event.Type,
				"eventId", event.ID,
				"error", err,
			)
		}

		if err := reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			c.logger.Error("Failed to commit message", "topic", topic, "offset", msg.Offset, "error", err)
		}
	}
}

// ParseMessage decodes a message body as a CloudEvent. Binary-mode ce-*
// headers fill extensions the body left empty.
func ParseMessage(msg kafka.Message) (*cloudevents.WMSCloudEvent, error) {
	var event cloudevents.WMSCloudEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}

	fields := map[string]*string{
		"ce-type":             &event.Type,
		"ce-subject":          &event.Subject,
		"ce-wmscorrelationid": &event.CorrelationID,
		"ce-wmswavenumber":    &event.WaveNumber,
		"ce-wmsorderid":       &event.OrderID,
		"ce-traceparent":      &event.TraceParent,
		"ce-tracestate":       &event.TraceState,
	}
	for _, header := range msg.Headers {
		if field, ok := fields[header.Key]; ok && *field == "" {
			*field = string(header.Value)
		}
	}

	return &event, nil
}

// HandleEvent routes an event to the handler for its type, falling back to
// the topic's catch-all. The producer's trace and correlation id carry over.
func (c *Consumer) HandleEvent(ctx context.Context, topic string, event *cloudevents.WMSCloudEvent) error {
	handlers, ok := c.handlers[topic]
	if !ok {
		return fmt.Errorf("no handlers registered for topic %s", topic)
	}

	handler, ok := handlers[event.Type]
	if !ok {
		if handler, ok = handlers[anyType]; !ok {
			c.logger.Debug("Ignoring event type", "topic", topic, "eventType", event.Type)
			return nil
		}
	}

	if event.TraceParent != "" {
		ctx = otel.GetTextMapPropagator().Extract(ctx, propagation.MapCarrier{
			"traceparent": event.TraceParent,
			"tracestate":  event.TraceState,
		})
	}
	if event.CorrelationID != "" {
		ctx = logging.ContextWithCorrelationID(ctx, event.CorrelationID)
	}

	return handler(ctx, event)
}

// Close closes every reader opened by Start
func (c *Consumer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var lastErr error
	for _, reader := range c.readers {
		if err := reader.Close(); err != nil {
			lastErr = fmt.Errorf("failed to close reader: %w", err)
		}
	}
	c.readers = nil
	return lastErr
}
