package kafka

import (
	"time"
)

// Config holds Kafka configuration
type Config struct {
	Brokers       []string
	ConsumerGroup string
	ClientID      string

	// Producer settings
	BatchSize    int
	BatchTimeout time.Duration
	RequiredAcks int // 0: no ack, 1: leader ack, -1: all replicas ack

	// Consumer settings
	MinBytes      int
	MaxBytes      int
	MaxWait       time.Duration
	CommitTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Brokers:       []string{"localhost:9092"},
		ConsumerGroup: "fulfillment-console",
		ClientID:      "fulfillment-console",

		BatchSize:    1,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: 1,

		MinBytes:      1,
		MaxBytes:      10e6,
		MaxWait:       500 * time.Millisecond,
		CommitTimeout: 5 * time.Second,
	}
}

// Topics contains the topic names the console reads and writes
var Topics = struct {
	ConsoleActions string

	OrdersEvents    string
	WavesEvents     string
	PickingEvents   string
	ReceivingEvents string
}{
	ConsoleActions: "wms.console.actions",

	OrdersEvents:    "wms.orders.events",
	WavesEvents:     "wms.waves.events",
	PickingEvents:   "wms.picking.events",
	ReceivingEvents: "wms.receiving.events",
}

// InvalidationTopics lists the upstream topics that drive cache invalidation
func InvalidationTopics() []string {
	return []string{
		Topics.OrdersEvents,
		Topics.WavesEvents,
		Topics.PickingEvents,
		Topics.ReceivingEvents,
	}
}
