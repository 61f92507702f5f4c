package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all console metrics. A nil *Metrics is valid and records nothing.
type Metrics struct {
	serviceName string
	registry    *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Gateway metrics
	ActionsTotal   *prometheus.CounterVec
	ActionDuration *prometheus.HistogramVec
	ActionsPending prometheus.Gauge

	// Query cache metrics
	CacheLookups       *prometheus.CounterVec
	CacheInvalidations *prometheus.CounterVec

	// Upstream WMS API metrics
	UpstreamRequests *prometheus.CounterVec
	UpstreamDuration *prometheus.HistogramVec

	// Kafka metrics
	KafkaEventsPublished *prometheus.CounterVec
	KafkaEventsConsumed  *prometheus.CounterVec
	KafkaPublishDuration *prometheus.HistogramVec

	// MongoDB metrics
	MongoDBOperations        *prometheus.CounterVec
	MongoDBOperationDuration *prometheus.HistogramVec

	// Circuit breaker metrics
	CircuitBreakerState *prometheus.GaugeVec
	CircuitBreakerTrips *prometheus.CounterVec
}

// Config holds metrics configuration
type Config struct {
	ServiceName string
	Namespace   string
}

// DefaultConfig returns default metrics configuration
func DefaultConfig(serviceName string) *Config {
	return &Config{
		ServiceName: serviceName,
		Namespace:   "wms",
	}
}

// New creates a new Metrics instance on its own registry
func New(config *Config) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	ns := config.Namespace
	m := &Metrics{
		serviceName: config.ServiceName,
		registry:    registry,
	}

	m.HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "http_requests_total", Help: "Total number of HTTP requests"},
		[]string{"service", "method", "path", "status"},
	)
	m.HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"service", "method", "path"},
	)
	m.HTTPRequestsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   ns,
		Name:        "http_requests_in_flight",
		Help:        "Number of HTTP requests currently being processed",
		ConstLabels: prometheus.Labels{"service": config.ServiceName},
	})

	m.ActionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "console_actions_total", Help: "Gateway action attempts by outcome"},
		[]string{"service", "action", "outcome"},
	)
	m.ActionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "console_action_duration_seconds",
			Help:      "Gateway action duration in seconds",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"service", "action"},
	)
	m.ActionsPending = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   ns,
		Name:        "console_actions_pending",
		Help:        "Gateway actions currently awaiting the WMS API",
		ConstLabels: prometheus.Labels{"service": config.ServiceName},
	})

	m.CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "console_cache_lookups_total", Help: "Query cache lookups by result"},
		[]string{"service", "resource", "result"},
	)
	m.CacheInvalidations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "console_cache_invalidations_total", Help: "Query cache invalidations by source"},
		[]string{"service", "resource", "source"},
	)

	m.UpstreamRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "upstream_requests_total", Help: "Requests sent to the WMS API"},
		[]string{"service", "method", "route", "status"},
	)
	m.UpstreamDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "upstream_request_duration_seconds",
			Help:      "WMS API request duration in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"service", "method", "route"},
	)

	m.KafkaEventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "kafka_events_published_total", Help: "Total number of Kafka events published"},
		[]string{"service", "topic", "event_type", "status"},
	)
	m.KafkaEventsConsumed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "kafka_events_consumed_total", Help: "Total number of Kafka events consumed"},
		[]string{"service", "topic", "event_type", "status"},
	)
	m.KafkaPublishDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "kafka_publish_duration_seconds",
			Help:      "Kafka publish duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"service", "topic"},
	)

	m.MongoDBOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "mongodb_operations_total", Help: "Total number of MongoDB operations"},
		[]string{"service", "collection", "operation", "status"},
	)
	m.MongoDBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "mongodb_operation_duration_seconds",
			Help:      "MongoDB operation duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"service", "collection", "operation"},
	)

	m.CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Namespace: ns, Name: "circuit_breaker_state", Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)"},
		[]string{"service", "name"},
	)
	m.CircuitBreakerTrips = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: ns, Name: "circuit_breaker_trips_total", Help: "Total number of circuit breaker trips"},
		[]string{"service", "name"},
	)

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.ActionsTotal,
		m.ActionDuration,
		m.ActionsPending,
		m.CacheLookups,
		m.CacheInvalidations,
		m.UpstreamRequests,
		m.UpstreamDuration,
		m.KafkaEventsPublished,
		m.KafkaEventsConsumed,
		m.KafkaPublishDuration,
		m.MongoDBOperations,
		m.MongoDBOperationDuration,
		m.CircuitBreakerState,
		m.CircuitBreakerTrips,
	)

	return m
}

// Handler returns an HTTP handler for metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry returns the prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(m.serviceName, method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(m.serviceName, method, path).Observe(duration.Seconds())
}

// IncrementHTTPRequestsInFlight increments in-flight requests
func (m *Metrics) IncrementHTTPRequestsInFlight() {
	if m == nil {
		return
	}
	m.HTTPRequestsInFlight.Inc()
}

// DecrementHTTPRequestsInFlight decrements in-flight requests
func (m *Metrics) DecrementHTTPRequestsInFlight() {
	if m == nil {
		return
	}
	m.HTTPRequestsInFlight.Dec()
}

// RecordAction records one gateway attempt
func (m *Metrics) RecordAction(action, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.ActionsTotal.WithLabelValues(m.serviceName, action, outcome).Inc()
	m.ActionDuration.WithLabelValues(m.serviceName, action).Observe(duration.Seconds())
}

// ActionStarted marks a gateway action as awaiting the WMS API
func (m *Metrics) ActionStarted() {
	if m == nil {
		return
	}
	m.ActionsPending.Inc()
}

// ActionFinished clears a pending gateway action
func (m *Metrics) ActionFinished() {
	if m == nil {
		return
	}
	m.ActionsPending.Dec()
}

// RecordCacheLookup records a query cache hit or miss
func (m *Metrics) RecordCacheLookup(resource string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(m.serviceName, resource, result).Inc()
}

// RecordCacheInvalidation records a query cache invalidation
func (m *Metrics) RecordCacheInvalidation(resource, source string) {
	if m == nil {
		return
	}
	m.CacheInvalidations.WithLabelValues(m.serviceName, resource, source).Inc()
}

// RecordUpstreamRequest records a WMS API call; status 0 means no response
func (m *Metrics) RecordUpstreamRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.UpstreamRequests.WithLabelValues(m.serviceName, method, route, strconv.Itoa(status)).Inc()
	m.UpstreamDuration.WithLabelValues(m.serviceName, method, route).Observe(duration.Seconds())
}

// RecordKafkaPublish records a Kafka publish event
func (m *Metrics) RecordKafkaPublish(topic, eventType string, success bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.KafkaEventsPublished.WithLabelValues(m.serviceName, topic, eventType, statusLabel(success)).Inc()
	m.KafkaPublishDuration.WithLabelValues(m.serviceName, topic).Observe(duration.Seconds())
}

// RecordKafkaConsume records a Kafka consume event
func (m *Metrics) RecordKafkaConsume(topic, eventType string, success bool) {
	if m == nil {
		return
	}
	m.KafkaEventsConsumed.WithLabelValues(m.serviceName, topic, eventType, statusLabel(success)).Inc()
}

// RecordMongoDBOperation records a MongoDB operation
func (m *Metrics) RecordMongoDBOperation(collection, operation string, success bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.MongoDBOperations.WithLabelValues(m.serviceName, collection, operation, statusLabel(success)).Inc()
	m.MongoDBOperationDuration.WithLabelValues(m.serviceName, collection, operation).Observe(duration.Seconds())
}

// SetCircuitBreakerState sets the circuit breaker state
func (m *Metrics) SetCircuitBreakerState(name string, state int) {
	if m == nil {
		return
	}
	m.CircuitBreakerState.WithLabelValues(m.serviceName, name).Set(float64(state))
}

// RecordCircuitBreakerTrip records a circuit breaker trip
func (m *Metrics) RecordCircuitBreakerTrip(name string) {
	if m == nil {
		return
	}
	m.CircuitBreakerTrips.WithLabelValues(m.serviceName, name).Inc()
}
