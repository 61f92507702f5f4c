package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wms-platform/fulfillment-console/internal/domain"
	"github.com/wms-platform/fulfillment-console/pkg/logging"
	"github.com/wms-platform/fulfillment-console/pkg/metrics"
	"github.com/wms-platform/fulfillment-console/pkg/resilience"
)

// Config holds the WMS REST API connection settings
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	AuthToken string
}

// DefaultConfig returns a Config pointing at a local WMS API
func DefaultConfig() *Config {
	return &Config{
		BaseURL: "http://localhost:8000",
		Timeout: 30 * time.Second,
	}
}

// WMSClient calls the WMS REST API. Calls go through a circuit breaker and
// are never retried.
type WMSClient struct {
	config     *Config
	httpClient *http.Client
	breaker    *resilience.CircuitBreaker
	logger     *logging.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
}

// NewWMSClient creates a new WMSClient. m may be nil.
func NewWMSClient(config *Config, logger *logging.Logger, m *metrics.Metrics) *WMSClient {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	breakerConfig := resilience.DefaultCircuitBreakerConfig("wms-api")
	breakerConfig.IsSuccessful = countsAsSuccess

	var observer resilience.StateObserver
	if m != nil {
		observer = m
	}

	return &WMSClient{
		config: config,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: resilience.NewCircuitBreaker(breakerConfig, logger.Logger, observer),
		logger:  logger.WithComponent("wms-client"),
		metrics: m,
		tracer:  otel.Tracer("fulfillment-console/wms-client"),
	}
}

// Breaker exposes the circuit breaker for status reporting
func (c *WMSClient) Breaker() *resilience.CircuitBreaker {
	return c.breaker
}

// countsAsSuccess keeps client rejections from tripping the breaker
func countsAsSuccess(err error) bool {
	if err == nil {
		return true
	}
	var upstream *domain.UpstreamError
	return errors.As(err, &upstream) && upstream.IsClientError()
}

// errorBody is the error shape served by the WMS API
type errorBody struct {
	Detail  string `json:"detail"`
	Message string `json:"message"`
}

func parseDetail(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return ""
	}
	if eb.Detail != "" {
		return eb.Detail
	}
	return eb.Message
}

// do sends one request. route is the path template used for metrics and spans.
func (c *WMSClient) do(ctx context.Context, method, route, path string, body, result interface{}) error {
	_, err := resilience.Execute(ctx, c.breaker, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.send(ctx, method, route, path, body, result)
	})
	return err
}

func (c *WMSClient) send(ctx context.Context, method, route, path string, body, result interface{}) (err error) {
	ctx, span := c.tracer.Start(ctx, "wms "+method+" "+route,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.route", route),
		),
	)
	defer span.End()

	start := time.Now()
	status := 0
	defer func() {
		duration := time.Since(start)
		c.logger.UpstreamCall(ctx, method, path, status, duration, err)
		c.metrics.RecordUpstreamRequest(method, route, status, duration)
		span.SetAttributes(attribute.Int("http.status_code", status))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	var reqBody io.Reader
	if body != nil {
		payload, mErr := json.Marshal(body)
		if mErr != nil {
			return fmt.Errorf("failed to marshal request body: %w", mErr)
		}
		reqBody = bytes.NewReader(payload)
	}

	url := strings.TrimRight(c.config.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.config.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.AuthToken)
	}
	if requestID := logging.RequestIDFromContext(ctx); requestID != "" {
		req.Header.Set("X-Request-ID", requestID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return &domain.UpstreamError{StatusCode: resp.StatusCode, Detail: parseDetail(respBody)}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}
	return nil
}

// listEnvelope accepts both a bare array and a paginated {"results": [...]} body
type listEnvelope[T any] struct {
	items []T
}

func (l *listEnvelope[T]) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return json.Unmarshal(trimmed, &l.items)
	}

	var page struct {
		Results []T `json:"results"`
	}
	if err := json.Unmarshal(trimmed, &page); err != nil {
		return err
	}
	l.items = page.Results
	return nil
}

func getList[T any](ctx context.Context, c *WMSClient, route string) ([]T, error) {
	var env listEnvelope[T]
	if err := c.do(ctx, http.MethodGet, route, route, nil, &env); err != nil {
		return nil, err
	}
	if env.items == nil {
		return []T{}, nil
	}
	return env.items, nil
}

// Outbound orders

// ListOrders lists outbound orders
func (c *WMSClient) ListOrders(ctx context.Context) ([]domain.OutboundOrder, error) {
	return getList[domain.OutboundOrder](ctx, c, "/api/outbound/orders")
}

// GetOrder retrieves an outbound order
func (c *WMSClient) GetOrder(ctx context.Context, orderID int64) (*domain.OutboundOrder, error) {
	var order domain.OutboundOrder
	path := fmt.Sprintf("/api/outbound/orders/%d", orderID)
	if err := c.do(ctx, http.MethodGet, "/api/outbound/orders/{id}", path, nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// ReleaseOrder releases a planned order
func (c *WMSClient) ReleaseOrder(ctx context.Context, orderID int64) error {
	path := fmt.Sprintf("/api/outbound/orders/%d/release", orderID)
	return c.do(ctx, http.MethodPost, "/api/outbound/orders/{id}/release", path, nil, nil)
}

// AcceptShortages releases a planned order with its shortages
func (c *WMSClient) AcceptShortages(ctx context.Context, orderID int64) error {
	path := fmt.Sprintf("/api/outbound/orders/%d/accept-shortages", orderID)
	return c.do(ctx, http.MethodPost, "/api/outbound/orders/{id}/accept-shortages", path, nil, nil)
}

// AllocateOrder allocates a single order
func (c *WMSClient) AllocateOrder(ctx context.Context, orderID int64) error {
	path := fmt.Sprintf("/api/outbound/orders/%d/allocate", orderID)
	return c.do(ctx, http.MethodPost, "/api/outbound/orders/{id}/allocate", path, nil, nil)
}

// Outbound waves

// ListWaves lists outbound waves
func (c *WMSClient) ListWaves(ctx context.Context) ([]domain.OutboundWave, error) {
	return getList[domain.OutboundWave](ctx, c, "/api/outbound/waves")
}

// GetWave retrieves a wave
func (c *WMSClient) GetWave(ctx context.Context, waveID int64) (*domain.OutboundWave, error) {
	var wave domain.OutboundWave
	path := fmt.Sprintf("/api/outbound/waves/%d", waveID)
	if err := c.do(ctx, http.MethodGet, "/api/outbound/waves/{id}", path, nil, &wave); err != nil {
		return nil, err
	}
	return &wave, nil
}

// GetWaveTasks retrieves the pick tasks of a wave
func (c *WMSClient) GetWaveTasks(ctx context.Context, waveID int64) ([]domain.PickTask, error) {
	var env listEnvelope[domain.PickTask]
	path := fmt.Sprintf("/api/outbound/waves/%d/tasks", waveID)
	if err := c.do(ctx, http.MethodGet, "/api/outbound/waves/{id}/tasks", path, nil, &env); err != nil {
		return nil, err
	}
	if env.items == nil {
		return []domain.PickTask{}, nil
	}
	return env.items, nil
}

// AllocateWave allocates a wave, optionally with a strategy
func (c *WMSClient) AllocateWave(ctx context.Context, waveID int64, strategyID *int64) error {
	body := struct {
		StrategyID *int64 `json:"strategy_id,omitempty"`
	}{StrategyID: strategyID}

	path := fmt.Sprintf("/api/outbound/waves/%d/allocate", waveID)
	return c.do(ctx, http.MethodPost, "/api/outbound/waves/{id}/allocate", path, body, nil)
}

// ReleaseWave releases an allocated wave
func (c *WMSClient) ReleaseWave(ctx context.Context, waveID int64) error {
	path := fmt.Sprintf("/api/outbound/waves/%d/release", waveID)
	return c.do(ctx, http.MethodPost, "/api/outbound/waves/{id}/release", path, nil, nil)
}

// AddOrdersToWave adds orders to a planning wave
func (c *WMSClient) AddOrdersToWave(ctx context.Context, waveID int64, orderIDs []int64) error {
	body := map[string][]int64{"order_ids": orderIDs}
	path := fmt.Sprintf("/api/outbound/waves/%d/orders", waveID)
	return c.do(ctx, http.MethodPost, "/api/outbound/waves/{id}/orders", path, body, nil)
}

// RemoveOrderFromWave removes an order from a planning wave
func (c *WMSClient) RemoveOrderFromWave(ctx context.Context, waveID, orderID int64) error {
	path := fmt.Sprintf("/api/outbound/waves/%d/orders/%d", waveID, orderID)
	return c.do(ctx, http.MethodDelete, "/api/outbound/waves/{id}/orders/{orderId}", path, nil, nil)
}

// CompletePickTask completes a pick task with the picked quantity
func (c *WMSClient) CompletePickTask(ctx context.Context, taskID int64, qtyPicked decimal.Decimal) error {
	body := map[string]json.Number{"qty_picked": json.Number(qtyPicked.String())}
	path := fmt.Sprintf("/api/outbound/tasks/%d/complete", taskID)
	return c.do(ctx, http.MethodPost, "/api/outbound/tasks/{id}/complete", path, body, nil)
}

// ListAllocationStrategies lists server-side allocation strategies
func (c *WMSClient) ListAllocationStrategies(ctx context.Context) ([]domain.AllocationStrategy, error) {
	return getList[domain.AllocationStrategy](ctx, c, "/api/outbound/allocation-strategies")
}

// Inbound

// ListInboundOrders lists inbound orders
func (c *WMSClient) ListInboundOrders(ctx context.Context) ([]domain.InboundOrder, error) {
	return getList[domain.InboundOrder](ctx, c, "/api/inbound/orders")
}

// GetInboundOrder retrieves an inbound order
func (c *WMSClient) GetInboundOrder(ctx context.Context, orderID int64) (*domain.InboundOrder, error) {
	var order domain.InboundOrder
	path := fmt.Sprintf("/api/inbound/orders/%d", orderID)
	if err := c.do(ctx, http.MethodGet, "/api/inbound/orders/{id}", path, nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

type receiveItemBody struct {
	InboundLineID int64       `json:"inbound_line_id"`
	LocationID    int64       `json:"location_id"`
	Quantity      json.Number `json:"quantity"`
	LPN           string      `json:"lpn,omitempty"`
	BatchNumber   string      `json:"batch_number,omitempty"`
	ExpiryDate    string      `json:"expiry_date,omitempty"`
}

// ReceiveItem posts a receipt against a shipment
func (c *WMSClient) ReceiveItem(ctx context.Context, shipmentID int64, req domain.ReceiveItemRequest) error {
	body := receiveItemBody{
		InboundLineID: req.InboundLineID,
		LocationID:    req.LocationID,
		Quantity:      json.Number(req.Quantity.String()),
		LPN:           req.LPN,
		BatchNumber:   req.BatchNumber,
		ExpiryDate:    req.ExpiryDate,
	}
	path := fmt.Sprintf("/api/inbound/shipments/%d/receive-item", shipmentID)
	return c.do(ctx, http.MethodPost, "/api/inbound/shipments/{id}/receive-item", path, body, nil)
}

// CloseInboundOrder closes an inbound order
func (c *WMSClient) CloseInboundOrder(ctx context.Context, orderID int64) error {
	path := fmt.Sprintf("/api/inbound/orders/%d/close", orderID)
	return c.do(ctx, http.MethodPost, "/api/inbound/orders/{id}/close", path, nil, nil)
}

var (
	_ domain.OutboundAPI = (*WMSClient)(nil)
	_ domain.InboundAPI  = (*WMSClient)(nil)
)
