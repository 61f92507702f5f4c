package application

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wms-platform/fulfillment-console/internal/domain"
	"github.com/wms-platform/fulfillment-console/pkg/logging"
	"github.com/wms-platform/fulfillment-console/pkg/metrics"
	"github.com/wms-platform/fulfillment-console/pkg/tracing"
)

const sideEffectTimeout = 5 * time.Second

// ActionGateway gates and dispatches every state-changing call to the WMS API.
// At most one call per (action, resource) pair is in flight; a duplicate is
// suppressed without touching the network. Nothing is retried.
type ActionGateway struct {
	outbound  domain.OutboundAPI
	inbound   domain.InboundAPI
	queries   *QueryService
	cache     QueryCache
	actionLog domain.ActionLog
	publisher domain.EventPublisher
	inflight  *inFlightSet
	logger    *logging.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
	now       func() time.Time
}

// GatewayOption configures optional collaborators
type GatewayOption func(*ActionGateway)

// WithActionLog records every attempt in log
func WithActionLog(log domain.ActionLog) GatewayOption {
	return func(g *ActionGateway) { g.actionLog = log }
}

// WithEventPublisher publishes every successful action
func WithEventPublisher(p domain.EventPublisher) GatewayOption {
	return func(g *ActionGateway) { g.publisher = p }
}

// WithMetrics records action counters and durations
func WithMetrics(m *metrics.Metrics) GatewayOption {
	return func(g *ActionGateway) { g.metrics = m }
}

// NewActionGateway creates a new ActionGateway
func NewActionGateway(
	outbound domain.OutboundAPI,
	inbound domain.InboundAPI,
	queries *QueryService,
	cache QueryCache,
	logger *logging.Logger,
	opts ...GatewayOption,
) *ActionGateway {
	g := &ActionGateway{
		outbound: outbound,
		inbound:  inbound,
		queries:  queries,
		cache:    cache,
		inflight: newInFlightSet(),
		logger:   logger.WithComponent("gateway"),
		tracer:   otel.Tracer("fulfillment-console/gateway"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// actionSpec describes one gated dispatch. rowIDs narrow the in-flight key
// below the logged resource.
type actionSpec struct {
	action     domain.Action
	resourceID int64
	rowIDs     []int64
	params     map[string]string
	gate       func(ctx context.Context) error
	dispatch   func(ctx context.Context) error
	invalidate []string
}

// InFlight lists the pending action keys
func (g *ActionGateway) InFlight() []string {
	return g.inflight.keys()
}

func (g *ActionGateway) run(ctx context.Context, spec actionSpec) (*ActionResultDTO, error) {
	start := g.now()
	key := inFlightKey(spec.action, append([]int64{spec.resourceID}, spec.rowIDs...)...)

	if !g.inflight.acquire(key) {
		err := fmt.Errorf("%w: %s", domain.ErrActionInFlight, key)
		g.record(ctx, spec, start, err)
		return nil, actionError(spec.action, spec.resourceID, err)
	}
	defer g.inflight.release(key)

	ctx, span := g.tracer.Start(ctx, "gateway."+string(spec.action),
		trace.WithAttributes(tracing.ActionAttributes(string(spec.action), strconv.FormatInt(spec.resourceID, 10))...),
	)
	defer span.End()

	g.metrics.ActionStarted()
	err := g.attempt(ctx, spec)
	g.metrics.ActionFinished()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		g.record(ctx, spec, start, err)
		return nil, actionError(spec.action, spec.resourceID, err)
	}

	if len(spec.invalidate) > 0 && g.cache != nil {
		if err := g.cache.Invalidate(ctx, spec.invalidate...); err != nil {
			g.logger.WithContext(ctx).WithError(err).Warn("Failed to invalidate cache after action",
				"action", spec.action, "keys", strings.Join(spec.invalidate, ","))
		}
	}

	g.publish(ctx, spec)
	g.record(ctx, spec, start, nil)

	return &ActionResultDTO{
		Action:       spec.action,
		ResourceType: spec.action.ResourceType(),
		ResourceID:   spec.resourceID,
		Outcome:      domain.OutcomeSucceeded,
		CompletedAt:  g.now().UTC(),
	}, nil
}

func (g *ActionGateway) attempt(ctx context.Context, spec actionSpec) error {
	if spec.gate != nil {
		if err := spec.gate(ctx); err != nil {
			return err
		}
	}
	return spec.dispatch(ctx)
}

// record logs, counts and appends the attempt to the action log
func (g *ActionGateway) record(ctx context.Context, spec actionSpec, start time.Time, err error) {
	duration := g.now().Sub(start)
	outcome := outcomeOf(err)
	resourceID := strconv.FormatInt(spec.resourceID, 10)

	g.logger.Action(ctx, string(spec.action), resourceID, string(outcome), duration, err)
	g.metrics.RecordAction(string(spec.action), string(outcome), duration)

	if g.actionLog == nil {
		return
	}

	record := &domain.ActionRecord{
		RecordID:     uuid.New().String(),
		Action:       spec.action,
		ResourceType: spec.action.ResourceType(),
		ResourceID:   spec.resourceID,
		Operator:     logging.OperatorFromContext(ctx),
		RequestID:    logging.RequestIDFromContext(ctx),
		Params:       spec.params,
		Outcome:      outcome,
		StartedAt:    start.UTC(),
		DurationMs:   duration.Milliseconds(),
	}
	if appErr := actionError(spec.action, spec.resourceID, err); appErr != nil {
		record.ErrorCode = appErr.Code
		record.Message = appErr.Message
	}

	logCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()

	if err := g.actionLog.Append(logCtx, record); err != nil {
		g.logger.WithContext(ctx).WithError(err).Warn("Failed to append action log", "action", spec.action, "resourceId", resourceID)
	}
}

func (g *ActionGateway) publish(ctx context.Context, spec actionSpec) {
	if g.publisher == nil {
		return
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()

	err := g.publisher.PublishAction(pubCtx, domain.ActionEvent{
		Action:     spec.action,
		ResourceID: spec.resourceID,
		Operator:   logging.OperatorFromContext(ctx),
		RequestID:  logging.RequestIDFromContext(ctx),
		Params:     spec.params,
	})
	if err != nil {
		g.logger.WithContext(ctx).WithError(err).Warn("Failed to publish action event", "action", spec.action, "resourceId", spec.resourceID)
	}
}

func orderInvalidations(orderID int64) []string {
	return []string{KeyOutboundOrders, OrderKey(orderID)}
}

func waveInvalidations(waveID int64) []string {
	return []string{KeyOutboundWaves, WaveKey(waveID), WaveTasksKey(waveID)}
}

func inboundInvalidations(orderID int64) []string {
	return []string{KeyInboundOrders, InboundOrderKey(orderID)}
}

// ReleaseOrder releases a planned order without shortages
func (g *ActionGateway) ReleaseOrder(ctx context.Context, cmd ReleaseOrderCommand) (*ActionResultDTO, error) {
	return g.run(ctx, actionSpec{
		action:     domain.ActionReleaseOrder,
		resourceID: cmd.OrderID,
		gate: func(ctx context.Context) error {
			order, err := g.queries.Order(ctx, cmd.OrderID)
			if err != nil {
				return err
			}
			if !domain.CanRelease(order) {
				return domain.NotPermitted(domain.ActionReleaseOrder, "order is %s with shortages=%t", order.Status, domain.HasShortages(order))
			}
			return nil
		},
		dispatch: func(ctx context.Context) error {
			return g.outbound.ReleaseOrder(ctx, cmd.OrderID)
		},
		invalidate: orderInvalidations(cmd.OrderID),
	})
}

// AcceptShortages releases a planned order with its shortages
func (g *ActionGateway) AcceptShortages(ctx context.Context, cmd AcceptShortagesCommand) (*ActionResultDTO, error) {
	return g.run(ctx, actionSpec{
		action:     domain.ActionAcceptShortages,
		resourceID: cmd.OrderID,
		gate: func(ctx context.Context) error {
			order, err := g.queries.Order(ctx, cmd.OrderID)
			if err != nil {
				return err
			}
			if !domain.CanAcceptShortages(order) {
				return domain.NotPermitted(domain.ActionAcceptShortages, "order is %s with shortages=%t", order.Status, domain.HasShortages(order))
			}
			return nil
		},
		dispatch: func(ctx context.Context) error {
			return g.outbound.AcceptShortages(ctx, cmd.OrderID)
		},
		invalidate: orderInvalidations(cmd.OrderID),
	})
}

// AllocateOrder (re)allocates a created or planned order
func (g *ActionGateway) AllocateOrder(ctx context.Context, cmd AllocateOrderCommand) (*ActionResultDTO, error) {
	return g.run(ctx, actionSpec{
		action:     domain.ActionAllocateOrder,
		resourceID: cmd.OrderID,
		gate: func(ctx context.Context) error {
			order, err := g.queries.Order(ctx, cmd.OrderID)
			if err != nil {
				return err
			}
			if !domain.CanAllocate(order) {
				return domain.NotPermitted(domain.ActionAllocateOrder, "order is %s", order.Status)
			}
			return nil
		},
		dispatch: func(ctx context.Context) error {
			return g.outbound.AllocateOrder(ctx, cmd.OrderID)
		},
		invalidate: orderInvalidations(cmd.OrderID),
	})
}

// AllocateWave allocates a planning wave with an optional strategy
func (g *ActionGateway) AllocateWave(ctx context.Context, cmd AllocateWaveCommand) (*ActionResultDTO, error) {
	var params map[string]string
	if cmd.StrategyID != nil {
		params = map[string]string{"strategy_id": strconv.FormatInt(*cmd.StrategyID, 10)}
	}

	return g.run(ctx, actionSpec{
		action:     domain.ActionAllocateWave,
		resourceID: cmd.WaveID,
		params:     params,
		gate:       g.waveGate(cmd.WaveID, domain.ActionAllocateWave, domain.CanAllocateWave),
		dispatch: func(ctx context.Context) error {
			return g.outbound.AllocateWave(ctx, cmd.WaveID, cmd.StrategyID)
		},
		invalidate: waveInvalidations(cmd.WaveID),
	})
}

// ReleaseWave releases an allocated wave
func (g *ActionGateway) ReleaseWave(ctx context.Context, cmd ReleaseWaveCommand) (*ActionResultDTO, error) {
	return g.run(ctx, actionSpec{
		action:     domain.ActionReleaseWave,
		resourceID: cmd.WaveID,
		gate:       g.waveGate(cmd.WaveID, domain.ActionReleaseWave, domain.CanReleaseWave),
		dispatch: func(ctx context.Context) error {
			return g.outbound.ReleaseWave(ctx, cmd.WaveID)
		},
		invalidate: waveInvalidations(cmd.WaveID),
	})
}

// AddOrdersToWave adds orders to a planning wave
func (g *ActionGateway) AddOrdersToWave(ctx context.Context, cmd AddOrdersToWaveCommand) (*ActionResultDTO, error) {
	ids := make([]string, 0, len(cmd.OrderIDs))
	invalidate := waveInvalidations(cmd.WaveID)
	invalidate = append(invalidate, KeyOutboundOrders)
	for _, id := range cmd.OrderIDs {
		ids = append(ids, strconv.FormatInt(id, 10))
		invalidate = append(invalidate, OrderKey(id))
	}

	modify := g.waveGate(cmd.WaveID, domain.ActionAddOrdersToWave, domain.CanModifyWaveOrders)

	return g.run(ctx, actionSpec{
		action:     domain.ActionAddOrdersToWave,
		resourceID: cmd.WaveID,
		params:     map[string]string{"order_ids": strings.Join(ids, ",")},
		gate: func(ctx context.Context) error {
			if len(cmd.OrderIDs) == 0 {
				return &domain.FieldError{Field: "order_ids", Message: "at least one order required"}
			}
			return modify(ctx)
		},
		dispatch: func(ctx context.Context) error {
			return g.outbound.AddOrdersToWave(ctx, cmd.WaveID, cmd.OrderIDs)
		},
		invalidate: invalidate,
	})
}

// RemoveOrderFromWave removes one order from a planning wave
func (g *ActionGateway) RemoveOrderFromWave(ctx context.Context, cmd RemoveOrderFromWaveCommand) (*ActionResultDTO, error) {
	invalidate := waveInvalidations(cmd.WaveID)
	invalidate = append(invalidate, orderInvalidations(cmd.OrderID)...)

	return g.run(ctx, actionSpec{
		action:     domain.ActionRemoveOrderFromWave,
		resourceID: cmd.WaveID,
		rowIDs:     []int64{cmd.OrderID},
		params:     map[string]string{"order_id": strconv.FormatInt(cmd.OrderID, 10)},
		gate: func(ctx context.Context) error {
			wave, err := g.queries.Wave(ctx, cmd.WaveID)
			if err != nil {
				return err
			}
			if !domain.CanModifyWaveOrders(wave) {
				return domain.NotPermitted(domain.ActionRemoveOrderFromWave, "wave is %s", wave.Status)
			}
			if !wave.ContainsOrder(cmd.OrderID) {
				return domain.NotPermitted(domain.ActionRemoveOrderFromWave, "order %d is not in wave %s", cmd.OrderID, wave.WaveNumber)
			}
			return nil
		},
		dispatch: func(ctx context.Context) error {
			return g.outbound.RemoveOrderFromWave(ctx, cmd.WaveID, cmd.OrderID)
		},
		invalidate: invalidate,
	})
}

// CompletePickTask completes a task of a wave; a short quantity is allowed
func (g *ActionGateway) CompletePickTask(ctx context.Context, cmd CompletePickTaskCommand) (*ActionResultDTO, error) {
	var orderID int64

	return g.run(ctx, actionSpec{
		action:     domain.ActionCompletePickTask,
		resourceID: cmd.TaskID,
		params: map[string]string{
			"qty_picked": cmd.QtyPicked.String(),
			"wave_id":    strconv.FormatInt(cmd.WaveID, 10),
		},
		gate: func(ctx context.Context) error {
			tasks, err := g.queries.WaveTasks(ctx, cmd.WaveID)
			if err != nil {
				return err
			}
			for _, t := range tasks {
				if t.ID == cmd.TaskID {
					orderID = t.OrderID
					return domain.ValidatePickCompletion(t, cmd.QtyPicked)
				}
			}
			return domain.NotPermitted(domain.ActionCompletePickTask, "task %d is not part of wave %d", cmd.TaskID, cmd.WaveID)
		},
		dispatch: func(ctx context.Context) error {
			if err := g.outbound.CompletePickTask(ctx, cmd.TaskID, cmd.QtyPicked); err != nil {
				return err
			}
			if g.cache != nil && orderID != 0 {
				if err := g.cache.Invalidate(ctx, OrderKey(orderID)); err != nil {
					g.logger.WithContext(ctx).WithError(err).Warn("Failed to invalidate order after pick", "orderId", orderID)
				}
			}
			return nil
		},
		invalidate: append(waveInvalidations(cmd.WaveID), KeyOutboundOrders),
	})
}

// ReceiveItem validates a receipt against the current inbound order and dispatches it
func (g *ActionGateway) ReceiveItem(ctx context.Context, cmd ReceiveItemCommand) (*ActionResultDTO, error) {
	params := map[string]string{
		"inbound_order_id": strconv.FormatInt(cmd.InboundOrderID, 10),
		"inbound_line_id":  strconv.FormatInt(cmd.InboundLineID, 10),
	}
	if cmd.LocationID != nil {
		params["location_id"] = strconv.FormatInt(*cmd.LocationID, 10)
	}
	if cmd.Quantity != nil {
		params["quantity"] = cmd.Quantity.String()
	}

	return g.run(ctx, actionSpec{
		action:     domain.ActionReceiveItem,
		resourceID: cmd.ShipmentID,
		rowIDs:     []int64{cmd.InboundLineID},
		params:     params,
		gate: func(ctx context.Context) error {
			sub := cmd.submission()
			if err := domain.ValidateReceiveFields(sub); err != nil {
				return err
			}

			order, err := g.queries.InboundOrder(ctx, cmd.InboundOrderID)
			if err != nil {
				return err
			}
			line, ok := order.Line(cmd.InboundLineID)
			if !ok {
				return &domain.FieldError{Field: "inbound_line_id", Message: "line not found on this inbound order"}
			}
			return domain.ValidateReceive(sub, line)
		},
		dispatch: func(ctx context.Context) error {
			return g.inbound.ReceiveItem(ctx, cmd.ShipmentID, domain.ReceiveItemRequest{
				InboundLineID: cmd.InboundLineID,
				LocationID:    *cmd.LocationID,
				Quantity:      *cmd.Quantity,
				LPN:           cmd.LPN,
				BatchNumber:   cmd.BatchNumber,
				ExpiryDate:    cmd.ExpiryDate,
			})
		},
		invalidate: inboundInvalidations(cmd.InboundOrderID),
	})
}

// CloseInboundOrder closes an inbound order that is receiving or received
func (g *ActionGateway) CloseInboundOrder(ctx context.Context, cmd CloseInboundOrderCommand) (*ActionResultDTO, error) {
	return g.run(ctx, actionSpec{
		action:     domain.ActionCloseInboundOrder,
		resourceID: cmd.OrderID,
		gate: func(ctx context.Context) error {
			order, err := g.queries.InboundOrder(ctx, cmd.OrderID)
			if err != nil {
				return err
			}
			if !domain.CanClose(order) {
				return domain.NotPermitted(domain.ActionCloseInboundOrder, "inbound order is %s", order.Status)
			}
			return nil
		},
		dispatch: func(ctx context.Context) error {
			return g.inbound.CloseInboundOrder(ctx, cmd.OrderID)
		},
		invalidate: inboundInvalidations(cmd.OrderID),
	})
}

func (g *ActionGateway) waveGate(waveID int64, action domain.Action, allowed func(*domain.OutboundWave) bool) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		wave, err := g.queries.Wave(ctx, waveID)
		if err != nil {
			return err
		}
		if !allowed(wave) {
			return domain.NotPermitted(action, "wave is %s", wave.Status)
		}
		return nil
	}
}
