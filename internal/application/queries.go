package application

import (
	"context"

	"github.com/wms-platform/fulfillment-console/internal/domain"
	apperrors "github.com/wms-platform/fulfillment-console/pkg/errors"
	"github.com/wms-platform/fulfillment-console/pkg/logging"
)

// QueryService serves read models through the query cache
type QueryService struct {
	outbound  domain.OutboundAPI
	inbound   domain.InboundAPI
	cache     QueryCache
	actionLog domain.ActionLog
	logger    *logging.Logger
}

// NewQueryService creates a new QueryService
func NewQueryService(
	outbound domain.OutboundAPI,
	inbound domain.InboundAPI,
	cache QueryCache,
	actionLog domain.ActionLog,
	logger *logging.Logger,
) *QueryService {
	return &QueryService{
		outbound:  outbound,
		inbound:   inbound,
		cache:     cache,
		actionLog: actionLog,
		logger:    logger.WithComponent("queries"),
	}
}

// ListOrders returns outbound order rows with their flags
func (s *QueryService) ListOrders(ctx context.Context) ([]OrderSummaryDTO, error) {
	orders, err := cached(ctx, s.cache, KeyOutboundOrders, s.outbound.ListOrders)
	if err != nil {
		return nil, queryError("outbound orders", 0, err)
	}
	return ToOrderSummaryDTOs(orders), nil
}

// Order returns the raw outbound order
func (s *QueryService) Order(ctx context.Context, orderID int64) (*domain.OutboundOrder, error) {
	order, err := cached(ctx, s.cache, OrderKey(orderID), func(ctx context.Context) (*domain.OutboundOrder, error) {
		return s.outbound.GetOrder(ctx, orderID)
	})
	if err != nil {
		return nil, queryError("outbound order", orderID, err)
	}
	if order == nil {
		return nil, apperrors.ErrNotFound("outbound order")
	}
	return order, nil
}

// GetOrder returns an outbound order with its projection
func (s *QueryService) GetOrder(ctx context.Context, orderID int64) (*OrderDetailDTO, error) {
	order, err := s.Order(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return ToOrderDetailDTO(order), nil
}

// ListWaves returns wave rows
func (s *QueryService) ListWaves(ctx context.Context) ([]WaveSummaryDTO, error) {
	waves, err := cached(ctx, s.cache, KeyOutboundWaves, s.outbound.ListWaves)
	if err != nil {
		return nil, queryError("outbound waves", 0, err)
	}
	return ToWaveSummaryDTOs(waves), nil
}

// Wave returns the raw wave
func (s *QueryService) Wave(ctx context.Context, waveID int64) (*domain.OutboundWave, error) {
	wave, err := cached(ctx, s.cache, WaveKey(waveID), func(ctx context.Context) (*domain.OutboundWave, error) {
		return s.outbound.GetWave(ctx, waveID)
	})
	if err != nil {
		return nil, queryError("outbound wave", waveID, err)
	}
	if wave == nil {
		return nil, apperrors.ErrNotFound("outbound wave")
	}
	return wave, nil
}

// WaveTasks returns the pick tasks of a wave
func (s *QueryService) WaveTasks(ctx context.Context, waveID int64) ([]domain.PickTask, error) {
	tasks, err := cached(ctx, s.cache, WaveTasksKey(waveID), func(ctx context.Context) ([]domain.PickTask, error) {
		return s.outbound.GetWaveTasks(ctx, waveID)
	})
	if err != nil {
		return nil, queryError("wave tasks", waveID, err)
	}
	if tasks == nil {
		tasks = []domain.PickTask{}
	}
	return tasks, nil
}

// GetWaveView composes the wave screen. Tasks are only fetched once the
// wave has left PLANNING, since none exist before allocation.
func (s *QueryService) GetWaveView(ctx context.Context, waveID int64) (*domain.WaveView, error) {
	wave, err := s.Wave(ctx, waveID)
	if err != nil {
		return nil, err
	}

	var tasks []domain.PickTask
	if wave.Status != domain.WaveStatusPlanning {
		tasks, err = s.WaveTasks(ctx, waveID)
		if err != nil {
			return nil, err
		}
	}

	view := domain.ComposeWaveView(wave, nil, tasks)
	return &view, nil
}

// ListAllocationStrategies returns the strategies offered when allocating a wave
func (s *QueryService) ListAllocationStrategies(ctx context.Context) ([]domain.AllocationStrategy, error) {
	strategies, err := cached(ctx, s.cache, KeyAllocationStrategies, s.outbound.ListAllocationStrategies)
	if err != nil {
		return nil, queryError("allocation strategies", 0, err)
	}
	if strategies == nil {
		strategies = []domain.AllocationStrategy{}
	}
	return strategies, nil
}

// ListInboundOrders returns inbound orders
func (s *QueryService) ListInboundOrders(ctx context.Context) ([]domain.InboundOrder, error) {
	orders, err := cached(ctx, s.cache, KeyInboundOrders, s.inbound.ListInboundOrders)
	if err != nil {
		return nil, queryError("inbound orders", 0, err)
	}
	if orders == nil {
		orders = []domain.InboundOrder{}
	}
	return orders, nil
}

// InboundOrder returns the raw inbound order
func (s *QueryService) InboundOrder(ctx context.Context, orderID int64) (*domain.InboundOrder, error) {
	order, err := cached(ctx, s.cache, InboundOrderKey(orderID), func(ctx context.Context) (*domain.InboundOrder, error) {
		return s.inbound.GetInboundOrder(ctx, orderID)
	})
	if err != nil {
		return nil, queryError("inbound order", orderID, err)
	}
	if order == nil {
		return nil, apperrors.ErrNotFound("inbound order")
	}
	return order, nil
}

// GetInboundOrder returns an inbound order with its projection and receive defaults
func (s *QueryService) GetInboundOrder(ctx context.Context, orderID int64) (*InboundDetailDTO, error) {
	order, err := s.InboundOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return ToInboundDetailDTO(order), nil
}

// ListActions returns recent action log entries, newest first
func (s *QueryService) ListActions(ctx context.Context, query ListActionsQuery) ([]*domain.ActionRecord, error) {
	if s.actionLog == nil {
		return []*domain.ActionRecord{}, nil
	}

	limit := query.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	records, err := s.actionLog.List(ctx, domain.ActionLogFilter{
		Action:       domain.Action(query.Action),
		ResourceType: domain.ResourceType(query.ResourceType),
		ResourceID:   query.ResourceID,
		Outcome:      domain.Outcome(query.Outcome),
		Limit:        limit,
	})
	if err != nil {
		s.logger.WithError(err).Error("Failed to list action log")
		return nil, apperrors.ErrInternal("failed to list actions").Wrap(err)
	}
	if records == nil {
		records = []*domain.ActionRecord{}
	}
	return records, nil
}
