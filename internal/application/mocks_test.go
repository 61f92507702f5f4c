package application

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/wms-platform/fulfillment-console/internal/domain"
)

type MockOutboundAPI struct {
	mock.Mock
}

func (m *MockOutboundAPI) ListOrders(ctx context.Context) ([]domain.OutboundOrder, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.OutboundOrder), args.Error(1)
}

func (m *MockOutboundAPI) GetOrder(ctx context.Context, orderID int64) (*domain.OutboundOrder, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OutboundOrder), args.Error(1)
}

func (m *MockOutboundAPI) ReleaseOrder(ctx context.Context, orderID int64) error {
	return m.Called(ctx, orderID).Error(0)
}

func (m *MockOutboundAPI) AcceptShortages(ctx context.Context, orderID int64) error {
	return m.Called(ctx, orderID).Error(0)
}

func (m *MockOutboundAPI) AllocateOrder(ctx context.Context, orderID int64) error {
	return m.Called(ctx, orderID).Error(0)
}

func (m *MockOutboundAPI) ListWaves(ctx context.Context) ([]domain.OutboundWave, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.OutboundWave), args.Error(1)
}

func (m *MockOutboundAPI) GetWave(ctx context.Context, waveID int64) (*domain.OutboundWave, error) {
	args := m.Called(ctx, waveID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OutboundWave), args.Error(1)
}

func (m *MockOutboundAPI) GetWaveTasks(ctx context.Context, waveID int64) ([]domain.PickTask, error) {
	args := m.Called(ctx, waveID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PickTask), args.Error(1)
}

func (m *MockOutboundAPI) AllocateWave(ctx context.Context, waveID int64, strategyID *int64) error {
	return m.Called(ctx, waveID, strategyID).Error(0)
}

func (m *MockOutboundAPI) ReleaseWave(ctx context.Context, waveID int64) error {
	return m.Called(ctx, waveID).Error(0)
}

func (m *MockOutboundAPI) AddOrdersToWave(ctx context.Context, waveID int64, orderIDs []int64) error {
	return m.Called(ctx, waveID, orderIDs).Error(0)
}

func (m *MockOutboundAPI) RemoveOrderFromWave(ctx context.Context, waveID, orderID int64) error {
	return m.Called(ctx, waveID, orderID).Error(0)
}

func (m *MockOutboundAPI) CompletePickTask(ctx context.Context, taskID int64, qtyPicked decimal.Decimal) error {
	return m.Called(ctx, taskID, qtyPicked).Error(0)
}

func (m *MockOutboundAPI) ListAllocationStrategies(ctx context.Context) ([]domain.AllocationStrategy, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AllocationStrategy), args.Error(1)
}

type MockInboundAPI struct {
	mock.Mock
}

func (m *MockInboundAPI) ListInboundOrders(ctx context.Context) ([]domain.InboundOrder, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.InboundOrder), args.Error(1)
}

func (m *MockInboundAPI) GetInboundOrder(ctx context.Context, orderID int64) (*domain.InboundOrder, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InboundOrder), args.Error(1)
}

func (m *MockInboundAPI) ReceiveItem(ctx context.Context, shipmentID int64, req domain.ReceiveItemRequest) error {
	return m.Called(ctx, shipmentID, req).Error(0)
}

func (m *MockInboundAPI) CloseInboundOrder(ctx context.Context, orderID int64) error {
	return m.Called(ctx, orderID).Error(0)
}

type MockActionLog struct {
	mock.Mock
}

func (m *MockActionLog) Append(ctx context.Context, record *domain.ActionRecord) error {
	return m.Called(ctx, record).Error(0)
}

func (m *MockActionLog) List(ctx context.Context, filter domain.ActionLogFilter) ([]*domain.ActionRecord, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ActionRecord), args.Error(1)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishAction(ctx context.Context, event domain.ActionEvent) error {
	return m.Called(ctx, event).Error(0)
}

// recordingCache passes reads through and remembers invalidated keys
type recordingCache struct {
	mu          sync.Mutex
	entries     map[string][]byte
	invalidated []string
}

func newRecordingCache() *recordingCache {
	return &recordingCache{entries: make(map[string][]byte)}
}

func (c *recordingCache) Load(ctx context.Context, key string, fetch func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	c.mu.Lock()
	if raw, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return raw, nil
	}
	c.mu.Unlock()

	raw, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = raw
	c.mu.Unlock()
	return raw, nil
}

func (c *recordingCache) Invalidate(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, root := range keys {
		c.invalidated = append(c.invalidated, root)
		for k := range c.entries {
			if KeyCovers(root, k) {
				delete(c.entries, k)
			}
		}
	}
	return nil
}

func (c *recordingCache) invalidatedKeys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.invalidated...)
}
