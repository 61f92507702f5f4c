package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// OutboundAPI is the outbound half of the WMS REST API
type OutboundAPI interface {
	ListOrders(ctx context.Context) ([]OutboundOrder, error)
	GetOrder(ctx context.Context, orderID int64) (*OutboundOrder, error)
	ReleaseOrder(ctx context.Context, orderID int64) error
	AcceptShortages(ctx context.Context, orderID int64) error
	AllocateOrder(ctx context.Context, orderID int64) error

	ListWaves(ctx context.Context) ([]OutboundWave, error)
	GetWave(ctx context.Context, waveID int64) (*OutboundWave, error)
	GetWaveTasks(ctx context.Context, waveID int64) ([]PickTask, error)
	AllocateWave(ctx context.Context, waveID int64, strategyID *int64) error
	ReleaseWave(ctx context.Context, waveID int64) error
	AddOrdersToWave(ctx context.Context, waveID int64, orderIDs []int64) error
	RemoveOrderFromWave(ctx context.Context, waveID, orderID int64) error

	CompletePickTask(ctx context.Context, taskID int64, qtyPicked decimal.Decimal) error
	ListAllocationStrategies(ctx context.Context) ([]AllocationStrategy, error)
}

// InboundAPI is the inbound half of the WMS REST API
type InboundAPI interface {
	ListInboundOrders(ctx context.Context) ([]InboundOrder, error)
	GetInboundOrder(ctx context.Context, orderID int64) (*InboundOrder, error)
	ReceiveItem(ctx context.Context, shipmentID int64, req ReceiveItemRequest) error
	CloseInboundOrder(ctx context.Context, orderID int64) error
}

// ReceiveItemRequest is the body of a receive-item call
type ReceiveItemRequest struct {
	InboundLineID int64
	LocationID    int64
	Quantity      decimal.Decimal
	LPN           string
	BatchNumber   string
	ExpiryDate    string
}

// ActionLog persists gateway attempts
type ActionLog interface {
	Append(ctx context.Context, record *ActionRecord) error
	List(ctx context.Context, filter ActionLogFilter) ([]*ActionRecord, error)
}

// ActionEvent describes a successful action for publication
type ActionEvent struct {
	Action     Action
	ResourceID int64
	Operator   string
	RequestID  string
	Params     map[string]string
}

// EventPublisher publishes successful actions
type EventPublisher interface {
	PublishAction(ctx context.Context, event ActionEvent) error
}
