package application

import (
	"github.com/shopspring/decimal"

	"github.com/wms-platform/fulfillment-console/internal/domain"
)

// ReleaseOrderCommand releases a fully allocated planned order
type ReleaseOrderCommand struct {
	OrderID int64
}

// AcceptShortagesCommand releases a planned order with its shortages
type AcceptShortagesCommand struct {
	OrderID int64
}

// AllocateOrderCommand (re)allocates a single order
type AllocateOrderCommand struct {
	OrderID int64
}

// AllocateWaveCommand allocates every order of a planning wave
type AllocateWaveCommand struct {
	WaveID     int64
	StrategyID *int64
}

// ReleaseWaveCommand releases an allocated wave to the floor
type ReleaseWaveCommand struct {
	WaveID int64
}

// AddOrdersToWaveCommand adds orders to a planning wave
type AddOrdersToWaveCommand struct {
	WaveID   int64
	OrderIDs []int64
}

// RemoveOrderFromWaveCommand removes one order from a planning wave
type RemoveOrderFromWaveCommand struct {
	WaveID  int64
	OrderID int64
}

// CompletePickTaskCommand completes a pick task, possibly short
type CompletePickTaskCommand struct {
	WaveID    int64
	TaskID    int64
	QtyPicked decimal.Decimal
}

// ReceiveItemCommand receives quantity of one inbound line into a location
type ReceiveItemCommand struct {
	InboundOrderID int64
	ShipmentID     int64
	InboundLineID  int64
	LocationID     *int64
	Quantity       *decimal.Decimal
	LPN            string
	BatchNumber    string
	ExpiryDate     string
}

func (c ReceiveItemCommand) submission() domain.ReceiveSubmission {
	return domain.ReceiveSubmission{
		ShipmentID:    c.ShipmentID,
		InboundLineID: c.InboundLineID,
		LocationID:    c.LocationID,
		Quantity:      c.Quantity,
		LPN:           c.LPN,
		BatchNumber:   c.BatchNumber,
		ExpiryDate:    c.ExpiryDate,
	}
}

// CloseInboundOrderCommand closes an inbound order
type CloseInboundOrderCommand struct {
	OrderID int64
}

// ListActionsQuery filters the action log
type ListActionsQuery struct {
	Action       string
	ResourceType string
	ResourceID   int64
	Outcome      string
	Limit        int
}
