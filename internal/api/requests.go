package api

import (
	"github.com/shopspring/decimal"

	"github.com/wms-platform/fulfillment-console/internal/application"
)

// AllocateWaveRequest is the body of a wave allocation. An empty body uses
// the server's default strategy.
type AllocateWaveRequest struct {
	StrategyID *int64 `json:"strategy_id" binding:"omitempty,gt=0"`
}

// AddOrdersRequest is the body for adding orders to a wave
type AddOrdersRequest struct {
	OrderIDs []int64 `json:"order_ids" binding:"required,min=1,dive,gt=0"`
}

// CompletePickTaskRequest is the body for completing a pick task
type CompletePickTaskRequest struct {
	WaveID    int64            `json:"wave_id" binding:"required,gt=0"`
	QtyPicked *decimal.Decimal `json:"qty_picked" binding:"required"`
}

// ReceiveItemRequest is the body for receiving against a shipment.
// Quantity and location are checked by the receiving rules, not by binding.
type ReceiveItemRequest struct {
	InboundOrderID int64            `json:"inbound_order_id" binding:"required,gt=0"`
	InboundLineID  int64            `json:"inbound_line_id" binding:"required,gt=0"`
	LocationID     *int64           `json:"location_id"`
	Quantity       *decimal.Decimal `json:"quantity"`
	LPN            string           `json:"lpn" binding:"omitempty,lpn"`
	BatchNumber    string           `json:"batch_number" binding:"omitempty,batch"`
	ExpiryDate     string           `json:"expiry_date" binding:"omitempty,iso_date"`
}

func (r ReceiveItemRequest) command(shipmentID int64) application.ReceiveItemCommand {
	return application.ReceiveItemCommand{
		InboundOrderID: r.InboundOrderID,
		ShipmentID:     shipmentID,
		InboundLineID:  r.InboundLineID,
		LocationID:     r.LocationID,
		Quantity:       r.Quantity,
		LPN:            r.LPN,
		BatchNumber:    r.BatchNumber,
		ExpiryDate:     r.ExpiryDate,
	}
}
