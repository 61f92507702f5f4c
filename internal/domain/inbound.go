package domain

import (
	"github.com/shopspring/decimal"
)

// InboundStatus is the server-owned lifecycle status of an inbound order
type InboundStatus string

const (
	InboundStatusDraft             InboundStatus = "DRAFT"
	InboundStatusConfirmed         InboundStatus = "CONFIRMED"
	InboundStatusReceiving         InboundStatus = "RECEIVING"
	InboundStatusPartiallyReceived InboundStatus = "PARTIALLY_RECEIVED"
	InboundStatusReceived          InboundStatus = "RECEIVED"
	InboundStatusClosed            InboundStatus = "CLOSED"
	InboundStatusCancelled         InboundStatus = "CANCELLED"
)

// InboundOrder is an expected receipt as served by the REST API
type InboundOrder struct {
	ID          int64             `json:"id"`
	OrderNumber string            `json:"order_number"`
	Status      InboundStatus     `json:"status"`
	Lines       []InboundLine     `json:"lines"`
	Shipments   []InboundShipment `json:"shipments"`
}

// InboundLine is one expected product line
type InboundLine struct {
	ID               int64           `json:"id"`
	ProductID        int64           `json:"product_id"`
	ExpectedQuantity decimal.Decimal `json:"expected_quantity"`
	ReceivedQuantity decimal.Decimal `json:"received_quantity"`
}

// InboundShipment is a physical arrival against an inbound order
type InboundShipment struct {
	ID             int64  `json:"id"`
	ShipmentNumber string `json:"shipment_number"`
	Status         string `json:"status"`
}

// Line returns the line with the given id
func (o *InboundOrder) Line(lineID int64) (*InboundLine, bool) {
	if o == nil {
		return nil, false
	}
	for i := range o.Lines {
		if o.Lines[i].ID == lineID {
			return &o.Lines[i], true
		}
	}
	return nil, false
}

// HasShipment reports whether shipmentID belongs to the order
func (o *InboundOrder) HasShipment(shipmentID int64) bool {
	if o == nil {
		return false
	}
	for _, s := range o.Shipments {
		if s.ID == shipmentID {
			return true
		}
	}
	return false
}
