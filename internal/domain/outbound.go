package domain

import (
	"github.com/shopspring/decimal"
)

// OrderStatus is the server-owned lifecycle status of an outbound order
type OrderStatus string

const (
	OrderStatusCreated   OrderStatus = "CREATED"
	OrderStatusPlanned   OrderStatus = "PLANNED"
	OrderStatusReleased  OrderStatus = "RELEASED"
	OrderStatusPicking   OrderStatus = "PICKING"
	OrderStatusPicked    OrderStatus = "PICKED"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// LineStatus is the allocation status of an outbound line
type LineStatus string

const (
	LineStatusPending   LineStatus = "PENDING"
	LineStatusAllocated LineStatus = "ALLOCATED"
	LineStatusPartial   LineStatus = "PARTIAL"
	LineStatusShort     LineStatus = "SHORT"
	LineStatusPicked    LineStatus = "PICKED"
)

// TaskStatus is the status of a pick task
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "PENDING"
	TaskStatusAssigned   TaskStatus = "ASSIGNED"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusCompleted  TaskStatus = "COMPLETED"
	TaskStatusShort      TaskStatus = "SHORT"
)

// WaveStatus is the server-owned lifecycle status of an outbound wave
type WaveStatus string

const (
	WaveStatusPlanning   WaveStatus = "PLANNING"
	WaveStatusAllocated  WaveStatus = "ALLOCATED"
	WaveStatusReleased   WaveStatus = "RELEASED"
	WaveStatusInProgress WaveStatus = "IN_PROGRESS"
	WaveStatusCompleted  WaveStatus = "COMPLETED"
	WaveStatusCancelled  WaveStatus = "CANCELLED"
)

// OutboundOrder is the WMS outbound order as served by the REST API
type OutboundOrder struct {
	ID          int64          `json:"id"`
	OrderNumber string         `json:"order_number"`
	Status      OrderStatus    `json:"status"`
	Lines       []OutboundLine `json:"lines"`
	PickTasks   []PickTask     `json:"pick_tasks,omitempty"`
	WaveID      *int64         `json:"wave_id"`
	Metrics     *OrderMetrics  `json:"metrics,omitempty"`
}

// OrderMetrics carries server-computed figures
type OrderMetrics struct {
	ProgressPercent *float64 `json:"progress_percent,omitempty"`
}

// OutboundLine is one product line of an outbound order
type OutboundLine struct {
	ID           int64           `json:"id"`
	ProductID    int64           `json:"product_id"`
	QtyOrdered   decimal.Decimal `json:"qty_ordered"`
	QtyAllocated decimal.Decimal `json:"qty_allocated"`
	QtyPicked    decimal.Decimal `json:"qty_picked"`
	LineStatus   LineStatus      `json:"line_status"`
}

// IsShort reports whether the line is under-allocated or flagged short by the server
func (l OutboundLine) IsShort() bool {
	if l.LineStatus == LineStatusPartial || l.LineStatus == LineStatusShort {
		return true
	}
	return l.QtyAllocated.LessThan(l.QtyOrdered)
}

// PickTask directs a picker to move a quantity from a source location
type PickTask struct {
	ID             int64           `json:"id"`
	Status         TaskStatus      `json:"status"`
	QtyToPick      decimal.Decimal `json:"qty_to_pick"`
	QtyPicked      decimal.Decimal `json:"qty_picked"`
	OrderID        int64           `json:"order_id"`
	WaveID         *int64          `json:"wave_id,omitempty"`
	FromLocationID *int64          `json:"from_location_id,omitempty"`
}

// OutboundWave groups outbound orders that are allocated and released together
type OutboundWave struct {
	ID         int64           `json:"id"`
	WaveNumber string          `json:"wave_number"`
	Status     WaveStatus      `json:"status"`
	Orders     []OutboundOrder `json:"orders"`
	PickTasks  []PickTask      `json:"pick_tasks,omitempty"`
}

// AllocationStrategy is a server-side allocation rule selectable when allocating a wave
type AllocationStrategy struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	IsDefault bool   `json:"is_default"`
}

// DefaultStrategy returns the strategy flagged as default, if any
func DefaultStrategy(strategies []AllocationStrategy) (AllocationStrategy, bool) {
	for _, s := range strategies {
		if s.IsDefault {
			return s, true
		}
	}
	return AllocationStrategy{}, false
}

// CanAllocateWave reports whether wave allocation is allowed
func CanAllocateWave(w *OutboundWave) bool {
	return w != nil && w.Status == WaveStatusPlanning
}

// CanReleaseWave reports whether wave release is allowed
func CanReleaseWave(w *OutboundWave) bool {
	return w != nil && w.Status == WaveStatusAllocated
}

// CanModifyWaveOrders reports whether orders may be added to or removed from the wave
func CanModifyWaveOrders(w *OutboundWave) bool {
	return w != nil && w.Status == WaveStatusPlanning
}

// ContainsOrder reports whether orderID is part of the wave
func (w *OutboundWave) ContainsOrder(orderID int64) bool {
	if w == nil {
		return false
	}
	for _, o := range w.Orders {
		if o.ID == orderID {
			return true
		}
	}
	return false
}
