package domain

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// OrderProjection is the derived read model shown next to an outbound order
type OrderProjection struct {
	OrderID            int64       `json:"order_id"`
	Status             OrderStatus `json:"status"`
	HasShortages       bool        `json:"has_shortages"`
	CanRelease         bool        `json:"can_release"`
	CanAcceptShortages bool        `json:"can_accept_shortages"`
	CanAllocate        bool        `json:"can_allocate"`
	ProgressPercent    float64     `json:"progress_percent"`
	TotalOrdered       string      `json:"total_ordered"`
	TotalAllocated     string      `json:"total_allocated"`
	TotalPicked        string      `json:"total_picked"`
	ShortLineIDs       []int64     `json:"short_line_ids"`
}

// HasShortages reports whether any line is under-allocated or flagged PARTIAL/SHORT
func HasShortages(o *OutboundOrder) bool {
	if o == nil {
		return false
	}
	for _, l := range o.Lines {
		if l.IsShort() {
			return true
		}
	}
	return false
}

// CanRelease reports whether a planned order can be released as-is
func CanRelease(o *OutboundOrder) bool {
	return o != nil && o.Status == OrderStatusPlanned && !HasShortages(o)
}

// CanAcceptShortages reports whether a planned order can be released with its shortages
func CanAcceptShortages(o *OutboundOrder) bool {
	return o != nil && o.Status == OrderStatusPlanned && HasShortages(o)
}

// CanAllocate reports whether the order may be (re)allocated
func CanAllocate(o *OutboundOrder) bool {
	return o != nil && (o.Status == OrderStatusCreated || o.Status == OrderStatusPlanned)
}

// CalculateProgress prefers the server value, otherwise derives the
// allocated share of the ordered quantity as a whole percentage.
func CalculateProgress(o *OutboundOrder) float64 {
	if o == nil {
		return 0
	}
	if o.Metrics != nil && o.Metrics.ProgressPercent != nil {
		return *o.Metrics.ProgressPercent
	}

	ordered, allocated, _ := lineTotals(o.Lines)
	if !ordered.IsPositive() {
		return 0
	}
	return allocated.Mul(hundred).Div(ordered).Round(0).InexactFloat64()
}

// Project builds the full read model for an order
func Project(o *OutboundOrder) OrderProjection {
	if o == nil {
		return OrderProjection{ShortLineIDs: []int64{}}
	}

	ordered, allocated, picked := lineTotals(o.Lines)
	short := make([]int64, 0)
	for _, l := range o.Lines {
		if l.IsShort() {
			short = append(short, l.ID)
		}
	}

	return OrderProjection{
		OrderID:            o.ID,
		Status:             o.Status,
		HasShortages:       len(short) > 0,
		CanRelease:         CanRelease(o),
		CanAcceptShortages: CanAcceptShortages(o),
		CanAllocate:        CanAllocate(o),
		ProgressPercent:    CalculateProgress(o),
		TotalOrdered:       ordered.String(),
		TotalAllocated:     allocated.String(),
		TotalPicked:        picked.String(),
		ShortLineIDs:       short,
	}
}

func lineTotals(lines []OutboundLine) (ordered, allocated, picked decimal.Decimal) {
	for _, l := range lines {
		ordered = ordered.Add(l.QtyOrdered)
		allocated = allocated.Add(l.QtyAllocated)
		picked = picked.Add(l.QtyPicked)
	}
	return ordered, allocated, picked
}

// TaskIsShort reports whether a task ended short or completed under quantity
func TaskIsShort(t PickTask) bool {
	if t.Status == TaskStatusShort {
		return true
	}
	return t.Status == TaskStatusCompleted && t.QtyPicked.LessThan(t.QtyToPick)
}

// TaskRemaining is the quantity still to pick, never below zero
func TaskRemaining(t PickTask) decimal.Decimal {
	remaining := t.QtyToPick.Sub(t.QtyPicked)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// CanCompleteTask reports whether the task accepts a completion
func CanCompleteTask(t PickTask) bool {
	return t.Status == TaskStatusAssigned || t.Status == TaskStatusInProgress
}

// InboundLineProjection is the derived view of a single inbound line
type InboundLineProjection struct {
	LineID        int64  `json:"line_id"`
	Expected      string `json:"expected"`
	Received      string `json:"received"`
	Remaining     string `json:"remaining"`
	FullyReceived bool   `json:"fully_received"`
}

// InboundProjection is the derived read model of an inbound order
type InboundProjection struct {
	OrderID         int64                   `json:"order_id"`
	Status          InboundStatus           `json:"status"`
	Lines           []InboundLineProjection `json:"lines"`
	IsFullyReceived bool                    `json:"is_fully_received"`
	CanClose        bool                    `json:"can_close"`
}

// RemainingQuantity is expected minus received. It is not clamped, so an
// over-received line reports a negative remainder.
func RemainingQuantity(l InboundLine) decimal.Decimal {
	return l.ExpectedQuantity.Sub(l.ReceivedQuantity)
}

// IsFullyReceived reports whether every line has nothing left to receive
func IsFullyReceived(o *InboundOrder) bool {
	if o == nil || len(o.Lines) == 0 {
		return false
	}
	for _, l := range o.Lines {
		if RemainingQuantity(l).IsPositive() {
			return false
		}
	}
	return true
}

// CanClose reports whether the inbound order may be closed
func CanClose(o *InboundOrder) bool {
	if o == nil {
		return false
	}
	switch o.Status {
	case InboundStatusReceiving, InboundStatusPartiallyReceived, InboundStatusReceived:
		return true
	}
	return false
}

// ProjectInbound builds the read model for an inbound order
func ProjectInbound(o *InboundOrder) InboundProjection {
	if o == nil {
		return InboundProjection{Lines: []InboundLineProjection{}}
	}

	lines := make([]InboundLineProjection, 0, len(o.Lines))
	for _, l := range o.Lines {
		remaining := RemainingQuantity(l)
		lines = append(lines, InboundLineProjection{
			LineID:        l.ID,
			Expected:      l.ExpectedQuantity.String(),
			Received:      l.ReceivedQuantity.String(),
			Remaining:     remaining.String(),
			FullyReceived: !remaining.IsPositive(),
		})
	}

	return InboundProjection{
		OrderID:         o.ID,
		Status:          o.Status,
		Lines:           lines,
		IsFullyReceived: IsFullyReceived(o),
		CanClose:        CanClose(o),
	}
}
