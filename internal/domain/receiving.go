package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ReceiveSubmission is an operator's receipt of one inbound line into a location
type ReceiveSubmission struct {
	ShipmentID    int64
	InboundLineID int64
	LocationID    *int64
	Quantity      *decimal.Decimal
	LPN           string
	BatchNumber   string
	ExpiryDate    string
}

// ValidateReceiveFields runs the rules that need no inbound order: quantity,
// then location
func ValidateReceiveFields(sub ReceiveSubmission) error {
	switch {
	case sub.Quantity == nil || sub.Quantity.IsZero():
		return &FieldError{Field: "quantity", Message: "must be at least 1"}
	case sub.Quantity.IsNegative():
		return &FieldError{Field: "quantity", Message: "must be positive"}
	}

	if sub.LocationID == nil || *sub.LocationID == 0 {
		return &FieldError{Field: "location_id", Message: "location required"}
	}
	return nil
}

// ValidateReceive checks a submission against the line it targets. Rules
// run in a fixed order and the first failure is returned.
func ValidateReceive(sub ReceiveSubmission, line *InboundLine) error {
	if err := ValidateReceiveFields(sub); err != nil {
		return err
	}

	if line == nil {
		return &FieldError{Field: "inbound_line_id", Message: "line not found on this inbound order"}
	}

	remaining := RemainingQuantity(*line)
	if sub.Quantity.GreaterThan(remaining) {
		return &FieldError{
			Field:   "quantity",
			Message: fmt.Sprintf("over-receipt not allowed; max is %s", remaining.String()),
		}
	}
	return nil
}

// DefaultQuantity pre-fills the receive form with the remaining quantity, floored at zero
func DefaultQuantity(line InboundLine) decimal.Decimal {
	remaining := RemainingQuantity(line)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// ValidatePickCompletion checks a picked quantity against the task
func ValidatePickCompletion(t PickTask, qtyPicked decimal.Decimal) error {
	if !CanCompleteTask(t) {
		return NotPermitted(ActionCompletePickTask, "task is %s", t.Status)
	}
	if qtyPicked.IsNegative() {
		return &FieldError{Field: "qty_picked", Message: "must not be negative"}
	}
	if qtyPicked.GreaterThan(t.QtyToPick) {
		return &FieldError{
			Field:   "qty_picked",
			Message: fmt.Sprintf("cannot exceed quantity to pick; max is %s", t.QtyToPick.String()),
		}
	}
	return nil
}
