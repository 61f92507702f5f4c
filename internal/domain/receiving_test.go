package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func qty(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func loc(id int64) *int64 {
	return &id
}

func TestValidateReceive(t *testing.T) {
	inbound := &InboundLine{ID: 10, ExpectedQuantity: dec("50"), ReceivedQuantity: dec("45")}

	tests := []struct {
		name        string
		sub         ReceiveSubmission
		line        *InboundLine
		expectField string
		expectMsg   string
	}{
		{
			name: "Remaining boundary accepted",
			sub:  ReceiveSubmission{InboundLineID: 10, LocationID: loc(7), Quantity: qty("5")},
			line: inbound,
		},
		{
			name: "Below remaining accepted",
			sub:  ReceiveSubmission{InboundLineID: 10, LocationID: loc(7), Quantity: qty("1")},
			line: inbound,
		},
		{
			name: "Fractional below remaining accepted",
			sub:  ReceiveSubmission{InboundLineID: 10, LocationID: loc(7), Quantity: qty("4.99")},
			line: inbound,
		},
		{
			name:        "Over-receipt by one",
			sub:         ReceiveSubmission{InboundLineID: 10, LocationID: loc(7), Quantity: qty("6")},
			line:        inbound,
			expectField: "quantity",
			expectMsg:   "over-receipt not allowed; max is 5",
		},
		{
			name:        "Over-receipt by a hundredth",
			sub:         ReceiveSubmission{InboundLineID: 10, LocationID: loc(7), Quantity: qty("5.01")},
			line:        inbound,
			expectField: "quantity",
			expectMsg:   "over-receipt not allowed; max is 5",
		},
		{
			name:        "Zero quantity",
			sub:         ReceiveSubmission{InboundLineID: 10, LocationID: loc(7), Quantity: qty("0")},
			line:        inbound,
			expectField: "quantity",
			expectMsg:   "must be at least 1",
		},
		{
			name:        "Missing quantity",
			sub:         ReceiveSubmission{InboundLineID: 10, LocationID: loc(7)},
			line:        inbound,
			expectField: "quantity",
			expectMsg:   "must be at least 1",
		},
		{
			name:        "Negative quantity",
			sub:         ReceiveSubmission{InboundLineID: 10, LocationID: loc(7), Quantity: qty("-2")},
			line:        inbound,
			expectField: "quantity",
			expectMsg:   "must be positive",
		},
		{
			name:        "Quantity checked before location",
			sub:         ReceiveSubmission{InboundLineID: 10, Quantity: qty("-2")},
			line:        inbound,
			expectField: "quantity",
			expectMsg:   "must be positive",
		},
		{
			name:        "Missing location",
			sub:         ReceiveSubmission{InboundLineID: 10, Quantity: qty("3")},
			line:        inbound,
			expectField: "location_id",
			expectMsg:   "location required",
		},
		{
			name:        "Zero location",
			sub:         ReceiveSubmission{InboundLineID: 10, LocationID: loc(0), Quantity: qty("3")},
			line:        inbound,
			expectField: "location_id",
			expectMsg:   "location required",
		},
		{
			name:        "Location checked before over-receipt",
			sub:         ReceiveSubmission{InboundLineID: 10, Quantity: qty("60")},
			line:        inbound,
			expectField: "location_id",
			expectMsg:   "location required",
		},
		{
			name:        "Unknown line",
			sub:         ReceiveSubmission{InboundLineID: 99, LocationID: loc(7), Quantity: qty("1")},
			line:        nil,
			expectField: "inbound_line_id",
			expectMsg:   "line not found on this inbound order",
		},
		{
			name:        "Already over-received line",
			sub:         ReceiveSubmission{InboundLineID: 10, LocationID: loc(7), Quantity: qty("1")},
			line:        &InboundLine{ID: 10, ExpectedQuantity: dec("5"), ReceivedQuantity: dec("7")},
			expectField: "quantity",
			expectMsg:   "over-receipt not allowed; max is -2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateReceive(tt.sub, tt.line)
			if tt.expectField == "" {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidInput))

			var fieldErr *FieldError
			require.True(t, errors.As(err, &fieldErr))
			assert.Equal(t, tt.expectField, fieldErr.Field)
			assert.Equal(t, tt.expectMsg, fieldErr.Message)
		})
	}
}

func TestValidateReceiveFields(t *testing.T) {
	tests := []struct {
		name        string
		sub         ReceiveSubmission
		expectField string
		expectMsg   string
	}{
		{name: "Valid", sub: ReceiveSubmission{Quantity: qty("3"), LocationID: loc(7)}},
		{name: "Zero quantity", sub: ReceiveSubmission{Quantity: qty("0"), LocationID: loc(7)}, expectField: "quantity", expectMsg: "must be at least 1"},
		{name: "Negative quantity", sub: ReceiveSubmission{Quantity: qty("-1")}, expectField: "quantity", expectMsg: "must be positive"},
		{name: "Missing location", sub: ReceiveSubmission{Quantity: qty("1")}, expectField: "location_id", expectMsg: "location required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateReceiveFields(tt.sub)
			if tt.expectField == "" {
				assert.NoError(t, err)
				return
			}

			var fieldErr *FieldError
			require.True(t, errors.As(err, &fieldErr))
			assert.Equal(t, tt.expectField, fieldErr.Field)
			assert.Equal(t, tt.expectMsg, fieldErr.Message)
		})
	}
}

func TestDefaultQuantity(t *testing.T) {
	tests := []struct {
		name     string
		line     InboundLine
		expected string
	}{
		{"Partially received", InboundLine{ExpectedQuantity: dec("50"), ReceivedQuantity: dec("45")}, "5"},
		{"Nothing received", InboundLine{ExpectedQuantity: dec("12.5"), ReceivedQuantity: decimal.Zero}, "12.5"},
		{"Fully received", InboundLine{ExpectedQuantity: dec("5"), ReceivedQuantity: dec("5")}, "0"},
		{"Over-received floors at zero", InboundLine{ExpectedQuantity: dec("5"), ReceivedQuantity: dec("8")}, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, dec(tt.expected).Equal(DefaultQuantity(tt.line)), "got %s", DefaultQuantity(tt.line))
		})
	}
}

func TestRemainingQuantity_Unclamped(t *testing.T) {
	l := InboundLine{ExpectedQuantity: dec("5"), ReceivedQuantity: dec("8")}
	assert.Equal(t, "-3", RemainingQuantity(l).String())
}

func TestValidatePickCompletion(t *testing.T) {
	assigned := PickTask{ID: 5, Status: TaskStatusAssigned, QtyToPick: dec("4")}

	tests := []struct {
		name         string
		task         PickTask
		picked       string
		notPermitted bool
		invalid      bool
	}{
		{name: "Full quantity", task: assigned, picked: "4"},
		{name: "Short quantity", task: assigned, picked: "1"},
		{name: "Zero quantity", task: assigned, picked: "0"},
		{name: "Negative quantity", task: assigned, picked: "-1", invalid: true},
		{name: "Over quantity", task: assigned, picked: "4.5", invalid: true},
		{name: "Completed task", task: PickTask{Status: TaskStatusCompleted, QtyToPick: dec("4")}, picked: "4", notPermitted: true},
		{name: "Pending task", task: PickTask{Status: TaskStatusPending, QtyToPick: dec("4")}, picked: "4", notPermitted: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePickCompletion(tt.task, dec(tt.picked))
			switch {
			case tt.notPermitted:
				assert.True(t, errors.Is(err, ErrActionNotPermitted))
			case tt.invalid:
				assert.True(t, errors.Is(err, ErrInvalidInput))
			default:
				assert.NoError(t, err)
			}
		})
	}
}
