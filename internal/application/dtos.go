package application

import (
	"time"

	"github.com/wms-platform/fulfillment-console/internal/domain"
)

// OrderDetailDTO is an outbound order with its projection
type OrderDetailDTO struct {
	Order      domain.OutboundOrder   `json:"order"`
	Projection domain.OrderProjection `json:"projection"`
}

// OrderSummaryDTO is one row of the order list
type OrderSummaryDTO struct {
	ID                 int64              `json:"id"`
	OrderNumber        string             `json:"order_number"`
	Status             domain.OrderStatus `json:"status"`
	WaveID             *int64             `json:"wave_id"`
	ProgressPercent    float64            `json:"progress_percent"`
	HasShortages       bool               `json:"has_shortages"`
	CanRelease         bool               `json:"can_release"`
	CanAcceptShortages bool               `json:"can_accept_shortages"`
}

// WaveSummaryDTO is one row of the wave list
type WaveSummaryDTO struct {
	ID         int64             `json:"id"`
	WaveNumber string            `json:"wave_number"`
	Status     domain.WaveStatus `json:"status"`
	OrderCount int               `json:"order_count"`
	ReadOnly   bool              `json:"read_only"`
}

// InboundDetailDTO is an inbound order with its projection and form defaults
type InboundDetailDTO struct {
	Order             domain.InboundOrder      `json:"order"`
	Projection        domain.InboundProjection `json:"projection"`
	DefaultQuantities map[int64]string         `json:"default_quantities"`
}

// ActionResultDTO is returned for a successful action
type ActionResultDTO struct {
	Action       domain.Action       `json:"action"`
	ResourceType domain.ResourceType `json:"resource_type"`
	ResourceID   int64               `json:"resource_id"`
	Outcome      domain.Outcome      `json:"outcome"`
	CompletedAt  time.Time           `json:"completed_at"`
}
