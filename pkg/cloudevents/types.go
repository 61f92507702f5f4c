package cloudevents

import (
	"time"
)

// Event types published by the console, one per gateway action
const (
	OrderReleased         = "wms.console.order-released"
	OrderShortageAccepted = "wms.console.order-shortages-accepted"
	OrderAllocated        = "wms.console.order-allocated"
	WaveAllocated         = "wms.console.wave-allocated"
	WaveReleased          = "wms.console.wave-released"
	WaveOrdersAdded       = "wms.console.wave-orders-added"
	WaveOrderRemoved      = "wms.console.wave-order-removed"
	PickTaskCompleted     = "wms.console.pick-task-completed"
	ItemReceived          = "wms.console.item-received"
	InboundOrderClosed    = "wms.console.inbound-order-closed"
)

// SourceConsole is the CloudEvents source of every console event
const SourceConsole = "/wms/fulfillment-console"

// WMSCloudEvent represents a CloudEvents v1.0 compliant event for WMS
type WMSCloudEvent struct {
	SpecVersion     string      `json:"specversion"`
	Type            string      `json:"type"`
	Source          string      `json:"source"`
	Subject         string      `json:"subject,omitempty"`
	ID              string      `json:"id"`
	Time            time.Time   `json:"time"`
	DataContentType string      `json:"datacontenttype"`
	Data            interface{} `json:"data"`

	// WMS extensions
	CorrelationID string `json:"wmscorrelationid,omitempty"`
	WaveNumber    string `json:"wmswavenumber,omitempty"`
	OrderID       string `json:"wmsorderid,omitempty"`

	// W3C trace context
	TraceParent string `json:"traceparent,omitempty"`
	TraceState  string `json:"tracestate,omitempty"`
}

// ActionEventData is the payload of a console action event
type ActionEventData struct {
	Action       string            `json:"action"`
	ResourceType string            `json:"resourceType"`
	ResourceID   string            `json:"resourceId"`
	Operator     string            `json:"operator,omitempty"`
	RequestID    string            `json:"requestId,omitempty"`
	Params       map[string]string `json:"params,omitempty"`
	CompletedAt  time.Time         `json:"completedAt"`
}
