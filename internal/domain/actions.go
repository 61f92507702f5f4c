package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Action names a state-changing operation dispatched by the gateway
type Action string

const (
	ActionReleaseOrder        Action = "release-order"
	ActionAcceptShortages     Action = "accept-shortages"
	ActionAllocateOrder       Action = "allocate-order"
	ActionAllocateWave        Action = "allocate-wave"
	ActionReleaseWave         Action = "release-wave"
	ActionAddOrdersToWave     Action = "add-orders-to-wave"
	ActionRemoveOrderFromWave Action = "remove-order-from-wave"
	ActionCompletePickTask    Action = "complete-pick-task"
	ActionReceiveItem         Action = "receive-item"
	ActionCloseInboundOrder   Action = "close-inbound-order"
)

// ResourceType names the kind of resource an action targets
type ResourceType string

const (
	ResourceOutboundOrder   ResourceType = "outbound-order"
	ResourceOutboundWave    ResourceType = "outbound-wave"
	ResourcePickTask        ResourceType = "pick-task"
	ResourceInboundShipment ResourceType = "inbound-shipment"
	ResourceInboundOrder    ResourceType = "inbound-order"
)

// ResourceType returns the resource kind the action applies to
func (a Action) ResourceType() ResourceType {
	switch a {
	case ActionReleaseOrder, ActionAcceptShortages, ActionAllocateOrder:
		return ResourceOutboundOrder
	case ActionAllocateWave, ActionReleaseWave, ActionAddOrdersToWave, ActionRemoveOrderFromWave:
		return ResourceOutboundWave
	case ActionCompletePickTask:
		return ResourcePickTask
	case ActionReceiveItem:
		return ResourceInboundShipment
	case ActionCloseInboundOrder:
		return ResourceInboundOrder
	}
	return ""
}

// Outcome is the terminal result of one gateway attempt
type Outcome string

const (
	OutcomeSucceeded    Outcome = "succeeded"
	OutcomeInvalid      Outcome = "invalid"
	OutcomeNotPermitted Outcome = "not_permitted"
	OutcomeSuppressed   Outcome = "suppressed"
	OutcomeRejected     Outcome = "rejected"
	OutcomeFailed       Outcome = "failed"
)

// ActionRecord is the audit entry written for every gateway attempt
type ActionRecord struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	RecordID     string             `bson:"recordId" json:"record_id"`
	Action       Action             `bson:"action" json:"action"`
	ResourceType ResourceType       `bson:"resourceType" json:"resource_type"`
	ResourceID   int64              `bson:"resourceId" json:"resource_id"`
	Operator     string             `bson:"operator,omitempty" json:"operator,omitempty"`
	RequestID    string             `bson:"requestId,omitempty" json:"request_id,omitempty"`
	Params       map[string]string  `bson:"params,omitempty" json:"params,omitempty"`
	Outcome      Outcome            `bson:"outcome" json:"outcome"`
	ErrorCode    string             `bson:"errorCode,omitempty" json:"error_code,omitempty"`
	Message      string             `bson:"message,omitempty" json:"message,omitempty"`
	StartedAt    time.Time          `bson:"startedAt" json:"started_at"`
	DurationMs   int64              `bson:"durationMs" json:"duration_ms"`
}

// ActionLogFilter narrows an action log listing
type ActionLogFilter struct {
	Action       Action
	ResourceType ResourceType
	ResourceID   int64
	Outcome      Outcome
	Limit        int
}
