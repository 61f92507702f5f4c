package mongodb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/wms-platform/fulfillment-console/internal/domain"
)

func TestBuildFilter(t *testing.T) {
	tests := []struct {
		name     string
		filter   domain.ActionLogFilter
		expected bson.M
	}{
		{
			name:     "Empty filter matches everything",
			filter:   domain.ActionLogFilter{Limit: 50},
			expected: bson.M{},
		},
		{
			name: "Resource filter",
			filter: domain.ActionLogFilter{
				ResourceType: domain.ResourceOutboundWave,
				ResourceID:   9,
			},
			expected: bson.M{
				"resourceType": domain.ResourceOutboundWave,
				"resourceId":   int64(9),
			},
		},
		{
			name: "Action and outcome",
			filter: domain.ActionLogFilter{
				Action:  domain.ActionReceiveItem,
				Outcome: domain.OutcomeRejected,
			},
			expected: bson.M{
				"action":  domain.ActionReceiveItem,
				"outcome": domain.OutcomeRejected,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, buildFilter(tt.filter))
		})
	}
}
