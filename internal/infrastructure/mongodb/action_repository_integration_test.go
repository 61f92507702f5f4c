//go:build integration

package mongodb

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/fulfillment-console/internal/domain"
	"github.com/wms-platform/fulfillment-console/pkg/logging"
	wmsmongo "github.com/wms-platform/fulfillment-console/pkg/mongodb"
	"github.com/wms-platform/fulfillment-console/pkg/testenv"
)

func TestActionRepository(t *testing.T) {
	ctx := context.Background()

	container, err := testenv.NewMongoDBContainer(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { container.Close(ctx) })

	config := wmsmongo.DefaultConfig()
	config.URI = container.URI
	config.Database = "console_test"
	client, err := wmsmongo.NewClient(ctx, config)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close(ctx) })

	repo := NewActionRepository(client.Database(), 0, logging.NewNop(), nil)
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	records := []*domain.ActionRecord{
		{Action: domain.ActionReleaseOrder, ResourceType: domain.ResourceOutboundOrder, ResourceID: 1, Outcome: domain.OutcomeSucceeded, StartedAt: base},
		{Action: domain.ActionReleaseOrder, ResourceType: domain.ResourceOutboundOrder, ResourceID: 1, Outcome: domain.OutcomeSuppressed, StartedAt: base.Add(time.Second)},
		{Action: domain.ActionReleaseWave, ResourceType: domain.ResourceOutboundWave, ResourceID: 9, Outcome: domain.OutcomeRejected, ErrorCode: "UPSTREAM_REJECTED", StartedAt: base.Add(2 * time.Second)},
		{Action: domain.ActionReceiveItem, ResourceType: domain.ResourceInboundShipment, ResourceID: 12, Params: map[string]string{"quantity": "5"}, Outcome: domain.OutcomeSucceeded, StartedAt: base.Add(3 * time.Second)},
	}
	for _, r := range records {
		r.RecordID = uuid.New().String()
		require.NoError(t, repo.Append(ctx, r))
	}

	t.Run("Newest first", func(t *testing.T) {
		all, err := repo.List(ctx, domain.ActionLogFilter{})
		require.NoError(t, err)
		require.Len(t, all, 4)
		assert.Equal(t, domain.ActionReceiveItem, all[0].Action)
		assert.Equal(t, "5", all[0].Params["quantity"])
	})

	t.Run("Filter by resource", func(t *testing.T) {
		rows, err := repo.List(ctx, domain.ActionLogFilter{ResourceType: domain.ResourceOutboundOrder, ResourceID: 1})
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, domain.OutcomeSuppressed, rows[0].Outcome)
	})

	t.Run("Filter by outcome with limit", func(t *testing.T) {
		rows, err := repo.List(ctx, domain.ActionLogFilter{Outcome: domain.OutcomeSucceeded, Limit: 1})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, int64(12), rows[0].ResourceID)
	})

	t.Run("No match", func(t *testing.T) {
		rows, err := repo.List(ctx, domain.ActionLogFilter{Action: domain.ActionCloseInboundOrder})
		require.NoError(t, err)
		assert.Empty(t, rows)
	})
}
