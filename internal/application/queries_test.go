package application

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/fulfillment-console/internal/domain"
	apperrors "github.com/wms-platform/fulfillment-console/pkg/errors"
	"github.com/wms-platform/fulfillment-console/pkg/logging"
)

func newQueryFixture() (*QueryService, *MockOutboundAPI, *MockInboundAPI, *MockActionLog, *recordingCache) {
	outbound := new(MockOutboundAPI)
	inbound := new(MockInboundAPI)
	actionLog := new(MockActionLog)
	cache := newRecordingCache()
	return NewQueryService(outbound, inbound, cache, actionLog, logging.NewNop()), outbound, inbound, actionLog, cache
}

func TestGetOrder_ServedFromCacheUntilInvalidated(t *testing.T) {
	svc, outbound, _, _, cache := newQueryFixture()
	ctx := context.Background()

	outbound.On("GetOrder", mock.Anything, int64(1)).Return(testOrder(1, domain.OrderStatusPlanned, "10", "6"), nil).Twice()

	first, err := svc.GetOrder(ctx, 1)
	require.NoError(t, err)
	assert.True(t, first.Projection.CanAcceptShortages)
	assert.Equal(t, 60.0, first.Projection.ProgressPercent)

	_, err = svc.GetOrder(ctx, 1)
	require.NoError(t, err)
	outbound.AssertNumberOfCalls(t, "GetOrder", 1)

	require.NoError(t, cache.Invalidate(ctx, OrderKey(1)))
	_, err = svc.GetOrder(ctx, 1)
	require.NoError(t, err)
	outbound.AssertNumberOfCalls(t, "GetOrder", 2)
}

func TestGetOrder_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		expectCode string
		expectHTTP int
	}{
		{
			name:       "Not found",
			err:        &domain.UpstreamError{StatusCode: http.StatusNotFound},
			expectCode: apperrors.CodeNotFound,
			expectHTTP: http.StatusNotFound,
		},
		{
			name:       "Forbidden",
			err:        &domain.UpstreamError{StatusCode: http.StatusForbidden, Detail: "You do not have permission."},
			expectCode: apperrors.CodeUpstreamRejected,
			expectHTTP: http.StatusForbidden,
		},
		{
			name:       "Server error",
			err:        &domain.UpstreamError{StatusCode: http.StatusBadGateway},
			expectCode: apperrors.CodeServiceUnavailable,
			expectHTTP: http.StatusServiceUnavailable,
		},
		{
			name:       "Network error",
			err:        errors.New("connection refused"),
			expectCode: apperrors.CodeServiceUnavailable,
			expectHTTP: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, outbound, _, _, _ := newQueryFixture()
			outbound.On("GetOrder", mock.Anything, int64(8)).Return(nil, tt.err)

			_, err := svc.GetOrder(context.Background(), 8)

			appErr, ok := apperrors.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, tt.expectCode, appErr.Code)
			assert.Equal(t, tt.expectHTTP, appErr.HTTPStatus)
		})
	}
}

func TestGetWaveView(t *testing.T) {
	t.Run("Planning wave skips task fetch", func(t *testing.T) {
		svc, outbound, _, _, _ := newQueryFixture()
		outbound.On("GetWave", mock.Anything, int64(9)).Return(testWave(9, domain.WaveStatusPlanning, 1), nil)

		view, err := svc.GetWaveView(context.Background(), 9)

		require.NoError(t, err)
		assert.True(t, view.Controls.AddOrders.Enabled)
		assert.True(t, view.Controls.Allocate.Enabled)
		assert.False(t, view.Controls.Release.Visible)
		assert.False(t, view.Controls.TasksTab.Enabled)
		outbound.AssertNotCalled(t, "GetWaveTasks", mock.Anything, mock.Anything)
	})

	t.Run("Allocated wave shows shortage banner", func(t *testing.T) {
		svc, outbound, _, _, _ := newQueryFixture()
		outbound.On("GetWave", mock.Anything, int64(9)).Return(testWave(9, domain.WaveStatusAllocated, 1), nil)
		outbound.On("GetWaveTasks", mock.Anything, int64(9)).Return([]domain.PickTask{
			{ID: 1, Status: domain.TaskStatusPending, QtyToPick: dec("2")},
			{ID: 2, Status: domain.TaskStatusShort, QtyToPick: dec("3")},
		}, nil)

		view, err := svc.GetWaveView(context.Background(), 9)

		require.NoError(t, err)
		assert.True(t, view.Controls.Release.Enabled)
		require.Len(t, view.ShortageBanner, 1)
		assert.Equal(t, int64(2), view.ShortageBanner[0].ID)
		assert.Len(t, view.Orders, 1)
	})
}

func TestGetInboundOrder_DefaultQuantities(t *testing.T) {
	svc, _, inbound, _, _ := newQueryFixture()
	inbound.On("GetInboundOrder", mock.Anything, int64(3)).Return(&domain.InboundOrder{
		ID:     3,
		Status: domain.InboundStatusReceiving,
		Lines: []domain.InboundLine{
			{ID: 10, ExpectedQuantity: dec("50"), ReceivedQuantity: dec("45")},
			{ID: 11, ExpectedQuantity: dec("5"), ReceivedQuantity: dec("9")},
		},
	}, nil)

	detail, err := svc.GetInboundOrder(context.Background(), 3)

	require.NoError(t, err)
	assert.Equal(t, "5", detail.DefaultQuantities[10])
	assert.Equal(t, "0", detail.DefaultQuantities[11])
	assert.Equal(t, "-4", detail.Projection.Lines[1].Remaining)
	assert.True(t, detail.Projection.CanClose)
}

func TestListActions_DefaultsLimit(t *testing.T) {
	svc, _, _, actionLog, _ := newQueryFixture()
	actionLog.On("List", mock.Anything, domain.ActionLogFilter{
		Action: domain.ActionReleaseOrder,
		Limit:  100,
	}).Return([]*domain.ActionRecord{{Action: domain.ActionReleaseOrder}}, nil).Once()

	records, err := svc.ListActions(context.Background(), ListActionsQuery{Action: "release-order"})

	require.NoError(t, err)
	assert.Len(t, records, 1)
	actionLog.AssertExpectations(t)
}

func TestListOrders_Summaries(t *testing.T) {
	svc, outbound, _, _, _ := newQueryFixture()
	outbound.On("ListOrders", mock.Anything).Return([]domain.OutboundOrder{
		*testOrder(1, domain.OrderStatusPlanned, "10", "10"),
		*testOrder(2, domain.OrderStatusPlanned, "10", "6"),
	}, nil)

	rows, err := svc.ListOrders(context.Background())

	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.True(t, rows[0].CanRelease)
	assert.True(t, rows[1].CanAcceptShortages)
	assert.Equal(t, 60.0, rows[1].ProgressPercent)
}

func TestKeyCovers(t *testing.T) {
	tests := []struct {
		root, key string
		expected  bool
	}{
		{"outbound-order/1", "outbound-order/1", true},
		{"outbound-order/1", "outbound-order/1?expand=tasks", true},
		{"outbound-order/1", "outbound-order/1/lines", true},
		{"outbound-order/1", "outbound-order/12", false},
		{"outbound-wave/9", "outbound-wave-tasks/9", false},
		{"outbound-orders", "outbound-order/1", false},
	}

	for _, tt := range tests {
		t.Run(tt.root+"|"+tt.key, func(t *testing.T) {
			assert.Equal(t, tt.expected, KeyCovers(tt.root, tt.key))
		})
	}

	assert.Equal(t, "outbound-wave-tasks", KeyResource(WaveTasksKey(9)))
	assert.Equal(t, "outbound-orders", KeyResource(KeyOutboundOrders))
}
