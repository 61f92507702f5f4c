package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/fulfillment-console/internal/application"
	"github.com/wms-platform/fulfillment-console/internal/domain"
	"github.com/wms-platform/fulfillment-console/pkg/errors"
	"github.com/wms-platform/fulfillment-console/pkg/logging"
	"github.com/wms-platform/fulfillment-console/pkg/middleware"
)

type MockQueries struct {
	mock.Mock
}

func (m *MockQueries) ListOrders(ctx context.Context) ([]application.OrderSummaryDTO, error) {
	args := m.Called(ctx)
	rows, _ := args.Get(0).([]application.OrderSummaryDTO)
	return rows, args.Error(1)
}

func (m *MockQueries) GetOrder(ctx context.Context, orderID int64) (*application.OrderDetailDTO, error) {
	args := m.Called(ctx, orderID)
	detail, _ := args.Get(0).(*application.OrderDetailDTO)
	return detail, args.Error(1)
}

func (m *MockQueries) ListWaves(ctx context.Context) ([]application.WaveSummaryDTO, error) {
	args := m.Called(ctx)
	rows, _ := args.Get(0).([]application.WaveSummaryDTO)
	return rows, args.Error(1)
}

func (m *MockQueries) GetWaveView(ctx context.Context, waveID int64) (*domain.WaveView, error) {
	args := m.Called(ctx, waveID)
	view, _ := args.Get(0).(*domain.WaveView)
	return view, args.Error(1)
}

func (m *MockQueries) WaveTasks(ctx context.Context, waveID int64) ([]domain.PickTask, error) {
	args := m.Called(ctx, waveID)
	tasks, _ := args.Get(0).([]domain.PickTask)
	return tasks, args.Error(1)
}

func (m *MockQueries) ListAllocationStrategies(ctx context.Context) ([]domain.AllocationStrategy, error) {
	args := m.Called(ctx)
	rows, _ := args.Get(0).([]domain.AllocationStrategy)
	return rows, args.Error(1)
}

func (m *MockQueries) ListInboundOrders(ctx context.Context) ([]domain.InboundOrder, error) {
	args := m.Called(ctx)
	rows, _ := args.Get(0).([]domain.InboundOrder)
	return rows, args.Error(1)
}

func (m *MockQueries) GetInboundOrder(ctx context.Context, orderID int64) (*application.InboundDetailDTO, error) {
	args := m.Called(ctx, orderID)
	detail, _ := args.Get(0).(*application.InboundDetailDTO)
	return detail, args.Error(1)
}

func (m *MockQueries) ListActions(ctx context.Context, query application.ListActionsQuery) ([]*domain.ActionRecord, error) {
	args := m.Called(ctx, query)
	rows, _ := args.Get(0).([]*domain.ActionRecord)
	return rows, args.Error(1)
}

type MockActions struct {
	mock.Mock
}

func (m *MockActions) result(args mock.Arguments) (*application.ActionResultDTO, error) {
	result, _ := args.Get(0).(*application.ActionResultDTO)
	return result, args.Error(1)
}

func (m *MockActions) ReleaseOrder(ctx context.Context, cmd application.ReleaseOrderCommand) (*application.ActionResultDTO, error) {
	return m.result(m.Called(ctx, cmd))
}

func (m *MockActions) AcceptShortages(ctx context.Context, cmd application.AcceptShortagesCommand) (*application.ActionResultDTO, error) {
	return m.result(m.Called(ctx, cmd))
}

func (m *MockActions) AllocateOrder(ctx context.Context, cmd application.AllocateOrderCommand) (*application.ActionResultDTO, error) {
	return m.result(m.Called(ctx, cmd))
}

func (m *MockActions) AllocateWave(ctx context.Context, cmd application.AllocateWaveCommand) (*application.ActionResultDTO, error) {
	return m.result(m.Called(ctx, cmd))
}

func (m *MockActions) ReleaseWave(ctx context.Context, cmd application.ReleaseWaveCommand) (*application.ActionResultDTO, error) {
	return m.result(m.Called(ctx, cmd))
}

func (m *MockActions) AddOrdersToWave(ctx context.Context, cmd application.AddOrdersToWaveCommand) (*application.ActionResultDTO, error) {
	return m.result(m.Called(ctx, cmd))
}

func (m *MockActions) RemoveOrderFromWave(ctx context.Context, cmd application.RemoveOrderFromWaveCommand) (*application.ActionResultDTO, error) {
	return m.result(m.Called(ctx, cmd))
}

func (m *MockActions) CompletePickTask(ctx context.Context, cmd application.CompletePickTaskCommand) (*application.ActionResultDTO, error) {
	return m.result(m.Called(ctx, cmd))
}

func (m *MockActions) ReceiveItem(ctx context.Context, cmd application.ReceiveItemCommand) (*application.ActionResultDTO, error) {
	return m.result(m.Called(ctx, cmd))
}

func (m *MockActions) CloseInboundOrder(ctx context.Context, cmd application.CloseInboundOrderCommand) (*application.ActionResultDTO, error) {
	return m.result(m.Called(ctx, cmd))
}

func (m *MockActions) InFlight() []string {
	return m.Called().Get(0).([]string)
}

func setupRouter() (*gin.Engine, *MockQueries, *MockActions) {
	gin.SetMode(gin.TestMode)
	middleware.InitValidator()

	queries := new(MockQueries)
	actions := new(MockActions)

	router := gin.New()
	router.Use(middleware.RequestID())
	NewHandler(queries, actions, logging.NewNop()).RegisterRoutes(router.Group("/api/v1"))
	return router, queries, actions
}

func doRequest(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) middleware.APIErrorResponse {
	t.Helper()
	var resp middleware.APIErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func succeeded(action domain.Action, id int64) *application.ActionResultDTO {
	return &application.ActionResultDTO{
		Action:       action,
		ResourceType: action.ResourceType(),
		ResourceID:   id,
		Outcome:      domain.OutcomeSucceeded,
	}
}

func TestGetOrder(t *testing.T) {
	router, queries, _ := setupRouter()
	queries.On("GetOrder", mock.Anything, int64(42)).Return(&application.OrderDetailDTO{
		Order:      domain.OutboundOrder{ID: 42, Status: domain.OrderStatusPlanned},
		Projection: domain.OrderProjection{OrderID: 42, CanRelease: true, ProgressPercent: 100},
	}, nil)

	w := doRequest(router, http.MethodGet, "/api/v1/orders/42", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var detail application.OrderDetailDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	assert.True(t, detail.Projection.CanRelease)
}

func TestInvalidPathID(t *testing.T) {
	router, _, _ := setupRouter()

	for _, path := range []string{"/api/v1/orders/abc", "/api/v1/orders/0", "/api/v1/waves/-3"} {
		w := doRequest(router, http.MethodGet, path, nil)

		assert.Equal(t, http.StatusBadRequest, w.Code, path)
		resp := decodeError(t, w)
		assert.Equal(t, errors.CodeValidationError, resp.Code)
		assert.Equal(t, "must be a positive integer", resp.Details["id"])
	}
}

func TestOrderActions(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		method string
		cmd    interface{}
		action domain.Action
	}{
		{name: "Release", path: "/api/v1/orders/5/release", method: "ReleaseOrder", cmd: application.ReleaseOrderCommand{OrderID: 5}, action: domain.ActionReleaseOrder},
		{name: "Accept shortages", path: "/api/v1/orders/5/accept-shortages", method: "AcceptShortages", cmd: application.AcceptShortagesCommand{OrderID: 5}, action: domain.ActionAcceptShortages},
		{name: "Allocate", path: "/api/v1/orders/5/allocate", method: "AllocateOrder", cmd: application.AllocateOrderCommand{OrderID: 5}, action: domain.ActionAllocateOrder},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _, actions := setupRouter()
			actions.On(tt.method, mock.Anything, tt.cmd).Return(succeeded(tt.action, 5), nil).Once()

			w := doRequest(router, http.MethodPost, tt.path, nil)

			require.Equal(t, http.StatusOK, w.Code)
			var result application.ActionResultDTO
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
			assert.Equal(t, tt.action, result.Action)
			assert.Equal(t, domain.OutcomeSucceeded, result.Outcome)
			actions.AssertExpectations(t)
		})
	}
}

func TestActionErrors(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		expectStatus int
		expectCode   string
	}{
		{
			name:         "Not permitted",
			err:          errors.ErrActionNotPermitted("release-order", "order has shortages"),
			expectStatus: http.StatusConflict,
			expectCode:   errors.CodeActionNotPermitted,
		},
		{
			name:         "In flight",
			err:          errors.ErrActionInFlight("release-order", "5"),
			expectStatus: http.StatusConflict,
			expectCode:   errors.CodeActionInFlight,
		},
		{
			name:         "Upstream rejected",
			err:          errors.ErrUpstreamRejected(http.StatusUnprocessableEntity, "Order has unallocated lines"),
			expectStatus: http.StatusUnprocessableEntity,
			expectCode:   errors.CodeUpstreamRejected,
		},
		{
			name:         "Unavailable",
			err:          errors.ErrServiceUnavailable("WMS API"),
			expectStatus: http.StatusServiceUnavailable,
			expectCode:   errors.CodeServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _, actions := setupRouter()
			actions.On("ReleaseOrder", mock.Anything, application.ReleaseOrderCommand{OrderID: 5}).Return(nil, tt.err)

			w := doRequest(router, http.MethodPost, "/api/v1/orders/5/release", nil)

			assert.Equal(t, tt.expectStatus, w.Code)
			assert.Equal(t, tt.expectCode, decodeError(t, w).Code)
		})
	}
}

func TestAllocateWave(t *testing.T) {
	t.Run("Without body", func(t *testing.T) {
		router, _, actions := setupRouter()
		actions.On("AllocateWave", mock.Anything, application.AllocateWaveCommand{WaveID: 9}).
			Return(succeeded(domain.ActionAllocateWave, 9), nil).Once()

		w := doRequest(router, http.MethodPost, "/api/v1/waves/9/allocate", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		actions.AssertExpectations(t)
	})

	t.Run("With strategy", func(t *testing.T) {
		router, _, actions := setupRouter()
		actions.On("AllocateWave", mock.Anything, mock.MatchedBy(func(cmd application.AllocateWaveCommand) bool {
			return cmd.WaveID == 9 && cmd.StrategyID != nil && *cmd.StrategyID == 2
		})).Return(succeeded(domain.ActionAllocateWave, 9), nil).Once()

		w := doRequest(router, http.MethodPost, "/api/v1/waves/9/allocate", map[string]int{"strategy_id": 2})

		assert.Equal(t, http.StatusOK, w.Code)
		actions.AssertExpectations(t)
	})

	t.Run("Invalid strategy", func(t *testing.T) {
		router, _, actions := setupRouter()

		w := doRequest(router, http.MethodPost, "/api/v1/waves/9/allocate", map[string]int{"strategy_id": -1})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decodeError(t, w).Details, "strategy_id")
		actions.AssertNotCalled(t, "AllocateWave", mock.Anything, mock.Anything)
	})
}

func TestAddOrdersToWave_Validation(t *testing.T) {
	router, _, actions := setupRouter()

	w := doRequest(router, http.MethodPost, "/api/v1/waves/9/orders", map[string][]int64{"order_ids": {}})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, errors.CodeValidationError, resp.Code)
	assert.Equal(t, "must be at least 1", resp.Details["order_ids"])
	actions.AssertNotCalled(t, "AddOrdersToWave", mock.Anything, mock.Anything)
}

func TestRemoveOrderFromWave(t *testing.T) {
	router, _, actions := setupRouter()
	actions.On("RemoveOrderFromWave", mock.Anything, application.RemoveOrderFromWaveCommand{WaveID: 9, OrderID: 3}).
		Return(succeeded(domain.ActionRemoveOrderFromWave, 9), nil).Once()

	w := doRequest(router, http.MethodDelete, "/api/v1/waves/9/orders/3", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	actions.AssertExpectations(t)
}

func TestCompletePickTask(t *testing.T) {
	router, _, actions := setupRouter()
	actions.On("CompletePickTask", mock.Anything, mock.MatchedBy(func(cmd application.CompletePickTaskCommand) bool {
		return cmd.TaskID == 77 && cmd.WaveID == 9 && cmd.QtyPicked.Equal(decimal.RequireFromString("1.5"))
	})).Return(succeeded(domain.ActionCompletePickTask, 77), nil).Once()

	w := doRequest(router, http.MethodPost, "/api/v1/tasks/77/complete", map[string]interface{}{
		"wave_id":    9,
		"qty_picked": "1.5",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	actions.AssertExpectations(t)
}

func TestReceiveItem(t *testing.T) {
	t.Run("Passes submission through", func(t *testing.T) {
		router, _, actions := setupRouter()
		actions.On("ReceiveItem", mock.Anything, mock.MatchedBy(func(cmd application.ReceiveItemCommand) bool {
			return cmd.ShipmentID == 12 &&
				cmd.InboundOrderID == 3 &&
				cmd.InboundLineID == 4 &&
				cmd.LocationID != nil && *cmd.LocationID == 8 &&
				cmd.Quantity != nil && cmd.Quantity.Equal(decimal.NewFromInt(5)) &&
				cmd.LPN == "LPN-0001"
		})).Return(succeeded(domain.ActionReceiveItem, 12), nil).Once()

		w := doRequest(router, http.MethodPost, "/api/v1/inbound/shipments/12/receive-item", map[string]interface{}{
			"inbound_order_id": 3,
			"inbound_line_id":  4,
			"location_id":      8,
			"quantity":         5,
			"lpn":              "LPN-0001",
		})

		assert.Equal(t, http.StatusOK, w.Code)
		actions.AssertExpectations(t)
	})

	t.Run("Over-receipt is a field error", func(t *testing.T) {
		router, _, actions := setupRouter()
		actions.On("ReceiveItem", mock.Anything, mock.Anything).Return(nil,
			errors.ErrValidationWithFields("validation failed", map[string]string{"quantity": "over-receipt not allowed; max is 5"}))

		w := doRequest(router, http.MethodPost, "/api/v1/inbound/shipments/12/receive-item", map[string]interface{}{
			"inbound_order_id": 3,
			"inbound_line_id":  4,
			"location_id":      8,
			"quantity":         6,
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "over-receipt not allowed; max is 5", decodeError(t, w).Details["quantity"])
	})

	t.Run("Malformed expiry date", func(t *testing.T) {
		router, _, actions := setupRouter()

		w := doRequest(router, http.MethodPost, "/api/v1/inbound/shipments/12/receive-item", map[string]interface{}{
			"inbound_order_id": 3,
			"inbound_line_id":  4,
			"expiry_date":      "12/31/2026",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "must be a date in YYYY-MM-DD format", decodeError(t, w).Details["expiry_date"])
		actions.AssertNotCalled(t, "ReceiveItem", mock.Anything, mock.Anything)
	})
}

func TestGetWaveView(t *testing.T) {
	router, queries, _ := setupRouter()
	view := domain.ComposeWaveView(&domain.OutboundWave{ID: 9, Status: domain.WaveStatusReleased}, nil, []domain.PickTask{
		{ID: 1, Status: domain.TaskStatusShort},
	})
	queries.On("GetWaveView", mock.Anything, int64(9)).Return(&view, nil)

	w := doRequest(router, http.MethodGet, "/api/v1/waves/9", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var got domain.WaveView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.True(t, got.ReadOnly)
	assert.Len(t, got.ShortageBanner, 1)
}

func TestGetInboundOrder_NotFound(t *testing.T) {
	router, queries, _ := setupRouter()
	queries.On("GetInboundOrder", mock.Anything, int64(404)).Return(nil, errors.ErrNotFoundWithID("inbound order", "404"))

	w := doRequest(router, http.MethodGet, "/api/v1/inbound/orders/404", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, errors.CodeNotFound, decodeError(t, w).Code)
}

func TestListActions(t *testing.T) {
	t.Run("Filters", func(t *testing.T) {
		router, queries, _ := setupRouter()
		queries.On("ListActions", mock.Anything, application.ListActionsQuery{
			Action:       "release-order",
			ResourceType: "outbound-order",
			ResourceID:   5,
			Limit:        20,
		}).Return([]*domain.ActionRecord{{Action: domain.ActionReleaseOrder, ResourceID: 5}}, nil).Once()

		w := doRequest(router, http.MethodGet, "/api/v1/actions?action=release-order&resourceType=outbound-order&resourceId=5&limit=20", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		queries.AssertExpectations(t)
	})

	t.Run("Bad resource id", func(t *testing.T) {
		router, _, _ := setupRouter()

		w := doRequest(router, http.MethodGet, "/api/v1/actions?resourceId=x", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("In flight", func(t *testing.T) {
		router, _, actions := setupRouter()
		actions.On("InFlight").Return([]string{"release-order:5"})

		w := doRequest(router, http.MethodGet, "/api/v1/actions/in-flight", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"in_flight":["release-order:5"]}`, w.Body.String())
	})
}

var (
	_ Queries = (*application.QueryService)(nil)
	_ Actions = (*application.ActionGateway)(nil)
)
