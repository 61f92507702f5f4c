// Package api exposes projections, wave views and gated actions over HTTP.
package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/wms-platform/fulfillment-console/internal/application"
	"github.com/wms-platform/fulfillment-console/internal/domain"
	"github.com/wms-platform/fulfillment-console/pkg/errors"
	"github.com/wms-platform/fulfillment-console/pkg/logging"
	"github.com/wms-platform/fulfillment-console/pkg/middleware"
)

// Queries is the read side used by the handlers; *application.QueryService satisfies it
type Queries interface {
	ListOrders(ctx context.Context) ([]application.OrderSummaryDTO, error)
	GetOrder(ctx context.Context, orderID int64) (*application.OrderDetailDTO, error)
	ListWaves(ctx context.Context) ([]application.WaveSummaryDTO, error)
	GetWaveView(ctx context.Context, waveID int64) (*domain.WaveView, error)
	WaveTasks(ctx context.Context, waveID int64) ([]domain.PickTask, error)
	ListAllocationStrategies(ctx context.Context) ([]domain.AllocationStrategy, error)
	ListInboundOrders(ctx context.Context) ([]domain.InboundOrder, error)
	GetInboundOrder(ctx context.Context, orderID int64) (*application.InboundDetailDTO, error)
	ListActions(ctx context.Context, query application.ListActionsQuery) ([]*domain.ActionRecord, error)
}

// Actions is the write side used by the handlers; *application.ActionGateway satisfies it
type Actions interface {
	ReleaseOrder(ctx context.Context, cmd application.ReleaseOrderCommand) (*application.ActionResultDTO, error)
	AcceptShortages(ctx context.Context, cmd application.AcceptShortagesCommand) (*application.ActionResultDTO, error)
	AllocateOrder(ctx context.Context, cmd application.AllocateOrderCommand) (*application.ActionResultDTO, error)
	AllocateWave(ctx context.Context, cmd application.AllocateWaveCommand) (*application.ActionResultDTO, error)
	ReleaseWave(ctx context.Context, cmd application.ReleaseWaveCommand) (*application.ActionResultDTO, error)
	AddOrdersToWave(ctx context.Context, cmd application.AddOrdersToWaveCommand) (*application.ActionResultDTO, error)
	RemoveOrderFromWave(ctx context.Context, cmd application.RemoveOrderFromWaveCommand) (*application.ActionResultDTO, error)
	CompletePickTask(ctx context.Context, cmd application.CompletePickTaskCommand) (*application.ActionResultDTO, error)
	ReceiveItem(ctx context.Context, cmd application.ReceiveItemCommand) (*application.ActionResultDTO, error)
	CloseInboundOrder(ctx context.Context, cmd application.CloseInboundOrderCommand) (*application.ActionResultDTO, error)
	InFlight() []string
}

// Handler serves the console API
type Handler struct {
	queries Queries
	actions Actions
	logger  *logging.Logger
}

// NewHandler creates a new Handler
func NewHandler(queries Queries, actions Actions, logger *logging.Logger) *Handler {
	return &Handler{queries: queries, actions: actions, logger: logger}
}

// RegisterRoutes mounts the console routes on rg
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	orders := rg.Group("/orders")
	{
		orders.GET("", h.listOrders)
		orders.GET("/:id", h.getOrder)
		orders.POST("/:id/release", h.releaseOrder)
		orders.POST("/:id/accept-shortages", h.acceptShortages)
		orders.POST("/:id/allocate", h.allocateOrder)
	}

	waves := rg.Group("/waves")
	{
		waves.GET("", h.listWaves)
		waves.GET("/:id", h.getWaveView)
		waves.GET("/:id/tasks", h.getWaveTasks)
		waves.POST("/:id/allocate", h.allocateWave)
		waves.POST("/:id/release", h.releaseWave)
		waves.POST("/:id/orders", h.addOrdersToWave)
		waves.DELETE("/:id/orders/:orderId", h.removeOrderFromWave)
	}

	rg.POST("/tasks/:id/complete", h.completePickTask)
	rg.GET("/allocation-strategies", h.listAllocationStrategies)

	inbound := rg.Group("/inbound")
	{
		inbound.GET("/orders", h.listInboundOrders)
		inbound.GET("/orders/:id", h.getInboundOrder)
		inbound.POST("/orders/:id/close", h.closeInboundOrder)
		inbound.POST("/shipments/:id/receive-item", h.receiveItem)
	}

	actions := rg.Group("/actions")
	{
		actions.GET("", h.listActions)
		actions.GET("/in-flight", h.listInFlight)
	}
}

func (h *Handler) responder(c *gin.Context) *middleware.ErrorResponder {
	return middleware.NewErrorResponder(c, h.logger.Logger)
}

// pathID reads a positive integer path parameter
func pathID(c *gin.Context, name string) (int64, *errors.AppError) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.ErrValidationWithFields("invalid path parameter", map[string]string{
			name: "must be a positive integer",
		})
	}
	return id, nil
}

// bindOptional binds a JSON body only when one was sent
func bindOptional(c *gin.Context, obj interface{}) *errors.AppError {
	if c.Request.ContentLength == 0 {
		return middleware.ValidateStruct(obj)
	}
	return middleware.BindAndValidate(c, obj)
}

func respond[T any](h *Handler, c *gin.Context, result T, err error) {
	if err != nil {
		h.responder(c).RespondWithError(err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Orders

func (h *Handler) listOrders(c *gin.Context) {
	rows, err := h.queries.ListOrders(c.Request.Context())
	respond(h, c, rows, err)
}

func (h *Handler) getOrder(c *gin.Context) {
	id, appErr := pathID(c, "id")
	if appErr != nil {
		h.responder(c).RespondWithAppError(appErr)
		return
	}
	detail, err := h.queries.GetOrder(c.Request.Context(), id)
	respond(h, c, detail, err)
}

func (h *Handler) releaseOrder(c *gin.Context) {
	id, appErr := pathID(c, "id")
	if appErr != nil {
		h.responder(c).RespondWithAppError(appErr)
		return
	}
	result, err := h.actions.ReleaseOrder(c.Request.Context(), application.ReleaseOrderCommand{OrderID: id})
	respond(h, c, result, err)
}

func (h *Handler) acceptShortages(c *gin.Context) {
	id, appErr := pathID(c, "id")
	if appErr != nil {
		h.responder(c).RespondWithAppError(appErr)
		return
	}
	result, err := h.actions.AcceptShortages(c.Request.Context(), application.AcceptShortagesCommand{OrderID: id})
	respond(h, c, result, err)
}

func (h *Handler) allocateOrder(c *gin.Context) {
	id, appErr := pathID(c, "id")
	if appErr != nil {
		h.responder(c).RespondWithAppError(appErr)
		return
	}
	result, err := h.actions.AllocateOrder(c.Request.Context(), application.AllocateOrderCommand{OrderID: id})
	respond(h, c, result, err)
}

// Waves

func (h *Handler) listWaves(c *gin.Context) {
	rows, err := h.queries.ListWaves(c.Request.Context())
	respond(h, c, rows, err)
}

func (h *Handler) getWaveView(c *gin.Context) {
	id, appErr := pathID(c, "id")
	if appErr != nil {
		h.responder(c).RespondWithAppError(appErr)
		return
	}
	view, err := h.queries.GetWaveView(c.Request.Context(), id)
	respond(h, c, view, err)
}

func (h *Handler) getWaveTasks(c *gin.Context) {
	id, appErr := pathID(c, "id")
	if appErr != nil {
		h.responder(c).RespondWithAppError(appErr)
		return
	}
	tasks, err := h.queries.WaveTasks(c.Request.Context(), id)
	respond(h, c, tasks, err)
}

func (h *Handler) allocateWave(c *gin.Context) {
	responder := h.responder(c)

	id, appErr := pathID(c, "id")
	if appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	var req AllocateWaveRequest
	if appErr := bindOptional(c, &req); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	result, err := h.actions.AllocateWave(c.Request.Context(), application.AllocateWaveCommand{
		WaveID:     id,
		StrategyID: req.StrategyID,
	})
	respond(h, c, result, err)
}

func (h *Handler) releaseWave(c *gin.Context) {
	id, appErr := pathID(c, "id")
	if appErr != nil {
		h.responder(c).RespondWithAppError(appErr)
		return
	}
	result, err := h.actions.ReleaseWave(c.Request.Context(), application.ReleaseWaveCommand{WaveID: id})
	respond(h, c, result, err)
}

func (h *Handler) addOrdersToWave(c *gin.Context) {
	responder := h.responder(c)

	id, appErr := pathID(c, "id")
	if appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	var req AddOrdersRequest
	if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	result, err := h.actions.AddOrdersToWave(c.Request.Context(), application.AddOrdersToWaveCommand{
		WaveID:   id,
		OrderIDs: req.OrderIDs,
	})
	respond(h, c, result, err)
}

func (h *Handler) removeOrderFromWave(c *gin.Context) {
	responder := h.responder(c)

	waveID, appErr := pathID(c, "id")
	if appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}
	orderID, appErr := pathID(c, "orderId")
	if appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	result, err := h.actions.RemoveOrderFromWave(c.Request.Context(), application.RemoveOrderFromWaveCommand{
		WaveID:  waveID,
		OrderID: orderID,
	})
	respond(h, c, result, err)
}

func (h *Handler) completePickTask(c *gin.Context) {
	responder := h.responder(c)

	id, appErr := pathID(c, "id")
	if appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	var req CompletePickTaskRequest
	if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	result, err := h.actions.CompletePickTask(c.Request.Context(), application.CompletePickTaskCommand{
		WaveID:    req.WaveID,
		TaskID:    id,
		QtyPicked: *req.QtyPicked,
	})
	respond(h, c, result, err)
}

func (h *Handler) listAllocationStrategies(c *gin.Context) {
	strategies, err := h.queries.ListAllocationStrategies(c.Request.Context())
	respond(h, c, strategies, err)
}

// Inbound

func (h *Handler) listInboundOrders(c *gin.Context) {
	orders, err := h.queries.ListInboundOrders(c.Request.Context())
	respond(h, c, orders, err)
}

func (h *Handler) getInboundOrder(c *gin.Context) {
	id, appErr := pathID(c, "id")
	if appErr != nil {
		h.responder(c).RespondWithAppError(appErr)
		return
	}
	detail, err := h.queries.GetInboundOrder(c.Request.Context(), id)
	respond(h, c, detail, err)
}

func (h *Handler) closeInboundOrder(c *gin.Context) {
	id, appErr := pathID(c, "id")
	if appErr != nil {
		h.responder(c).RespondWithAppError(appErr)
		return
	}
	result, err := h.actions.CloseInboundOrder(c.Request.Context(), application.CloseInboundOrderCommand{OrderID: id})
	respond(h, c, result, err)
}

func (h *Handler) receiveItem(c *gin.Context) {
	responder := h.responder(c)

	shipmentID, appErr := pathID(c, "id")
	if appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	var req ReceiveItemRequest
	if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	result, err := h.actions.ReceiveItem(c.Request.Context(), req.command(shipmentID))
	respond(h, c, result, err)
}

// Action log

func (h *Handler) listActions(c *gin.Context) {
	query := application.ListActionsQuery{
		Action:       c.Query("action"),
		ResourceType: c.Query("resourceType"),
		Outcome:      c.Query("outcome"),
	}
	if raw := c.Query("resourceId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			h.responder(c).RespondValidationError("invalid query parameter", map[string]string{
				"resourceId": "must be a positive integer",
			})
			return
		}
		query.ResourceID = id
	}
	if raw := c.Query("limit"); raw != "" {
		query.Limit, _ = strconv.Atoi(raw)
	}

	records, err := h.queries.ListActions(c.Request.Context(), query)
	respond(h, c, records, err)
}

func (h *Handler) listInFlight(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"in_flight": h.actions.InFlight()})
}
