package application

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/wms-platform/fulfillment-console/internal/domain"
	apperrors "github.com/wms-platform/fulfillment-console/pkg/errors"
)

// ToOrderDetailDTO pairs an order with its projection
func ToOrderDetailDTO(order *domain.OutboundOrder) *OrderDetailDTO {
	if order == nil {
		return nil
	}
	return &OrderDetailDTO{Order: *order, Projection: domain.Project(order)}
}

// ToOrderSummaryDTO converts an order to a list row
func ToOrderSummaryDTO(order *domain.OutboundOrder) OrderSummaryDTO {
	p := domain.Project(order)
	return OrderSummaryDTO{
		ID:                 order.ID,
		OrderNumber:        order.OrderNumber,
		Status:             order.Status,
		WaveID:             order.WaveID,
		ProgressPercent:    p.ProgressPercent,
		HasShortages:       p.HasShortages,
		CanRelease:         p.CanRelease,
		CanAcceptShortages: p.CanAcceptShortages,
	}
}

// ToOrderSummaryDTOs converts a list of orders
func ToOrderSummaryDTOs(orders []domain.OutboundOrder) []OrderSummaryDTO {
	out := make([]OrderSummaryDTO, 0, len(orders))
	for i := range orders {
		out = append(out, ToOrderSummaryDTO(&orders[i]))
	}
	return out
}

// ToWaveSummaryDTOs converts a list of waves
func ToWaveSummaryDTOs(waves []domain.OutboundWave) []WaveSummaryDTO {
	out := make([]WaveSummaryDTO, 0, len(waves))
	for _, w := range waves {
		out = append(out, WaveSummaryDTO{
			ID:         w.ID,
			WaveNumber: w.WaveNumber,
			Status:     w.Status,
			OrderCount: len(w.Orders),
			ReadOnly:   w.Status != domain.WaveStatusPlanning && w.Status != domain.WaveStatusAllocated,
		})
	}
	return out
}

// ToInboundDetailDTO pairs an inbound order with its projection and receive defaults
func ToInboundDetailDTO(order *domain.InboundOrder) *InboundDetailDTO {
	if order == nil {
		return nil
	}

	defaults := make(map[int64]string, len(order.Lines))
	for _, l := range order.Lines {
		defaults[l.ID] = domain.DefaultQuantity(l).String()
	}

	return &InboundDetailDTO{
		Order:             *order,
		Projection:        domain.ProjectInbound(order),
		DefaultQuantities: defaults,
	}
}

// outcomeOf classifies the terminal error of an action attempt
func outcomeOf(err error) domain.Outcome {
	var fieldErr *domain.FieldError
	var upstream *domain.UpstreamError

	switch {
	case err == nil:
		return domain.OutcomeSucceeded
	case errors.Is(err, domain.ErrActionInFlight):
		return domain.OutcomeSuppressed
	case errors.As(err, &fieldErr):
		return domain.OutcomeInvalid
	case errors.Is(err, domain.ErrActionNotPermitted):
		return domain.OutcomeNotPermitted
	case errors.As(err, &upstream) && upstream.IsClientError():
		return domain.OutcomeRejected
	default:
		return domain.OutcomeFailed
	}
}

// actionError converts an action failure to the error returned to callers.
// The caller's state is never touched on failure.
func actionError(action domain.Action, resourceID int64, err error) *apperrors.AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr
	}

	id := strconv.FormatInt(resourceID, 10)

	var fieldErr *domain.FieldError
	var notPermitted *domain.NotPermittedError
	var upstream *domain.UpstreamError

	switch {
	case errors.Is(err, domain.ErrActionInFlight):
		return apperrors.ErrActionInFlight(string(action), id)
	case errors.As(err, &fieldErr):
		return apperrors.ErrValidationWithFields(fieldErr.Message, map[string]string{
			fieldErr.Field: fieldErr.Message,
		}).Wrap(err)
	case errors.As(err, &notPermitted):
		return apperrors.ErrActionNotPermitted(string(action), notPermitted.Reason).Wrap(err)
	case errors.As(err, &upstream) && upstream.IsClientError():
		return apperrors.ErrUpstreamRejected(upstream.StatusCode, upstream.Detail).Wrap(err)
	default:
		return apperrors.NewAppError(
			apperrors.CodeServiceUnavailable,
			apperrors.GenericActionMessage,
			http.StatusServiceUnavailable,
		).Wrap(err)
	}
}

// queryError converts a read failure for resource id to an AppError
func queryError(resource string, id int64, err error) *apperrors.AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr
	}

	var upstream *domain.UpstreamError
	switch {
	case errors.As(err, &upstream) && upstream.StatusCode == http.StatusNotFound:
		if id == 0 {
			return apperrors.ErrNotFound(resource).Wrap(err)
		}
		return apperrors.ErrNotFoundWithID(resource, strconv.FormatInt(id, 10)).Wrap(err)
	case errors.As(err, &upstream) && upstream.IsClientError():
		return apperrors.ErrUpstreamRejected(upstream.StatusCode, upstream.Detail).Wrap(err)
	default:
		return apperrors.ErrServiceUnavailable("WMS API").Wrap(err)
	}
}
