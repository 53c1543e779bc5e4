package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/denizaksoy/ovenline-backend/api/middleware"
	"github.com/denizaksoy/ovenline-backend/api/responses"
	"github.com/denizaksoy/ovenline-backend/api/validators"
	"github.com/denizaksoy/ovenline-backend/internal/accounts"
	"github.com/denizaksoy/ovenline-backend/internal/orders"
	"github.com/denizaksoy/ovenline-backend/pkg/enums"
	pkgerrors "github.com/denizaksoy/ovenline-backend/pkg/errors"
	"github.com/denizaksoy/ovenline-backend/pkg/logger"

	"github.com/go-chi/chi/v5"
)

type orderActionRequest struct {
	CourierID *uuid.UUID `json:"courier_id,omitempty"`
	Note      *string    `json:"note,omitempty" validate:"omitempty,max=500"`
}

type courierSummaryResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Status    string    `json:"status"`
}

// AdminOrdersBoard lists orders, optionally filtered by comma separated
// statuses.
func AdminOrdersBoard(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var statuses []enums.OrderStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			for _, part := range strings.Split(raw, ",") {
				status, err := enums.ParseOrderStatus(strings.TrimSpace(part))
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
					return
				}
				statuses = append(statuses, status)
			}
		}

		list, err := svc.ListBoard(r.Context(), statuses)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderListResponse(list))
	}
}

// AdminOrdersAction applies one state machine action to an order.
func AdminOrdersAction(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParseUUIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		action, err := enums.ParseOrderAction(chi.URLParam(r, "action"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order action"))
			return
		}

		var payload orderActionRequest
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		order, err := svc.Transition(r.Context(), orders.TransitionInput{
			OrderID:   orderID,
			Action:    action,
			Actor:     middleware.ActorFromContext(r.Context()),
			CourierID: payload.CourierID,
			Note:      payload.Note,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

// AdminCouriersList returns all couriers with their dispatch status.
func AdminCouriersList(svc accounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		couriers, err := svc.ListCouriers(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := make([]courierSummaryResponse, 0, len(couriers))
		for _, courier := range couriers {
			out = append(out, courierSummaryResponse{
				ID:        courier.ID,
				Username:  courier.Username,
				FirstName: courier.FirstName,
				LastName:  courier.LastName,
				Status:    courier.Status.String(),
			})
		}
		responses.WriteSuccess(w, out)
	}
}
