package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/denizaksoy/ovenline-backend/api/middleware"
	"github.com/denizaksoy/ovenline-backend/api/responses"
	"github.com/denizaksoy/ovenline-backend/api/validators"
	checkoutsvc "github.com/denizaksoy/ovenline-backend/internal/checkout"
	"github.com/denizaksoy/ovenline-backend/pkg/enums"
	pkgerrors "github.com/denizaksoy/ovenline-backend/pkg/errors"
	"github.com/denizaksoy/ovenline-backend/pkg/logger"
)

type checkoutRequest struct {
	AddressID   uuid.UUID `json:"address_id" validate:"required"`
	PaymentType string    `json:"payment_type" validate:"required,oneof=CASH_ON_DELIVERY CARD_ON_DELIVERY"`
	CouponCode  *string   `json:"coupon_code,omitempty" validate:"omitempty,min=1,max=64"`
	Note        *string   `json:"note,omitempty" validate:"omitempty,max=500"`
}

// Checkout converts the customer's cart into an order.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		paymentType, err := enums.ParsePaymentType(payload.PaymentType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment type"))
			return
		}

		actor := middleware.ActorFromContext(r.Context())
		order, err := svc.Checkout(r.Context(), checkoutsvc.Input{
			CustomerID:  actor.ID,
			AddressID:   payload.AddressID,
			PaymentType: paymentType,
			CouponCode:  payload.CouponCode,
			Note:        payload.Note,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newOrderResponse(order))
	}
}
