package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/denizaksoy/ovenline-backend/api/middleware"
	"github.com/denizaksoy/ovenline-backend/api/responses"
	"github.com/denizaksoy/ovenline-backend/api/validators"
	"github.com/denizaksoy/ovenline-backend/internal/stock"
	"github.com/denizaksoy/ovenline-backend/pkg/db/models"
	"github.com/denizaksoy/ovenline-backend/pkg/enums"
	pkgerrors "github.com/denizaksoy/ovenline-backend/pkg/errors"
	"github.com/denizaksoy/ovenline-backend/pkg/logger"
	"github.com/denizaksoy/ovenline-backend/pkg/pagination"
)

type stockAdjustRequest struct {
	Kind          string  `json:"kind" validate:"required,oneof=RESTOCK MANUAL_IN MANUAL_OUT"`
	Quantity      int     `json:"quantity" validate:"required,gt=0"`
	Note          *string `json:"note,omitempty" validate:"omitempty,max=500"`
	CriticalLevel *int    `json:"critical_level,omitempty" validate:"omitempty,gte=0"`
}

type stockRowResponse struct {
	ProductID     uuid.UUID `json:"product_id"`
	Quantity      int       `json:"quantity"`
	CriticalLevel int       `json:"critical_level"`
	BelowCritical bool      `json:"below_critical"`
}

type stockMovementResponse struct {
	ID        uuid.UUID  `json:"id"`
	ProductID uuid.UUID  `json:"product_id"`
	OrderID   *uuid.UUID `json:"order_id,omitempty"`
	Kind      string     `json:"kind"`
	Delta     int        `json:"delta"`
	Note      *string    `json:"note,omitempty"`
	ActorID   uuid.UUID  `json:"actor_id"`
	ActorRole string     `json:"actor_role"`
	CreatedAt time.Time  `json:"created_at"`
}

func newStockRowResponse(s models.Stock) stockRowResponse {
	return stockRowResponse{
		ProductID:     s.ProductID,
		Quantity:      s.Quantity,
		CriticalLevel: s.CriticalLevel,
		BelowCritical: s.BelowCritical(),
	}
}

// AdminStockList returns every tracked stock row.
func AdminStockList(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := make([]stockRowResponse, 0, len(rows))
		for _, row := range rows {
			out = append(out, newStockRowResponse(row))
		}
		responses.WriteSuccess(w, out)
	}
}

// AdminStockAdjust applies a manual ledger movement to one product.
func AdminStockAdjust(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParseUUIDParam(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload stockAdjustRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		kind, err := enums.ParseMovementKind(payload.Kind)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid movement kind"))
			return
		}

		row, err := svc.Adjust(r.Context(), stock.AdjustInput{
			ProductID:     productID,
			Actor:         middleware.ActorFromContext(r.Context()),
			Kind:          kind,
			Quantity:      payload.Quantity,
			Note:          payload.Note,
			CriticalLevel: payload.CriticalLevel,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newStockRowResponse(*row))
	}
}

type stockMovementPageResponse struct {
	Movements  []stockMovementResponse `json:"movements"`
	NextCursor string                  `json:"next_cursor,omitempty"`
}

// AdminStockMovements returns the movement ledger for one product,
// newest first, as a cursor page.
func AdminStockMovements(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParseUUIDParam(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.Movements(r.Context(), productID, pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := make([]stockMovementResponse, 0, len(page.Movements))
		for _, m := range page.Movements {
			out = append(out, stockMovementResponse{
				ID:        m.ID,
				ProductID: m.ProductID,
				OrderID:   m.OrderID,
				Kind:      m.Kind.String(),
				Delta:     m.Delta,
				Note:      m.Note,
				ActorID:   m.ActorID,
				ActorRole: m.ActorRole.String(),
				CreatedAt: m.CreatedAt,
			})
		}
		responses.WriteSuccess(w, stockMovementPageResponse{
			Movements:  out,
			NextCursor: page.NextCursor,
		})
	}
}

// AdminStockAudit checks the ledger sum against the live quantity.
func AdminStockAudit(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParseUUIDParam(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Audit(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
