package controllers

import (
	"net/http"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/denizaksoy/ovenline-backend/api/responses"
	"github.com/denizaksoy/ovenline-backend/api/validators"
	"github.com/denizaksoy/ovenline-backend/internal/audit"
	"github.com/denizaksoy/ovenline-backend/internal/stock"
	"github.com/denizaksoy/ovenline-backend/pkg/logger"
	"github.com/denizaksoy/ovenline-backend/pkg/pagination"
)

type activityEntryResponse struct {
	Kind       string     `json:"kind"`
	At         time.Time  `json:"at"`
	OrderID    *uuid.UUID `json:"order_id,omitempty"`
	ProductID  *uuid.UUID `json:"product_id,omitempty"`
	FromStatus string     `json:"from_status,omitempty"`
	ToStatus   string     `json:"to_status,omitempty"`
	Movement   string     `json:"movement,omitempty"`
	Delta      int        `json:"delta,omitempty"`
	Note       *string    `json:"note,omitempty"`
}

// AdminActorActivity merges an actor's status changes and stock movements
// into one feed, newest first.
func AdminActorActivity(auditSvc audit.Service, stockSvc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, err := validators.ParseUUIDParam(r, "actorID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		changes, err := auditSvc.RecentByActor(r.Context(), actorID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		movements, err := stockSvc.RecentByActor(r.Context(), actorID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		feed := make([]activityEntryResponse, 0, len(changes)+len(movements))
		for _, entry := range changes {
			orderID := entry.OrderID
			feed = append(feed, activityEntryResponse{
				Kind:       "status_change",
				At:         entry.CreatedAt,
				OrderID:    &orderID,
				FromStatus: entry.FromStatus,
				ToStatus:   entry.ToStatus.String(),
				Note:       entry.Note,
			})
		}
		for _, m := range movements {
			productID := m.ProductID
			feed = append(feed, activityEntryResponse{
				Kind:      "stock_movement",
				At:        m.CreatedAt,
				OrderID:   m.OrderID,
				ProductID: &productID,
				Movement:  m.Kind.String(),
				Delta:     m.Delta,
				Note:      m.Note,
			})
		}
		sort.SliceStable(feed, func(i, j int) bool {
			return feed[i].At.After(feed[j].At)
		})
		if len(feed) > limit {
			feed = feed[:limit]
		}
		responses.WriteSuccess(w, feed)
	}
}
