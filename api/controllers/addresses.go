package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/denizaksoy/ovenline-backend/api/middleware"
	"github.com/denizaksoy/ovenline-backend/api/responses"
	"github.com/denizaksoy/ovenline-backend/api/validators"
	"github.com/denizaksoy/ovenline-backend/internal/addresses"
	"github.com/denizaksoy/ovenline-backend/pkg/db/models"
	"github.com/denizaksoy/ovenline-backend/pkg/logger"
)

type addressRequest struct {
	Title     string `json:"title" validate:"required,min=1,max=64"`
	Line      string `json:"line" validate:"required,min=1,max=500"`
	IsDefault bool   `json:"is_default"`
}

type addressResponse struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Line      string    `json:"line"`
	IsDefault bool      `json:"is_default"`
}

func newAddressResponse(a *models.Address) addressResponse {
	return addressResponse{
		ID:        a.ID,
		Title:     a.Title,
		Line:      a.Line,
		IsDefault: a.IsDefault,
	}
}

func AddressesList(svc addresses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := middleware.ActorFromContext(r.Context())
		list, err := svc.List(r.Context(), actor.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := make([]addressResponse, 0, len(list))
		for i := range list {
			out = append(out, newAddressResponse(&list[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

func AddressesAdd(svc addresses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload addressRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor := middleware.ActorFromContext(r.Context())
		address, err := svc.Add(r.Context(), actor.ID, addresses.AddInput{
			Title:     payload.Title,
			Line:      payload.Line,
			IsDefault: payload.IsDefault,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newAddressResponse(address))
	}
}

func AddressesSetDefault(svc addresses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		addressID, err := validators.ParseUUIDParam(r, "addressID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor := middleware.ActorFromContext(r.Context())
		if err := svc.SetDefault(r.Context(), actor.ID, addressID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "ok"})
	}
}

func AddressesDelete(svc addresses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		addressID, err := validators.ParseUUIDParam(r, "addressID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor := middleware.ActorFromContext(r.Context())
		if err := svc.Delete(r.Context(), actor.ID, addressID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "ok"})
	}
}
