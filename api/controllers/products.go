package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/denizaksoy/ovenline-backend/api/middleware"
	"github.com/denizaksoy/ovenline-backend/api/responses"
	"github.com/denizaksoy/ovenline-backend/api/validators"
	"github.com/denizaksoy/ovenline-backend/internal/catalog"
	"github.com/denizaksoy/ovenline-backend/pkg/db/models"
	"github.com/denizaksoy/ovenline-backend/pkg/enums"
	"github.com/denizaksoy/ovenline-backend/pkg/logger"
)

type createProductRequest struct {
	Name           string  `json:"name" validate:"required,min=1,max=255"`
	Description    *string `json:"description,omitempty"`
	UnitPriceCents int     `json:"unit_price_cents" validate:"required,min=1"`
	CriticalLevel  *int    `json:"critical_level,omitempty" validate:"omitempty,min=0"`
}

type updateProductRequest struct {
	Name           *string `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Description    *string `json:"description,omitempty"`
	UnitPriceCents *int    `json:"unit_price_cents,omitempty" validate:"omitempty,min=1"`
	Active         *bool   `json:"active,omitempty"`
}

type productResponse struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Description    *string   `json:"description,omitempty"`
	UnitPriceCents int       `json:"unit_price_cents"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"created_at"`
}

func newProductResponse(product *models.Product) productResponse {
	return productResponse{
		ID:             product.ID,
		Name:           product.Name,
		Description:    product.Description,
		UnitPriceCents: product.UnitPriceCents,
		Active:         product.Active,
		CreatedAt:      product.CreatedAt,
	}
}

// ProductsList returns the catalog. Admins see inactive products too.
func ProductsList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		activeOnly := middleware.ActorFromContext(r.Context()).Role != enums.ActorRoleAdmin

		products, err := svc.ListProducts(r.Context(), activeOnly)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := make([]productResponse, 0, len(products))
		for i := range products {
			out = append(out, newProductResponse(&products[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

func ProductsGet(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.GetProduct(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newProductResponse(product))
	}
}

func ProductsCreate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.CreateProduct(r.Context(), catalog.CreateProductInput{
			Name:           payload.Name,
			Description:    payload.Description,
			UnitPriceCents: payload.UnitPriceCents,
			CriticalLevel:  payload.CriticalLevel,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newProductResponse(product))
	}
}

func ProductsUpdate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.UpdateProduct(r.Context(), id, catalog.UpdateProductInput{
			Name:           payload.Name,
			Description:    payload.Description,
			UnitPriceCents: payload.UnitPriceCents,
			Active:         payload.Active,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newProductResponse(product))
	}
}
