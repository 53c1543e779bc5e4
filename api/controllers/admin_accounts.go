package controllers

import (
	"net/http"

	"github.com/denizaksoy/ovenline-backend/api/responses"
	"github.com/denizaksoy/ovenline-backend/api/validators"
	"github.com/denizaksoy/ovenline-backend/internal/accounts"
	"github.com/denizaksoy/ovenline-backend/pkg/enums"
	pkgerrors "github.com/denizaksoy/ovenline-backend/pkg/errors"
	"github.com/denizaksoy/ovenline-backend/pkg/logger"
)

type createStaffRequest struct {
	Role      string  `json:"role" validate:"required,oneof=admin courier"`
	FirstName string  `json:"first_name" validate:"required,min=1,max=128"`
	LastName  string  `json:"last_name" validate:"required,min=1,max=128"`
	Password  string  `json:"password" validate:"required,min=8,max=128"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,max=32"`
}

// AdminAccountsCreate provisions admin and courier accounts. Usernames
// are generated, never chosen by the caller.
func AdminAccountsCreate(svc accounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createStaffRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		role, err := enums.ParseActorRole(payload.Role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role"))
			return
		}

		session, err := svc.Register(r.Context(), accounts.RegisterInput{
			Role:      role,
			FirstName: payload.FirstName,
			LastName:  payload.LastName,
			Password:  payload.Password,
			Phone:     payload.Phone,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, session.Profile)
	}
}
