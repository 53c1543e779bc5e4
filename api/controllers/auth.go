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

type registerRequest struct {
	FirstName string  `json:"first_name" validate:"required,min=1,max=128"`
	LastName  string  `json:"last_name" validate:"required,min=1,max=128"`
	Password  string  `json:"password" validate:"required,min=8,max=128"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,max=32"`
}

type loginRequest struct {
	Role     string `json:"role" validate:"required,oneof=customer admin courier"`
	Username string `json:"username" validate:"required,min=1,max=64"`
	Password string `json:"password" validate:"required,min=1,max=128"`
}

type sessionResponse struct {
	Token   string           `json:"token"`
	Profile accounts.Profile `json:"profile"`
}

// AuthRegister creates a customer account. Admin and courier accounts are
// provisioned through the admin surface.
func AuthRegister(svc accounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload registerRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.Register(r.Context(), accounts.RegisterInput{
			Role:      enums.ActorRoleCustomer,
			FirstName: payload.FirstName,
			LastName:  payload.LastName,
			Password:  payload.Password,
			Email:     payload.Email,
			Phone:     payload.Phone,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, sessionResponse{Token: session.Token, Profile: session.Profile})
	}
}

func AuthLogin(svc accounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload loginRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		role, err := enums.ParseActorRole(payload.Role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role"))
			return
		}

		session, err := svc.Login(r.Context(), accounts.LoginInput{
			Role:     role,
			Username: payload.Username,
			Password: payload.Password,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sessionResponse{Token: session.Token, Profile: session.Profile})
	}
}
