package accounts

import (
	"context"

	"github.com/denizaksoy/ovenline-backend/pkg/db/models"
	"github.com/denizaksoy/ovenline-backend/pkg/enums"
	"github.com/denizaksoy/ovenline-backend/pkg/types"
)

// Profile is the role-independent view of an account.
type Profile struct {
	ID        string  `json:"id"`
	Role      string  `json:"role"`
	Username  string  `json:"username"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Email     *string `json:"email,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Status    *string `json:"status,omitempty"`
}

// ProfileUpdate carries the optional fields a profile update may change.
// Nil means leave as is.
type ProfileUpdate struct {
	FirstName    *string
	LastName     *string
	Email        *string
	Phone        *string
	PasswordHash *string
}

// Account is the polymorphic handle over the three role tables. Each variant
// applies updates against its own table; no dynamic table selection.
type Account interface {
	Actor() types.Actor
	Profile() Profile
	apply(update ProfileUpdate)
	save(ctx context.Context, repo Repository) error
}

type customerAccount struct {
	model *models.Customer
}

func (a *customerAccount) Actor() types.Actor {
	return types.Actor{ID: a.model.ID, Role: enums.ActorRoleCustomer}
}

func (a *customerAccount) Profile() Profile {
	return Profile{
		ID:        a.model.ID.String(),
		Role:      enums.ActorRoleCustomer.String(),
		Username:  a.model.Username,
		FirstName: a.model.FirstName,
		LastName:  a.model.LastName,
		Email:     a.model.Email,
		Phone:     a.model.Phone,
	}
}

func (a *customerAccount) apply(update ProfileUpdate) {
	if update.FirstName != nil {
		a.model.FirstName = *update.FirstName
	}
	if update.LastName != nil {
		a.model.LastName = *update.LastName
	}
	if update.Email != nil {
		a.model.Email = update.Email
	}
	if update.Phone != nil {
		a.model.Phone = update.Phone
	}
	if update.PasswordHash != nil {
		a.model.PasswordHash = *update.PasswordHash
	}
}

func (a *customerAccount) save(ctx context.Context, repo Repository) error {
	return repo.SaveCustomer(ctx, a.model)
}

type adminAccount struct {
	model *models.Admin
}

func (a *adminAccount) Actor() types.Actor {
	return types.Actor{ID: a.model.ID, Role: enums.ActorRoleAdmin}
}

func (a *adminAccount) Profile() Profile {
	return Profile{
		ID:        a.model.ID.String(),
		Role:      enums.ActorRoleAdmin.String(),
		Username:  a.model.Username,
		FirstName: a.model.FirstName,
		LastName:  a.model.LastName,
	}
}

func (a *adminAccount) apply(update ProfileUpdate) {
	if update.FirstName != nil {
		a.model.FirstName = *update.FirstName
	}
	if update.LastName != nil {
		a.model.LastName = *update.LastName
	}
	if update.PasswordHash != nil {
		a.model.PasswordHash = *update.PasswordHash
	}
}

func (a *adminAccount) save(ctx context.Context, repo Repository) error {
	return repo.SaveAdmin(ctx, a.model)
}

type courierAccount struct {
	model *models.Courier
}

func (a *courierAccount) Actor() types.Actor {
	return types.Actor{ID: a.model.ID, Role: enums.ActorRoleCourier}
}

func (a *courierAccount) Profile() Profile {
	status := a.model.Status.String()
	return Profile{
		ID:        a.model.ID.String(),
		Role:      enums.ActorRoleCourier.String(),
		Username:  a.model.Username,
		FirstName: a.model.FirstName,
		LastName:  a.model.LastName,
		Phone:     a.model.Phone,
		Status:    &status,
	}
}

func (a *courierAccount) apply(update ProfileUpdate) {
	if update.FirstName != nil {
		a.model.FirstName = *update.FirstName
	}
	if update.LastName != nil {
		a.model.LastName = *update.LastName
	}
	if update.Phone != nil {
		a.model.Phone = update.Phone
	}
	if update.PasswordHash != nil {
		a.model.PasswordHash = *update.PasswordHash
	}
}

func (a *courierAccount) save(ctx context.Context, repo Repository) error {
	return repo.SaveCourier(ctx, a.model)
}
