package accounts

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/denizaksoy/ovenline-backend/pkg/db/models"
	"github.com/denizaksoy/ovenline-backend/pkg/enums"
)

// CourierDirectory exposes courier lookups and status flips to the order
// state machine, rebinding onto the caller's transaction.
type CourierDirectory struct {
	repo Repository
}

// NewCourierDirectory wraps the account repository for order-side use.
func NewCourierDirectory(repo Repository) *CourierDirectory {
	return &CourierDirectory{repo: repo}
}

func (d *CourierDirectory) FindCourierByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Courier, error) {
	return d.repo.WithTx(tx).FindCourierByID(ctx, id)
}

func (d *CourierDirectory) SetCourierStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status enums.CourierStatus) error {
	return d.repo.WithTx(tx).SetCourierStatus(ctx, id, status)
}
