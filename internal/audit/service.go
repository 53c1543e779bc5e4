package audit

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/denizaksoy/ovenline-backend/pkg/db/models"
	"github.com/denizaksoy/ovenline-backend/pkg/enums"
	pkgerrors "github.com/denizaksoy/ovenline-backend/pkg/errors"
	"github.com/denizaksoy/ovenline-backend/pkg/types"
)

const maxActivityEntries = 50

// AppendInput describes one status transition to record.
type AppendInput struct {
	OrderID    uuid.UUID
	FromStatus string
	ToStatus   enums.OrderStatus
	Actor      types.Actor
	Note       *string
}

// Service records order status transitions. Entries are append-only; the log
// is written in the same transaction as the status change it describes.
type Service interface {
	Append(ctx context.Context, tx *gorm.DB, input AppendInput) error
	History(ctx context.Context, orderID uuid.UUID) ([]models.StatusLogEntry, error)
	RecentByActor(ctx context.Context, actorID uuid.UUID, limit int) ([]models.StatusLogEntry, error)
}

type service struct {
	repo Repository
}

// NewService wires the audit service with its repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("audit repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Append(ctx context.Context, tx *gorm.DB, input AppendInput) error {
	if input.OrderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.FromStatus == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "from status required")
	}
	if !input.ToStatus.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid target status")
	}
	if !input.Actor.Valid() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}

	entry := &models.StatusLogEntry{
		OrderID:    input.OrderID,
		FromStatus: input.FromStatus,
		ToStatus:   input.ToStatus,
		ActorID:    input.Actor.ID,
		ActorRole:  input.Actor.Role,
		Note:       input.Note,
	}
	if err := s.repo.WithTx(tx).Create(ctx, entry); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append status log")
	}
	return nil
}

func (s *service) History(ctx context.Context, orderID uuid.UUID) ([]models.StatusLogEntry, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	return s.repo.ListByOrderID(ctx, orderID)
}

// RecentByActor returns the actor's latest status changes, newest first.
func (s *service) RecentByActor(ctx context.Context, actorID uuid.UUID, limit int) ([]models.StatusLogEntry, error) {
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor id required")
	}
	if limit <= 0 || limit > maxActivityEntries {
		limit = maxActivityEntries
	}
	return s.repo.ListByActorID(ctx, actorID, limit)
}
