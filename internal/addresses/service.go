package addresses

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/denizaksoy/ovenline-backend/pkg/db/models"
	pkgerrors "github.com/denizaksoy/ovenline-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// AddInput captures a new delivery address.
type AddInput struct {
	Title     string
	Line      string
	IsDefault bool
}

// Service manages customer delivery addresses.
type Service interface {
	Add(ctx context.Context, customerID uuid.UUID, input AddInput) (*models.Address, error)
	List(ctx context.Context, customerID uuid.UUID) ([]models.Address, error)
	GetOwned(ctx context.Context, customerID, addressID uuid.UUID) (*models.Address, error)
	SetDefault(ctx context.Context, customerID, addressID uuid.UUID) error
	Delete(ctx context.Context, customerID, addressID uuid.UUID) error
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService wires an address service with its repository.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("address repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) Add(ctx context.Context, customerID uuid.UUID, input AddInput) (*models.Address, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer identity missing")
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address title required")
	}
	if strings.TrimSpace(input.Line) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address line required")
	}

	address := &models.Address{
		CustomerID: customerID,
		Title:      strings.TrimSpace(input.Title),
		Line:       strings.TrimSpace(input.Line),
		IsDefault:  input.IsDefault,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		count, err := repo.CountByCustomerID(ctx, customerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count addresses")
		}
		// The first address always becomes the default.
		if count == 0 {
			address.IsDefault = true
		} else if input.IsDefault {
			if err := repo.ClearDefault(ctx, customerID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear default address")
			}
		}
		if err := repo.Create(ctx, address); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create address")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return address, nil
}

func (s *service) List(ctx context.Context, customerID uuid.UUID) ([]models.Address, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer identity missing")
	}
	return s.repo.ListByCustomerID(ctx, customerID)
}

// GetOwned loads an address and verifies it belongs to the customer.
func (s *service) GetOwned(ctx context.Context, customerID, addressID uuid.UUID) (*models.Address, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer identity missing")
	}
	if addressID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address id required")
	}
	address, err := s.repo.FindByID(ctx, addressID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address")
	}
	if address.CustomerID != customerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "address does not belong to customer")
	}
	return address, nil
}

func (s *service) SetDefault(ctx context.Context, customerID, addressID uuid.UUID) error {
	address, err := s.GetOwned(ctx, customerID, addressID)
	if err != nil {
		return err
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.ClearDefault(ctx, customerID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear default address")
		}
		if err := repo.SetDefault(ctx, address.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set default address")
		}
		return nil
	})
}

// Delete removes an address unless it is the customer's last one.
func (s *service) Delete(ctx context.Context, customerID, addressID uuid.UUID) error {
	address, err := s.GetOwned(ctx, customerID, addressID)
	if err != nil {
		return err
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		count, err := repo.CountByCustomerID(ctx, customerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count addresses")
		}
		if count <= 1 {
			return pkgerrors.New(pkgerrors.CodeConflict, "cannot delete the last address")
		}
		if err := repo.Delete(ctx, address.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete address")
		}
		if address.IsDefault {
			remaining, err := repo.ListByCustomerID(ctx, customerID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list remaining addresses")
			}
			if len(remaining) > 0 {
				if err := repo.SetDefault(ctx, remaining[0].ID); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "promote new default")
				}
			}
		}
		return nil
	})
}
