package coupons

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/denizaksoy/ovenline-backend/pkg/db/models"
	pkgerrors "github.com/denizaksoy/ovenline-backend/pkg/errors"
	"github.com/denizaksoy/ovenline-backend/pkg/logger"
)

type orderCounter interface {
	CountByCustomerID(ctx context.Context, customerID uuid.UUID) (int64, error)
}

// Quote is the validated discount for a coupon applied to a subtotal.
type Quote struct {
	Coupon        *models.Coupon
	DiscountCents int
}

// Service validates coupon codes and records redemptions.
type Service interface {
	Validate(ctx context.Context, code string, customerID uuid.UUID, subtotalCents int) (*Quote, error)
	RecordUsage(ctx context.Context, coupon *models.Coupon, customerID, orderID uuid.UUID)
}

type service struct {
	repo   Repository
	orders orderCounter
	logger *logger.Logger
}

// NewService wires a coupon service with its dependencies.
func NewService(repo Repository, orders orderCounter, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("coupon repository required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order counter required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, orders: orders, logger: logg}, nil
}

func (s *service) Validate(ctx context.Context, code string, customerID uuid.UUID, subtotalCents int) (*Quote, error) {
	if strings.TrimSpace(code) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code required")
	}
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer identity missing")
	}
	if subtotalCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subtotal cannot be negative")
	}

	coupon, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
	}
	if !coupon.Active {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon is no longer active")
	}
	if coupon.ExpiresAt != nil && coupon.ExpiresAt.Before(time.Now()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon has expired")
	}
	if coupon.FirstOrderOnly {
		orders, err := s.orders.CountByCustomerID(ctx, customerID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count customer orders")
		}
		if orders > 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon is limited to first orders")
		}
	}
	if coupon.SingleUse {
		usages, err := s.repo.CountUsages(ctx, coupon.ID, customerID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count coupon usages")
		}
		if usages > 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon already used")
		}
	}

	return &Quote{
		Coupon:        coupon,
		DiscountCents: discountCents(subtotalCents, coupon.Percent),
	}, nil
}

// RecordUsage writes a redemption row after the order has committed. The
// write is best effort: a failure here never unwinds a placed order, so the
// error is logged and swallowed.
func (s *service) RecordUsage(ctx context.Context, coupon *models.Coupon, customerID, orderID uuid.UUID) {
	if coupon == nil {
		return
	}
	usage := &models.CouponUsage{
		CouponID:   coupon.ID,
		CustomerID: customerID,
		OrderID:    orderID,
	}
	if err := s.repo.CreateUsage(ctx, usage); err != nil {
		ctx = s.logger.WithFields(ctx, map[string]any{
			"coupon_code": coupon.Code,
			"order_id":    orderID.String(),
		})
		s.logger.Warn(ctx, "recording coupon usage failed: "+err.Error())
	}
}

// discountCents computes the percentage discount, flooring fractional cents.
func discountCents(subtotalCents, percent int) int {
	discount := decimal.NewFromInt(int64(subtotalCents)).
		Mul(decimal.NewFromInt(int64(percent))).
		Div(decimal.NewFromInt(100))
	return int(discount.IntPart())
}
