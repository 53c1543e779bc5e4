package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/denizaksoy/ovenline-backend/internal/audit"
	"github.com/denizaksoy/ovenline-backend/internal/cart"
	"github.com/denizaksoy/ovenline-backend/internal/catalog"
	"github.com/denizaksoy/ovenline-backend/internal/coupons"
	"github.com/denizaksoy/ovenline-backend/internal/orders"
	"github.com/denizaksoy/ovenline-backend/internal/stock"
	"github.com/denizaksoy/ovenline-backend/pkg/db/models"
	"github.com/denizaksoy/ovenline-backend/pkg/enums"
	pkgerrors "github.com/denizaksoy/ovenline-backend/pkg/errors"
	"github.com/denizaksoy/ovenline-backend/pkg/metrics"
	"github.com/denizaksoy/ovenline-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// addressGuard verifies the shipping address belongs to the customer.
type addressGuard interface {
	GetOwned(ctx context.Context, customerID, addressID uuid.UUID) (*models.Address, error)
}

// Input is one checkout request.
type Input struct {
	CustomerID  uuid.UUID
	AddressID   uuid.UUID
	PaymentType enums.PaymentType
	CouponCode  *string
	Note        *string
}

// Service converts a cart into an order. The conversion is atomic: stock is
// reserved, the order and its ledger entries are written, and the cart is
// cleared in one transaction, or none of it happens.
type Service interface {
	Checkout(ctx context.Context, input Input) (*models.Order, error)
}

type service struct {
	cartRepo  cart.Repository
	products  catalog.Repository
	stock     stock.Service
	coupons   coupons.Service
	addresses addressGuard
	orders    orders.Repository
	audit     audit.Service
	tx        txRunner
	metrics   *metrics.OrderMetrics
}

// NewService wires the checkout engine with its collaborators.
func NewService(
	cartRepo cart.Repository,
	products catalog.Repository,
	stockSvc stock.Service,
	couponSvc coupons.Service,
	addresses addressGuard,
	orderRepo orders.Repository,
	auditSvc audit.Service,
	tx txRunner,
	m *metrics.OrderMetrics,
) (Service, error) {
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if stockSvc == nil {
		return nil, fmt.Errorf("stock service required")
	}
	if couponSvc == nil {
		return nil, fmt.Errorf("coupon service required")
	}
	if addresses == nil {
		return nil, fmt.Errorf("address guard required")
	}
	if orderRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if auditSvc == nil {
		return nil, fmt.Errorf("audit service required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		cartRepo:  cartRepo,
		products:  products,
		stock:     stockSvc,
		coupons:   couponSvc,
		addresses: addresses,
		orders:    orderRepo,
		audit:     auditSvc,
		tx:        tx,
		metrics:   m,
	}, nil
}

func (s *service) Checkout(ctx context.Context, input Input) (*models.Order, error) {
	started := time.Now()
	order, quote, err := s.checkout(ctx, input)
	if err != nil {
		s.metrics.ObserveCheckout("failed", time.Since(started))
		return nil, err
	}
	s.metrics.ObserveCheckout("succeeded", time.Since(started))

	// Redemption bookkeeping happens after commit; a failure here is logged
	// inside the coupon service and never voids the order.
	if quote != nil && quote.Coupon != nil {
		s.coupons.RecordUsage(ctx, quote.Coupon, input.CustomerID, order.ID)
	}
	return order, nil
}

func (s *service) checkout(ctx context.Context, input Input) (*models.Order, *coupons.Quote, error) {
	if input.CustomerID == uuid.Nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}
	if input.AddressID == uuid.Nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "address id required")
	}
	if !input.PaymentType.IsValid() {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment type")
	}

	if _, err := s.addresses.GetOwned(ctx, input.CustomerID, input.AddressID); err != nil {
		return nil, nil, err
	}

	items, err := s.cartRepo.ListByCustomerID(ctx, input.CustomerID)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading cart failed")
	}
	if len(items) == 0 {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	snapshot, subtotal, err := s.priceCart(ctx, items)
	if err != nil {
		return nil, nil, err
	}

	var quote *coupons.Quote
	if input.CouponCode != nil && *input.CouponCode != "" {
		quote, err = s.coupons.Validate(ctx, *input.CouponCode, input.CustomerID, subtotal)
		if err != nil {
			return nil, nil, err
		}
	}

	discount := 0
	var couponCode *string
	if quote != nil {
		discount = quote.DiscountCents
		code := quote.Coupon.Code
		couponCode = &code
	}
	if discount > subtotal {
		discount = subtotal
	}

	actor := types.Actor{ID: input.CustomerID, Role: enums.ActorRoleCustomer}
	order := &models.Order{
		CustomerID:    input.CustomerID,
		AddressID:     input.AddressID,
		Status:        enums.OrderStatusCreated,
		PaymentType:   input.PaymentType,
		SubtotalCents: subtotal,
		DiscountCents: discount,
		TotalCents:    subtotal - discount,
		CouponCode:    couponCode,
		Note:          input.Note,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		orderRepo := s.orders.WithTx(tx)
		if err := orderRepo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating order failed")
		}

		lines := make([]stock.Line, 0, len(snapshot))
		orderItems := make([]models.OrderItem, 0, len(snapshot))
		for _, item := range snapshot {
			lines = append(lines, stock.Line{ProductID: item.ProductID, Quantity: item.Quantity})
			orderItems = append(orderItems, models.OrderItem{
				OrderID:        order.ID,
				ProductID:      item.ProductID,
				ProductName:    item.ProductName,
				Quantity:       item.Quantity,
				UnitPriceCents: item.UnitPriceCents,
			})
		}

		if err := s.stock.Reserve(ctx, tx, actor, order.ID, lines); err != nil {
			return err
		}
		if err := orderRepo.CreateItems(ctx, orderItems); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating order items failed")
		}
		if err := s.audit.Append(ctx, tx, audit.AppendInput{
			OrderID:    order.ID,
			FromStatus: models.InitialFromStatus,
			ToStatus:   enums.OrderStatusCreated,
			Actor:      actor,
		}); err != nil {
			return err
		}
		if err := s.cartRepo.WithTx(tx).DeleteByCustomerID(ctx, input.CustomerID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clearing cart failed")
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	created, err := s.orders.FindByID(ctx, order.ID)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading created order failed")
	}
	return created, quote, nil
}

// priceCart snapshots product names and current unit prices for every cart
// row and computes the subtotal.
func (s *service) priceCart(ctx context.Context, items []models.CartItem) ([]models.OrderItem, int, error) {
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading products failed")
	}
	byID := make(map[uuid.UUID]*models.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	snapshot := make([]models.OrderItem, 0, len(items))
	subtotal := 0
	for _, item := range items {
		product, ok := byID[item.ProductID]
		if !ok {
			return nil, 0, pkgerrors.New(pkgerrors.CodeConflict, "product no longer exists").
				WithDetails(map[string]any{"product_id": item.ProductID})
		}
		if !product.Active {
			return nil, 0, pkgerrors.New(pkgerrors.CodeConflict, "product is no longer available").
				WithDetails(map[string]any{"product_id": item.ProductID})
		}
		snapshot = append(snapshot, models.OrderItem{
			ProductID:      product.ID,
			ProductName:    product.Name,
			Quantity:       item.Quantity,
			UnitPriceCents: product.UnitPriceCents,
		})
		subtotal += product.UnitPriceCents * item.Quantity
	}
	return snapshot, subtotal, nil
}
