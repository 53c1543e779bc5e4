package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/denizaksoy/ovenline-backend/internal/catalog"
	"github.com/denizaksoy/ovenline-backend/internal/stock"
	"github.com/denizaksoy/ovenline-backend/pkg/db/models"
	pkgerrors "github.com/denizaksoy/ovenline-backend/pkg/errors"
)

// Line is one cart row joined with its product and current availability.
type Line struct {
	ProductID      uuid.UUID `json:"product_id"`
	Name           string    `json:"name"`
	UnitPriceCents int       `json:"unit_price_cents"`
	Quantity       int       `json:"quantity"`
	LineTotalCents int       `json:"line_total_cents"`
	Available      int       `json:"available"`
}

// View is the customer-facing cart snapshot. Availability figures are
// advisory; nothing is reserved until checkout.
type View struct {
	Items         []Line `json:"items"`
	SubtotalCents int    `json:"subtotal_cents"`
}

// Service manages the advisory cart for customers.
type Service interface {
	Add(ctx context.Context, customerID, productID uuid.UUID, quantity int) error
	Increment(ctx context.Context, customerID, productID uuid.UUID) error
	Decrement(ctx context.Context, customerID, productID uuid.UUID) error
	Remove(ctx context.Context, customerID, productID uuid.UUID) error
	Clear(ctx context.Context, customerID uuid.UUID) error
	Get(ctx context.Context, customerID uuid.UUID) (*View, error)
}

type service struct {
	repo      Repository
	products  catalog.Repository
	stockRepo stock.Repository
}

// NewService wires a cart service with its repositories.
func NewService(repo Repository, products catalog.Repository, stockRepo stock.Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if stockRepo == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	return &service{repo: repo, products: products, stockRepo: stockRepo}, nil
}

// Add upserts a cart row, accumulating quantity for repeat adds. The stock
// comparison is a courtesy rejection; checkout re-verifies under locks.
func (s *service) Add(ctx context.Context, customerID, productID uuid.UUID, quantity int) error {
	if customerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "customer identity missing")
	}
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.Active {
		return pkgerrors.New(pkgerrors.CodeValidation, "product is not available")
	}

	existing, err := s.repo.Find(ctx, customerID, productID)
	if err != nil && err != gorm.ErrRecordNotFound {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}

	target := quantity
	if existing != nil {
		target += existing.Quantity
	}
	if err := s.checkAdvisoryStock(ctx, productID, target); err != nil {
		return err
	}

	if existing != nil {
		if err := s.repo.UpdateQuantity(ctx, existing.ID, target); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
		}
		return nil
	}
	item := &models.CartItem{
		CustomerID: customerID,
		ProductID:  productID,
		Quantity:   quantity,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart item")
	}
	return nil
}

func (s *service) Increment(ctx context.Context, customerID, productID uuid.UUID) error {
	return s.Add(ctx, customerID, productID, 1)
}

// Decrement lowers the quantity by one and removes the row when it reaches
// zero.
func (s *service) Decrement(ctx context.Context, customerID, productID uuid.UUID) error {
	item, err := s.findOwned(ctx, customerID, productID)
	if err != nil {
		return err
	}
	if item.Quantity <= 1 {
		if err := s.repo.Delete(ctx, item.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart item")
		}
		return nil
	}
	if err := s.repo.UpdateQuantity(ctx, item.ID, item.Quantity-1); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
	}
	return nil
}

func (s *service) Remove(ctx context.Context, customerID, productID uuid.UUID) error {
	item, err := s.findOwned(ctx, customerID, productID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, item.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart item")
	}
	return nil
}

func (s *service) Clear(ctx context.Context, customerID uuid.UUID) error {
	if customerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "customer identity missing")
	}
	if err := s.repo.DeleteByCustomerID(ctx, customerID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

func (s *service) Get(ctx context.Context, customerID uuid.UUID) (*View, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer identity missing")
	}
	items, err := s.repo.ListByCustomerID(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart items")
	}
	view := &View{Items: []Line{}}
	if len(items) == 0 {
		return view, nil
	}

	productIDs := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		productIDs = append(productIDs, item.ProductID)
	}
	products, err := s.products.FindByIDs(ctx, productIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	byID := make(map[uuid.UUID]models.Product, len(products))
	for _, product := range products {
		byID[product.ID] = product
	}

	for _, item := range items {
		product, ok := byID[item.ProductID]
		if !ok {
			continue
		}
		available := 0
		if stockRow, err := s.stockRepo.Get(ctx, item.ProductID); err == nil {
			available = stockRow.Quantity
		}
		line := Line{
			ProductID:      item.ProductID,
			Name:           product.Name,
			UnitPriceCents: product.UnitPriceCents,
			Quantity:       item.Quantity,
			LineTotalCents: product.UnitPriceCents * item.Quantity,
			Available:      available,
		}
		view.Items = append(view.Items, line)
		view.SubtotalCents += line.LineTotalCents
	}
	return view, nil
}

func (s *service) findOwned(ctx context.Context, customerID, productID uuid.UUID) (*models.CartItem, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer identity missing")
	}
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	item, err := s.repo.Find(ctx, customerID, productID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}
	return item, nil
}

func (s *service) checkAdvisoryStock(ctx context.Context, productID uuid.UUID, requested int) error {
	stockRow, err := s.stockRepo.Get(ctx, productID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "stock row not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stock row")
	}
	if stockRow.Quantity < requested {
		return pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock").
			WithDetails(map[string]any{
				"product_id": productID,
				"requested":  requested,
				"available":  stockRow.Quantity,
			})
	}
	return nil
}
