package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/denizaksoy/ovenline-backend/internal/catalog"
	"github.com/denizaksoy/ovenline-backend/internal/stock"
	"github.com/denizaksoy/ovenline-backend/pkg/db/models"
	pkgerrors "github.com/denizaksoy/ovenline-backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:cart_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Product{}, &models.Stock{}, &models.CartItem{}); err != nil {
		t.Fatalf("migrate cart tables: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db), catalog.NewRepository(db), stock.NewRepository(db))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func seedProduct(t *testing.T, db *gorm.DB, priceCents, stockQty int) uuid.UUID {
	t.Helper()
	product := models.Product{Name: "Walnut Baklava", UnitPriceCents: priceCents, Active: true}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	if err := db.Create(&models.Stock{ProductID: product.ID, Quantity: stockQty, CriticalLevel: 2}).Error; err != nil {
		t.Fatalf("seed stock: %v", err)
	}
	return product.ID
}

func TestAddAccumulatesQuantity(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	customerID := uuid.New()
	productID := seedProduct(t, db, 1500, 10)

	if err := svc.Add(ctx, customerID, productID, 2); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if err := svc.Add(ctx, customerID, productID, 3); err != nil {
		t.Fatalf("second add: %v", err)
	}

	var item models.CartItem
	if err := db.First(&item, "customer_id = ? AND product_id = ?", customerID, productID).Error; err != nil {
		t.Fatalf("load cart item: %v", err)
	}
	if item.Quantity != 5 {
		t.Fatalf("expected accumulated quantity 5, got %d", item.Quantity)
	}
}

func TestAddRejectsBeyondAdvisoryStock(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	customerID := uuid.New()
	productID := seedProduct(t, db, 1500, 3)

	if err := svc.Add(ctx, customerID, productID, 3); err != nil {
		t.Fatalf("add within stock: %v", err)
	}
	err := svc.Add(ctx, customerID, productID, 1)
	if err == nil {
		t.Fatal("expected advisory stock rejection")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("unexpected error: %v", err)
	}
	details, ok := typed.Details().(map[string]any)
	if !ok {
		t.Fatalf("unexpected details type: %T", typed.Details())
	}
	if details["available"] != 3 {
		t.Fatalf("unexpected details: %+v", details)
	}
}

func TestAddRejectsInactiveProduct(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	productID := seedProduct(t, db, 900, 5)
	if err := db.Model(&models.Product{}).Where("id = ?", productID).Update("active", false).Error; err != nil {
		t.Fatalf("retire product: %v", err)
	}

	err := svc.Add(ctx, uuid.New(), productID, 1)
	if err == nil {
		t.Fatal("expected rejection for inactive product")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDecrementRemovesRowAtZero(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	customerID := uuid.New()
	productID := seedProduct(t, db, 700, 10)

	if err := svc.Add(ctx, customerID, productID, 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := svc.Decrement(ctx, customerID, productID); err != nil {
		t.Fatalf("first decrement: %v", err)
	}
	if err := svc.Decrement(ctx, customerID, productID); err != nil {
		t.Fatalf("second decrement: %v", err)
	}

	var count int64
	if err := db.Model(&models.CartItem{}).Where("customer_id = ?", customerID).Count(&count).Error; err != nil {
		t.Fatalf("count cart items: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected empty cart, got %d rows", count)
	}
}

func TestGetComputesTotalsAndAvailability(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	customerID := uuid.New()
	productID := seedProduct(t, db, 1200, 4)

	if err := svc.Add(ctx, customerID, productID, 2); err != nil {
		t.Fatalf("add: %v", err)
	}

	view, err := svc.Get(ctx, customerID)
	if err != nil {
		t.Fatalf("get cart: %v", err)
	}
	if len(view.Items) != 1 {
		t.Fatalf("expected 1 line, got %d", len(view.Items))
	}
	line := view.Items[0]
	if line.LineTotalCents != 2400 || view.SubtotalCents != 2400 {
		t.Fatalf("unexpected totals: line=%d subtotal=%d", line.LineTotalCents, view.SubtotalCents)
	}
	if line.Available != 4 {
		t.Fatalf("expected advisory availability 4, got %d", line.Available)
	}
}

func TestClearEmptiesCart(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	customerID := uuid.New()
	productA := seedProduct(t, db, 500, 5)
	productB := seedProduct(t, db, 300, 5)

	if err := svc.Add(ctx, customerID, productA, 1); err != nil {
		t.Fatalf("add a: %v", err)
	}
	if err := svc.Add(ctx, customerID, productB, 2); err != nil {
		t.Fatalf("add b: %v", err)
	}
	if err := svc.Clear(ctx, customerID); err != nil {
		t.Fatalf("clear: %v", err)
	}

	view, err := svc.Get(ctx, customerID)
	if err != nil {
		t.Fatalf("get cart: %v", err)
	}
	if len(view.Items) != 0 {
		t.Fatalf("expected empty cart, got %d lines", len(view.Items))
	}
}

func TestRemoveUnknownItem(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)

	err := svc.Remove(context.Background(), uuid.New(), uuid.New())
	if err == nil {
		t.Fatal("expected not found error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("unexpected error: %v", err)
	}
}
