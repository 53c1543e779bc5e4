package stock

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/denizaksoy/ovenline-backend/pkg/db/models"
	"github.com/denizaksoy/ovenline-backend/pkg/enums"
	pkgerrors "github.com/denizaksoy/ovenline-backend/pkg/errors"
	"github.com/denizaksoy/ovenline-backend/pkg/pagination"
	"github.com/denizaksoy/ovenline-backend/pkg/types"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(tx)
	})
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:stock_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Stock{}, &models.StockMovement{}); err != nil {
		t.Fatalf("migrate stock tables: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db), gormTxRunner{db: db}, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func seedStock(t *testing.T, db *gorm.DB, productID uuid.UUID, qty int) {
	t.Helper()
	if err := db.Create(&models.Stock{ProductID: productID, Quantity: qty, CriticalLevel: 5}).Error; err != nil {
		t.Fatalf("seed stock: %v", err)
	}
}

func adminActor() types.Actor {
	return types.Actor{ID: uuid.New(), Role: enums.ActorRoleAdmin}
}

func TestReserveDecrementsAndRecordsSales(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	productA := uuid.New()
	productB := uuid.New()
	seedStock(t, db, productA, 10)
	seedStock(t, db, productB, 4)

	orderID := uuid.New()
	actor := types.Actor{ID: uuid.New(), Role: enums.ActorRoleCustomer}
	lines := []Line{
		{ProductID: productA, Quantity: 3},
		{ProductID: productB, Quantity: 4},
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.Reserve(ctx, tx, actor, orderID, lines)
	})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}

	var stockA, stockB models.Stock
	if err := db.First(&stockA, "product_id = ?", productA).Error; err != nil {
		t.Fatalf("load stock a: %v", err)
	}
	if err := db.First(&stockB, "product_id = ?", productB).Error; err != nil {
		t.Fatalf("load stock b: %v", err)
	}
	if stockA.Quantity != 7 || stockB.Quantity != 0 {
		t.Fatalf("unexpected quantities a=%d b=%d", stockA.Quantity, stockB.Quantity)
	}

	var movements []models.StockMovement
	if err := db.Where("order_id = ?", orderID).Find(&movements).Error; err != nil {
		t.Fatalf("load movements: %v", err)
	}
	if len(movements) != 2 {
		t.Fatalf("expected 2 movements, got %d", len(movements))
	}
	for _, movement := range movements {
		if movement.Kind != enums.MovementKindSale {
			t.Fatalf("expected SALE movement, got %s", movement.Kind)
		}
		if movement.Delta >= 0 {
			t.Fatalf("expected negative delta, got %d", movement.Delta)
		}
		if movement.ActorID != actor.ID || movement.ActorRole != actor.Role {
			t.Fatalf("actor pair not recorded: %+v", movement)
		}
	}
}

func TestReserveShortfallAbortsWholeBatch(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	productA := uuid.New()
	productB := uuid.New()
	seedStock(t, db, productA, 10)
	seedStock(t, db, productB, 1)

	lines := []Line{
		{ProductID: productA, Quantity: 2},
		{ProductID: productB, Quantity: 5},
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.Reserve(ctx, tx, types.Actor{ID: uuid.New(), Role: enums.ActorRoleCustomer}, uuid.New(), lines)
	})
	if err == nil {
		t.Fatal("expected insufficient stock error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("unexpected error: %v", err)
	}
	details, ok := typed.Details().(map[string]any)
	if !ok {
		t.Fatalf("unexpected details type: %T", typed.Details())
	}
	if details["requested"] != 5 || details["available"] != 1 {
		t.Fatalf("unexpected details: %+v", details)
	}

	var stockA models.Stock
	if err := db.First(&stockA, "product_id = ?", productA).Error; err != nil {
		t.Fatalf("load stock a: %v", err)
	}
	if stockA.Quantity != 10 {
		t.Fatalf("expected rollback to keep quantity 10, got %d", stockA.Quantity)
	}

	var count int64
	if err := db.Model(&models.StockMovement{}).Count(&count).Error; err != nil {
		t.Fatalf("count movements: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no movements after rollback, got %d", count)
	}
}

func TestReleaseRestoresQuantities(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	productID := uuid.New()
	seedStock(t, db, productID, 2)
	orderID := uuid.New()

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.Release(ctx, tx, adminActor(), orderID, []Line{{ProductID: productID, Quantity: 3}})
	})
	if err != nil {
		t.Fatalf("release: %v", err)
	}

	var stock models.Stock
	if err := db.First(&stock, "product_id = ?", productID).Error; err != nil {
		t.Fatalf("load stock: %v", err)
	}
	if stock.Quantity != 5 {
		t.Fatalf("expected quantity 5, got %d", stock.Quantity)
	}

	var movement models.StockMovement
	if err := db.First(&movement, "order_id = ?", orderID).Error; err != nil {
		t.Fatalf("load movement: %v", err)
	}
	if movement.Kind != enums.MovementKindReturn || movement.Delta != 3 {
		t.Fatalf("unexpected movement: %+v", movement)
	}
}

func TestAdjustRefusesNegativeStock(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	productID := uuid.New()
	seedStock(t, db, productID, 2)

	_, err := svc.Adjust(ctx, AdjustInput{
		ProductID: productID,
		Actor:     adminActor(),
		Kind:      enums.MovementKindManualOut,
		Quantity:  3,
	})
	if err == nil {
		t.Fatal("expected negative guard error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("unexpected error: %v", err)
	}

	var stock models.Stock
	if err := db.First(&stock, "product_id = ?", productID).Error; err != nil {
		t.Fatalf("load stock: %v", err)
	}
	if stock.Quantity != 2 {
		t.Fatalf("expected untouched quantity, got %d", stock.Quantity)
	}
}

func TestAdjustRequiresAdminRole(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)

	_, err := svc.Adjust(context.Background(), AdjustInput{
		ProductID: uuid.New(),
		Actor:     types.Actor{ID: uuid.New(), Role: enums.ActorRoleCustomer},
		Kind:      enums.MovementKindManualIn,
		Quantity:  1,
	})
	if err == nil {
		t.Fatal("expected forbidden error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAuditBalancesLedgerAgainstCounter(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	productID := uuid.New()
	seedStock(t, db, productID, 0)

	if _, err := svc.Adjust(ctx, AdjustInput{
		ProductID: productID,
		Actor:     adminActor(),
		Kind:      enums.MovementKindRestock,
		Quantity:  10,
	}); err != nil {
		t.Fatalf("restock: %v", err)
	}

	orderID := uuid.New()
	if err := db.Transaction(func(tx *gorm.DB) error {
		return svc.Reserve(ctx, tx, types.Actor{ID: uuid.New(), Role: enums.ActorRoleCustomer}, orderID, []Line{{ProductID: productID, Quantity: 4}})
	}); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	audit, err := svc.Audit(ctx, productID)
	if err != nil {
		t.Fatalf("audit: %v", err)
	}
	if !audit.Balanced {
		t.Fatalf("expected balanced ledger, got %+v", audit)
	}
	if audit.Quantity != 6 || audit.LedgerSum != 6 {
		t.Fatalf("unexpected audit values: %+v", audit)
	}
}

func TestMovementsPagesNewestFirst(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	productID := uuid.New()
	seedStock(t, db, productID, 0)

	base := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		movement := models.StockMovement{
			ID:        uuid.New(),
			ProductID: productID,
			Kind:      enums.MovementKindRestock,
			Delta:     i + 1,
			ActorID:   uuid.New(),
			ActorRole: enums.ActorRoleAdmin,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := db.Create(&movement).Error; err != nil {
			t.Fatalf("seed movement: %v", err)
		}
	}

	first, err := svc.Movements(ctx, productID, pagination.Params{Limit: 2})
	if err != nil {
		t.Fatalf("first page: %v", err)
	}
	if len(first.Movements) != 2 {
		t.Fatalf("expected 2 movements, got %d", len(first.Movements))
	}
	if first.Movements[0].Delta != 5 || first.Movements[1].Delta != 4 {
		t.Fatalf("expected newest first, got %d then %d", first.Movements[0].Delta, first.Movements[1].Delta)
	}
	if first.NextCursor == "" {
		t.Fatal("expected a next cursor")
	}

	second, err := svc.Movements(ctx, productID, pagination.Params{Limit: 2, Cursor: first.NextCursor})
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	if len(second.Movements) != 2 || second.Movements[0].Delta != 3 {
		t.Fatalf("unexpected second page: %+v", second.Movements)
	}

	last, err := svc.Movements(ctx, productID, pagination.Params{Limit: 2, Cursor: second.NextCursor})
	if err != nil {
		t.Fatalf("last page: %v", err)
	}
	if len(last.Movements) != 1 || last.Movements[0].Delta != 1 {
		t.Fatalf("unexpected last page: %+v", last.Movements)
	}
	if last.NextCursor != "" {
		t.Fatalf("expected no cursor on the last page, got %q", last.NextCursor)
	}
}

func TestMovementsRejectsMalformedCursor(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)

	_, err := svc.Movements(context.Background(), uuid.New(), pagination.Params{Cursor: "not-a-cursor"})
	if err == nil {
		t.Fatal("expected cursor validation error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestReserveValidatesLines(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.Reserve(context.Background(), tx, adminActor(), uuid.New(), []Line{{ProductID: uuid.New(), Quantity: 0}})
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error: %v", err)
	}
}
