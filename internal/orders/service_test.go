package orders

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/denizaksoy/ovenline-backend/internal/audit"
	"github.com/denizaksoy/ovenline-backend/internal/stock"
	"github.com/denizaksoy/ovenline-backend/pkg/db/models"
	"github.com/denizaksoy/ovenline-backend/pkg/enums"
	pkgerrors "github.com/denizaksoy/ovenline-backend/pkg/errors"
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

type gormCourierDirectory struct {
	db *gorm.DB
}

func (d gormCourierDirectory) FindCourierByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Courier, error) {
	conn := d.db
	if tx != nil {
		conn = tx
	}
	var courier models.Courier
	if err := conn.WithContext(ctx).First(&courier, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &courier, nil
}

func (d gormCourierDirectory) SetCourierStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status enums.CourierStatus) error {
	conn := d.db
	if tx != nil {
		conn = tx
	}
	return conn.WithContext(ctx).
		Model(&models.Courier{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:orders_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Order{},
		&models.OrderItem{},
		&models.Stock{},
		&models.StockMovement{},
		&models.StatusLogEntry{},
		&models.Courier{},
	); err != nil {
		t.Fatalf("migrate order tables: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	stockSvc, err := stock.NewService(stock.NewRepository(db), gormTxRunner{db: db}, nil)
	if err != nil {
		t.Fatalf("new stock service: %v", err)
	}
	auditSvc, err := audit.NewService(audit.NewRepository(db))
	if err != nil {
		t.Fatalf("new audit service: %v", err)
	}
	svc, err := NewService(NewRepository(db), stockSvc, auditSvc, gormCourierDirectory{db: db}, gormTxRunner{db: db}, nil)
	if err != nil {
		t.Fatalf("new order service: %v", err)
	}
	return svc
}

func seedCourier(t *testing.T, db *gorm.DB, status enums.CourierStatus) *models.Courier {
	t.Helper()
	courier := &models.Courier{
		Username:     "courier_" + uuid.NewString()[:8],
		PasswordHash: "x",
		FirstName:    "Test",
		LastName:     "Courier",
		Status:       status,
	}
	if err := db.Create(courier).Error; err != nil {
		t.Fatalf("seed courier: %v", err)
	}
	return courier
}

func seedOrder(t *testing.T, db *gorm.DB, status enums.OrderStatus, courierID *uuid.UUID) *models.Order {
	t.Helper()
	order := &models.Order{
		CustomerID:    uuid.New(),
		AddressID:     uuid.New(),
		Status:        status,
		PaymentType:   enums.PaymentTypeCashOnDelivery,
		SubtotalCents: 1500,
		TotalCents:    1500,
		CourierID:     courierID,
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return order
}

func seedOrderItem(t *testing.T, db *gorm.DB, orderID, productID uuid.UUID, qty int) {
	t.Helper()
	item := &models.OrderItem{
		OrderID:        orderID,
		ProductID:      productID,
		ProductName:    "Sourdough Loaf",
		UnitPriceCents: 500,
		Quantity:       qty,
	}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("seed order item: %v", err)
	}
}

func seedStockRow(t *testing.T, db *gorm.DB, productID uuid.UUID, qty int) {
	t.Helper()
	if err := db.Create(&models.Stock{ProductID: productID, Quantity: qty, CriticalLevel: 2}).Error; err != nil {
		t.Fatalf("seed stock: %v", err)
	}
}

func countLogEntries(t *testing.T, db *gorm.DB, orderID uuid.UUID) int64 {
	t.Helper()
	var count int64
	if err := db.Model(&models.StatusLogEntry{}).Where("order_id = ?", orderID).Count(&count).Error; err != nil {
		t.Fatalf("count log entries: %v", err)
	}
	return count
}

func admin() types.Actor {
	return types.Actor{ID: uuid.New(), Role: enums.ActorRoleAdmin}
}

func TestApproveAndPrepareAdvanceTheOrder(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	actor := admin()

	order := seedOrder(t, db, enums.OrderStatusCreated, nil)

	approved, err := svc.Transition(ctx, TransitionInput{OrderID: order.ID, Action: enums.OrderActionApprove, Actor: actor})
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != enums.OrderStatusApproved {
		t.Fatalf("status = %s, want APPROVED", approved.Status)
	}

	prepared, err := svc.Transition(ctx, TransitionInput{OrderID: order.ID, Action: enums.OrderActionPrepare, Actor: actor})
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if prepared.Status != enums.OrderStatusPreparing {
		t.Fatalf("status = %s, want PREPARING", prepared.Status)
	}

	if got := countLogEntries(t, db, order.ID); got != 2 {
		t.Fatalf("log entries = %d, want 2", got)
	}
	var entries []models.StatusLogEntry
	if err := db.Where("order_id = ?", order.ID).Order("created_at asc, id asc").Find(&entries).Error; err != nil {
		t.Fatalf("load log entries: %v", err)
	}
	if entries[0].FromStatus != "CREATED" || entries[0].ToStatus != enums.OrderStatusApproved {
		t.Fatalf("first entry = %s -> %s", entries[0].FromStatus, entries[0].ToStatus)
	}
}

func TestTransitionRejectsWrongRole(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	order := seedOrder(t, db, enums.OrderStatusCreated, nil)
	courier := types.Actor{ID: uuid.New(), Role: enums.ActorRoleCourier}

	_, err := svc.Transition(ctx, TransitionInput{OrderID: order.ID, Action: enums.OrderActionApprove, Actor: courier})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("err = %v, want FORBIDDEN", err)
	}
	if got := countLogEntries(t, db, order.ID); got != 0 {
		t.Fatalf("log entries = %d, want 0", got)
	}
}

func TestInvalidTransitionReportsFromAndAction(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	order := seedOrder(t, db, enums.OrderStatusPreparing, nil)

	_, err := svc.Transition(ctx, TransitionInput{OrderID: order.ID, Action: enums.OrderActionApprove, Actor: admin()})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("err = %v, want STATE_CONFLICT", err)
	}
	details, ok := typed.Details().(map[string]any)
	if !ok {
		t.Fatalf("details missing: %v", typed.Details())
	}
	if details["from"] != "PREPARING" || details["action"] != "approve" {
		t.Fatalf("details = %v", details)
	}
}

func TestAssignCourierRequiresAvailability(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	order := seedOrder(t, db, enums.OrderStatusApproved, nil)
	offline := seedCourier(t, db, enums.CourierStatusOffline)

	_, err := svc.Transition(ctx, TransitionInput{
		OrderID:   order.ID,
		Action:    enums.OrderActionAssignCourier,
		Actor:     admin(),
		CourierID: &offline.ID,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("err = %v, want STATE_CONFLICT", err)
	}

	available := seedCourier(t, db, enums.CourierStatusAvailable)
	assigned, err := svc.Transition(ctx, TransitionInput{
		OrderID:   order.ID,
		Action:    enums.OrderActionAssignCourier,
		Actor:     admin(),
		CourierID: &available.ID,
	})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if assigned.Status != enums.OrderStatusCourierAssigned {
		t.Fatalf("status = %s, want COURIER_ASSIGNED", assigned.Status)
	}
	if assigned.CourierID == nil || *assigned.CourierID != available.ID {
		t.Fatalf("courier id = %v, want %s", assigned.CourierID, available.ID)
	}
}

func TestAssignCourierSupportsReassignment(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	first := seedCourier(t, db, enums.CourierStatusAvailable)
	second := seedCourier(t, db, enums.CourierStatusAvailable)
	order := seedOrder(t, db, enums.OrderStatusCourierAssigned, &first.ID)

	reassigned, err := svc.Transition(ctx, TransitionInput{
		OrderID:   order.ID,
		Action:    enums.OrderActionAssignCourier,
		Actor:     admin(),
		CourierID: &second.ID,
	})
	if err != nil {
		t.Fatalf("reassign: %v", err)
	}
	if reassigned.CourierID == nil || *reassigned.CourierID != second.ID {
		t.Fatalf("courier id = %v, want %s", reassigned.CourierID, second.ID)
	}
}

func TestCancelReleasesStockAndFreesCourier(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	courier := seedCourier(t, db, enums.CourierStatusBusy)
	product := uuid.New()
	seedStockRow(t, db, product, 4)

	order := seedOrder(t, db, enums.OrderStatusCourierAssigned, &courier.ID)
	seedOrderItem(t, db, order.ID, product, 3)

	cancelled, err := svc.Transition(ctx, TransitionInput{OrderID: order.ID, Action: enums.OrderActionCancel, Actor: admin()})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != enums.OrderStatusCancelled {
		t.Fatalf("status = %s, want CANCELLED", cancelled.Status)
	}
	if cancelled.CourierID != nil {
		t.Fatalf("courier id = %v, want nil", cancelled.CourierID)
	}

	var row models.Stock
	if err := db.First(&row, "product_id = ?", product).Error; err != nil {
		t.Fatalf("load stock: %v", err)
	}
	if row.Quantity != 7 {
		t.Fatalf("quantity = %d, want 7", row.Quantity)
	}

	var movement models.StockMovement
	if err := db.First(&movement, "order_id = ?", order.ID).Error; err != nil {
		t.Fatalf("load movement: %v", err)
	}
	if movement.Kind != enums.MovementKindReturn || movement.Delta != 3 {
		t.Fatalf("movement = %s delta %d", movement.Kind, movement.Delta)
	}

	var reloaded models.Courier
	if err := db.First(&reloaded, "id = ?", courier.ID).Error; err != nil {
		t.Fatalf("load courier: %v", err)
	}
	if reloaded.Status != enums.CourierStatusAvailable {
		t.Fatalf("courier status = %s, want AVAILABLE", reloaded.Status)
	}
}

func TestCancelTwiceDoesNotDoubleRelease(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	product := uuid.New()
	seedStockRow(t, db, product, 2)
	order := seedOrder(t, db, enums.OrderStatusCreated, nil)
	seedOrderItem(t, db, order.ID, product, 2)

	if _, err := svc.Transition(ctx, TransitionInput{OrderID: order.ID, Action: enums.OrderActionCancel, Actor: admin()}); err != nil {
		t.Fatalf("first cancel: %v", err)
	}

	_, err := svc.Transition(ctx, TransitionInput{OrderID: order.ID, Action: enums.OrderActionCancel, Actor: admin()})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("err = %v, want STATE_CONFLICT", err)
	}

	var row models.Stock
	if err := db.First(&row, "product_id = ?", product).Error; err != nil {
		t.Fatalf("load stock: %v", err)
	}
	if row.Quantity != 4 {
		t.Fatalf("quantity = %d, want 4", row.Quantity)
	}
	if got := countLogEntries(t, db, order.ID); got != 1 {
		t.Fatalf("log entries = %d, want 1", got)
	}
}

func TestClaimMarksOrderInTransitAndCourierBusy(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	courier := seedCourier(t, db, enums.CourierStatusAvailable)
	order := seedOrder(t, db, enums.OrderStatusCourierAssigned, &courier.ID)
	actor := types.Actor{ID: courier.ID, Role: enums.ActorRoleCourier}

	claimed, err := svc.Claim(ctx, order.ID, actor)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if claimed.Status != enums.OrderStatusInTransit {
		t.Fatalf("status = %s, want IN_TRANSIT", claimed.Status)
	}

	var reloaded models.Courier
	if err := db.First(&reloaded, "id = ?", courier.ID).Error; err != nil {
		t.Fatalf("load courier: %v", err)
	}
	if reloaded.Status != enums.CourierStatusBusy {
		t.Fatalf("courier status = %s, want BUSY", reloaded.Status)
	}
	if got := countLogEntries(t, db, order.ID); got != 1 {
		t.Fatalf("log entries = %d, want 1", got)
	}
}

func TestClaimRefusedWhenOrderNotRoutedToCourier(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	courier := seedCourier(t, db, enums.CourierStatusAvailable)
	order := seedOrder(t, db, enums.OrderStatusPreparing, nil)
	actor := types.Actor{ID: courier.ID, Role: enums.ActorRoleCourier}

	_, err := svc.Claim(ctx, order.ID, actor)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("err = %v, want CONFLICT", err)
	}

	var reloaded models.Order
	if err := db.First(&reloaded, "id = ?", order.ID).Error; err != nil {
		t.Fatalf("load order: %v", err)
	}
	if reloaded.Status != enums.OrderStatusPreparing {
		t.Fatalf("status = %s, want PREPARING", reloaded.Status)
	}
	if reloaded.CourierID != nil {
		t.Fatalf("courier id = %v, want nil", reloaded.CourierID)
	}
	if got := countLogEntries(t, db, order.ID); got != 0 {
		t.Fatalf("log entries = %d, want 0", got)
	}
}

func TestConcurrentClaimsHaveExactlyOneWinner(t *testing.T) {
	db := newTestDB(t)
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	svc := newTestService(t, db)
	ctx := context.Background()

	courier := seedCourier(t, db, enums.CourierStatusAvailable)
	order := seedOrder(t, db, enums.OrderStatusCourierAssigned, &courier.ID)
	actor := types.Actor{ID: courier.ID, Role: enums.ActorRoleCourier}

	results := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Claim(ctx, order.ID, actor)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var wins, conflicts int
	for err := range results {
		switch {
		case err == nil:
			wins++
		default:
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeConflict {
				t.Fatalf("loser err = %v, want CONFLICT", err)
			}
			conflicts++
		}
	}
	if wins != 1 || conflicts != 1 {
		t.Fatalf("wins = %d, conflicts = %d, want 1 and 1", wins, conflicts)
	}

	var reloaded models.Order
	if err := db.First(&reloaded, "id = ?", order.ID).Error; err != nil {
		t.Fatalf("load order: %v", err)
	}
	if reloaded.Status != enums.OrderStatusInTransit {
		t.Fatalf("status = %s, want IN_TRANSIT", reloaded.Status)
	}
	if got := countLogEntries(t, db, order.ID); got != 1 {
		t.Fatalf("log entries = %d, want 1", got)
	}
}

func TestClaimLosesWhenAssignedElsewhere(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	winner := seedCourier(t, db, enums.CourierStatusAvailable)
	loser := seedCourier(t, db, enums.CourierStatusAvailable)
	order := seedOrder(t, db, enums.OrderStatusCourierAssigned, &winner.ID)

	_, err := svc.Claim(ctx, order.ID, types.Actor{ID: loser.ID, Role: enums.ActorRoleCourier})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("err = %v, want CONFLICT", err)
	}
	if got := countLogEntries(t, db, order.ID); got != 0 {
		t.Fatalf("log entries = %d, want 0", got)
	}
}

func TestClaimAfterDeliveryIsAStateConflict(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	courier := seedCourier(t, db, enums.CourierStatusAvailable)
	order := seedOrder(t, db, enums.OrderStatusDelivered, nil)

	_, err := svc.Claim(ctx, order.ID, types.Actor{ID: courier.ID, Role: enums.ActorRoleCourier})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("err = %v, want STATE_CONFLICT", err)
	}
}

func TestDeliverCompletesAndFreesCourier(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	courier := seedCourier(t, db, enums.CourierStatusBusy)
	order := seedOrder(t, db, enums.OrderStatusInTransit, &courier.ID)
	actor := types.Actor{ID: courier.ID, Role: enums.ActorRoleCourier}

	delivered, err := svc.Deliver(ctx, order.ID, actor)
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if delivered.Status != enums.OrderStatusDelivered {
		t.Fatalf("status = %s, want DELIVERED", delivered.Status)
	}

	var reloaded models.Courier
	if err := db.First(&reloaded, "id = ?", courier.ID).Error; err != nil {
		t.Fatalf("load courier: %v", err)
	}
	if reloaded.Status != enums.CourierStatusAvailable {
		t.Fatalf("courier status = %s, want AVAILABLE", reloaded.Status)
	}
}

func TestDeliverByAnotherCourierIsForbidden(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	owner := seedCourier(t, db, enums.CourierStatusBusy)
	other := seedCourier(t, db, enums.CourierStatusAvailable)
	order := seedOrder(t, db, enums.OrderStatusInTransit, &owner.ID)

	_, err := svc.Deliver(ctx, order.ID, types.Actor{ID: other.ID, Role: enums.ActorRoleCourier})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("err = %v, want FORBIDDEN", err)
	}
}

func TestCloseCompletesFromInTransit(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	courier := seedCourier(t, db, enums.CourierStatusBusy)
	order := seedOrder(t, db, enums.OrderStatusInTransit, &courier.ID)

	closed, err := svc.Transition(ctx, TransitionInput{OrderID: order.ID, Action: enums.OrderActionClose, Actor: admin()})
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if closed.Status != enums.OrderStatusDelivered {
		t.Fatalf("status = %s, want DELIVERED", closed.Status)
	}
	if closed.CourierID == nil || *closed.CourierID != courier.ID {
		t.Fatalf("courier id should survive close, got %v", closed.CourierID)
	}
}

func TestListForCustomerSplitsActiveAndFinished(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	customerID := uuid.New()
	for _, status := range []enums.OrderStatus{
		enums.OrderStatusCreated,
		enums.OrderStatusInTransit,
		enums.OrderStatusDelivered,
		enums.OrderStatusCancelled,
	} {
		order := &models.Order{
			CustomerID:  customerID,
			AddressID:   uuid.New(),
			Status:      status,
			PaymentType: enums.PaymentTypeCashOnDelivery,
			TotalCents:  100,
		}
		if err := db.Create(order).Error; err != nil {
			t.Fatalf("seed order: %v", err)
		}
	}

	result, err := svc.ListForCustomer(ctx, customerID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(result.Active) != 2 {
		t.Fatalf("active = %d, want 2", len(result.Active))
	}
	if len(result.Finished) != 2 {
		t.Fatalf("finished = %d, want 2", len(result.Finished))
	}
}

func TestHistoryIsScopedToTheOwner(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	order := seedOrder(t, db, enums.OrderStatusCreated, nil)
	if _, err := svc.Transition(ctx, TransitionInput{OrderID: order.ID, Action: enums.OrderActionApprove, Actor: admin()}); err != nil {
		t.Fatalf("approve: %v", err)
	}

	stranger := types.Actor{ID: uuid.New(), Role: enums.ActorRoleCustomer}
	if _, err := svc.History(ctx, order.ID, stranger); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeForbidden {
		t.Fatalf("err = %v, want FORBIDDEN", err)
	}

	entries, err := svc.History(ctx, order.ID, types.Actor{ID: order.CustomerID, Role: enums.ActorRoleCustomer})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
}
