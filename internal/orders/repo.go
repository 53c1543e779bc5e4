package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/denizaksoy/ovenline-backend/pkg/db/models"
	"github.com/denizaksoy/ovenline-backend/pkg/enums"
)

// Repository manages persistence for orders and their items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	CreateItems(ctx context.Context, items []models.OrderItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	LockByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus, courierID *uuid.UUID) error
	Claim(ctx context.Context, orderID, courierID uuid.UUID) (int64, error)
	Deliver(ctx context.Context, orderID, courierID uuid.UUID) (int64, error)
	ListByCustomerID(ctx context.Context, customerID uuid.UUID, statuses []enums.OrderStatus) ([]models.Order, error)
	ListByStatuses(ctx context.Context, statuses []enums.OrderStatus) ([]models.Order, error)
	ListClaimable(ctx context.Context, courierID uuid.UUID) ([]models.Order, error)
	ListByCourierID(ctx context.Context, courierID uuid.UUID, statuses []enums.OrderStatus) ([]models.Order, error)
	CountByCustomerID(ctx context.Context, customerID uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an order repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Omit("Items").Create(order).Error
}

func (r *repository) CreateItems(ctx context.Context, items []models.OrderItem) error {
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// LockByID loads the order row with a row lock held until the enclosing
// transaction ends.
func (r *repository) LockByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	query := r.db.WithContext(ctx)
	if r.db.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var order models.Order
	if err := query.First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus, courierID *uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     status,
			"courier_id": courierID,
		}).Error
}

// Claim transfers the order to its assigned courier in one conditional
// update. The returned row count decides the race: zero rows means the guard
// no longer held when the update ran.
func (r *repository) Claim(ctx context.Context, orderID, courierID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status IN ? AND courier_id = ?",
			orderID,
			[]enums.OrderStatus{enums.OrderStatusCourierAssigned, enums.OrderStatusPreparing},
			courierID,
		).
		Update("status", enums.OrderStatusInTransit)
	return result.RowsAffected, result.Error
}

// Deliver completes the order in one conditional update scoped to the
// claiming courier.
func (r *repository) Deliver(ctx context.Context, orderID, courierID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ? AND courier_id = ?", orderID, enums.OrderStatusInTransit, courierID).
		Update("status", enums.OrderStatusDelivered)
	return result.RowsAffected, result.Error
}

func (r *repository) ListByCustomerID(ctx context.Context, customerID uuid.UUID, statuses []enums.OrderStatus) ([]models.Order, error) {
	query := r.db.WithContext(ctx).
		Preload("Items").
		Where("customer_id = ?", customerID)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	var orders []models.Order
	if err := query.Order("created_at DESC, id DESC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) ListByStatuses(ctx context.Context, statuses []enums.OrderStatus) ([]models.Order, error) {
	query := r.db.WithContext(ctx).Preload("Items")
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	var orders []models.Order
	if err := query.Order("created_at ASC, id ASC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// ListClaimable returns the orders routed to the courier that still await
// their pickup.
func (r *repository) ListClaimable(ctx context.Context, courierID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("status IN ? AND courier_id = ?",
			[]enums.OrderStatus{enums.OrderStatusCourierAssigned, enums.OrderStatusPreparing},
			courierID,
		).
		Order("created_at ASC, id ASC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) ListByCourierID(ctx context.Context, courierID uuid.UUID, statuses []enums.OrderStatus) ([]models.Order, error) {
	query := r.db.WithContext(ctx).
		Preload("Items").
		Where("courier_id = ?", courierID)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	var orders []models.Order
	if err := query.Order("created_at DESC, id DESC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) CountByCustomerID(ctx context.Context, customerID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("customer_id = ?", customerID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
