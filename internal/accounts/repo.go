package accounts

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/denizaksoy/ovenline-backend/pkg/db/models"
	"github.com/denizaksoy/ovenline-backend/pkg/enums"
)

// Repository manages the three role-specific account tables. Lookups never
// cross tables on a bare id; the caller always names the role.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateCustomer(ctx context.Context, customer *models.Customer) error
	FindCustomerByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	FindCustomerByUsername(ctx context.Context, username string) (*models.Customer, error)
	SaveCustomer(ctx context.Context, customer *models.Customer) error

	CreateAdmin(ctx context.Context, admin *models.Admin) error
	FindAdminByID(ctx context.Context, id uuid.UUID) (*models.Admin, error)
	FindAdminByUsername(ctx context.Context, username string) (*models.Admin, error)
	SaveAdmin(ctx context.Context, admin *models.Admin) error

	CreateCourier(ctx context.Context, courier *models.Courier) error
	FindCourierByID(ctx context.Context, id uuid.UUID) (*models.Courier, error)
	FindCourierByUsername(ctx context.Context, username string) (*models.Courier, error)
	SaveCourier(ctx context.Context, courier *models.Courier) error
	SetCourierStatus(ctx context.Context, id uuid.UUID, status enums.CourierStatus) error
	ListCouriers(ctx context.Context) ([]models.Courier, error)

	UsernameExists(ctx context.Context, role enums.ActorRole, username string) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an account repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateCustomer(ctx context.Context, customer *models.Customer) error {
	return r.db.WithContext(ctx).Create(customer).Error
}

func (r *repository) FindCustomerByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).First(&customer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *repository) FindCustomerByUsername(ctx context.Context, username string) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).First(&customer, "username = ?", username).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *repository) SaveCustomer(ctx context.Context, customer *models.Customer) error {
	return r.db.WithContext(ctx).Save(customer).Error
}

func (r *repository) CreateAdmin(ctx context.Context, admin *models.Admin) error {
	return r.db.WithContext(ctx).Create(admin).Error
}

func (r *repository) FindAdminByID(ctx context.Context, id uuid.UUID) (*models.Admin, error) {
	var admin models.Admin
	if err := r.db.WithContext(ctx).First(&admin, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &admin, nil
}

func (r *repository) FindAdminByUsername(ctx context.Context, username string) (*models.Admin, error) {
	var admin models.Admin
	if err := r.db.WithContext(ctx).First(&admin, "username = ?", username).Error; err != nil {
		return nil, err
	}
	return &admin, nil
}

func (r *repository) SaveAdmin(ctx context.Context, admin *models.Admin) error {
	return r.db.WithContext(ctx).Save(admin).Error
}

func (r *repository) CreateCourier(ctx context.Context, courier *models.Courier) error {
	return r.db.WithContext(ctx).Create(courier).Error
}

func (r *repository) FindCourierByID(ctx context.Context, id uuid.UUID) (*models.Courier, error) {
	var courier models.Courier
	if err := r.db.WithContext(ctx).First(&courier, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &courier, nil
}

func (r *repository) FindCourierByUsername(ctx context.Context, username string) (*models.Courier, error) {
	var courier models.Courier
	if err := r.db.WithContext(ctx).First(&courier, "username = ?", username).Error; err != nil {
		return nil, err
	}
	return &courier, nil
}

func (r *repository) SaveCourier(ctx context.Context, courier *models.Courier) error {
	return r.db.WithContext(ctx).Save(courier).Error
}

func (r *repository) SetCourierStatus(ctx context.Context, id uuid.UUID, status enums.CourierStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Courier{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *repository) ListCouriers(ctx context.Context) ([]models.Courier, error) {
	var couriers []models.Courier
	if err := r.db.WithContext(ctx).Order("username asc").Find(&couriers).Error; err != nil {
		return nil, err
	}
	return couriers, nil
}

func (r *repository) UsernameExists(ctx context.Context, role enums.ActorRole, username string) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx)
	switch role {
	case enums.ActorRoleCustomer:
		query = query.Model(&models.Customer{})
	case enums.ActorRoleAdmin:
		query = query.Model(&models.Admin{})
	case enums.ActorRoleCourier:
		query = query.Model(&models.Courier{})
	default:
		return false, gorm.ErrInvalidField
	}
	if err := query.Where("username = ?", username).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
