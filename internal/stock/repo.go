package stock

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/denizaksoy/ovenline-backend/pkg/db/models"
	"github.com/denizaksoy/ovenline-backend/pkg/pagination"
)

// Repository manages persistence for stock rows and ledger movements.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	LockByProductIDs(ctx context.Context, productIDs []uuid.UUID) ([]models.Stock, error)
	Get(ctx context.Context, productID uuid.UUID) (*models.Stock, error)
	Save(ctx context.Context, stock *models.Stock) error
	Create(ctx context.Context, stock *models.Stock) error
	List(ctx context.Context) ([]models.Stock, error)
	CreateMovement(ctx context.Context, movement *models.StockMovement) error
	ListMovementsByProductID(ctx context.Context, productID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.StockMovement, error)
	ListMovementsByActorID(ctx context.Context, actorID uuid.UUID, limit int) ([]models.StockMovement, error)
	SumDeltasByProductID(ctx context.Context, productID uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a stock repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// LockByProductIDs loads stock rows with row locks held until the enclosing
// transaction ends. Rows are locked in ascending product id order so
// concurrent checkouts never deadlock on overlapping carts.
func (r *repository) LockByProductIDs(ctx context.Context, productIDs []uuid.UUID) ([]models.Stock, error) {
	query := r.db.WithContext(ctx).
		Where("product_id IN ?", productIDs).
		Order("product_id ASC")
	if r.db.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var stocks []models.Stock
	if err := query.Find(&stocks).Error; err != nil {
		return nil, err
	}
	return stocks, nil
}

func (r *repository) Get(ctx context.Context, productID uuid.UUID) (*models.Stock, error) {
	var stock models.Stock
	if err := r.db.WithContext(ctx).First(&stock, "product_id = ?", productID).Error; err != nil {
		return nil, err
	}
	return &stock, nil
}

func (r *repository) Save(ctx context.Context, stock *models.Stock) error {
	return r.db.WithContext(ctx).
		Model(&models.Stock{}).
		Where("product_id = ?", stock.ProductID).
		Updates(map[string]any{
			"quantity":       stock.Quantity,
			"critical_level": stock.CriticalLevel,
		}).Error
}

func (r *repository) Create(ctx context.Context, stock *models.Stock) error {
	return r.db.WithContext(ctx).Create(stock).Error
}

func (r *repository) List(ctx context.Context) ([]models.Stock, error) {
	var stocks []models.Stock
	if err := r.db.WithContext(ctx).Order("product_id ASC").Find(&stocks).Error; err != nil {
		return nil, err
	}
	return stocks, nil
}

func (r *repository) CreateMovement(ctx context.Context, movement *models.StockMovement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

// ListMovementsByProductID pages through the ledger newest first. The
// cursor pins the page boundary to (created_at, id) so concurrent inserts
// never shift rows between pages.
func (r *repository) ListMovementsByProductID(ctx context.Context, productID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.StockMovement, error) {
	query := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC, id DESC").
		Limit(limit)
	if cursor != nil {
		query = query.Where(
			"created_at < ? OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var movements []models.StockMovement
	if err := query.Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

func (r *repository) ListMovementsByActorID(ctx context.Context, actorID uuid.UUID, limit int) ([]models.StockMovement, error) {
	var movements []models.StockMovement
	if err := r.db.WithContext(ctx).
		Where("actor_id = ?", actorID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

func (r *repository) SumDeltasByProductID(ctx context.Context, productID uuid.UUID) (int64, error) {
	var sum *int64
	if err := r.db.WithContext(ctx).
		Model(&models.StockMovement{}).
		Select("SUM(delta)").
		Where("product_id = ?", productID).
		Scan(&sum).Error; err != nil {
		return 0, err
	}
	if sum == nil {
		return 0, nil
	}
	return *sum, nil
}
