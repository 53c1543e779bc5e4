package stock

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/denizaksoy/ovenline-backend/pkg/db/models"
	"github.com/denizaksoy/ovenline-backend/pkg/enums"
	pkgerrors "github.com/denizaksoy/ovenline-backend/pkg/errors"
	"github.com/denizaksoy/ovenline-backend/pkg/metrics"
	"github.com/denizaksoy/ovenline-backend/pkg/pagination"
	"github.com/denizaksoy/ovenline-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Line pairs a product with a quantity for reserve and release calls.
type Line struct {
	ProductID uuid.UUID
	Quantity  int
}

// AdjustInput captures a manual stock correction by an admin.
type AdjustInput struct {
	ProductID     uuid.UUID
	Actor         types.Actor
	Kind          enums.MovementKind
	Quantity      int
	Note          *string
	CriticalLevel *int
}

// MovementPage is one page of ledger movements plus the cursor for the next.
type MovementPage struct {
	Movements  []models.StockMovement
	NextCursor string
}

// AuditResult reports the ledger consistency check for one product.
type AuditResult struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	LedgerSum int64     `json:"ledger_sum"`
	Balanced  bool      `json:"balanced"`
}

// Service owns every mutation of stock quantities. Callers never write
// quantity columns directly; each change flows through here so the movement
// ledger stays in step with the counters.
type Service interface {
	Reserve(ctx context.Context, tx *gorm.DB, actor types.Actor, orderID uuid.UUID, lines []Line) error
	Release(ctx context.Context, tx *gorm.DB, actor types.Actor, orderID uuid.UUID, lines []Line) error
	Adjust(ctx context.Context, input AdjustInput) (*models.Stock, error)
	List(ctx context.Context) ([]models.Stock, error)
	Movements(ctx context.Context, productID uuid.UUID, params pagination.Params) (*MovementPage, error)
	RecentByActor(ctx context.Context, actorID uuid.UUID, limit int) ([]models.StockMovement, error)
	Audit(ctx context.Context, productID uuid.UUID) (*AuditResult, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	metrics *metrics.OrderMetrics
}

// NewService wires a stock service with the provided repository and runner.
func NewService(repo Repository, tx txRunner, m *metrics.OrderMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, metrics: m}, nil
}

// Reserve locks every referenced stock row, verifies availability, then
// decrements quantities and appends SALE movements. The caller's transaction
// makes the whole batch atomic: any shortfall aborts without partial
// decrements.
func (s *service) Reserve(ctx context.Context, tx *gorm.DB, actor types.Actor, orderID uuid.UUID, lines []Line) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "reserve requires a transaction")
	}
	if !actor.Valid() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}
	if err := validateLines(lines); err != nil {
		return err
	}

	repo := s.repo.WithTx(tx)
	productIDs := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		productIDs = append(productIDs, line.ProductID)
	}

	stocks, err := repo.LockByProductIDs(ctx, productIDs)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock stock rows")
	}
	byProduct := make(map[uuid.UUID]*models.Stock, len(stocks))
	for i := range stocks {
		byProduct[stocks[i].ProductID] = &stocks[i]
	}

	for _, line := range lines {
		stock, ok := byProduct[line.ProductID]
		if !ok {
			return pkgerrors.New(pkgerrors.CodeNotFound, "stock row not found").
				WithDetails(map[string]any{"product_id": line.ProductID})
		}
		if stock.Quantity < line.Quantity {
			return pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock").
				WithDetails(map[string]any{
					"product_id": line.ProductID,
					"requested":  line.Quantity,
					"available":  stock.Quantity,
				})
		}
	}

	for _, line := range lines {
		stock := byProduct[line.ProductID]
		stock.Quantity -= line.Quantity
		if err := repo.Save(ctx, stock); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
		}
		movement := &models.StockMovement{
			ProductID: line.ProductID,
			OrderID:   &orderID,
			Kind:      enums.MovementKindSale,
			Delta:     -line.Quantity,
			ActorID:   actor.ID,
			ActorRole: actor.Role,
		}
		if err := repo.CreateMovement(ctx, movement); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record sale movement")
		}
		s.metrics.IncStockMovement(enums.MovementKindSale.String())
	}
	return nil
}

// Release returns reserved quantities when an order is cancelled or rejected.
// Per-line failures are aggregated so a single bad row does not hide the rest.
func (s *service) Release(ctx context.Context, tx *gorm.DB, actor types.Actor, orderID uuid.UUID, lines []Line) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "release requires a transaction")
	}
	if !actor.Valid() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}
	if err := validateLines(lines); err != nil {
		return err
	}

	repo := s.repo.WithTx(tx)
	productIDs := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		productIDs = append(productIDs, line.ProductID)
	}

	stocks, err := repo.LockByProductIDs(ctx, productIDs)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock stock rows")
	}
	byProduct := make(map[uuid.UUID]*models.Stock, len(stocks))
	for i := range stocks {
		byProduct[stocks[i].ProductID] = &stocks[i]
	}

	var errs error
	for _, line := range lines {
		stock, ok := byProduct[line.ProductID]
		if !ok {
			errs = multierr.Append(errs, fmt.Errorf("stock row missing for product %s", line.ProductID))
			continue
		}
		stock.Quantity += line.Quantity
		if err := repo.Save(ctx, stock); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("increment stock for %s: %w", line.ProductID, err))
			continue
		}
		movement := &models.StockMovement{
			ProductID: line.ProductID,
			OrderID:   &orderID,
			Kind:      enums.MovementKindReturn,
			Delta:     line.Quantity,
			ActorID:   actor.ID,
			ActorRole: actor.Role,
		}
		if err := repo.CreateMovement(ctx, movement); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("record return movement for %s: %w", line.ProductID, err))
			continue
		}
		s.metrics.IncStockMovement(enums.MovementKindReturn.String())
	}
	if errs != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, errs, "release stock")
	}
	return nil
}

// Adjust applies a manual correction in its own transaction. Outbound moves
// that would push the counter negative are refused.
func (s *service) Adjust(ctx context.Context, input AdjustInput) (*models.Stock, error) {
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if !input.Actor.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}
	if input.Actor.Role != enums.ActorRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "stock adjustments require admin role")
	}
	if input.Kind != enums.MovementKindManualIn && input.Kind != enums.MovementKindManualOut &&
		input.Kind != enums.MovementKindRestock {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid movement kind for adjustment")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	var result *models.Stock
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		stocks, err := repo.LockByProductIDs(ctx, []uuid.UUID{input.ProductID})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock stock row")
		}
		if len(stocks) == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "stock row not found")
		}
		stock := stocks[0]

		delta := input.Quantity
		if !input.Kind.IsInbound() {
			delta = -input.Quantity
		}
		if stock.Quantity+delta < 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "adjustment would drive stock negative").
				WithDetails(map[string]any{
					"product_id": input.ProductID,
					"requested":  input.Quantity,
					"available":  stock.Quantity,
				})
		}

		stock.Quantity += delta
		if input.CriticalLevel != nil {
			stock.CriticalLevel = *input.CriticalLevel
		}
		if err := repo.Save(ctx, &stock); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply adjustment")
		}

		movement := &models.StockMovement{
			ProductID: input.ProductID,
			Kind:      input.Kind,
			Delta:     delta,
			Note:      input.Note,
			ActorID:   input.Actor.ID,
			ActorRole: input.Actor.Role,
		}
		if err := repo.CreateMovement(ctx, movement); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record adjustment movement")
		}
		s.metrics.IncStockMovement(input.Kind.String())

		result = &stock
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) List(ctx context.Context) ([]models.Stock, error) {
	return s.repo.List(ctx)
}

func (s *service) Movements(ctx context.Context, productID uuid.UUID, params pagination.Params) (*MovementPage, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	movements, err := s.repo.ListMovementsByProductID(ctx, productID, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list movements")
	}

	page := &MovementPage{Movements: movements}
	if len(movements) > limit {
		page.Movements = movements[:limit]
		last := page.Movements[limit-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return page, nil
}

// RecentByActor returns the actor's latest ledger movements, newest first.
func (s *service) RecentByActor(ctx context.Context, actorID uuid.UUID, limit int) ([]models.StockMovement, error) {
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor id required")
	}
	if limit <= 0 || limit > pagination.MaxLimit {
		limit = pagination.DefaultLimit
	}
	return s.repo.ListMovementsByActorID(ctx, actorID, limit)
}

// Audit compares the stored counter against the sum of ledger deltas.
func (s *service) Audit(ctx context.Context, productID uuid.UUID) (*AuditResult, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	stock, err := s.repo.Get(ctx, productID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "stock row not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stock row")
	}
	sum, err := s.repo.SumDeltasByProductID(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum ledger deltas")
	}
	return &AuditResult{
		ProductID: productID,
		Quantity:  stock.Quantity,
		LedgerSum: sum,
		Balanced:  int64(stock.Quantity) == sum,
	}, nil
}

func validateLines(lines []Line) error {
	if len(lines) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one line required")
	}
	for _, line := range lines {
		if line.ProductID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
		}
		if line.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
		}
	}
	return nil
}
