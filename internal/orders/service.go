package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/denizaksoy/ovenline-backend/internal/audit"
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

// courierDirectory is the slice of the accounts layer the order state
// machine needs: resolving a courier and flipping their availability inside
// the transition transaction.
type courierDirectory interface {
	FindCourierByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Courier, error)
	SetCourierStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status enums.CourierStatus) error
}

// TransitionInput carries one admin action against an order.
type TransitionInput struct {
	OrderID   uuid.UUID
	Action    enums.OrderAction
	Actor     types.Actor
	CourierID *uuid.UUID
	Note      *string
}

// CustomerOrders splits a customer's order history into orders still moving
// and orders that reached a terminal status.
type CustomerOrders struct {
	Active   []models.Order
	Finished []models.Order
}

// Service drives the order state machine. Admin actions go through the guard
// table under a row lock; courier claim and deliver race through conditional
// updates instead.
type Service interface {
	Transition(ctx context.Context, input TransitionInput) (*models.Order, error)
	Claim(ctx context.Context, orderID uuid.UUID, actor types.Actor) (*models.Order, error)
	Deliver(ctx context.Context, orderID uuid.UUID, actor types.Actor) (*models.Order, error)
	Get(ctx context.Context, orderID uuid.UUID, actor types.Actor) (*models.Order, error)
	ListForCustomer(ctx context.Context, customerID uuid.UUID) (*CustomerOrders, error)
	ListBoard(ctx context.Context, statuses []enums.OrderStatus) ([]models.Order, error)
	ListClaimable(ctx context.Context, courierID uuid.UUID) ([]models.Order, error)
	ListForCourier(ctx context.Context, courierID uuid.UUID) ([]models.Order, error)
	History(ctx context.Context, orderID uuid.UUID, actor types.Actor) ([]models.StatusLogEntry, error)
}

type service struct {
	repo     Repository
	stock    stock.Service
	audit    audit.Service
	couriers courierDirectory
	tx       txRunner
	metrics  *metrics.OrderMetrics
}

// NewService wires the order service with its collaborators.
func NewService(repo Repository, stockSvc stock.Service, auditSvc audit.Service, couriers courierDirectory, tx txRunner, m *metrics.OrderMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if stockSvc == nil {
		return nil, fmt.Errorf("stock service required")
	}
	if auditSvc == nil {
		return nil, fmt.Errorf("audit service required")
	}
	if couriers == nil {
		return nil, fmt.Errorf("courier directory required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:     repo,
		stock:    stockSvc,
		audit:    auditSvc,
		couriers: couriers,
		tx:       tx,
		metrics:  m,
	}, nil
}

func (s *service) Transition(ctx context.Context, input TransitionInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !input.Actor.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}
	guard, ok := transitions[input.Action]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order action").
			WithDetails(map[string]any{"action": input.Action.String()})
	}
	if input.Actor.Role != guard.actor {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "action not permitted for this role").
			WithDetails(map[string]any{"action": input.Action.String()})
	}
	switch input.Action {
	case enums.OrderActionClaim:
		return s.Claim(ctx, input.OrderID, input.Actor)
	case enums.OrderActionDeliver:
		return s.Deliver(ctx, input.OrderID, input.Actor)
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.LockByID(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order failed")
		}
		if !guard.allowsFrom(order.Status) {
			return invalidTransition(order.Status, input.Action)
		}

		from := order.Status
		courierID := order.CourierID

		switch input.Action {
		case enums.OrderActionAssignCourier:
			assigned, err := s.assignCourier(ctx, tx, input.CourierID)
			if err != nil {
				return err
			}
			courierID = assigned
		case enums.OrderActionClose:
			if order.CourierID != nil {
				if err := s.couriers.SetCourierStatus(ctx, tx, *order.CourierID, enums.CourierStatusAvailable); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "releasing courier failed")
				}
			}
		}

		if releasesStock(input.Action) {
			full, err := repo.FindByID(ctx, order.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order items failed")
			}
			lines := make([]stock.Line, 0, len(full.Items))
			for _, item := range full.Items {
				lines = append(lines, stock.Line{ProductID: item.ProductID, Quantity: item.Quantity})
			}
			if len(lines) > 0 {
				if err := s.stock.Release(ctx, tx, input.Actor, order.ID, lines); err != nil {
					return err
				}
			}
			if order.CourierID != nil {
				if err := s.couriers.SetCourierStatus(ctx, tx, *order.CourierID, enums.CourierStatusAvailable); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "releasing courier failed")
				}
			}
			courierID = nil
		}

		if err := repo.UpdateStatus(ctx, order.ID, guard.to, courierID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating order status failed")
		}
		if err := s.audit.Append(ctx, tx, audit.AppendInput{
			OrderID:    order.ID,
			FromStatus: from.String(),
			ToStatus:   guard.to,
			Actor:      input.Actor,
			Note:       input.Note,
		}); err != nil {
			return err
		}

		updated, err = repo.FindByID(ctx, order.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// assignCourier validates the target courier and marks them busy. Returns the
// courier id to store on the order.
func (s *service) assignCourier(ctx context.Context, tx *gorm.DB, courierID *uuid.UUID) (*uuid.UUID, error) {
	if courierID == nil || *courierID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "courier id required")
	}
	courier, err := s.couriers.FindCourierByID(ctx, tx, *courierID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "courier not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading courier failed")
	}
	if !courier.Status.Assignable() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "courier is not available for dispatch").
			WithDetails(map[string]any{"courier_status": courier.Status.String()})
	}
	id := courier.ID
	return &id, nil
}

func (s *service) Claim(ctx context.Context, orderID uuid.UUID, actor types.Actor) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !actor.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}
	if actor.Role != enums.ActorRoleCourier {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only couriers may claim orders")
	}

	var claimed *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		// The lock pins the from-status recorded in the ledger to the row
		// the conditional update actually sees.
		before, err := repo.LockByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order failed")
		}

		rows, err := repo.Claim(ctx, orderID, actor.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claiming order failed")
		}
		if rows == 0 {
			return s.classifyClaimLoss(ctx, repo, orderID)
		}

		if err := s.couriers.SetCourierStatus(ctx, tx, actor.ID, enums.CourierStatusBusy); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marking courier busy failed")
		}
		if err := s.audit.Append(ctx, tx, audit.AppendInput{
			OrderID:    orderID,
			FromStatus: before.Status.String(),
			ToStatus:   enums.OrderStatusInTransit,
			Actor:      actor,
		}); err != nil {
			return err
		}

		claimed, err = repo.FindByID(ctx, orderID)
		return err
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeConflict {
			s.metrics.IncClaim("lost")
		}
		return nil, err
	}
	s.metrics.IncClaim("won")
	return claimed, nil
}

// classifyClaimLoss distinguishes a race loss from a guard violation after a
// zero-row claim update.
func (s *service) classifyClaimLoss(ctx context.Context, repo Repository, orderID uuid.UUID) error {
	order, err := repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order failed")
	}
	switch {
	case order.Status == enums.OrderStatusInTransit:
		return pkgerrors.New(pkgerrors.CodeConflict, "order has already been claimed")
	case transitions[enums.OrderActionClaim].allowsFrom(order.Status):
		return pkgerrors.New(pkgerrors.CodeConflict, "order is not routed to this courier")
	default:
		return invalidTransition(order.Status, enums.OrderActionClaim)
	}
}

func (s *service) Deliver(ctx context.Context, orderID uuid.UUID, actor types.Actor) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !actor.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}
	if actor.Role != enums.ActorRoleCourier {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only couriers may deliver orders")
	}

	var delivered *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		rows, err := repo.Deliver(ctx, orderID, actor.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delivering order failed")
		}
		if rows == 0 {
			order, err := repo.FindByID(ctx, orderID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order failed")
			}
			if order.Status == enums.OrderStatusInTransit {
				return pkgerrors.New(pkgerrors.CodeForbidden, "order is claimed by another courier")
			}
			return invalidTransition(order.Status, enums.OrderActionDeliver)
		}

		if err := s.couriers.SetCourierStatus(ctx, tx, actor.ID, enums.CourierStatusAvailable); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "releasing courier failed")
		}
		if err := s.audit.Append(ctx, tx, audit.AppendInput{
			OrderID:    orderID,
			FromStatus: enums.OrderStatusInTransit.String(),
			ToStatus:   enums.OrderStatusDelivered,
			Actor:      actor,
		}); err != nil {
			return err
		}

		delivered, err = repo.FindByID(ctx, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return delivered, nil
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID, actor types.Actor) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !actor.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order failed")
	}
	if err := authorizeOrderAccess(order, actor); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) ListForCustomer(ctx context.Context, customerID uuid.UUID) (*CustomerOrders, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	orders, err := s.repo.ListByCustomerID(ctx, customerID, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing orders failed")
	}
	result := &CustomerOrders{}
	for _, order := range orders {
		if order.Status.IsTerminal() {
			result.Finished = append(result.Finished, order)
		} else {
			result.Active = append(result.Active, order)
		}
	}
	return result, nil
}

func (s *service) ListBoard(ctx context.Context, statuses []enums.OrderStatus) ([]models.Order, error) {
	for _, status := range statuses {
		if !status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status filter").
				WithDetails(map[string]any{"status": status.String()})
		}
	}
	orders, err := s.repo.ListByStatuses(ctx, statuses)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing orders failed")
	}
	return orders, nil
}

func (s *service) ListClaimable(ctx context.Context, courierID uuid.UUID) ([]models.Order, error) {
	if courierID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "courier id required")
	}
	orders, err := s.repo.ListClaimable(ctx, courierID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing claimable orders failed")
	}
	return orders, nil
}

func (s *service) ListForCourier(ctx context.Context, courierID uuid.UUID) ([]models.Order, error) {
	if courierID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "courier id required")
	}
	orders, err := s.repo.ListByCourierID(ctx, courierID, []enums.OrderStatus{
		enums.OrderStatusInTransit,
		enums.OrderStatusDelivered,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing courier orders failed")
	}
	return orders, nil
}

func (s *service) History(ctx context.Context, orderID uuid.UUID, actor types.Actor) ([]models.StatusLogEntry, error) {
	order, err := s.Get(ctx, orderID, actor)
	if err != nil {
		return nil, err
	}
	return s.audit.History(ctx, order.ID)
}

// authorizeOrderAccess enforces read visibility: admins see everything,
// customers see their own orders, couriers see orders routed to them.
func authorizeOrderAccess(order *models.Order, actor types.Actor) error {
	switch actor.Role {
	case enums.ActorRoleAdmin:
		return nil
	case enums.ActorRoleCustomer:
		if order.CustomerID == actor.ID {
			return nil
		}
	case enums.ActorRoleCourier:
		if order.CourierID != nil && *order.CourierID == actor.ID {
			return nil
		}
		if order.Status == enums.OrderStatusPreparing && order.CourierID == nil {
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "no access to this order")
}

func invalidTransition(from enums.OrderStatus, action enums.OrderAction) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, "transition not allowed from current status").
		WithDetails(map[string]any{
			"from":   from.String(),
			"action": action.String(),
		})
}
