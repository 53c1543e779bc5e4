package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/denizaksoy/ovenline-backend/pkg/enums"
)

// StockMovement is an append-only ledger row. Delta is signed; the sum of
// deltas per product equals the current stock quantity. Rows are written in
// the same transaction as the quantity change and are never updated.
type StockMovement struct {
	ID        uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	ProductID uuid.UUID          `gorm:"column:product_id;type:uuid;not null;index"`
	OrderID   *uuid.UUID         `gorm:"column:order_id;type:uuid;index"`
	Kind      enums.MovementKind `gorm:"column:kind;type:varchar(32);not null"`
	Delta     int                `gorm:"column:delta;not null"`
	Note      *string            `gorm:"column:note;type:text"`
	ActorID   uuid.UUID          `gorm:"column:actor_id;type:uuid;not null"`
	ActorRole enums.ActorRole    `gorm:"column:actor_role;type:varchar(16);not null"`
	CreatedAt time.Time          `gorm:"column:created_at;autoCreateTime"`
}
