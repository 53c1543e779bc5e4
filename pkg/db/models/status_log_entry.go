package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/denizaksoy/ovenline-backend/pkg/enums"
)

// StatusLogEntry records one order status transition. FromStatus is a plain
// string so the initial entry can carry the "-" sentinel. Entries are
// append-only and read back ordered by (created_at, id).
type StatusLogEntry struct {
	ID         uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	OrderID    uuid.UUID         `gorm:"column:order_id;type:uuid;not null;index"`
	FromStatus string            `gorm:"column:from_status;type:varchar(32);not null"`
	ToStatus   enums.OrderStatus `gorm:"column:to_status;type:varchar(32);not null"`
	ActorID    uuid.UUID         `gorm:"column:actor_id;type:uuid;not null"`
	ActorRole  enums.ActorRole   `gorm:"column:actor_role;type:varchar(16);not null"`
	Note       *string           `gorm:"column:note;type:text"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime"`
}

// InitialFromStatus marks the log entry written when an order is created.
const InitialFromStatus = "-"
