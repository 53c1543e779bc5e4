package models

import (
	"time"

	"github.com/google/uuid"
)

// Address is a customer delivery address. A customer keeps at least one
// address once they have any; the service layer enforces the floor.
type Address struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	CustomerID uuid.UUID `gorm:"column:customer_id;type:uuid;not null;index"`
	Title      string    `gorm:"column:title;type:varchar(64);not null"`
	Line       string    `gorm:"column:line;type:text;not null"`
	IsDefault  bool      `gorm:"column:is_default;not null;default:false"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
