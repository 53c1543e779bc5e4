package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/denizaksoy/ovenline-backend/pkg/enums"
)

// Courier is a delivery account. Status gates whether the courier may be
// assigned to or claim orders.
type Courier struct {
	ID           uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	Username     string              `gorm:"column:username;type:varchar(64);not null;uniqueIndex"`
	PasswordHash string              `gorm:"column:password_hash;type:text;not null"`
	FirstName    string              `gorm:"column:first_name;type:varchar(128);not null"`
	LastName     string              `gorm:"column:last_name;type:varchar(128);not null"`
	Phone        *string             `gorm:"column:phone;type:varchar(32)"`
	Status       enums.CourierStatus `gorm:"column:status;type:varchar(16);not null;default:AVAILABLE"`
	CreatedAt    time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
