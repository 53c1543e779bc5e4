package models

import (
	"time"

	"github.com/google/uuid"
)

// Admin is a back-office account with order and stock authority.
type Admin struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Username     string    `gorm:"column:username;type:varchar(64);not null;uniqueIndex"`
	PasswordHash string    `gorm:"column:password_hash;type:text;not null"`
	FirstName    string    `gorm:"column:first_name;type:varchar(128);not null"`
	LastName     string    `gorm:"column:last_name;type:varchar(128);not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
