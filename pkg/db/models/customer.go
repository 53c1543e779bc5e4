package models

import (
	"time"

	"github.com/google/uuid"
)

// Customer is an end-user account. Username is generated at registration
// and unique across all account tables of the same role.
type Customer struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Username     string    `gorm:"column:username;type:varchar(64);not null;uniqueIndex"`
	PasswordHash string    `gorm:"column:password_hash;type:text;not null"`
	FirstName    string    `gorm:"column:first_name;type:varchar(128);not null"`
	LastName     string    `gorm:"column:last_name;type:varchar(128);not null"`
	Email        *string   `gorm:"column:email;type:varchar(255)"`
	Phone        *string   `gorm:"column:phone;type:varchar(32)"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
