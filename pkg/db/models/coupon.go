package models

import (
	"time"

	"github.com/google/uuid"
)

// Coupon is a percentage discount code. Percent is whole points (1-100).
type Coupon struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Code           string     `gorm:"column:code;type:varchar(64);not null;uniqueIndex"`
	Percent        int        `gorm:"column:percent;not null"`
	ExpiresAt      *time.Time `gorm:"column:expires_at"`
	FirstOrderOnly bool       `gorm:"column:first_order_only;not null;default:false"`
	SingleUse      bool       `gorm:"column:single_use;not null;default:false"`
	Active         bool       `gorm:"column:active;not null;default:true"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
