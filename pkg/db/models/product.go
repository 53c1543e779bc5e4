package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is the catalog entry customers order from. Pricing shown here is
// the live price; orders snapshot it at checkout time.
type Product struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name           string    `gorm:"column:name;not null"`
	Description    *string   `gorm:"column:description"`
	UnitPriceCents int       `gorm:"column:unit_price_cents;not null"`
	Active         bool      `gorm:"column:active;not null;default:true"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
