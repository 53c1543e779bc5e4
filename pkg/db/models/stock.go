package models

import (
	"time"

	"github.com/google/uuid"
)

// Stock tracks the on-hand quantity per product. Quantity is mutated only by
// ledger operations inside a transaction; it never goes negative.
type Stock struct {
	ProductID     uuid.UUID `gorm:"column:product_id;type:uuid;primaryKey"`
	Quantity      int       `gorm:"column:quantity;not null;default:0"`
	CriticalLevel int       `gorm:"column:critical_level;not null;default:10"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// BelowCritical reports whether the quantity has dropped to the alert level.
func (s Stock) BelowCritical() bool {
	return s.Quantity <= s.CriticalLevel
}
