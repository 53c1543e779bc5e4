package models

import (
	"time"

	"github.com/google/uuid"
)

// CouponUsage records a coupon redemption. Writes are best effort and a
// failed insert never fails the checkout that triggered it.
type CouponUsage struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	CouponID   uuid.UUID `gorm:"column:coupon_id;type:uuid;not null;index"`
	CustomerID uuid.UUID `gorm:"column:customer_id;type:uuid;not null;index"`
	OrderID    uuid.UUID `gorm:"column:order_id;type:uuid;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}
