package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/denizaksoy/ovenline-backend/pkg/enums"
)

// Order is the purchase record produced by checkout. Monetary fields are
// integer cents captured at checkout time; later price changes never touch
// an existing order.
type Order struct {
	ID            uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	CustomerID    uuid.UUID         `gorm:"column:customer_id;type:uuid;not null;index"`
	AddressID     uuid.UUID         `gorm:"column:address_id;type:uuid;not null"`
	Status        enums.OrderStatus `gorm:"column:status;type:varchar(32);not null"`
	PaymentType   enums.PaymentType `gorm:"column:payment_type;type:varchar(32);not null"`
	SubtotalCents int               `gorm:"column:subtotal_cents;not null"`
	DiscountCents int               `gorm:"column:discount_cents;not null;default:0"`
	TotalCents    int               `gorm:"column:total_cents;not null"`
	CouponCode    *string           `gorm:"column:coupon_code;type:varchar(64)"`
	Note          *string           `gorm:"column:note;type:text"`
	CourierID     *uuid.UUID        `gorm:"column:courier_id;type:uuid;index"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time         `gorm:"column:updated_at;autoUpdateTime"`

	Items []OrderItem `gorm:"foreignKey:OrderID"`
}
