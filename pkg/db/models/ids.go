package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Primary keys are assigned client side so inserts never depend on a server
// side uuid function being present.

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (p *Product) BeforeCreate(*gorm.DB) error        { ensureID(&p.ID); return nil }
func (c *CartItem) BeforeCreate(*gorm.DB) error       { ensureID(&c.ID); return nil }
func (o *Order) BeforeCreate(*gorm.DB) error          { ensureID(&o.ID); return nil }
func (i *OrderItem) BeforeCreate(*gorm.DB) error      { ensureID(&i.ID); return nil }
func (m *StockMovement) BeforeCreate(*gorm.DB) error  { ensureID(&m.ID); return nil }
func (e *StatusLogEntry) BeforeCreate(*gorm.DB) error { ensureID(&e.ID); return nil }
func (c *Customer) BeforeCreate(*gorm.DB) error       { ensureID(&c.ID); return nil }
func (a *Admin) BeforeCreate(*gorm.DB) error          { ensureID(&a.ID); return nil }
func (c *Courier) BeforeCreate(*gorm.DB) error        { ensureID(&c.ID); return nil }
func (a *Address) BeforeCreate(*gorm.DB) error        { ensureID(&a.ID); return nil }
func (c *Coupon) BeforeCreate(*gorm.DB) error         { ensureID(&c.ID); return nil }
func (u *CouponUsage) BeforeCreate(*gorm.DB) error    { ensureID(&u.ID); return nil }
