package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderItem is a copy of a QuotationItem frozen at order-creation time so the
// billed price, quantity, and rental window survive later catalog edits.
type OrderItem struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	VariantID      uuid.UUID `gorm:"column:variant_id;type:uuid;not null"`
	Quantity       int       `gorm:"column:quantity;not null"`
	RentalStart    time.Time `gorm:"column:rental_start;not null"`
	RentalEnd      time.Time `gorm:"column:rental_end;not null"`
	UnitPriceCents int64     `gorm:"column:unit_price_cents;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}
