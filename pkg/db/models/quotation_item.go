package models

import (
	"time"

	"github.com/google/uuid"
)

// QuotationItem is one rented variant within a quotation.
type QuotationItem struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	QuotationID    uuid.UUID `gorm:"column:quotation_id;type:uuid;not null;index"`
	VariantID      uuid.UUID `gorm:"column:variant_id;type:uuid;not null"`
	Quantity       int       `gorm:"column:quantity;not null"`
	RentalStart    time.Time `gorm:"column:rental_start;not null"`
	RentalEnd      time.Time `gorm:"column:rental_end;not null"`
	UnitPriceCents int64     `gorm:"column:unit_price_cents;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
