package models

import (
	"time"

	"github.com/google/uuid"
)

// ProductVariant is a rentable configuration of a product with its own stock.
// Quantity is the total stock pool the reservation ledger draws from.
type ProductVariant struct {
	ID             uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID      uuid.UUID         `gorm:"column:product_id;type:uuid;not null;index"`
	VendorID       uuid.UUID         `gorm:"column:vendor_id;type:uuid;not null;index"`
	SKU            string            `gorm:"column:sku;not null"`
	Attributes     map[string]string `gorm:"column:attributes;type:jsonb;serializer:json"`
	Quantity       int               `gorm:"column:quantity;not null;default:0"`
	UnitPriceCents int64             `gorm:"column:unit_price_cents;not null;default:0"`
	CreatedAt      time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
