package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/danielharo/rentably-backend/pkg/enums"
)

// VendorDeliveryConfig is the per-vendor delivery pricing policy (1:1 with
// the vendor row).
type VendorDeliveryConfig struct {
	VendorID          uuid.UUID                `gorm:"column:vendor_id;type:uuid;primaryKey"`
	IsDeliveryEnabled bool                     `gorm:"column:is_delivery_enabled;not null;default:false"`
	ChargeType        enums.DeliveryChargeType `gorm:"column:charge_type;type:text;not null;default:'flat'"`
	FlatChargeCents   int64                    `gorm:"column:flat_charge_cents;not null;default:0"`
	RatePerKmCents    int64                    `gorm:"column:rate_per_km_cents;not null;default:0"`
	FreeAboveCents    *int64                   `gorm:"column:free_above_cents"`
	MaxDeliveryKm     *decimal.Decimal         `gorm:"column:max_delivery_km;type:numeric(8,2)"`
	CreatedAt         time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
