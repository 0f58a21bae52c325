package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/danielharo/rentably-backend/pkg/enums"
)

// Quotation is a vendor-authored rental proposal for one customer.
// Items are mutable only in DRAFT; coupon and delivery charge only in SENT.
type Quotation struct {
	ID                  uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID            uuid.UUID             `gorm:"column:vendor_id;type:uuid;not null;index"`
	CustomerID          uuid.UUID             `gorm:"column:customer_id;type:uuid;not null;index"`
	Status              enums.QuotationStatus `gorm:"column:status;type:text;not null;default:'draft'"`
	CouponID            *uuid.UUID            `gorm:"column:coupon_id;type:uuid"`
	DeliveryChargeCents int64                 `gorm:"column:delivery_charge_cents;not null;default:0"`
	SentAt              *time.Time            `gorm:"column:sent_at"`
	Items               []QuotationItem       `gorm:"foreignKey:QuotationID;constraint:OnDelete:CASCADE"`
	CreatedAt           time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
