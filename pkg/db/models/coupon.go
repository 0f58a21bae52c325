package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/danielharo/rentably-backend/pkg/enums"
)

// Coupon is a vendor discount code. Flat coupons use AmountCents; percentage
// coupons use Percent with an optional MaxDiscountCents cap.
type Coupon struct {
	ID               uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID         uuid.UUID        `gorm:"column:vendor_id;type:uuid;not null;index"`
	Code             string           `gorm:"column:code;uniqueIndex:uq_coupons_code;not null"`
	Type             enums.CouponType `gorm:"column:type;type:text;not null"`
	AmountCents      *int64           `gorm:"column:amount_cents"`
	Percent          *decimal.Decimal `gorm:"column:percent;type:numeric(5,2)"`
	MaxDiscountCents *int64           `gorm:"column:max_discount_cents"`
	ValidFrom        time.Time        `gorm:"column:valid_from;not null"`
	ValidTill        time.Time        `gorm:"column:valid_till;not null"`
	IsActive         bool             `gorm:"column:is_active;not null;default:true"`
	CreatedAt        time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
