package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/danielharo/rentably-backend/pkg/enums"
)

// RentalOrder is the paid, immutable instantiation of a quotation. The unique
// index on quotation_id enforces at most one order per quotation.
type RentalOrder struct {
	ID                  uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	QuotationID         uuid.UUID               `gorm:"column:quotation_id;type:uuid;not null;uniqueIndex:uq_rental_orders_quotation_id"`
	VendorID            uuid.UUID               `gorm:"column:vendor_id;type:uuid;not null;index"`
	CustomerID          uuid.UUID               `gorm:"column:customer_id;type:uuid;not null;index"`
	Status              enums.RentalOrderStatus `gorm:"column:status;type:text;not null;default:'confirmed'"`
	FulfillmentType     enums.FulfillmentType   `gorm:"column:fulfillment_type;type:text;not null;default:'store_pickup'"`
	Currency            enums.Currency          `gorm:"column:currency;type:text;not null;default:'USD'"`
	SubtotalCents       int64                   `gorm:"column:subtotal_cents;not null"`
	CouponCode          *string                 `gorm:"column:coupon_code"`
	DiscountCents       int64                   `gorm:"column:discount_cents;not null;default:0"`
	DeliveryChargeCents int64                   `gorm:"column:delivery_charge_cents;not null;default:0"`
	TotalCents          int64                   `gorm:"column:total_cents;not null"`
	Items               []OrderItem             `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Invoice             *Invoice                `gorm:"foreignKey:OrderID"`
	Return              *Return                 `gorm:"foreignKey:OrderID"`
	CompletedAt         *time.Time              `gorm:"column:completed_at"`
	CancelledAt         *time.Time              `gorm:"column:cancelled_at"`
	CreatedAt           time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
