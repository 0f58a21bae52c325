package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/danielharo/rentably-backend/pkg/enums"
)

// Invoice is the billing snapshot for an order. Amount columns are fixed at
// creation; only paid_amount_cents and status move afterwards.
type Invoice struct {
	ID                   uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID              uuid.UUID           `gorm:"column:order_id;type:uuid;not null;uniqueIndex:uq_invoices_order_id"`
	RentalAmountCents    int64               `gorm:"column:rental_amount_cents;not null"`
	SecurityDepositCents int64               `gorm:"column:security_deposit_cents;not null;default:0"`
	DeliveryChargeCents  int64               `gorm:"column:delivery_charge_cents;not null;default:0"`
	TotalAmountCents     int64               `gorm:"column:total_amount_cents;not null"`
	PaidAmountCents      int64               `gorm:"column:paid_amount_cents;not null;default:0"`
	Status               enums.InvoiceStatus `gorm:"column:status;type:text;not null;default:'draft'"`
	CreatedAt            time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
