package models

import (
	"time"

	"github.com/google/uuid"
)

// QuotationPaymentLinkLog records a hosted-checkout link sent for a
// quotation. The unique index on quotation_id is the guard: one row exists
// once a link was sent, and its presence blocks creating a second link.
type QuotationPaymentLinkLog struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	QuotationID     uuid.UUID `gorm:"column:quotation_id;type:uuid;not null;uniqueIndex:uq_payment_link_logs_quotation_id"`
	PaymentLinkID   string    `gorm:"column:payment_link_id;not null"`
	URL             string    `gorm:"column:url;not null"`
	AmountCents     int64     `gorm:"column:amount_cents;not null"`
	CreatedByUserID uuid.UUID `gorm:"column:created_by_user_id;type:uuid;not null"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
}
