package models

import (
	"time"

	"github.com/google/uuid"
)

// Return closes the rental lifecycle for an order. Creating one is the only
// action that moves the order to COMPLETED.
type Return struct {
	ID                   uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID              uuid.UUID `gorm:"column:order_id;type:uuid;not null;uniqueIndex:uq_returns_order_id"`
	HandledByUserID      uuid.UUID `gorm:"column:handled_by_user_id;type:uuid;not null"`
	ReturnedAt           time.Time `gorm:"column:returned_at;not null"`
	LateFeeCents         int64     `gorm:"column:late_fee_cents;not null;default:0"`
	DamageFeeCents       int64     `gorm:"column:damage_fee_cents;not null;default:0"`
	DepositRefundedCents int64     `gorm:"column:deposit_refunded_cents;not null;default:0"`
	CreatedAt            time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName keeps the table plural without colliding with the SQL keyword.
func (Return) TableName() string {
	return "rental_returns"
}
