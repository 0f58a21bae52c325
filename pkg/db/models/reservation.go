package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/danielharo/rentably-backend/pkg/enums"
)

// Reservation holds a quantity of a variant against a date window for an
// order. Rows with status reserved/with_customer consume stock; available
// rows have been released back into the pool.
type Reservation struct {
	ID        uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VariantID uuid.UUID               `gorm:"column:variant_id;type:uuid;not null;index"`
	OrderID   uuid.UUID               `gorm:"column:order_id;type:uuid;not null;index"`
	StartDate time.Time               `gorm:"column:start_date;not null"`
	EndDate   time.Time               `gorm:"column:end_date;not null"`
	Quantity  int                     `gorm:"column:quantity;not null"`
	Status    enums.ReservationStatus `gorm:"column:status;type:text;not null;default:'reserved'"`
	CreatedAt time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
