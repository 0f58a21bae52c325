package models

import (
	"time"

	"github.com/google/uuid"
)

// Product groups the rentable variants a vendor offers.
type Product struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID    uuid.UUID        `gorm:"column:vendor_id;type:uuid;not null;index"`
	Title       string           `gorm:"column:title;not null"`
	Description *string          `gorm:"column:description"`
	IsRentable  bool             `gorm:"column:is_rentable;not null;default:true"`
	Variants    []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
