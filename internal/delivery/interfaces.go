package delivery

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/danielharo/rentably-backend/pkg/db/models"
)

// Repository defines persistence operations for vendor delivery configs.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindConfigByVendor(ctx context.Context, vendorID uuid.UUID) (*models.VendorDeliveryConfig, error)
	UpsertConfig(ctx context.Context, cfg *models.VendorDeliveryConfig) error
}
