package products

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/danielharo/rentably-backend/pkg/db/models"
	"github.com/danielharo/rentably-backend/pkg/pagination"
)

// listQuery bounds a cursor-paginated listing.
type listQuery struct {
	Limit  int
	Cursor *pagination.Cursor
}

// Repository defines persistence operations for the rental catalog.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateProduct(ctx context.Context, product *models.Product) error
	FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, updates map[string]any) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	ListByVendor(ctx context.Context, vendorID uuid.UUID, query listQuery) ([]models.Product, *pagination.Cursor, error)
	ListRentable(ctx context.Context, query listQuery) ([]models.Product, *pagination.Cursor, error)

	CreateVariant(ctx context.Context, variant *models.ProductVariant) error
	FindVariant(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error)
	UpdateVariant(ctx context.Context, id uuid.UUID, updates map[string]any) error
	DeleteVariant(ctx context.Context, id uuid.UUID) error
}
