package orders

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

// Repository defines persistence operations for rental orders and the
// invoice and return rows that hang off them.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.RentalOrder) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.RentalOrder, error)
	// FindByIDForUpdate locks the order row for a status transition.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.RentalOrder, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	ListByVendor(ctx context.Context, vendorID uuid.UUID, query listQuery) ([]models.RentalOrder, *pagination.Cursor, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID, query listQuery) ([]models.RentalOrder, *pagination.Cursor, error)

	CreateItems(ctx context.Context, items []models.OrderItem) error
	CreateInvoice(ctx context.Context, invoice *models.Invoice) error
	FindInvoiceByOrder(ctx context.Context, orderID uuid.UUID) (*models.Invoice, error)
	CreateReturn(ctx context.Context, ret *models.Return) error
	FindReturnByOrder(ctx context.Context, orderID uuid.UUID) (*models.Return, error)
}
