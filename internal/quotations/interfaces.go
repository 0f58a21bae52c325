package quotations

import (
	"context"
	"time"

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

// Repository defines persistence operations for quotations and their items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, quotation *models.Quotation) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Quotation, error)
	// FindByIDForUpdate locks the quotation row so guard checks and the
	// following write observe the same status.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Quotation, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	ListByVendor(ctx context.Context, vendorID uuid.UUID, query listQuery) ([]models.Quotation, *pagination.Cursor, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID, query listQuery) ([]models.Quotation, *pagination.Cursor, error)
	FindSentBefore(ctx context.Context, cutoff time.Time) ([]models.Quotation, error)

	CreateItem(ctx context.Context, item *models.QuotationItem) error
	FindItem(ctx context.Context, itemID uuid.UUID) (*models.QuotationItem, error)
	UpdateItem(ctx context.Context, itemID uuid.UUID, updates map[string]any) error
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
	ListItems(ctx context.Context, quotationID uuid.UUID) ([]models.QuotationItem, error)
	CountItems(ctx context.Context, quotationID uuid.UUID) (int64, error)

	OrderExistsForQuotation(ctx context.Context, quotationID uuid.UUID) (bool, error)
	CreatePaymentLinkLog(ctx context.Context, log *models.QuotationPaymentLinkLog) error
	FindPaymentLinkLog(ctx context.Context, quotationID uuid.UUID) (*models.QuotationPaymentLinkLog, error)
}
