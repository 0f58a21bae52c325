package quotations

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/danielharo/rentably-backend/pkg/db/models"
	"github.com/danielharo/rentably-backend/pkg/enums"
	"github.com/danielharo/rentably-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a quotations repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, quotation *models.Quotation) error {
	if quotation.ID == uuid.Nil {
		quotation.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(quotation).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Quotation, error) {
	var quotation models.Quotation
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&quotation).Error
	if err != nil {
		return nil, err
	}
	return &quotation, nil
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Quotation, error) {
	var quotation models.Quotation
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&quotation).Error
	if err != nil {
		return nil, err
	}
	return &quotation, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Quotation{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) ListByVendor(ctx context.Context, vendorID uuid.UUID, query listQuery) ([]models.Quotation, *pagination.Cursor, error) {
	tx := r.db.WithContext(ctx).
		Preload("Items").
		Where("vendor_id = ?", vendorID)
	return listQuotations(tx, query)
}

func (r *repository) ListByCustomer(ctx context.Context, customerID uuid.UUID, query listQuery) ([]models.Quotation, *pagination.Cursor, error) {
	tx := r.db.WithContext(ctx).
		Preload("Items").
		Where("customer_id = ? AND status <> ?", customerID, enums.QuotationStatusDraft)
	return listQuotations(tx, query)
}

func listQuotations(tx *gorm.DB, query listQuery) ([]models.Quotation, *pagination.Cursor, error) {
	limit := pagination.NormalizeLimit(query.Limit)
	if query.Cursor != nil {
		tx = tx.Where("(created_at, id) < (?, ?)", query.Cursor.CreatedAt, query.Cursor.ID)
	}
	var quotations []models.Quotation
	err := tx.Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(query.Limit)).
		Find(&quotations).Error
	if err != nil {
		return nil, nil, err
	}
	if len(quotations) > limit {
		quotations = quotations[:limit]
		last := quotations[limit-1]
		return quotations, &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
	}
	return quotations, nil, nil
}

func (r *repository) FindSentBefore(ctx context.Context, cutoff time.Time) ([]models.Quotation, error) {
	var quotations []models.Quotation
	err := r.db.WithContext(ctx).
		Where("status = ? AND sent_at IS NOT NULL AND sent_at < ?", enums.QuotationStatusSent, cutoff).
		Order("sent_at ASC").
		Find(&quotations).Error
	if err != nil {
		return nil, err
	}
	return quotations, nil
}

func (r *repository) CreateItem(ctx context.Context, item *models.QuotationItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repository) FindItem(ctx context.Context, itemID uuid.UUID) (*models.QuotationItem, error) {
	var item models.QuotationItem
	err := r.db.WithContext(ctx).
		Where("id = ?", itemID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) UpdateItem(ctx context.Context, itemID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.QuotationItem{}).
		Where("id = ?", itemID).
		Updates(updates).Error
}

func (r *repository) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", itemID).
		Delete(&models.QuotationItem{}).Error
}

func (r *repository) ListItems(ctx context.Context, quotationID uuid.UUID) ([]models.QuotationItem, error) {
	var items []models.QuotationItem
	err := r.db.WithContext(ctx).
		Where("quotation_id = ?", quotationID).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) CountItems(ctx context.Context, quotationID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.QuotationItem{}).
		Where("quotation_id = ?", quotationID).
		Count(&count).Error
	return count, err
}

func (r *repository) OrderExistsForQuotation(ctx context.Context, quotationID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.RentalOrder{}).
		Where("quotation_id = ?", quotationID).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) CreatePaymentLinkLog(ctx context.Context, log *models.QuotationPaymentLinkLog) error {
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *repository) FindPaymentLinkLog(ctx context.Context, quotationID uuid.UUID) (*models.QuotationPaymentLinkLog, error) {
	var log models.QuotationPaymentLinkLog
	err := r.db.WithContext(ctx).
		Where("quotation_id = ?", quotationID).
		First(&log).Error
	if err != nil {
		return nil, err
	}
	return &log, nil
}
