package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/danielharo/rentably-backend/pkg/db/models"
	"github.com/danielharo/rentably-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a GORM-backed order repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.RentalOrder) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.RentalOrder, error) {
	var order models.RentalOrder
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Invoice").
		Preload("Return").
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.RentalOrder, error) {
	var order models.RentalOrder
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.RentalOrder{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) ListByVendor(ctx context.Context, vendorID uuid.UUID, query listQuery) ([]models.RentalOrder, *pagination.Cursor, error) {
	tx := r.db.WithContext(ctx).Where("vendor_id = ?", vendorID)
	return listOrders(tx, query)
}

func (r *repository) ListByCustomer(ctx context.Context, customerID uuid.UUID, query listQuery) ([]models.RentalOrder, *pagination.Cursor, error) {
	tx := r.db.WithContext(ctx).Where("customer_id = ?", customerID)
	return listOrders(tx, query)
}

func listOrders(tx *gorm.DB, query listQuery) ([]models.RentalOrder, *pagination.Cursor, error) {
	limit := pagination.NormalizeLimit(query.Limit)
	if query.Cursor != nil {
		tx = tx.Where("(created_at, id) < (?, ?)", query.Cursor.CreatedAt, query.Cursor.ID)
	}
	var orders []models.RentalOrder
	err := tx.Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(query.Limit)).
		Find(&orders).Error
	if err != nil {
		return nil, nil, err
	}
	if len(orders) > limit {
		orders = orders[:limit]
		last := orders[limit-1]
		return orders, &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
	}
	return orders, nil, nil
}

func (r *repository) CreateItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		if items[i].ID == uuid.Nil {
			items[i].ID = uuid.New()
		}
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) CreateInvoice(ctx context.Context, invoice *models.Invoice) error {
	if invoice.ID == uuid.Nil {
		invoice.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(invoice).Error
}

func (r *repository) FindInvoiceByOrder(ctx context.Context, orderID uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.WithContext(ctx).First(&invoice, "order_id = ?", orderID).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *repository) CreateReturn(ctx context.Context, ret *models.Return) error {
	if ret.ID == uuid.Nil {
		ret.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(ret).Error
}

func (r *repository) FindReturnByOrder(ctx context.Context, orderID uuid.UUID) (*models.Return, error) {
	var ret models.Return
	err := r.db.WithContext(ctx).First(&ret, "order_id = ?", orderID).Error
	if err != nil {
		return nil, err
	}
	return &ret, nil
}
