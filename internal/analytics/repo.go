package analytics

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/danielharo/rentably-backend/pkg/enums"
)

// Repository aggregates platform-wide counters straight from the primary
// database. Volumes here are vendor-back-office sized, so the sums run
// against the transactional tables instead of a separate warehouse.
type Repository interface {
	CountUsersByRole(ctx context.Context, role enums.UserRole) (int64, error)
	CountQuotationsByStatus(ctx context.Context) (map[enums.QuotationStatus]int64, error)
	CountOrdersByStatus(ctx context.Context) (map[enums.RentalOrderStatus]int64, error)
	SumOrderRevenue(ctx context.Context) (int64, error)
	SumInvoicePaid(ctx context.Context) (int64, error)
	RevenueByVendor(ctx context.Context, limit int) ([]VendorRevenue, error)
}

// VendorRevenue is one vendor's share of platform revenue.
type VendorRevenue struct {
	VendorID     uuid.UUID `gorm:"column:vendor_id" json:"vendorId"`
	VendorName   string    `gorm:"column:vendor_name" json:"vendorName"`
	OrderCount   int64     `gorm:"column:order_count" json:"orderCount"`
	RevenueCents int64     `gorm:"column:revenue_cents" json:"revenueCents"`
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a GORM-backed analytics repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CountUsersByRole(ctx context.Context, role enums.UserRole) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("users").
		Where("role = ?", role).
		Count(&count).Error
	return count, err
}

func (r *repository) CountQuotationsByStatus(ctx context.Context) (map[enums.QuotationStatus]int64, error) {
	var rows []struct {
		Status enums.QuotationStatus `gorm:"column:status"`
		Count  int64                 `gorm:"column:count"`
	}
	err := r.db.WithContext(ctx).
		Table("quotations").
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[enums.QuotationStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *repository) CountOrdersByStatus(ctx context.Context) (map[enums.RentalOrderStatus]int64, error) {
	var rows []struct {
		Status enums.RentalOrderStatus `gorm:"column:status"`
		Count  int64                   `gorm:"column:count"`
	}
	err := r.db.WithContext(ctx).
		Table("rental_orders").
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[enums.RentalOrderStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *repository) SumOrderRevenue(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Table("rental_orders").
		Where("status <> ?", enums.RentalOrderStatusCancelled).
		Select("COALESCE(SUM(total_cents), 0)").
		Scan(&total).Error
	return total, err
}

func (r *repository) SumInvoicePaid(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Table("invoices").
		Select("COALESCE(SUM(paid_amount_cents), 0)").
		Scan(&total).Error
	return total, err
}

func (r *repository) RevenueByVendor(ctx context.Context, limit int) ([]VendorRevenue, error) {
	if limit <= 0 {
		limit = defaultVendorLimit
	}
	var rows []VendorRevenue
	err := r.db.WithContext(ctx).
		Table("rental_orders").
		Select("rental_orders.vendor_id AS vendor_id, vendors.name AS vendor_name, COUNT(*) AS order_count, COALESCE(SUM(rental_orders.total_cents), 0) AS revenue_cents").
		Joins("JOIN vendors ON vendors.id = rental_orders.vendor_id").
		Where("rental_orders.status <> ?", enums.RentalOrderStatusCancelled).
		Group("rental_orders.vendor_id, vendors.name").
		Order("revenue_cents DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}
