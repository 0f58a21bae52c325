package analytics

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/danielharo/rentably-backend/pkg/db/models"
	"github.com/danielharo/rentably-backend/pkg/enums"
	pkgerrors "github.com/danielharo/rentably-backend/pkg/errors"
)

func setupAnalyticsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  full_name TEXT NOT NULL,
  role TEXT NOT NULL,
  vendor_id TEXT,
  is_active BOOLEAN NOT NULL DEFAULT TRUE,
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS vendors (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  owner_user_id TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS quotations (
  id TEXT PRIMARY KEY,
  vendor_id TEXT NOT NULL,
  customer_id TEXT NOT NULL,
  status TEXT NOT NULL,
  coupon_id TEXT,
  delivery_charge_cents INTEGER NOT NULL DEFAULT 0,
  sent_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS rental_orders (
  id TEXT PRIMARY KEY,
  quotation_id TEXT NOT NULL,
  vendor_id TEXT NOT NULL,
  customer_id TEXT NOT NULL,
  status TEXT NOT NULL,
  fulfillment_type TEXT NOT NULL,
  currency TEXT NOT NULL,
  subtotal_cents INTEGER NOT NULL,
  coupon_code TEXT,
  discount_cents INTEGER NOT NULL DEFAULT 0,
  delivery_charge_cents INTEGER NOT NULL DEFAULT 0,
  total_cents INTEGER NOT NULL,
  completed_at DATETIME,
  cancelled_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS invoices (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  rental_amount_cents INTEGER NOT NULL,
  security_deposit_cents INTEGER NOT NULL DEFAULT 0,
  delivery_charge_cents INTEGER NOT NULL DEFAULT 0,
  total_amount_cents INTEGER NOT NULL,
  paid_amount_cents INTEGER NOT NULL DEFAULT 0,
  status TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func adminActor() Actor {
	return Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin}
}

func seedOrder(t *testing.T, db *gorm.DB, vendorID uuid.UUID, status enums.RentalOrderStatus, totalCents int64) uuid.UUID {
	t.Helper()
	order := models.RentalOrder{
		ID:              uuid.New(),
		QuotationID:     uuid.New(),
		VendorID:        vendorID,
		CustomerID:      uuid.New(),
		Status:          status,
		FulfillmentType: enums.FulfillmentTypeStorePickup,
		Currency:        enums.CurrencyUSD,
		SubtotalCents:   totalCents,
		TotalCents:      totalCents,
	}
	require.NoError(t, db.Create(&order).Error)
	return order.ID
}

func seedVendor(t *testing.T, db *gorm.DB, name string) uuid.UUID {
	t.Helper()
	vendor := models.Vendor{ID: uuid.New(), Name: name, OwnerUserID: uuid.New()}
	require.NoError(t, db.Create(&vendor).Error)
	return vendor.ID
}

func TestPlatformStatsAggregates(t *testing.T) {
	db := setupAnalyticsTestDB(t)
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)
	ctx := context.Background()

	alphaID := seedVendor(t, db, "Alpha Rentals")
	betaID := seedVendor(t, db, "Beta Rentals")

	for _, role := range []enums.UserRole{enums.UserRoleVendor, enums.UserRoleVendor, enums.UserRoleCustomer, enums.UserRoleAdmin} {
		user := models.User{
			ID:           uuid.New(),
			Email:        uuid.NewString() + "@example.com",
			PasswordHash: "hash",
			FullName:     "User",
			Role:         role,
			IsActive:     true,
		}
		require.NoError(t, db.Create(&user).Error)
	}

	require.NoError(t, db.Create(&models.Quotation{
		ID: uuid.New(), VendorID: alphaID, CustomerID: uuid.New(), Status: enums.QuotationStatusSent,
	}).Error)
	require.NoError(t, db.Create(&models.Quotation{
		ID: uuid.New(), VendorID: alphaID, CustomerID: uuid.New(), Status: enums.QuotationStatusDraft,
	}).Error)

	alphaOrder := seedOrder(t, db, alphaID, enums.RentalOrderStatusCompleted, 5000)
	seedOrder(t, db, betaID, enums.RentalOrderStatusConfirmed, 2000)
	seedOrder(t, db, betaID, enums.RentalOrderStatusCancelled, 9000)

	require.NoError(t, db.Create(&models.Invoice{
		ID:                uuid.New(),
		OrderID:           alphaOrder,
		RentalAmountCents: 5000,
		TotalAmountCents:  5000,
		PaidAmountCents:   5000,
		Status:            enums.InvoiceStatusPaid,
	}).Error)

	stats, err := svc.PlatformStats(ctx, adminActor())
	require.NoError(t, err)

	require.Equal(t, int64(2), stats.VendorCount)
	require.Equal(t, int64(1), stats.CustomerCount)
	require.Equal(t, int64(1), stats.QuotationCounts[enums.QuotationStatusSent])
	require.Equal(t, int64(1), stats.QuotationCounts[enums.QuotationStatusDraft])
	require.Equal(t, int64(1), stats.OrderCounts[enums.RentalOrderStatusCompleted])
	require.Equal(t, int64(1), stats.OrderCounts[enums.RentalOrderStatusCancelled])
	// Cancelled orders never count toward revenue.
	require.Equal(t, int64(7000), stats.RevenueCents)
	require.Equal(t, int64(5000), stats.PaidCents)

	require.Len(t, stats.TopVendorRevenue, 2)
	require.Equal(t, "Alpha Rentals", stats.TopVendorRevenue[0].VendorName)
	require.Equal(t, int64(5000), stats.TopVendorRevenue[0].RevenueCents)
	require.Equal(t, int64(1), stats.TopVendorRevenue[0].OrderCount)
	require.Equal(t, int64(2000), stats.TopVendorRevenue[1].RevenueCents)
}

func TestPlatformStatsRequiresAdmin(t *testing.T) {
	db := setupAnalyticsTestDB(t)
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)
	ctx := context.Background()

	_, err = svc.PlatformStats(ctx, Actor{})
	requireCode(t, err, pkgerrors.CodeUnauthorized)

	_, err = svc.PlatformStats(ctx, Actor{UserID: uuid.New(), Role: enums.UserRoleVendor})
	requireCode(t, err, pkgerrors.CodeForbidden)
}

func requireCode(t *testing.T, err error, want pkgerrors.Code) {
	t.Helper()
	require.Error(t, err)
	domainErr := pkgerrors.As(err)
	require.NotNil(t, domainErr, "expected domain error, got %v", err)
	require.Equal(t, want, domainErr.Code())
}
