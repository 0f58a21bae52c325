package analytics

import (
	"context"

	"github.com/google/uuid"

	"github.com/danielharo/rentably-backend/pkg/enums"
	pkgerrors "github.com/danielharo/rentably-backend/pkg/errors"
)

const defaultVendorLimit = 10

// Actor identifies who requests the report.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// PlatformStats is the admin dashboard snapshot.
type PlatformStats struct {
	VendorCount      int64                             `json:"vendorCount"`
	CustomerCount    int64                             `json:"customerCount"`
	QuotationCounts  map[enums.QuotationStatus]int64   `json:"quotationCounts"`
	OrderCounts      map[enums.RentalOrderStatus]int64 `json:"orderCounts"`
	RevenueCents     int64                             `json:"revenueCents"`
	PaidCents        int64                             `json:"paidCents"`
	TopVendorRevenue []VendorRevenue                   `json:"topVendorRevenue"`
}

// Service exposes the platform-wide aggregates.
type Service interface {
	PlatformStats(ctx context.Context, actor Actor) (*PlatformStats, error)
}

type service struct {
	repo Repository
}

// NewService builds the analytics service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "analytics repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) PlatformStats(ctx context.Context, actor Actor) (*PlatformStats, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if actor.Role != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin access required")
	}

	vendors, err := s.repo.CountUsersByRole(ctx, enums.UserRoleVendor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count vendors")
	}
	customers, err := s.repo.CountUsersByRole(ctx, enums.UserRoleCustomer)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count customers")
	}
	quotations, err := s.repo.CountQuotationsByStatus(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count quotations")
	}
	orders, err := s.repo.CountOrdersByStatus(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count orders")
	}
	revenue, err := s.repo.SumOrderRevenue(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum order revenue")
	}
	paid, err := s.repo.SumInvoicePaid(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum invoice payments")
	}
	topVendors, err := s.repo.RevenueByVendor(ctx, defaultVendorLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rank vendor revenue")
	}

	return &PlatformStats{
		VendorCount:      vendors,
		CustomerCount:    customers,
		QuotationCounts:  quotations,
		OrderCounts:      orders,
		RevenueCents:     revenue,
		PaidCents:        paid,
		TopVendorRevenue: topVendors,
	}, nil
}
