package coupons

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/danielharo/rentably-backend/pkg/db"
	"github.com/danielharo/rentably-backend/pkg/db/models"
	"github.com/danielharo/rentably-backend/pkg/enums"
	pkgerrors "github.com/danielharo/rentably-backend/pkg/errors"
)

// Service manages coupon definitions and resolves codes for checkout.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Coupon, error)
	ListByVendor(ctx context.Context, vendorID uuid.UUID) ([]models.Coupon, error)
	Deactivate(ctx context.Context, vendorID, couponID uuid.UUID) error
	Resolve(ctx context.Context, code string, at time.Time) (*models.Coupon, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

// CreateInput carries a new coupon definition.
type CreateInput struct {
	VendorID         uuid.UUID
	Code             string
	Type             enums.CouponType
	AmountCents      *int64
	Percent          *decimal.Decimal
	MaxDiscountCents *int64
	ValidFrom        time.Time
	ValidTill        time.Time
}

// NewService builds the coupons service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("coupons repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Coupon, error) {
	if input.VendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code required")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown coupon type")
	}
	if !input.ValidFrom.Before(input.ValidTill) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "validFrom must be before validTill")
	}

	switch input.Type {
	case enums.CouponTypeFlat:
		if input.AmountCents == nil || *input.AmountCents <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "flat coupon requires a positive amount")
		}
	case enums.CouponTypePercentage:
		if input.Percent == nil || !input.Percent.IsPositive() || input.Percent.GreaterThan(decimal.NewFromInt(100)) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "percentage coupon requires a percent in (0, 100]")
		}
		if input.MaxDiscountCents != nil && *input.MaxDiscountCents <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "max discount cap must be positive")
		}
	}

	coupon := &models.Coupon{
		VendorID:         input.VendorID,
		Code:             code,
		Type:             input.Type,
		AmountCents:      input.AmountCents,
		Percent:          input.Percent,
		MaxDiscountCents: input.MaxDiscountCents,
		ValidFrom:        input.ValidFrom,
		ValidTill:        input.ValidTill,
		IsActive:         true,
	}
	if err := s.repo.Create(ctx, coupon); err != nil {
		if db.IsUniqueViolation(err, "uq_coupons_code") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "coupon code already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create coupon")
	}
	return coupon, nil
}

func (s *service) ListByVendor(ctx context.Context, vendorID uuid.UUID) ([]models.Coupon, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	coupons, err := s.repo.ListByVendor(ctx, vendorID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list coupons")
	}
	return coupons, nil
}

func (s *service) Deactivate(ctx context.Context, vendorID, couponID uuid.UUID) error {
	coupon, err := s.FindByID(ctx, couponID)
	if err != nil {
		return err
	}
	if coupon.VendorID != vendorID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "coupon does not belong to vendor")
	}
	if err := s.repo.SetActive(ctx, couponID, false); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate coupon")
	}
	return nil
}

func (s *service) FindByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon id required")
	}
	coupon, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
	}
	return coupon, nil
}

// Resolve returns the coupon for a code when it is active and inside its
// validity window at the given instant.
func (s *service) Resolve(ctx context.Context, code string, at time.Time) (*models.Coupon, error) {
	if strings.TrimSpace(code) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code required")
	}
	if at.IsZero() {
		at = s.now()
	}
	coupon, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
	}
	if !coupon.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon is inactive")
	}
	if at.Before(coupon.ValidFrom) || at.After(coupon.ValidTill) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon is outside its validity window")
	}
	return coupon, nil
}
