package delivery

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/danielharo/rentably-backend/pkg/db/models"
	"github.com/danielharo/rentably-backend/pkg/enums"
	pkgerrors "github.com/danielharo/rentably-backend/pkg/errors"
)

// Service manages vendor delivery policies and quotes charges from them.
type Service interface {
	GetConfig(ctx context.Context, vendorID uuid.UUID) (*models.VendorDeliveryConfig, error)
	UpdateConfig(ctx context.Context, input UpdateConfigInput) (*models.VendorDeliveryConfig, error)
	QuoteCharge(ctx context.Context, vendorID uuid.UUID, subtotalCents int64, distanceKm *decimal.Decimal) (int64, error)
}

type service struct {
	repo Repository
}

// UpdateConfigInput carries a vendor's full delivery policy.
type UpdateConfigInput struct {
	VendorID        uuid.UUID
	Enabled         bool
	ChargeType      enums.DeliveryChargeType
	FlatChargeCents int64
	RatePerKmCents  int64
	FreeAboveCents  *int64
	MaxDeliveryKm   *decimal.Decimal
}

// NewService builds the delivery service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("delivery repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) GetConfig(ctx context.Context, vendorID uuid.UUID) (*models.VendorDeliveryConfig, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	cfg, err := s.repo.FindConfigByVendor(ctx, vendorID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "delivery config not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load delivery config")
	}
	return cfg, nil
}

func (s *service) UpdateConfig(ctx context.Context, input UpdateConfigInput) (*models.VendorDeliveryConfig, error) {
	if input.VendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	if !input.ChargeType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown delivery charge type")
	}
	if input.FlatChargeCents < 0 || input.RatePerKmCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery charges must not be negative")
	}
	if input.FreeAboveCents != nil && *input.FreeAboveCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "free-above threshold must not be negative")
	}
	if input.MaxDeliveryKm != nil && input.MaxDeliveryKm.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "max delivery distance must not be negative")
	}

	cfg := &models.VendorDeliveryConfig{
		VendorID:          input.VendorID,
		IsDeliveryEnabled: input.Enabled,
		ChargeType:        input.ChargeType,
		FlatChargeCents:   input.FlatChargeCents,
		RatePerKmCents:    input.RatePerKmCents,
		FreeAboveCents:    input.FreeAboveCents,
		MaxDeliveryKm:     input.MaxDeliveryKm,
	}
	if err := s.repo.UpsertConfig(ctx, cfg); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save delivery config")
	}
	return cfg, nil
}

func (s *service) QuoteCharge(ctx context.Context, vendorID uuid.UUID, subtotalCents int64, distanceKm *decimal.Decimal) (int64, error) {
	cfg, err := s.GetConfig(ctx, vendorID)
	if err != nil {
		return 0, err
	}
	return ComputeCharge(cfg, subtotalCents, distanceKm)
}
