package delivery

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/danielharo/rentably-backend/pkg/db/models"
	"github.com/danielharo/rentably-backend/pkg/enums"
	pkgerrors "github.com/danielharo/rentably-backend/pkg/errors"
)

func int64Ptr(v int64) *int64 { return &v }

func decimalPtr(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func TestComputeChargeDeliveryDisabled(t *testing.T) {
	cfg := &models.VendorDeliveryConfig{IsDeliveryEnabled: false}
	_, err := ComputeCharge(cfg, 1000, nil)
	if err == nil {
		t.Fatalf("expected error for disabled delivery")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %s", pkgerrors.As(err).Code())
	}
}

func TestComputeChargeFree(t *testing.T) {
	cfg := &models.VendorDeliveryConfig{
		IsDeliveryEnabled: true,
		ChargeType:        enums.DeliveryChargeTypeFree,
		FlatChargeCents:   999,
	}
	got, err := ComputeCharge(cfg, 100, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestComputeChargeFlatWithFreeAboveThreshold(t *testing.T) {
	cfg := &models.VendorDeliveryConfig{
		IsDeliveryEnabled: true,
		ChargeType:        enums.DeliveryChargeTypeFlat,
		FlatChargeCents:   150,
		FreeAboveCents:    int64Ptr(2000),
	}

	got, err := ComputeCharge(cfg, 2500, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 0 {
		t.Fatalf("subtotal above threshold: expected 0, got %d", got)
	}

	got, err = ComputeCharge(cfg, 1000, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 150 {
		t.Fatalf("subtotal below threshold: expected 150, got %d", got)
	}
}

func TestComputeChargePerKm(t *testing.T) {
	cfg := &models.VendorDeliveryConfig{
		IsDeliveryEnabled: true,
		ChargeType:        enums.DeliveryChargeTypePerKm,
		RatePerKmCents:    100,
		MaxDeliveryKm:     decimalPtr("20"),
	}

	got, err := ComputeCharge(cfg, 1000, decimalPtr("12.5"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 1250 {
		t.Fatalf("expected 1250, got %d", got)
	}

	// Distance beyond the vendor's radius bills at the cap.
	got, err = ComputeCharge(cfg, 1000, decimalPtr("35"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 2000 {
		t.Fatalf("expected capped 2000, got %d", got)
	}
}

func TestComputeChargePerKmRequiresDistance(t *testing.T) {
	cfg := &models.VendorDeliveryConfig{
		IsDeliveryEnabled: true,
		ChargeType:        enums.DeliveryChargeTypePerKm,
		RatePerKmCents:    100,
	}

	_, err := ComputeCharge(cfg, 1000, nil)
	if err == nil {
		t.Fatalf("expected error for missing distance")
	}

	_, err = ComputeCharge(cfg, 1000, decimalPtr("-1"))
	if err == nil {
		t.Fatalf("expected error for negative distance")
	}
}

func TestComputeChargePerKmFreeAbove(t *testing.T) {
	cfg := &models.VendorDeliveryConfig{
		IsDeliveryEnabled: true,
		ChargeType:        enums.DeliveryChargeTypePerKm,
		RatePerKmCents:    100,
		FreeAboveCents:    int64Ptr(5000),
	}

	got, err := ComputeCharge(cfg, 6000, decimalPtr("10"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 0 {
		t.Fatalf("expected free delivery above threshold, got %d", got)
	}
}
