package delivery

import (
	"github.com/shopspring/decimal"

	"github.com/danielharo/rentably-backend/pkg/db/models"
	"github.com/danielharo/rentably-backend/pkg/enums"
	pkgerrors "github.com/danielharo/rentably-backend/pkg/errors"
)

// ComputeCharge derives the delivery charge in cents for one vendor's share
// of an order. Charges never pool across vendors; callers sum per-vendor
// results for multi-vendor carts.
func ComputeCharge(cfg *models.VendorDeliveryConfig, orderSubtotalCents int64, distanceKm *decimal.Decimal) (int64, error) {
	if cfg == nil || !cfg.IsDeliveryEnabled {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "delivery is not available for this vendor")
	}

	switch cfg.ChargeType {
	case enums.DeliveryChargeTypeFree:
		return 0, nil

	case enums.DeliveryChargeTypeFlat:
		if freeAboveApplies(cfg.FreeAboveCents, orderSubtotalCents) {
			return 0, nil
		}
		return nonNegative(cfg.FlatChargeCents), nil

	case enums.DeliveryChargeTypePerKm:
		if distanceKm == nil {
			return 0, pkgerrors.New(pkgerrors.CodeValidation, "distance is required for per-km delivery")
		}
		if distanceKm.IsNegative() {
			return 0, pkgerrors.New(pkgerrors.CodeValidation, "distance must not be negative")
		}
		if freeAboveApplies(cfg.FreeAboveCents, orderSubtotalCents) {
			return 0, nil
		}
		billable := *distanceKm
		if cfg.MaxDeliveryKm != nil && billable.GreaterThan(*cfg.MaxDeliveryKm) {
			billable = *cfg.MaxDeliveryKm
		}
		charge := decimal.NewFromInt(nonNegative(cfg.RatePerKmCents)).
			Mul(billable).
			Round(0).
			IntPart()
		return nonNegative(charge), nil

	default:
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "unknown delivery charge type")
	}
}

func freeAboveApplies(freeAboveCents *int64, subtotalCents int64) bool {
	return freeAboveCents != nil && subtotalCents >= *freeAboveCents
}

func nonNegative(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}
