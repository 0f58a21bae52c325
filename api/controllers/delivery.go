package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/danielharo/rentably-backend/api/responses"
	"github.com/danielharo/rentably-backend/api/validators"
	"github.com/danielharo/rentably-backend/internal/delivery"
	"github.com/danielharo/rentably-backend/pkg/enums"
	pkgerrors "github.com/danielharo/rentably-backend/pkg/errors"
	"github.com/danielharo/rentably-backend/pkg/logger"
)

type deliveryConfigRequest struct {
	Enabled         bool             `json:"enabled"`
	ChargeType      string           `json:"chargeType" validate:"required,oneof=flat per_km"`
	FlatChargeCents int64            `json:"flatChargeCents" validate:"gte=0"`
	RatePerKmCents  int64            `json:"ratePerKmCents" validate:"gte=0"`
	FreeAboveCents  *int64           `json:"freeAboveCents" validate:"omitempty,gt=0"`
	MaxDeliveryKm   *decimal.Decimal `json:"maxDeliveryKm"`
}

// GetDeliveryConfig returns the vendor's delivery policy.
func GetDeliveryConfig(svc delivery.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cfg, err := svc.GetConfig(r.Context(), actor.VendorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cfg)
	}
}

// UpdateDeliveryConfig replaces the vendor's delivery policy.
func UpdateDeliveryConfig(svc delivery.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body deliveryConfigRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		chargeType, err := enums.ParseDeliveryChargeType(body.ChargeType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid charge type"))
			return
		}

		cfg, err := svc.UpdateConfig(r.Context(), delivery.UpdateConfigInput{
			VendorID:        actor.VendorID,
			Enabled:         body.Enabled,
			ChargeType:      chargeType,
			FlatChargeCents: body.FlatChargeCents,
			RatePerKmCents:  body.RatePerKmCents,
			FreeAboveCents:  body.FreeAboveCents,
			MaxDeliveryKm:   body.MaxDeliveryKm,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cfg)
	}
}
