package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/danielharo/rentably-backend/api/responses"
	"github.com/danielharo/rentably-backend/api/validators"
	"github.com/danielharo/rentably-backend/internal/coupons"
	"github.com/danielharo/rentably-backend/pkg/enums"
	pkgerrors "github.com/danielharo/rentably-backend/pkg/errors"
	"github.com/danielharo/rentably-backend/pkg/logger"
)

type createCouponRequest struct {
	Code             string           `json:"code" validate:"required,max=40"`
	Type             string           `json:"type" validate:"required,oneof=flat percentage"`
	AmountCents      *int64           `json:"amountCents" validate:"omitempty,gt=0"`
	Percent          *decimal.Decimal `json:"percent"`
	MaxDiscountCents *int64           `json:"maxDiscountCents" validate:"omitempty,gt=0"`
	ValidFrom        string           `json:"validFrom" validate:"required"`
	ValidTill        string           `json:"validTill" validate:"required"`
}

// CreateCoupon defines a discount code for the vendor.
func CreateCoupon(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createCouponRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		couponType, err := enums.ParseCouponType(body.Type)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid coupon type"))
			return
		}
		validFrom, err := time.Parse(time.RFC3339, body.ValidFrom)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validFrom must be an RFC 3339 timestamp"))
			return
		}
		validTill, err := time.Parse(time.RFC3339, body.ValidTill)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validTill must be an RFC 3339 timestamp"))
			return
		}

		coupon, err := svc.Create(r.Context(), coupons.CreateInput{
			VendorID:         actor.VendorID,
			Code:             strings.ToUpper(validators.SanitizeString(body.Code, 0)),
			Type:             couponType,
			AmountCents:      body.AmountCents,
			Percent:          body.Percent,
			MaxDiscountCents: body.MaxDiscountCents,
			ValidFrom:        validFrom.UTC(),
			ValidTill:        validTill.UTC(),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, coupon)
	}
}

// ListCoupons returns all of the vendor's coupons, active and expired.
func ListCoupons(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListByVendor(r.Context(), actor.VendorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// DeactivateCoupon retires a coupon code without touching quotations that
// already carry it.
func DeactivateCoupon(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		couponID, err := parseURLParamUUID(r, "couponId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Deactivate(r.Context(), actor.VendorID, couponID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deactivated"})
	}
}
