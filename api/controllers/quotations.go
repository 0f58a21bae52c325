package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/danielharo/rentably-backend/api/responses"
	"github.com/danielharo/rentably-backend/api/validators"
	"github.com/danielharo/rentably-backend/internal/delivery"
	"github.com/danielharo/rentably-backend/internal/quotations"
	pkgerrors "github.com/danielharo/rentably-backend/pkg/errors"
	"github.com/danielharo/rentably-backend/pkg/logger"
	"github.com/danielharo/rentably-backend/pkg/pagination"
)

type createQuotationRequest struct {
	CustomerID string `json:"customerId" validate:"required,uuid"`
}

type quotationItemRequest struct {
	VariantID      string `json:"variantId" validate:"required,uuid"`
	Quantity       int    `json:"quantity" validate:"required,gt=0"`
	RentalStart    string `json:"rentalStart" validate:"required"`
	RentalEnd      string `json:"rentalEnd" validate:"required"`
	UnitPriceCents int64  `json:"unitPriceCents" validate:"required,gt=0"`
}

type quotationCouponRequest struct {
	Code string `json:"code"`
}

type deliveryChargeRequest struct {
	ChargeCents *int64           `json:"chargeCents"`
	DistanceKm  *decimal.Decimal `json:"distanceKm"`
}

func quotationActor(a requestActor) quotations.Actor {
	return quotations.Actor{UserID: a.UserID, VendorID: a.VendorID, Role: a.Role}
}

// CreateQuotation opens a new draft for a customer.
func CreateQuotation(svc quotations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createQuotationRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		customerID, err := uuid.Parse(body.CustomerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid customer id"))
			return
		}

		quotation, err := svc.Create(r.Context(), quotations.CreateInput{
			Actor:      quotationActor(actor),
			CustomerID: customerID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, quotation)
	}
}

// GetQuotation returns one quotation with its items and computed totals.
func GetQuotation(svc quotations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := parseURLParamUUID(r, "quotationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quotation, err := svc.Get(r.Context(), quotationActor(actor), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		totals, err := svc.Totals(r.Context(), quotationActor(actor), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"quotation": quotation,
			"totals":    totals,
		})
	}
}

// ListVendorQuotations pages the vendor's quotations.
func ListVendorQuotations(svc quotations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := paginationParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListForVendor(r.Context(), quotationActor(actor), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// ListCustomerQuotations pages the caller's own received quotations.
func ListCustomerQuotations(svc quotations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := paginationParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListForCustomer(r.Context(), quotationActor(actor), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// AddQuotationItem appends a line to a draft quotation.
func AddQuotationItem(svc quotations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		quotationID, err := parseURLParamUUID(r, "quotationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body quotationItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := itemInputFromRequest(actor, quotationID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.AddItem(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

// UpdateQuotationItem edits one line of a draft quotation.
func UpdateQuotationItem(svc quotations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		quotationID, err := parseURLParamUUID(r, "quotationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := parseURLParamUUID(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body quotationItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := itemInputFromRequest(actor, quotationID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err = svc.UpdateItem(r.Context(), quotations.UpdateItemInput{
			Actor:          input.Actor,
			QuotationID:    quotationID,
			ItemID:         itemID,
			Quantity:       input.Quantity,
			RentalStart:    input.RentalStart,
			RentalEnd:      input.RentalEnd,
			UnitPriceCents: input.UnitPriceCents,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "updated"})
	}
}

// RemoveQuotationItem deletes one line of a draft quotation.
func RemoveQuotationItem(svc quotations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		quotationID, err := parseURLParamUUID(r, "quotationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := parseURLParamUUID(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err = svc.RemoveItem(r.Context(), quotations.RemoveItemInput{
			Actor:       quotationActor(actor),
			QuotationID: quotationID,
			ItemID:      itemID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "removed"})
	}
}

// SendQuotation promotes a draft to SENT.
func SendQuotation(svc quotations.Service, logg *logger.Logger) http.HandlerFunc {
	return quotationTransition(svc, logg, func(r *http.Request, actor quotations.Actor, id uuid.UUID, svc quotations.Service) error {
		return svc.Send(r.Context(), actor, id)
	}, "sent")
}

// CancelQuotation voids a draft or sent quotation.
func CancelQuotation(svc quotations.Service, logg *logger.Logger) http.HandlerFunc {
	return quotationTransition(svc, logg, func(r *http.Request, actor quotations.Actor, id uuid.UUID, svc quotations.Service) error {
		return svc.Cancel(r.Context(), actor, id)
	}, "cancelled")
}

// ApplyQuotationCoupon attaches a coupon code, or detaches when the code is
// empty.
func ApplyQuotationCoupon(svc quotations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := parseURLParamUUID(r, "quotationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body quotationCouponRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		code := strings.TrimSpace(body.Code)
		if code == "" {
			err = svc.RemoveCoupon(r.Context(), quotationActor(actor), id)
		} else {
			err = svc.ApplyCoupon(r.Context(), quotationActor(actor), id, code)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "updated"})
	}
}

// SetQuotationDeliveryCharge sets the delivery charge on a sent quotation.
// The charge can be given directly or quoted from the vendor's delivery
// policy using a distance.
func SetQuotationDeliveryCharge(svc quotations.Service, deliverySvc delivery.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := parseURLParamUUID(r, "quotationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body deliveryChargeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var charge int64
		switch {
		case body.ChargeCents != nil:
			charge = *body.ChargeCents
		case body.DistanceKm != nil:
			if deliverySvc == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "delivery service unavailable"))
				return
			}
			totals, err := svc.Totals(r.Context(), quotationActor(actor), id)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			charge, err = deliverySvc.QuoteCharge(r.Context(), actor.VendorID, totals.SubtotalCents, body.DistanceKm)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		default:
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "chargeCents or distanceKm is required"))
			return
		}

		if err := svc.SetDeliveryCharge(r.Context(), quotationActor(actor), id, charge); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"deliveryChargeCents": charge})
	}
}

// CreateQuotationPaymentLink generates the Square payment link and emails it
// to the customer. One successful send per quotation.
func CreateQuotationPaymentLink(svc quotations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := parseURLParamUUID(r, "quotationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		link, err := svc.CreatePaymentLink(r.Context(), quotationActor(actor), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, link)
	}
}

func quotationTransition(svc quotations.Service, logg *logger.Logger, fn func(*http.Request, quotations.Actor, uuid.UUID, quotations.Service) error, status string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := parseURLParamUUID(r, "quotationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := fn(r, quotationActor(actor), id, svc); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": status})
	}
}

func itemInputFromRequest(actor requestActor, quotationID uuid.UUID, body quotationItemRequest) (quotations.ItemInput, error) {
	variantID, err := uuid.Parse(body.VariantID)
	if err != nil {
		return quotations.ItemInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid variant id")
	}
	start, err := parseDate(body.RentalStart, "rentalStart")
	if err != nil {
		return quotations.ItemInput{}, err
	}
	end, err := parseDate(body.RentalEnd, "rentalEnd")
	if err != nil {
		return quotations.ItemInput{}, err
	}
	return quotations.ItemInput{
		Actor:          quotationActor(actor),
		QuotationID:    quotationID,
		VariantID:      variantID,
		Quantity:       body.Quantity,
		RentalStart:    start,
		RentalEnd:      end,
		UnitPriceCents: body.UnitPriceCents,
	}, nil
}

func paginationParams(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{
		Limit:  limit,
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}, nil
}

func parseDate(value, field string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, field+" must be a YYYY-MM-DD date")
	}
	return t.UTC(), nil
}
