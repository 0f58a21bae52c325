package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/danielharo/rentably-backend/api/responses"
	"github.com/danielharo/rentably-backend/api/validators"
	"github.com/danielharo/rentably-backend/internal/orders"
	pkgerrors "github.com/danielharo/rentably-backend/pkg/errors"
	"github.com/danielharo/rentably-backend/pkg/logger"
)

type recordReturnRequest struct {
	ReturnedAt           string `json:"returnedAt"`
	LateFeeCents         int64  `json:"lateFeeCents" validate:"gte=0"`
	DamageFeeCents       int64  `json:"damageFeeCents" validate:"gte=0"`
	DepositRefundedCents int64  `json:"depositRefundedCents" validate:"gte=0"`
}

func orderActor(a requestActor) orders.Actor {
	return orders.Actor{UserID: a.UserID, VendorID: a.VendorID, Role: a.Role}
}

// GetOrder returns one order with its items.
func GetOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := parseURLParamUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Get(r.Context(), orderActor(actor), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// ListVendorOrders pages the vendor's orders.
func ListVendorOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
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

		list, err := svc.ListForVendor(r.Context(), orderActor(actor), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// ListCustomerOrders pages the caller's own orders.
func ListCustomerOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
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

		list, err := svc.ListForCustomer(r.Context(), orderActor(actor), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// MarkOrderPickedUp records the store-pickup handoff.
func MarkOrderPickedUp(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return orderTransition(svc, logg, func(r *http.Request, actor orders.Actor, id uuid.UUID, svc orders.Service) error {
		return svc.MarkPickedUp(r.Context(), actor, id)
	}, "picked_up")
}

// MarkOrderDelivered records the delivery handoff.
func MarkOrderDelivered(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return orderTransition(svc, logg, func(r *http.Request, actor orders.Actor, id uuid.UUID, svc orders.Service) error {
		return svc.MarkDelivered(r.Context(), actor, id)
	}, "delivered")
}

// CancelOrder voids a confirmed order and releases its reservations.
func CancelOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return orderTransition(svc, logg, func(r *http.Request, actor orders.Actor, id uuid.UUID, svc orders.Service) error {
		return svc.Cancel(r.Context(), actor, id)
	}, "cancelled")
}

// CreateOrderInvoice issues the paid invoice document for an order.
func CreateOrderInvoice(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := parseURLParamUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		invoice, err := svc.CreateInvoice(r.Context(), orderActor(actor), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, invoice)
	}
}

// RecordOrderReturn closes out a rental with fees and deposit settlement.
func RecordOrderReturn(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := parseURLParamUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body recordReturnRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if body.ReturnedAt == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "returnedAt is required"))
			return
		}
		returnedAt, err := time.Parse(time.RFC3339, body.ReturnedAt)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "returnedAt must be an RFC 3339 timestamp"))
			return
		}
		returnedAt = returnedAt.UTC()

		ret, err := svc.RecordReturn(r.Context(), orderActor(actor), id, orders.ReturnInput{
			ReturnedAt:           returnedAt,
			LateFeeCents:         body.LateFeeCents,
			DamageFeeCents:       body.DamageFeeCents,
			DepositRefundedCents: body.DepositRefundedCents,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, ret)
	}
}

func orderTransition(svc orders.Service, logg *logger.Logger, fn func(*http.Request, orders.Actor, uuid.UUID, orders.Service) error, status string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := parseURLParamUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := fn(r, orderActor(actor), id, svc); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": status})
	}
}
