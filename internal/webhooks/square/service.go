package squarewebhook

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/danielharo/rentably-backend/internal/orders"
	"github.com/danielharo/rentably-backend/internal/pricing"
	"github.com/danielharo/rentably-backend/internal/reservations"
	"github.com/danielharo/rentably-backend/pkg/db/models"
	"github.com/danielharo/rentably-backend/pkg/enums"
	pkgerrors "github.com/danielharo/rentably-backend/pkg/errors"
	"github.com/danielharo/rentably-backend/pkg/logger"
)

const paymentStatusCompleted = "COMPLETED"

type quotationConfirmer interface {
	Confirm(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Quotation, error)
}

type orderCreator interface {
	CreateFromQuotation(ctx context.Context, tx *gorm.DB, input orders.CreateFromQuotationInput) (*models.RentalOrder, error)
}

type stockReserver interface {
	Reserve(ctx context.Context, tx *gorm.DB, input reservations.ReserveInput) (*models.Reservation, error)
}

type couponFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams configure the payment webhook processor.
type ServiceParams struct {
	Logger            *logger.Logger
	Quotations        quotationConfirmer
	Orders            orderCreator
	Reservations      stockReserver
	Coupons           couponFinder
	TransactionRunner txRunner
}

// Service converts completed Square payments into confirmed rental orders.
type Service struct {
	logg         *logger.Logger
	quotations   quotationConfirmer
	orders       orderCreator
	reservations stockReserver
	coupons      couponFinder
	txRunner     txRunner
}

// NewService builds the webhook processor.
func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	if params.Quotations == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "quotation confirmer required")
	}
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order creator required")
	}
	if params.Reservations == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "stock reserver required")
	}
	if params.Coupons == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "coupon finder required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	return &Service{
		logg:         params.Logger,
		quotations:   params.Quotations,
		orders:       params.Orders,
		reservations: params.Reservations,
		coupons:      params.Coupons,
		txRunner:     params.TransactionRunner,
	}, nil
}

// PaymentWebhookEvent is the envelope Square posts for payment events.
type PaymentWebhookEvent struct {
	EventID string             `json:"event_id"`
	Type    string             `json:"type"`
	Data    PaymentWebhookData `json:"data"`
}

type PaymentWebhookData struct {
	Type   string               `json:"type"`
	ID     string               `json:"id"`
	Object PaymentWebhookObject `json:"object"`
}

type PaymentWebhookObject struct {
	Payment *SquarePayment `json:"payment"`
}

// SquarePayment carries the fields the webhook needs from Square's payment
// resource. ReferenceID is the quotation ID stamped on the payment link.
type SquarePayment struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	OrderID     string `json:"order_id"`
	ReferenceID string `json:"reference_id"`
}

// HandleEvent processes Square payment events. Non-payment events and
// payments that are not yet completed are acknowledged without side effects.
func (s *Service) HandleEvent(ctx context.Context, event *PaymentWebhookEvent) error {
	if event == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "square event required")
	}

	switch strings.ToLower(event.Type) {
	case "payment.created", "payment.updated":
	default:
		return nil
	}

	payment := event.Data.Object.Payment
	if payment == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment payload missing")
	}
	if !strings.EqualFold(payment.Status, paymentStatusCompleted) {
		return nil
	}

	quotationID, err := uuid.Parse(strings.TrimSpace(payment.ReferenceID))
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment reference is not a quotation id")
	}

	err = s.confirmAndCreateOrder(ctx, quotationID, payment.ID)
	if err != nil && pkgerrors.As(err).Code() == pkgerrors.CodeStateConflict {
		// Redelivered event: the quotation already converted. Acknowledge so
		// Square stops retrying.
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"quotation_id": quotationID,
			"payment_id":   payment.ID,
		})
		s.logg.Info(logCtx, "payment already processed for quotation")
		return nil
	}
	return err
}

func (s *Service) confirmAndCreateOrder(ctx context.Context, quotationID uuid.UUID, paymentID string) error {
	return s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		quotation, err := s.quotations.Confirm(ctx, tx, quotationID)
		if err != nil {
			return err
		}

		var terms *pricing.CouponTerms
		var couponCode *string
		if quotation.CouponID != nil {
			coupon, err := s.coupons.FindByID(ctx, *quotation.CouponID)
			if err != nil {
				return err
			}
			terms = pricing.TermsFromCoupon(coupon)
			couponCode = &coupon.Code
		}
		totals := pricing.ComputeTotals(pricing.QuotationLineItems(quotation.Items), terms, quotation.DeliveryChargeCents)

		order, err := s.orders.CreateFromQuotation(ctx, tx, orders.CreateFromQuotationInput{
			Quotation:       quotation,
			Totals:          totals,
			CouponCode:      couponCode,
			FulfillmentType: fulfillmentFor(quotation),
		})
		if err != nil {
			return err
		}

		for _, item := range quotation.Items {
			_, err := s.reservations.Reserve(ctx, tx, reservations.ReserveInput{
				VariantID: item.VariantID,
				OrderID:   order.ID,
				StartDate: item.RentalStart,
				EndDate:   item.RentalEnd,
				Quantity:  item.Quantity,
			})
			if err != nil {
				return err
			}
		}

		logCtx := s.logg.WithFields(ctx, map[string]any{
			"quotation_id": quotationID,
			"order_id":     order.ID,
			"payment_id":   paymentID,
			"total_cents":  totals.TotalCents,
		})
		s.logg.Info(logCtx, "payment converted quotation into order")
		return nil
	})
}

// fulfillmentFor picks the order's fulfillment channel. A quotation with a
// delivery charge was priced for delivery; everything else is store pickup.
func fulfillmentFor(quotation *models.Quotation) enums.FulfillmentType {
	if quotation.DeliveryChargeCents > 0 {
		return enums.FulfillmentTypeDelivery
	}
	return enums.FulfillmentTypeStorePickup
}
