package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/danielharo/rentably-backend/internal/audit"
	"github.com/danielharo/rentably-backend/internal/pricing"
	"github.com/danielharo/rentably-backend/pkg/db"
	"github.com/danielharo/rentably-backend/pkg/db/models"
	"github.com/danielharo/rentably-backend/pkg/enums"
	pkgerrors "github.com/danielharo/rentably-backend/pkg/errors"
	"github.com/danielharo/rentably-backend/pkg/pagination"
)

const entityType = "rental_order"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type reservationLedger interface {
	MarkWithCustomer(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error
	ReleaseForOrder(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error
}

// ListResult is one page of rental orders plus the cursor for the next page.
type ListResult struct {
	Items  []models.RentalOrder `json:"items"`
	Cursor string               `json:"cursor,omitempty"`
}

// Service manages the post-payment order lifecycle: fulfillment, return,
// and cancellation.
type Service interface {
	// CreateFromQuotation joins the payment webhook's transaction and
	// freezes the quotation's items and totals into an order with its
	// invoice.
	CreateFromQuotation(ctx context.Context, tx *gorm.DB, input CreateFromQuotationInput) (*models.RentalOrder, error)

	Get(ctx context.Context, actor Actor, id uuid.UUID) (*models.RentalOrder, error)
	ListForVendor(ctx context.Context, actor Actor, params pagination.Params) (*ListResult, error)
	ListForCustomer(ctx context.Context, actor Actor, params pagination.Params) (*ListResult, error)

	MarkPickedUp(ctx context.Context, actor Actor, id uuid.UUID) error
	MarkDelivered(ctx context.Context, actor Actor, id uuid.UUID) error
	CreateInvoice(ctx context.Context, actor Actor, id uuid.UUID) (*models.Invoice, error)
	RecordReturn(ctx context.Context, actor Actor, id uuid.UUID, input ReturnInput) (*models.Return, error)
	Cancel(ctx context.Context, actor Actor, id uuid.UUID) error
}

// Actor identifies who is performing an operation.
type Actor struct {
	UserID   uuid.UUID
	VendorID uuid.UUID
	Role     enums.UserRole
}

// CreateFromQuotationInput carries everything the webhook resolved before
// the order insert.
type CreateFromQuotationInput struct {
	Quotation       *models.Quotation
	Totals          pricing.Totals
	CouponCode      *string
	FulfillmentType enums.FulfillmentType
}

// ReturnInput records the condition of the returned items.
type ReturnInput struct {
	ReturnedAt           time.Time
	LateFeeCents         int64
	DamageFeeCents       int64
	DepositRefundedCents int64
}

type service struct {
	repo         Repository
	tx           txRunner
	audit        audit.Writer
	reservations reservationLedger
	now          func() time.Time
}

// NewService builds the order service.
func NewService(repo Repository, tx txRunner, auditW audit.Writer, reservations reservationLedger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if auditW == nil {
		return nil, fmt.Errorf("audit writer required")
	}
	if reservations == nil {
		return nil, fmt.Errorf("reservation ledger required")
	}
	return &service{
		repo:         repo,
		tx:           tx,
		audit:        auditW,
		reservations: reservations,
		now:          time.Now,
	}, nil
}

func (s *service) CreateFromQuotation(ctx context.Context, tx *gorm.DB, input CreateFromQuotationInput) (*models.RentalOrder, error) {
	quotation := input.Quotation
	if quotation == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quotation required")
	}
	if len(quotation.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quotation has no items")
	}
	fulfillment := input.FulfillmentType
	if fulfillment == "" {
		fulfillment = enums.FulfillmentTypeStorePickup
	}

	repo := s.repo.WithTx(tx)
	order := &models.RentalOrder{
		QuotationID:         quotation.ID,
		VendorID:            quotation.VendorID,
		CustomerID:          quotation.CustomerID,
		Status:              enums.RentalOrderStatusConfirmed,
		FulfillmentType:     fulfillment,
		Currency:            enums.CurrencyUSD,
		SubtotalCents:       input.Totals.SubtotalCents,
		CouponCode:          input.CouponCode,
		DiscountCents:       input.Totals.DiscountCents,
		DeliveryChargeCents: input.Totals.DeliveryChargeCents,
		TotalCents:          input.Totals.TotalCents,
	}
	if err := repo.Create(ctx, order); err != nil {
		if db.IsUniqueViolation(err, "uq_rental_orders_quotation_id") {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order already exists for quotation")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}

	items := make([]models.OrderItem, 0, len(quotation.Items))
	for _, item := range quotation.Items {
		items = append(items, models.OrderItem{
			OrderID:        order.ID,
			VariantID:      item.VariantID,
			Quantity:       item.Quantity,
			RentalStart:    item.RentalStart,
			RentalEnd:      item.RentalEnd,
			UnitPriceCents: item.UnitPriceCents,
		})
	}
	if err := repo.CreateItems(ctx, items); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order items")
	}
	order.Items = items
	return order, nil
}

func (s *service) CreateInvoice(ctx context.Context, actor Actor, id uuid.UUID) (*models.Invoice, error) {
	if err := requireVendorActor(actor); err != nil {
		return nil, err
	}

	var invoice *models.Invoice
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.lock(ctx, repo, id)
		if err != nil {
			return err
		}
		if err := authorizeVendorWrite(actor, order); err != nil {
			return err
		}
		if order.Status == enums.RentalOrderStatusCancelled {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "cannot invoice a cancelled order")
		}

		// Amounts are fixed here; payment processing moves paid_amount_cents
		// and status afterwards. The security deposit defaults to zero.
		invoice = &models.Invoice{
			OrderID:             order.ID,
			RentalAmountCents:   order.SubtotalCents,
			DeliveryChargeCents: order.DeliveryChargeCents,
			TotalAmountCents:    order.SubtotalCents + order.DeliveryChargeCents,
			Status:              enums.InvoiceStatusDraft,
		}
		if err := repo.CreateInvoice(ctx, invoice); err != nil {
			if db.IsUniqueViolation(err, "uq_invoices_order_id") {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "invoice already exists for order")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create invoice")
		}
		return s.audit.Record(ctx, tx, auditEntry(actor, "order.invoiced", id, map[string]any{
			"total_amount_cents": invoice.TotalAmountCents,
		}))
	})
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

func (s *service) Get(ctx context.Context, actor Actor, id uuid.UUID) (*models.RentalOrder, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeRead(actor, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) ListForVendor(ctx context.Context, actor Actor, params pagination.Params) (*ListResult, error) {
	if err := requireVendorActor(actor); err != nil {
		return nil, err
	}
	query, err := listQueryFrom(params)
	if err != nil {
		return nil, err
	}
	orders, next, err := s.repo.ListByVendor(ctx, actor.VendorID, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return newListResult(orders, next), nil
}

func (s *service) ListForCustomer(ctx context.Context, actor Actor, params pagination.Params) (*ListResult, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	query, err := listQueryFrom(params)
	if err != nil {
		return nil, err
	}
	orders, next, err := s.repo.ListByCustomer(ctx, actor.UserID, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return newListResult(orders, next), nil
}

func listQueryFrom(params pagination.Params) (listQuery, error) {
	query := listQuery{Limit: params.Limit}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return listQuery{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}
	return query, nil
}

func newListResult(items []models.RentalOrder, next *pagination.Cursor) *ListResult {
	result := &ListResult{Items: items}
	if next != nil {
		result.Cursor = pagination.EncodeCursor(*next)
	}
	return result
}

func (s *service) MarkPickedUp(ctx context.Context, actor Actor, id uuid.UUID) error {
	return s.startRental(ctx, actor, id, enums.FulfillmentTypeStorePickup, "order.picked_up")
}

func (s *service) MarkDelivered(ctx context.Context, actor Actor, id uuid.UUID) error {
	return s.startRental(ctx, actor, id, enums.FulfillmentTypeDelivery, "order.delivered")
}

func (s *service) startRental(ctx context.Context, actor Actor, id uuid.UUID, fulfillment enums.FulfillmentType, auditAction string) error {
	if err := requireVendorActor(actor); err != nil {
		return err
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.lock(ctx, repo, id)
		if err != nil {
			return err
		}
		if err := authorizeVendorWrite(actor, order); err != nil {
			return err
		}
		if order.Status != enums.RentalOrderStatusConfirmed {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot start rental for an order in status %s", order.Status))
		}
		if order.FulfillmentType != fulfillment {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("order fulfillment is %s", order.FulfillmentType))
		}

		if err := repo.Update(ctx, id, map[string]any{"status": enums.RentalOrderStatusActive}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if err := s.reservations.MarkWithCustomer(ctx, tx, id); err != nil {
			return err
		}
		return s.audit.Record(ctx, tx, auditEntry(actor, auditAction, id, nil))
	})
}

func (s *service) RecordReturn(ctx context.Context, actor Actor, id uuid.UUID, input ReturnInput) (*models.Return, error) {
	if err := requireVendorActor(actor); err != nil {
		return nil, err
	}
	if input.LateFeeCents < 0 || input.DamageFeeCents < 0 || input.DepositRefundedCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "fees and refunds must not be negative")
	}
	returnedAt := input.ReturnedAt
	if returnedAt.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "returnedAt is required")
	}

	ret := &models.Return{
		OrderID:              id,
		HandledByUserID:      actor.UserID,
		ReturnedAt:           returnedAt,
		LateFeeCents:         input.LateFeeCents,
		DamageFeeCents:       input.DamageFeeCents,
		DepositRefundedCents: input.DepositRefundedCents,
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.lock(ctx, repo, id)
		if err != nil {
			return err
		}
		if err := authorizeVendorWrite(actor, order); err != nil {
			return err
		}
		if order.Status != enums.RentalOrderStatusActive {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot record a return for an order in status %s", order.Status))
		}

		if err := repo.CreateReturn(ctx, ret); err != nil {
			if db.IsUniqueViolation(err, "uq_returns_order_id") {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "return already recorded for order")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create return")
		}
		if err := repo.Update(ctx, id, map[string]any{
			"status":       enums.RentalOrderStatusCompleted,
			"completed_at": returnedAt,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete order")
		}
		if err := s.reservations.ReleaseForOrder(ctx, tx, id); err != nil {
			return err
		}
		return s.audit.Record(ctx, tx, auditEntry(actor, "order.returned", id, map[string]any{
			"late_fee_cents":   input.LateFeeCents,
			"damage_fee_cents": input.DamageFeeCents,
		}))
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}

func (s *service) Cancel(ctx context.Context, actor Actor, id uuid.UUID) error {
	if err := requireVendorActor(actor); err != nil {
		return err
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.lock(ctx, repo, id)
		if err != nil {
			return err
		}
		if err := authorizeVendorWrite(actor, order); err != nil {
			return err
		}
		// Items already with the customer have to come back through a
		// return, not a cancellation.
		if order.Status != enums.RentalOrderStatusConfirmed {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot cancel an order in status %s", order.Status))
		}

		if err := repo.Update(ctx, id, map[string]any{
			"status":       enums.RentalOrderStatusCancelled,
			"cancelled_at": s.now(),
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
		}
		if err := s.reservations.ReleaseForOrder(ctx, tx, id); err != nil {
			return err
		}
		return s.audit.Record(ctx, tx, auditEntry(actor, "order.cancelled", id, nil))
	})
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.RentalOrder, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) lock(ctx context.Context, repo Repository, id uuid.UUID) (*models.RentalOrder, error) {
	order, err := repo.FindByIDForUpdate(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func requireVendorActor(actor Actor) error {
	if actor.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if actor.Role != enums.UserRoleVendor && actor.Role != enums.UserRoleAdmin {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "vendor role required")
	}
	if actor.Role == enums.UserRoleVendor && actor.VendorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeForbidden, "vendor context missing")
	}
	return nil
}

func authorizeVendorWrite(actor Actor, order *models.RentalOrder) error {
	if actor.Role == enums.UserRoleAdmin {
		return nil
	}
	if order.VendorID != actor.VendorID {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return nil
}

func authorizeRead(actor Actor, order *models.RentalOrder) error {
	switch actor.Role {
	case enums.UserRoleAdmin:
		return nil
	case enums.UserRoleVendor:
		if order.VendorID == actor.VendorID {
			return nil
		}
	case enums.UserRoleCustomer:
		if order.CustomerID == actor.UserID {
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}

func auditEntry(actor Actor, action string, id uuid.UUID, metadata map[string]any) audit.Entry {
	return audit.Entry{
		ActorID:    actor.UserID,
		ActorRole:  string(actor.Role),
		Action:     action,
		EntityType: entityType,
		EntityID:   id,
		Metadata:   metadata,
	}
}
