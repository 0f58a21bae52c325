package quotations

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/danielharo/rentably-backend/internal/audit"
	"github.com/danielharo/rentably-backend/internal/pricing"
	"github.com/danielharo/rentably-backend/pkg/db/models"
	"github.com/danielharo/rentably-backend/pkg/enums"
	pkgerrors "github.com/danielharo/rentably-backend/pkg/errors"
	"github.com/danielharo/rentably-backend/pkg/mailer"
	"github.com/danielharo/rentably-backend/pkg/pagination"
	"github.com/danielharo/rentably-backend/pkg/square"
)

const entityType = "quotation"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type couponDirectory interface {
	Resolve(ctx context.Context, code string, at time.Time) (*models.Coupon, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error)
}

type userDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type paymentLinkCreator interface {
	CreatePaymentLink(ctx context.Context, params square.PaymentLinkCreateParams) (*square.PaymentLink, error)
}

// ListResult is one page of quotations plus the cursor for the next page.
type ListResult struct {
	Items  []models.Quotation `json:"items"`
	Cursor string             `json:"cursor,omitempty"`
}

// Service governs the quotation lifecycle from draft to confirmation.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Quotation, error)
	Get(ctx context.Context, actor Actor, id uuid.UUID) (*models.Quotation, error)
	ListForVendor(ctx context.Context, actor Actor, params pagination.Params) (*ListResult, error)
	ListForCustomer(ctx context.Context, actor Actor, params pagination.Params) (*ListResult, error)
	Totals(ctx context.Context, actor Actor, id uuid.UUID) (pricing.Totals, error)

	AddItem(ctx context.Context, input ItemInput) (*models.QuotationItem, error)
	UpdateItem(ctx context.Context, input UpdateItemInput) error
	RemoveItem(ctx context.Context, input RemoveItemInput) error

	Send(ctx context.Context, actor Actor, id uuid.UUID) error
	ApplyCoupon(ctx context.Context, actor Actor, id uuid.UUID, code string) error
	RemoveCoupon(ctx context.Context, actor Actor, id uuid.UUID) error
	SetDeliveryCharge(ctx context.Context, actor Actor, id uuid.UUID, chargeCents int64) error
	Cancel(ctx context.Context, actor Actor, id uuid.UUID) error

	// Confirm joins the payment webhook's transaction.
	Confirm(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Quotation, error)

	CreatePaymentLink(ctx context.Context, actor Actor, id uuid.UUID) (*models.QuotationPaymentLinkLog, error)

	// ExpireStaleSent cancels SENT quotations older than the cutoff that
	// never received payment. Used by the scheduled worker.
	ExpireStaleSent(ctx context.Context, cutoff time.Time) (int, error)
}

type service struct {
	repo        Repository
	tx          txRunner
	audit       audit.Writer
	coupons     couponDirectory
	users       userDirectory
	links       paymentLinkCreator
	mail        mailer.Mailer
	linkTimeout time.Duration
	now         func() time.Time
}

// Actor identifies who is performing an operation.
type Actor struct {
	UserID   uuid.UUID
	VendorID uuid.UUID
	Role     enums.UserRole
}

// CreateInput starts a new draft quotation.
type CreateInput struct {
	Actor      Actor
	CustomerID uuid.UUID
}

// ItemInput adds one line to a draft quotation.
type ItemInput struct {
	Actor          Actor
	QuotationID    uuid.UUID
	VariantID      uuid.UUID
	Quantity       int
	RentalStart    time.Time
	RentalEnd      time.Time
	UnitPriceCents int64
}

// UpdateItemInput edits one line of a draft quotation.
type UpdateItemInput struct {
	Actor          Actor
	QuotationID    uuid.UUID
	ItemID         uuid.UUID
	Quantity       int
	RentalStart    time.Time
	RentalEnd      time.Time
	UnitPriceCents int64
}

// RemoveItemInput deletes one line of a draft quotation.
type RemoveItemInput struct {
	Actor       Actor
	QuotationID uuid.UUID
	ItemID      uuid.UUID
}

// NewService builds the quotation service.
func NewService(
	repo Repository,
	tx txRunner,
	auditW audit.Writer,
	coupons couponDirectory,
	users userDirectory,
	links paymentLinkCreator,
	mail mailer.Mailer,
	linkTimeout time.Duration,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("quotations repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if auditW == nil {
		return nil, fmt.Errorf("audit writer required")
	}
	if coupons == nil {
		return nil, fmt.Errorf("coupon directory required")
	}
	if users == nil {
		return nil, fmt.Errorf("user directory required")
	}
	if links == nil {
		return nil, fmt.Errorf("payment link creator required")
	}
	if mail == nil {
		return nil, fmt.Errorf("mailer required")
	}
	if linkTimeout <= 0 {
		linkTimeout = 15 * time.Second
	}
	return &service{
		repo:        repo,
		tx:          tx,
		audit:       auditW,
		coupons:     coupons,
		users:       users,
		links:       links,
		mail:        mail,
		linkTimeout: linkTimeout,
		now:         time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Quotation, error) {
	if err := requireVendorActor(input.Actor); err != nil {
		return nil, err
	}
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}

	quotation := &models.Quotation{
		VendorID:   input.Actor.VendorID,
		CustomerID: input.CustomerID,
		Status:     enums.QuotationStatusDraft,
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, quotation); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create quotation")
		}
		return s.audit.Record(ctx, tx, auditEntry(input.Actor, "quotation.created", quotation.ID, nil))
	})
	if err != nil {
		return nil, err
	}
	return quotation, nil
}

func (s *service) Get(ctx context.Context, actor Actor, id uuid.UUID) (*models.Quotation, error) {
	quotation, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeRead(actor, quotation); err != nil {
		return nil, err
	}
	return quotation, nil
}

func (s *service) ListForVendor(ctx context.Context, actor Actor, params pagination.Params) (*ListResult, error) {
	if err := requireVendorActor(actor); err != nil {
		return nil, err
	}
	query, err := listQueryFrom(params)
	if err != nil {
		return nil, err
	}
	quotations, next, err := s.repo.ListByVendor(ctx, actor.VendorID, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list quotations")
	}
	return newListResult(quotations, next), nil
}

func (s *service) ListForCustomer(ctx context.Context, actor Actor, params pagination.Params) (*ListResult, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	query, err := listQueryFrom(params)
	if err != nil {
		return nil, err
	}
	quotations, next, err := s.repo.ListByCustomer(ctx, actor.UserID, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list quotations")
	}
	return newListResult(quotations, next), nil
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

func newListResult(items []models.Quotation, next *pagination.Cursor) *ListResult {
	result := &ListResult{Items: items}
	if next != nil {
		result.Cursor = pagination.EncodeCursor(*next)
	}
	return result
}

func (s *service) Totals(ctx context.Context, actor Actor, id uuid.UUID) (pricing.Totals, error) {
	quotation, err := s.Get(ctx, actor, id)
	if err != nil {
		return pricing.Totals{}, err
	}
	return s.totalsFor(ctx, quotation)
}

func (s *service) totalsFor(ctx context.Context, quotation *models.Quotation) (pricing.Totals, error) {
	var terms *pricing.CouponTerms
	if quotation.CouponID != nil {
		coupon, err := s.coupons.FindByID(ctx, *quotation.CouponID)
		if err != nil {
			return pricing.Totals{}, err
		}
		terms = pricing.TermsFromCoupon(coupon)
	}
	items := quotation.Items
	if len(items) == 0 {
		loaded, err := s.repo.ListItems(ctx, quotation.ID)
		if err != nil {
			return pricing.Totals{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list quotation items")
		}
		items = loaded
	}
	return pricing.ComputeTotals(pricing.QuotationLineItems(items), terms, quotation.DeliveryChargeCents), nil
}

func (s *service) AddItem(ctx context.Context, input ItemInput) (*models.QuotationItem, error) {
	if err := validateItemFields(input.Quantity, input.RentalStart, input.RentalEnd, input.UnitPriceCents); err != nil {
		return nil, err
	}
	if input.VariantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant id required")
	}

	item := &models.QuotationItem{
		QuotationID:    input.QuotationID,
		VariantID:      input.VariantID,
		Quantity:       input.Quantity,
		RentalStart:    input.RentalStart,
		RentalEnd:      input.RentalEnd,
		UnitPriceCents: input.UnitPriceCents,
	}
	err := s.guardedMutation(ctx, input.Actor, input.QuotationID, ActionAddItem, func(repo Repository, tx *gorm.DB, _ *models.Quotation) error {
		if err := repo.CreateItem(ctx, item); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create quotation item")
		}
		return s.audit.Record(ctx, tx, auditEntry(input.Actor, "quotation.item_added", input.QuotationID, map[string]any{
			"item_id":    item.ID,
			"variant_id": input.VariantID,
			"quantity":   input.Quantity,
		}))
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *service) UpdateItem(ctx context.Context, input UpdateItemInput) error {
	if err := validateItemFields(input.Quantity, input.RentalStart, input.RentalEnd, input.UnitPriceCents); err != nil {
		return err
	}
	return s.guardedMutation(ctx, input.Actor, input.QuotationID, ActionUpdateItem, func(repo Repository, tx *gorm.DB, _ *models.Quotation) error {
		item, err := repo.FindItem(ctx, input.ItemID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "quotation item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load quotation item")
		}
		if item.QuotationID != input.QuotationID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "item does not belong to quotation")
		}
		updates := map[string]any{
			"quantity":         input.Quantity,
			"rental_start":     input.RentalStart,
			"rental_end":       input.RentalEnd,
			"unit_price_cents": input.UnitPriceCents,
		}
		if err := repo.UpdateItem(ctx, input.ItemID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update quotation item")
		}
		return s.audit.Record(ctx, tx, auditEntry(input.Actor, "quotation.item_updated", input.QuotationID, map[string]any{
			"item_id": input.ItemID,
		}))
	})
}

func (s *service) RemoveItem(ctx context.Context, input RemoveItemInput) error {
	return s.guardedMutation(ctx, input.Actor, input.QuotationID, ActionRemoveItem, func(repo Repository, tx *gorm.DB, _ *models.Quotation) error {
		item, err := repo.FindItem(ctx, input.ItemID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "quotation item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load quotation item")
		}
		if item.QuotationID != input.QuotationID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "item does not belong to quotation")
		}

		count, err := repo.CountItems(ctx, input.QuotationID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count quotation items")
		}
		if count <= 1 {
			return pkgerrors.New(pkgerrors.CodeValidation, "a quotation must keep at least one item")
		}

		if err := repo.DeleteItem(ctx, input.ItemID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete quotation item")
		}
		return s.audit.Record(ctx, tx, auditEntry(input.Actor, "quotation.item_removed", input.QuotationID, map[string]any{
			"item_id": input.ItemID,
		}))
	})
}

func (s *service) Send(ctx context.Context, actor Actor, id uuid.UUID) error {
	return s.guardedTransition(ctx, actor, id, ActionSend, "quotation.sent", func(repo Repository, quotation *models.Quotation) (map[string]any, error) {
		count, err := repo.CountItems(ctx, id)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count quotation items")
		}
		if count < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "a quotation needs at least one item before sending")
		}
		return map[string]any{"sent_at": s.now()}, nil
	})
}

func (s *service) ApplyCoupon(ctx context.Context, actor Actor, id uuid.UUID, code string) error {
	coupon, err := s.coupons.Resolve(ctx, code, s.now())
	if err != nil {
		return err
	}
	return s.guardedTransition(ctx, actor, id, ActionApplyCoupon, "quotation.coupon_applied", func(_ Repository, quotation *models.Quotation) (map[string]any, error) {
		if coupon.VendorID != quotation.VendorID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "coupon belongs to another vendor")
		}
		return map[string]any{"coupon_id": coupon.ID}, nil
	})
}

func (s *service) RemoveCoupon(ctx context.Context, actor Actor, id uuid.UUID) error {
	return s.guardedTransition(ctx, actor, id, ActionRemoveCoupon, "quotation.coupon_removed", func(_ Repository, _ *models.Quotation) (map[string]any, error) {
		return map[string]any{"coupon_id": nil}, nil
	})
}

func (s *service) SetDeliveryCharge(ctx context.Context, actor Actor, id uuid.UUID, chargeCents int64) error {
	if chargeCents < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "delivery charge must not be negative")
	}
	return s.guardedTransition(ctx, actor, id, ActionSetDeliveryCharge, "quotation.delivery_charge_set", func(_ Repository, _ *models.Quotation) (map[string]any, error) {
		return map[string]any{"delivery_charge_cents": chargeCents}, nil
	})
}

func (s *service) Cancel(ctx context.Context, actor Actor, id uuid.UUID) error {
	return s.guardedTransition(ctx, actor, id, ActionCancel, "quotation.cancelled", nil)
}

func (s *service) Confirm(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Quotation, error) {
	repo := s.repo.WithTx(tx)
	quotation, err := repo.FindByIDForUpdate(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "quotation not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load quotation")
	}

	next, err := nextStatus(quotation.Status, ActionConfirm)
	if err != nil {
		return nil, err
	}
	if err := repo.Update(ctx, id, map[string]any{"status": next}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update quotation status")
	}
	quotation.Status = next

	items, err := repo.ListItems(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list quotation items")
	}
	quotation.Items = items
	return quotation, nil
}

func (s *service) ExpireStaleSent(ctx context.Context, cutoff time.Time) (int, error) {
	stale, err := s.repo.FindSentBefore(ctx, cutoff)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find stale quotations")
	}

	expired := 0
	for _, quotation := range stale {
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			current, err := repo.FindByIDForUpdate(ctx, quotation.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load quotation")
			}
			next, err := nextStatus(current.Status, ActionCancel)
			if err != nil {
				// Promoted or already cancelled since the scan; skip.
				return nil
			}
			// A paid quotation is owned by its order now, even if the
			// confirm write races the scan.
			hasOrder, err := repo.OrderExistsForQuotation(ctx, quotation.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check order existence")
			}
			if hasOrder {
				return nil
			}
			if err := repo.Update(ctx, quotation.ID, map[string]any{"status": next}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel quotation")
			}
			expired++
			return s.audit.Record(ctx, tx, audit.Entry{
				ActorID:    quotation.VendorID,
				ActorRole:  "system",
				Action:     "quotation.expired",
				EntityType: entityType,
				EntityID:   quotation.ID,
				Metadata:   map[string]any{"sent_at": quotation.SentAt},
			})
		})
		if err != nil {
			return expired, err
		}
	}
	return expired, nil
}

// guardedTransition re-reads the quotation under a row lock, resolves the
// transition table, applies updates, and writes the audit entry in one
// transaction.
func (s *service) guardedTransition(
	ctx context.Context,
	actor Actor,
	id uuid.UUID,
	action Action,
	auditAction string,
	prepare func(repo Repository, quotation *models.Quotation) (map[string]any, error),
) error {
	if err := requireVendorActor(actor); err != nil {
		return err
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		quotation, err := repo.FindByIDForUpdate(ctx, id)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "quotation not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load quotation")
		}
		if err := authorizeVendorWrite(actor, quotation); err != nil {
			return err
		}

		next, err := nextStatus(quotation.Status, action)
		if err != nil {
			return err
		}

		updates := map[string]any{}
		if prepare != nil {
			extra, err := prepare(repo, quotation)
			if err != nil {
				return err
			}
			for k, v := range extra {
				updates[k] = v
			}
		}
		updates["status"] = next

		if err := repo.Update(ctx, id, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update quotation")
		}
		return s.audit.Record(ctx, tx, auditEntry(actor, auditAction, id, map[string]any{
			"from": quotation.Status,
			"to":   next,
		}))
	})
}

// guardedMutation is guardedTransition for item edits: same lock and table
// check, but the work happens in a callback instead of a column update.
func (s *service) guardedMutation(
	ctx context.Context,
	actor Actor,
	id uuid.UUID,
	action Action,
	fn func(repo Repository, tx *gorm.DB, quotation *models.Quotation) error,
) error {
	if err := requireVendorActor(actor); err != nil {
		return err
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		quotation, err := repo.FindByIDForUpdate(ctx, id)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "quotation not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load quotation")
		}
		if err := authorizeVendorWrite(actor, quotation); err != nil {
			return err
		}
		if _, err := nextStatus(quotation.Status, action); err != nil {
			return err
		}
		return fn(repo, tx, quotation)
	})
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Quotation, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quotation id required")
	}
	quotation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "quotation not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load quotation")
	}
	return quotation, nil
}

func validateItemFields(quantity int, start, end time.Time, priceCents int64) error {
	if quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if !start.Before(end) {
		return pkgerrors.New(pkgerrors.CodeValidation, "rental start must be before rental end")
	}
	if priceCents < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "unit price must not be negative")
	}
	return nil
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

func authorizeVendorWrite(actor Actor, quotation *models.Quotation) error {
	if actor.Role == enums.UserRoleAdmin {
		return nil
	}
	if quotation.VendorID != actor.VendorID {
		return pkgerrors.New(pkgerrors.CodeNotFound, "quotation not found")
	}
	return nil
}

func authorizeRead(actor Actor, quotation *models.Quotation) error {
	switch actor.Role {
	case enums.UserRoleAdmin:
		return nil
	case enums.UserRoleVendor:
		if quotation.VendorID == actor.VendorID {
			return nil
		}
	case enums.UserRoleCustomer:
		if quotation.CustomerID == actor.UserID && quotation.Status != enums.QuotationStatusDraft {
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeNotFound, "quotation not found")
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
