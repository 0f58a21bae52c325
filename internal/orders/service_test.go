package orders

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/danielharo/rentably-backend/internal/audit"
	"github.com/danielharo/rentably-backend/internal/pricing"
	"github.com/danielharo/rentably-backend/pkg/db/models"
	"github.com/danielharo/rentably-backend/pkg/enums"
	pkgerrors "github.com/danielharo/rentably-backend/pkg/errors"
	"github.com/danielharo/rentably-backend/pkg/pagination"
)

type fakeRepo struct {
	orders   map[uuid.UUID]*models.RentalOrder
	byQuote  map[uuid.UUID]uuid.UUID
	items    map[uuid.UUID][]models.OrderItem
	invoices map[uuid.UUID]*models.Invoice
	returns  map[uuid.UUID]*models.Return
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		orders:   map[uuid.UUID]*models.RentalOrder{},
		byQuote:  map[uuid.UUID]uuid.UUID{},
		items:    map[uuid.UUID][]models.OrderItem{},
		invoices: map[uuid.UUID]*models.Invoice{},
		returns:  map[uuid.UUID]*models.Return{},
	}
}

func (f *fakeRepo) WithTx(*gorm.DB) Repository { return f }

func (f *fakeRepo) Create(_ context.Context, order *models.RentalOrder) error {
	if _, exists := f.byQuote[order.QuotationID]; exists {
		return fmt.Errorf(`duplicate key value violates unique constraint "uq_rental_orders_quotation_id"`)
	}
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	copied := *order
	f.orders[order.ID] = &copied
	f.byQuote[order.QuotationID] = order.ID
	return nil
}

func (f *fakeRepo) FindByID(_ context.Context, id uuid.UUID) (*models.RentalOrder, error) {
	order, ok := f.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *order
	copied.Items = f.items[id]
	copied.Invoice = f.invoices[id]
	copied.Return = f.returns[id]
	return &copied, nil
}

func (f *fakeRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.RentalOrder, error) {
	return f.FindByID(ctx, id)
}

func (f *fakeRepo) Update(_ context.Context, id uuid.UUID, updates map[string]any) error {
	order, ok := f.orders[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for column, value := range updates {
		switch column {
		case "status":
			order.Status = value.(enums.RentalOrderStatus)
		case "completed_at":
			at := value.(time.Time)
			order.CompletedAt = &at
		case "cancelled_at":
			at := value.(time.Time)
			order.CancelledAt = &at
		}
	}
	return nil
}

func (f *fakeRepo) ListByVendor(_ context.Context, vendorID uuid.UUID, _ listQuery) ([]models.RentalOrder, *pagination.Cursor, error) {
	var out []models.RentalOrder
	for _, order := range f.orders {
		if order.VendorID == vendorID {
			out = append(out, *order)
		}
	}
	return out, nil, nil
}

func (f *fakeRepo) ListByCustomer(_ context.Context, customerID uuid.UUID, _ listQuery) ([]models.RentalOrder, *pagination.Cursor, error) {
	var out []models.RentalOrder
	for _, order := range f.orders {
		if order.CustomerID == customerID {
			out = append(out, *order)
		}
	}
	return out, nil, nil
}

func (f *fakeRepo) CreateItems(_ context.Context, items []models.OrderItem) error {
	for i := range items {
		if items[i].ID == uuid.Nil {
			items[i].ID = uuid.New()
		}
		f.items[items[i].OrderID] = append(f.items[items[i].OrderID], items[i])
	}
	return nil
}

func (f *fakeRepo) CreateInvoice(_ context.Context, invoice *models.Invoice) error {
	if _, exists := f.invoices[invoice.OrderID]; exists {
		return fmt.Errorf(`duplicate key value violates unique constraint "uq_invoices_order_id"`)
	}
	if invoice.ID == uuid.Nil {
		invoice.ID = uuid.New()
	}
	copied := *invoice
	f.invoices[invoice.OrderID] = &copied
	return nil
}

func (f *fakeRepo) FindInvoiceByOrder(_ context.Context, orderID uuid.UUID) (*models.Invoice, error) {
	invoice, ok := f.invoices[orderID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *invoice
	return &copied, nil
}

func (f *fakeRepo) CreateReturn(_ context.Context, ret *models.Return) error {
	if _, exists := f.returns[ret.OrderID]; exists {
		return fmt.Errorf(`duplicate key value violates unique constraint "uq_returns_order_id"`)
	}
	if ret.ID == uuid.Nil {
		ret.ID = uuid.New()
	}
	copied := *ret
	f.returns[ret.OrderID] = &copied
	return nil
}

func (f *fakeRepo) FindReturnByOrder(_ context.Context, orderID uuid.UUID) (*models.Return, error) {
	ret, ok := f.returns[orderID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *ret
	return &copied, nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubAudit struct {
	entries []audit.Entry
}

func (s *stubAudit) Record(_ context.Context, _ *gorm.DB, entry audit.Entry) error {
	s.entries = append(s.entries, entry)
	return nil
}

type stubLedger struct {
	withCustomer map[uuid.UUID]bool
	released     map[uuid.UUID]bool
}

func newStubLedger() *stubLedger {
	return &stubLedger{withCustomer: map[uuid.UUID]bool{}, released: map[uuid.UUID]bool{}}
}

func (s *stubLedger) MarkWithCustomer(_ context.Context, _ *gorm.DB, orderID uuid.UUID) error {
	s.withCustomer[orderID] = true
	return nil
}

func (s *stubLedger) ReleaseForOrder(_ context.Context, _ *gorm.DB, orderID uuid.UUID) error {
	s.released[orderID] = true
	return nil
}

type fixture struct {
	svc    Service
	repo   *fakeRepo
	ledger *stubLedger
	audit  *stubAudit
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:   newFakeRepo(),
		ledger: newStubLedger(),
		audit:  &stubAudit{},
	}
	svc, err := NewService(f.repo, stubTxRunner{}, f.audit, f.ledger)
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}
	f.svc = svc
	return f
}

func vendorActor(vendorID uuid.UUID) Actor {
	return Actor{UserID: uuid.New(), VendorID: vendorID, Role: enums.UserRoleVendor}
}

func (f *fixture) seedOrder(vendorID uuid.UUID, status enums.RentalOrderStatus, fulfillment enums.FulfillmentType) *models.RentalOrder {
	order := &models.RentalOrder{
		ID:              uuid.New(),
		QuotationID:     uuid.New(),
		VendorID:        vendorID,
		CustomerID:      uuid.New(),
		Status:          status,
		FulfillmentType: fulfillment,
		Currency:        enums.CurrencyUSD,
		SubtotalCents:   1000,
		TotalCents:      1000,
	}
	f.repo.orders[order.ID] = order
	f.repo.byQuote[order.QuotationID] = order.ID
	return order
}

func assertCode(t *testing.T, err error, want pkgerrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %s, got nil", want)
	}
	domainErr := pkgerrors.As(err)
	if domainErr == nil {
		t.Fatalf("expected domain error with code %s, got %v", want, err)
	}
	if domainErr.Code() != want {
		t.Fatalf("expected code %s, got %s (%v)", want, domainErr.Code(), err)
	}
}

func sampleQuotation() *models.Quotation {
	quotationID := uuid.New()
	return &models.Quotation{
		ID:         quotationID,
		VendorID:   uuid.New(),
		CustomerID: uuid.New(),
		Status:     enums.QuotationStatusConfirmed,
		Items: []models.QuotationItem{
			{
				ID:             uuid.New(),
				QuotationID:    quotationID,
				VariantID:      uuid.New(),
				Quantity:       2,
				RentalStart:    time.Now().Add(24 * time.Hour),
				RentalEnd:      time.Now().Add(72 * time.Hour),
				UnitPriceCents: 500,
			},
		},
	}
}

func TestCreateFromQuotationSnapshotsItems(t *testing.T) {
	f := newFixture(t)
	quotation := sampleQuotation()
	code := "SAVE300"

	order, err := f.svc.CreateFromQuotation(context.Background(), nil, CreateFromQuotationInput{
		Quotation: quotation,
		Totals: pricing.Totals{
			SubtotalCents:       1000,
			DiscountCents:       300,
			DeliveryChargeCents: 100,
			TotalCents:          800,
		},
		CouponCode:      &code,
		FulfillmentType: enums.FulfillmentTypeDelivery,
	})
	if err != nil {
		t.Fatalf("CreateFromQuotation returned error: %v", err)
	}

	if order.Status != enums.RentalOrderStatusConfirmed {
		t.Fatalf("expected confirmed, got %s", order.Status)
	}
	if order.TotalCents != 800 {
		t.Fatalf("expected total 800, got %d", order.TotalCents)
	}
	if len(f.repo.items[order.ID]) != 1 {
		t.Fatalf("expected 1 snapshot item, got %d", len(f.repo.items[order.ID]))
	}
	snapshot := f.repo.items[order.ID][0]
	if snapshot.UnitPriceCents != 500 || snapshot.Quantity != 2 {
		t.Fatalf("snapshot does not match quotation item: %+v", snapshot)
	}
}

func TestCreateInvoiceOncePerOrder(t *testing.T) {
	f := newFixture(t)
	vendorID := uuid.New()
	actor := vendorActor(vendorID)
	order := f.seedOrder(vendorID, enums.RentalOrderStatusConfirmed, enums.FulfillmentTypeStorePickup)
	order.SubtotalCents = 1000
	order.DiscountCents = 300
	order.DeliveryChargeCents = 100
	order.TotalCents = 800

	invoice, err := f.svc.CreateInvoice(context.Background(), actor, order.ID)
	if err != nil {
		t.Fatalf("CreateInvoice returned error: %v", err)
	}
	if invoice.Status != enums.InvoiceStatusDraft {
		t.Fatalf("expected draft invoice, got %s", invoice.Status)
	}
	if invoice.PaidAmountCents != 0 {
		t.Fatalf("expected nothing paid at creation, got %d", invoice.PaidAmountCents)
	}
	if invoice.RentalAmountCents != 1000 {
		t.Fatalf("expected undiscounted rental amount 1000, got %d", invoice.RentalAmountCents)
	}
	if invoice.SecurityDepositCents != 0 {
		t.Fatalf("expected zero deposit, got %d", invoice.SecurityDepositCents)
	}
	if invoice.TotalAmountCents != 1100 {
		t.Fatalf("expected total = rental + deposit + delivery = 1100, got %d", invoice.TotalAmountCents)
	}

	_, err = f.svc.CreateInvoice(context.Background(), actor, order.ID)
	assertCode(t, err, pkgerrors.CodeStateConflict)

	cancelled := f.seedOrder(vendorID, enums.RentalOrderStatusCancelled, enums.FulfillmentTypeStorePickup)
	_, err = f.svc.CreateInvoice(context.Background(), actor, cancelled.ID)
	assertCode(t, err, pkgerrors.CodeStateConflict)
}

func TestCreateFromQuotationIsIdempotentPerQuotation(t *testing.T) {
	f := newFixture(t)
	quotation := sampleQuotation()
	input := CreateFromQuotationInput{
		Quotation: quotation,
		Totals:    pricing.Totals{SubtotalCents: 1000, TotalCents: 1000},
	}

	if _, err := f.svc.CreateFromQuotation(context.Background(), nil, input); err != nil {
		t.Fatalf("first create returned error: %v", err)
	}
	_, err := f.svc.CreateFromQuotation(context.Background(), nil, input)
	assertCode(t, err, pkgerrors.CodeStateConflict)
}

func TestMarkPickedUpTransitionsToActive(t *testing.T) {
	f := newFixture(t)
	vendorID := uuid.New()
	actor := vendorActor(vendorID)
	order := f.seedOrder(vendorID, enums.RentalOrderStatusConfirmed, enums.FulfillmentTypeStorePickup)

	if err := f.svc.MarkPickedUp(context.Background(), actor, order.ID); err != nil {
		t.Fatalf("MarkPickedUp returned error: %v", err)
	}
	if f.repo.orders[order.ID].Status != enums.RentalOrderStatusActive {
		t.Fatalf("expected active, got %s", f.repo.orders[order.ID].Status)
	}
	if !f.ledger.withCustomer[order.ID] {
		t.Fatal("expected reservations marked with customer")
	}

	// Already active.
	assertCode(t, f.svc.MarkPickedUp(context.Background(), actor, order.ID), pkgerrors.CodeStateConflict)
}

func TestMarkDeliveredChecksFulfillmentType(t *testing.T) {
	f := newFixture(t)
	vendorID := uuid.New()
	actor := vendorActor(vendorID)
	pickup := f.seedOrder(vendorID, enums.RentalOrderStatusConfirmed, enums.FulfillmentTypeStorePickup)

	assertCode(t, f.svc.MarkDelivered(context.Background(), actor, pickup.ID), pkgerrors.CodeStateConflict)

	delivery := f.seedOrder(vendorID, enums.RentalOrderStatusConfirmed, enums.FulfillmentTypeDelivery)
	if err := f.svc.MarkDelivered(context.Background(), actor, delivery.ID); err != nil {
		t.Fatalf("MarkDelivered returned error: %v", err)
	}
}

func TestRecordReturnCompletesOrderOnce(t *testing.T) {
	f := newFixture(t)
	vendorID := uuid.New()
	actor := vendorActor(vendorID)
	order := f.seedOrder(vendorID, enums.RentalOrderStatusActive, enums.FulfillmentTypeStorePickup)

	returnedAt := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	ret, err := f.svc.RecordReturn(context.Background(), actor, order.ID, ReturnInput{
		ReturnedAt:     returnedAt,
		LateFeeCents:   200,
		DamageFeeCents: 0,
	})
	if err != nil {
		t.Fatalf("RecordReturn returned error: %v", err)
	}
	if !ret.ReturnedAt.Equal(returnedAt) {
		t.Fatalf("expected returned_at %s, got %s", returnedAt, ret.ReturnedAt)
	}
	if ret.LateFeeCents != 200 {
		t.Fatalf("expected late fee 200, got %d", ret.LateFeeCents)
	}
	stored := f.repo.orders[order.ID]
	if stored.Status != enums.RentalOrderStatusCompleted {
		t.Fatalf("expected completed, got %s", stored.Status)
	}
	if stored.CompletedAt == nil {
		t.Fatal("expected completed_at to be stamped")
	}
	if !f.ledger.released[order.ID] {
		t.Fatal("expected reservations released")
	}

	_, err = f.svc.RecordReturn(context.Background(), actor, order.ID, ReturnInput{ReturnedAt: returnedAt})
	assertCode(t, err, pkgerrors.CodeStateConflict)
}

func TestRecordReturnRequiresActiveOrder(t *testing.T) {
	f := newFixture(t)
	vendorID := uuid.New()
	actor := vendorActor(vendorID)
	order := f.seedOrder(vendorID, enums.RentalOrderStatusConfirmed, enums.FulfillmentTypeStorePickup)
	returnedAt := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

	_, err := f.svc.RecordReturn(context.Background(), actor, order.ID, ReturnInput{ReturnedAt: returnedAt})
	assertCode(t, err, pkgerrors.CodeStateConflict)

	_, err = f.svc.RecordReturn(context.Background(), actor, order.ID, ReturnInput{ReturnedAt: returnedAt, LateFeeCents: -1})
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestRecordReturnRejectsMissingReturnedAt(t *testing.T) {
	f := newFixture(t)
	vendorID := uuid.New()
	actor := vendorActor(vendorID)
	order := f.seedOrder(vendorID, enums.RentalOrderStatusActive, enums.FulfillmentTypeStorePickup)

	_, err := f.svc.RecordReturn(context.Background(), actor, order.ID, ReturnInput{LateFeeCents: 100})
	assertCode(t, err, pkgerrors.CodeValidation)
	if f.repo.orders[order.ID].Status != enums.RentalOrderStatusActive {
		t.Fatalf("order status should be untouched, got %s", f.repo.orders[order.ID].Status)
	}
}

func TestCancelOnlyFromConfirmed(t *testing.T) {
	f := newFixture(t)
	vendorID := uuid.New()
	actor := vendorActor(vendorID)

	confirmed := f.seedOrder(vendorID, enums.RentalOrderStatusConfirmed, enums.FulfillmentTypeStorePickup)
	if err := f.svc.Cancel(context.Background(), actor, confirmed.ID); err != nil {
		t.Fatalf("Cancel returned error: %v", err)
	}
	stored := f.repo.orders[confirmed.ID]
	if stored.Status != enums.RentalOrderStatusCancelled {
		t.Fatalf("expected cancelled, got %s", stored.Status)
	}
	if stored.CancelledAt == nil {
		t.Fatal("expected cancelled_at to be stamped")
	}
	if !f.ledger.released[confirmed.ID] {
		t.Fatal("expected reservations released on cancel")
	}

	active := f.seedOrder(vendorID, enums.RentalOrderStatusActive, enums.FulfillmentTypeStorePickup)
	assertCode(t, f.svc.Cancel(context.Background(), actor, active.ID), pkgerrors.CodeStateConflict)
}

func TestVendorIsolation(t *testing.T) {
	f := newFixture(t)
	order := f.seedOrder(uuid.New(), enums.RentalOrderStatusConfirmed, enums.FulfillmentTypeStorePickup)

	intruder := vendorActor(uuid.New())
	assertCode(t, f.svc.Cancel(context.Background(), intruder, order.ID), pkgerrors.CodeNotFound)

	_, err := f.svc.Get(context.Background(), intruder, order.ID)
	assertCode(t, err, pkgerrors.CodeNotFound)

	customer := Actor{UserID: order.CustomerID, Role: enums.UserRoleCustomer}
	if _, err := f.svc.Get(context.Background(), customer, order.ID); err != nil {
		t.Fatalf("customer Get returned error: %v", err)
	}
}
