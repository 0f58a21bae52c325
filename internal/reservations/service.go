package reservations

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/danielharo/rentably-backend/pkg/db/models"
	"github.com/danielharo/rentably-backend/pkg/enums"
	pkgerrors "github.com/danielharo/rentably-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service is the inventory reservation ledger. Reserve is the only write
// path that consumes stock; the status transitions release it.
type Service interface {
	// Reserve runs inside the caller's transaction so order creation and
	// stock checks commit or roll back together.
	Reserve(ctx context.Context, tx *gorm.DB, input ReserveInput) (*models.Reservation, error)
	MarkWithCustomer(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error
	ReleaseForOrder(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error
	ListForOrder(ctx context.Context, orderID uuid.UUID) ([]models.Reservation, error)
}

type service struct {
	repo Repository
	tx   txRunner
}

// ReserveInput is one requested hold of variant stock for a date window.
type ReserveInput struct {
	VariantID uuid.UUID
	OrderID   uuid.UUID
	StartDate time.Time
	EndDate   time.Time
	Quantity  int
}

// NewService builds the reservation ledger service.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reservations repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) Reserve(ctx context.Context, tx *gorm.DB, input ReserveInput) (*models.Reservation, error) {
	if input.VariantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant id required")
	}
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if !input.StartDate.Before(input.EndDate) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "start date must be before end date")
	}

	repo := s.repo.WithTx(tx)

	// The lock on the variant row serializes concurrent reserve attempts
	// for the same variant; without it two overlap checks can both pass.
	variant, err := repo.FindVariantForUpdate(ctx, input.VariantID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock variant")
	}

	held, err := repo.SumOverlapping(ctx, input.VariantID, input.StartDate, input.EndDate)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum overlapping reservations")
	}

	if held+int64(input.Quantity) > int64(variant.Quantity) {
		available := int64(variant.Quantity) - held
		if available < 0 {
			available = 0
		}
		return nil, pkgerrors.New(pkgerrors.CodeOverbooked, "requested quantity exceeds available stock").
			WithDetails(map[string]any{
				"variant_id": input.VariantID,
				"requested":  input.Quantity,
				"available":  available,
			})
	}

	reservation := &models.Reservation{
		VariantID: input.VariantID,
		OrderID:   input.OrderID,
		StartDate: input.StartDate,
		EndDate:   input.EndDate,
		Quantity:  input.Quantity,
		Status:    enums.ReservationStatusReserved,
	}
	if err := repo.Create(ctx, reservation); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert reservation")
	}
	return reservation, nil
}

// MarkWithCustomer moves an order's holds to WITH_CUSTOMER when fulfillment
// hands the items over. Runs inside the caller's transaction alongside the
// order status change.
func (s *service) MarkWithCustomer(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error {
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	repo := s.repo.WithTx(tx)
	updated, err := repo.UpdateStatusByOrder(ctx, orderID, enums.ReservationStatusReserved, enums.ReservationStatusWithCustomer)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update reservation status")
	}
	if updated == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "no reserved stock to hand over for this order")
	}
	return nil
}

// ReleaseForOrder returns an order's held stock to the pool. Runs inside the
// caller's transaction alongside the return record.
func (s *service) ReleaseForOrder(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error {
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	repo := s.repo.WithTx(tx)
	for _, from := range []enums.ReservationStatus{enums.ReservationStatusWithCustomer, enums.ReservationStatusReserved} {
		if _, err := repo.UpdateStatusByOrder(ctx, orderID, from, enums.ReservationStatusAvailable); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release reservations")
		}
	}
	return nil
}

func (s *service) ListForOrder(ctx context.Context, orderID uuid.UUID) ([]models.Reservation, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	reservations, err := s.repo.FindByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reservations")
	}
	return reservations, nil
}
