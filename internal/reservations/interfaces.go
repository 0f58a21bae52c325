package reservations

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/danielharo/rentably-backend/pkg/db/models"
	"github.com/danielharo/rentably-backend/pkg/enums"
)

// Repository defines persistence operations for the reservation ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	// FindVariantForUpdate loads the variant row under a row lock so the
	// overlap-sum-then-insert sequence serializes per variant.
	FindVariantForUpdate(ctx context.Context, variantID uuid.UUID) (*models.ProductVariant, error)
	SumOverlapping(ctx context.Context, variantID uuid.UUID, start, end time.Time) (int64, error)
	Create(ctx context.Context, reservation *models.Reservation) error
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Reservation, error)
	UpdateStatusByOrder(ctx context.Context, orderID uuid.UUID, from, to enums.ReservationStatus) (int64, error)
}
