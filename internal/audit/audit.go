package audit

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/danielharo/rentably-backend/pkg/db/models"
	pkgerrors "github.com/danielharo/rentably-backend/pkg/errors"
)

// Entry is one append-only audit record for a lifecycle transition.
type Entry struct {
	ActorID    uuid.UUID
	ActorRole  string
	Action     string
	EntityType string
	EntityID   uuid.UUID
	Metadata   map[string]any
}

// Writer appends audit entries, joining the caller's transaction when one is
// supplied so the entry commits with the transition it describes.
type Writer interface {
	Record(ctx context.Context, tx *gorm.DB, entry Entry) error
}

// Reader lists entries for admin review.
type Reader interface {
	ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID, limit int) ([]models.AuditLog, error)
}

// Service is the full audit surface.
type Service interface {
	Writer
	Reader
}

type service struct {
	db *gorm.DB
}

// NewService builds the audit log service.
func NewService(db *gorm.DB) (Service, error) {
	if db == nil {
		return nil, fmt.Errorf("db required")
	}
	return &service{db: db}, nil
}

func (s *service) Record(ctx context.Context, tx *gorm.DB, entry Entry) error {
	if entry.Action == "" || entry.EntityType == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "audit action and entity type required")
	}
	db := s.db
	if tx != nil {
		db = tx
	}
	row := &models.AuditLog{
		ID:         uuid.New(),
		ActorID:    entry.ActorID,
		ActorRole:  entry.ActorRole,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Metadata:   entry.Metadata,
	}
	if err := db.WithContext(ctx).Create(row).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append audit log")
	}
	return nil
}

func (s *service) ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID, limit int) ([]models.AuditLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var rows []models.AuditLog
	err := s.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list audit log")
	}
	return rows, nil
}
