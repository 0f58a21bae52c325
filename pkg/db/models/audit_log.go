package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditLog is the append-only record written for every lifecycle transition.
type AuditLog struct {
	ID         uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ActorID    uuid.UUID      `gorm:"column:actor_id;type:uuid;not null"`
	ActorRole  string         `gorm:"column:actor_role;not null"`
	Action     string         `gorm:"column:action;not null"`
	EntityType string         `gorm:"column:entity_type;not null;index:idx_audit_logs_entity"`
	EntityID   uuid.UUID      `gorm:"column:entity_id;type:uuid;not null;index:idx_audit_logs_entity"`
	Metadata   map[string]any `gorm:"column:metadata;type:jsonb;serializer:json"`
	CreatedAt  time.Time      `gorm:"column:created_at;autoCreateTime"`
}
