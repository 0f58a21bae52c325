package audit

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupAuditTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS audit_logs (
  id TEXT PRIMARY KEY,
  actor_id TEXT NOT NULL,
  actor_role TEXT NOT NULL,
  action TEXT NOT NULL,
  entity_type TEXT NOT NULL,
  entity_id TEXT NOT NULL,
  metadata TEXT,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func TestRecordAndList(t *testing.T) {
	db := setupAuditTestDB(t)
	svc, err := NewService(db)
	require.NoError(t, err)

	entityID := uuid.New()
	actorID := uuid.New()

	for _, action := range []string{"quotation.created", "quotation.sent"} {
		require.NoError(t, svc.Record(context.Background(), nil, Entry{
			ActorID:    actorID,
			ActorRole:  "vendor",
			Action:     action,
			EntityType: "quotation",
			EntityID:   entityID,
			Metadata:   map[string]any{"note": action},
		}))
	}

	rows, err := svc.ListByEntity(context.Background(), "quotation", entityID, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
}

func TestRecordRequiresActionAndEntity(t *testing.T) {
	db := setupAuditTestDB(t)
	svc, err := NewService(db)
	require.NoError(t, err)

	err = svc.Record(context.Background(), nil, Entry{EntityType: "quotation"})
	require.Error(t, err)

	err = svc.Record(context.Background(), nil, Entry{Action: "quotation.sent"})
	require.Error(t, err)
}
