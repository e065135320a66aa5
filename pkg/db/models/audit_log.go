package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/ovenbird/bakery-backend/pkg/enums"
)

// AuditLogEntry is an append-only record of a mutating action. Details
// carries the before/after snapshots plus optional metadata. Entries are
// never updated or deleted by the application.
type AuditLogEntry struct {
	ID         uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	ActorID    *uuid.UUID        `gorm:"column:actor_id;type:uuid;index"`
	Action     enums.AuditAction `gorm:"column:action;not null"`
	TargetType enums.AuditTarget `gorm:"column:target_type;not null;index"`
	TargetID   *uuid.UUID        `gorm:"column:target_id;type:uuid;index"`
	Details    json.RawMessage   `gorm:"column:details;type:jsonb"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime"`
}
