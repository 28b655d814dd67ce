package models

import (
	"time"

	"github.com/jackc/pgtype"
)

// AuditLog is an append-only record of regulated mutations. Rows are never
// updated or deleted.
type AuditLog struct {
	ID        uint         `json:"id" gorm:"primaryKey"`
	Type      string       `json:"type" gorm:"not null;index"`
	Payload   pgtype.JSONB `json:"payload" gorm:"type:jsonb;not null"`
	ActorID   uint         `json:"actor_id" gorm:"not null;index"`
	CreatedAt time.Time    `json:"created_at" gorm:"autoCreateTime;index"`
}

const (
	AuditTypeCorrectionApplied = "correction_applied"
	AuditTypeAdjustmentEdited  = "adjustment_edited"
	AuditTypeAdjustmentDeleted = "adjustment_deleted"
	AuditTypeEventsImported    = "events_imported"
)
