// Package audit is the append-only sink for regulated mutations. Entries
// are never updated or deleted; the query side is a pure projection.
package audit

import (
	"encoding/json"
	"time"

	"github.com/jackc/pgtype"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/clockwise-hq/clockwise/pkg/db"
	"github.com/clockwise-hq/clockwise/pkg/db/models"
)

type Entry struct {
	Type    string
	ActorID uint
	Payload map[string]interface{}
}

// Append writes one entry inside the caller's transaction so the audit row
// commits or rolls back with the mutation it records.
func Append(tx *gorm.DB, entry Entry) (uint, error) {
	raw, err := json.Marshal(entry.Payload)
	if err != nil {
		return 0, errors.Wrap(err, "marshaling audit payload")
	}

	row := models.AuditLog{
		Type:    entry.Type,
		ActorID: entry.ActorID,
		Payload: pgtype.JSONB{Bytes: raw, Status: pgtype.Present},
	}
	if res := tx.Create(&row); res.Error != nil {
		return 0, errors.Wrap(res.Error, "appending audit entry")
	}
	return row.ID, nil
}

type QueryFilters struct {
	Type    string
	ActorID uint
	Start   time.Time
	End     time.Time
	Limit   int
}

// Query lists entries newest first.
func Query(dbc *db.DB, filters QueryFilters) ([]models.AuditLog, error) {
	q := dbc.DB.Model(&models.AuditLog{})
	if filters.Type != "" {
		q = q.Where("type = ?", filters.Type)
	}
	if filters.ActorID != 0 {
		q = q.Where("actor_id = ?", filters.ActorID)
	}
	if !filters.Start.IsZero() {
		q = q.Where("created_at >= ?", filters.Start)
	}
	if !filters.End.IsZero() {
		q = q.Where("created_at < ?", filters.End)
	}
	if filters.Limit > 0 {
		q = q.Limit(filters.Limit)
	}

	var entries []models.AuditLog
	if res := q.Order("created_at DESC, id DESC").Find(&entries); res.Error != nil {
		return nil, res.Error
	}
	return entries, nil
}
