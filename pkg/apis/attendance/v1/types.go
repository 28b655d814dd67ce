// Package v1 holds the wire types served by the attendance API, plus the
// column metadata the filter package needs to translate user filters into
// SQL safely.
package v1

import (
	"time"

	"github.com/clockwise-hq/clockwise/pkg/db/models"
)

type Sort string

const (
	SortAscending  Sort = "asc"
	SortDescending Sort = "desc"
)

type ColumnType int

const (
	ColumnTypeUnknown ColumnType = iota
	ColumnTypeString
	ColumnTypeNumerical
	ColumnTypeArray
)

// ConsolidatedShift is one read-time pairing of clock-in/clock-out punches.
// Either side may be absent when the shift is partial.
type ConsolidatedShift struct {
	Date          string `json:"date"`
	CompanyID     uint   `json:"company_id"`
	EmployeeID    uint   `json:"employee_id"`
	ShiftSequence int    `json:"shift_sequence"`
	ClockIn       string `json:"clock_in,omitempty"`
	ClockOut      string `json:"clock_out,omitempty"`
	// DurationMinutes is present only for fully paired shifts. Overnight
	// pairs report the wrapped duration.
	DurationMinutes *int `json:"duration_minutes,omitempty"`
}

// RecordEventRequest is the POST /api/events body.
type RecordEventRequest struct {
	EmployeeID    uint          `json:"employee_id"`
	Date          string        `json:"date"`
	ShiftSequence int           `json:"shift_sequence"`
	EventKind     models.EventKind `json:"event_kind"`
	TimeOfDay     string        `json:"time_of_day"`
	Origin        models.Origin `json:"origin"`
	Note          string        `json:"note,omitempty"`
}

// EditEventRequest is the PATCH /api/events/{id} body. Nil fields are left
// unchanged. Only adjustment-origin events accept edits.
type EditEventRequest struct {
	Date          *string           `json:"date,omitempty"`
	ShiftSequence *int              `json:"shift_sequence,omitempty"`
	EventKind     *models.EventKind `json:"event_kind,omitempty"`
	TimeOfDay     *string           `json:"time_of_day,omitempty"`
	Note          *string           `json:"note,omitempty"`
}

// CorrectionRequest is the POST /api/corrections body, the single entry
// point for invalidating an official punch and recording its replacement.
type CorrectionRequest struct {
	SourceEventID         uint             `json:"source_event_id"`
	DestinationEmployeeID uint             `json:"destination_employee_id"`
	Date                  string           `json:"date"`
	EventKind             models.EventKind `json:"event_kind"`
	TimeOfDay             string           `json:"time_of_day"`
	Justification         string           `json:"justification"`
	// InvalidateSource defaults to true when omitted.
	InvalidateSource *bool `json:"invalidate_source,omitempty"`
	ShiftSequence    *int  `json:"shift_sequence,omitempty"`
}

type CorrectionResult struct {
	AdjustmentID uint `json:"adjustment_id"`
	SourceID     uint `json:"source_id"`
	Invalidated  bool `json:"invalidated"`
}

// ImportRow is one punch in a bulk import batch.
type ImportRow struct {
	EmployeeID    uint             `json:"employee_id" yaml:"employee_id"`
	Date          string           `json:"date" yaml:"date"`
	ShiftSequence int              `json:"shift_sequence" yaml:"shift_sequence"`
	EventKind     models.EventKind `json:"event_kind" yaml:"event_kind"`
	TimeOfDay     string           `json:"time_of_day" yaml:"time_of_day"`
	Note          string           `json:"note,omitempty" yaml:"note,omitempty"`
}

type ImportRowError struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// ImportSummary reports per-row outcomes of a bulk import. One bad row
// never aborts the batch.
type ImportSummary struct {
	BatchID    string           `json:"batch_id"`
	Inserted   int              `json:"inserted"`
	Duplicated int              `json:"duplicated"`
	Invalid    []ImportRowError `json:"invalid,omitempty"`
}

type AuditEntry struct {
	ID        uint                   `json:"id"`
	Type      string                 `json:"type"`
	Payload   map[string]interface{} `json:"payload"`
	ActorID   uint                   `json:"actor_id"`
	CreatedAt time.Time              `json:"created_at"`
}
