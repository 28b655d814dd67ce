package models

import (
	"time"
)

type EventKind string

const (
	ClockIn  EventKind = "clock_in"
	ClockOut EventKind = "clock_out"
)

type Origin string

const (
	OriginOfficialDevice Origin = "official_device"
	OriginImported       Origin = "imported"
	OriginAdjustment     Origin = "adjustment"
)

type TreatmentStatus string

const (
	TreatmentValid       TreatmentStatus = "valid"
	TreatmentInvalidated TreatmentStatus = "invalidated"
)

// AttendanceEvent is one punch: a single clock-in or clock-out for an
// employee on a date. Rows originating from an official device are legally
// immutable; the only permitted change is the one-way valid -> invalidated
// treatment transition performed by the correction workflow. Rows are never
// soft deleted: official and imported rows are never deleted at all, and
// adjustment rows are hard deleted with an audit trail.
type AttendanceEvent struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CompanyID  uint `json:"company_id" gorm:"index;not null;uniqueIndex:idx_attendance_events_logical_punch"`
	EmployeeID uint `json:"employee_id" gorm:"index;not null;uniqueIndex:idx_attendance_events_logical_punch"`

	// Date is the calendar date of the punch, stored without a time component.
	Date time.Time `json:"date" gorm:"type:date;index;not null;uniqueIndex:idx_attendance_events_logical_punch"`

	// ShiftSequence distinguishes multiple shifts worked on the same date,
	// starting at 1.
	ShiftSequence int       `json:"shift_sequence" gorm:"not null;default:1;uniqueIndex:idx_attendance_events_logical_punch"`
	EventKind     EventKind `json:"event_kind" gorm:"not null;uniqueIndex:idx_attendance_events_logical_punch"`

	// TimeOfDay is minutes since midnight, 0..1439. Punches are minute
	// resolution by regulation.
	TimeOfDay int `json:"time_of_day" gorm:"not null;uniqueIndex:idx_attendance_events_logical_punch"`

	Origin          Origin          `json:"origin" gorm:"not null;uniqueIndex:idx_attendance_events_logical_punch"`
	TreatmentStatus TreatmentStatus `json:"treatment_status" gorm:"not null;default:valid;index"`
	IsOfficial      bool            `json:"is_official" gorm:"not null;default:false"`

	// Forensic metadata captured by official devices. Stored verbatim and
	// never interpreted or verified by this subsystem.
	SequentialRecordNumber *int64     `json:"sequential_record_number,omitempty"`
	IntegrityHash          string     `json:"integrity_hash,omitempty"`
	DeviceID               string     `json:"device_id,omitempty"`
	Timezone               string     `json:"timezone,omitempty"`
	CapturedAt             *time.Time `json:"captured_at,omitempty"`

	// AdjustmentSourceEventID links an adjustment row back to the punch it
	// replaces. Set exactly once, at creation, by the correction workflow.
	AdjustmentSourceEventID *uint `json:"adjustment_source_event_id,omitempty" gorm:"index"`

	TreatmentJustification string     `json:"treatment_justification,omitempty"`
	TreatmentActorID       *uint      `json:"treatment_actor_id,omitempty"`
	TreatmentAt            *time.Time `json:"treatment_at,omitempty"`

	Note string `json:"note,omitempty"`
}

// Minutes converts an HH:MM wall clock pair into a TimeOfDay value.
func Minutes(hour, minute int) int {
	return hour*60 + minute
}
