// Package ledger stores punch events and enforces their immutability and
// uniqueness rules. Official rows are immutable from birth; only
// adjustment-origin rows may be edited or deleted, and every such change
// leaves an audit entry in the same transaction.
package ledger

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	configv1 "github.com/clockwise-hq/clockwise/pkg/apis/config/v1"
	"github.com/clockwise-hq/clockwise/pkg/audit"
	"github.com/clockwise-hq/clockwise/pkg/db"
	"github.com/clockwise-hq/clockwise/pkg/db/models"
	"github.com/clockwise-hq/clockwise/pkg/scope"
)

type Ledger struct {
	dbc    *db.DB
	limits configv1.LimitsConfig
}

func New(dbc *db.DB, limits configv1.LimitsConfig) *Ledger {
	limits.ApplyDefaults()
	return &Ledger{dbc: dbc, limits: limits}
}

// Forensic is the device-captured metadata accompanying official punches.
// It is stored verbatim and never interpreted here.
type Forensic struct {
	SequentialRecordNumber *int64
	IntegrityHash          string
	DeviceID               string
	Timezone               string
	CapturedAt             *time.Time
}

type RecordInput struct {
	CompanyID     uint
	EmployeeID    uint
	Date          time.Time
	ShiftSequence int
	EventKind     models.EventKind
	TimeOfDay     int
	Origin        models.Origin
	Note          string

	// Forensic must be present for official-device punches; the HTTP API
	// never supplies it, which keeps official creation at the ingestion
	// boundary.
	Forensic *Forensic
}

// Record validates and inserts one punch, returning the new event id.
func (l *Ledger) Record(in RecordInput) (uint, error) {
	if err := validateDate(in.Date); err != nil {
		return 0, err
	}
	if err := validateKind(in.EventKind); err != nil {
		return 0, err
	}
	if err := validateOrigin(in.Origin); err != nil {
		return 0, err
	}
	if err := validateTimeOfDay(in.TimeOfDay); err != nil {
		return 0, err
	}
	if in.Origin == models.OriginOfficialDevice && in.Forensic == nil {
		return 0, validationf("official punches require device forensic metadata")
	}
	in.ShiftSequence = ClampShiftSequence(in.ShiftSequence)

	if err := l.checkEmployee(in.CompanyID, in.EmployeeID); err != nil {
		return 0, err
	}
	if err := l.checkPlausibility(l.dbc.DB, in); err != nil {
		return 0, err
	}

	event := models.AttendanceEvent{
		CompanyID:       in.CompanyID,
		EmployeeID:      in.EmployeeID,
		Date:            in.Date,
		ShiftSequence:   in.ShiftSequence,
		EventKind:       in.EventKind,
		TimeOfDay:       in.TimeOfDay,
		Origin:          in.Origin,
		TreatmentStatus: models.TreatmentValid,
		IsOfficial:      in.Origin == models.OriginOfficialDevice,
		Note:            in.Note,
	}
	if in.Forensic != nil {
		event.SequentialRecordNumber = in.Forensic.SequentialRecordNumber
		event.IntegrityHash = in.Forensic.IntegrityHash
		event.DeviceID = in.Forensic.DeviceID
		event.Timezone = in.Forensic.Timezone
		event.CapturedAt = in.Forensic.CapturedAt
	}

	if res := l.dbc.DB.Create(&event); res.Error != nil {
		if IsUniqueViolation(res.Error) {
			return 0, ErrDuplicateEvent
		}
		return 0, errors.Wrap(res.Error, "inserting attendance event")
	}
	return event.ID, nil
}

type ListOptions struct {
	Start time.Time
	End   time.Time

	EmployeeID uint
	Origin     models.Origin
	EventKind  models.EventKind

	// OnlyValid drops invalidated punches; the consolidated view always
	// sets it.
	OnlyValid bool

	// ActiveEmployeesOnly restricts to punches of employees still active on
	// the roster.
	ActiveEmployeesOnly bool
}

// List returns punches in the companies and range requested, ordered by
// date, employee, shift sequence, time of day, and id as the deterministic
// tie-break.
func (l *Ledger) List(companyIDs []uint, opts ListOptions) ([]models.AttendanceEvent, error) {
	q, err := l.listQuery(companyIDs, opts)
	if err != nil {
		return nil, err
	}

	var events []models.AttendanceEvent
	if res := q.Order("date, employee_id, shift_sequence, time_of_day, attendance_events.id").Find(&events); res.Error != nil {
		return nil, errors.Wrap(res.Error, "listing attendance events")
	}
	return events, nil
}

// ListQuery exposes the scoped, validated base query so callers can layer
// user-supplied filters on top before executing it.
func (l *Ledger) ListQuery(companyIDs []uint, opts ListOptions) (*gorm.DB, error) {
	return l.listQuery(companyIDs, opts)
}

func (l *Ledger) listQuery(companyIDs []uint, opts ListOptions) (*gorm.DB, error) {
	if !opts.Start.IsZero() && !opts.End.IsZero() && opts.End.Before(opts.Start) {
		return nil, validationf("invalid date range: end %s before start %s",
			opts.End.Format(dateLayout), opts.Start.Format(dateLayout))
	}

	q := l.dbc.DB.Model(&models.AttendanceEvent{}).Where("company_id IN ?", companyIDs)
	if !opts.Start.IsZero() {
		q = q.Where("date >= ?", opts.Start)
	}
	if !opts.End.IsZero() {
		q = q.Where("date <= ?", opts.End)
	}
	if opts.EmployeeID != 0 {
		q = q.Where("employee_id = ?", opts.EmployeeID)
	}
	if opts.Origin != "" {
		q = q.Where("origin = ?", opts.Origin)
	}
	if opts.EventKind != "" {
		q = q.Where("event_kind = ?", opts.EventKind)
	}
	if opts.OnlyValid {
		q = q.Where("treatment_status = ?", models.TreatmentValid)
	}
	if opts.ActiveEmployeesOnly {
		q = q.Joins("JOIN employees ON employees.id = attendance_events.employee_id").
			Where("employees.active = ?", true)
	}
	return q, nil
}

// Patch carries the editable fields of an adjustment event. Nil fields are
// left unchanged.
type Patch struct {
	Date          *time.Time
	ShiftSequence *int
	EventKind     *models.EventKind
	TimeOfDay     *int
	Note          *string
}

// Edit mutates an adjustment-origin event in a company the actor may
// operate in. Anything else is immutable.
func (l *Ledger) Edit(eventID uint, patch Patch, actor scope.Actor) error {
	return l.dbc.DB.Transaction(func(tx *gorm.DB) error {
		event, err := loadEvent(tx, eventID)
		if err != nil {
			return err
		}
		if err := authorizeCompany(actor, event); err != nil {
			return err
		}
		if event.Origin != models.OriginAdjustment {
			return ErrImmutableRecord
		}

		if patch.Date != nil {
			event.Date = *patch.Date
		}
		if patch.ShiftSequence != nil {
			event.ShiftSequence = ClampShiftSequence(*patch.ShiftSequence)
		}
		if patch.EventKind != nil {
			event.EventKind = *patch.EventKind
		}
		if patch.TimeOfDay != nil {
			event.TimeOfDay = *patch.TimeOfDay
		}
		if patch.Note != nil {
			event.Note = *patch.Note
		}

		if err := validateDate(event.Date); err != nil {
			return err
		}
		if err := validateKind(event.EventKind); err != nil {
			return err
		}
		if err := validateTimeOfDay(event.TimeOfDay); err != nil {
			return err
		}
		if err := l.checkPlausibility(tx, RecordInput{
			CompanyID:     event.CompanyID,
			EmployeeID:    event.EmployeeID,
			Date:          event.Date,
			ShiftSequence: event.ShiftSequence,
			EventKind:     event.EventKind,
			TimeOfDay:     event.TimeOfDay,
		}); err != nil {
			return err
		}

		var count int64
		if res := tx.Model(&models.AttendanceEvent{}).
			Where("company_id = ? AND employee_id = ? AND date = ? AND shift_sequence = ? AND event_kind = ? AND time_of_day = ? AND origin = ? AND id <> ?",
				event.CompanyID, event.EmployeeID, event.Date, event.ShiftSequence,
				event.EventKind, event.TimeOfDay, event.Origin, event.ID).
			Count(&count); res.Error != nil {
			return res.Error
		}
		if count > 0 {
			return ErrDuplicateEvent
		}

		if res := tx.Save(event); res.Error != nil {
			if IsUniqueViolation(res.Error) {
				return ErrDuplicateEvent
			}
			return errors.Wrap(res.Error, "saving adjustment event")
		}

		_, err = audit.Append(tx, audit.Entry{
			Type:    models.AuditTypeAdjustmentEdited,
			ActorID: actor.ActorID(),
			Payload: map[string]interface{}{
				"event_id":   event.ID,
				"company_id": event.CompanyID,
			},
		})
		return err
	})
}

// Delete removes an adjustment-origin event in a company the actor may
// operate in. Official and imported rows are never deleted.
func (l *Ledger) Delete(eventID uint, actor scope.Actor) error {
	return l.dbc.DB.Transaction(func(tx *gorm.DB) error {
		event, err := loadEvent(tx, eventID)
		if err != nil {
			return err
		}
		if err := authorizeCompany(actor, event); err != nil {
			return err
		}
		if event.Origin != models.OriginAdjustment {
			return ErrImmutableRecord
		}

		if res := tx.Delete(&models.AttendanceEvent{}, event.ID); res.Error != nil {
			return errors.Wrap(res.Error, "deleting adjustment event")
		}

		_, err = audit.Append(tx, audit.Entry{
			Type:    models.AuditTypeAdjustmentDeleted,
			ActorID: actor.ActorID(),
			Payload: map[string]interface{}{
				"event_id":    event.ID,
				"company_id":  event.CompanyID,
				"employee_id": event.EmployeeID,
				"event_kind":  event.EventKind,
				"time_of_day": event.TimeOfDay,
			},
		})
		return err
	})
}

// authorizeCompany rejects cross-tenant access: an actor may only touch rows
// owned by a company in their authorized set.
func authorizeCompany(actor scope.Actor, event *models.AttendanceEvent) error {
	if !actor.Allows(event.CompanyID) {
		return scope.ErrUnauthorizedCompany
	}
	return nil
}

func (l *Ledger) checkEmployee(companyID, employeeID uint) error {
	var employee models.Employee
	if res := l.dbc.DB.First(&employee, employeeID); res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return ErrEmployeeNotFound
		}
		return res.Error
	}
	if employee.CompanyID != companyID {
		return ErrEmployeeNotInCompany
	}
	return nil
}

// checkPlausibility rejects a punch whose pairing with the opposite kind in
// the same shift group would imply an impossible shift. Writes and edits both
// run it; the read-side consolidator accepts whatever was stored.
func (l *Ledger) checkPlausibility(tx *gorm.DB, in RecordInput) error {
	opposite := models.ClockOut
	if in.EventKind == models.ClockOut {
		opposite = models.ClockIn
	}

	var others []models.AttendanceEvent
	res := tx.
		Where("company_id = ? AND employee_id = ? AND date = ? AND shift_sequence = ? AND event_kind = ? AND treatment_status = ?",
			in.CompanyID, in.EmployeeID, in.Date, in.ShiftSequence, opposite, models.TreatmentValid).
		Find(&others)
	if res.Error != nil {
		return res.Error
	}

	for _, other := range others {
		inMin, outMin := in.TimeOfDay, other.TimeOfDay
		if other.EventKind == models.ClockIn {
			inMin, outMin = other.TimeOfDay, in.TimeOfDay
		}
		if err := checkShiftBounds(l.limits, inMin, outMin); err != nil {
			return err
		}
	}
	return nil
}

func loadEvent(tx *gorm.DB, eventID uint) (*models.AttendanceEvent, error) {
	var event models.AttendanceEvent
	if res := tx.First(&event, eventID); res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, res.Error
	}
	return &event, nil
}

// IsUniqueViolation detects the postgres unique_violation error class,
// which is the concurrency safety net for single-row writes: a losing
// concurrent insert fails cleanly instead of corrupting state.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if strings.Contains(msg, "23505") || strings.Contains(msg, "duplicate key value") {
		return true
	}
	log.WithError(err).Debug("insert error was not a unique violation")
	return false
}
