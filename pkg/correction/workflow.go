// Package correction implements the regulated invalidate-and-replace
// procedure for official punches. It is the only path allowed to flip an
// official event's treatment status, and everything it does — lock,
// validate, invalidate, re-create, audit — commits as one unit.
package correction

import (
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/clockwise-hq/clockwise/pkg/audit"
	"github.com/clockwise-hq/clockwise/pkg/db/models"
	"github.com/clockwise-hq/clockwise/pkg/ledger"
	"github.com/clockwise-hq/clockwise/pkg/scope"
)

var (
	ErrForbidden           = errors.New("actor lacks membership in one of the involved companies")
	ErrDuplicateAdjustment = errors.New("an identical adjustment already exists")
)

// Store is the transactional storage surface the workflow runs against. The
// production implementation wraps gorm with a row-level lock on the source
// event; tests substitute an in-memory fake.
type Store interface {
	// InTransaction runs fn against a transactional view of the store. Any
	// error rolls back everything fn did.
	InTransaction(fn func(tx Store) error) error

	// LockEvent loads the source event under an exclusive row lock,
	// serializing competing corrections against the same source.
	LockEvent(id uint) (*models.AttendanceEvent, error)

	CompanyOfEmployee(employeeID uint) (uint, error)
	HasActiveMembership(actorID, companyID uint) (bool, error)
	AdjustmentExists(companyID, employeeID uint, date time.Time, shiftSequence int, kind models.EventKind, timeOfDay int) (bool, error)

	// Invalidate flips the event's treatment status and stamps the
	// justification, actor, and time, touching nothing else.
	Invalidate(event *models.AttendanceEvent, justification string, actorID uint, at time.Time) error

	InsertAdjustment(event *models.AttendanceEvent) error
	AppendAudit(entry audit.Entry) (uint, error)
}

type Request struct {
	SourceEventID         uint
	DestinationEmployeeID uint
	Date                  time.Time
	EventKind             models.EventKind
	TimeOfDay             int
	Justification         string
	InvalidateSource      bool
	ActorID               uint

	// ShiftSequence overrides the sequence inherited from the source when
	// non-nil.
	ShiftSequence *int
}

type Result struct {
	AdjustmentID uint
	SourceID     uint
	Invalidated  bool
}

type Workflow struct {
	store Store
	now   func() time.Time
}

func NewWorkflow(store Store) *Workflow {
	return &Workflow{store: store, now: time.Now}
}

// Apply executes the correction protocol. Validation failures are rejected
// before the transaction opens; any failure inside it rolls back every
// effect, so a source row is never left invalidated without its replacement
// and no adjustment exists without its audit entry.
func (w *Workflow) Apply(req Request) (*Result, error) {
	if err := w.validate(req); err != nil {
		return nil, err
	}

	var result *Result
	err := w.store.InTransaction(func(tx Store) error {
		source, err := tx.LockEvent(req.SourceEventID)
		if err != nil {
			return err
		}
		if source.TreatmentStatus == models.TreatmentInvalidated {
			return ledger.ErrAlreadyInvalidated
		}

		companyOfDestination, err := tx.CompanyOfEmployee(req.DestinationEmployeeID)
		if err != nil {
			if errors.Is(err, scope.ErrEmployeeNotFound) {
				return errors.Wrap(scope.ErrEmployeeNotFound, "destination employee")
			}
			return err
		}

		// Cross-tenant corrections require active membership in both the
		// source and destination companies.
		for _, companyID := range []uint{source.CompanyID, companyOfDestination} {
			member, err := tx.HasActiveMembership(req.ActorID, companyID)
			if err != nil {
				return err
			}
			if !member {
				return ErrForbidden
			}
		}

		shiftSequence := source.ShiftSequence
		if req.ShiftSequence != nil {
			shiftSequence = ledger.ClampShiftSequence(*req.ShiftSequence)
		}

		exists, err := tx.AdjustmentExists(companyOfDestination, req.DestinationEmployeeID,
			req.Date, shiftSequence, req.EventKind, req.TimeOfDay)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateAdjustment
		}

		now := w.now()
		if req.InvalidateSource {
			if err := tx.Invalidate(source, req.Justification, req.ActorID, now); err != nil {
				return err
			}
		}

		adjustment := &models.AttendanceEvent{
			CompanyID:               companyOfDestination,
			EmployeeID:              req.DestinationEmployeeID,
			Date:                    req.Date,
			ShiftSequence:           shiftSequence,
			EventKind:               req.EventKind,
			TimeOfDay:               req.TimeOfDay,
			Origin:                  models.OriginAdjustment,
			TreatmentStatus:         models.TreatmentValid,
			IsOfficial:              false,
			AdjustmentSourceEventID: &source.ID,
			TreatmentJustification:  req.Justification,
			TreatmentActorID:        &req.ActorID,
			TreatmentAt:             &now,
		}
		if err := tx.InsertAdjustment(adjustment); err != nil {
			return err
		}

		auditID, err := tx.AppendAudit(audit.Entry{
			Type:    models.AuditTypeCorrectionApplied,
			ActorID: req.ActorID,
			Payload: map[string]interface{}{
				"source_event_id":         source.ID,
				"adjustment_event_id":     adjustment.ID,
				"source_company_id":       source.CompanyID,
				"destination_company_id":  companyOfDestination,
				"destination_employee_id": req.DestinationEmployeeID,
				"invalidated_source":      req.InvalidateSource,
				"event_kind":              req.EventKind,
				"time_of_day":             req.TimeOfDay,
			},
		})
		if err != nil {
			return err
		}
		log.WithFields(log.Fields{
			"source":     source.ID,
			"adjustment": adjustment.ID,
			"audit":      auditID,
		}).Info("correction applied")

		result = &Result{
			AdjustmentID: adjustment.ID,
			SourceID:     source.ID,
			Invalidated:  req.InvalidateSource,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (w *Workflow) validate(req Request) error {
	if req.SourceEventID == 0 {
		return &ledger.ValidationError{Reason: "source event id is required"}
	}
	if req.DestinationEmployeeID == 0 {
		return &ledger.ValidationError{Reason: "destination employee id is required"}
	}
	if req.Date.IsZero() {
		return &ledger.ValidationError{Reason: "date is required"}
	}
	if req.EventKind != models.ClockIn && req.EventKind != models.ClockOut {
		return &ledger.ValidationError{Reason: "invalid event kind"}
	}
	if req.TimeOfDay < 0 || req.TimeOfDay > 23*60+59 {
		return &ledger.ValidationError{Reason: "time of day out of range"}
	}
	if req.Justification == "" {
		return &ledger.ValidationError{Reason: "justification is required"}
	}
	if req.ActorID == 0 {
		return &ledger.ValidationError{Reason: "actor id is required"}
	}
	return nil
}
