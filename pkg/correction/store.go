package correction

import (
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/clockwise-hq/clockwise/pkg/audit"
	"github.com/clockwise-hq/clockwise/pkg/db"
	"github.com/clockwise-hq/clockwise/pkg/db/models"
	"github.com/clockwise-hq/clockwise/pkg/ledger"
	"github.com/clockwise-hq/clockwise/pkg/scope"
)

// gormStore backs the workflow with postgres. Locking is pessimistic:
// LockEvent issues SELECT ... FOR UPDATE so two corrections of the same
// source serialize, while corrections of distinct sources run concurrently.
type gormStore struct {
	tx *gorm.DB
}

func NewStore(dbc *db.DB) Store {
	return &gormStore{tx: dbc.DB}
}

func (s *gormStore) InTransaction(fn func(tx Store) error) error {
	return s.tx.Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{tx: tx})
	})
}

func (s *gormStore) LockEvent(id uint) (*models.AttendanceEvent, error) {
	var event models.AttendanceEvent
	res := s.tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&event, id)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, ledger.ErrEventNotFound
		}
		return nil, res.Error
	}
	return &event, nil
}

func (s *gormStore) CompanyOfEmployee(employeeID uint) (uint, error) {
	var employee models.Employee
	res := s.tx.First(&employee, employeeID)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return 0, scope.ErrEmployeeNotFound
		}
		return 0, res.Error
	}
	return employee.CompanyID, nil
}

func (s *gormStore) HasActiveMembership(actorID, companyID uint) (bool, error) {
	var count int64
	res := s.tx.Model(&models.Membership{}).
		Where("actor_id = ? AND company_id = ? AND active = ?", actorID, companyID, true).
		Count(&count)
	if res.Error != nil {
		return false, res.Error
	}
	return count > 0, nil
}

func (s *gormStore) AdjustmentExists(companyID, employeeID uint, date time.Time, shiftSequence int, kind models.EventKind, timeOfDay int) (bool, error) {
	var count int64
	res := s.tx.Model(&models.AttendanceEvent{}).
		Where("company_id = ? AND employee_id = ? AND date = ? AND shift_sequence = ? AND event_kind = ? AND time_of_day = ? AND origin = ?",
			companyID, employeeID, date, shiftSequence, kind, timeOfDay, models.OriginAdjustment).
		Count(&count)
	if res.Error != nil {
		return false, res.Error
	}
	return count > 0, nil
}

func (s *gormStore) Invalidate(event *models.AttendanceEvent, justification string, actorID uint, at time.Time) error {
	// Column-scoped update: nothing besides the treatment fields may ever
	// change on an official row.
	res := s.tx.Model(&models.AttendanceEvent{}).
		Where("id = ?", event.ID).
		Updates(map[string]interface{}{
			"treatment_status":        models.TreatmentInvalidated,
			"treatment_justification": justification,
			"treatment_actor_id":      actorID,
			"treatment_at":            at,
		})
	if res.Error != nil {
		return errors.Wrap(res.Error, "invalidating source event")
	}
	event.TreatmentStatus = models.TreatmentInvalidated
	event.TreatmentJustification = justification
	event.TreatmentActorID = &actorID
	event.TreatmentAt = &at
	return nil
}

func (s *gormStore) InsertAdjustment(event *models.AttendanceEvent) error {
	if res := s.tx.Create(event); res.Error != nil {
		// A concurrent twin that slipped past AdjustmentExists loses here on
		// the unique index; surface it as the same conflict.
		if ledger.IsUniqueViolation(res.Error) {
			return ErrDuplicateAdjustment
		}
		return errors.Wrap(res.Error, "inserting adjustment event")
	}
	return nil
}

func (s *gormStore) AppendAudit(entry audit.Entry) (uint, error) {
	return audit.Append(s.tx, entry)
}
