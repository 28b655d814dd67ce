// Package consolidation pairs independently stored clock-in/clock-out
// punches into reportable shift intervals. It is a pure function of its
// input set: no side effects, same output for the same snapshot.
package consolidation

import (
	"sort"
	"time"

	"github.com/clockwise-hq/clockwise/pkg/db/models"
)

const minutesPerDay = 24 * 60

// Shift is one consolidated interval for a (date, employee, shift sequence)
// group. Either side may be absent: partial shifts surface rather than being
// silently dropped.
type Shift struct {
	Date          time.Time
	CompanyID     uint
	EmployeeID    uint
	ShiftSequence int

	// ClockIn is the earliest valid clock-in of the group, in minutes since
	// midnight; ClockOut the latest valid clock-out. Nil when absent.
	ClockIn  *int
	ClockOut *int
}

// Duration reports the shift length in minutes for fully paired shifts. A
// clock-out earlier than its clock-in still denotes one continuous shift
// crossing midnight and yields the wrapped duration; such pairs are never
// rejected here, plausibility limits are write-time rules.
func (s Shift) Duration() (int, bool) {
	if s.ClockIn == nil || s.ClockOut == nil {
		return 0, false
	}
	in, out := *s.ClockIn, *s.ClockOut
	if out < in {
		return out + minutesPerDay - in, true
	}
	return out - in, true
}

type groupKey struct {
	date          string
	employeeID    uint
	shiftSequence int
}

// Consolidate groups valid punches and emits one record per group that has
// at least one side present, ordered by date, employee, and shift sequence.
// Invalidated punches are ignored entirely.
func Consolidate(events []models.AttendanceEvent) []Shift {
	groups := map[groupKey]*Shift{}

	for i := range events {
		event := &events[i]
		if event.TreatmentStatus != models.TreatmentValid {
			continue
		}

		key := groupKey{
			date:          event.Date.Format("2006-01-02"),
			employeeID:    event.EmployeeID,
			shiftSequence: event.ShiftSequence,
		}
		shift, ok := groups[key]
		if !ok {
			shift = &Shift{
				Date:          event.Date,
				CompanyID:     event.CompanyID,
				EmployeeID:    event.EmployeeID,
				ShiftSequence: event.ShiftSequence,
			}
			groups[key] = shift
		}

		minutes := event.TimeOfDay
		switch event.EventKind {
		case models.ClockIn:
			if shift.ClockIn == nil || minutes < *shift.ClockIn {
				shift.ClockIn = &minutes
			}
		case models.ClockOut:
			if shift.ClockOut == nil || minutes > *shift.ClockOut {
				shift.ClockOut = &minutes
			}
		}
	}

	shifts := make([]Shift, 0, len(groups))
	for _, shift := range groups {
		shifts = append(shifts, *shift)
	}
	sort.Slice(shifts, func(i, j int) bool {
		if !shifts[i].Date.Equal(shifts[j].Date) {
			return shifts[i].Date.Before(shifts[j].Date)
		}
		if shifts[i].EmployeeID != shifts[j].EmployeeID {
			return shifts[i].EmployeeID < shifts[j].EmployeeID
		}
		return shifts[i].ShiftSequence < shifts[j].ShiftSequence
	})
	return shifts
}
