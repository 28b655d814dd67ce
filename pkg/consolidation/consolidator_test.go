package consolidation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clockwise-hq/clockwise/pkg/db/models"
)

func day(value string) time.Time {
	date, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return date
}

func punch(employee uint, date string, seq int, kind models.EventKind, minutes int) models.AttendanceEvent {
	return models.AttendanceEvent{
		CompanyID:       1,
		EmployeeID:      employee,
		Date:            day(date),
		ShiftSequence:   seq,
		EventKind:       kind,
		TimeOfDay:       minutes,
		Origin:          models.OriginOfficialDevice,
		TreatmentStatus: models.TreatmentValid,
		IsOfficial:      true,
	}
}

func TestConsolidate(t *testing.T) {
	tests := []struct {
		name     string
		events   []models.AttendanceEvent
		expected []Shift
	}{
		{
			name: "full day pairs in and out",
			events: []models.AttendanceEvent{
				punch(10, "2025-01-10", 1, models.ClockIn, models.Minutes(8, 0)),
				punch(10, "2025-01-10", 1, models.ClockOut, models.Minutes(17, 0)),
			},
			expected: []Shift{
				{Date: day("2025-01-10"), CompanyID: 1, EmployeeID: 10, ShiftSequence: 1,
					ClockIn: minutes(8 * 60), ClockOut: minutes(17 * 60)},
			},
		},
		{
			name: "earliest in and latest out win within a group",
			events: []models.AttendanceEvent{
				punch(10, "2025-01-10", 1, models.ClockIn, models.Minutes(8, 15)),
				punch(10, "2025-01-10", 1, models.ClockIn, models.Minutes(8, 0)),
				punch(10, "2025-01-10", 1, models.ClockOut, models.Minutes(16, 30)),
				punch(10, "2025-01-10", 1, models.ClockOut, models.Minutes(17, 0)),
			},
			expected: []Shift{
				{Date: day("2025-01-10"), CompanyID: 1, EmployeeID: 10, ShiftSequence: 1,
					ClockIn: minutes(8 * 60), ClockOut: minutes(17 * 60)},
			},
		},
		{
			name: "partial shifts surface instead of being dropped",
			events: []models.AttendanceEvent{
				punch(10, "2025-01-10", 1, models.ClockIn, models.Minutes(8, 0)),
				punch(11, "2025-01-10", 1, models.ClockOut, models.Minutes(17, 0)),
			},
			expected: []Shift{
				{Date: day("2025-01-10"), CompanyID: 1, EmployeeID: 10, ShiftSequence: 1,
					ClockIn: minutes(8 * 60)},
				{Date: day("2025-01-10"), CompanyID: 1, EmployeeID: 11, ShiftSequence: 1,
					ClockOut: minutes(17 * 60)},
			},
		},
		{
			name: "invalidated punches are ignored entirely",
			events: []models.AttendanceEvent{
				punch(10, "2025-01-10", 1, models.ClockOut, models.Minutes(17, 0)),
				invalidated(punch(10, "2025-01-10", 1, models.ClockIn, models.Minutes(8, 0))),
			},
			expected: []Shift{
				{Date: day("2025-01-10"), CompanyID: 1, EmployeeID: 10, ShiftSequence: 1,
					ClockOut: minutes(17 * 60)},
			},
		},
		{
			name: "multiple shift sequences stay separate",
			events: []models.AttendanceEvent{
				punch(10, "2025-01-10", 2, models.ClockIn, models.Minutes(18, 0)),
				punch(10, "2025-01-10", 2, models.ClockOut, models.Minutes(22, 0)),
				punch(10, "2025-01-10", 1, models.ClockIn, models.Minutes(8, 0)),
				punch(10, "2025-01-10", 1, models.ClockOut, models.Minutes(12, 0)),
			},
			expected: []Shift{
				{Date: day("2025-01-10"), CompanyID: 1, EmployeeID: 10, ShiftSequence: 1,
					ClockIn: minutes(8 * 60), ClockOut: minutes(12 * 60)},
				{Date: day("2025-01-10"), CompanyID: 1, EmployeeID: 10, ShiftSequence: 2,
					ClockIn: minutes(18 * 60), ClockOut: minutes(22 * 60)},
			},
		},
		{
			name: "output ordered by date then employee then sequence",
			events: []models.AttendanceEvent{
				punch(11, "2025-01-11", 1, models.ClockIn, models.Minutes(9, 0)),
				punch(10, "2025-01-11", 1, models.ClockIn, models.Minutes(9, 0)),
				punch(11, "2025-01-10", 1, models.ClockIn, models.Minutes(9, 0)),
			},
			expected: []Shift{
				{Date: day("2025-01-10"), CompanyID: 1, EmployeeID: 11, ShiftSequence: 1, ClockIn: minutes(9 * 60)},
				{Date: day("2025-01-11"), CompanyID: 1, EmployeeID: 10, ShiftSequence: 1, ClockIn: minutes(9 * 60)},
				{Date: day("2025-01-11"), CompanyID: 1, EmployeeID: 11, ShiftSequence: 1, ClockIn: minutes(9 * 60)},
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Consolidate(tc.events))
		})
	}
}

func TestConsolidateOvernightShift(t *testing.T) {
	events := []models.AttendanceEvent{
		punch(10, "2025-01-10", 1, models.ClockIn, models.Minutes(23, 50)),
		punch(10, "2025-01-10", 1, models.ClockOut, models.Minutes(0, 10)),
	}

	shifts := Consolidate(events)
	require.Len(t, shifts, 1)

	duration, ok := shifts[0].Duration()
	require.True(t, ok)
	assert.Equal(t, 20, duration)
}

func TestConsolidateIsPure(t *testing.T) {
	events := []models.AttendanceEvent{
		punch(10, "2025-01-10", 1, models.ClockIn, models.Minutes(8, 0)),
		punch(10, "2025-01-10", 1, models.ClockOut, models.Minutes(17, 0)),
		punch(11, "2025-01-10", 1, models.ClockIn, models.Minutes(9, 0)),
	}

	first := Consolidate(events)
	second := Consolidate(events)
	assert.Equal(t, first, second)
}

func TestShiftDuration(t *testing.T) {
	tests := []struct {
		name     string
		in       *int
		out      *int
		expected int
		ok       bool
	}{
		{name: "regular shift", in: minutes(8 * 60), out: minutes(17 * 60), expected: 9 * 60, ok: true},
		{name: "overnight wraps through midnight", in: minutes(22 * 60), out: minutes(6 * 60), expected: 8 * 60, ok: true},
		{name: "missing out side", in: minutes(8 * 60)},
		{name: "missing in side", out: minutes(17 * 60)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			shift := Shift{ClockIn: tc.in, ClockOut: tc.out}
			duration, ok := shift.Duration()
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.expected, duration)
			}
		})
	}
}

func minutes(v int) *int {
	return &v
}

func invalidated(event models.AttendanceEvent) models.AttendanceEvent {
	event.TreatmentStatus = models.TreatmentInvalidated
	return event
}
