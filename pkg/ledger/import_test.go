package ledger

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/clockwise-hq/clockwise/pkg/apis/attendance/v1"
	"github.com/clockwise-hq/clockwise/pkg/db/models"
)

func TestImportRows(t *testing.T) {
	rows := []v1.ImportRow{
		{EmployeeID: 10, Date: "2025-01-10", ShiftSequence: 1, EventKind: models.ClockIn, TimeOfDay: "08:00"},
		{EmployeeID: 10, Date: "2025-01-10", ShiftSequence: 1, EventKind: models.ClockIn, TimeOfDay: "08:00"},
		{EmployeeID: 11, Date: "not-a-date", ShiftSequence: 1, EventKind: models.ClockIn, TimeOfDay: "08:00"},
		{EmployeeID: 99, Date: "2025-01-10", ShiftSequence: 1, EventKind: models.ClockOut, TimeOfDay: "17:00"},
		{EmployeeID: 12, Date: "2025-01-10", ShiftSequence: 1, EventKind: models.ClockOut, TimeOfDay: "17:00"},
	}

	var recorded []RecordInput
	record := func(in RecordInput) (uint, error) {
		switch in.EmployeeID {
		case 99:
			return 0, ErrEmployeeNotFound
		case 10:
			for _, prev := range recorded {
				if prev == in {
					return 0, ErrDuplicateEvent
				}
			}
		}
		recorded = append(recorded, in)
		return uint(len(recorded)), nil
	}

	summary := ImportRows(5, rows, record)

	assert.Equal(t, 2, summary.Inserted)
	assert.Equal(t, 1, summary.Duplicated)
	require.Len(t, summary.Invalid, 2)
	assert.Equal(t, 2, summary.Invalid[0].Index)
	assert.Equal(t, 3, summary.Invalid[1].Index)
	assert.NotEmpty(t, summary.BatchID)

	// Every recorded row carries the forced imported origin and the batch
	// company.
	for _, in := range recorded {
		assert.Equal(t, models.OriginImported, in.Origin)
		assert.Equal(t, uint(5), in.CompanyID)
	}
}

func TestImportRowsOneFailureDoesNotAbortBatch(t *testing.T) {
	rows := []v1.ImportRow{
		{EmployeeID: 1, Date: "2025-01-10", EventKind: models.ClockIn, TimeOfDay: "08:00"},
		{EmployeeID: 2, Date: "2025-01-10", EventKind: models.ClockIn, TimeOfDay: "08:00"},
		{EmployeeID: 3, Date: "2025-01-10", EventKind: models.ClockIn, TimeOfDay: "08:00"},
	}

	calls := 0
	record := func(in RecordInput) (uint, error) {
		calls++
		if in.EmployeeID == 2 {
			return 0, errors.New("connection reset")
		}
		return uint(calls), nil
	}

	summary := ImportRows(1, rows, record)

	assert.Equal(t, 3, calls, "all rows must be attempted")
	assert.Equal(t, 2, summary.Inserted)
	require.Len(t, summary.Invalid, 1)
	assert.Equal(t, 1, summary.Invalid[0].Index)
}
