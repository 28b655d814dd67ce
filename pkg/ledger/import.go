package ledger

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	v1 "github.com/clockwise-hq/clockwise/pkg/apis/attendance/v1"
	"github.com/clockwise-hq/clockwise/pkg/audit"
	"github.com/clockwise-hq/clockwise/pkg/db/models"
)

// RecordFunc matches Ledger.Record; import tests substitute a fake.
type RecordFunc func(RecordInput) (uint, error)

// ImportRows records a batch of imported punches row by row. Each row's
// write is atomic on its own, and one row's failure never aborts the rest
// of the batch; failures are reported per row in the summary.
func ImportRows(companyID uint, rows []v1.ImportRow, record RecordFunc) v1.ImportSummary {
	summary := v1.ImportSummary{BatchID: uuid.NewString()}

	for i, row := range rows {
		input, err := importRowInput(companyID, row)
		if err == nil {
			_, err = record(input)
		}

		switch {
		case err == nil:
			summary.Inserted++
		case errors.Is(err, ErrDuplicateEvent):
			summary.Duplicated++
		default:
			summary.Invalid = append(summary.Invalid, v1.ImportRowError{Index: i, Reason: err.Error()})
		}
	}
	return summary
}

func importRowInput(companyID uint, row v1.ImportRow) (RecordInput, error) {
	date, err := ParseDate(row.Date)
	if err != nil {
		return RecordInput{}, err
	}
	timeOfDay, err := ParseTimeOfDay(row.TimeOfDay)
	if err != nil {
		return RecordInput{}, err
	}

	return RecordInput{
		CompanyID:     companyID,
		EmployeeID:    row.EmployeeID,
		Date:          date,
		ShiftSequence: row.ShiftSequence,
		EventKind:     row.EventKind,
		TimeOfDay:     timeOfDay,
		Origin:        models.OriginImported,
		Note:          row.Note,
	}, nil
}

// Import runs ImportRows against the database and records the batch in the
// audit log.
func (l *Ledger) Import(companyID uint, rows []v1.ImportRow, actorID uint) v1.ImportSummary {
	summary := ImportRows(companyID, rows, l.Record)

	if _, err := audit.Append(l.dbc.DB, audit.Entry{
		Type:    models.AuditTypeEventsImported,
		ActorID: actorID,
		Payload: map[string]interface{}{
			"batch_id":   summary.BatchID,
			"company_id": companyID,
			"inserted":   summary.Inserted,
			"duplicated": summary.Duplicated,
			"invalid":    len(summary.Invalid),
		},
	}); err != nil {
		log.WithError(err).Error("could not audit import batch")
	}
	return summary
}
