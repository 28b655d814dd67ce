package api

import (
	"encoding/json"
	"net/http"

	apitype "github.com/clockwise-hq/clockwise/pkg/apis/attendance/v1"
	"github.com/clockwise-hq/clockwise/pkg/correction"
	"github.com/clockwise-hq/clockwise/pkg/ledger"
	"github.com/clockwise-hq/clockwise/pkg/server/metrics"
)

// ApplyCorrection serves POST /api/corrections, the only path that may
// invalidate an official punch and record its replacement.
func ApplyCorrection(w http.ResponseWriter, req *http.Request, workflow *correction.Workflow) {
	actorID, err := actorFrom(req)
	if err != nil {
		failureResponse(w, err)
		return
	}

	var body apitype.CorrectionRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		failureResponse(w, &ledger.ValidationError{Reason: "could not decode request body"})
		return
	}

	date, err := ledger.ParseDate(body.Date)
	if err != nil {
		failureResponse(w, err)
		return
	}
	timeOfDay, err := ledger.ParseTimeOfDay(body.TimeOfDay)
	if err != nil {
		failureResponse(w, err)
		return
	}

	invalidateSource := true
	if body.InvalidateSource != nil {
		invalidateSource = *body.InvalidateSource
	}

	result, err := workflow.Apply(correction.Request{
		SourceEventID:         body.SourceEventID,
		DestinationEmployeeID: body.DestinationEmployeeID,
		Date:                  date,
		EventKind:             body.EventKind,
		TimeOfDay:             timeOfDay,
		Justification:         body.Justification,
		InvalidateSource:      invalidateSource,
		ActorID:               actorID,
		ShiftSequence:         body.ShiftSequence,
	})
	if err != nil {
		metrics.RecordCorrection("rejected")
		failureResponse(w, err)
		return
	}

	metrics.RecordCorrection("applied")
	RespondWithJSON(http.StatusCreated, w, apitype.CorrectionResult{
		AdjustmentID: result.AdjustmentID,
		SourceID:     result.SourceID,
		Invalidated:  result.Invalidated,
	})
}
