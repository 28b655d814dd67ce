package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	apitype "github.com/clockwise-hq/clockwise/pkg/apis/attendance/v1"
	"github.com/clockwise-hq/clockwise/pkg/db/models"
	"github.com/clockwise-hq/clockwise/pkg/filter"
	"github.com/clockwise-hq/clockwise/pkg/ledger"
	"github.com/clockwise-hq/clockwise/pkg/scope"
	"github.com/clockwise-hq/clockwise/pkg/server/metrics"
	"github.com/clockwise-hq/clockwise/pkg/util/param"
)

// eventColumns whitelists the attendance columns user filters may touch.
type eventColumns struct{}

func (eventColumns) GetFieldType(field string) apitype.ColumnType {
	switch field {
	case "origin", "event_kind", "treatment_status", "note", "device_id", "timezone", "integrity_hash":
		return apitype.ColumnTypeString
	case "id", "company_id", "employee_id", "shift_sequence", "time_of_day", "date", "sequential_record_number":
		return apitype.ColumnTypeNumerical
	default:
		return apitype.ColumnTypeUnknown
	}
}

func listOptionsFromRequest(req *http.Request) (ledger.ListOptions, error) {
	opts := ledger.ListOptions{}

	if raw := param.SafeRead(req, "start"); raw != "" {
		start, err := ledger.ParseDate(raw)
		if err != nil {
			return opts, err
		}
		opts.Start = start
	}
	if raw := param.SafeRead(req, "end"); raw != "" {
		end, err := ledger.ParseDate(raw)
		if err != nil {
			return opts, err
		}
		opts.End = end
	}
	if raw := param.SafeRead(req, "employee"); raw != "" {
		id, err := parseUintParam(raw, "employee")
		if err != nil {
			return opts, err
		}
		opts.EmployeeID = id
	}
	if raw := param.SafeRead(req, "origin"); raw != "" {
		opts.Origin = models.Origin(raw)
	}
	if raw := param.SafeRead(req, "kind"); raw != "" {
		opts.EventKind = models.EventKind(raw)
	}
	if param.SafeRead(req, "active") == "true" {
		opts.ActiveEmployeesOnly = true
	}
	return opts, nil
}

// ListEvents serves GET /api/events: the raw punch ledger, scope-resolved,
// ordered deterministically, with optional user filters layered on top.
func ListEvents(w http.ResponseWriter, req *http.Request, ldg *ledger.Ledger, scopes *scope.Resolver) {
	_, companyID, err := resolveCompany(req, scopes)
	if err != nil {
		failureResponse(w, err)
		return
	}

	opts, err := listOptionsFromRequest(req)
	if err != nil {
		failureResponse(w, err)
		return
	}

	q, err := ldg.ListQuery([]uint{companyID}, opts)
	if err != nil {
		failureResponse(w, err)
		return
	}

	filterOpts, err := filter.FilterOptionsFromRequest(req, "date", apitype.SortAscending)
	if err != nil {
		failureResponse(w, &ledger.ValidationError{Reason: err.Error()})
		return
	}
	q, err = filter.FilterableDBResult(q, filterOpts, eventColumns{})
	if err != nil {
		failureResponse(w, &ledger.ValidationError{Reason: err.Error()})
		return
	}

	var events []models.AttendanceEvent
	if res := q.Order("date, employee_id, shift_sequence, time_of_day, attendance_events.id").Find(&events); res.Error != nil {
		failureResponse(w, res.Error)
		return
	}
	RespondWithJSON(http.StatusOK, w, events)
}

// RecordEvent serves POST /api/events. Official-device punches cannot be
// created here: they require device forensic metadata which this surface
// never accepts.
func RecordEvent(w http.ResponseWriter, req *http.Request, ldg *ledger.Ledger, scopes *scope.Resolver) {
	_, companyID, err := resolveCompany(req, scopes)
	if err != nil {
		failureResponse(w, err)
		return
	}

	var body apitype.RecordEventRequest
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

	id, err := ldg.Record(ledger.RecordInput{
		CompanyID:     companyID,
		EmployeeID:    body.EmployeeID,
		Date:          date,
		ShiftSequence: body.ShiftSequence,
		EventKind:     body.EventKind,
		TimeOfDay:     timeOfDay,
		Origin:        body.Origin,
		Note:          body.Note,
	})
	if err != nil {
		failureResponse(w, err)
		return
	}
	metrics.RecordEventCreated(string(body.Origin))
	RespondWithJSON(http.StatusCreated, w, map[string]interface{}{"id": id})
}

// EditEvent serves PATCH /api/events/{id}; only adjustment events accept it,
// and only when the actor's scope covers the event's company.
func EditEvent(w http.ResponseWriter, req *http.Request, ldg *ledger.Ledger, scopes *scope.Resolver) {
	actor, err := actorScope(req, scopes)
	if err != nil {
		failureResponse(w, err)
		return
	}
	eventID, err := pathID(req, "id")
	if err != nil {
		failureResponse(w, err)
		return
	}

	var body apitype.EditEventRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		failureResponse(w, &ledger.ValidationError{Reason: "could not decode request body"})
		return
	}

	patch := ledger.Patch{
		ShiftSequence: body.ShiftSequence,
		EventKind:     body.EventKind,
		Note:          body.Note,
	}
	if body.Date != nil {
		date, err := ledger.ParseDate(*body.Date)
		if err != nil {
			failureResponse(w, err)
			return
		}
		patch.Date = &date
	}
	if body.TimeOfDay != nil {
		minutes, err := ledger.ParseTimeOfDay(*body.TimeOfDay)
		if err != nil {
			failureResponse(w, err)
			return
		}
		patch.TimeOfDay = &minutes
	}

	if err := ldg.Edit(eventID, patch, actor); err != nil {
		failureResponse(w, err)
		return
	}
	RespondWithJSON(http.StatusOK, w, map[string]interface{}{"id": eventID})
}

// DeleteEvent serves DELETE /api/events/{id}; only adjustment events accept
// it, and only when the actor's scope covers the event's company.
func DeleteEvent(w http.ResponseWriter, req *http.Request, ldg *ledger.Ledger, scopes *scope.Resolver) {
	actor, err := actorScope(req, scopes)
	if err != nil {
		failureResponse(w, err)
		return
	}
	eventID, err := pathID(req, "id")
	if err != nil {
		failureResponse(w, err)
		return
	}

	if err := ldg.Delete(eventID, actor); err != nil {
		failureResponse(w, err)
		return
	}
	RespondWithJSON(http.StatusOK, w, map[string]interface{}{"id": eventID})
}

// ImportEvents serves POST /api/events/import. Rows fail or succeed
// individually; the batch as a whole is only rejected when empty or over
// the configured cap.
func ImportEvents(w http.ResponseWriter, req *http.Request, ldg *ledger.Ledger, scopes *scope.Resolver, batchLimit int) {
	actor, companyID, err := resolveCompany(req, scopes)
	if err != nil {
		failureResponse(w, err)
		return
	}

	var rows []apitype.ImportRow
	if err := json.NewDecoder(req.Body).Decode(&rows); err != nil {
		failureResponse(w, &ledger.ValidationError{Reason: "could not decode request body"})
		return
	}
	if len(rows) == 0 {
		failureResponse(w, &ledger.ValidationError{Reason: "empty import batch"})
		return
	}
	if len(rows) > batchLimit {
		failureResponse(w, &ledger.ValidationError{Reason: fmt.Sprintf("import batch exceeds the maximum of %d rows", batchLimit)})
		return
	}

	summary := ldg.Import(companyID, rows, actor.ActorID())
	metrics.RecordImport(summary.Inserted, summary.Duplicated, len(summary.Invalid))
	RespondWithJSON(http.StatusOK, w, summary)
}

func parseUintParam(raw, name string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, &ledger.ValidationError{Reason: "invalid " + name + " param"}
	}
	return uint(id), nil
}
