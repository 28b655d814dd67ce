package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	apitype "github.com/clockwise-hq/clockwise/pkg/apis/attendance/v1"
	"github.com/clockwise-hq/clockwise/pkg/apis/cache"
	"github.com/clockwise-hq/clockwise/pkg/consolidation"
	"github.com/clockwise-hq/clockwise/pkg/ledger"
	"github.com/clockwise-hq/clockwise/pkg/scope"
)

// shiftsCacheTTL keeps consolidated reports hot briefly; the projection is
// pure so staleness is bounded by punch write rates, not correctness.
const shiftsCacheTTL = 60 * time.Second

// shiftsCacheKey must cover every list option that changes the result set,
// or two differently filtered requests would share a cache entry.
func shiftsCacheKey(companyID uint, opts ledger.ListOptions) string {
	return fmt.Sprintf("shifts_%d_%s_%s_%d_%s_%s_%t",
		companyID, opts.Start.Format("2006-01-02"), opts.End.Format("2006-01-02"),
		opts.EmployeeID, opts.Origin, opts.EventKind, opts.ActiveEmployeesOnly)
}

// ListShifts serves GET /api/shifts: the read-time consolidation of punches
// into shift intervals.
func ListShifts(w http.ResponseWriter, req *http.Request, ldg *ledger.Ledger, scopes *scope.Resolver, shiftCache cache.Cache) {
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
	// The consolidated view never includes invalidated punches.
	opts.OnlyValid = true

	cacheKey := shiftsCacheKey(companyID, opts)
	if shiftCache != nil {
		if raw, err := shiftCache.Get(cacheKey); err == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			if _, err := w.Write(raw); err != nil {
				log.WithError(err).Error("could not write cached response")
			}
			return
		}
	}

	events, err := ldg.List([]uint{companyID}, opts)
	if err != nil {
		failureResponse(w, err)
		return
	}

	shifts := consolidation.Consolidate(events)
	payload := make([]apitype.ConsolidatedShift, 0, len(shifts))
	for _, shift := range shifts {
		row := apitype.ConsolidatedShift{
			Date:          shift.Date.Format("2006-01-02"),
			CompanyID:     shift.CompanyID,
			EmployeeID:    shift.EmployeeID,
			ShiftSequence: shift.ShiftSequence,
		}
		if shift.ClockIn != nil {
			row.ClockIn = ledger.FormatTimeOfDay(*shift.ClockIn)
		}
		if shift.ClockOut != nil {
			row.ClockOut = ledger.FormatTimeOfDay(*shift.ClockOut)
		}
		if duration, ok := shift.Duration(); ok {
			row.DurationMinutes = &duration
		}
		payload = append(payload, row)
	}

	if shiftCache != nil {
		if raw, err := json.Marshal(payload); err == nil {
			if err := shiftCache.Set(cacheKey, raw, shiftsCacheTTL); err != nil {
				log.WithError(err).Warning("could not cache consolidated shifts")
			}
		}
	}
	RespondWithJSON(http.StatusOK, w, payload)
}
