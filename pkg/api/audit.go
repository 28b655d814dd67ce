package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	log "github.com/sirupsen/logrus"

	apitype "github.com/clockwise-hq/clockwise/pkg/apis/attendance/v1"
	"github.com/clockwise-hq/clockwise/pkg/audit"
	"github.com/clockwise-hq/clockwise/pkg/db"
	"github.com/clockwise-hq/clockwise/pkg/ledger"
	"github.com/clockwise-hq/clockwise/pkg/scope"
	"github.com/clockwise-hq/clockwise/pkg/util/param"
)

// QueryAuditLog serves GET /api/audit, a read-only projection of the
// append-only correction trail. Audit rows span companies, so only actors
// holding a privileged role may read them.
func QueryAuditLog(w http.ResponseWriter, req *http.Request, dbc *db.DB, scopes *scope.Resolver) {
	actorID, err := actorFrom(req)
	if err != nil {
		failureResponse(w, err)
		return
	}
	actor, err := scopes.ActorFor(actorID)
	if err != nil {
		failureResponse(w, err)
		return
	}
	if _, ok := actor.(scope.GlobalActor); !ok {
		failureResponse(w, scope.ErrPrivilegedRoleRequired)
		return
	}

	filters := audit.QueryFilters{
		Type: param.Cleanse(param.SafeRead(req, "type")),
	}
	if raw := param.SafeRead(req, "actor"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			failureResponse(w, &ledger.ValidationError{Reason: "invalid actor param"})
			return
		}
		filters.ActorID = uint(id)
	}
	if raw := param.SafeRead(req, "start"); raw != "" {
		start, err := ledger.ParseDate(raw)
		if err != nil {
			failureResponse(w, err)
			return
		}
		filters.Start = start
	}
	if raw := param.SafeRead(req, "end"); raw != "" {
		end, err := ledger.ParseDate(raw)
		if err != nil {
			failureResponse(w, err)
			return
		}
		filters.End = end
	}
	if raw := param.SafeRead(req, "limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			failureResponse(w, &ledger.ValidationError{Reason: "invalid limit param"})
			return
		}
		filters.Limit = limit
	}

	entries, err := audit.Query(dbc, filters)
	if err != nil {
		failureResponse(w, err)
		return
	}

	payload := make([]apitype.AuditEntry, 0, len(entries))
	for _, entry := range entries {
		row := apitype.AuditEntry{
			ID:        entry.ID,
			Type:      entry.Type,
			ActorID:   entry.ActorID,
			CreatedAt: entry.CreatedAt,
		}
		if err := json.Unmarshal(entry.Payload.Bytes, &row.Payload); err != nil {
			log.WithError(err).WithField("id", entry.ID).Warning("could not unmarshal audit payload")
		}
		payload = append(payload, row)
	}
	RespondWithJSON(http.StatusOK, w, payload)
}
