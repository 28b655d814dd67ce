// Package api implements the HTTP operation surface over the attendance
// core. Handlers are plain funcs taking their collaborators as arguments;
// the server package wires them onto its mux.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/clockwise-hq/clockwise/pkg/correction"
	"github.com/clockwise-hq/clockwise/pkg/ledger"
	"github.com/clockwise-hq/clockwise/pkg/scope"
	"github.com/clockwise-hq/clockwise/pkg/util/param"
)

// actorHeader carries the authenticated actor id, established by the outer
// platform before requests reach this subsystem.
const actorHeader = "X-Actor-Id"

func RespondWithJSON(code int, w http.ResponseWriter, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.WithError(err).Error("could not marshal json payload")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		log.WithError(err).Error("could not write response")
	}
}

// failureResponse renders an error with a message safe for callers; the full
// cause stays in the server log.
func failureResponse(w http.ResponseWriter, err error) {
	code := errorStatus(err)
	if code == http.StatusInternalServerError {
		log.WithError(err).Error("internal error serving request")
		RespondWithJSON(code, w, map[string]interface{}{"code": code, "message": "internal error"})
		return
	}
	log.WithError(err).Debug("request rejected")
	RespondWithJSON(code, w, map[string]interface{}{"code": code, "message": err.Error()})
}

func errorStatus(err error) int {
	switch {
	case ledger.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrEventNotFound),
		errors.Is(err, ledger.ErrEmployeeNotFound),
		errors.Is(err, ledger.ErrEmployeeNotInCompany),
		errors.Is(err, scope.ErrEmployeeNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrImmutableRecord),
		errors.Is(err, correction.ErrForbidden),
		errors.Is(err, scope.ErrUnauthorizedCompany),
		errors.Is(err, scope.ErrPrivilegedRoleRequired),
		errors.Is(err, scope.ErrNoCompanyMembership):
		return http.StatusForbidden
	case errors.Is(err, ledger.ErrDuplicateEvent),
		errors.Is(err, ledger.ErrAlreadyInvalidated),
		errors.Is(err, correction.ErrDuplicateAdjustment):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func actorFrom(req *http.Request) (uint, error) {
	raw := req.Header.Get(actorHeader)
	if raw == "" {
		return 0, &ledger.ValidationError{Reason: "missing " + actorHeader + " header"}
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, &ledger.ValidationError{Reason: "invalid " + actorHeader + " header"}
	}
	return uint(id), nil
}

// actorScope resolves the actor without picking a company context. Handlers
// addressing a row by id use it; authorization runs against the row's own
// company.
func actorScope(req *http.Request, scopes *scope.Resolver) (scope.Actor, error) {
	actorID, err := actorFrom(req)
	if err != nil {
		return nil, err
	}
	return scopes.ActorFor(actorID)
}

// resolveCompany figures out which company the request operates in, honoring
// the optional ?company= selector against the actor's authorized set.
func resolveCompany(req *http.Request, scopes *scope.Resolver) (scope.Actor, uint, error) {
	actorID, err := actorFrom(req)
	if err != nil {
		return nil, 0, err
	}
	actor, err := scopes.ActorFor(actorID)
	if err != nil {
		return nil, 0, err
	}

	var requested uint
	if raw := param.SafeRead(req, "company"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, 0, &ledger.ValidationError{Reason: "invalid company param"}
		}
		requested = uint(id)
	}

	companyID, err := scopes.ResolveCompanyContext(actor, requested)
	if err != nil {
		return nil, 0, err
	}
	return actor, companyID, nil
}

func pathID(req *http.Request, name string) (uint, error) {
	raw := req.PathValue(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, &ledger.ValidationError{Reason: "invalid " + name + " path segment"}
	}
	return uint(id), nil
}
