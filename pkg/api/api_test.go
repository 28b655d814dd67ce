package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clockwise-hq/clockwise/pkg/correction"
	"github.com/clockwise-hq/clockwise/pkg/ledger"
	"github.com/clockwise-hq/clockwise/pkg/scope"
)

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "validation", err: &ledger.ValidationError{Reason: "bad date"}, want: http.StatusBadRequest},
		{name: "event not found", err: ledger.ErrEventNotFound, want: http.StatusNotFound},
		{name: "employee not found", err: ledger.ErrEmployeeNotFound, want: http.StatusNotFound},
		{name: "employee outside company", err: ledger.ErrEmployeeNotInCompany, want: http.StatusNotFound},
		{name: "scope employee not found", err: scope.ErrEmployeeNotFound, want: http.StatusNotFound},
		{name: "immutable record", err: ledger.ErrImmutableRecord, want: http.StatusForbidden},
		{name: "correction forbidden", err: correction.ErrForbidden, want: http.StatusForbidden},
		{name: "unauthorized company", err: scope.ErrUnauthorizedCompany, want: http.StatusForbidden},
		{name: "privileged role required", err: scope.ErrPrivilegedRoleRequired, want: http.StatusForbidden},
		{name: "no memberships", err: scope.ErrNoCompanyMembership, want: http.StatusForbidden},
		{name: "duplicate event", err: ledger.ErrDuplicateEvent, want: http.StatusConflict},
		{name: "already invalidated", err: ledger.ErrAlreadyInvalidated, want: http.StatusConflict},
		{name: "duplicate adjustment", err: correction.ErrDuplicateAdjustment, want: http.StatusConflict},
		{name: "wrapped sentinel", err: errors.Wrap(ledger.ErrEventNotFound, "loading source"), want: http.StatusNotFound},
		{name: "unknown error", err: errors.New("connection reset"), want: http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, errorStatus(tc.err))
		})
	}
}

func TestActorFrom(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   uint
		bad    bool
	}{
		{name: "valid", header: "42", want: 42},
		{name: "missing", header: "", bad: true},
		{name: "zero", header: "0", bad: true},
		{name: "not a number", header: "root", bad: true},
		{name: "negative", header: "-1", bad: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
			if tc.header != "" {
				req.Header.Set(actorHeader, tc.header)
			}

			id, err := actorFrom(req)
			if tc.bad {
				require.Error(t, err)
				assert.True(t, ledger.IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, id)
		})
	}
}

func TestPathID(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  uint
		bad   bool
	}{
		{name: "valid", value: "7", want: 7},
		{name: "zero", value: "0", bad: true},
		{name: "garbage", value: "seven", bad: true},
		{name: "empty", value: "", bad: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPatch, "/api/events/x", nil)
			req.SetPathValue("id", tc.value)

			id, err := pathID(req, "id")
			if tc.bad {
				require.Error(t, err)
				assert.True(t, ledger.IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, id)
		})
	}
}

func TestFailureResponseHidesInternalDetail(t *testing.T) {
	recorder := httptest.NewRecorder()
	failureResponse(recorder, errors.New("dial tcp 10.0.0.5:5432: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.NotContains(t, recorder.Body.String(), "10.0.0.5")
	assert.Contains(t, recorder.Body.String(), "internal error")
}

func TestFailureResponseSurfacesClientErrors(t *testing.T) {
	recorder := httptest.NewRecorder()
	failureResponse(recorder, &ledger.ValidationError{Reason: "time of day out of range"})

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "time of day out of range")
}
