package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/clockwise-hq/clockwise/pkg/db/models"
	"github.com/clockwise-hq/clockwise/pkg/scope"
)

type fakeScopeStore struct {
	memberships []models.Membership
}

func (s fakeScopeStore) ActiveMemberships(actorID uint) ([]models.Membership, error) {
	return s.memberships, nil
}

func (s fakeScopeStore) EmployeeCompany(employeeID uint) (uint, error) {
	return 0, scope.ErrEmployeeNotFound
}

// The audit trail spans companies, so a merely scoped actor must be turned
// away before any query runs. The nil db handle proves rejection happens
// first.
func TestQueryAuditLogRejectsScopedActor(t *testing.T) {
	scopes := scope.NewResolver(fakeScopeStore{memberships: []models.Membership{
		{ActorID: 7, CompanyID: 1, Active: true, Roles: pq.StringArray{"manager"}},
	}})

	req := httptest.NewRequest(http.MethodGet, "/api/audit", nil)
	req.Header.Set(actorHeader, "7")
	recorder := httptest.NewRecorder()

	QueryAuditLog(recorder, req, nil, scopes)

	assert.Equal(t, http.StatusForbidden, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "privileged")
}

func TestQueryAuditLogRequiresActorHeader(t *testing.T) {
	scopes := scope.NewResolver(fakeScopeStore{})

	req := httptest.NewRequest(http.MethodGet, "/api/audit", nil)
	recorder := httptest.NewRecorder()

	QueryAuditLog(recorder, req, nil, scopes)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}
