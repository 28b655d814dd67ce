package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clockwise-hq/clockwise/pkg/db/models"
)

type fakeStore struct {
	memberships map[uint][]models.Membership
	employees   map[uint]uint
}

func (s *fakeStore) ActiveMemberships(actorID uint) ([]models.Membership, error) {
	return s.memberships[actorID], nil
}

func (s *fakeStore) EmployeeCompany(employeeID uint) (uint, error) {
	companyID, ok := s.employees[employeeID]
	if !ok {
		return 0, ErrEmployeeNotFound
	}
	return companyID, nil
}

func membership(actorID, companyID uint, roles ...string) models.Membership {
	return models.Membership{ActorID: actorID, CompanyID: companyID, Active: true, Roles: roles}
}

func TestActorFor(t *testing.T) {
	store := &fakeStore{
		memberships: map[uint][]models.Membership{
			1: {membership(1, 30), membership(1, 20)},
			2: {membership(2, 10, "administrator")},
			3: {},
		},
	}
	resolver := NewResolver(store)

	t.Run("ordinary actor is scoped with sorted companies", func(t *testing.T) {
		actor, err := resolver.ActorFor(1)
		require.NoError(t, err)

		scoped, ok := actor.(ScopedActor)
		require.True(t, ok)
		assert.Equal(t, []uint{20, 30}, scoped.Companies)
		assert.True(t, actor.Allows(20))
		assert.False(t, actor.Allows(99))
	})

	t.Run("privileged role yields a global actor", func(t *testing.T) {
		actor, err := resolver.ActorFor(2)
		require.NoError(t, err)

		_, ok := actor.(GlobalActor)
		require.True(t, ok)
		assert.True(t, actor.Allows(99))
	})

	t.Run("no memberships yields an empty scoped actor", func(t *testing.T) {
		actor, err := resolver.ActorFor(3)
		require.NoError(t, err)
		assert.False(t, actor.Allows(10))
	})
}

func TestResolveCompanyContext(t *testing.T) {
	tests := []struct {
		name        string
		actor       Actor
		requested   uint
		expected    uint
		expectedErr error
	}{
		{
			name:      "requested company in scope",
			actor:     ScopedActor{ID: 1, Companies: []uint{20, 30}},
			requested: 30,
			expected:  30,
		},
		{
			name:        "requested company out of scope",
			actor:       ScopedActor{ID: 1, Companies: []uint{20}},
			requested:   30,
			expectedErr: ErrUnauthorizedCompany,
		},
		{
			name:     "no request defaults to lowest membership",
			actor:    ScopedActor{ID: 1, Companies: []uint{20, 30}},
			expected: 20,
		},
		{
			name:        "no memberships at all",
			actor:       ScopedActor{ID: 1},
			expectedErr: ErrNoCompanyMembership,
		},
		{
			name:      "global actor may request any company",
			actor:     GlobalActor{ID: 2, Companies: []uint{10}},
			requested: 99,
			expected:  99,
		},
		{
			name:     "global actor defaults to its lowest membership",
			actor:    GlobalActor{ID: 2, Companies: []uint{10, 40}},
			expected: 10,
		},
	}

	resolver := NewResolver(&fakeStore{})
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			companyID, err := resolver.ResolveCompanyContext(tc.actor, tc.requested)
			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, companyID)
		})
	}
}

func TestCompanyOfEmployee(t *testing.T) {
	resolver := NewResolver(&fakeStore{employees: map[uint]uint{7: 20}})

	companyID, err := resolver.CompanyOfEmployee(7)
	require.NoError(t, err)
	assert.Equal(t, uint(20), companyID)

	_, err = resolver.CompanyOfEmployee(8)
	assert.ErrorIs(t, err, ErrEmployeeNotFound)
}
