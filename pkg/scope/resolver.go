// Package scope resolves which companies an actor may operate in. It is the
// single authority consulted by every handler, replacing ad hoc role-string
// comparisons with one polymorphic check over the actor kind.
package scope

import (
	"sort"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/clockwise-hq/clockwise/pkg/db"
	"github.com/clockwise-hq/clockwise/pkg/db/models"
)

var (
	ErrNoCompanyMembership    = errors.New("actor has no active company membership")
	ErrUnauthorizedCompany    = errors.New("actor is not a member of the requested company")
	ErrPrivilegedRoleRequired = errors.New("actor lacks a privileged role")
	ErrEmployeeNotFound       = errors.New("employee not found")
)

// PrivilegedRoles unlock every company regardless of membership.
var PrivilegedRoles = []string{"administrator", "developer"}

// Actor is either global (privileged, any company) or scoped to an explicit
// company set. Both carry the actor's membership companies, sorted
// ascending, so the default company is deterministic.
type Actor interface {
	ActorID() uint
	Allows(companyID uint) bool
	DefaultCompany() (uint, error)
}

type GlobalActor struct {
	ID        uint
	Companies []uint
}

func (a GlobalActor) ActorID() uint              { return a.ID }
func (a GlobalActor) Allows(companyID uint) bool { return true }

func (a GlobalActor) DefaultCompany() (uint, error) {
	if len(a.Companies) == 0 {
		return 0, ErrNoCompanyMembership
	}
	return a.Companies[0], nil
}

// ScopedActor may only operate in the companies it holds an active
// membership in.
type ScopedActor struct {
	ID        uint
	Companies []uint
}

func (a ScopedActor) ActorID() uint { return a.ID }

func (a ScopedActor) Allows(companyID uint) bool {
	for _, id := range a.Companies {
		if id == companyID {
			return true
		}
	}
	return false
}

func (a ScopedActor) DefaultCompany() (uint, error) {
	if len(a.Companies) == 0 {
		return 0, ErrNoCompanyMembership
	}
	return a.Companies[0], nil
}

// Store is the membership/employee lookup surface the resolver needs. The
// production implementation reads the platform tables; tests substitute a
// fake.
type Store interface {
	ActiveMemberships(actorID uint) ([]models.Membership, error)
	EmployeeCompany(employeeID uint) (uint, error)
}

type Resolver struct {
	store Store
}

func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// ActorFor loads an actor's memberships and classifies them. An actor
// holding a privileged role in any active membership becomes global.
func (r *Resolver) ActorFor(actorID uint) (Actor, error) {
	memberships, err := r.store.ActiveMemberships(actorID)
	if err != nil {
		return nil, errors.Wrap(err, "loading memberships")
	}

	global := false
	companies := make([]uint, 0, len(memberships))
	for _, m := range memberships {
		for _, role := range m.Roles {
			for _, privileged := range PrivilegedRoles {
				if role == privileged {
					global = true
				}
			}
		}
		companies = append(companies, m.CompanyID)
	}
	sort.Slice(companies, func(i, j int) bool { return companies[i] < companies[j] })

	if global {
		return GlobalActor{ID: actorID, Companies: companies}, nil
	}
	return ScopedActor{ID: actorID, Companies: companies}, nil
}

// ResolveCompanyContext picks the company a request operates in. A requested
// company must be in the actor's set; with no request, the lowest-id
// membership wins so the default is deterministic.
func (r *Resolver) ResolveCompanyContext(actor Actor, requestedCompanyID uint) (uint, error) {
	if requestedCompanyID != 0 {
		if !actor.Allows(requestedCompanyID) {
			return 0, ErrUnauthorizedCompany
		}
		return requestedCompanyID, nil
	}
	return actor.DefaultCompany()
}

// CompanyOfEmployee resolves which company owns an employee.
func (r *Resolver) CompanyOfEmployee(employeeID uint) (uint, error) {
	return r.store.EmployeeCompany(employeeID)
}

// RolesOf reports the role names an actor holds in one company.
func (r *Resolver) RolesOf(actorID, companyID uint) ([]string, error) {
	memberships, err := r.store.ActiveMemberships(actorID)
	if err != nil {
		return nil, errors.Wrap(err, "loading memberships")
	}
	for _, m := range memberships {
		if m.CompanyID == companyID {
			return m.Roles, nil
		}
	}
	return nil, nil
}

// dbStore reads the platform membership and employee tables.
type dbStore struct {
	dbc *db.DB
}

func NewDBStore(dbc *db.DB) Store {
	return &dbStore{dbc: dbc}
}

func (s *dbStore) ActiveMemberships(actorID uint) ([]models.Membership, error) {
	var memberships []models.Membership
	res := s.dbc.DB.Where("actor_id = ? AND active = ?", actorID, true).Find(&memberships)
	if res.Error != nil {
		return nil, res.Error
	}
	return memberships, nil
}

func (s *dbStore) EmployeeCompany(employeeID uint) (uint, error) {
	var employee models.Employee
	res := s.dbc.DB.First(&employee, employeeID)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return 0, ErrEmployeeNotFound
		}
		return 0, res.Error
	}
	return employee.CompanyID, nil
}
