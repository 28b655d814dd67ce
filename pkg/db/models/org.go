package models

import (
	"github.com/lib/pq"
)

// Company, Employee and Membership are owned by the wider platform; the
// attendance subsystem only reads them to resolve scope and employee
// ownership. The shapes here are the minimal projection it needs.

type Company struct {
	Model

	Name   string `json:"name" gorm:"not null"`
	Active bool   `json:"active" gorm:"not null;default:true"`
}

type Employee struct {
	Model

	CompanyID uint   `json:"company_id" gorm:"index;not null"`
	Name      string `json:"name" gorm:"not null"`
	Active    bool   `json:"active" gorm:"not null;default:true;index"`
}

// Membership grants an actor access to a company, with the role names the
// platform assigned them there.
type Membership struct {
	Model

	ActorID   uint           `json:"actor_id" gorm:"index:idx_memberships_actor_company,unique;not null"`
	CompanyID uint           `json:"company_id" gorm:"index:idx_memberships_actor_company,unique;not null"`
	Active    bool           `json:"active" gorm:"not null;default:true"`
	Roles     pq.StringArray `json:"roles" gorm:"type:text[]"`
}
