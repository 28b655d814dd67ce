package models

import (
	"time"
)

// Model is similar to gorm.Model, but sends lower snake case JSON, which is
// what the UI expects, and omits DeletedAt: nothing in this schema is ever
// soft deleted.
type Model struct {
	ID        uint      `json:"id" gorm:"primaryKey,column:id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
