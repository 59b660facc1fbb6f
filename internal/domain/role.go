package domain

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is a (scope, type) pair such as (organization, admin). Unique per pair.
type Role struct {
	ID    string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Scope string `gorm:"column:scope;not null;uniqueIndex:idx_roles_scope_type" json:"scope"`
	Type  string `gorm:"column:type;not null;uniqueIndex:idx_roles_scope_type" json:"type"`
}

func (Role) TableName() string {
	return "roles"
}

func (r *Role) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
