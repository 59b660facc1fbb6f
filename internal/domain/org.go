package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Organization is a tenant. Rows are created only by the create_organization procedure.
type Organization struct {
	ID        string    `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"column:name;not null" json:"name"`
	PlanID    *string   `gorm:"column:plan_id;type:uuid" json:"plan_id"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Organization) TableName() string {
	return "organizations"
}

// BeforeCreate ensures id is set for DBs without a uuid default.
func (o *Organization) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

// Team belongs to exactly one organization. Every organization has one default team.
type Team struct {
	ID             string    `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrganizationID string    `gorm:"column:organization_id;type:uuid;not null;index" json:"organization_id"`
	Name           string    `gorm:"column:name;not null" json:"name"`
	IsDefault      bool      `gorm:"column:is_default;not null;default:false" json:"is_default"`
	CreatedAt      time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Team) TableName() string {
	return "teams"
}

func (t *Team) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// OrganizationBootstrap is what onboarding produces: the organization and its default team.
type OrganizationBootstrap struct {
	Organization Organization `json:"organization"`
	Team         Team         `json:"team"`
}
