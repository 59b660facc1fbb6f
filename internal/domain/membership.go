package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Membership grants a user an organization role and a team role.
// Unique per (organization, team, user).
type Membership struct {
	ID             string    `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrganizationID string    `gorm:"column:organization_id;type:uuid;not null;uniqueIndex:idx_members_org_team_user" json:"organization_id"`
	TeamID         string    `gorm:"column:team_id;type:uuid;not null;uniqueIndex:idx_members_org_team_user" json:"team_id"`
	UserID         string    `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_members_org_team_user" json:"user_id"`
	Email          string    `gorm:"column:email" json:"email"`
	OrgRoleID      string    `gorm:"column:org_role_id;type:uuid;not null" json:"org_role_id"`
	TeamRoleID     string    `gorm:"column:team_role_id;type:uuid;not null" json:"team_role_id"`
	CreatedAt      time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Membership) TableName() string {
	return "organization_members"
}

func (m *Membership) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// MemberView is a membership joined with its role types.
type MemberView struct {
	UserID         string    `json:"user_id"`
	Email          string    `json:"email"`
	OrganizationID string    `json:"organization_id"`
	TeamID         string    `json:"team_id"`
	OrgRole        string    `json:"org_role"`
	TeamRole       string    `json:"team_role"`
	CreatedAt      time.Time `json:"created_at"`
}
