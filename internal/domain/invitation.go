package domain

import "time"

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationConsumed InvitationStatus = "consumed"
	InvitationRevoked  InvitationStatus = "revoked"
	InvitationExpired  InvitationStatus = "expired"
)

// Invitation is a single-use, time-bounded grant of an organization role.
// Expiry is never written; Status derives it from ExpiresAt at read time.
type Invitation struct {
	Token          string     `gorm:"column:token;primaryKey" json:"token"`
	OrganizationID string     `gorm:"column:organization_id;type:uuid;not null;index" json:"organization_id"`
	TeamID         *string    `gorm:"column:team_id;type:uuid" json:"team_id"`
	Email          string     `gorm:"column:email;not null" json:"email"`
	OrgRole        string     `gorm:"column:org_role;not null" json:"org_role"`
	TeamRole       string     `gorm:"column:team_role;not null" json:"team_role"`
	InvitedBy      string     `gorm:"column:invited_by;type:uuid;not null" json:"invited_by"`
	ExpiresAt      time.Time  `gorm:"column:expires_at;not null" json:"expires_at"`
	ConsumedAt     *time.Time `gorm:"column:consumed_at" json:"consumed_at"`
	ConsumedBy     *string    `gorm:"column:consumed_by;type:uuid" json:"consumed_by"`
	RevokedAt      *time.Time `gorm:"column:revoked_at" json:"revoked_at"`
	CreatedAt      time.Time  `gorm:"column:created_at" json:"created_at"`
}

func (Invitation) TableName() string {
	return "invitations"
}

// Status reports the lifecycle state at now. Terminal writes win over expiry.
func (i *Invitation) Status(now time.Time) InvitationStatus {
	switch {
	case i.RevokedAt != nil:
		return InvitationRevoked
	case i.ConsumedAt != nil:
		return InvitationConsumed
	case now.After(i.ExpiresAt):
		return InvitationExpired
	default:
		return InvitationPending
	}
}

// InvitationProjection is what a token holder may see before redeeming.
type InvitationProjection struct {
	OrganizationID   string    `json:"organization_id"`
	OrganizationName string    `json:"organization_name"`
	TeamID           *string   `json:"team_id"`
	Email            string    `json:"email"`
	OrgRole          string    `json:"org_role"`
	TeamRole         string    `json:"team_role"`
	ExpiresAt        time.Time `json:"expires_at"`
}

// InvitationView is an invitation as listed to organization admins.
type InvitationView struct {
	Invitation
	Status InvitationStatus `json:"status"`
}
