package domain

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	PlanFree    = "free"
	PlanStarter = "starter"
	PlanPro     = "pro"
	PlanAgency  = "agency"
)

// SubscriptionPlan is read-only from this service's perspective.
type SubscriptionPlan struct {
	ID             string                              `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Type           string                              `gorm:"column:type;not null" json:"type"`
	MonthlyCredits int                                 `gorm:"column:monthly_credits;not null;default:0" json:"monthly_credits"`
	MaxClients     int                                 `gorm:"column:max_clients;not null;default:0" json:"max_clients"`
	MaxTeamMembers int                                 `gorm:"column:max_team_members;not null;default:0" json:"max_team_members"`
	Features       datatypes.JSONType[map[string]bool] `gorm:"column:features" json:"features"`
	StripePriceID  string                              `gorm:"column:stripe_price_id" json:"stripe_price_id"`
}

func (SubscriptionPlan) TableName() string {
	return "subscription_plans"
}

func (p *SubscriptionPlan) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
