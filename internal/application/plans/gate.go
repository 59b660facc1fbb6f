// Package plans answers feature and limit questions about a subscription plan.
// Every function accepts a nil plan and treats it as "nothing granted".
package plans

import (
	"teamhub-backend/internal/domain"
)

// Well-known feature flags.
const (
	FeatureWhiteLabel      = "white_label"
	FeatureAPIAccess       = "api_access"
	FeatureCustomDomain    = "custom_domain"
	FeaturePrioritySupport = "priority_support"
)

// HasFeature reports whether the plan enables key. Unknown keys are false.
func HasFeature(plan *domain.SubscriptionPlan, key string) bool {
	if plan == nil {
		return false
	}
	features := plan.Features.Data()
	if features == nil {
		return false
	}
	return features[key]
}

func MonthlyCredits(plan *domain.SubscriptionPlan) int {
	if plan == nil {
		return 0
	}
	return plan.MonthlyCredits
}

func MaxClients(plan *domain.SubscriptionPlan) int {
	if plan == nil {
		return 0
	}
	return plan.MaxClients
}

// MaxTeamMembers returns the seat limit. Zero or less means unlimited.
func MaxTeamMembers(plan *domain.SubscriptionPlan) int {
	if plan == nil {
		return 0
	}
	return plan.MaxTeamMembers
}

func IsAgencyPlan(plan *domain.SubscriptionPlan) bool {
	return plan != nil && plan.Type == domain.PlanAgency
}

// SeatsAvailable reports whether one more seat fits when used seats are taken.
// Organizations without a plan are not gated.
func SeatsAvailable(plan *domain.SubscriptionPlan, used int64) bool {
	limit := MaxTeamMembers(plan)
	if limit <= 0 {
		return true
	}
	return used < int64(limit)
}

// Summary is the plan as exposed to clients.
type Summary struct {
	Type           string          `json:"type"`
	MonthlyCredits int             `json:"monthly_credits"`
	MaxClients     int             `json:"max_clients"`
	MaxTeamMembers int             `json:"max_team_members"`
	IsAgency       bool            `json:"is_agency"`
	Features       map[string]bool `json:"features"`
	SeatsUsed      int64           `json:"seats_used"`
	SeatsAvailable bool            `json:"seats_available"`
}

// Summarize collects the gate answers for plan with used seats taken.
func Summarize(plan *domain.SubscriptionPlan, used int64) Summary {
	s := Summary{
		MonthlyCredits: MonthlyCredits(plan),
		MaxClients:     MaxClients(plan),
		MaxTeamMembers: MaxTeamMembers(plan),
		IsAgency:       IsAgencyPlan(plan),
		Features:       map[string]bool{},
		SeatsUsed:      used,
		SeatsAvailable: SeatsAvailable(plan, used),
	}
	if plan != nil {
		s.Type = plan.Type
		for k, v := range plan.Features.Data() {
			s.Features[k] = v
		}
	}
	return s
}
