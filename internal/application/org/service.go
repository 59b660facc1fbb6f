package org

import (
	"context"
	"fmt"

	"teamhub-backend/internal/application/plans"
	"teamhub-backend/internal/domain"
	"teamhub-backend/internal/pkg/apperrors"
	"teamhub-backend/internal/pkg/constants"
	"teamhub-backend/internal/pkg/validation"

	"github.com/rs/zerolog/log"
)

// Store is the part of the membership adapter organizations need.
type Store interface {
	CreateOrganization(ctx context.Context, name, userID, email, teamName string) (*domain.OrganizationBootstrap, error)
	GetOrganization(ctx context.Context, orgID string) (*domain.Organization, error)
	UpdateOrganization(ctx context.Context, orgID, name string) (*domain.Organization, error)
	ListTeams(ctx context.Context, orgID string) ([]domain.Team, error)
	CreateTeam(ctx context.Context, orgID, name string) (*domain.Team, error)
	GetMembership(ctx context.Context, orgID, userID string) (*domain.MemberView, error)
	ListMembers(ctx context.Context, orgID string) ([]domain.MemberView, error)
	CountMembers(ctx context.Context, orgID string) (int64, error)
	DeleteMembership(ctx context.Context, orgID, userID string) error
	GetOrganizationPlan(ctx context.Context, orgID string) (*domain.SubscriptionPlan, error)
}

// Service covers onboarding, members and teams.
type Service struct {
	Store Store
}

// Details is an organization with its teams and the caller's role.
type Details struct {
	Organization domain.Organization `json:"organization"`
	Teams        []domain.Team       `json:"teams"`
	Role         string              `json:"role"`
}

// Authorize returns the actor's membership if their role grants permission.
// Non-members and insufficient roles are both UNAUTHORIZED.
func (s *Service) Authorize(ctx context.Context, orgID, userID, permission string) (*domain.MemberView, error) {
	const op = "org.Authorize"
	m, err := s.Store.GetMembership(ctx, orgID, userID)
	if err != nil {
		if apperrors.IsKind(err, apperrors.NotFound) {
			return nil, apperrors.Wrap(err, apperrors.Unauthorized, op, "actor is not a member").
				WithUserMessage("You are not a member of this organization")
		}
		return nil, err
	}
	if !constants.AllowedRole(permission, m.OrgRole) {
		return nil, apperrors.New(apperrors.Unauthorized, op, fmt.Sprintf("role %s lacks %s", m.OrgRole, permission)).
			WithUserMessage("You are not allowed to perform this action")
	}
	return m, nil
}

// Create onboards principal into a new organization with a default team.
func (s *Service) Create(ctx context.Context, principal domain.Principal, name, teamName string) (*domain.OrganizationBootstrap, error) {
	const op = "org.Create"
	if !validation.IsValidName(name) {
		return nil, apperrors.New(apperrors.ValidationFailed, op, "invalid name").WithUserMessage("Organization name is required")
	}
	if teamName != "" && !validation.IsValidName(teamName) {
		return nil, apperrors.New(apperrors.ValidationFailed, op, "invalid team name").WithUserMessage("Team name is too long")
	}
	boot, err := s.Store.CreateOrganization(ctx, name, principal.ID, principal.Email, teamName)
	if err != nil {
		return nil, err
	}
	log.Info().Str("organization_id", boot.Organization.ID).Str("user_id", principal.ID).Msg("organization created")
	return boot, nil
}

func (s *Service) Get(ctx context.Context, actorID, orgID string) (*Details, error) {
	m, err := s.Authorize(ctx, orgID, actorID, constants.ViewOrganization)
	if err != nil {
		return nil, err
	}
	org, err := s.Store.GetOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}
	teams, err := s.Store.ListTeams(ctx, orgID)
	if err != nil {
		return nil, err
	}
	return &Details{Organization: *org, Teams: teams, Role: m.OrgRole}, nil
}

// Rename changes the organization name (admins only).
func (s *Service) Rename(ctx context.Context, actorID, orgID, name string) (*domain.Organization, error) {
	if _, err := s.Authorize(ctx, orgID, actorID, constants.UpdateOrganization); err != nil {
		return nil, err
	}
	if !validation.IsValidName(name) {
		return nil, apperrors.New(apperrors.ValidationFailed, "org.Rename", "invalid name").WithUserMessage("Organization name is required")
	}
	return s.Store.UpdateOrganization(ctx, orgID, name)
}

func (s *Service) ListMembers(ctx context.Context, actorID, orgID string) ([]domain.MemberView, error) {
	if _, err := s.Authorize(ctx, orgID, actorID, constants.ViewOrganization); err != nil {
		return nil, err
	}
	return s.Store.ListMembers(ctx, orgID)
}

// RemoveMember deletes the user's memberships. Admins cannot remove themselves.
func (s *Service) RemoveMember(ctx context.Context, actorID, orgID, userID string) error {
	const op = "org.RemoveMember"
	if _, err := s.Authorize(ctx, orgID, actorID, constants.RemoveMember); err != nil {
		return err
	}
	if actorID == userID {
		return apperrors.New(apperrors.ValidationFailed, op, "self removal").WithUserMessage("You cannot remove yourself")
	}
	return s.Store.DeleteMembership(ctx, orgID, userID)
}

func (s *Service) CreateTeam(ctx context.Context, actorID, orgID, name string) (*domain.Team, error) {
	if _, err := s.Authorize(ctx, orgID, actorID, constants.ManageTeams); err != nil {
		return nil, err
	}
	if !validation.IsValidName(name) {
		return nil, apperrors.New(apperrors.ValidationFailed, "org.CreateTeam", "invalid name").WithUserMessage("Team name is required")
	}
	return s.Store.CreateTeam(ctx, orgID, name)
}

// Plan returns the organization's plan and its gate answers. An
// organization without a plan gets an empty summary.
func (s *Service) Plan(ctx context.Context, actorID, orgID string) (*plans.Summary, error) {
	if _, err := s.Authorize(ctx, orgID, actorID, constants.ViewOrganization); err != nil {
		return nil, err
	}
	plan, err := s.Store.GetOrganizationPlan(ctx, orgID)
	if err != nil && !apperrors.IsKind(err, apperrors.NotFound) {
		return nil, err
	}
	used, err := s.Store.CountMembers(ctx, orgID)
	if err != nil {
		return nil, err
	}
	summary := plans.Summarize(plan, used)
	return &summary, nil
}
