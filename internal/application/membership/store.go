// Package membership is the typed adapter over the relational store: the
// organization, team, membership and invitation tables plus the stored
// procedures. Raw driver errors never leave this package; every failure is
// an *apperrors.Error carrying the operation and the original cause.
package membership

import (
	"context"
	"errors"
	"strings"
	"time"

	"teamhub-backend/internal/domain"
	"teamhub-backend/internal/infrastructure/database"
	"teamhub-backend/internal/pkg/apperrors"
	"teamhub-backend/internal/pkg/constants"

	"gorm.io/gorm"
)

// Store reads tables through GORM and calls procedures through RPC.
type Store struct {
	DB  *gorm.DB
	RPC database.RPC
}

// NewStore wires a store over db and the procedure caller.
func NewStore(db *gorm.DB, rpc database.RPC) *Store {
	return &Store{DB: db, RPC: rpc}
}

// InviteParams are the arguments of invite_org_member.
type InviteParams struct {
	Token          string
	OrganizationID string
	TeamID         *string
	Email          string
	OrgRole        string
	TeamRole       string
	InvitedBy      string
	ExpiresAt      time.Time
}

// fail classifies err. Zero rows become NOT_FOUND, unique violations a
// conflicting CREATE_FAILED, rejected arguments VALIDATION_FAILED.
func fail(err error, kind apperrors.Kind, op, msg string) *apperrors.Error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound), errors.Is(err, database.ErrNoRows):
		return apperrors.Wrap(err, apperrors.NotFound, op, msg)
	case database.IsUniqueViolation(err):
		e := apperrors.Wrap(err, apperrors.CreateFailed, op, msg).WithUserMessage("This already exists")
		e.Conflict = true
		return e
	case errors.Is(err, database.ErrInvalidArgument):
		return apperrors.Wrap(err, apperrors.ValidationFailed, op, msg)
	}
	return apperrors.Wrap(err, kind, op, msg)
}

// CreateOrganization creates the organization, its default team and the
// caller's admin membership in one procedure call.
func (s *Store) CreateOrganization(ctx context.Context, name, userID, email, teamName string) (*domain.OrganizationBootstrap, error) {
	const op = "membership.CreateOrganization"
	var res database.CreateOrganizationResult
	err := s.RPC.Call(ctx, database.ProcCreateOrganization, database.Args{
		"p_name":      name,
		"p_user_id":   userID,
		"p_email":     email,
		"p_team_name": teamName,
	}, &res)
	if err != nil {
		return nil, fail(err, apperrors.CreateFailed, op, "create organization").
			WithUserMessage("Could not create the organization")
	}

	out := &domain.OrganizationBootstrap{}
	if err := s.DB.WithContext(ctx).Where("id = ?", res.OrganizationID).First(&out.Organization).Error; err != nil {
		return nil, fail(err, apperrors.ReadFailed, op, "read created organization")
	}
	if err := s.DB.WithContext(ctx).Where("id = ?", res.TeamID).First(&out.Team).Error; err != nil {
		return nil, fail(err, apperrors.ReadFailed, op, "read created team")
	}
	return out, nil
}

func (s *Store) GetOrganization(ctx context.Context, orgID string) (*domain.Organization, error) {
	var org domain.Organization
	if err := s.DB.WithContext(ctx).Where("id = ?", orgID).First(&org).Error; err != nil {
		return nil, fail(err, apperrors.ReadFailed, "membership.GetOrganization", "read organization").
			WithUserMessage("Organization not found")
	}
	return &org, nil
}

// UpdateOrganization renames the organization.
func (s *Store) UpdateOrganization(ctx context.Context, orgID, name string) (*domain.Organization, error) {
	const op = "membership.UpdateOrganization"
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.New(apperrors.ValidationFailed, op, "empty name").WithUserMessage("Organization name is required")
	}
	res := s.DB.WithContext(ctx).Model(&domain.Organization{}).Where("id = ?", orgID).
		Updates(map[string]interface{}{"name": name, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return nil, fail(res.Error, apperrors.UpdateFailed, op, "update organization")
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.New(apperrors.NotFound, op, "organization not found").WithUserMessage("Organization not found")
	}
	return s.GetOrganization(ctx, orgID)
}

func (s *Store) ListTeams(ctx context.Context, orgID string) ([]domain.Team, error) {
	var teams []domain.Team
	if err := s.DB.WithContext(ctx).Where("organization_id = ?", orgID).Order("created_at ASC").Find(&teams).Error; err != nil {
		return nil, fail(err, apperrors.ReadFailed, "membership.ListTeams", "list teams")
	}
	return teams, nil
}

func (s *Store) CreateTeam(ctx context.Context, orgID, name string) (*domain.Team, error) {
	team := &domain.Team{OrganizationID: orgID, Name: strings.TrimSpace(name)}
	if err := s.DB.WithContext(ctx).Create(team).Error; err != nil {
		return nil, fail(err, apperrors.CreateFailed, "membership.CreateTeam", "create team")
	}
	return team, nil
}

func (s *Store) memberViews(ctx context.Context) *gorm.DB {
	return s.DB.WithContext(ctx).Table("organization_members AS m").
		Select("m.user_id, m.email, m.organization_id, m.team_id, org_role.type AS org_role, team_role.type AS team_role, m.created_at").
		Joins("JOIN roles AS org_role ON org_role.id = m.org_role_id").
		Joins("JOIN roles AS team_role ON team_role.id = m.team_role_id")
}

// GetMembership returns the user's membership in the organization. A user
// in several teams is reported with their strongest organization role.
func (s *Store) GetMembership(ctx context.Context, orgID, userID string) (*domain.MemberView, error) {
	const op = "membership.GetMembership"
	var views []domain.MemberView
	err := s.memberViews(ctx).
		Where("m.organization_id = ? AND m.user_id = ?", orgID, userID).
		Order("m.created_at ASC").
		Scan(&views).Error
	if err != nil {
		return nil, fail(err, apperrors.ReadFailed, op, "read membership")
	}
	if len(views) == 0 {
		return nil, apperrors.New(apperrors.NotFound, op, "no membership").WithUserMessage("You are not a member of this organization")
	}
	for i := range views {
		if views[i].OrgRole == constants.Admin {
			return &views[i], nil
		}
	}
	return &views[0], nil
}

func (s *Store) ListMembers(ctx context.Context, orgID string) ([]domain.MemberView, error) {
	var views []domain.MemberView
	err := s.memberViews(ctx).
		Where("m.organization_id = ?", orgID).
		Order("m.created_at ASC").
		Scan(&views).Error
	if err != nil {
		return nil, fail(err, apperrors.ReadFailed, "membership.ListMembers", "list members")
	}
	return views, nil
}

// CountMembers counts distinct users in the organization.
func (s *Store) CountMembers(ctx context.Context, orgID string) (int64, error) {
	var n int64
	err := s.DB.WithContext(ctx).Model(&domain.Membership{}).
		Where("organization_id = ?", orgID).
		Distinct("user_id").
		Count(&n).Error
	if err != nil {
		return 0, fail(err, apperrors.ReadFailed, "membership.CountMembers", "count members")
	}
	return n, nil
}

// DeleteMembership removes every membership row of the user in the organization.
func (s *Store) DeleteMembership(ctx context.Context, orgID, userID string) error {
	const op = "membership.DeleteMembership"
	res := s.DB.WithContext(ctx).
		Where("organization_id = ? AND user_id = ?", orgID, userID).
		Delete(&domain.Membership{})
	if res.Error != nil {
		return fail(res.Error, apperrors.DeleteFailed, op, "delete membership")
	}
	if res.RowsAffected == 0 {
		return apperrors.New(apperrors.NotFound, op, "no membership").WithUserMessage("Member not found")
	}
	return nil
}

// EnsureRole looks up the role, creating it on first use.
func (s *Store) EnsureRole(ctx context.Context, scope, roleType string) (*domain.Role, error) {
	role, err := database.EnsureRole(s.DB.WithContext(ctx), scope, roleType)
	if err != nil {
		return nil, fail(err, apperrors.CreateFailed, "membership.EnsureRole", "ensure role")
	}
	return role, nil
}

// GetOrganizationPlan returns the organization's plan, NOT_FOUND when it has none.
func (s *Store) GetOrganizationPlan(ctx context.Context, orgID string) (*domain.SubscriptionPlan, error) {
	const op = "membership.GetOrganizationPlan"
	org, err := s.GetOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if org.PlanID == nil {
		return nil, apperrors.New(apperrors.NotFound, op, "organization has no plan")
	}
	var plan domain.SubscriptionPlan
	if err := s.DB.WithContext(ctx).Where("id = ?", *org.PlanID).First(&plan).Error; err != nil {
		return nil, fail(err, apperrors.ReadFailed, op, "read plan")
	}
	return &plan, nil
}

func (s *Store) ListPlans(ctx context.Context) ([]domain.SubscriptionPlan, error) {
	var plans []domain.SubscriptionPlan
	if err := s.DB.WithContext(ctx).Order("monthly_credits ASC").Find(&plans).Error; err != nil {
		return nil, fail(err, apperrors.ReadFailed, "membership.ListPlans", "list plans")
	}
	return plans, nil
}

// InviteMember stores a pending invitation and returns its token.
func (s *Store) InviteMember(ctx context.Context, p InviteParams) (string, error) {
	var teamID interface{}
	if p.TeamID != nil {
		teamID = *p.TeamID
	}
	var token string
	err := s.RPC.Call(ctx, database.ProcInviteOrgMember, database.Args{
		"p_token":           p.Token,
		"p_organization_id": p.OrganizationID,
		"p_team_id":         teamID,
		"p_email":           p.Email,
		"p_org_role":        p.OrgRole,
		"p_team_role":       p.TeamRole,
		"p_invited_by":      p.InvitedBy,
		"p_expires_at":      p.ExpiresAt.UTC(),
	}, &token)
	if err != nil {
		return "", fail(err, apperrors.CreateFailed, "membership.InviteMember", "invite member").
			WithUserMessage("Could not create the invitation")
	}
	return token, nil
}

// ValidateInvitationToken returns the raw invitation row. Status checks are
// left to the caller.
func (s *Store) ValidateInvitationToken(ctx context.Context, token string) (*database.InvitationTokenRow, error) {
	var row database.InvitationTokenRow
	if err := s.RPC.Call(ctx, database.ProcValidateInvitationToken, database.Args{"p_token": token}, &row); err != nil {
		return nil, fail(err, apperrors.ReadFailed, "membership.ValidateInvitationToken", "validate token")
	}
	return &row, nil
}

// RevokeInvitation reports whether a pending invitation was revoked.
func (s *Store) RevokeInvitation(ctx context.Context, token string) (bool, error) {
	var ok bool
	if err := s.RPC.Call(ctx, database.ProcRevokeInvitation, database.Args{"p_token": token}, &ok); err != nil {
		return false, fail(err, apperrors.UpdateFailed, "membership.RevokeInvitation", "revoke invitation")
	}
	return ok, nil
}

// ProcessInvitation consumes the invitation and creates the membership
// atomically. It reports false when the token is not redeemable.
func (s *Store) ProcessInvitation(ctx context.Context, token, userID string) (bool, error) {
	var ok bool
	err := s.RPC.Call(ctx, database.ProcProcessInvitation, database.Args{"p_token": token, "p_user_id": userID}, &ok)
	if err != nil {
		e := fail(err, apperrors.CreateFailed, "membership.ProcessInvitation", "process invitation")
		if e.Conflict {
			e.WithUserMessage("You are already a member of this organization")
		}
		return false, e
	}
	return ok, nil
}

func (s *Store) GetInvitation(ctx context.Context, token string) (*domain.Invitation, error) {
	var inv domain.Invitation
	if err := s.DB.WithContext(ctx).Where("token = ?", token).First(&inv).Error; err != nil {
		return nil, fail(err, apperrors.ReadFailed, "membership.GetInvitation", "read invitation")
	}
	return &inv, nil
}

func (s *Store) ListInvitations(ctx context.Context, orgID string) ([]domain.Invitation, error) {
	var invs []domain.Invitation
	if err := s.DB.WithContext(ctx).Where("organization_id = ?", orgID).Order("created_at DESC").Find(&invs).Error; err != nil {
		return nil, fail(err, apperrors.ReadFailed, "membership.ListInvitations", "list invitations")
	}
	return invs, nil
}

// CountPendingInvitations counts invitations still redeemable at now.
func (s *Store) CountPendingInvitations(ctx context.Context, orgID string, now time.Time) (int64, error) {
	return s.countPending(ctx, "membership.CountPendingInvitations", now, "organization_id = ?", orgID)
}

// HasPendingInvitation reports whether email already holds a redeemable
// invitation to orgID.
func (s *Store) HasPendingInvitation(ctx context.Context, orgID, email string, now time.Time) (bool, error) {
	n, err := s.countPending(ctx, "membership.HasPendingInvitation", now,
		"organization_id = ? AND email = ?", orgID, strings.ToLower(strings.TrimSpace(email)))
	return n > 0, err
}

// Expiry is compared in Go; SQLite stores timestamps as text.
func (s *Store) countPending(ctx context.Context, op string, now time.Time, query string, args ...interface{}) (int64, error) {
	var expiries []time.Time
	err := s.DB.WithContext(ctx).Model(&domain.Invitation{}).
		Where(query, args...).
		Where("consumed_at IS NULL AND revoked_at IS NULL").
		Pluck("expires_at", &expiries).Error
	if err != nil {
		return 0, fail(err, apperrors.ReadFailed, op, "count pending invitations")
	}
	var n int64
	for _, exp := range expiries {
		if !now.After(exp) {
			n++
		}
	}
	return n, nil
}

// HasMemberWithEmail reports whether someone with email is already a member of orgID.
func (s *Store) HasMemberWithEmail(ctx context.Context, orgID, email string) (bool, error) {
	var n int64
	err := s.DB.WithContext(ctx).Model(&domain.Membership{}).
		Where("organization_id = ? AND LOWER(email) = ?", orgID, strings.ToLower(strings.TrimSpace(email))).
		Count(&n).Error
	if err != nil {
		return false, fail(err, apperrors.ReadFailed, "membership.HasMemberWithEmail", "check member email")
	}
	return n > 0, nil
}
