package membership

import (
	"context"
	"testing"
	"time"

	"teamhub-backend/internal/domain"
	"teamhub-backend/internal/infrastructure/database/dbtest"
	"teamhub-backend/internal/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newStore(t *testing.T) *Store {
	t.Helper()
	db := dbtest.Open(t)
	return NewStore(db, dbtest.Procedures(db, func() time.Time { return now }))
}

func TestCreateOrganization_ReturnsOrgAndDefaultTeam(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	boot, err := s.CreateOrganization(ctx, "Acme", "owner-1", "Owner@Acme.test", "Core")
	require.NoError(t, err)
	assert.Equal(t, "Acme", boot.Organization.Name)
	assert.Equal(t, "Core", boot.Team.Name)
	assert.True(t, boot.Team.IsDefault)

	m, err := s.GetMembership(ctx, boot.Organization.ID, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, "admin", m.OrgRole)
	assert.Equal(t, "admin", m.TeamRole)
	assert.Equal(t, "owner@acme.test", m.Email)
}

func TestCreateOrganization_EmptyNameIsValidationError(t *testing.T) {
	s := newStore(t)
	_, err := s.CreateOrganization(context.Background(), "", "owner-1", "o@a.test", "")
	assert.Equal(t, apperrors.ValidationFailed, apperrors.KindOf(err))
}

func TestGetOrganization_NotFound(t *testing.T) {
	s := newStore(t)
	_, err := s.GetOrganization(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, apperrors.NotFound, apperrors.KindOf(err))
	assert.Equal(t, "Organization not found", apperrors.UserMessage(err))
}

func TestUpdateOrganization(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	boot, err := s.CreateOrganization(ctx, "Acme", "owner-1", "o@a.test", "")
	require.NoError(t, err)

	org, err := s.UpdateOrganization(ctx, boot.Organization.ID, " Acme Ltd ")
	require.NoError(t, err)
	assert.Equal(t, "Acme Ltd", org.Name)

	_, err = s.UpdateOrganization(ctx, "missing", "x")
	assert.Equal(t, apperrors.NotFound, apperrors.KindOf(err))
	_, err = s.UpdateOrganization(ctx, boot.Organization.ID, " ")
	assert.Equal(t, apperrors.ValidationFailed, apperrors.KindOf(err))
}

func TestTeamsAndMembers(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	boot, err := s.CreateOrganization(ctx, "Acme", "owner-1", "o@a.test", "")
	require.NoError(t, err)
	orgID := boot.Organization.ID

	team, err := s.CreateTeam(ctx, orgID, "Design")
	require.NoError(t, err)
	assert.False(t, team.IsDefault)

	teams, err := s.ListTeams(ctx, orgID)
	require.NoError(t, err)
	assert.Len(t, teams, 2)

	_, err = s.InviteMember(ctx, InviteParams{
		Token: "tok", OrganizationID: orgID, TeamID: &team.ID, Email: "m@a.test",
		OrgRole: "member", TeamRole: "admin", InvitedBy: "owner-1", ExpiresAt: now.Add(time.Hour),
	})
	require.NoError(t, err)
	ok, err := s.ProcessInvitation(ctx, "tok", "user-2")
	require.NoError(t, err)
	require.True(t, ok)

	members, err := s.ListMembers(ctx, orgID)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "user-2", members[1].UserID)
	assert.Equal(t, team.ID, members[1].TeamID)
	assert.Equal(t, "member", members[1].OrgRole)
	assert.Equal(t, "admin", members[1].TeamRole)

	n, err := s.CountMembers(ctx, orgID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	require.NoError(t, s.DeleteMembership(ctx, orgID, "user-2"))
	err = s.DeleteMembership(ctx, orgID, "user-2")
	assert.Equal(t, apperrors.NotFound, apperrors.KindOf(err))

	_, err = s.GetMembership(ctx, orgID, "user-2")
	assert.Equal(t, apperrors.NotFound, apperrors.KindOf(err))
}

func TestProcessInvitation_AlreadyMemberIsConflict(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	boot, err := s.CreateOrganization(ctx, "Acme", "owner-1", "o@a.test", "")
	require.NoError(t, err)

	_, err = s.InviteMember(ctx, InviteParams{
		Token: "tok", OrganizationID: boot.Organization.ID, Email: "o@a.test",
		OrgRole: "member", TeamRole: "member", InvitedBy: "owner-1", ExpiresAt: now.Add(time.Hour),
	})
	require.NoError(t, err)

	_, err = s.ProcessInvitation(ctx, "tok", "owner-1")
	require.Error(t, err)
	assert.Equal(t, apperrors.CreateFailed, apperrors.KindOf(err))
	assert.Equal(t, 409, apperrors.HTTPStatus(err))
}

func TestInviteMember_DuplicateTokenIsConflict(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	boot, err := s.CreateOrganization(ctx, "Acme", "owner-1", "o@a.test", "")
	require.NoError(t, err)
	p := InviteParams{
		Token: "tok", OrganizationID: boot.Organization.ID, Email: "x@a.test",
		OrgRole: "member", TeamRole: "member", InvitedBy: "owner-1", ExpiresAt: now.Add(time.Hour),
	}
	_, err = s.InviteMember(ctx, p)
	require.NoError(t, err)
	_, err = s.InviteMember(ctx, p)
	assert.Equal(t, 409, apperrors.HTTPStatus(err))

	p.Token, p.OrganizationID = "tok-2", "missing"
	_, err = s.InviteMember(ctx, p)
	assert.Equal(t, apperrors.NotFound, apperrors.KindOf(err))
}

func TestInvitationsListingAndPendingCount(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	boot, err := s.CreateOrganization(ctx, "Acme", "owner-1", "o@a.test", "")
	require.NoError(t, err)
	orgID := boot.Organization.ID

	for token, exp := range map[string]time.Time{"live": now.Add(time.Hour), "stale": now.Add(-time.Hour), "dropped": now.Add(time.Hour)} {
		_, err := s.InviteMember(ctx, InviteParams{
			Token: token, OrganizationID: orgID, Email: token + "@a.test",
			OrgRole: "member", TeamRole: "member", InvitedBy: "owner-1", ExpiresAt: exp,
		})
		require.NoError(t, err)
	}
	ok, err := s.RevokeInvitation(ctx, "dropped")
	require.NoError(t, err)
	assert.True(t, ok)

	invs, err := s.ListInvitations(ctx, orgID)
	require.NoError(t, err)
	assert.Len(t, invs, 3)

	n, err := s.CountPendingInvitations(ctx, orgID, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	for email, want := range map[string]bool{"LIVE@a.test": true, "stale@a.test": false, "dropped@a.test": false, "other@a.test": false} {
		pending, err := s.HasPendingInvitation(ctx, orgID, email, now)
		require.NoError(t, err)
		assert.Equal(t, want, pending, email)
	}

	member, err := s.HasMemberWithEmail(ctx, orgID, "O@A.test")
	require.NoError(t, err)
	assert.True(t, member)
	member, err = s.HasMemberWithEmail(ctx, orgID, "live@a.test")
	require.NoError(t, err)
	assert.False(t, member)

	inv, err := s.GetInvitation(ctx, "dropped")
	require.NoError(t, err)
	assert.Equal(t, domain.InvitationRevoked, inv.Status(now))

	_, err = s.GetInvitation(ctx, "nope")
	assert.Equal(t, apperrors.NotFound, apperrors.KindOf(err))
}

func TestValidateInvitationToken_Absent(t *testing.T) {
	s := newStore(t)
	_, err := s.ValidateInvitationToken(context.Background(), "nope")
	assert.Equal(t, apperrors.NotFound, apperrors.KindOf(err))
}

func TestOrganizationPlan(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	boot, err := s.CreateOrganization(ctx, "Acme", "owner-1", "o@a.test", "")
	require.NoError(t, err)
	orgID := boot.Organization.ID

	_, err = s.GetOrganizationPlan(ctx, orgID)
	assert.Equal(t, apperrors.NotFound, apperrors.KindOf(err))

	dbtest.SeedPlan(t, s.DB, orgID, domain.SubscriptionPlan{
		Type:           domain.PlanPro,
		MonthlyCredits: 500,
		MaxTeamMembers: 5,
		Features:       datatypes.NewJSONType(map[string]bool{"white_label": true}),
	})
	plan, err := s.GetOrganizationPlan(ctx, orgID)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanPro, plan.Type)
	assert.True(t, plan.Features.Data()["white_label"])

	plans, err := s.ListPlans(ctx)
	require.NoError(t, err)
	assert.Len(t, plans, 1)
}

func TestEnsureRole(t *testing.T) {
	s := newStore(t)
	a, err := s.EnsureRole(context.Background(), "organization", "member")
	require.NoError(t, err)
	b, err := s.EnsureRole(context.Background(), "organization", "member")
	require.NoError(t, err)
	assert.Equal(t, a.ID, b.ID)

	_, err = s.EnsureRole(context.Background(), "galaxy", "member")
	assert.Equal(t, apperrors.ValidationFailed, apperrors.KindOf(err))
}
