package org

import (
	"context"
	"testing"
	"time"

	"teamhub-backend/internal/application/membership"
	"teamhub-backend/internal/domain"
	"teamhub-backend/internal/infrastructure/database/dbtest"
	"teamhub-backend/internal/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

var owner = domain.Principal{ID: "owner-1", Email: "owner@acme.test"}

func setup(t *testing.T) (*Service, *membership.Store, string) {
	t.Helper()
	db := dbtest.Open(t)
	store := membership.NewStore(db, dbtest.Procedures(db, func() time.Time { return time.Now().UTC() }))
	svc := &Service{Store: store}
	boot, err := svc.Create(context.Background(), owner, "Acme", "")
	require.NoError(t, err)
	return svc, store, boot.Organization.ID
}

func addMember(t *testing.T, store *membership.Store, orgID, userID string) {
	t.Helper()
	ctx := context.Background()
	token := "tok-" + userID
	_, err := store.InviteMember(ctx, membership.InviteParams{
		Token: token, OrganizationID: orgID, Email: userID + "@acme.test",
		OrgRole: "member", TeamRole: "member", InvitedBy: owner.ID, ExpiresAt: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	ok, err := store.ProcessInvitation(ctx, token, userID)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestCreate_Validation(t *testing.T) {
	svc, _, _ := setup(t)
	_, err := svc.Create(context.Background(), owner, "   ", "")
	assert.Equal(t, apperrors.ValidationFailed, apperrors.KindOf(err))
}

func TestGet(t *testing.T) {
	svc, store, orgID := setup(t)
	ctx := context.Background()

	d, err := svc.Get(ctx, owner.ID, orgID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", d.Organization.Name)
	assert.Equal(t, "admin", d.Role)
	require.Len(t, d.Teams, 1)
	assert.True(t, d.Teams[0].IsDefault)

	addMember(t, store, orgID, "member-1")
	d, err = svc.Get(ctx, "member-1", orgID)
	require.NoError(t, err)
	assert.Equal(t, "member", d.Role)

	_, err = svc.Get(ctx, "stranger", orgID)
	assert.Equal(t, apperrors.Unauthorized, apperrors.KindOf(err))
}

func TestRename(t *testing.T) {
	svc, store, orgID := setup(t)
	ctx := context.Background()
	addMember(t, store, orgID, "member-1")

	_, err := svc.Rename(ctx, "member-1", orgID, "Other")
	assert.Equal(t, apperrors.Unauthorized, apperrors.KindOf(err))

	o, err := svc.Rename(ctx, owner.ID, orgID, "Acme Ltd")
	require.NoError(t, err)
	assert.Equal(t, "Acme Ltd", o.Name)
}

func TestRemoveMember(t *testing.T) {
	svc, store, orgID := setup(t)
	ctx := context.Background()
	addMember(t, store, orgID, "member-1")
	addMember(t, store, orgID, "member-2")

	err := svc.RemoveMember(ctx, "member-1", orgID, "member-2")
	assert.Equal(t, apperrors.Unauthorized, apperrors.KindOf(err))

	err = svc.RemoveMember(ctx, owner.ID, orgID, owner.ID)
	assert.Equal(t, apperrors.ValidationFailed, apperrors.KindOf(err))

	require.NoError(t, svc.RemoveMember(ctx, owner.ID, orgID, "member-2"))
	members, err := svc.ListMembers(ctx, "member-1", orgID)
	require.NoError(t, err)
	assert.Len(t, members, 2)

	err = svc.RemoveMember(ctx, owner.ID, orgID, "member-2")
	assert.Equal(t, apperrors.NotFound, apperrors.KindOf(err))
}

func TestCreateTeam(t *testing.T) {
	svc, store, orgID := setup(t)
	ctx := context.Background()
	addMember(t, store, orgID, "member-1")

	_, err := svc.CreateTeam(ctx, "member-1", orgID, "Design")
	assert.Equal(t, apperrors.Unauthorized, apperrors.KindOf(err))
	_, err = svc.CreateTeam(ctx, owner.ID, orgID, "")
	assert.Equal(t, apperrors.ValidationFailed, apperrors.KindOf(err))

	team, err := svc.CreateTeam(ctx, owner.ID, orgID, "Design")
	require.NoError(t, err)
	assert.Equal(t, orgID, team.OrganizationID)
}

func TestPlan(t *testing.T) {
	svc, store, orgID := setup(t)
	ctx := context.Background()

	s, err := svc.Plan(ctx, owner.ID, orgID)
	require.NoError(t, err)
	assert.Empty(t, s.Type)
	assert.True(t, s.SeatsAvailable)
	assert.Equal(t, int64(1), s.SeatsUsed)

	dbtest.SeedPlan(t, store.DB, orgID, domain.SubscriptionPlan{
		Type:           domain.PlanStarter,
		MaxTeamMembers: 1,
		Features:       datatypes.NewJSONType(map[string]bool{"api_access": true}),
	})
	s, err = svc.Plan(ctx, owner.ID, orgID)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanStarter, s.Type)
	assert.False(t, s.SeatsAvailable)
	assert.True(t, s.Features["api_access"])
}
