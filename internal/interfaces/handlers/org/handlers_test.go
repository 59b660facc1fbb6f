package org

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"teamhub-backend/internal/application/membership"
	orgsvc "teamhub-backend/internal/application/org"
	"teamhub-backend/internal/application/plans"
	"teamhub-backend/internal/domain"
	"teamhub-backend/internal/infrastructure/database/dbtest"
	"teamhub-backend/internal/middleware"
	"teamhub-backend/internal/pkg/apperrors"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var principals = map[string]domain.Principal{
	"Bearer admin":  {ID: "admin-1", Email: "admin@acme.test"},
	"Bearer member": {ID: "member-1", Email: "member@acme.test"},
	"Bearer eve":    {ID: "eve-1", Email: "eve@evil.test"},
}

type tokenVerifier struct{}

func (tokenVerifier) Verify(_ context.Context, header string) (*domain.Principal, error) {
	p, ok := principals[header]
	if !ok {
		return nil, apperrors.New(apperrors.Unauthorized, "auth.Verify", "unknown token")
	}
	return &p, nil
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

type fixture struct {
	app   *fiber.App
	db    *gorm.DB
	store *membership.Store
}

func setupOrgTest(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.Open(t)
	store := membership.NewStore(db, dbtest.Procedures(db, time.Now))
	h := &Handlers{Service: &orgsvc.Service{Store: store}}

	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler})
	g := app.Group("/api/v1/orgs", middleware.RequireAuth(tokenVerifier{}, nil))
	g.Post("/", h.CreateOrg)
	g.Get("/:orgId", h.ViewOrg)
	g.Patch("/:orgId", h.UpdateOrg)
	g.Get("/:orgId/members", h.ListMembers)
	g.Delete("/:orgId/members/:userId", h.RemoveMember)
	g.Post("/:orgId/teams", h.CreateTeam)
	g.Get("/:orgId/plan", h.Plan)
	return &fixture{app: app, db: db, store: store}
}

func (f *fixture) do(t *testing.T, method, path, auth string, body interface{}) (int, envelope) {
	t.Helper()
	b, _ := json.Marshal(body)
	if body == nil {
		b = nil
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", auth)
	resp, err := f.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func (f *fixture) createOrg(t *testing.T) domain.OrganizationBootstrap {
	t.Helper()
	status, env := f.do(t, http.MethodPost, "/api/v1/orgs", "Bearer admin", map[string]string{"name": "Acme"})
	require.Equal(t, http.StatusCreated, status, env.Error.Message)
	var boot domain.OrganizationBootstrap
	require.NoError(t, json.Unmarshal(env.Data, &boot))
	return boot
}

func (f *fixture) addMember(t *testing.T, orgID string) {
	t.Helper()
	ctx := context.Background()
	token, err := f.store.InviteMember(ctx, membership.InviteParams{
		Token:          "member-token",
		OrganizationID: orgID,
		Email:          "member@acme.test",
		OrgRole:        "member",
		TeamRole:       "member",
		InvitedBy:      "admin-1",
		ExpiresAt:      time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	ok, err := f.store.ProcessInvitation(ctx, token, "member-1")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestCreateOrg(t *testing.T) {
	f := setupOrgTest(t)
	boot := f.createOrg(t)
	assert.Equal(t, "Acme", boot.Organization.Name)
	assert.Equal(t, "General", boot.Team.Name)
	assert.True(t, boot.Team.IsDefault)

	status, env := f.do(t, http.MethodGet, "/api/v1/orgs/"+boot.Organization.ID, "Bearer admin", nil)
	require.Equal(t, http.StatusOK, status)
	var details orgsvc.Details
	require.NoError(t, json.Unmarshal(env.Data, &details))
	assert.Equal(t, "admin", details.Role)
	assert.Len(t, details.Teams, 1)
}

func TestCreateOrg_MissingName(t *testing.T) {
	f := setupOrgTest(t)
	status, env := f.do(t, http.MethodPost, "/api/v1/orgs", "Bearer admin", map[string]string{"team_name": "Ops"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Organization name is required", env.Error.Message)
}

func TestViewOrg_NonMember(t *testing.T) {
	f := setupOrgTest(t)
	boot := f.createOrg(t)
	status, _ := f.do(t, http.MethodGet, "/api/v1/orgs/"+boot.Organization.ID, "Bearer eve", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestUpdateOrg(t *testing.T) {
	f := setupOrgTest(t)
	boot := f.createOrg(t)
	f.addMember(t, boot.Organization.ID)

	status, _ := f.do(t, http.MethodPatch, "/api/v1/orgs/"+boot.Organization.ID, "Bearer member", map[string]string{"name": "Hijacked"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, env := f.do(t, http.MethodPatch, "/api/v1/orgs/"+boot.Organization.ID, "Bearer admin", map[string]string{"name": "Acme Ltd"})
	require.Equal(t, http.StatusOK, status)
	var org domain.Organization
	require.NoError(t, json.Unmarshal(env.Data, &org))
	assert.Equal(t, "Acme Ltd", org.Name)
}

func TestMembers(t *testing.T) {
	f := setupOrgTest(t)
	boot := f.createOrg(t)
	orgID := boot.Organization.ID
	f.addMember(t, orgID)

	status, env := f.do(t, http.MethodGet, "/api/v1/orgs/"+orgID+"/members", "Bearer member", nil)
	require.Equal(t, http.StatusOK, status)
	var members []domain.MemberView
	require.NoError(t, json.Unmarshal(env.Data, &members))
	assert.Len(t, members, 2)

	status, _ = f.do(t, http.MethodDelete, "/api/v1/orgs/"+orgID+"/members/admin-1", "Bearer member", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, env = f.do(t, http.MethodDelete, "/api/v1/orgs/"+orgID+"/members/admin-1", "Bearer admin", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "You cannot remove yourself", env.Error.Message)

	status, _ = f.do(t, http.MethodDelete, "/api/v1/orgs/"+orgID+"/members/member-1", "Bearer admin", nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = f.do(t, http.MethodDelete, "/api/v1/orgs/"+orgID+"/members/member-1", "Bearer admin", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = f.do(t, http.MethodGet, "/api/v1/orgs/"+orgID+"/members", "Bearer member", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestCreateTeam(t *testing.T) {
	f := setupOrgTest(t)
	boot := f.createOrg(t)

	status, env := f.do(t, http.MethodPost, "/api/v1/orgs/"+boot.Organization.ID+"/teams", "Bearer admin", map[string]string{"name": "Design"})
	require.Equal(t, http.StatusCreated, status, env.Error.Message)
	var team domain.Team
	require.NoError(t, json.Unmarshal(env.Data, &team))
	assert.Equal(t, "Design", team.Name)
	assert.False(t, team.IsDefault)

	status, _ = f.do(t, http.MethodPost, "/api/v1/orgs/"+boot.Organization.ID+"/teams", "Bearer admin", map[string]string{"name": ""})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestPlan(t *testing.T) {
	f := setupOrgTest(t)
	boot := f.createOrg(t)
	orgID := boot.Organization.ID

	status, env := f.do(t, http.MethodGet, "/api/v1/orgs/"+orgID+"/plan", "Bearer admin", nil)
	require.Equal(t, http.StatusOK, status)
	var summary plans.Summary
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	assert.Equal(t, "", summary.Type)
	assert.True(t, summary.SeatsAvailable)

	dbtest.SeedPlan(t, f.db, orgID, domain.SubscriptionPlan{
		Type:           domain.PlanPro,
		MonthlyCredits: 500,
		MaxTeamMembers: 1,
		Features:       datatypes.NewJSONType(map[string]bool{plans.FeatureWhiteLabel: true}),
	})
	status, env = f.do(t, http.MethodGet, "/api/v1/orgs/"+orgID+"/plan", "Bearer admin", nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	assert.Equal(t, domain.PlanPro, summary.Type)
	assert.Equal(t, 500, summary.MonthlyCredits)
	assert.Equal(t, int64(1), summary.SeatsUsed)
	assert.False(t, summary.SeatsAvailable)
	assert.True(t, summary.Features[plans.FeatureWhiteLabel])
}
