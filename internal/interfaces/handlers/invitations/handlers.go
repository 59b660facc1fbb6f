package invitations

import (
	"context"
	"time"

	invsvc "teamhub-backend/internal/application/invitations"
	"teamhub-backend/internal/application/plans"
	"teamhub-backend/internal/domain"
	"teamhub-backend/internal/middleware"
	"teamhub-backend/internal/pkg/apperrors"
	"teamhub-backend/internal/pkg/constants"
	"teamhub-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// SeatCounter answers the seat-limit check before an invitation is issued.
type SeatCounter interface {
	GetOrganizationPlan(ctx context.Context, orgID string) (*domain.SubscriptionPlan, error)
	CountMembers(ctx context.Context, orgID string) (int64, error)
	CountPendingInvitations(ctx context.Context, orgID string, now time.Time) (int64, error)
}

// Handlers bundles invitation handlers with dependencies.
type Handlers struct {
	Service *invsvc.Service
	Orgs    middleware.OrgAuthorizer
	Seats   SeatCounter
	Now     func() time.Time
}

type createRequest struct {
	OrganizationID string     `json:"organization_id"`
	TeamID         *string    `json:"team_id"`
	Email          string     `json:"email"`
	OrgRole        string     `json:"org_role"`
	TeamRole       string     `json:"team_role"`
	ExpiresAt      *time.Time `json:"expires_at"`
}

func (h *Handlers) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now().UTC()
}

// Create POST /api/v1/invitations
func (h *Handlers) Create(c *fiber.Ctx) error {
	const op = "handlers.invitations.Create"
	var body createRequest
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if body.OrganizationID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "organization_id is required")
	}
	p := middleware.GetPrincipal(c)
	ctx := c.UserContext()

	if _, err := h.Orgs.Authorize(ctx, body.OrganizationID, p.ID, constants.InviteMember); err != nil {
		return err
	}
	if err := h.checkSeats(ctx, op, body.OrganizationID); err != nil {
		return err
	}

	in := invsvc.IssueInput{
		OrganizationID: body.OrganizationID,
		TeamID:         body.TeamID,
		Email:          body.Email,
		OrgRole:        body.OrgRole,
		TeamRole:       body.TeamRole,
		InviterID:      p.ID,
		InviterEmail:   p.Email,
	}
	if body.ExpiresAt != nil {
		in.ExpiresAt = *body.ExpiresAt
	}
	token, err := h.Service.Issue(ctx, in)
	if err != nil {
		return err
	}
	return response.SuccessCreated(c, "Invitation created", fiber.Map{
		"token":       token,
		"invite_link": h.Service.InviteLink(token),
	}, nil)
}

// checkSeats counts members plus pending invitations against the plan.
// Organizations without a plan are not limited.
func (h *Handlers) checkSeats(ctx context.Context, op, orgID string) error {
	if h.Seats == nil {
		return nil
	}
	plan, err := h.Seats.GetOrganizationPlan(ctx, orgID)
	if err != nil {
		if apperrors.IsKind(err, apperrors.NotFound) {
			return nil
		}
		return err
	}
	members, err := h.Seats.CountMembers(ctx, orgID)
	if err != nil {
		return err
	}
	pending, err := h.Seats.CountPendingInvitations(ctx, orgID, h.now())
	if err != nil {
		return err
	}
	if !plans.SeatsAvailable(plan, members+pending) {
		return apperrors.New(apperrors.ValidationFailed, op, "seat limit reached").
			WithUserMessage("Your plan's team member limit has been reached")
	}
	return nil
}

// List GET /api/v1/invitations?organization_id=
func (h *Handlers) List(c *fiber.Ctx) error {
	orgID := c.Query("organization_id")
	if orgID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "organization_id is required")
	}
	views, err := h.Service.List(c.UserContext(), middleware.GetPrincipal(c).ID, orgID)
	if err != nil {
		return err
	}
	return response.Success(c, "Invitations", views, fiber.Map{"count": len(views)})
}

// Validate GET /api/v1/invitations/:token
func (h *Handlers) Validate(c *fiber.Ctx) error {
	proj, err := h.Service.ValidateToken(c.UserContext(), c.Params("token"))
	if err != nil {
		return err
	}
	return response.Success(c, "Invitation is valid", proj, nil)
}

// Redeem POST /api/v1/invitations/:token/redeem
func (h *Handlers) Redeem(c *fiber.Ctx) error {
	ok, err := h.Service.Redeem(c.UserContext(), c.Params("token"), middleware.GetPrincipal(c).ID)
	if err != nil {
		return err
	}
	if !ok {
		return response.Error(c, "Invalid invitation", fiber.StatusNotFound, nil)
	}
	return response.Success(c, "Invitation accepted", fiber.Map{"redeemed": true}, nil)
}

// Revoke DELETE /api/v1/invitations/:token
func (h *Handlers) Revoke(c *fiber.Ctx) error {
	ok, err := h.Service.RevokeAs(c.UserContext(), middleware.GetPrincipal(c).ID, c.Params("token"))
	if err != nil {
		return err
	}
	if !ok {
		return response.Error(c, "Invitation not found", fiber.StatusNotFound, nil)
	}
	return response.Success(c, "Invitation revoked", fiber.Map{"revoked": true}, nil)
}
