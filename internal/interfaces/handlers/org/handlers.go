package org

import (
	orgsvc "teamhub-backend/internal/application/org"
	"teamhub-backend/internal/middleware"
	"teamhub-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers bundles org handlers with dependencies.
type Handlers struct {
	Service *orgsvc.Service
}

type createOrgRequest struct {
	Name     string `json:"name"`
	TeamName string `json:"team_name"`
}

type nameRequest struct {
	Name string `json:"name"`
}

// CreateOrg POST /api/v1/orgs
func (h *Handlers) CreateOrg(c *fiber.Ctx) error {
	var body createOrgRequest
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	boot, err := h.Service.Create(c.UserContext(), *middleware.GetPrincipal(c), body.Name, body.TeamName)
	if err != nil {
		return err
	}
	return response.SuccessCreated(c, "Organization created", boot, nil)
}

// ViewOrg GET /api/v1/orgs/:orgId
func (h *Handlers) ViewOrg(c *fiber.Ctx) error {
	details, err := h.Service.Get(c.UserContext(), middleware.GetPrincipal(c).ID, c.Params("orgId"))
	if err != nil {
		return err
	}
	return response.Success(c, "Organization", details, nil)
}

// UpdateOrg PATCH /api/v1/orgs/:orgId
func (h *Handlers) UpdateOrg(c *fiber.Ctx) error {
	var body nameRequest
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	org, err := h.Service.Rename(c.UserContext(), middleware.GetPrincipal(c).ID, c.Params("orgId"), body.Name)
	if err != nil {
		return err
	}
	return response.Success(c, "Organization updated", org, nil)
}

// ListMembers GET /api/v1/orgs/:orgId/members
func (h *Handlers) ListMembers(c *fiber.Ctx) error {
	members, err := h.Service.ListMembers(c.UserContext(), middleware.GetPrincipal(c).ID, c.Params("orgId"))
	if err != nil {
		return err
	}
	return response.Success(c, "Members", members, fiber.Map{"count": len(members)})
}

// RemoveMember DELETE /api/v1/orgs/:orgId/members/:userId
func (h *Handlers) RemoveMember(c *fiber.Ctx) error {
	err := h.Service.RemoveMember(c.UserContext(), middleware.GetPrincipal(c).ID, c.Params("orgId"), c.Params("userId"))
	if err != nil {
		return err
	}
	return response.Success(c, "Member removed", fiber.Map{"removed": true}, nil)
}

// CreateTeam POST /api/v1/orgs/:orgId/teams
func (h *Handlers) CreateTeam(c *fiber.Ctx) error {
	var body nameRequest
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	team, err := h.Service.CreateTeam(c.UserContext(), middleware.GetPrincipal(c).ID, c.Params("orgId"), body.Name)
	if err != nil {
		return err
	}
	return response.SuccessCreated(c, "Team created", team, nil)
}

// Plan GET /api/v1/orgs/:orgId/plan
func (h *Handlers) Plan(c *fiber.Ctx) error {
	summary, err := h.Service.Plan(c.UserContext(), middleware.GetPrincipal(c).ID, c.Params("orgId"))
	if err != nil {
		return err
	}
	return response.Success(c, "Plan", summary, nil)
}
