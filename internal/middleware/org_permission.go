package middleware

import (
	"context"

	"teamhub-backend/internal/domain"
	"teamhub-backend/internal/pkg/apperrors"

	"github.com/gofiber/fiber/v2"
)

// OrgAuthorizer checks an organization permission for a user.
type OrgAuthorizer interface {
	Authorize(ctx context.Context, orgID, userID, permission string) (*domain.MemberView, error)
}

// AuthorizeOrgPermission requires the principal's role in the :orgId
// organization to grant permission. Must run after RequireAuth.
func AuthorizeOrgPermission(a OrgAuthorizer, permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := GetPrincipal(c)
		if p == nil {
			return apperrors.New(apperrors.Unauthorized, "middleware.AuthorizeOrgPermission", "no principal")
		}
		if _, err := a.Authorize(c.UserContext(), c.Params("orgId"), p.ID, permission); err != nil {
			return err
		}
		return c.Next()
	}
}
