package middleware

import (
	"context"

	"teamhub-backend/internal/domain"
	"teamhub-backend/internal/metrics"

	"github.com/gofiber/fiber/v2"
)

const principalLocal = "principal"

// Verifier resolves an Authorization header to a principal.
type Verifier interface {
	Verify(ctx context.Context, header string) (*domain.Principal, error)
}

// RequireAuth verifies the bearer token and stores the principal in Locals.
// Failures go to the global ErrorHandler as UNAUTHORIZED.
func RequireAuth(v Verifier, rec metrics.Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := v.Verify(c.UserContext(), c.Get(fiber.HeaderAuthorization))
		if err != nil {
			if rec != nil {
				rec.RecordVerifyFailure()
			}
			return err
		}
		c.Locals(principalLocal, p)
		return c.Next()
	}
}

// GetPrincipal returns the verified principal, or nil outside RequireAuth.
func GetPrincipal(c *fiber.Ctx) *domain.Principal {
	p, _ := c.Locals(principalLocal).(*domain.Principal)
	return p
}
