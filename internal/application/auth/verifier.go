package auth

import (
	"context"
	"errors"
	"strings"

	"teamhub-backend/internal/domain"
	"teamhub-backend/internal/infrastructure/supabase"
	"teamhub-backend/internal/pkg/apperrors"
)

const bearerPrefix = "Bearer "

// IdentityClient exchanges an access token for the user it was issued to.
type IdentityClient interface {
	GetUser(ctx context.Context, accessToken string) (*supabase.User, error)
}

// Verifier turns an Authorization header into a Principal.
type Verifier struct {
	Identity IdentityClient
}

// NewVerifier returns a verifier backed by the identity service.
func NewVerifier(identity IdentityClient) *Verifier {
	return &Verifier{Identity: identity}
}

// ParseBearer extracts the token from "Bearer <token>". It reports false for
// any other shape, including an empty or space-containing token.
func ParseBearer(header string) (string, bool) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	token := header[len(bearerPrefix):]
	if token == "" || strings.ContainsAny(token, " \t\r\n") {
		return "", false
	}
	return token, true
}

// Verify returns the principal for header. Every failure, whether a
// malformed header, a rejected token or an unreachable identity service, is
// the same UNAUTHORIZED error; the cause is kept for logs only.
func (v *Verifier) Verify(ctx context.Context, header string) (*domain.Principal, error) {
	const op = "auth.Verify"

	token, ok := ParseBearer(header)
	if !ok {
		return nil, unauthorized(op, "malformed authorization header", nil)
	}
	if v.Identity == nil {
		return nil, unauthorized(op, "identity client not configured", nil)
	}
	user, err := v.Identity.GetUser(ctx, token)
	if err != nil {
		return nil, unauthorized(op, "identity lookup failed", err)
	}
	if user == nil || user.ID == "" {
		return nil, unauthorized(op, "identity returned no user", errors.New("empty user id"))
	}
	return &domain.Principal{ID: user.ID, Email: user.Email}, nil
}

func unauthorized(op, msg string, cause error) error {
	return apperrors.Wrap(cause, apperrors.Unauthorized, op, msg).WithUserMessage("Unauthorized")
}
