package invitations

import (
	"context"
	"strings"

	"teamhub-backend/internal/pkg/apperrors"
)

// validateInviteCreation rejects invitations that could never be accepted or
// would duplicate a live one. email is already normalized.
func (s *Service) validateInviteCreation(ctx context.Context, op, orgID, email, actorEmail string) error {
	if strings.EqualFold(email, strings.TrimSpace(actorEmail)) {
		return apperrors.New(apperrors.ValidationFailed, op, "self invite").WithUserMessage("You cannot invite yourself")
	}

	member, err := s.Store.HasMemberWithEmail(ctx, orgID, email)
	if err != nil {
		return err
	}
	if member {
		return apperrors.New(apperrors.ValidationFailed, op, "already a member").
			WithUserMessage("User already belongs to this organization")
	}

	pending, err := s.Store.HasPendingInvitation(ctx, orgID, email, s.now())
	if err != nil {
		return err
	}
	if pending {
		return apperrors.New(apperrors.ValidationFailed, op, "pending invitation exists").
			WithUserMessage("A pending invitation already exists for this email")
	}
	return nil
}
