// Package invitations issues, validates, redeems and revokes single-use,
// time-bounded invitation tokens.
package invitations

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"teamhub-backend/internal/application/emails"
	"teamhub-backend/internal/application/membership"
	"teamhub-backend/internal/domain"
	"teamhub-backend/internal/infrastructure/database"
	"teamhub-backend/internal/metrics"
	"teamhub-backend/internal/pkg/apperrors"
	"teamhub-backend/internal/pkg/constants"
	"teamhub-backend/internal/pkg/validation"

	"github.com/rs/zerolog/log"
)

// DefaultExpiry is used when the caller gives no expiry.
const DefaultExpiry = 7 * 24 * time.Hour

const tokenBytes = 32

// Store is the part of the membership adapter the workflow needs.
type Store interface {
	GetOrganization(ctx context.Context, orgID string) (*domain.Organization, error)
	GetMembership(ctx context.Context, orgID, userID string) (*domain.MemberView, error)
	InviteMember(ctx context.Context, p membership.InviteParams) (string, error)
	ValidateInvitationToken(ctx context.Context, token string) (*database.InvitationTokenRow, error)
	RevokeInvitation(ctx context.Context, token string) (bool, error)
	ProcessInvitation(ctx context.Context, token, userID string) (bool, error)
	GetInvitation(ctx context.Context, token string) (*domain.Invitation, error)
	ListInvitations(ctx context.Context, orgID string) ([]domain.Invitation, error)
	HasPendingInvitation(ctx context.Context, orgID, email string, now time.Time) (bool, error)
	HasMemberWithEmail(ctx context.Context, orgID, email string) (bool, error)
}

// Throttle limits repeated invitations to the same address.
type Throttle interface {
	Allow(ctx context.Context, orgID, email string) (bool, error)
	Release(ctx context.Context, orgID, email string) error
}

// Service is the invitation workflow. Throttle, Email and Metrics are optional.
type Service struct {
	Store         Store
	Throttle      Throttle
	Email         emails.Sender
	Metrics       metrics.Recorder
	InviteBaseURL string
	Now           func() time.Time
}

// IssueInput describes a new invitation. A nil TeamID means the
// organization's default team; empty roles default to member.
type IssueInput struct {
	OrganizationID string
	TeamID         *string
	Email          string
	OrgRole        string
	TeamRole       string
	InviterID      string
	InviterEmail   string
	ExpiresAt      time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// NewToken returns 32 random bytes, hex encoded.
func NewToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// authorize returns the actor's membership if their organization role grants permission.
func (s *Service) authorize(ctx context.Context, op, orgID, userID, permission string) (*domain.MemberView, error) {
	m, err := s.Store.GetMembership(ctx, orgID, userID)
	if err != nil {
		if apperrors.IsKind(err, apperrors.NotFound) {
			return nil, apperrors.Wrap(err, apperrors.Unauthorized, op, "actor is not a member").
				WithUserMessage("You are not a member of this organization")
		}
		return nil, err
	}
	if !constants.AllowedRole(permission, m.OrgRole) {
		return nil, apperrors.New(apperrors.Unauthorized, op, fmt.Sprintf("role %s lacks %s", m.OrgRole, permission)).
			WithUserMessage("You are not allowed to perform this action")
	}
	return m, nil
}

// Issue creates a pending invitation and returns its token.
func (s *Service) Issue(ctx context.Context, in IssueInput) (string, error) {
	const op = "invitations.Issue"

	email := validation.NormalizeEmail(in.Email)
	if !validation.IsValidEmail(email) {
		return "", apperrors.New(apperrors.ValidationFailed, op, "invalid email").WithUserMessage("Invalid email address")
	}
	if in.OrgRole == "" {
		in.OrgRole = constants.Member
	}
	if in.TeamRole == "" {
		in.TeamRole = constants.Member
	}
	if !constants.IsValidRole(in.OrgRole) || !constants.IsValidRole(in.TeamRole) {
		return "", apperrors.New(apperrors.ValidationFailed, op, "invalid role").WithUserMessage("Invalid role")
	}
	now := s.now()
	if in.ExpiresAt.IsZero() {
		in.ExpiresAt = now.Add(DefaultExpiry)
	}
	if !in.ExpiresAt.After(now) {
		return "", apperrors.New(apperrors.ValidationFailed, op, "expiry in the past").WithUserMessage("Expiry must be in the future")
	}
	if in.OrganizationID == "" || in.InviterID == "" {
		return "", apperrors.New(apperrors.ValidationFailed, op, "missing organization or inviter").WithUserMessage("organization_id is required")
	}

	if _, err := s.authorize(ctx, op, in.OrganizationID, in.InviterID, constants.InviteMember); err != nil {
		return "", err
	}
	if err := s.validateInviteCreation(ctx, op, in.OrganizationID, email, in.InviterEmail); err != nil {
		return "", err
	}

	if s.Throttle != nil {
		ok, err := s.Throttle.Allow(ctx, in.OrganizationID, email)
		if err != nil {
			log.Warn().Err(err).Str("organization_id", in.OrganizationID).Msg("invite throttle unavailable")
		} else if !ok {
			return "", apperrors.New(apperrors.ValidationFailed, op, "throttled").
				WithUserMessage("An invitation was sent to this address recently")
		}
	}

	token, err := NewToken()
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.Unknown, op, "generate token")
	}
	token, err = s.Store.InviteMember(ctx, membership.InviteParams{
		Token:          token,
		OrganizationID: in.OrganizationID,
		TeamID:         in.TeamID,
		Email:          email,
		OrgRole:        in.OrgRole,
		TeamRole:       in.TeamRole,
		InvitedBy:      in.InviterID,
		ExpiresAt:      in.ExpiresAt,
	})
	if err != nil {
		if s.Throttle != nil {
			_ = s.Throttle.Release(ctx, in.OrganizationID, email)
		}
		return "", err
	}

	if s.Metrics != nil {
		s.Metrics.RecordInvitationIssued()
	}
	s.sendInvite(ctx, in.OrganizationID, email, in.OrgRole, token, in.ExpiresAt)
	return token, nil
}

// sendInvite is best effort; the invitation stands even if mail fails.
func (s *Service) sendInvite(ctx context.Context, orgID, email, role, token string, expiresAt time.Time) {
	if s.Email == nil {
		return
	}
	orgName := "your organization"
	if org, err := s.Store.GetOrganization(ctx, orgID); err == nil {
		orgName = org.Name
	}
	err := s.Email.SendInvite(ctx, emails.Invite{
		To:        email,
		Link:      s.InviteLink(token),
		OrgName:   orgName,
		Role:      role,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		log.Error().Err(err).Str("organization_id", orgID).Msg("send invite email")
	}
}

// InviteLink is the URL the invitee opens to accept.
func (s *Service) InviteLink(token string) string {
	return strings.TrimRight(s.InviteBaseURL, "/") + "/accept-invite?token=" + token
}

// ValidateToken returns what a token holder may see. Absent tokens are
// NOT_FOUND; expired ones EXPIRED, even when also consumed or revoked;
// consumed or revoked ones NOT_FOUND. Nothing is written.
func (s *Service) ValidateToken(ctx context.Context, token string) (*domain.InvitationProjection, error) {
	const op = "invitations.ValidateToken"
	if token == "" {
		return nil, apperrors.New(apperrors.NotFound, op, "empty token").WithUserMessage("Invitation not found")
	}
	row, err := s.Store.ValidateInvitationToken(ctx, token)
	if err != nil {
		if apperrors.IsKind(err, apperrors.NotFound) {
			return nil, apperrors.Wrap(err, apperrors.NotFound, op, "unknown token").WithUserMessage("Invitation not found")
		}
		return nil, err
	}
	if s.now().After(row.ExpiresAt) {
		return nil, apperrors.New(apperrors.Expired, op, "token expired").WithUserMessage("This invitation has expired")
	}
	if row.ConsumedAt != nil || row.RevokedAt != nil {
		return nil, apperrors.New(apperrors.NotFound, op, "token no longer pending").WithUserMessage("Invitation not found")
	}
	return &domain.InvitationProjection{
		OrganizationID:   row.OrganizationID,
		OrganizationName: row.OrganizationName,
		TeamID:           row.TeamID,
		Email:            row.Email,
		OrgRole:          row.OrgRole,
		TeamRole:         row.TeamRole,
		ExpiresAt:        row.ExpiresAt,
	}, nil
}

// Redeem makes userID a member through the token. It reports false for any
// token that is not pending; the store guarantees at most one success.
func (s *Service) Redeem(ctx context.Context, token, userID string) (bool, error) {
	const op = "invitations.Redeem"
	if userID == "" {
		return false, apperrors.New(apperrors.Unauthorized, op, "missing principal")
	}
	if token == "" {
		return false, nil
	}
	ok, err := s.Store.ProcessInvitation(ctx, token, userID)
	if err != nil {
		return false, err
	}
	if s.Metrics != nil {
		s.Metrics.RecordInvitationRedeemed(ok)
	}
	return ok, nil
}

// Revoke reports true only when a pending invitation was revoked.
func (s *Service) Revoke(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	ok, err := s.Store.RevokeInvitation(ctx, token)
	if err != nil {
		return false, err
	}
	if ok && s.Metrics != nil {
		s.Metrics.RecordInvitationRevoked()
	}
	return ok, nil
}

// RevokeAs revokes after checking that actorID may revoke in the invitation's organization.
func (s *Service) RevokeAs(ctx context.Context, actorID, token string) (bool, error) {
	const op = "invitations.RevokeAs"
	inv, err := s.Store.GetInvitation(ctx, token)
	if err != nil {
		if apperrors.IsKind(err, apperrors.NotFound) {
			return false, nil
		}
		return false, err
	}
	if _, err := s.authorize(ctx, op, inv.OrganizationID, actorID, constants.RevokeInvitation); err != nil {
		return false, err
	}
	return s.Revoke(ctx, token)
}

// List returns the organization's invitations with their current status.
func (s *Service) List(ctx context.Context, actorID, orgID string) ([]domain.InvitationView, error) {
	const op = "invitations.List"
	if _, err := s.authorize(ctx, op, orgID, actorID, constants.ViewInvitations); err != nil {
		return nil, err
	}
	invs, err := s.Store.ListInvitations(ctx, orgID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	views := make([]domain.InvitationView, 0, len(invs))
	for _, inv := range invs {
		views = append(views, domain.InvitationView{Invitation: inv, Status: inv.Status(now)})
	}
	return views, nil
}
