package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"teamhub-backend/internal/domain"
	"teamhub-backend/internal/pkg/constants"

	"gorm.io/gorm"
)

// TxProcedures serves the stored-procedure surface in-process for databases
// without the Postgres functions (SQLite). Each call runs in one GORM
// transaction and guards state changes with conditional updates, so two
// concurrent redemptions of one token cannot both succeed.
type TxProcedures struct {
	DB  *gorm.DB
	Now func() time.Time
}

func (p *TxProcedures) Call(ctx context.Context, fn string, args Args, out interface{}) error {
	var result interface{}
	err := p.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		switch fn {
		case ProcCreateOrganization:
			result, err = p.createOrganization(tx, args)
		case ProcInviteOrgMember:
			result, err = p.inviteOrgMember(tx, args)
		case ProcValidateInvitationToken:
			result, err = p.validateInvitationToken(tx, args)
		case ProcRevokeInvitation:
			result, err = p.revokeInvitation(tx, args)
		case ProcProcessInvitation:
			result, err = p.processInvitation(tx, args)
		default:
			err = fmt.Errorf("%w: %s", ErrUnknownProcedure, fn)
		}
		return err
	})
	if err != nil {
		return err
	}
	return assign(out, result)
}

func (p *TxProcedures) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now().UTC()
}

// EnsureRole looks up the (scope, type) role, creating it on first use.
func EnsureRole(tx *gorm.DB, scope, roleType string) (*domain.Role, error) {
	if !constants.IsValidScope(scope) || !constants.IsValidRole(roleType) {
		return nil, fmt.Errorf("%w: role %s/%s", ErrInvalidArgument, scope, roleType)
	}
	var role domain.Role
	err := tx.Where(domain.Role{Scope: scope, Type: roleType}).FirstOrCreate(&role).Error
	if IsUniqueViolation(err) {
		err = tx.Where("scope = ? AND type = ?", scope, roleType).First(&role).Error
	}
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (p *TxProcedures) createOrganization(tx *gorm.DB, args Args) (CreateOrganizationResult, error) {
	name := strings.TrimSpace(args.str("p_name"))
	userID := args.str("p_user_id")
	if name == "" || userID == "" {
		return CreateOrganizationResult{}, fmt.Errorf("%w: organization name and user are required", ErrInvalidArgument)
	}
	teamName := strings.TrimSpace(args.str("p_team_name"))
	if teamName == "" {
		teamName = "General"
	}

	org := domain.Organization{Name: name}
	if err := tx.Create(&org).Error; err != nil {
		return CreateOrganizationResult{}, err
	}
	team := domain.Team{OrganizationID: org.ID, Name: teamName, IsDefault: true}
	if err := tx.Create(&team).Error; err != nil {
		return CreateOrganizationResult{}, err
	}
	orgAdmin, err := EnsureRole(tx, constants.ScopeOrganization, constants.Admin)
	if err != nil {
		return CreateOrganizationResult{}, err
	}
	teamAdmin, err := EnsureRole(tx, constants.ScopeTeam, constants.Admin)
	if err != nil {
		return CreateOrganizationResult{}, err
	}
	member := domain.Membership{
		OrganizationID: org.ID,
		TeamID:         team.ID,
		UserID:         userID,
		Email:          strings.ToLower(args.str("p_email")),
		OrgRoleID:      orgAdmin.ID,
		TeamRoleID:     teamAdmin.ID,
	}
	if err := tx.Create(&member).Error; err != nil {
		return CreateOrganizationResult{}, err
	}
	return CreateOrganizationResult{OrganizationID: org.ID, TeamID: team.ID}, nil
}

func (p *TxProcedures) inviteOrgMember(tx *gorm.DB, args Args) (string, error) {
	orgID := args.str("p_organization_id")
	var org domain.Organization
	if err := tx.Where("id = ?", orgID).First(&org).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("%w: organization %s not found", ErrNoRows, orgID)
		}
		return "", err
	}
	teamID := args.strPtr("p_team_id")
	if teamID != nil {
		var team domain.Team
		if err := tx.Where("id = ? AND organization_id = ?", *teamID, orgID).First(&team).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return "", fmt.Errorf("%w: team %s not found", ErrNoRows, *teamID)
			}
			return "", err
		}
	}
	expiresAt, _ := args["p_expires_at"].(time.Time)
	inv := domain.Invitation{
		Token:          args.str("p_token"),
		OrganizationID: orgID,
		TeamID:         teamID,
		Email:          strings.ToLower(args.str("p_email")),
		OrgRole:        args.str("p_org_role"),
		TeamRole:       args.str("p_team_role"),
		InvitedBy:      args.str("p_invited_by"),
		ExpiresAt:      expiresAt.UTC(),
		CreatedAt:      p.now(),
	}
	if !constants.IsValidRole(inv.OrgRole) || !constants.IsValidRole(inv.TeamRole) {
		return "", fmt.Errorf("%w: unknown role", ErrInvalidArgument)
	}
	if err := tx.Create(&inv).Error; err != nil {
		return "", err
	}
	return inv.Token, nil
}

func (p *TxProcedures) validateInvitationToken(tx *gorm.DB, args Args) (InvitationTokenRow, error) {
	var inv domain.Invitation
	if err := tx.Where("token = ?", args.str("p_token")).First(&inv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return InvitationTokenRow{}, ErrNoRows
		}
		return InvitationTokenRow{}, err
	}
	var org domain.Organization
	if err := tx.Where("id = ?", inv.OrganizationID).First(&org).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return InvitationTokenRow{}, ErrNoRows
		}
		return InvitationTokenRow{}, err
	}
	return InvitationTokenRow{
		OrganizationID:   inv.OrganizationID,
		OrganizationName: org.Name,
		TeamID:           inv.TeamID,
		Email:            inv.Email,
		OrgRole:          inv.OrgRole,
		TeamRole:         inv.TeamRole,
		ExpiresAt:        inv.ExpiresAt,
		ConsumedAt:       inv.ConsumedAt,
		RevokedAt:        inv.RevokedAt,
	}, nil
}

// pendingInvitation loads the invitation and reports whether it is still pending.
func (p *TxProcedures) pendingInvitation(tx *gorm.DB, token string) (*domain.Invitation, bool, error) {
	var inv domain.Invitation
	if err := tx.Where("token = ?", token).First(&inv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &inv, inv.Status(p.now()) == domain.InvitationPending, nil
}

func (p *TxProcedures) revokeInvitation(tx *gorm.DB, args Args) (bool, error) {
	token := args.str("p_token")
	_, pending, err := p.pendingInvitation(tx, token)
	if err != nil || !pending {
		return false, err
	}
	res := tx.Model(&domain.Invitation{}).
		Where("token = ? AND consumed_at IS NULL AND revoked_at IS NULL", token).
		Update("revoked_at", p.now())
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (p *TxProcedures) processInvitation(tx *gorm.DB, args Args) (bool, error) {
	token := args.str("p_token")
	userID := args.str("p_user_id")
	inv, pending, err := p.pendingInvitation(tx, token)
	if err != nil || !pending {
		return false, err
	}

	res := tx.Model(&domain.Invitation{}).
		Where("token = ? AND consumed_at IS NULL AND revoked_at IS NULL", token).
		Updates(map[string]interface{}{"consumed_at": p.now(), "consumed_by": userID})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected != 1 {
		return false, nil
	}

	teamID := ""
	if inv.TeamID != nil {
		teamID = *inv.TeamID
	} else {
		var team domain.Team
		if err := tx.Where("organization_id = ? AND is_default = ?", inv.OrganizationID, true).First(&team).Error; err != nil {
			return false, err
		}
		teamID = team.ID
	}
	orgRole, err := EnsureRole(tx, constants.ScopeOrganization, inv.OrgRole)
	if err != nil {
		return false, err
	}
	teamRole, err := EnsureRole(tx, constants.ScopeTeam, inv.TeamRole)
	if err != nil {
		return false, err
	}
	member := domain.Membership{
		OrganizationID: inv.OrganizationID,
		TeamID:         teamID,
		UserID:         userID,
		Email:          inv.Email,
		OrgRoleID:      orgRole.ID,
		TeamRoleID:     teamRole.ID,
	}
	if err := tx.Create(&member).Error; err != nil {
		return false, err
	}
	return true, nil
}

func (a Args) str(key string) string {
	switch v := a[key].(type) {
	case string:
		return v
	case *string:
		if v != nil {
			return *v
		}
	}
	return ""
}

func (a Args) strPtr(key string) *string {
	switch v := a[key].(type) {
	case string:
		if v != "" {
			return &v
		}
	case *string:
		if v != nil && *v != "" {
			return v
		}
	}
	return nil
}
