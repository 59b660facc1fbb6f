package database

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Stored procedures. Each runs as a single transaction on the server.
const (
	ProcCreateOrganization      = "create_organization"
	ProcInviteOrgMember         = "invite_org_member"
	ProcValidateInvitationToken = "validate_invitation_token"
	ProcRevokeInvitation        = "revoke_invitation"
	ProcProcessInvitation       = "process_invitation"
)

var procedures = map[string]bool{
	ProcCreateOrganization:      true,
	ProcInviteOrgMember:         true,
	ProcValidateInvitationToken: true,
	ProcRevokeInvitation:        true,
	ProcProcessInvitation:       true,
}

var (
	// ErrNoRows means the procedure found nothing to return or a referenced row is missing.
	ErrNoRows = errors.New("database: no rows")
	// ErrInvalidArgument means the procedure rejected its arguments.
	ErrInvalidArgument = errors.New("database: invalid argument")
	// ErrUnknownProcedure means fn is not one of the known procedures.
	ErrUnknownProcedure = errors.New("database: unknown procedure")
)

// Args are named procedure arguments (p_token, p_user_id, ...).
type Args map[string]interface{}

// RPC invokes a named stored procedure and scans its result into out.
type RPC interface {
	Call(ctx context.Context, fn string, args Args, out interface{}) error
}

// CreateOrganizationResult is the row returned by create_organization.
type CreateOrganizationResult struct {
	OrganizationID string
	TeamID         string
}

// InvitationTokenRow is the row returned by validate_invitation_token.
type InvitationTokenRow struct {
	OrganizationID   string
	OrganizationName string
	TeamID           *string
	Email            string
	OrgRole          string
	TeamRole         string
	ExpiresAt        time.Time
	ConsumedAt       *time.Time
	RevokedAt        *time.Time
}

// SQLRPC calls Postgres functions with named notation: fn(p_a => $1, ...).
type SQLRPC struct {
	DB *gorm.DB
}

func (r *SQLRPC) Call(ctx context.Context, fn string, args Args, out interface{}) error {
	if !procedures[fn] {
		return fmt.Errorf("%w: %s", ErrUnknownProcedure, fn)
	}
	names := make([]string, 0, len(args))
	for name := range args {
		names = append(names, name)
	}
	sort.Strings(names)
	params := make([]string, len(names))
	for i, name := range names {
		params[i] = fmt.Sprintf("%s => @%s", name, name)
	}
	query := fmt.Sprintf("SELECT * FROM %s(%s)", fn, strings.Join(params, ", "))

	res := r.DB.WithContext(ctx).Raw(query, map[string]interface{}(args)).Scan(out)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNoRows
	}
	return nil
}

func translate(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "P0002":
			return fmt.Errorf("%w: %s", ErrNoRows, pgErr.Message)
		case "22023", "23514":
			return fmt.Errorf("%w: %s", ErrInvalidArgument, pgErr.Message)
		}
	}
	return err
}

// IsUniqueViolation reports whether err comes from a unique constraint.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func assign(out interface{}, result interface{}) error {
	dst := reflect.ValueOf(out)
	if dst.Kind() != reflect.Ptr || dst.IsNil() {
		return fmt.Errorf("database: out must be a non-nil pointer, got %T", out)
	}
	src := reflect.ValueOf(result)
	if !src.IsValid() || !src.Type().AssignableTo(dst.Elem().Type()) {
		return fmt.Errorf("database: cannot assign %T to %T", result, out)
	}
	dst.Elem().Set(src)
	return nil
}
