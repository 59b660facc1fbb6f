package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllowedRole(t *testing.T) {
	assert.True(t, AllowedRole(InviteMember, Admin))
	assert.False(t, AllowedRole(InviteMember, Member))
	assert.True(t, AllowedRole(ViewOrganization, Member))
	assert.False(t, AllowedRole("unknown_permission", Admin))
}

func TestIsValidRole(t *testing.T) {
	assert.True(t, IsValidRole("admin"))
	assert.True(t, IsValidRole("member"))
	assert.False(t, IsValidRole("owner"))
	assert.False(t, IsValidRole(""))
}

func TestIsValidScope(t *testing.T) {
	assert.True(t, IsValidScope(ScopeOrganization))
	assert.True(t, IsValidScope(ScopeTeam))
	assert.False(t, IsValidScope("global"))
}
