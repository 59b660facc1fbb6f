package constants

// Role types. Organization-level and team-level roles share the same type
// names but are stored as separate rows, distinguished by scope.
const (
	Admin  = "admin"
	Member = "member"
)

// Role scopes.
const (
	ScopeOrganization = "organization"
	ScopeTeam         = "team"
)

// ValidRoles is the set of allowed role types (must match the roles.type check).
var ValidRoles = []string{Admin, Member}

// IsValidRole returns true if role is one of the allowed types.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}

// IsValidScope returns true if scope is organization or team.
func IsValidScope(scope string) bool {
	return scope == ScopeOrganization || scope == ScopeTeam
}
