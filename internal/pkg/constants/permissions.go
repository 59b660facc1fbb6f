package constants

const (
	ViewOrganization   = "view_organization"
	UpdateOrganization = "update_organization"
	ViewInvitations    = "view_invitations"
	InviteMember       = "invite_member"
	RevokeInvitation   = "revoke_invitation"
	RemoveMember       = "remove_member"
	ManageTeams        = "manage_teams"
	UploadAssets       = "upload_assets"
)

// PermissionRoles maps each permission to the organization roles allowed to perform it.
var PermissionRoles = map[string][]string{
	ViewOrganization:   {Member, Admin},
	UpdateOrganization: {Admin},
	ViewInvitations:    {Admin},
	InviteMember:       {Admin},
	RevokeInvitation:   {Admin},
	RemoveMember:       {Admin},
	ManageTeams:        {Admin},
	UploadAssets:       {Admin},
}

// AllowedRole returns true if role is in the list of allowed roles for the permission.
func AllowedRole(permission, role string) bool {
	roles, ok := PermissionRoles[permission]
	if !ok {
		return false
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
