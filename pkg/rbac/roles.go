package rbac

// Built-in role names
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RoleMember = "member"
)

// Permission names
const (
	PermissionAdmin         = "admin"
	PermissionMembership    = "membership"
	PermissionRead          = "read"
	PermissionCreateDataset = "create_dataset"
	PermissionUpdateDataset = "update_dataset"
	PermissionDeleteDataset = "delete_dataset"
	PermissionManageGroup   = "manage_group"
)

// Role is a membership role and the permissions it grants
type Role struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
}

// builtInRoles is declaration ordered; the order only matters for display
var builtInRoles = []Role{
	{
		Name:        RoleAdmin,
		DisplayName: "Admin",
		Description: "Can manage members and edit all datasets of the organization",
		Permissions: []string{PermissionAdmin, PermissionMembership},
	},
	{
		Name:        RoleEditor,
		DisplayName: "Editor",
		Description: "Can add, edit and delete datasets of the organization",
		Permissions: []string{
			PermissionRead,
			PermissionDeleteDataset,
			PermissionCreateDataset,
			PermissionUpdateDataset,
			PermissionManageGroup,
		},
	},
	{
		Name:        RoleMember,
		DisplayName: "Member",
		Description: "Can view the organization's private datasets",
		Permissions: []string{PermissionRead, PermissionManageGroup},
	},
}

// BuiltInRoles returns all role definitions in declaration order
func BuiltInRoles() []Role {
	out := make([]Role, len(builtInRoles))
	for i, r := range builtInRoles {
		r.Permissions = append([]string(nil), r.Permissions...)
		out[i] = r
	}
	return out
}

// Roles returns the role names in declaration order
func Roles() []string {
	names := make([]string, len(builtInRoles))
	for i, r := range builtInRoles {
		names[i] = r.Name
	}
	return names
}

// IsValidRole reports whether role is a built-in role
func IsValidRole(role string) bool {
	return find(role) != nil
}

// PermissionsOf returns the permissions granted by role, nil for unknown roles
func PermissionsOf(role string) []string {
	r := find(role)
	if r == nil {
		return nil
	}
	return append([]string(nil), r.Permissions...)
}

// RolesGranting returns every role that satisfies permission, in declaration order
func RolesGranting(permission string) []string {
	var roles []string
	for i := range builtInRoles {
		if grants(&builtInRoles[i], permission) {
			roles = append(roles, builtInRoles[i].Name)
		}
	}
	return roles
}

// Satisfies reports whether role grants permission. A role holding "admin" satisfies everything.
func Satisfies(role, permission string) bool {
	r := find(role)
	return r != nil && grants(r, permission)
}

func grants(r *Role, permission string) bool {
	for _, p := range r.Permissions {
		if p == permission || p == PermissionAdmin {
			return true
		}
	}
	return false
}

func find(role string) *Role {
	for i := range builtInRoles {
		if builtInRoles[i].Name == role {
			return &builtInRoles[i]
		}
	}
	return nil
}
