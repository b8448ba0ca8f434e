package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/platinummonkey/catalog/pkg/rbac"
)

// LookupUser loads a user by name, returning nil (and no error) if it does not exist
func LookupUser(ctx context.Context, model Model, name string) (*User, error) {
	if name == "" || model == nil {
		return nil, nil
	}
	u, err := model.UserByName(ctx, name)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user %s: %w", name, err)
	}
	return u, nil
}

// ContextUser returns the acting user of c. The attached AuthUserObj is reused only when
// it is the user named by c.User; otherwise the name is looked up through the model.
func ContextUser(ctx context.Context, c *Context) (*User, error) {
	if c.User == "" {
		return nil, nil
	}
	if c.attached() {
		return c.AuthUserObj, nil
	}
	if c.missingUser == c.User {
		return nil, nil
	}
	return LookupUser(ctx, c.Model, c.User)
}

// IsSysadmin reports whether the named user exists and is a sysadmin
func IsSysadmin(ctx context.Context, model Model, name string) bool {
	u, err := LookupUser(ctx, model, name)
	if err != nil || u == nil {
		return false
	}
	return u.Sysadmin
}

// UsersRoleForGroupOrOrg returns the user's capacity in the group, or "" without membership
func UsersRoleForGroupOrOrg(ctx context.Context, model Model, groupID, userName string) (string, error) {
	if groupID == "" {
		return "", nil
	}
	u, err := LookupUser(ctx, model, userName)
	if err != nil || u == nil {
		return "", err
	}
	return model.Capacity(ctx, u.ID, groupID)
}

// HasUserPermissionForGroupOrOrg reports whether the user holds permission in the group,
// either through a member role or as a sysadmin
func HasUserPermissionForGroupOrOrg(ctx context.Context, model Model, groupID, userName, permission string) (bool, error) {
	if groupID == "" {
		return false, nil
	}
	u, err := LookupUser(ctx, model, userName)
	if err != nil || u == nil {
		return false, err
	}
	if u.Sysadmin {
		return true, nil
	}

	role, err := model.Capacity(ctx, u.ID, groupID)
	if err != nil {
		return false, err
	}
	return role != "" && rbac.Satisfies(role, permission), nil
}

// HasUserPermissionForSomeOrg reports whether the user holds permission in at least one organization
func HasUserPermissionForSomeOrg(ctx context.Context, model Model, userName, permission string) (bool, error) {
	u, err := LookupUser(ctx, model, userName)
	if err != nil || u == nil {
		return false, err
	}
	if u.Sysadmin {
		return true, nil
	}

	roles := rbac.RolesGranting(permission)
	if len(roles) == 0 {
		return false, nil
	}
	members, err := model.GroupsOfUser(ctx, u.ID, true)
	if err != nil {
		return false, err
	}
	for _, m := range members {
		for _, role := range roles {
			if m.Capacity == role {
				return true, nil
			}
		}
	}
	return false, nil
}

// HasUserPermissionForPackage checks permission against the dataset's owner organization
func HasUserPermissionForPackage(ctx context.Context, model Model, pkg *Package, userName, permission string) (bool, error) {
	if pkg == nil || pkg.OwnerOrg == "" {
		return false, nil
	}
	return HasUserPermissionForGroupOrOrg(ctx, model, pkg.OwnerOrg, userName, permission)
}
