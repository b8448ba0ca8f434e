package defaults

import (
	"context"

	"github.com/platinummonkey/catalog/pkg/auth"
	"github.com/platinummonkey/catalog/pkg/config"
	"github.com/platinummonkey/catalog/pkg/rbac"
)

func createFunctions(cfg config.AuthConfig) map[string]*auth.Handler {
	return map[string]*auth.Handler{
		"dataset_create":      auth.Define(datasetCreate(cfg), auth.AllowAnonymous()),
		"resource_create":     auth.Define(resourceModify),
		"group_create":        auth.Define(groupCreate(cfg.UserCreateGroups, "groups")),
		"organization_create": auth.Define(groupCreate(cfg.UserCreateOrganizations, "organizations")),
		"user_create":         auth.Define(userCreate(cfg), auth.AllowAnonymous()),

		"member_create":              auth.Define(memberCreate),
		"group_member_create":        auth.Define(groupMemberModify),
		"organization_member_create": auth.Define(groupMemberModify),
	}
}

// datasetCreate decides whether the user may create datasets at all, may add them to the
// listed groups, and may add them to the requested owner organization
func datasetCreate(cfg config.AuthConfig) auth.Func {
	return func(ctx context.Context, c *auth.Context, data auth.DataDict) (auth.Result, error) {
		user := userName(c)
		unownedAllowed := cfg.CreateDatasetIfNotInOrganization && cfg.CreateUnownedDataset

		var canCreate bool
		if c.IsAnonymous() {
			canCreate = cfg.AnonCreateDataset && unownedAllowed
		} else {
			canCreate = unownedAllowed
			if !canCreate {
				ok, err := auth.HasUserPermissionForSomeOrg(ctx, c.Model, user, rbac.PermissionCreateDataset)
				if err != nil {
					return auth.Result{}, err
				}
				canCreate = ok
			}
		}
		if !canCreate {
			return auth.Deny("User %s not authorized to create packages", user), nil
		}

		ok, err := checkGroupAuth(ctx, c, data)
		if err != nil {
			return auth.Result{}, err
		}
		if !ok {
			return auth.Deny("User %s not authorized to edit these groups", user), nil
		}

		if owner := data.String("owner_org"); owner != "" {
			org, err := groupFor(ctx, &auth.Context{Model: c.Model}, auth.DataDict{"id": owner}, "id")
			if err != nil {
				return auth.Result{}, err
			}
			ok, err := hasPermission(ctx, c, org.ID, rbac.PermissionCreateDataset)
			if err != nil {
				return auth.Result{}, err
			}
			if !ok {
				return auth.Deny("User %s not authorized to add dataset to this organization", user), nil
			}
		}

		return auth.Allow(), nil
	}
}

// resourceModify requires update permission on the parent dataset
func resourceModify(ctx context.Context, c *auth.Context, data auth.DataDict) (auth.Result, error) {
	pkg, err := packageFor(ctx, c, data, "package_id")
	if err != nil {
		return auth.Result{}, err
	}
	return modifyDataset(ctx, c, pkg, rbac.PermissionUpdateDataset, "edit")
}

func groupCreate(enabled bool, kind string) auth.Func {
	return func(ctx context.Context, c *auth.Context, data auth.DataDict) (auth.Result, error) {
		if !enabled {
			return auth.Deny("User %s not authorized to create %s", userName(c), kind), nil
		}
		return auth.Allow(), nil
	}
}

func userCreate(cfg config.AuthConfig) auth.Func {
	return func(ctx context.Context, c *auth.Context, data auth.DataDict) (auth.Result, error) {
		viaAPI, _ := c.Extra["api"].(bool)
		if viaAPI && cfg.CreateUserViaAPI || !viaAPI && cfg.CreateUserViaWeb {
			return auth.Allow(), nil
		}
		return auth.Deny("User %s not authorized to create users", userName(c)), nil
	}
}

// memberCreate adds an object to a group: manage_group for groups, update for organizations
func memberCreate(ctx context.Context, c *auth.Context, data auth.DataDict) (auth.Result, error) {
	g, err := groupFor(ctx, c, data, "id")
	if err != nil {
		return auth.Result{}, err
	}
	permission := rbac.PermissionManageGroup
	if g.IsOrganization {
		permission = "update"
	}
	ok, err := hasPermission(ctx, c, g.ID, permission)
	if err != nil {
		return auth.Result{}, err
	}
	if !ok {
		return auth.Deny("User %s not authorized to edit group %s", userName(c), g.ID), nil
	}
	return auth.Allow(), nil
}

// groupMemberModify requires the membership permission in the group
func groupMemberModify(ctx context.Context, c *auth.Context, data auth.DataDict) (auth.Result, error) {
	g, err := groupFor(ctx, c, data, "id")
	if err != nil {
		return auth.Result{}, err
	}
	ok, err := hasPermission(ctx, c, g.ID, rbac.PermissionMembership)
	if err != nil {
		return auth.Result{}, err
	}
	if !ok {
		return auth.Deny("User %s not authorized to edit members of group %s", userName(c), g.ID), nil
	}
	return auth.Allow(), nil
}
