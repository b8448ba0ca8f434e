package defaults

import (
	"context"

	"github.com/platinummonkey/catalog/pkg/auth"
	"github.com/platinummonkey/catalog/pkg/config"
	"github.com/platinummonkey/catalog/pkg/rbac"
)

func deleteFunctions(cfg config.AuthConfig) map[string]*auth.Handler {
	return map[string]*auth.Handler{
		"dataset_delete":             auth.Define(datasetDelete),
		"resource_delete":            auth.Define(resourceModify),
		"group_delete":               auth.Define(groupDelete(cfg.UserDeleteGroups, "groups")),
		"organization_delete":        auth.Define(groupDelete(cfg.UserDeleteOrganizations, "organizations")),
		"user_delete":                auth.Define(userDelete),
		"member_delete":              auth.Define(memberCreate),
		"group_member_delete":        auth.Define(groupMemberModify),
		"organization_member_delete": auth.Define(groupMemberModify),
	}
}

func datasetDelete(ctx context.Context, c *auth.Context, data auth.DataDict) (auth.Result, error) {
	pkg, err := packageFor(ctx, c, data, "id")
	if err != nil {
		return auth.Result{}, err
	}
	return modifyDataset(ctx, c, pkg, rbac.PermissionDeleteDataset, "delete")
}

// groupDelete requires the config switch and the "delete" permission, which only admins satisfy
func groupDelete(enabled bool, kind string) auth.Func {
	return func(ctx context.Context, c *auth.Context, data auth.DataDict) (auth.Result, error) {
		if !enabled {
			return auth.Deny("User %s not authorized to delete %s", userName(c), kind), nil
		}
		g, err := groupFor(ctx, c, data, "id")
		if err != nil {
			return auth.Result{}, err
		}
		ok, err := hasPermission(ctx, c, g.ID, "delete")
		if err != nil {
			return auth.Result{}, err
		}
		if !ok {
			return auth.Deny("User %s not authorized to delete group %s", userName(c), g.ID), nil
		}
		return auth.Allow(), nil
	}
}

// userDelete is left to the sysadmin bypass
func userDelete(_ context.Context, c *auth.Context, _ auth.DataDict) (auth.Result, error) {
	return auth.Deny("User %s not authorized to delete users", userName(c)), nil
}
