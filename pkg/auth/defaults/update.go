package defaults

import (
	"context"

	"github.com/platinummonkey/catalog/pkg/auth"
	"github.com/platinummonkey/catalog/pkg/config"
	"github.com/platinummonkey/catalog/pkg/rbac"
)

func updateFunctions(cfg config.AuthConfig) map[string]*auth.Handler {
	return map[string]*auth.Handler{
		"dataset_update":           auth.Define(datasetUpdate),
		"dataset_owner_org_update": auth.Define(datasetOwnerOrgUpdate),
		"resource_update":          auth.Define(resourceModify),
		"group_update":             auth.Define(groupUpdate),
		"organization_update":      auth.Define(groupUpdate),
		"user_update":              auth.Define(userUpdate),
	}
}

func datasetUpdate(ctx context.Context, c *auth.Context, data auth.DataDict) (auth.Result, error) {
	pkg, err := packageFor(ctx, c, data, "id")
	if err != nil {
		return auth.Result{}, err
	}
	return modifyDataset(ctx, c, pkg, rbac.PermissionUpdateDataset, "edit")
}

// modifyDataset checks permission in the owner organization; unowned datasets can only be
// changed by their creator
func modifyDataset(ctx context.Context, c *auth.Context, pkg *auth.Package, permission, verb string) (auth.Result, error) {
	var (
		ok  bool
		err error
	)
	if pkg.OwnerOrg != "" {
		ok, err = hasPermission(ctx, c, pkg.OwnerOrg, permission)
	} else {
		ok, err = isCreator(ctx, c, pkg)
	}
	if err != nil {
		return auth.Result{}, err
	}
	if !ok {
		return auth.Deny("User %s not authorized to %s package %s", userName(c), verb, pkg.ID), nil
	}
	return auth.Allow(), nil
}

func datasetOwnerOrgUpdate(ctx context.Context, c *auth.Context, data auth.DataDict) (auth.Result, error) {
	org, err := groupFor(ctx, &auth.Context{Model: c.Model}, auth.DataDict{"id": data.String("organization_id")}, "id")
	if err != nil {
		return auth.Result{}, err
	}
	ok, err := hasPermission(ctx, c, org.ID, rbac.PermissionCreateDataset)
	if err != nil {
		return auth.Result{}, err
	}
	if !ok {
		return auth.Deny("User %s not authorized to move datasets into organization %s", userName(c), org.ID), nil
	}
	return auth.Allow(), nil
}

// groupUpdate requires the "update" permission, which only admins satisfy
func groupUpdate(ctx context.Context, c *auth.Context, data auth.DataDict) (auth.Result, error) {
	g, err := groupFor(ctx, c, data, "id")
	if err != nil {
		return auth.Result{}, err
	}
	ok, err := hasPermission(ctx, c, g.ID, "update")
	if err != nil {
		return auth.Result{}, err
	}
	if !ok {
		return auth.Deny("User %s not authorized to edit group %s", userName(c), g.ID), nil
	}
	return auth.Allow(), nil
}

// userUpdate lets users edit only themselves
func userUpdate(ctx context.Context, c *auth.Context, data auth.DataDict) (auth.Result, error) {
	u, err := auth.ContextUser(ctx, c)
	if err != nil {
		return auth.Result{}, err
	}
	target := data.String("id")
	if target == "" {
		target = data.String("name")
	}
	if u == nil || (target != u.ID && target != u.Name) {
		return auth.Deny("User %s not authorized to edit user %s", userName(c), target), nil
	}
	return auth.Allow(), nil
}
