package defaults

import (
	"context"

	"github.com/platinummonkey/catalog/pkg/auth"
	"github.com/platinummonkey/catalog/pkg/config"
	"github.com/platinummonkey/catalog/pkg/rbac"
)

func getFunctions(cfg config.AuthConfig) map[string]*auth.Handler {
	public := auth.AllowAnonymous()

	return map[string]*auth.Handler{
		"site_read":         auth.Define(allow, public),
		"dataset_list":      auth.Define(allow, public),
		"dataset_search":    auth.Define(allow, public),
		"group_list":        auth.Define(allow, public),
		"organization_list": auth.Define(allow, public),
		"license_list":      auth.Define(allow, public),
		"tag_list":          auth.Define(allow, public),
		"user_list":         auth.Define(allow, public),
		"member_roles_list": auth.Define(allow, public),

		"dataset_show":  auth.Define(datasetShow, public),
		"resource_show": auth.Define(resourceShow, public),
		"group_show":    auth.Define(groupShow, public),
		"member_list":   auth.Define(groupShow, public),
		"user_show":     auth.Define(userShow(cfg), public),

		"organization_show":          auth.Define(groupShow, public),
		"organization_list_for_user": auth.Define(allow),
		"dashboard_read":             auth.Define(allow),
	}
}

// datasetShow lets anyone read active public datasets; private or inactive ones need read
// permission in the owner organization or authorship
func datasetShow(ctx context.Context, c *auth.Context, data auth.DataDict) (auth.Result, error) {
	pkg, err := packageFor(ctx, c, data, "id")
	if err != nil {
		return auth.Result{}, err
	}
	return readDataset(ctx, c, pkg)
}

func resourceShow(ctx context.Context, c *auth.Context, data auth.DataDict) (auth.Result, error) {
	pkg, err := packageFor(ctx, c, data, "package_id")
	if err != nil {
		return auth.Result{}, err
	}
	return readDataset(ctx, c, pkg)
}

func readDataset(ctx context.Context, c *auth.Context, pkg *auth.Package) (auth.Result, error) {
	if !pkg.Private && (pkg.State == "" || pkg.State == auth.StateActive) {
		return auth.Allow(), nil
	}

	ok, err := hasPermission(ctx, c, pkg.OwnerOrg, rbac.PermissionRead)
	if err != nil {
		return auth.Result{}, err
	}
	if !ok {
		ok, err = isCreator(ctx, c, pkg)
		if err != nil {
			return auth.Result{}, err
		}
	}
	if !ok {
		return auth.Deny("User %s not authorized to read package %s", userName(c), pkg.ID), nil
	}
	return auth.Allow(), nil
}

func groupShow(ctx context.Context, c *auth.Context, data auth.DataDict) (auth.Result, error) {
	g, err := groupFor(ctx, c, data, "id")
	if err != nil {
		return auth.Result{}, err
	}
	if g.State == "" || g.State == auth.StateActive {
		return auth.Allow(), nil
	}

	ok, err := hasPermission(ctx, c, g.ID, rbac.PermissionRead)
	if err != nil {
		return auth.Result{}, err
	}
	if !ok {
		return auth.Deny("User %s not authorized to read group %s", userName(c), g.ID), nil
	}
	return auth.Allow(), nil
}

func userShow(cfg config.AuthConfig) auth.Func {
	return func(ctx context.Context, c *auth.Context, data auth.DataDict) (auth.Result, error) {
		if cfg.PublicUserDetails {
			return auth.Allow(), nil
		}
		u, err := auth.ContextUser(ctx, c)
		if err != nil {
			return auth.Result{}, err
		}
		if u == nil {
			return auth.Deny("Must be logged in to view user details"), nil
		}
		return auth.Allow(), nil
	}
}
