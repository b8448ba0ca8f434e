package defaults

import (
	"context"
	"fmt"

	"github.com/platinummonkey/catalog/pkg/auth"
	"github.com/platinummonkey/catalog/pkg/config"
	"github.com/platinummonkey/catalog/pkg/rbac"
)

// Group names, in the order the resolver loads them
const (
	GroupGet    = "get"
	GroupCreate = "create"
	GroupUpdate = "update"
	GroupDelete = "delete"
)

// Groups returns the default auth function groups configured by cfg
func Groups(cfg config.AuthConfig) []auth.FunctionGroup {
	return []auth.FunctionGroup{
		{Name: GroupGet, Functions: getFunctions(cfg)},
		{Name: GroupCreate, Functions: createFunctions(cfg)},
		{Name: GroupUpdate, Functions: updateFunctions(cfg)},
		{Name: GroupDelete, Functions: deleteFunctions(cfg)},
	}
}

func allow(context.Context, *auth.Context, auth.DataDict) (auth.Result, error) {
	return auth.Allow(), nil
}

func userName(c *auth.Context) string {
	return c.User
}

// packageFor returns the dataset the check is about: the one on the context, or data["id"]
func packageFor(ctx context.Context, c *auth.Context, data auth.DataDict, key string) (*auth.Package, error) {
	if c.Package != nil {
		return c.Package, nil
	}
	id := data.String(key)
	if id == "" || c.Model == nil {
		return nil, fmt.Errorf("dataset %q: %w", id, auth.ErrNotFound)
	}
	pkg, err := c.Model.PackageByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("dataset %q: %w", id, err)
	}
	return pkg, nil
}

// groupFor returns the group the check is about: the one on the context, or data[key]
func groupFor(ctx context.Context, c *auth.Context, data auth.DataDict, key string) (*auth.Group, error) {
	if c.Group != nil {
		return c.Group, nil
	}
	id := data.String(key)
	if id == "" || c.Model == nil {
		return nil, fmt.Errorf("group %q: %w", id, auth.ErrNotFound)
	}
	g, err := c.Model.GroupByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("group %q: %w", id, err)
	}
	return g, nil
}

func hasPermission(ctx context.Context, c *auth.Context, groupID, permission string) (bool, error) {
	return auth.HasUserPermissionForGroupOrOrg(ctx, c.Model, groupID, userName(c), permission)
}

// isCreator reports whether the acting user created pkg
func isCreator(ctx context.Context, c *auth.Context, pkg *auth.Package) (bool, error) {
	if pkg.CreatorUserID == "" {
		return false, nil
	}
	u, err := auth.ContextUser(ctx, c)
	if err != nil || u == nil {
		return false, err
	}
	return u.ID == pkg.CreatorUserID, nil
}

// checkGroupAuth verifies the user may add datasets to every group listed in data["groups"]
func checkGroupAuth(ctx context.Context, c *auth.Context, data auth.DataDict) (bool, error) {
	for _, id := range groupIDs(data["groups"]) {
		g, err := groupFor(ctx, &auth.Context{Model: c.Model}, auth.DataDict{"id": id}, "id")
		if err != nil {
			return false, err
		}
		ok, err := hasPermission(ctx, c, g.ID, rbac.PermissionManageGroup)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func groupIDs(v any) []string {
	switch groups := v.(type) {
	case []string:
		return groups
	case []any:
		ids := make([]string, 0, len(groups))
		for _, g := range groups {
			switch g := g.(type) {
			case string:
				ids = append(ids, g)
			case map[string]any:
				if id, ok := g["id"].(string); ok {
					ids = append(ids, id)
				} else if name, ok := g["name"].(string); ok {
					ids = append(ids, name)
				}
			}
		}
		return ids
	default:
		return nil
	}
}
