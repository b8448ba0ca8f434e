package catalog

import (
	"context"
	"sync/atomic"

	"github.com/platinummonkey/catalog/pkg/auth"
	"github.com/platinummonkey/catalog/pkg/config"
	"github.com/platinummonkey/catalog/pkg/plugins"
)

var std atomic.Pointer[Core]

func init() {
	std.Store(New())
}

// Default returns the process-wide core
func Default() *Core {
	return std.Load()
}

// SetDefault replaces the process-wide core, for binaries that configure their own
func SetDefault(c *Core) {
	std.Store(c)
}

// Init runs the load phase of the process-wide core
func Init(cfg config.AuthConfig, loaded []plugins.Plugin, model auth.Model) error {
	return Default().Init(cfg, loaded, model)
}

// Reset clears the process-wide core
func Reset() {
	Default().Reset()
}

// PluginImplementations returns the plugins implementing iface, in load order
func PluginImplementations(iface string) []plugins.Plugin {
	return Default().PluginImplementations(iface)
}

// LookupTypePlugin returns the plugin handling key within category
func LookupTypePlugin(category, key string) plugins.Plugin {
	return Default().LookupTypePlugin(category, key)
}

// CheckAccess fails with *auth.NotAuthorized when action is denied
func CheckAccess(ctx context.Context, action string, authCtx *auth.Context, data auth.DataDict) error {
	return Default().CheckAccess(ctx, action, authCtx, data)
}

// IsSysadmin reports whether name is a sysadmin
func IsSysadmin(ctx context.Context, name string) bool {
	return Default().IsSysadmin(ctx, name)
}

// Satisfies reports whether role grants permission
func Satisfies(role, permission string) bool {
	return Default().Satisfies(role, permission)
}
