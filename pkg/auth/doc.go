// Package auth resolves action names to authorization functions and runs them.
//
// # Overview
//
// Every action in the catalog ("dataset_create", "group_update", ...) has exactly one
// resolved authorization function. The Resolver builds the action table lazily from three
// sources, in order:
//
//  1. Default function groups (get, create, update, delete), supplied by the caller.
//  2. Plain functions contributed by extensions, in plugin load order. Two extensions
//     contributing the same action is a *ConflictError.
//  3. Chained functions contributed by extensions, in plugin load order. Each receives
//     the function it overrides as next:
//
//	auth.Chain(func(ctx context.Context, next auth.Func, c *auth.Context, data auth.DataDict) (auth.Result, error) {
//		if archived(data.String("owner_org")) {
//			return auth.Deny("organization is archived"), nil
//		}
//		return next(ctx, c, data)
//	})
//
// A chained function for an action nobody defined is a *ChainTargetError.
//
// # Checking access
//
//	err := resolver.CheckAccess(ctx, "package_create", &auth.Context{User: "alice", Model: model}, data)
//	var denied *auth.NotAuthorized
//	if errors.As(err, &denied) {
//		// 403
//	}
//
// IsAuthorized applies, in order: IgnoreAuth, name normalization ("package" becomes
// "dataset", "licence" becomes "license"), lookup, deleted-user denial, the sysadmin
// bypass (skipped for handlers built with CheckSysadmins), the anonymous-user rule
// (skipped for handlers built with AllowAnonymous), and finally the function itself.
//
// The table is rebuilt only after Reset; there is no partial invalidation.
package auth
