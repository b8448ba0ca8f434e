// Package catalog wires the extension registry, the type bindings and the auth
// function resolver into the core the rest of the application calls.
//
// # Lifecycle
//
// Init is the load phase. It registers the loaded plugins in order, runs the type
// binding pass for datasets, groups and organizations, and builds the auth function
// table. Duplicate bindings, duplicate fallbacks and conflicting auth functions are
// returned from Init and must abort startup.
//
//	loaded, err := loader.Load(ctx, cfg.Plugins.Names)
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := catalog.Init(cfg.Auth, loaded, model); err != nil {
//		log.Fatal(err)
//	}
//
// Reset returns the core to its empty state. It exists for tests and must not run
// while requests are served.
//
// # Authorization
//
//	err := catalog.CheckAccess(ctx, "package_update", &auth.Context{User: "alice"}, auth.DataDict{"id": id})
//	var denied *auth.NotAuthorized
//	if errors.As(err, &denied) {
//		// 403
//	}
//
// IsSysadmin and Satisfies help decide what to render; they never replace CheckAccess.
package catalog
