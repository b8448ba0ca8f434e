// Package middleware provides the HTTP middleware of the catalog API.
//
// Identity attaches the request ID and the acting user asserted by the fronting
// proxy. Access gates a route on an authorization action:
//
//	access := middleware.NewAccess(core, model)
//	r := router.PathPrefix("/dataset/{id}").Subrouter()
//	r.Use(access.Require("package_update", middleware.RouteVars("id")))
//
// Denials answer 403 with the reason, missing entities 404 and any other failure 500.
package middleware
