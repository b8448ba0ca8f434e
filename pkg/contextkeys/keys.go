// Package contextkeys provides the context keys shared by the HTTP layer.
//
// All request-scoped values set by middleware are defined here so handlers and
// middleware agree on their types.
package contextkeys

import "context"

// Key is the type for context keys to prevent collisions
type Key string

const (
	// UserKey contains the acting user name (string).
	// Set by middleware.Identity; empty for anonymous requests.
	UserKey Key = "user"

	// RequestIDKey contains the request ID string (UUID).
	// Set by middleware.Identity.
	RequestIDKey Key = "request_id"

	// AuthContextKey contains the *auth.Context of a request that passed an access gate.
	// Set by middleware.Access; handlers reuse its resolved user object.
	AuthContextKey Key = "auth_context"
)

// WithUser records the acting user name
func WithUser(ctx context.Context, user string) context.Context {
	return context.WithValue(ctx, UserKey, user)
}

// User returns the acting user name, or "" for anonymous requests
func User(ctx context.Context) string {
	user, _ := ctx.Value(UserKey).(string)
	return user
}

// WithRequestID adds request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// RequestID retrieves the request ID from context
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// WithAuthContext stores the authorization context; the value is an *auth.Context
func WithAuthContext(ctx context.Context, authCtx any) context.Context {
	return context.WithValue(ctx, AuthContextKey, authCtx)
}
