package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/platinummonkey/catalog/pkg/contextkeys"
	"github.com/platinummonkey/catalog/pkg/observability"
)

const (
	// DefaultUserHeader carries the user name asserted by the fronting proxy
	DefaultUserHeader = "X-Catalog-User"
	// RequestIDHeader is echoed back on every response
	RequestIDHeader = "X-Request-ID"
)

// Identity attaches the request ID, the acting user and a request logger to the context.
//
// Authentication happens upstream: the proxy in front of the catalog asserts the
// user name in header. A missing header means an anonymous request.
func Identity(header string, logger *observability.Logger) mux.MiddlewareFunc {
	if header == "" {
		header = DefaultUserHeader
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			user := strings.TrimSpace(r.Header.Get(header))

			ctx := contextkeys.WithRequestID(r.Context(), requestID)
			ctx = contextkeys.WithUser(ctx, user)
			ctx = observability.WithRequestID(ctx, requestID)
			ctx = observability.WithUser(ctx, user)
			ctx = observability.WithLogger(ctx, logger)

			w.Header().Set(RequestIDHeader, requestID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
