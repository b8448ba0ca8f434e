package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/catalog/pkg/auth"
	"github.com/platinummonkey/catalog/pkg/contextkeys"
	"github.com/platinummonkey/catalog/pkg/httputil"
	"github.com/platinummonkey/catalog/pkg/observability"
)

// Checker decides whether the acting user may perform an action
type Checker interface {
	CheckAccess(ctx context.Context, action string, c *auth.Context, data auth.DataDict) error
}

// DataFunc extracts the action's data dict from a request
type DataFunc func(r *http.Request) auth.DataDict

// Access gates routes on authorization actions
type Access struct {
	checker Checker
	model   auth.Model
}

// NewAccess creates an access gate that resolves users through model
func NewAccess(checker Checker, model auth.Model) *Access {
	return &Access{checker: checker, model: model}
}

// Require only lets the request through when action is authorized for the acting user.
// The checked auth context is stored on the request for the handler to reuse.
func (a *Access) Require(action string, data DataFunc) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			c := &auth.Context{
				User:  contextkeys.User(ctx),
				Model: a.model,
			}

			var dd auth.DataDict
			if data != nil {
				dd = data(r)
			}

			if err := a.checker.CheckAccess(ctx, action, c, dd); err != nil {
				logger := observability.FromContext(ctx).WithField("action", action)
				var denied *auth.NotAuthorized
				if errors.As(err, &denied) {
					logger.WithField("reason", denied.Msg).Info("Access denied")
				} else {
					logger.WithError(err).Error("Authorization check failed")
				}
				WriteError(w, err)
				return
			}

			ctx = contextkeys.WithAuthContext(ctx, c)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AuthContext returns the auth context stored by Require, or nil
func AuthContext(r *http.Request) *auth.Context {
	c, _ := r.Context().Value(contextkeys.AuthContextKey).(*auth.Context)
	return c
}

// RouteVars builds the data dict from mux path variables
func RouteVars(names ...string) DataFunc {
	return func(r *http.Request) auth.DataDict {
		vars := mux.Vars(r)
		dd := make(auth.DataDict, len(names))
		for _, name := range names {
			if v, ok := vars[name]; ok {
				dd[name] = v
			}
		}
		return dd
	}
}

// JSONBody decodes the request body as the data dict; an empty or invalid body yields an empty dict
func JSONBody(r *http.Request) auth.DataDict {
	dd := auth.DataDict{}
	if r.Body == nil {
		return dd
	}
	if err := json.NewDecoder(r.Body).Decode(&dd); err != nil {
		return auth.DataDict{}
	}
	return dd
}

// WriteError maps authorization errors to HTTP responses
func WriteError(w http.ResponseWriter, err error) {
	var denied *auth.NotAuthorized
	var unknown *auth.UnknownActionError
	switch {
	case errors.As(err, &denied):
		httputil.WriteActionError(w, http.StatusForbidden, denied.Error(), denied.Action)
	case errors.Is(err, auth.ErrNotFound):
		httputil.WriteErrorMessage(w, http.StatusNotFound, "not found")
	case errors.As(err, &unknown):
		httputil.WriteActionError(w, http.StatusInternalServerError, "unknown action", unknown.Action)
	default:
		httputil.WriteErrorMessage(w, http.StatusInternalServerError, "internal error")
	}
}
