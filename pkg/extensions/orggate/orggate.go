// Package orggate refuses dataset changes that target an archived organization.
//
// An organization is archived when its "archived" extra is "true". The plugin chains
// package_create and package_owner_org_update, so the default checks only run for
// organizations that are still open. It also serves routes to archive and reopen an
// organization, gated on organization_update.
package orggate

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/catalog/pkg/auth"
	"github.com/platinummonkey/catalog/pkg/httputil"
	"github.com/platinummonkey/catalog/pkg/middleware"
	"github.com/platinummonkey/catalog/pkg/plugins"
)

// Name is the plugin name used in the plugin list
const Name = "orggate"

// ArchivedExtra is the organization extra holding the archived flag
const ArchivedExtra = "archived"

// ExtrasWriter updates organization extras
type ExtrasWriter interface {
	UpdateGroupExtras(ctx context.Context, groupID string, extras map[string]string) error
}

// groupInvalidator is implemented by caching models
type groupInvalidator interface {
	InvalidateGroup(id string)
}

// Plugin is the orggate extension
type Plugin struct {
	access *middleware.Access
	model  auth.Model
	writer ExtrasWriter
	log    *logrus.Logger
}

// New creates the plugin. access, model and writer are only needed by the routes and may be nil.
func New(access *middleware.Access, model auth.Model, writer ExtrasWriter, log *logrus.Logger) *Plugin {
	if log == nil {
		log = logrus.New()
	}
	return &Plugin{access: access, model: model, writer: writer, log: log}
}

func (p *Plugin) Name() string { return Name }

func (p *Plugin) Interfaces() []plugins.Declaration {
	if p.access == nil || p.writer == nil {
		return plugins.Implements(plugins.IAuthFunctions)
	}
	return plugins.Implements(plugins.IAuthFunctions, plugins.IRoutes)
}

// AuthFunctions chains the dataset actions that place a dataset in an organization
func (p *Plugin) AuthFunctions() map[string]*auth.Handler {
	return map[string]*auth.Handler{
		"package_create":           auth.Chain(p.gate("owner_org"), auth.AllowAnonymous()),
		"package_owner_org_update": auth.Chain(p.gate("organization_id")),
	}
}

// gate denies when the organization named by data[key] is archived, otherwise calls through
func (p *Plugin) gate(key string) auth.ChainedFunc {
	return func(ctx context.Context, next auth.Func, c *auth.Context, data auth.DataDict) (auth.Result, error) {
		orgID := data.String(key)
		if orgID == "" || c.Model == nil {
			return next(ctx, c, data)
		}

		org, err := c.Model.GroupByID(ctx, orgID)
		if errors.Is(err, auth.ErrNotFound) {
			return next(ctx, c, data)
		}
		if err != nil {
			return auth.Result{}, err
		}

		if IsArchived(org) {
			p.log.WithFields(logrus.Fields{
				"organization": org.Name,
				"user":         c.User,
			}).Debug("Refusing dataset change in archived organization")
			return auth.Deny("Organization %s is archived", org.Name), nil
		}
		return next(ctx, c, data)
	}
}

// IsArchived reports whether org carries the archived flag
func IsArchived(org *auth.Group) bool {
	if org == nil || !org.IsOrganization {
		return false
	}
	archived, _ := strconv.ParseBool(org.Extras[ArchivedExtra])
	return archived
}

// RegisterRoutes adds PUT and DELETE /organization/{id}/archive
func (p *Plugin) RegisterRoutes(r *mux.Router) {
	gate := p.access.Require("organization_update", middleware.RouteVars("id"))
	r.Handle("/organization/{id}/archive", gate(p.setArchived(true))).Methods(http.MethodPut)
	r.Handle("/organization/{id}/archive", gate(p.setArchived(false))).Methods(http.MethodDelete)
}

func (p *Plugin) setArchived(archived bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		org, err := p.model.GroupByID(ctx, mux.Vars(r)["id"])
		if err == nil && !org.IsOrganization {
			err = fmt.Errorf("organization %q: %w", org.Name, auth.ErrNotFound)
		}
		if err != nil {
			middleware.WriteError(w, err)
			return
		}

		// Extras are replaced as a whole
		extras := maps.Clone(org.Extras)
		if extras == nil {
			extras = make(map[string]string)
		}
		extras[ArchivedExtra] = strconv.FormatBool(archived)
		if err := p.writer.UpdateGroupExtras(ctx, org.ID, extras); err != nil {
			middleware.WriteError(w, err)
			return
		}
		if cache, ok := p.model.(groupInvalidator); ok {
			cache.InvalidateGroup(org.ID)
			cache.InvalidateGroup(org.Name)
		}

		httputil.WriteSuccess(w, map[string]any{"organization": org.Name, "archived": archived})
	}
}
