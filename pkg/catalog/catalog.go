package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/catalog/pkg/auth"
	"github.com/platinummonkey/catalog/pkg/auth/defaults"
	"github.com/platinummonkey/catalog/pkg/config"
	"github.com/platinummonkey/catalog/pkg/plugins"
	"github.com/platinummonkey/catalog/pkg/rbac"
)

// ErrNotInitialized is returned by operations that need a completed load phase
var ErrNotInitialized = errors.New("catalog core is not initialized")

// Core owns the plugin registry, the type bindings and the auth function resolver.
//
// Init is the single load phase; afterwards every method is a read. Reset returns the
// core to its empty state so a test can load a different plugin set.
type Core struct {
	mu          sync.RWMutex
	initialized bool

	registry *plugins.Registry
	bindings *plugins.Bindings
	resolver *auth.Resolver
	model    auth.Model

	log      *logrus.Logger
	recorder auth.Recorder
}

// Option configures a Core
type Option func(*Core)

// WithLogger sets the logger shared by the registry, the bindings and the resolver
func WithLogger(log *logrus.Logger) Option {
	return func(c *Core) {
		c.log = log
	}
}

// WithRecorder sets the recorder receiving authorization check observations
func WithRecorder(rec auth.Recorder) Option {
	return func(c *Core) {
		c.recorder = rec
	}
}

// New creates an empty core
func New(opts ...Option) *Core {
	c := &Core{}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logrus.New()
	}

	c.registry = plugins.NewRegistry(c.log)
	c.bindings = plugins.NewBindings(c.log)
	return c
}

// Init runs the load phase: it registers loaded in order, runs the type binding pass of
// every category and builds the auth function table. Any error is a configuration error
// and leaves the core uninitialized.
func (c *Core) Init(cfg config.AuthConfig, loaded []plugins.Plugin, model auth.Model) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initialized {
		return fmt.Errorf("catalog core already initialized")
	}

	if err := c.load(cfg, loaded, model); err != nil {
		c.clear()
		return err
	}

	c.initialized = true
	c.log.WithFields(logrus.Fields{
		"plugins": len(loaded),
	}).Info("Catalog core initialized")
	return nil
}

func (c *Core) load(cfg config.AuthConfig, loaded []plugins.Plugin, model auth.Model) error {
	if err := c.registry.LoadAll(loaded); err != nil {
		return fmt.Errorf("failed to register plugins: %w", err)
	}

	passes := []struct {
		category string
		claims   []plugins.TypeClaim
	}{
		{plugins.CategoryDataset, plugins.DatasetClaims(c.registry)},
		{plugins.CategoryGroup, plugins.GroupClaims(c.registry, false)},
		{plugins.CategoryOrganization, plugins.GroupClaims(c.registry, true)},
	}
	for _, pass := range passes {
		if err := c.bindings.Setup(pass.category, pass.claims); err != nil {
			return fmt.Errorf("failed to bind %s types: %w", pass.category, err)
		}
	}

	opts := []auth.ResolverOption{auth.WithLogger(c.log)}
	if c.recorder != nil {
		opts = append(opts, auth.WithRecorder(c.recorder))
	}
	c.resolver = auth.NewResolver(defaults.Groups(cfg), c.authProviders, opts...)
	c.model = model

	// Build now so overlay conflicts abort startup instead of the first request
	if err := c.resolver.Build(); err != nil {
		return fmt.Errorf("failed to build auth functions: %w", err)
	}
	return nil
}

// authProviders adapts the IAuthFunctions implementers, in load order
func (c *Core) authProviders() []auth.Provider {
	impls := plugins.Implementations[plugins.AuthFunctionsProvider](c.registry, plugins.IAuthFunctions)
	providers := make([]auth.Provider, 0, len(impls))
	for _, p := range impls {
		providers = append(providers, p)
	}
	return providers
}

// Reset forgets every plugin, binding and auth function. Not safe while serving.
func (c *Core) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.clear()
	c.log.Debug("Catalog core reset")
}

func (c *Core) clear() {
	c.registry.Reset()
	c.bindings.Reset()
	if c.resolver != nil {
		c.resolver.Reset()
	}
	c.resolver = nil
	c.model = nil
	c.initialized = false
}

// Initialized reports whether the load phase completed
func (c *Core) Initialized() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.initialized
}

// Ready reports an error until the load phase completed and the auth table is usable
func (c *Core) Ready(ctx context.Context) error {
	r, err := c.authResolver()
	if err != nil {
		return err
	}
	return r.Build()
}

func (c *Core) authResolver() (*auth.Resolver, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.initialized {
		return nil, ErrNotInitialized
	}
	return c.resolver, nil
}

// Registry exposes the capability registry
func (c *Core) Registry() *plugins.Registry {
	return c.registry
}

// Resolver exposes the auth function resolver, or nil before Init
func (c *Core) Resolver() *auth.Resolver {
	r, _ := c.authResolver()
	return r
}

// Model returns the domain model passed to Init
func (c *Core) Model() auth.Model {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.model
}

// PluginImplementations returns the plugins implementing iface, in load order
func (c *Core) PluginImplementations(iface string) []plugins.Plugin {
	return c.registry.Implementers(iface)
}

// LookupTypePlugin returns the plugin handling key within category
func (c *Core) LookupTypePlugin(category, key string) plugins.Plugin {
	return c.bindings.Lookup(category, key)
}

// TypeKeys lists the explicitly bound type keys of category in bind order
func (c *Core) TypeKeys(category string) []string {
	return c.bindings.Keys(category)
}

// IsAuthorized runs the auth function of action. A nil authCtx.Model defaults to the core model.
func (c *Core) IsAuthorized(ctx context.Context, action string, authCtx *auth.Context, data auth.DataDict) (auth.Result, error) {
	r, err := c.authResolver()
	if err != nil {
		return auth.Result{}, err
	}
	return r.IsAuthorized(ctx, action, c.withModel(authCtx), data)
}

// CheckAccess fails with *auth.NotAuthorized when action is denied
func (c *Core) CheckAccess(ctx context.Context, action string, authCtx *auth.Context, data auth.DataDict) error {
	r, err := c.authResolver()
	if err != nil {
		return err
	}
	return r.CheckAccess(ctx, action, c.withModel(authCtx), data)
}

func (c *Core) withModel(authCtx *auth.Context) *auth.Context {
	if authCtx == nil {
		authCtx = &auth.Context{}
	}
	if authCtx.Model == nil {
		authCtx.Model = c.Model()
	}
	return authCtx
}

// IsSysadmin reports whether name is a sysadmin; for rendering decisions only
func (c *Core) IsSysadmin(ctx context.Context, name string) bool {
	model := c.Model()
	if model == nil {
		return false
	}
	return auth.IsSysadmin(ctx, model, name)
}

// Satisfies reports whether role grants permission
func (c *Core) Satisfies(role, permission string) bool {
	return rbac.Satisfies(role, permission)
}

// Describe reports how action resolved
func (c *Core) Describe(action string) (auth.EntryInfo, error) {
	r, err := c.authResolver()
	if err != nil {
		return auth.EntryInfo{}, err
	}
	return r.Describe(action)
}

// PluginCounts returns the number of implementers per well-known interface
func (c *Core) PluginCounts() map[string]int {
	counts := make(map[string]int)
	for _, iface := range plugins.WellKnownInterfaces() {
		counts[iface.Name] = len(c.registry.Implementers(iface.Name))
	}
	return counts
}
