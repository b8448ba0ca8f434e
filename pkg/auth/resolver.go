package auth

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// Check outcomes reported to the Recorder
const (
	OutcomeIgnored   = "ignored"
	OutcomeSysadmin  = "sysadmin"
	OutcomeAllowed   = "allowed"
	OutcomeDenied    = "denied"
	OutcomeAnonymous = "anonymous"
	OutcomeUnknown   = "unknown"
	OutcomeError     = "error"
)

// FunctionGroup is a named set of library default auth functions
type FunctionGroup struct {
	Name      string
	Functions map[string]*Handler
}

// Provider is an extension contributing auth functions
type Provider interface {
	Name() string
	AuthFunctions() map[string]*Handler
}

// ProviderSource returns the auth function providers in plugin load order
type ProviderSource func() []Provider

// Recorder receives one observation per authorization check
type Recorder interface {
	ObserveCheck(action, outcome string, duration time.Duration)
}

// BuildRecorder is optionally implemented by a Recorder to observe table builds
type BuildRecorder interface {
	ObserveTableBuild(functions int)
}

// link is one handler in an action's resolution chain. next is the handler it wraps.
type link struct {
	plugin  string
	group   string
	handler *Handler
	next    *link
	call    Func
}

type table struct {
	entries map[string]*link
	builtAt time.Time
}

// Resolver builds and caches the action-name to auth-function table.
// The table is built lazily on first use and rebuilt only after Reset.
type Resolver struct {
	mu        sync.Mutex
	current   atomic.Pointer[table]
	groups    []FunctionGroup
	providers ProviderSource
	log       *logrus.Logger
	recorder  Recorder
}

// ResolverOption configures a Resolver
type ResolverOption func(*Resolver)

// WithLogger sets the resolver's logger
func WithLogger(log *logrus.Logger) ResolverOption {
	return func(r *Resolver) {
		r.log = log
	}
}

// WithRecorder reports check outcomes to rec
func WithRecorder(rec Recorder) ResolverOption {
	return func(r *Resolver) {
		r.recorder = rec
	}
}

// NewResolver creates a resolver over the default groups (in order) and the provider source
func NewResolver(groups []FunctionGroup, providers ProviderSource, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		groups:    groups,
		providers: providers,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = logrus.New()
	}
	return r
}

// Build builds the table now if it has not been built yet
func (r *Resolver) Build() error {
	_, err := r.load()
	return err
}

// Reset discards the table; the next lookup rebuilds it from scratch.
// There is no incremental invalidation.
func (r *Resolver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current.Store(nil)
}

func (r *Resolver) load() (*table, error) {
	if t := r.current.Load(); t != nil {
		return t, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if t := r.current.Load(); t != nil {
		return t, nil
	}

	start := time.Now()
	t, err := r.build()
	if err != nil {
		r.log.WithError(err).Error("Failed to build auth function table")
		return nil, err
	}
	r.current.Store(t)
	if br, ok := r.recorder.(BuildRecorder); ok {
		br.ObserveTableBuild(len(t.entries))
	}
	r.log.WithFields(logrus.Fields{
		"functions": len(t.entries),
		"duration":  time.Since(start),
	}).Debug("Built auth function table")
	return t, nil
}

func (r *Resolver) build() (*table, error) {
	entries := make(map[string]*link)

	for _, group := range r.groups {
		for _, name := range sortedNames(group.Functions) {
			h := group.Functions[name]
			key := NormalizeAction(name)
			if !h.valid() {
				return nil, &DefinitionError{Action: key, Source: group.Name, Reason: "handler has no function"}
			}
			if h.IsChained() {
				return nil, &DefinitionError{Action: key, Source: group.Name, Reason: "default functions cannot be chained"}
			}
			if existing, ok := entries[key]; ok {
				return nil, &DefinitionError{
					Action: key,
					Source: group.Name,
					Reason: fmt.Sprintf("already defined by default group %s", existing.group),
				}
			}
			entries[key] = &link{group: group.Name, handler: h, call: h.fn}
		}
	}

	var providers []Provider
	if r.providers != nil {
		providers = r.providers()
	}

	// Plain overrides first so chained functions always wrap the final non-chained handler
	claimed := make(map[string]string)
	for _, p := range providers {
		functions := p.AuthFunctions()
		for _, name := range sortedNames(functions) {
			h := functions[name]
			key := NormalizeAction(name)
			if !h.valid() {
				return nil, &DefinitionError{Action: key, Source: p.Name(), Reason: "handler has no function"}
			}
			if h.IsChained() {
				continue
			}
			if owner, ok := claimed[key]; ok {
				return nil, &ConflictError{Action: key, Existing: owner, Incoming: p.Name()}
			}
			claimed[key] = p.Name()

			group := ""
			if prev, ok := entries[key]; ok {
				group = prev.group
				r.log.Debugf("Auth function %s overridden by plugin %s", key, p.Name())
			}
			entries[key] = &link{plugin: p.Name(), group: group, handler: h, call: h.fn}
		}
	}

	for _, p := range providers {
		functions := p.AuthFunctions()
		for _, name := range sortedNames(functions) {
			h := functions[name]
			if !h.IsChained() {
				continue
			}
			key := NormalizeAction(name)
			prev, ok := entries[key]
			if !ok {
				return nil, &ChainTargetError{Action: key, Plugin: p.Name()}
			}
			entries[key] = wrap(p.Name(), h, prev)
		}
	}

	return &table{entries: entries, builtAt: time.Now()}, nil
}

func wrap(plugin string, h *Handler, prev *link) *link {
	chained := h.chained
	next := prev.call
	return &link{
		plugin:  plugin,
		group:   prev.group,
		handler: h,
		next:    prev,
		call: func(ctx context.Context, c *Context, data DataDict) (Result, error) {
			return chained(ctx, next, c, data)
		},
	}
}

func sortedNames(functions map[string]*Handler) []string {
	names := make([]string, 0, len(functions))
	for name := range functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Function returns the resolved callable for an action, outermost chained handler first
func (r *Resolver) Function(action string) (Func, error) {
	l, err := r.lookup(action)
	if err != nil {
		return nil, err
	}
	return l.call, nil
}

func (r *Resolver) lookup(action string) (*link, error) {
	t, err := r.load()
	if err != nil {
		return nil, err
	}
	key := NormalizeAction(action)
	l, ok := t.entries[key]
	if !ok {
		return nil, &UnknownActionError{Action: key, Available: sortedKeys(t.entries)}
	}
	return l, nil
}

func sortedKeys(entries map[string]*link) []string {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Actions lists every resolvable action name, sorted
func (r *Resolver) Actions() ([]string, error) {
	t, err := r.load()
	if err != nil {
		return nil, err
	}
	return sortedKeys(t.entries), nil
}

// EntryInfo describes how an action resolved
type EntryInfo struct {
	Action         string   `json:"action"`
	Group          string   `json:"group,omitempty"`
	Chain          []string `json:"chain"`
	CheckSysadmins bool     `json:"check_sysadmins"`
	AllowAnonymous bool     `json:"allow_anonymous"`
}

// Describe returns the resolution chain for an action. Chain lists the owners from the
// outermost handler inward; the library default appears as "default:<group>".
func (r *Resolver) Describe(action string) (EntryInfo, error) {
	l, err := r.lookup(action)
	if err != nil {
		return EntryInfo{}, err
	}
	return describe(NormalizeAction(action), l), nil
}

// Chain returns the owners of an action's handlers, outermost first
func (r *Resolver) Chain(action string) ([]string, error) {
	info, err := r.Describe(action)
	if err != nil {
		return nil, err
	}
	return info.Chain, nil
}

// Snapshot describes every entry in the table
func (r *Resolver) Snapshot() (map[string]EntryInfo, error) {
	t, err := r.load()
	if err != nil {
		return nil, err
	}
	out := make(map[string]EntryInfo, len(t.entries))
	for key, l := range t.entries {
		out[key] = describe(key, l)
	}
	return out, nil
}

func describe(key string, l *link) EntryInfo {
	info := EntryInfo{
		Action:         key,
		Group:          l.group,
		CheckSysadmins: l.handler.checkSysadmins,
		AllowAnonymous: l.handler.allowAnonymous,
	}
	for cur := l; cur != nil; cur = cur.next {
		if cur.plugin == "" {
			info.Chain = append(info.Chain, "default:"+cur.group)
		} else {
			info.Chain = append(info.Chain, cur.plugin)
		}
	}
	return info
}

// IsAuthorized runs the authorization function for action.
// Errors raised by the function are returned unchanged; UnknownActionError means the action
// has no function at all.
func (r *Resolver) IsAuthorized(ctx context.Context, action string, c *Context, data DataDict) (Result, error) {
	start := time.Now()
	if c == nil {
		c = &Context{}
	}

	if c.IgnoreAuth {
		r.observe(action, OutcomeIgnored, start)
		return Allow(), nil
	}

	key := NormalizeAction(action)
	l, err := r.lookup(key)
	if err != nil {
		var unknown *UnknownActionError
		if errors.As(err, &unknown) {
			r.log.WithField("action", key).Error("Auth function not found")
			r.observe(key, OutcomeUnknown, start)
		} else {
			r.observe(key, OutcomeError, start)
		}
		return Result{}, err
	}

	user, err := ContextUser(ctx, c)
	if err != nil {
		r.observe(key, OutcomeError, start)
		return Result{}, err
	}

	if user != nil {
		if user.IsDeleted() {
			r.observe(key, OutcomeDenied, start)
			return Deny("User %s is deleted", user.Name), nil
		}
		if user.Sysadmin && !l.handler.checkSysadmins {
			r.observe(key, OutcomeSysadmin, start)
			return Allow(), nil
		}
	}

	if user == nil && !l.handler.allowAnonymous {
		r.observe(key, OutcomeAnonymous, start)
		return Deny("Action %s requires an authenticated user", key), nil
	}

	if data == nil {
		data = DataDict{}
	}
	res, err := l.call(ctx, c, data)
	switch {
	case err != nil:
		r.observe(key, OutcomeError, start)
	case res.Success:
		r.observe(key, OutcomeAllowed, start)
	default:
		r.observe(key, OutcomeDenied, start)
	}
	return res, err
}

func (r *Resolver) observe(action, outcome string, start time.Time) {
	if r.recorder != nil {
		r.recorder.ObserveCheck(action, outcome, time.Since(start))
	}
}
