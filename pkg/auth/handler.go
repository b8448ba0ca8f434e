package auth

import "context"

// Func is an authorization function for one action
type Func func(ctx context.Context, c *Context, data DataDict) (Result, error)

// ChainedFunc is an authorization function that receives the function it overrides.
// It may call next, ignore it, or return an error to stop the chain.
type ChainedFunc func(ctx context.Context, next Func, c *Context, data DataDict) (Result, error)

// Handler is a contributed authorization function plus its metadata
type Handler struct {
	fn             Func
	chained        ChainedFunc
	checkSysadmins bool
	allowAnonymous bool
}

// Option sets handler metadata
type Option func(*Handler)

// CheckSysadmins makes the function run for sysadmins too instead of the sysadmin bypass
func CheckSysadmins() Option {
	return func(h *Handler) {
		h.checkSysadmins = true
	}
}

// AllowAnonymous lets the function run for requests without an authenticated user
func AllowAnonymous() Option {
	return func(h *Handler) {
		h.allowAnonymous = true
	}
}

// Define builds a plain handler
func Define(fn Func, opts ...Option) *Handler {
	h := &Handler{fn: fn}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Chain builds a chained handler. When resolved it wraps whatever handler is already
// registered for the same action.
func Chain(fn ChainedFunc, opts ...Option) *Handler {
	h := &Handler{chained: fn}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// IsChained reports whether the handler wraps a previous handler
func (h *Handler) IsChained() bool {
	return h.chained != nil
}

// ChecksSysadmins reports whether the sysadmin bypass is disabled for this handler
func (h *Handler) ChecksSysadmins() bool {
	return h.checkSysadmins
}

// AllowsAnonymous reports whether the handler accepts anonymous requests
func (h *Handler) AllowsAnonymous() bool {
	return h.allowAnonymous
}

func (h *Handler) valid() bool {
	return h != nil && (h.fn != nil) != (h.chained != nil)
}
