package plugins

import (
	"errors"
	"fmt"
)

var (
	// ErrNotImplemented is returned when a plugin declares an interface it does not satisfy
	ErrNotImplemented = errors.New("plugin does not implement declared interface")
	// ErrUnknownInterface is returned when registering against an undefined interface name
	ErrUnknownInterface = errors.New("unknown interface")
	// ErrDuplicatePlugin is returned when two distinct instances share a plugin name
	ErrDuplicatePlugin = errors.New("plugin already registered")
	// ErrFallbackExists is returned when a category already has a fallback plugin
	ErrFallbackExists = errors.New("fallback already registered")
	// ErrBindingsFrozen is returned when binding into a category after its bind pass
	ErrBindingsFrozen = errors.New("type bindings are frozen")
)

// BindingConflictError reports two plugins claiming the same type key
type BindingConflictError struct {
	Category string
	Key      string
	Existing string
	Incoming string
}

func (e *BindingConflictError) Error() string {
	return fmt.Sprintf("%s type %q is already handled by plugin %s (attempted by %s)",
		e.Category, e.Key, e.Existing, e.Incoming)
}
