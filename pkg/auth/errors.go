package auth

import (
	"fmt"
	"strings"
)

// NotAuthorized is returned by CheckAccess when an authorization function denies access
type NotAuthorized struct {
	Action string
	Msg    string
}

func (e *NotAuthorized) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("not authorized to %s", e.Action)
	}
	return fmt.Sprintf("not authorized to %s: %s", e.Action, e.Msg)
}

// UnknownActionError is returned when no authorization function exists for an action.
// It is a programming error, never a denial.
type UnknownActionError struct {
	Action    string
	Available []string
}

func (e *UnknownActionError) Error() string {
	return fmt.Sprintf("authorization function not found: %s", e.Action)
}

// ConflictError reports two plugins contributing the same non-chained auth function
type ConflictError struct {
	Action   string
	Existing string
	Incoming string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("auth function %s is already implemented by plugin %s (attempted by %s)",
		e.Action, e.Existing, e.Incoming)
}

// ChainTargetError reports a chained auth function with nothing to wrap
type ChainTargetError struct {
	Action string
	Plugin string
}

func (e *ChainTargetError) Error() string {
	return fmt.Sprintf("auth function %s not found for chained function from plugin %s", e.Action, e.Plugin)
}

// DefinitionError reports an invalid default or contributed handler
type DefinitionError struct {
	Action string
	Source string
	Reason string
}

func (e *DefinitionError) Error() string {
	return fmt.Sprintf("invalid auth function %s from %s: %s", e.Action, e.Source, e.Reason)
}

// NormalizeAction maps legacy action names onto current ones:
// the old "package" entity name becomes "dataset" and "licence" is spelled "license".
func NormalizeAction(action string) string {
	action = strings.ReplaceAll(action, "package", "dataset")
	return strings.ReplaceAll(action, "licence", "license")
}
