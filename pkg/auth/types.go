package auth

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Entity states
const (
	StateActive  = "active"
	StateDeleted = "deleted"
	StatePending = "pending"
)

// ErrNotFound is returned by Model lookups when the entity does not exist
var ErrNotFound = errors.New("not found")

// User represents a user account
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	FullName  string    `json:"full_name,omitempty"`
	Sysadmin  bool      `json:"sysadmin"`
	State     string    `json:"state"`
	CreatedAt time.Time `json:"created_at"`
}

// IsDeleted reports whether the account was deleted
func (u *User) IsDeleted() bool {
	return u.State == StateDeleted
}

// Group represents a group or an organization
type Group struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Title          string            `json:"title,omitempty"`
	Type           string            `json:"type"`
	IsOrganization bool              `json:"is_organization"`
	State          string            `json:"state"`
	Extras         map[string]string `json:"extras,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
}

// Package represents a dataset
type Package struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	OwnerOrg      string `json:"owner_org,omitempty"`
	Private       bool   `json:"private"`
	CreatorUserID string `json:"creator_user_id,omitempty"`
	State         string `json:"state"`
}

// Member is a user's membership of a group with a capacity (role name)
type Member struct {
	UserID   string `json:"user_id"`
	GroupID  string `json:"group_id"`
	Capacity string `json:"capacity"`
}

// Model is the domain model the authorization functions read from
type Model interface {
	// UserByName looks a user up by name or id
	UserByName(ctx context.Context, name string) (*User, error)
	// PackageByID looks a dataset up by id or name
	PackageByID(ctx context.Context, id string) (*Package, error)
	// GroupByID looks a group or organization up by id or name
	GroupByID(ctx context.Context, id string) (*Group, error)
	// Capacity returns the user's role in the group, or "" without membership
	Capacity(ctx context.Context, userID, groupID string) (string, error)
	// GroupsOfUser lists the user's memberships of organizations or plain groups
	GroupsOfUser(ctx context.Context, userID string, organizations bool) ([]Member, error)
}

// DataDict holds the action arguments an auth function inspects
type DataDict map[string]any

// String returns the value for key formatted as a string, "" when absent
func (d DataDict) String(key string) string {
	v, ok := d[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Bool returns the value for key when it is a boolean or a "true"/"false" string
func (d DataDict) Bool(key string) bool {
	switch v := d[key].(type) {
	case bool:
		return v
	case string:
		return v == "true" || v == "True" || v == "1"
	default:
		return false
	}
}

// Result is the outcome of an authorization function
type Result struct {
	Success bool   `json:"success"`
	Msg     string `json:"msg,omitempty"`
}

// Allow is a successful Result
func Allow() Result {
	return Result{Success: true}
}

// Deny is a failed Result with a formatted reason
func Deny(format string, args ...any) Result {
	return Result{Success: false, Msg: fmt.Sprintf(format, args...)}
}

// Context is the request-scoped authorization context. It is built per call and never shared.
type Context struct {
	// User is the acting user's name; empty for anonymous requests
	User string
	// AuthUserObj is the already loaded acting user, if the caller has it
	AuthUserObj *User
	// IgnoreAuth skips every check
	IgnoreAuth bool
	// Model gives auth functions access to the domain model
	Model Model

	// Package and Group carry entities already loaded by the caller
	Package *Package
	Group   *Group
	// Extra holds check-specific arguments
	Extra map[string]any

	// missingUser remembers a name CheckAccess looked up and did not find
	missingUser string
}

// IsAnonymous reports whether the request names no acting user
func (c *Context) IsAnonymous() bool {
	return c.User == ""
}

// attached reports whether AuthUserObj is the user named by c.User
func (c *Context) attached() bool {
	u := c.AuthUserObj
	return u != nil && c.User != "" && (u.Name == c.User || u.ID == c.User)
}
