package storage

import (
	"context"

	"github.com/platinummonkey/catalog/pkg/auth"
)

// Reader is the read side the authorization layer consumes
type Reader = auth.Model

// Writer creates and changes catalog entities
type Writer interface {
	CreateUser(ctx context.Context, user *auth.User) error
	CreateGroup(ctx context.Context, group *auth.Group) error
	CreatePackage(ctx context.Context, pkg *auth.Package) error
	UpdateGroupExtras(ctx context.Context, groupID string, extras map[string]string) error
	AddMember(ctx context.Context, member auth.Member) error
	RemoveMember(ctx context.Context, userID, groupID string) error
}

// Store is a full domain model backend
type Store interface {
	Reader
	Writer

	// HealthCheck reports whether the backend is reachable
	HealthCheck(ctx context.Context) error
	Close() error
}
