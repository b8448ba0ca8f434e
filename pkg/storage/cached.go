package storage

import (
	"context"
	"maps"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/platinummonkey/catalog/pkg/auth"
)

// CacheStats holds cache hit counters
type CacheStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Users  int   `json:"users"`
	Groups int   `json:"groups"`
}

// CachedModel caches user and group lookups in front of another model.
// Memberships are never cached so role changes apply immediately.
type CachedModel struct {
	next   auth.Model
	users  *lru.LRU[string, *auth.User]
	groups *lru.LRU[string, *auth.Group]
	hits   atomic.Int64
	misses atomic.Int64
}

// NewCachedModel wraps next with size-bounded, TTL-expiring caches
func NewCachedModel(next auth.Model, size int, ttl time.Duration) *CachedModel {
	if size < 10 {
		size = 10
	}
	return &CachedModel{
		next:   next,
		users:  lru.NewLRU[string, *auth.User](size, nil, ttl),
		groups: lru.NewLRU[string, *auth.Group](size, nil, ttl),
	}
}

// UserByName implements auth.Model
func (c *CachedModel) UserByName(ctx context.Context, name string) (*auth.User, error) {
	if u, ok := c.users.Get(name); ok {
		c.hits.Add(1)
		cp := *u
		return &cp, nil
	}
	c.misses.Add(1)

	u, err := c.next.UserByName(ctx, name)
	if err != nil {
		return nil, err
	}
	cp := *u
	c.users.Add(name, &cp)
	return u, nil
}

// GroupByID implements auth.Model
func (c *CachedModel) GroupByID(ctx context.Context, id string) (*auth.Group, error) {
	if g, ok := c.groups.Get(id); ok {
		c.hits.Add(1)
		return cloneGroup(g), nil
	}
	c.misses.Add(1)

	g, err := c.next.GroupByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.groups.Add(id, cloneGroup(g))
	return g, nil
}

func cloneGroup(g *auth.Group) *auth.Group {
	cp := *g
	cp.Extras = maps.Clone(g.Extras)
	return &cp
}

// PackageByID implements auth.Model without caching
func (c *CachedModel) PackageByID(ctx context.Context, id string) (*auth.Package, error) {
	return c.next.PackageByID(ctx, id)
}

// Capacity implements auth.Model without caching
func (c *CachedModel) Capacity(ctx context.Context, userID, groupID string) (string, error) {
	return c.next.Capacity(ctx, userID, groupID)
}

// GroupsOfUser implements auth.Model without caching
func (c *CachedModel) GroupsOfUser(ctx context.Context, userID string, organizations bool) ([]auth.Member, error) {
	return c.next.GroupsOfUser(ctx, userID, organizations)
}

// InvalidateUser drops a cached user
func (c *CachedModel) InvalidateUser(name string) {
	c.users.Remove(name)
}

// InvalidateGroup drops a cached group
func (c *CachedModel) InvalidateGroup(id string) {
	c.groups.Remove(id)
}

// Purge empties both caches
func (c *CachedModel) Purge() {
	c.users.Purge()
	c.groups.Purge()
}

// Stats returns cache statistics
func (c *CachedModel) Stats() CacheStats {
	return CacheStats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Users:  c.users.Len(),
		Groups: c.groups.Len(),
	}
}
