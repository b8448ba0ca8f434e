package storage

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/platinummonkey/catalog/pkg/auth"
)

// MemoryStore keeps the domain model in process memory
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[string]*auth.User
	groups   map[string]*auth.Group
	packages map[string]*auth.Package
	members  []auth.Member
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]*auth.User),
		groups:   make(map[string]*auth.Group),
		packages: make(map[string]*auth.Package),
	}
}

// CreateUser stores a copy of user, assigning an ID if it has none
func (s *MemoryStore) CreateUser(_ context.Context, user *auth.User) error {
	if user.Name == "" {
		return fmt.Errorf("user name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Name == user.Name {
			return fmt.Errorf("user %s already exists", user.Name)
		}
	}
	prepareUser(user)
	cp := *user
	s.users[cp.ID] = &cp
	return nil
}

// CreateGroup stores a copy of group, assigning an ID if it has none
func (s *MemoryStore) CreateGroup(_ context.Context, group *auth.Group) error {
	if group.Name == "" {
		return fmt.Errorf("group name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, g := range s.groups {
		if g.Name == group.Name {
			return fmt.Errorf("group %s already exists", group.Name)
		}
	}
	prepareGroup(group)
	cp := *group
	cp.Extras = maps.Clone(group.Extras)
	s.groups[cp.ID] = &cp
	return nil
}

// CreatePackage stores a copy of pkg, assigning an ID if it has none
func (s *MemoryStore) CreatePackage(_ context.Context, pkg *auth.Package) error {
	if pkg.Name == "" {
		return fmt.Errorf("dataset name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.packages {
		if p.Name == pkg.Name {
			return fmt.Errorf("dataset %s already exists", pkg.Name)
		}
	}
	preparePackage(pkg)
	cp := *pkg
	s.packages[cp.ID] = &cp
	return nil
}

// UpdateGroupExtras replaces the group's extras
func (s *MemoryStore) UpdateGroupExtras(_ context.Context, groupID string, extras map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.findGroup(groupID)
	if g == nil {
		return fmt.Errorf("group %q: %w", groupID, auth.ErrNotFound)
	}
	g.Extras = maps.Clone(extras)
	return nil
}

// AddMember adds or replaces a membership
func (s *MemoryStore) AddMember(_ context.Context, member auth.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[member.UserID]; !ok {
		return fmt.Errorf("user %q: %w", member.UserID, auth.ErrNotFound)
	}
	if _, ok := s.groups[member.GroupID]; !ok {
		return fmt.Errorf("group %q: %w", member.GroupID, auth.ErrNotFound)
	}

	for i, m := range s.members {
		if m.UserID == member.UserID && m.GroupID == member.GroupID {
			s.members[i].Capacity = member.Capacity
			return nil
		}
	}
	s.members = append(s.members, member)
	return nil
}

// RemoveMember deletes a membership if present
func (s *MemoryStore) RemoveMember(_ context.Context, userID, groupID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, m := range s.members {
		if m.UserID == userID && m.GroupID == groupID {
			s.members = append(s.members[:i], s.members[i+1:]...)
			return nil
		}
	}
	return nil
}

// UserByName finds a user by name or ID
func (s *MemoryStore) UserByName(_ context.Context, name string) (*auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if u, ok := s.users[name]; ok {
		cp := *u
		return &cp, nil
	}
	for _, u := range s.users {
		if u.Name == name {
			cp := *u
			return &cp, nil
		}
	}
	return nil, auth.ErrNotFound
}

// PackageByID finds a dataset by ID or name
func (s *MemoryStore) PackageByID(_ context.Context, id string) (*auth.Package, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.packages[id]; ok {
		cp := *p
		return &cp, nil
	}
	for _, p := range s.packages {
		if p.Name == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, auth.ErrNotFound
}

// GroupByID finds a group by ID or name
func (s *MemoryStore) GroupByID(_ context.Context, id string) (*auth.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g := s.findGroup(id)
	if g == nil {
		return nil, auth.ErrNotFound
	}
	cp := *g
	cp.Extras = maps.Clone(g.Extras)
	return &cp, nil
}

func (s *MemoryStore) findGroup(id string) *auth.Group {
	if g, ok := s.groups[id]; ok {
		return g
	}
	for _, g := range s.groups {
		if g.Name == id {
			return g
		}
	}
	return nil
}

// Capacity returns the user's role in the group
func (s *MemoryStore) Capacity(_ context.Context, userID, groupID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range s.members {
		if m.UserID == userID && m.GroupID == groupID {
			return m.Capacity, nil
		}
	}
	return "", nil
}

// GroupsOfUser lists the user's memberships of active organizations or groups
func (s *MemoryStore) GroupsOfUser(_ context.Context, userID string, organizations bool) ([]auth.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []auth.Member
	for _, m := range s.members {
		if m.UserID != userID {
			continue
		}
		g, ok := s.groups[m.GroupID]
		if !ok || g.IsOrganization != organizations || g.State != auth.StateActive {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// HealthCheck always succeeds
func (s *MemoryStore) HealthCheck(context.Context) error {
	return nil
}

// Close is a no-op
func (s *MemoryStore) Close() error {
	return nil
}

func prepareUser(u *auth.User) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.State == "" {
		u.State = auth.StateActive
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
}

func prepareGroup(g *auth.Group) {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.State == "" {
		g.State = auth.StateActive
	}
	if g.Type == "" {
		if g.IsOrganization {
			g.Type = "organization"
		} else {
			g.Type = "group"
		}
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}
}

func preparePackage(p *auth.Package) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.State == "" {
		p.State = auth.StateActive
	}
	if p.Type == "" {
		p.Type = "dataset"
	}
}
