package auth

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// fakeModel is an in-memory Model counting user lookups
type fakeModel struct {
	mu          sync.Mutex
	users       map[string]*User
	groups      map[string]*Group
	packages    map[string]*Package
	members     []Member
	userLookups int
	userErr     error
}

func newFakeModel() *fakeModel {
	return &fakeModel{
		users:    make(map[string]*User),
		groups:   make(map[string]*Group),
		packages: make(map[string]*Package),
	}
}

func (m *fakeModel) addUser(u *User) *User {
	if u.State == "" {
		u.State = StateActive
	}
	m.users[u.Name] = u
	return u
}

func (m *fakeModel) UserByName(_ context.Context, name string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.userLookups++
	if m.userErr != nil {
		return nil, m.userErr
	}
	if u, ok := m.users[name]; ok {
		return u, nil
	}
	for _, u := range m.users {
		if u.ID == name {
			return u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *fakeModel) PackageByID(_ context.Context, id string) (*Package, error) {
	if p, ok := m.packages[id]; ok {
		return p, nil
	}
	return nil, ErrNotFound
}

func (m *fakeModel) GroupByID(_ context.Context, id string) (*Group, error) {
	if g, ok := m.groups[id]; ok {
		return g, nil
	}
	return nil, ErrNotFound
}

func (m *fakeModel) Capacity(_ context.Context, userID, groupID string) (string, error) {
	for _, mem := range m.members {
		if mem.UserID == userID && mem.GroupID == groupID {
			return mem.Capacity, nil
		}
	}
	return "", nil
}

func (m *fakeModel) GroupsOfUser(_ context.Context, userID string, organizations bool) ([]Member, error) {
	var out []Member
	for _, mem := range m.members {
		g, ok := m.groups[mem.GroupID]
		if mem.UserID == userID && ok && g.IsOrganization == organizations {
			out = append(out, mem)
		}
	}
	return out, nil
}

func (m *fakeModel) lookups() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.userLookups
}

// mockProvider contributes auth functions under a plugin name
type mockProvider struct {
	name      string
	functions map[string]*Handler
}

func (p *mockProvider) Name() string                       { return p.name }
func (p *mockProvider) AuthFunctions() map[string]*Handler { return p.functions }

func providers(ps ...Provider) ProviderSource {
	return func() []Provider { return ps }
}

// recorder collects outcomes
type recorder struct {
	mu       sync.Mutex
	outcomes []string
}

func (r *recorder) ObserveCheck(action, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, action+":"+outcome)
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func allowFn(_ context.Context, _ *Context, _ DataDict) (Result, error) {
	return Allow(), nil
}

func denyFn(_ context.Context, _ *Context, _ DataDict) (Result, error) {
	return Deny("denied by default"), nil
}

// tagged returns a plain function that allows and appends tag to calls
func tagged(tag string, calls *[]string) Func {
	return func(_ context.Context, _ *Context, _ DataDict) (Result, error) {
		*calls = append(*calls, tag)
		return Allow(), nil
	}
}

// passThrough returns a chained function that appends tag and calls next
func passThrough(tag string, calls *[]string) ChainedFunc {
	return func(ctx context.Context, next Func, c *Context, data DataDict) (Result, error) {
		*calls = append(*calls, tag)
		return next(ctx, c, data)
	}
}

func defaultGroups() []FunctionGroup {
	return []FunctionGroup{
		{Name: "get", Functions: map[string]*Handler{
			"dataset_show": Define(allowFn, AllowAnonymous()),
			"site_read":    Define(allowFn, AllowAnonymous()),
		}},
		{Name: "create", Functions: map[string]*Handler{
			"dataset_create": Define(denyFn),
			"license_create": Define(allowFn),
		}},
		{Name: "update", Functions: map[string]*Handler{
			"dataset_update": Define(denyFn),
		}},
		{Name: "delete", Functions: map[string]*Handler{
			"dataset_delete": Define(denyFn),
		}},
	}
}
