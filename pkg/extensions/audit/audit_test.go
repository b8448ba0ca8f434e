package audit

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/catalog/pkg/auth"
	"github.com/platinummonkey/catalog/pkg/auth/defaults"
	"github.com/platinummonkey/catalog/pkg/config"
	"github.com/platinummonkey/catalog/pkg/storage"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newResolver(t *testing.T, p *Plugin) (*auth.Resolver, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.CreateUser(ctx, &auth.User{Name: "root", Sysadmin: true}))
	require.NoError(t, store.CreateUser(ctx, &auth.User{Name: "eddie"}))

	r := auth.NewResolver(defaults.Groups(config.DefaultAuthConfig()), func() []auth.Provider {
		return []auth.Provider{p}
	}, auth.WithLogger(quietLogger()))
	require.NoError(t, r.Build())
	return r, store
}

func TestNew(t *testing.T) {
	p := New(nil, 0)
	assert.Equal(t, Name, p.Name())
	assert.Equal(t, 1000, p.limit)
	assert.Equal(t, DefaultActions, p.actions)

	functions := p.AuthFunctions()
	assert.Len(t, functions, len(DefaultActions))
	for action, h := range functions {
		assert.True(t, h.IsChained(), action)
		assert.True(t, h.ChecksSysadmins(), action)
	}
}

func TestRecord(t *testing.T) {
	p := New(quietLogger(), 10)
	r, store := newResolver(t, p)
	ctx := context.Background()

	tests := []struct {
		name     string
		user     string
		allowed  bool
		sysadmin bool
		reason   string
	}{
		{name: "sysadmin keeps the bypass", user: "root", allowed: true, sysadmin: true},
		{name: "user falls through to the default", user: "eddie", reason: "User eddie not authorized to delete users"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := r.IsAuthorized(ctx, "user_delete", &auth.Context{User: tt.user, Model: store}, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.allowed, res.Success)

			events := p.Events()
			require.NotEmpty(t, events)
			last := events[len(events)-1]
			assert.Equal(t, "user_delete", last.Action)
			assert.Equal(t, tt.user, last.User)
			assert.Equal(t, tt.sysadmin, last.Sysadmin)
			assert.Equal(t, tt.allowed, last.Allowed)
			assert.Equal(t, tt.reason, last.Reason)
			assert.False(t, last.Time.IsZero())
		})
	}

	t.Run("anonymous is refused before the chain runs", func(t *testing.T) {
		before := len(p.Events())
		res, err := r.IsAuthorized(ctx, "user_delete", &auth.Context{Model: store}, nil)
		require.NoError(t, err)
		assert.False(t, res.Success)
		assert.Len(t, p.Events(), before)
	})
}

func TestAttachedUserMustMatch(t *testing.T) {
	p := New(quietLogger(), 10, "user_delete")
	r, store := newResolver(t, p)
	ctx := context.Background()
	stale := &auth.User{ID: "root-id", Name: "root", Sysadmin: true}

	plain, err := r.IsAuthorized(ctx, "user_delete", &auth.Context{User: "eddie", Model: store}, nil)
	require.NoError(t, err)
	res, err := r.IsAuthorized(ctx, "user_delete", &auth.Context{User: "eddie", AuthUserObj: stale, Model: store}, nil)
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.Equal(t, plain, res)

	events := p.Events()
	require.Len(t, events, 2)
	for _, ev := range events {
		assert.Equal(t, "eddie", ev.User)
		assert.False(t, ev.Sysadmin)
		assert.False(t, ev.Allowed)
	}

	// an object without an acting user name is anonymous
	res, err = r.IsAuthorized(ctx, "user_delete", &auth.Context{AuthUserObj: stale, Model: store}, nil)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Len(t, p.Events(), 2)
}

func TestLegacyActionNames(t *testing.T) {
	p := New(quietLogger(), 10, "package_delete")
	r, store := newResolver(t, p)

	info, err := r.Describe("package_delete")
	require.NoError(t, err)
	assert.Equal(t, []string{Name, "default:" + defaults.GroupDelete}, info.Chain)

	_, err = r.IsAuthorized(context.Background(), "package_delete", &auth.Context{User: "root", Model: store}, nil)
	require.NoError(t, err)
	require.Len(t, p.Events(), 1)
	assert.Equal(t, "dataset_delete", p.Events()[0].Action)
}

func TestLimit(t *testing.T) {
	p := New(quietLogger(), 2, "user_delete")
	r, store := newResolver(t, p)
	ctx := context.Background()

	for _, user := range []string{"root", "eddie", "root"} {
		_, err := r.IsAuthorized(ctx, "user_delete", &auth.Context{User: user, Model: store}, nil)
		require.NoError(t, err)
	}

	events := p.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "eddie", events[0].User)
	assert.Equal(t, "root", events[1].User)

	events[0].User = "mallory"
	assert.Equal(t, "eddie", p.Events()[0].User)
}
