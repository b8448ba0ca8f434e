package orggate

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/catalog/pkg/auth"
	"github.com/platinummonkey/catalog/pkg/auth/defaults"
	"github.com/platinummonkey/catalog/pkg/config"
	"github.com/platinummonkey/catalog/pkg/middleware"
	"github.com/platinummonkey/catalog/pkg/observability"
	"github.com/platinummonkey/catalog/pkg/plugins"
	"github.com/platinummonkey/catalog/pkg/storage"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type fixture struct {
	store    *storage.MemoryStore
	resolver *auth.Resolver
	plugin   *Plugin
	open     *auth.Group
	archived *auth.Group
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := storage.NewMemoryStore()

	users := []*auth.User{{Name: "eddie"}, {Name: "annie"}, {Name: "root", Sysadmin: true}}
	for _, u := range users {
		require.NoError(t, store.CreateUser(ctx, u))
	}
	open := &auth.Group{Name: "org1", IsOrganization: true, Extras: map[string]string{"region": "eu"}}
	archived := &auth.Group{Name: "org2", IsOrganization: true, Extras: map[string]string{ArchivedExtra: "true"}}
	plain := &auth.Group{Name: "readers"}
	for _, g := range []*auth.Group{open, archived, plain} {
		require.NoError(t, store.CreateGroup(ctx, g))
	}
	for _, org := range []*auth.Group{open, archived} {
		require.NoError(t, store.AddMember(ctx, auth.Member{UserID: users[0].ID, GroupID: org.ID, Capacity: "editor"}))
		require.NoError(t, store.AddMember(ctx, auth.Member{UserID: users[1].ID, GroupID: org.ID, Capacity: "admin"}))
	}

	f := &fixture{store: store, open: open, archived: archived}
	f.resolver = auth.NewResolver(defaults.Groups(config.DefaultAuthConfig()), func() []auth.Provider {
		return []auth.Provider{f.plugin}
	}, auth.WithLogger(quietLogger()))
	f.plugin = New(middleware.NewAccess(f.resolver, store), store, store, quietLogger())
	return f
}

func TestInterfaces(t *testing.T) {
	withRoutes := New(middleware.NewAccess(nil, nil), nil, storage.NewMemoryStore(), nil)
	authOnly := New(nil, nil, nil, nil)

	names := func(decls []plugins.Declaration) []string {
		var out []string
		for _, d := range decls {
			out = append(out, d.Name)
		}
		return out
	}
	assert.Equal(t, []string{plugins.IAuthFunctions, plugins.IRoutes}, names(withRoutes.Interfaces()))
	assert.Equal(t, []string{plugins.IAuthFunctions}, names(authOnly.Interfaces()))
	assert.Equal(t, Name, authOnly.Name())
}

func TestDatasetCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		user    string
		org     string
		allowed bool
		msg     string
	}{
		{name: "editor in open organization", user: "eddie", org: "org1", allowed: true},
		{name: "editor in archived organization", user: "eddie", org: "org2", msg: "Organization org2 is archived"},
		{name: "archived organization by id", user: "eddie", org: f.archived.ID, msg: "Organization org2 is archived"},
		{name: "sysadmin bypasses the chain", user: "root", org: "org2", allowed: true},
		{name: "anonymous in archived organization", org: "org2", msg: "Organization org2 is archived"},
		{name: "anonymous in open organization", org: "org1"},
		{name: "no organization", user: "eddie", allowed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := auth.DataDict{}
			if tt.org != "" {
				data["owner_org"] = tt.org
			}
			res, err := f.resolver.IsAuthorized(ctx, "package_create", &auth.Context{User: tt.user, Model: f.store}, data)
			require.NoError(t, err)
			assert.Equal(t, tt.allowed, res.Success)
			if tt.msg != "" {
				assert.Equal(t, tt.msg, res.Msg)
			}
		})
	}
}

func TestOwnerOrgUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pkg := &auth.Package{Name: "rivers", OwnerOrg: f.open.ID}
	require.NoError(t, f.store.CreatePackage(ctx, pkg))

	res, err := f.resolver.IsAuthorized(ctx, "package_owner_org_update", &auth.Context{User: "eddie", Model: f.store},
		auth.DataDict{"id": pkg.ID, "organization_id": "org2"})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "Organization org2 is archived", res.Msg)

	chain, err := f.resolver.Chain("dataset_owner_org_update")
	require.NoError(t, err)
	assert.Equal(t, []string{Name, "default:" + defaults.GroupUpdate}, chain)
}

func TestGateModelErrors(t *testing.T) {
	called := 0
	next := func(context.Context, *auth.Context, auth.DataDict) (auth.Result, error) {
		called++
		return auth.Allow(), nil
	}
	gate := New(nil, nil, nil, quietLogger()).gate("owner_org")
	ctx := context.Background()

	// Unknown organizations and missing models are left to the next function
	res, err := gate(ctx, next, &auth.Context{Model: storage.NewMemoryStore()}, auth.DataDict{"owner_org": "nope"})
	require.NoError(t, err)
	assert.True(t, res.Success)

	res, err = gate(ctx, next, &auth.Context{}, auth.DataDict{"owner_org": "org1"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 2, called)
}

func TestIsArchived(t *testing.T) {
	tests := []struct {
		name  string
		group *auth.Group
		want  bool
	}{
		{name: "nil", group: nil},
		{name: "plain group", group: &auth.Group{Extras: map[string]string{ArchivedExtra: "true"}}},
		{name: "open organization", group: &auth.Group{IsOrganization: true}},
		{name: "archived", group: &auth.Group{IsOrganization: true, Extras: map[string]string{ArchivedExtra: "true"}}, want: true},
		{name: "numeric flag", group: &auth.Group{IsOrganization: true, Extras: map[string]string{ArchivedExtra: "1"}}, want: true},
		{name: "garbage", group: &auth.Group{IsOrganization: true, Extras: map[string]string{ArchivedExtra: "yes please"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsArchived(tt.group))
		})
	}
}

func TestArchiveRoutes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r := mux.NewRouter()
	r.Use(middleware.Identity("", observability.NewLogger(observability.ErrorLevel, io.Discard)))
	f.plugin.RegisterRoutes(r)

	do := func(method, path, user string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		if user != "" {
			req.Header.Set(middleware.DefaultUserHeader, user)
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	t.Run("editor cannot archive", func(t *testing.T) {
		rec := do(http.MethodPut, "/organization/org1/archive", "eddie")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin archives", func(t *testing.T) {
		rec := do(http.MethodPut, "/organization/org1/archive", "annie")
		require.Equal(t, http.StatusOK, rec.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "org1", body["organization"])
		assert.Equal(t, true, body["archived"])

		org, err := f.store.GroupByID(ctx, "org1")
		require.NoError(t, err)
		assert.True(t, IsArchived(org))
		assert.Equal(t, "eu", org.Extras["region"])

		res, err := f.resolver.IsAuthorized(ctx, "package_create", &auth.Context{User: "eddie", Model: f.store},
			auth.DataDict{"owner_org": "org1"})
		require.NoError(t, err)
		assert.False(t, res.Success)
	})

	t.Run("admin reopens", func(t *testing.T) {
		rec := do(http.MethodDelete, "/organization/org1/archive", "annie")
		require.Equal(t, http.StatusOK, rec.Code)

		org, err := f.store.GroupByID(ctx, "org1")
		require.NoError(t, err)
		assert.False(t, IsArchived(org))
	})

	t.Run("sysadmin and unknown organization", func(t *testing.T) {
		rec := do(http.MethodPut, "/organization/missing/archive", "root")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("plain group is not an organization", func(t *testing.T) {
		rec := do(http.MethodPut, "/organization/readers/archive", "root")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("anonymous", func(t *testing.T) {
		rec := do(http.MethodPut, "/organization/org1/archive", "")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestArchiveInvalidatesCachedModel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cached := storage.NewCachedModel(f.store, 16, time.Minute)

	var p *Plugin
	resolver := auth.NewResolver(defaults.Groups(config.DefaultAuthConfig()), func() []auth.Provider {
		return []auth.Provider{p}
	}, auth.WithLogger(quietLogger()))
	p = New(middleware.NewAccess(resolver, cached), cached, f.store, quietLogger())

	r := mux.NewRouter()
	r.Use(middleware.Identity("", observability.NewLogger(observability.ErrorLevel, io.Discard)))
	p.RegisterRoutes(r)

	check := func() bool {
		res, err := resolver.IsAuthorized(ctx, "package_create", &auth.Context{User: "eddie", Model: cached},
			auth.DataDict{"owner_org": "org1"})
		require.NoError(t, err)
		return res.Success
	}
	require.True(t, check())

	req := httptest.NewRequest(http.MethodPut, "/organization/org1/archive", nil)
	req.Header.Set(middleware.DefaultUserHeader, "annie")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.False(t, check())
}
