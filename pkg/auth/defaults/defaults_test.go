package defaults

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/catalog/pkg/auth"
	"github.com/platinummonkey/catalog/pkg/config"
	"github.com/platinummonkey/catalog/pkg/storage"
)

type fixture struct {
	store *storage.MemoryStore
	users map[string]*auth.User
	org   *auth.Group
	grp   *auth.Group
	pub   *auth.Package
	priv  *auth.Package
	mine  *auth.Package
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{store: storage.NewMemoryStore(), users: make(map[string]*auth.User)}

	for _, name := range []string{"olivia", "eddie", "mia", "nobody", "root"} {
		u := &auth.User{ID: "id-" + name, Name: name, Sysadmin: name == "root"}
		require.NoError(t, f.store.CreateUser(ctx, u))
		f.users[name] = u
	}

	f.org = &auth.Group{ID: "org1", Name: "org1", IsOrganization: true}
	require.NoError(t, f.store.CreateGroup(ctx, f.org))
	f.grp = &auth.Group{ID: "grp1", Name: "grp1"}
	require.NoError(t, f.store.CreateGroup(ctx, f.grp))

	for user, capacity := range map[string]string{"olivia": "admin", "eddie": "editor", "mia": "member"} {
		require.NoError(t, f.store.AddMember(ctx, auth.Member{UserID: "id-" + user, GroupID: "org1", Capacity: capacity}))
	}
	require.NoError(t, f.store.AddMember(ctx, auth.Member{UserID: "id-eddie", GroupID: "grp1", Capacity: "member"}))

	f.pub = &auth.Package{ID: "pub", Name: "pub", OwnerOrg: "org1"}
	f.priv = &auth.Package{ID: "priv", Name: "priv", OwnerOrg: "org1", Private: true}
	f.mine = &auth.Package{ID: "mine", Name: "mine", CreatorUserID: "id-nobody", Private: true}
	for _, p := range []*auth.Package{f.pub, f.priv, f.mine} {
		require.NoError(t, f.store.CreatePackage(ctx, p))
	}
	return f
}

func newResolver(cfg config.AuthConfig) *auth.Resolver {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return auth.NewResolver(Groups(cfg), nil, auth.WithLogger(log))
}

func (f *fixture) ctx(user string) *auth.Context {
	return &auth.Context{User: user, Model: f.store}
}

func TestGroupsAreDisjoint(t *testing.T) {
	r := newResolver(config.DefaultAuthConfig())
	require.NoError(t, r.Build())

	actions, err := r.Actions()
	require.NoError(t, err)
	assert.Contains(t, actions, "dataset_create")
	assert.Contains(t, actions, "dataset_show")
	assert.Contains(t, actions, "group_member_delete")

	info, err := r.Describe("package_update")
	require.NoError(t, err)
	assert.Equal(t, GroupUpdate, info.Group)
}

func TestDatasetShow(t *testing.T) {
	f := newFixture(t)
	r := newResolver(config.DefaultAuthConfig())

	tests := []struct {
		name string
		user string
		id   string
		want bool
	}{
		{"anonymous public", "", "pub", true},
		{"anonymous private", "", "priv", false},
		{"member private", "mia", "priv", true},
		{"outsider private", "nobody", "priv", false},
		{"creator of unowned private", "nobody", "mine", true},
		{"sysadmin private", "root", "priv", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := r.IsAuthorized(context.Background(), "package_show", f.ctx(tt.user), auth.DataDict{"id": tt.id})
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Success, res.Msg)
		})
	}
}

func TestCreatorUsesActingUser(t *testing.T) {
	f := newFixture(t)
	r := newResolver(config.DefaultAuthConfig())
	creator := f.users["nobody"]

	tests := []struct {
		name   string
		c      *auth.Context
		action string
		want   bool
	}{
		{"creator attached", &auth.Context{User: "nobody", AuthUserObj: creator, Model: f.store}, "dataset_show", true},
		{"creator object on another user", &auth.Context{User: "mia", AuthUserObj: creator, Model: f.store}, "dataset_show", false},
		{"creator object without a user", &auth.Context{AuthUserObj: creator, Model: f.store}, "dataset_show", false},
		{"creator object on another user update", &auth.Context{User: "eddie", AuthUserObj: creator, Model: f.store}, "dataset_update", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := r.IsAuthorized(context.Background(), tt.action, tt.c, auth.DataDict{"id": f.mine.ID})
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Success, res.Msg)
		})
	}
}

func TestDatasetShowMissingDataset(t *testing.T) {
	f := newFixture(t)
	r := newResolver(config.DefaultAuthConfig())

	_, err := r.IsAuthorized(context.Background(), "dataset_show", f.ctx("mia"), auth.DataDict{"id": "gone"})
	assert.True(t, errors.Is(err, auth.ErrNotFound))
}

func TestDatasetCreate(t *testing.T) {
	f := newFixture(t)

	open := config.DefaultAuthConfig()
	open.CreateUnownedDataset = true
	open.AnonCreateDataset = true

	tests := []struct {
		name string
		cfg  config.AuthConfig
		user string
		data auth.DataDict
		want bool
		msg  string
	}{
		{"editor into own org", config.DefaultAuthConfig(), "eddie", auth.DataDict{"owner_org": "org1"}, true, ""},
		{"admin into own org", config.DefaultAuthConfig(), "olivia", auth.DataDict{"owner_org": "org1"}, true, ""},
		{"member cannot create", config.DefaultAuthConfig(), "mia", auth.DataDict{"owner_org": "org1"}, false,
			"User mia not authorized to create packages"},
		{"outsider cannot create", config.DefaultAuthConfig(), "nobody", nil, false,
			"User nobody not authorized to create packages"},
		{"anonymous cannot create", config.DefaultAuthConfig(), "", nil, false,
			"User  not authorized to create packages"},
		{"unowned allowed for outsiders", open, "nobody", nil, true, ""},
		{"unowned allowed but not into foreign org", open, "nobody", auth.DataDict{"owner_org": "org1"}, false,
			"User nobody not authorized to add dataset to this organization"},
		{"anonymous when enabled", open, "", nil, true, ""},
		{"editor adding to group with member role", config.DefaultAuthConfig(), "eddie",
			auth.DataDict{"owner_org": "org1", "groups": []any{map[string]any{"id": "grp1"}}}, true, ""},
		{"admin adding to foreign group", config.DefaultAuthConfig(), "olivia",
			auth.DataDict{"owner_org": "org1", "groups": []string{"grp1"}}, false,
			"User olivia not authorized to edit these groups"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newResolver(tt.cfg)
			res, err := r.IsAuthorized(context.Background(), "package_create", f.ctx(tt.user), tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Success, res.Msg)
			if tt.msg != "" {
				assert.Equal(t, tt.msg, res.Msg)
			}
		})
	}
}

func TestDatasetUpdateAndDelete(t *testing.T) {
	f := newFixture(t)
	r := newResolver(config.DefaultAuthConfig())

	tests := []struct {
		action string
		user   string
		id     string
		want   bool
	}{
		{"package_update", "eddie", "pub", true},
		{"package_update", "mia", "pub", false},
		{"package_update", "nobody", "mine", true},
		{"package_update", "eddie", "mine", false},
		{"package_delete", "olivia", "priv", true},
		{"package_delete", "eddie", "priv", true},
		{"package_delete", "mia", "priv", false},
		{"resource_update", "eddie", "pub", true},
	}

	for _, tt := range tests {
		t.Run(tt.action+"/"+tt.user+"/"+tt.id, func(t *testing.T) {
			data := auth.DataDict{"id": tt.id, "package_id": tt.id}
			res, err := r.IsAuthorized(context.Background(), tt.action, f.ctx(tt.user), data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Success, res.Msg)
		})
	}
}

func TestGroupFunctions(t *testing.T) {
	f := newFixture(t)

	closed := config.DefaultAuthConfig()
	closed.UserCreateGroups = false
	closed.UserDeleteOrganizations = false

	tests := []struct {
		name   string
		cfg    config.AuthConfig
		action string
		user   string
		data   auth.DataDict
		want   bool
	}{
		{"create group allowed", config.DefaultAuthConfig(), "group_create", "nobody", nil, true},
		{"create group disabled", closed, "group_create", "nobody", nil, false},
		{"create group disabled but sysadmin", closed, "group_create", "root", nil, true},
		{"admin updates org", config.DefaultAuthConfig(), "organization_update", "olivia", auth.DataDict{"id": "org1"}, true},
		{"editor cannot update org", config.DefaultAuthConfig(), "organization_update", "eddie", auth.DataDict{"id": "org1"}, false},
		{"admin deletes org", config.DefaultAuthConfig(), "organization_delete", "olivia", auth.DataDict{"id": "org1"}, true},
		{"org delete disabled", closed, "organization_delete", "olivia", auth.DataDict{"id": "org1"}, false},
		{"admin manages members", config.DefaultAuthConfig(), "organization_member_create", "olivia", auth.DataDict{"id": "org1"}, true},
		{"editor cannot manage members", config.DefaultAuthConfig(), "organization_member_create", "eddie", auth.DataDict{"id": "org1"}, false},
		{"group member adds dataset to group", config.DefaultAuthConfig(), "member_create", "eddie", auth.DataDict{"id": "grp1"}, true},
		{"org editor cannot add to org via member_create", config.DefaultAuthConfig(), "member_create", "eddie", auth.DataDict{"id": "org1"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newResolver(tt.cfg)
			res, err := r.IsAuthorized(context.Background(), tt.action, f.ctx(tt.user), tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Success, res.Msg)
		})
	}
}

func TestUserFunctions(t *testing.T) {
	f := newFixture(t)

	private := config.DefaultAuthConfig()
	private.PublicUserDetails = false

	tests := []struct {
		name   string
		cfg    config.AuthConfig
		action string
		c      *auth.Context
		data   auth.DataDict
		want   bool
	}{
		{"public user details", config.DefaultAuthConfig(), "user_show", f.ctx(""), nil, true},
		{"private details anonymous", private, "user_show", f.ctx(""), nil, false},
		{"private details logged in", private, "user_show", f.ctx("mia"), nil, true},
		{"register via web", config.DefaultAuthConfig(), "user_create", f.ctx(""), nil, true},
		{"register via api", config.DefaultAuthConfig(), "user_create",
			&auth.Context{Model: f.store, Extra: map[string]any{"api": true}}, nil, false},
		{"edit self", config.DefaultAuthConfig(), "user_update", f.ctx("mia"), auth.DataDict{"id": "id-mia"}, true},
		{"edit someone else", config.DefaultAuthConfig(), "user_update", f.ctx("mia"), auth.DataDict{"name": "eddie"}, false},
		{"delete users", config.DefaultAuthConfig(), "user_delete", f.ctx("olivia"), nil, false},
		{"sysadmin deletes users", config.DefaultAuthConfig(), "user_delete", f.ctx("root"), nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newResolver(tt.cfg)
			res, err := r.IsAuthorized(context.Background(), tt.action, tt.c, tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Success, res.Msg)
		})
	}
}
