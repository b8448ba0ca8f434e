package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func membershipModel() *fakeModel {
	m := newFakeModel()
	m.addUser(&User{ID: "u-admin", Name: "olivia"})
	m.addUser(&User{ID: "u-editor", Name: "eddie"})
	m.addUser(&User{ID: "u-member", Name: "mia"})
	m.addUser(&User{ID: "u-root", Name: "root", Sysadmin: true})
	m.addUser(&User{ID: "u-none", Name: "nobody"})

	m.groups["org1"] = &Group{ID: "org1", Name: "org1", IsOrganization: true, State: StateActive}
	m.groups["grp1"] = &Group{ID: "grp1", Name: "grp1", State: StateActive}

	m.members = []Member{
		{UserID: "u-admin", GroupID: "org1", Capacity: "admin"},
		{UserID: "u-editor", GroupID: "org1", Capacity: "editor"},
		{UserID: "u-member", GroupID: "org1", Capacity: "member"},
		{UserID: "u-member", GroupID: "grp1", Capacity: "editor"},
	}
	return m
}

func TestHasUserPermissionForGroupOrOrg(t *testing.T) {
	m := membershipModel()

	tests := []struct {
		name       string
		group      string
		user       string
		permission string
		want       bool
	}{
		{"admin has everything", "org1", "olivia", "delete_dataset", true},
		{"editor creates", "org1", "eddie", "create_dataset", true},
		{"editor cannot manage members", "org1", "eddie", "membership", false},
		{"member reads", "org1", "mia", "read", true},
		{"member cannot create", "org1", "mia", "create_dataset", false},
		{"sysadmin without membership", "org1", "root", "membership", true},
		{"no membership", "org1", "nobody", "read", false},
		{"unknown user", "org1", "ghost", "read", false},
		{"empty group", "", "olivia", "read", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := HasUserPermissionForGroupOrOrg(context.Background(), m, tt.group, tt.user, tt.permission)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHasUserPermissionForSomeOrg(t *testing.T) {
	m := membershipModel()
	ctx := context.Background()

	ok, err := HasUserPermissionForSomeOrg(ctx, m, "eddie", "create_dataset")
	require.NoError(t, err)
	assert.True(t, ok)

	// mia is an editor of a plain group only
	ok, err = HasUserPermissionForSomeOrg(ctx, m, "mia", "create_dataset")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = HasUserPermissionForSomeOrg(ctx, m, "root", "create_dataset")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = HasUserPermissionForSomeOrg(ctx, m, "nobody", "read")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUsersRoleForGroupOrOrg(t *testing.T) {
	m := membershipModel()
	ctx := context.Background()

	role, err := UsersRoleForGroupOrOrg(ctx, m, "org1", "eddie")
	require.NoError(t, err)
	assert.Equal(t, "editor", role)

	role, err = UsersRoleForGroupOrOrg(ctx, m, "org1", "nobody")
	require.NoError(t, err)
	assert.Empty(t, role)
}

func TestIsSysadmin(t *testing.T) {
	m := membershipModel()
	ctx := context.Background()

	assert.True(t, IsSysadmin(ctx, m, "root"))
	assert.False(t, IsSysadmin(ctx, m, "olivia"))
	assert.False(t, IsSysadmin(ctx, m, "ghost"))
	assert.False(t, IsSysadmin(ctx, m, ""))
	assert.False(t, IsSysadmin(ctx, nil, "root"))
}

func TestHasUserPermissionForPackage(t *testing.T) {
	m := membershipModel()
	ctx := context.Background()

	ok, err := HasUserPermissionForPackage(ctx, m, &Package{ID: "p1", OwnerOrg: "org1"}, "eddie", "update_dataset")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = HasUserPermissionForPackage(ctx, m, &Package{ID: "p2"}, "eddie", "update_dataset")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDataDict(t *testing.T) {
	d := DataDict{"owner_org": "org1", "private": "true", "count": 3, "flag": true, "nil": nil}

	assert.Equal(t, "org1", d.String("owner_org"))
	assert.Equal(t, "3", d.String("count"))
	assert.Equal(t, "", d.String("nil"))
	assert.Equal(t, "", d.String("missing"))
	assert.True(t, d.Bool("private"))
	assert.True(t, d.Bool("flag"))
	assert.False(t, d.Bool("count"))
}
