package user

import (
	"context"
	"testing"
	"time"

	"github.com/abhishek622/filmrate/pkg/date"
	"github.com/abhishek622/filmrate/user/repository/memory"
	"github.com/abhishek622/filmrate/user/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestController() *Controller {
	return New(memory.New(), zap.NewNop())
}

func validUser(login string) *model.User {
	return &model.User{
		Email:    login + "@example.com",
		Login:    login,
		Name:     "Some Name",
		Birthday: date.New(1990, time.June, 15),
	}
}

func mustAdd(t *testing.T, c *Controller, login string) *model.User {
	t.Helper()
	u, err := c.AddUser(context.Background(), validUser(login))
	require.NoError(t, err)
	return u
}

func TestAddUserAssignsUniqueIDs(t *testing.T) {
	c := newTestController()
	seen := map[int64]bool{}
	var last int64
	for _, login := range []string{"alice", "bob", "carol"} {
		u := mustAdd(t, c, login)
		assert.False(t, seen[u.ID], "id %d reused", u.ID)
		assert.Greater(t, u.ID, last)
		seen[u.ID] = true
		last = u.ID
	}
}

func TestAddUserKeepsFields(t *testing.T) {
	c := newTestController()
	in := validUser("alice")
	got, err := c.AddUser(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, in.Email, got.Email)
	assert.Equal(t, in.Login, got.Login)
	assert.Equal(t, in.Name, got.Name)
	assert.Equal(t, in.Birthday, got.Birthday)
}

func TestAddUserValidation(t *testing.T) {
	c := newTestController()
	tests := []struct {
		name   string
		mutate func(u *model.User)
	}{
		{"email without at sign", func(u *model.User) { u.Email = "alice.example.com" }},
		{"empty login", func(u *model.User) { u.Login = "" }},
		{"login with space", func(u *model.User) { u.Login = "al ice" }},
		{"login with tab", func(u *model.User) { u.Login = "al\tice" }},
		{"future birthday", func(u *model.User) { u.Birthday = date.New(3000, time.January, 1) }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			u := validUser("alice")
			tc.mutate(u)
			_, err := c.AddUser(context.Background(), u)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestAddUserBlankNameDefaultsToLogin(t *testing.T) {
	c := newTestController()
	u := validUser("alice")
	u.Name = "  "
	got, err := c.AddUser(context.Background(), u)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Name)
}

func TestUpdateUser(t *testing.T) {
	c := newTestController()
	created := mustAdd(t, c, "alice")

	replacement := validUser("alice2")
	replacement.ID = created.ID
	got, err := c.UpdateUser(context.Background(), replacement)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "alice2", got.Login)
}

func TestUpdateUserNotFound(t *testing.T) {
	c := newTestController()
	u := validUser("ghost")
	u.ID = 42
	_, err := c.UpdateUser(context.Background(), u)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetUserNotFound(t *testing.T) {
	c := newTestController()
	_, err := c.GetUser(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddFriendSymmetry(t *testing.T) {
	c := newTestController()
	a := mustAdd(t, c, "alice")
	b := mustAdd(t, c, "bob")

	got, err := c.AddFriend(context.Background(), a.ID, b.ID)
	require.NoError(t, err)
	assert.Contains(t, got.Friends, b.ID)

	other, err := c.GetUser(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Contains(t, other.Friends, a.ID)
}

func TestRemoveFriendSymmetry(t *testing.T) {
	c := newTestController()
	a := mustAdd(t, c, "alice")
	b := mustAdd(t, c, "bob")
	_, err := c.AddFriend(context.Background(), a.ID, b.ID)
	require.NoError(t, err)

	got, err := c.RemoveFriend(context.Background(), a.ID, b.ID)
	require.NoError(t, err)
	assert.NotContains(t, got.Friends, b.ID)

	other, err := c.GetUser(context.Background(), b.ID)
	require.NoError(t, err)
	assert.NotContains(t, other.Friends, a.ID)
}

func TestAddFriendUnknownUser(t *testing.T) {
	c := newTestController()
	a := mustAdd(t, c, "alice")

	_, err := c.AddFriend(context.Background(), a.ID, 42)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = c.AddFriend(context.Background(), 42, a.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListFriends(t *testing.T) {
	c := newTestController()
	a := mustAdd(t, c, "alice")
	b := mustAdd(t, c, "bob")
	d := mustAdd(t, c, "dave")
	_, err := c.AddFriend(context.Background(), a.ID, b.ID)
	require.NoError(t, err)
	_, err = c.AddFriend(context.Background(), a.ID, d.ID)
	require.NoError(t, err)

	friends, err := c.ListFriends(context.Background(), a.ID)
	require.NoError(t, err)
	require.Len(t, friends, 2)
	assert.Equal(t, b.ID, friends[0].ID)
	assert.Equal(t, d.ID, friends[1].ID)
}

func TestListFriendsNotFound(t *testing.T) {
	c := newTestController()
	_, err := c.ListFriends(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCommonFriends(t *testing.T) {
	c := newTestController()
	ctx := context.Background()

	users := make([]*model.User, 5)
	for i, login := range []string{"u1", "u2", "u3", "u4", "u5"} {
		users[i] = mustAdd(t, c, login)
	}
	for _, edge := range [][2]int{{0, 1}, {0, 2}, {1, 2}, {1, 3}} {
		_, err := c.AddFriend(ctx, users[edge[0]].ID, users[edge[1]].ID)
		require.NoError(t, err)
	}

	common, err := c.CommonFriends(ctx, users[0].ID, users[1].ID)
	require.NoError(t, err)
	require.Len(t, common, 1)
	assert.Equal(t, users[2].ID, common[0].ID)
}

func TestCommonFriendsEmpty(t *testing.T) {
	c := newTestController()
	a := mustAdd(t, c, "alice")
	b := mustAdd(t, c, "bob")

	common, err := c.CommonFriends(context.Background(), a.ID, b.ID)
	require.NoError(t, err)
	assert.Empty(t, common)
}

func TestCommonFriendsUnknownUser(t *testing.T) {
	c := newTestController()
	a := mustAdd(t, c, "alice")
	_, err := c.CommonFriends(context.Background(), a.ID, 42)
	assert.ErrorIs(t, err, ErrNotFound)
}
