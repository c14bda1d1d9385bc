package application

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/circle-up/internal/domain/entity"
	"github.com/oksasatya/circle-up/pkg/apperror"
	"github.com/oksasatya/circle-up/pkg/helpers"
	mailtpl "github.com/oksasatya/circle-up/pkg/mailer/templates"
)

var testBase = mailtpl.Base{AppName: "Circle Up", AppURL: "http://localhost:5173"}

func TestSignup_ReturnsUserWithoutPassword(t *testing.T) {
	f := newFixture(t)

	res, err := f.users.Signup(context.Background(), SignupInput{
		Name: "Ann", Email: " Ann@Example.com ", Password: "password123", AnonymousName: "Fox",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "Fox", res.User.AnonymousName)
	assert.Equal(t, "ann@example.com", res.User.Email)
	assert.True(t, helpers.IsBcryptHash(res.User.Password))

	b, err := json.Marshal(SelfView(res.User))
	require.NoError(t, err)
	assert.NotContains(t, string(b), "password")
	assert.Contains(t, string(b), `"anonymousName":"Fox"`)

	require.Len(t, f.mail.jobs, 1)
	assert.Equal(t, mailtpl.Welcome, f.mail.jobs[0].Template)
	assert.Equal(t, "ann@example.com", f.mail.jobs[0].To)
}

func TestSignup_RequiresAnonymousName(t *testing.T) {
	f := newFixture(t)

	_, err := f.users.Signup(context.Background(), SignupInput{Name: "Ann", Email: "a@x.com", Password: "p"})

	assert.True(t, errors.Is(err, apperror.ErrValidation))
}

func TestSignup_DuplicateEmailIsConflict(t *testing.T) {
	f := newFixture(t)
	f.signup(t, "Ann", "Fox", "ann@example.com")

	_, err := f.users.Signup(context.Background(), SignupInput{Name: "X", AnonymousName: "Y", Email: "ANN@example.com", Password: "p"})

	assert.True(t, errors.Is(err, apperror.ErrConflict))
}

func TestSignup_MailFailureDoesNotFailSignup(t *testing.T) {
	f := newFixture(t)
	f.mail.err = errBroken

	_, err := f.users.Signup(context.Background(), SignupInput{Name: "Ann", AnonymousName: "Fox", Email: "a@x.com", Password: "p"})

	assert.NoError(t, err)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	f.signup(t, "Ann", "Fox", "ann@example.com")

	res, err := f.users.Login(context.Background(), "ann@example.com", "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)

	claims, err := f.users.JWT.ParseAccessToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID)

	res, err = f.users.Login(context.Background(), "ann@example.com", "wrong")
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, ErrInvalidCredentials))
	assert.Equal(t, 401, apperror.HTTPStatus(err))

	_, err = f.users.Login(context.Background(), "nobody@example.com", "password123")
	assert.True(t, errors.Is(err, ErrInvalidCredentials))
}

func TestLogin_AcceptsLegacyPlaintextCredential(t *testing.T) {
	f := newFixture(t)
	legacy := &entity.User{Name: "Old", AnonymousName: "Owl", Email: "old@example.com", Password: "letmein"}
	require.NoError(t, f.store.Users().Create(context.Background(), legacy))

	_, err := f.users.Login(context.Background(), "old@example.com", "letmein")
	assert.NoError(t, err)

	_, err = f.users.Login(context.Background(), "old@example.com", "nope")
	assert.Error(t, err)
}

func TestLoginRecordsSessionAndLogoutRemovesIt(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	f := newFixture(t)
	f.users.Redis = rdb
	f.signup(t, "Ann", "Fox", "ann@example.com")

	res, err := f.users.Login(context.Background(), "ann@example.com", "password123")
	require.NoError(t, err)
	claims, err := f.users.JWT.ParseAccessToken(res.Token)
	require.NoError(t, err)

	ok, err := helpers.SessionMatches(context.Background(), rdb, res.User.ID, claims.SessionID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, mr.TTL(helpers.SessionKey(res.User.ID)) >= 24*time.Hour)

	require.NoError(t, f.users.Logout(context.Background(), res.User.ID))
	assert.False(t, mr.Exists(helpers.SessionKey(res.User.ID)))
}

func TestList_ResolvesDisplayNameForViewer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.signup(t, "Ann", "Fox", "a@x.com")
	b := f.signup(t, "Bob", "Owl", "b@x.com")
	require.NoError(t, f.friends.AddFriend(ctx, a, b))
	require.NoError(t, f.friends.SetVisibility(ctx, b, a, true))

	views, err := f.users.List(ctx, a)
	require.NoError(t, err)
	byID := map[string]UserView{}
	for _, v := range views {
		byID[v.ID] = v
	}
	assert.Equal(t, "Bob", byID[b].DisplayName)
	assert.Equal(t, "Bob", byID[b].Name)

	anon, err := f.users.List(ctx, "")
	require.NoError(t, err)
	for _, v := range anon {
		assert.Empty(t, v.Name)
		assert.Equal(t, v.AnonymousName, v.DisplayName)
	}
}

func TestGet_PopulatesFriends(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.signup(t, "Ann", "Fox", "a@x.com")
	b := f.signup(t, "Bob", "Owl", "b@x.com")
	require.NoError(t, f.friends.AddFriend(ctx, a, b))
	require.NoError(t, f.friends.SetVisibility(ctx, b, a, true))

	p, err := f.users.Get(ctx, a, a)
	require.NoError(t, err)

	assert.Equal(t, "Ann", p.Name)
	require.Len(t, p.Friends, 1)
	assert.Equal(t, b, p.Friends[0].Friend.ID)
	assert.Equal(t, "Bob", p.Friends[0].Friend.DisplayName)
	assert.False(t, p.Friends[0].ShowName)

	_, err = f.users.Get(ctx, "missing", "")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestGet_FriendNamesResolvedForViewer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.signup(t, "Ann", "Fox", "a@x.com")
	b := f.signup(t, "Bob", "Owl", "b@x.com")
	e := f.signup(t, "Eve", "Cat", "e@x.com")
	require.NoError(t, f.friends.AddFriend(ctx, a, b))
	require.NoError(t, f.friends.SetVisibility(ctx, b, a, true))
	require.NoError(t, f.friends.SetVisibility(ctx, a, b, true))

	own, err := f.users.Get(ctx, a, a)
	require.NoError(t, err)
	require.Len(t, own.Friends, 1)
	assert.True(t, own.Friends[0].ShowName)

	for _, viewer := range []string{e, ""} {
		p, err := f.users.Get(ctx, a, viewer)
		require.NoError(t, err)
		require.Len(t, p.Friends, 1)
		assert.Equal(t, "Owl", p.Friends[0].Friend.DisplayName)
		assert.Empty(t, p.Friends[0].Friend.Name)
		assert.False(t, p.Friends[0].ShowName)
	}
}

func TestGoals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.signup(t, "Ann", "Fox", "a@x.com")

	_, err := f.users.AddGoal(ctx, a, "run")
	require.NoError(t, err)
	_, err = f.users.AddGoal(ctx, a, "read")
	require.NoError(t, err)
	_, err = f.users.AddGoal(ctx, a, "run")
	require.NoError(t, err)

	u, err := f.users.UpdateGoal(ctx, a, "run", "swim")
	require.NoError(t, err)
	assert.Equal(t, []string{"swim", "read", "run"}, u.Goals)

	u, err = f.users.DeleteGoal(ctx, a, "run")
	require.NoError(t, err)
	assert.Equal(t, []string{"swim", "read"}, u.Goals)

	_, err = f.users.UpdateGoal(ctx, a, "fly", "x")
	assert.True(t, errors.Is(err, ErrOldGoalNotFound))

	_, err = f.users.AddGoal(ctx, a, "   ")
	assert.True(t, errors.Is(err, apperror.ErrValidation))

	_, err = f.users.AddGoal(ctx, "nobody", "run")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}
