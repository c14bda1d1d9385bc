package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/circle-up/internal/domain/entity"
	"github.com/oksasatya/circle-up/pkg/apperror"
)

func seedUser(t *testing.T, repo *UserRepository, email string) *entity.User {
	t.Helper()
	u := &entity.User{Name: email, AnonymousName: "anon-" + email, Email: email, Password: "x"}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func TestUserRepository_DuplicateEmailIsConflict(t *testing.T) {
	repo := NewStore().Users()
	seedUser(t, repo, "a@x")

	err := repo.Create(context.Background(), &entity.User{AnonymousName: "Z", Email: "A@x", Password: "x"})

	assert.True(t, errors.Is(err, apperror.ErrConflict))
}

func TestUserRepository_ReturnsCopies(t *testing.T) {
	repo := NewStore().Users()
	u := seedUser(t, repo, "a@x")

	got, err := repo.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	got.Goals = append(got.Goals, "leak")

	again, _ := repo.GetByID(context.Background(), u.ID)
	assert.Empty(t, again.Goals)
}

func TestUserRepository_FriendshipAndGoals(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Users()
	a := seedUser(t, repo, "a@x")
	b := seedUser(t, repo, "b@x")

	require.NoError(t, repo.AddFriendship(ctx, a.ID, b.ID))
	assert.True(t, errors.Is(repo.AddFriendship(ctx, b.ID, a.ID), apperror.ErrConflict))
	require.NoError(t, repo.SetShowName(ctx, b.ID, a.ID, true))

	gotB, _ := repo.GetByID(ctx, b.ID)
	e, ok := gotB.Edge(a.ID)
	require.True(t, ok)
	assert.True(t, e.ShowName)

	_, _ = repo.AppendGoal(ctx, a.ID, "run")
	_, _ = repo.AppendGoal(ctx, a.ID, "read")
	u, err := repo.AppendGoal(ctx, a.ID, "run")
	require.NoError(t, err)
	assert.Equal(t, []string{"run", "read", "run"}, u.Goals)

	u, err = repo.RemoveGoal(ctx, a.ID, "run")
	require.NoError(t, err)
	assert.Equal(t, []string{"read"}, u.Goals)
}

func TestDirectMessageRepository_ConversationOrderedByTimestamp(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	a := seedUser(t, s.Users(), "a@x")
	b := seedUser(t, s.Users(), "b@x")
	c := seedUser(t, s.Users(), "c@x")
	dms := s.DirectMessages()
	t0 := time.Now()

	require.NoError(t, dms.Create(ctx, &entity.DirectMessage{SenderID: b.ID, ReceiverID: a.ID, Message: "2", Timestamp: t0.Add(time.Second)}))
	require.NoError(t, dms.Create(ctx, &entity.DirectMessage{SenderID: a.ID, ReceiverID: b.ID, Message: "1", Timestamp: t0}))
	require.NoError(t, dms.Create(ctx, &entity.DirectMessage{SenderID: a.ID, ReceiverID: c.ID, Message: "other", Timestamp: t0}))

	msgs, err := dms.Conversation(ctx, a.ID, b.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "1", msgs[0].Message)
	assert.Equal(t, "2", msgs[1].Message)
}

func TestCommunityRepository_CreateAndAddMembers(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	a := seedUser(t, s.Users(), "a@x")
	b := seedUser(t, s.Users(), "b@x")
	repo := s.Communities()

	c := &entity.Community{Name: "Hikers", AdminID: a.ID}
	require.NoError(t, repo.Create(ctx, c))
	assert.Equal(t, []string{a.ID}, c.Members)

	got, err := repo.AddMembers(ctx, c.ID, []string{b.ID, a.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID, b.ID}, got.Members)

	mine, _ := repo.ListByMember(ctx, b.ID)
	assert.Len(t, mine, 1)

	_, err = repo.AddMembers(ctx, c.ID, []string{"ghost"})
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestCommunityMessageRepository_ResolvesSender(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	a := seedUser(t, s.Users(), "a@x")
	c := &entity.Community{Name: "Hikers", AdminID: a.ID}
	require.NoError(t, s.Communities().Create(ctx, c))

	m := &entity.CommunityMessage{CommunityID: c.ID, SenderID: a.ID, Message: "hello"}
	require.NoError(t, s.CommunityMessages().Create(ctx, m))

	v, err := s.CommunityMessages().GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@x", v.Sender.Email)
	assert.Equal(t, "a@x", v.Sender.Name)
}
