package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oksasatya/circle-up/internal/infrastructure/memory"
	"github.com/oksasatya/circle-up/pkg/helpers"
	"github.com/oksasatya/circle-up/pkg/mailer"
)

type published struct {
	Room    string
	Event   string
	Payload any
}

type fakeHub struct {
	mu     sync.Mutex
	events []published
	err    error
}

func (h *fakeHub) Publish(_ context.Context, room, event string, payload any) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return h.err
	}
	h.events = append(h.events, published{Room: room, Event: event, Payload: payload})
	return nil
}

func (h *fakeHub) all() []published {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]published{}, h.events...)
}

type fakeMail struct {
	mu   sync.Mutex
	jobs []mailer.EmailJob
	err  error
}

func (m *fakeMail) PublishJSON(_ context.Context, body any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.jobs = append(m.jobs, body.(mailer.EmailJob))
	return nil
}

var errBroken = errors.New("broken pipe")

type fixture struct {
	store   *memory.Store
	users   *UserService
	friends *FriendService
	dms     *MessageService
	comms   *CommunityService
	hub     *fakeHub
	mail    *fakeMail
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	hub := &fakeHub{}
	mail := &fakeMail{}
	logger := helpers.NewNopLogger()
	notifier := &Notifier{Publisher: mail, Logger: logger}
	jwt := helpers.NewJWTManager("test-secret", 24*time.Hour, "circle-up")

	return &fixture{
		store:   store,
		users:   NewUserService(store.Users(), jwt, nil, notifier, testBase, logger),
		friends: NewFriendService(store.Users(), notifier, testBase, logger),
		dms:     NewMessageService(store.DirectMessages(), store.Users(), hub, nil, logger),
		comms:   NewCommunityService(store.Communities(), store.CommunityMessages(), store.Users(), hub, nil, "", nil, logger),
		hub:     hub,
		mail:    mail,
	}
}

func (f *fixture) signup(t *testing.T, name, anon, email string) string {
	t.Helper()
	res, err := f.users.Signup(context.Background(), SignupInput{Name: name, AnonymousName: anon, Email: email, Password: "password123"})
	require.NoError(t, err)
	return res.User.ID
}
