package application

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	repo "github.com/oksasatya/circle-up/internal/domain/repository"
	"github.com/oksasatya/circle-up/internal/domain/visibility"
	"github.com/oksasatya/circle-up/pkg/apperror"
	"github.com/oksasatya/circle-up/pkg/helpers"
	mailtpl "github.com/oksasatya/circle-up/pkg/mailer/templates"
)

var (
	ErrSelfFriend     = apperror.Conflict("You cannot add yourself as a friend")
	ErrAlreadyFriends = apperror.Conflict("You are already friends")
	ErrFriendNotFound = apperror.NotFound("Friend not found")
)

// FriendService maintains the symmetric friend graph and per-edge visibility.
type FriendService struct {
	Users    repo.UserRepository
	Notifier *Notifier
	MailBase mailtpl.Base
	Logger   *logrus.Logger
}

func NewFriendService(users repo.UserRepository, notifier *Notifier, base mailtpl.Base, logger *logrus.Logger) *FriendService {
	if logger == nil {
		logger = helpers.NewNopLogger()
	}
	return &FriendService{Users: users, Notifier: notifier, MailBase: base, Logger: logger}
}

// AddFriend links userID and friendID in both directions with names hidden.
func (s *FriendService) AddFriend(ctx context.Context, userID, friendID string) error {
	if userID == friendID {
		return ErrSelfFriend
	}
	a, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	b, err := s.Users.GetByID(ctx, friendID)
	if err != nil {
		return err
	}
	if a.HasFriend(b.ID) {
		return ErrAlreadyFriends
	}
	if err := s.Users.AddFriendship(ctx, a.ID, b.ID); err != nil {
		return err
	}
	s.Logger.WithFields(logrus.Fields{"user_id": a.ID, "friend_id": b.ID}).Info("friendship created")

	// a has no edge to b with ShowName yet, so b is told a's anonymous name.
	peerName := visibility.ResolveDisplayName(a, b.ID)
	s.Notifier.Enqueue(ctx, b.Email, mailtpl.FriendAdded,
		mailtpl.NewFriendAddedData(s.MailBase, b.Name, b.Email, peerName, mailtpl.WithTime(time.Now())))
	return nil
}

// SetVisibility sets whether viewerID sees ownerID's real name. The flag
// lives on owner's edge towards viewer.
func (s *FriendService) SetVisibility(ctx context.Context, ownerID, viewerID string, value bool) error {
	owner, err := s.Users.GetByID(ctx, ownerID)
	if err != nil {
		return err
	}
	if _, err := s.Users.GetByID(ctx, viewerID); err != nil {
		return err
	}
	if !owner.HasFriend(viewerID) {
		return ErrFriendNotFound
	}
	return s.Users.SetShowName(ctx, ownerID, viewerID, value)
}

// Candidates is the discovery feed: everyone viewerID is not yet linked to.
func (s *FriendService) Candidates(ctx context.Context, viewerID string) ([]UserView, error) {
	viewer, err := s.Users.GetByID(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	all, err := s.Users.List(ctx)
	if err != nil {
		return nil, err
	}
	candidates := visibility.Candidates(viewer, all)
	out := make([]UserView, 0, len(candidates))
	for _, u := range candidates {
		out = append(out, NewUserView(u, viewerID))
	}
	return out, nil
}
