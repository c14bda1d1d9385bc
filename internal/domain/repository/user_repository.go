package repository

import (
	"context"

	"github.com/oksasatya/circle-up/internal/domain/entity"
)

// UserRepository stores users together with the friend edges they own.
// Lookups return apperror NotFound when the user does not exist.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	// GetMany returns the users found among ids; missing ids are skipped.
	GetMany(ctx context.Context, ids []string) ([]*entity.User, error)
	List(ctx context.Context) ([]*entity.User, error)

	// AddFriendship writes a->b and b->a with ShowName false atomically.
	AddFriendship(ctx context.Context, a, b string) error
	SetShowName(ctx context.Context, ownerID, peerID string, value bool) error

	AppendGoal(ctx context.Context, userID, goal string) (*entity.User, error)
	RemoveGoal(ctx context.Context, userID, goal string) (*entity.User, error)
	ReplaceGoals(ctx context.Context, userID string, goals []string) (*entity.User, error)
}
