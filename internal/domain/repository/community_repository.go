package repository

import (
	"context"

	"github.com/oksasatya/circle-up/internal/domain/entity"
)

type CommunityRepository interface {
	Create(ctx context.Context, c *entity.Community) error
	GetByID(ctx context.Context, id string) (*entity.Community, error)
	List(ctx context.Context) ([]*entity.Community, error)
	ListByMember(ctx context.Context, userID string) ([]*entity.Community, error)
	AddMembers(ctx context.Context, communityID string, userIDs []string) (*entity.Community, error)
}
