package repository

import (
	"context"

	"github.com/oksasatya/circle-up/internal/domain/entity"
)

type DirectMessageRepository interface {
	Create(ctx context.Context, m *entity.DirectMessage) error
	// Conversation returns messages exchanged between a and b in either
	// direction, oldest first.
	Conversation(ctx context.Context, a, b string) ([]*entity.DirectMessage, error)
}

type CommunityMessageRepository interface {
	Create(ctx context.Context, m *entity.CommunityMessage) error
	GetByID(ctx context.Context, id string) (*entity.CommunityMessageView, error)
	// ListByCommunity returns messages oldest first with senders resolved.
	ListByCommunity(ctx context.Context, communityID string) ([]*entity.CommunityMessageView, error)
}
