package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/oksasatya/circle-up/internal/domain/entity"
	"github.com/oksasatya/circle-up/internal/domain/repository"
	"github.com/oksasatya/circle-up/pkg/apperror"
)

const msgMessageNotFound = "Message not found"

type DirectMessageRepository struct {
	db DB
}

func NewDirectMessageRepository(db DB) *DirectMessageRepository {
	return &DirectMessageRepository{db: db}
}

func (r *DirectMessageRepository) Create(ctx context.Context, m *entity.DirectMessage) error {
	if err := m.Validate(); err != nil {
		return err
	}
	if len(validIDs([]string{m.SenderID, m.ReceiverID})) != 2 {
		return apperror.NotFound(msgUserNotFound)
	}
	row := r.db.QueryRow(ctx, `
		INSERT INTO direct_messages (sender_id, receiver_id, message, sent_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id::text
	`, m.SenderID, m.ReceiverID, m.Message, m.Timestamp)
	if err := row.Scan(&m.ID); err != nil {
		return mapError(err, msgUserNotFound, "")
	}
	return nil
}

func (r *DirectMessageRepository) Conversation(ctx context.Context, a, b string) ([]*entity.DirectMessage, error) {
	out := []*entity.DirectMessage{}
	if len(validIDs([]string{a, b})) != 2 {
		return out, nil
	}
	rows, err := r.db.Query(ctx, `
		SELECT id::text, sender_id::text, receiver_id::text, message, sent_at
		FROM direct_messages
		WHERE (sender_id = $1 AND receiver_id = $2)
		   OR (sender_id = $2 AND receiver_id = $1)
		ORDER BY sent_at, seq
	`, a, b)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	defer rows.Close()

	for rows.Next() {
		m := &entity.DirectMessage{}
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Message, &m.Timestamp); err != nil {
			return nil, apperror.Internal(err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Internal(err)
	}
	return out, nil
}

var _ repository.DirectMessageRepository = (*DirectMessageRepository)(nil)

type CommunityMessageRepository struct {
	db DB
}

func NewCommunityMessageRepository(db DB) *CommunityMessageRepository {
	return &CommunityMessageRepository{db: db}
}

const communityMessageSelect = `
	SELECT m.id::text, m.community_id::text, m.sender_id::text, m.message, m.created_at, m.updated_at,
	       u.name, u.email
	FROM community_messages m
	JOIN users u ON u.id = m.sender_id
`

func (r *CommunityMessageRepository) Create(ctx context.Context, m *entity.CommunityMessage) error {
	if err := m.Validate(); err != nil {
		return err
	}
	if len(validIDs([]string{m.CommunityID, m.SenderID})) != 2 {
		return apperror.NotFound(msgCommunityNotFound)
	}
	row := r.db.QueryRow(ctx, `
		INSERT INTO community_messages (community_id, sender_id, message)
		VALUES ($1, $2, $3)
		RETURNING id::text, created_at, updated_at
	`, m.CommunityID, m.SenderID, m.Message)
	if err := row.Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return mapError(err, msgCommunityNotFound, "")
	}
	return nil
}

func scanCommunityMessage(row interface{ Scan(dest ...any) error }) (*entity.CommunityMessageView, error) {
	v := &entity.CommunityMessageView{}
	if err := row.Scan(&v.ID, &v.CommunityID, &v.SenderID, &v.Message, &v.CreatedAt, &v.UpdatedAt,
		&v.Sender.Name, &v.Sender.Email); err != nil {
		return nil, err
	}
	v.Sender.ID = v.SenderID
	return v, nil
}

func (r *CommunityMessageRepository) GetByID(ctx context.Context, id string) (*entity.CommunityMessageView, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperror.NotFound(msgMessageNotFound)
	}
	v, err := scanCommunityMessage(r.db.QueryRow(ctx, communityMessageSelect+` WHERE m.id = $1`, id))
	if err != nil {
		return nil, mapError(err, msgMessageNotFound, "")
	}
	return v, nil
}

func (r *CommunityMessageRepository) ListByCommunity(ctx context.Context, communityID string) ([]*entity.CommunityMessageView, error) {
	out := []*entity.CommunityMessageView{}
	if _, err := uuid.Parse(communityID); err != nil {
		return out, nil
	}
	rows, err := r.db.Query(ctx, communityMessageSelect+`
		WHERE m.community_id = $1
		ORDER BY m.created_at, m.seq
	`, communityID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	defer rows.Close()

	for rows.Next() {
		v, err := scanCommunityMessage(rows)
		if err != nil {
			return nil, apperror.Internal(err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Internal(err)
	}
	return out, nil
}

var _ repository.CommunityMessageRepository = (*CommunityMessageRepository)(nil)
