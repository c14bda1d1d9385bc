package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/oksasatya/circle-up/internal/domain/entity"
	"github.com/oksasatya/circle-up/internal/domain/repository"
	"github.com/oksasatya/circle-up/pkg/apperror"
)

const msgCommunityNotFound = "Community not found"

const communityColumns = `c.id::text, c.name, c.description, c.admin_id::text, c.created_at, c.updated_at`

type CommunityRepository struct {
	db DB
}

func NewCommunityRepository(db DB) *CommunityRepository {
	return &CommunityRepository{db: db}
}

// Create stores the community and its admin as the first member.
func (r *CommunityRepository) Create(ctx context.Context, c *entity.Community) error {
	if err := c.Validate(); err != nil {
		return err
	}
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			INSERT INTO communities (name, description, admin_id)
			VALUES ($1, $2, $3)
			RETURNING id::text, created_at, updated_at
		`, c.Name, c.Description, c.AdminID)
		if err := row.Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `INSERT INTO community_members (community_id, user_id) VALUES ($1, $2)`, c.ID, c.AdminID)
		return err
	})
	if err != nil {
		return mapError(err, msgUserNotFound, "")
	}
	c.Members = []string{c.AdminID}
	return nil
}

func (r *CommunityRepository) GetByID(ctx context.Context, id string) (*entity.Community, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperror.NotFound(msgCommunityNotFound)
	}
	c := &entity.Community{}
	row := r.db.QueryRow(ctx, `SELECT `+communityColumns+` FROM communities c WHERE c.id = $1`, id)
	if err := row.Scan(&c.ID, &c.Name, &c.Description, &c.AdminID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, mapError(err, msgCommunityNotFound, "")
	}
	if err := r.attachMembers(ctx, []*entity.Community{c}); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *CommunityRepository) List(ctx context.Context) ([]*entity.Community, error) {
	return r.listWhere(ctx, `SELECT `+communityColumns+` FROM communities c ORDER BY c.created_at, c.id`)
}

func (r *CommunityRepository) ListByMember(ctx context.Context, userID string) ([]*entity.Community, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return []*entity.Community{}, nil
	}
	return r.listWhere(ctx, `
		SELECT `+communityColumns+`
		FROM communities c
		JOIN community_members m ON m.community_id = c.id
		WHERE m.user_id = $1
		ORDER BY c.created_at, c.id
	`, userID)
}

func (r *CommunityRepository) listWhere(ctx context.Context, q string, args ...any) ([]*entity.Community, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	defer rows.Close()

	out := []*entity.Community{}
	for rows.Next() {
		c := &entity.Community{}
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.AdminID, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, apperror.Internal(err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Internal(err)
	}
	if err := r.attachMembers(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *CommunityRepository) attachMembers(ctx context.Context, cs []*entity.Community) error {
	if len(cs) == 0 {
		return nil
	}
	byID := make(map[string]*entity.Community, len(cs))
	ids := make([]string, 0, len(cs))
	for _, c := range cs {
		c.Members = []string{}
		byID[c.ID] = c
		ids = append(ids, c.ID)
	}
	rows, err := r.db.Query(ctx, `
		SELECT community_id::text, user_id::text
		FROM community_members
		WHERE community_id = ANY($1::uuid[])
		ORDER BY added_at, user_id
	`, ids)
	if err != nil {
		return apperror.Internal(err)
	}
	defer rows.Close()

	for rows.Next() {
		var cid, uid string
		if err := rows.Scan(&cid, &uid); err != nil {
			return apperror.Internal(err)
		}
		if c, ok := byID[cid]; ok {
			c.Members = append(c.Members, uid)
		}
	}
	if err := rows.Err(); err != nil {
		return apperror.Internal(err)
	}
	return nil
}

// AddMembers merges userIDs into the member set; existing members are kept.
func (r *CommunityRepository) AddMembers(ctx context.Context, communityID string, userIDs []string) (*entity.Community, error) {
	ids := validIDs(userIDs)
	if len(ids) > 0 {
		err := withTx(ctx, r.db, func(tx pgx.Tx) error {
			for _, uid := range ids {
				if _, err := tx.Exec(ctx, `
					INSERT INTO community_members (community_id, user_id) VALUES ($1, $2)
					ON CONFLICT (community_id, user_id) DO NOTHING
				`, communityID, uid); err != nil {
					return err
				}
			}
			_, err := tx.Exec(ctx, `UPDATE communities SET updated_at = now() WHERE id = $1`, communityID)
			return err
		})
		if err != nil {
			return nil, mapError(err, msgUserNotFound, "")
		}
	}
	return r.GetByID(ctx, communityID)
}

var _ repository.CommunityRepository = (*CommunityRepository)(nil)
