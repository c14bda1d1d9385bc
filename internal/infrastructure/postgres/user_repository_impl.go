package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/oksasatya/circle-up/internal/domain/entity"
	"github.com/oksasatya/circle-up/internal/domain/repository"
	"github.com/oksasatya/circle-up/pkg/apperror"
)

const (
	msgUserNotFound   = "User not found"
	msgFriendNotFound = "Friend not found"
	msgEmailTaken     = "Email already exists"
	msgAlreadyFriends = "You are already friends"
)

const userColumns = `id::text, name, anonymous_name, email, password, picture, goals, created_at, updated_at`

type UserRepository struct {
	db DB
}

func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row pgx.Row) (*entity.User, error) {
	u := &entity.User{}
	if err := row.Scan(&u.ID, &u.Name, &u.AnonymousName, &u.Email, &u.Password, &u.Picture,
		&u.Goals, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	if u.Goals == nil {
		u.Goals = []string{}
	}
	return u, nil
}

func validIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id); err == nil {
			out = append(out, id)
		}
	}
	return out
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	if err := u.Validate(); err != nil {
		return err
	}
	goals := u.Goals
	if goals == nil {
		goals = []string{}
	}
	row := r.db.QueryRow(ctx, `
		INSERT INTO users (name, anonymous_name, email, password, picture, goals)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id::text, created_at, updated_at
	`, u.Name, u.AnonymousName, u.Email, u.Password, u.Picture, goals)

	if err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return mapError(err, msgUserNotFound, msgEmailTaken)
	}
	u.Goals = goals
	u.Friends = []entity.FriendEdge{}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperror.NotFound(msgUserNotFound)
	}
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, mapError(err, msgUserNotFound, "")
	}
	if err := r.attachEdges(ctx, []*entity.User{u}); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		return nil, mapError(err, msgUserNotFound, "")
	}
	if err := r.attachEdges(ctx, []*entity.User{u}); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) GetMany(ctx context.Context, ids []string) ([]*entity.User, error) {
	ids = validIDs(ids)
	if len(ids) == 0 {
		return []*entity.User{}, nil
	}
	return r.listWhere(ctx, `WHERE id = ANY($1::uuid[])`, ids)
}

func (r *UserRepository) List(ctx context.Context) ([]*entity.User, error) {
	return r.listWhere(ctx, "")
}

func (r *UserRepository) listWhere(ctx context.Context, where string, args ...any) ([]*entity.User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users `+where+` ORDER BY created_at, id`, args...)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	defer rows.Close()

	users := []*entity.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, apperror.Internal(err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Internal(err)
	}
	if err := r.attachEdges(ctx, users); err != nil {
		return nil, err
	}
	return users, nil
}

// attachEdges loads the friend edges owned by users in one query.
func (r *UserRepository) attachEdges(ctx context.Context, users []*entity.User) error {
	if len(users) == 0 {
		return nil
	}
	byID := make(map[string]*entity.User, len(users))
	ids := make([]string, 0, len(users))
	for _, u := range users {
		u.Friends = []entity.FriendEdge{}
		byID[u.ID] = u
		ids = append(ids, u.ID)
	}
	rows, err := r.db.Query(ctx, `
		SELECT owner_id::text, peer_id::text, show_name, created_at
		FROM friend_edges
		WHERE owner_id = ANY($1::uuid[])
		ORDER BY created_at, peer_id
	`, ids)
	if err != nil {
		return apperror.Internal(err)
	}
	defer rows.Close()

	for rows.Next() {
		var owner string
		var e entity.FriendEdge
		if err := rows.Scan(&owner, &e.PeerID, &e.ShowName, &e.CreatedAt); err != nil {
			return apperror.Internal(err)
		}
		if u, ok := byID[owner]; ok {
			u.Friends = append(u.Friends, e)
		}
	}
	if err := rows.Err(); err != nil {
		return apperror.Internal(err)
	}
	return nil
}

func (r *UserRepository) AddFriendship(ctx context.Context, a, b string) error {
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		const q = `INSERT INTO friend_edges (owner_id, peer_id, show_name) VALUES ($1, $2, false)`
		if _, err := tx.Exec(ctx, q, a, b); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, q, b, a)
		return err
	})
	return mapError(err, msgUserNotFound, msgAlreadyFriends)
}

func (r *UserRepository) SetShowName(ctx context.Context, ownerID, peerID string, value bool) error {
	if len(validIDs([]string{ownerID, peerID})) != 2 {
		return apperror.NotFound(msgFriendNotFound)
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE friend_edges SET show_name = $3
		WHERE owner_id = $1 AND peer_id = $2
	`, ownerID, peerID, value)
	if err != nil {
		return mapError(err, msgFriendNotFound, "")
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound(msgFriendNotFound)
	}
	return nil
}

func (r *UserRepository) AppendGoal(ctx context.Context, userID, goal string) (*entity.User, error) {
	return r.updateGoals(ctx, `goals = array_append(goals, $2::text)`, userID, goal)
}

// RemoveGoal drops every occurrence of goal.
func (r *UserRepository) RemoveGoal(ctx context.Context, userID, goal string) (*entity.User, error) {
	return r.updateGoals(ctx, `goals = array_remove(goals, $2::text)`, userID, goal)
}

func (r *UserRepository) ReplaceGoals(ctx context.Context, userID string, goals []string) (*entity.User, error) {
	if goals == nil {
		goals = []string{}
	}
	return r.updateGoals(ctx, `goals = $2`, userID, goals)
}

func (r *UserRepository) updateGoals(ctx context.Context, set, userID string, arg any) (*entity.User, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, apperror.NotFound(msgUserNotFound)
	}
	u, err := scanUser(r.db.QueryRow(ctx, `
		UPDATE users SET `+set+`, updated_at = now()
		WHERE id = $1
		RETURNING `+userColumns, userID, arg))
	if err != nil {
		return nil, mapError(err, msgUserNotFound, "")
	}
	if err := r.attachEdges(ctx, []*entity.User{u}); err != nil {
		return nil, err
	}
	return u, nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
