package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/circle-up/internal/domain/entity"
	"github.com/oksasatya/circle-up/pkg/apperror"
)

const (
	annID = "7d9c3cf6-3c1e-4c62-9f38-4a1c9c0f0a01"
	bobID = "7d9c3cf6-3c1e-4c62-9f38-4a1c9c0f0a02"
)

var userCols = []string{"id", "name", "anonymous_name", "email", "password", "picture", "goals", "created_at", "updated_at"}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

// pgx.BeginFunc always rolls back on exit; after the tx has ended pgx
// answers that call with ErrTxClosed.
func expectCommit(mock pgxmock.PgxPoolIface) {
	mock.ExpectCommit()
	mock.ExpectRollback().WillReturnError(pgx.ErrTxClosed)
}

func expectRollback(mock pgxmock.PgxPoolIface) {
	mock.ExpectRollback()
	mock.ExpectRollback().WillReturnError(pgx.ErrTxClosed)
}

func TestUserRepository_Create(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)
	now := time.Now()

	mock.ExpectQuery("INSERT INTO users").
		WithArgs("Ann", "Fox", "ann@example.com", "hash", "", []string{}).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(annID, now, now))

	u := &entity.User{Name: "Ann", AnonymousName: "Fox", Email: "ann@example.com", Password: "hash"}
	require.NoError(t, repo.Create(context.Background(), u))

	assert.Equal(t, annID, u.ID)
	assert.Empty(t, u.Friends)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_CreateDuplicateEmail(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)

	mock.ExpectQuery("INSERT INTO users").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: uniqueViolation})

	err := repo.Create(context.Background(), &entity.User{Name: "Ann", AnonymousName: "Fox", Email: "ann@example.com", Password: "x"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrConflict))
	assert.Equal(t, msgEmailTaken, err.Error())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_CreateRejectsMissingAnonymousName(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)

	err := repo.Create(context.Background(), &entity.User{Email: "a@x", Password: "x"})

	assert.True(t, errors.Is(err, apperror.ErrValidation))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByIDLoadsEdges(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)
	now := time.Now()

	mock.ExpectQuery("FROM users WHERE id").
		WithArgs(annID).
		WillReturnRows(pgxmock.NewRows(userCols).
			AddRow(annID, "Ann", "Fox", "ann@example.com", "hash", "", []string{"hike"}, now, now))
	mock.ExpectQuery("FROM friend_edges").
		WithArgs([]string{annID}).
		WillReturnRows(pgxmock.NewRows([]string{"owner_id", "peer_id", "show_name", "created_at"}).
			AddRow(annID, bobID, true, now))

	u, err := repo.GetByID(context.Background(), annID)
	require.NoError(t, err)

	assert.Equal(t, []string{"hike"}, u.Goals)
	require.Len(t, u.Friends, 1)
	assert.Equal(t, bobID, u.Friends[0].PeerID)
	assert.True(t, u.Friends[0].ShowName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByIDNotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)

	mock.ExpectQuery("FROM users WHERE id").WithArgs(annID).WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), annID)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))

	_, err = repo.GetByID(context.Background(), "not-a-uuid")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_AddFriendshipWritesBothEdgesInTx(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO friend_edges").WithArgs(annID, bobID).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO friend_edges").WithArgs(bobID, annID).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	expectCommit(mock)

	require.NoError(t, repo.AddFriendship(context.Background(), annID, bobID))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_AddFriendshipRollsBackOnDuplicate(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO friend_edges").WithArgs(annID, bobID).WillReturnError(&pgconn.PgError{Code: uniqueViolation})
	expectRollback(mock)

	err := repo.AddFriendship(context.Background(), annID, bobID)

	assert.True(t, errors.Is(err, apperror.ErrConflict))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_SetShowName(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)

	mock.ExpectExec("UPDATE friend_edges SET show_name").
		WithArgs(bobID, annID, true).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE friend_edges SET show_name").
		WithArgs(annID, bobID, true).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	require.NoError(t, repo.SetShowName(context.Background(), bobID, annID, true))

	err := repo.SetShowName(context.Background(), annID, bobID, true)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_RemoveGoalUsesArrayRemove(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)
	now := time.Now()

	mock.ExpectQuery("array_remove").
		WithArgs(annID, "hike").
		WillReturnRows(pgxmock.NewRows(userCols).
			AddRow(annID, "Ann", "Fox", "ann@example.com", "hash", "", []string{}, now, now))
	mock.ExpectQuery("FROM friend_edges").
		WithArgs([]string{annID}).
		WillReturnRows(pgxmock.NewRows([]string{"owner_id", "peer_id", "show_name", "created_at"}))

	u, err := repo.RemoveGoal(context.Background(), annID, "hike")
	require.NoError(t, err)
	assert.Empty(t, u.Goals)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMapError(t *testing.T) {
	assert.Nil(t, mapError(nil, "nf", "c"))
	assert.True(t, errors.Is(mapError(&pgconn.PgError{Code: foreignKeyViolation}, "nf", ""), apperror.ErrNotFound))
	assert.True(t, errors.Is(mapError(errors.New("conn reset"), "nf", ""), apperror.ErrInternal))
	// a unique violation without a conflict message stays internal
	assert.True(t, errors.Is(mapError(&pgconn.PgError{Code: uniqueViolation}, "nf", ""), apperror.ErrInternal))
}
