package postgres_test

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/taskhub-api/internal/domain"
	"github.com/phrazzld/taskhub-api/internal/platform/logger"
	"github.com/phrazzld/taskhub-api/internal/platform/postgres"
	"github.com/phrazzld/taskhub-api/internal/store"
	"github.com/phrazzld/taskhub-api/internal/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

var userCols = []string{"id", "name", "email", "created_at", "updated_at"}

var taskCols = []string{"id", "user_id", "name", "description", "status", "created_at", "updated_at"}

func TestPostgresUserStore_Save(t *testing.T) {
	ctx := context.Background()
	log, _ := logger.NewTestLogger(t)
	u := storetest.NewUser(t, "Jane Doe", "jane@example.com")

	t.Run("upserts", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
			WithArgs(u.ID.String(), "Jane Doe", "jane@example.com", u.CreatedAt, u.UpdatedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))

		saved, err := postgres.NewPostgresUserStore(db, log).Save(ctx, u)
		require.NoError(t, err)
		assert.Equal(t, u, saved)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("email conflict", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

		_, err := postgres.NewPostgresUserStore(db, log).Save(ctx, u)
		assert.ErrorIs(t, err, store.ErrEmailExists)
		assert.ErrorIs(t, err, store.ErrDuplicate)
	})

	t.Run("write failure carries entity and operation", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
			WillReturnError(&pgconn.PgError{Code: "23514", ConstraintName: "users_name_check"})

		_, err := postgres.NewPostgresUserStore(db, log).Save(ctx, u)
		var se *store.StoreError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, "user", se.Entity)
		assert.Equal(t, "save", se.Operation)
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
		assert.Contains(t, err.Error(), "save operation on user failed")
	})
}

func TestPostgresUserStore_FindByID(t *testing.T) {
	ctx := context.Background()
	log, _ := logger.NewTestLogger(t)
	u := storetest.NewUser(t, "Jane Doe", "jane@example.com")

	t.Run("found", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
			WithArgs(u.ID.String()).
			WillReturnRows(sqlmock.NewRows(userCols).
				AddRow(u.ID.String(), "Jane Doe", "jane@example.com", u.CreatedAt, u.UpdatedAt))

		got, err := postgres.NewPostgresUserStore(db, log).FindByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, u, got)
	})

	t.Run("missing", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
			WillReturnRows(sqlmock.NewRows(userCols))

		_, err := postgres.NewPostgresUserStore(db, log).FindByID(ctx, u.ID)
		assert.ErrorIs(t, err, store.ErrUserNotFound)
	})

	t.Run("corrupt row", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
			WillReturnRows(sqlmock.NewRows(userCols).
				AddRow(u.ID.String(), "J", "jane@example.com", u.CreatedAt, u.UpdatedAt))

		_, err := postgres.NewPostgresUserStore(db, log).FindByID(ctx, u.ID)
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
		assert.Equal(t, domain.KindUnknown, domain.KindOf(err))
	})
}

func TestPostgresUserStore_ExistsByEmail(t *testing.T) {
	db, mock := newMock(t)
	log, _ := logger.NewTestLogger(t)
	email, err := domain.NewEmail("jane@example.com")
	require.NoError(t, err)
	self := domain.NewID()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs("jane@example.com", self.String()).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	taken, err := postgres.NewPostgresUserStore(db, log).ExistsByEmail(context.Background(), email, self)
	require.NoError(t, err)
	assert.True(t, taken)
}

func TestPostgresTaskStore_Queries(t *testing.T) {
	ctx := context.Background()
	log, _ := logger.NewTestLogger(t)
	owner := domain.NewID()
	task := storetest.NewTask(t, owner, "first")

	t.Run("by user and status", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = $1 AND status = $2")).
			WithArgs(owner.String(), "NOT_STARTED").
			WillReturnRows(sqlmock.NewRows(taskCols).AddRow(
				task.ID.String(), owner.String(), "first", task.Description, "NOT_STARTED",
				task.CreatedAt, task.UpdatedAt))

		got, err := postgres.NewPostgresTaskStore(db, log).
			FindByUserAndStatus(ctx, owner, domain.StatusNotStarted)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, task, got[0])
	})

	t.Run("empty result is an empty slice", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM tasks ORDER BY")).
			WillReturnRows(sqlmock.NewRows(taskCols))

		got, err := postgres.NewPostgresTaskStore(db, log).FindAll(ctx)
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("unknown status in row", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM tasks WHERE id = $1")).
			WillReturnRows(sqlmock.NewRows(taskCols).AddRow(
				task.ID.String(), owner.String(), "first", "", "ARCHIVED",
				time.Now(), time.Now()))

		_, err := postgres.NewPostgresTaskStore(db, log).FindByID(ctx, task.ID)
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
	})

	t.Run("missing", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM tasks WHERE id = $1")).
			WillReturnRows(sqlmock.NewRows(taskCols))

		_, err := postgres.NewPostgresTaskStore(db, log).FindByID(ctx, task.ID)
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
		assert.True(t, store.IsNotFoundError(err))
	})

	t.Run("unknown owner", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO tasks")).
			WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "tasks_user_id_fkey"})

		_, err := postgres.NewPostgresTaskStore(db, log).Save(ctx, task)
		var se *store.StoreError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, "task", se.Entity)
		assert.Equal(t, "save", se.Operation)
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
		assert.False(t, store.IsDuplicateError(err))
	})

	t.Run("query failure", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM tasks ORDER BY")).
			WillReturnError(&pgconn.PgError{Code: "57014", Message: "canceling statement"})

		_, err := postgres.NewPostgresTaskStore(db, log).FindAll(ctx)
		var se *store.StoreError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, "list", se.Operation)
		assert.False(t, store.IsNotFoundError(err))
	})
}

func TestTransactor_RollsBackOnError(t *testing.T) {
	db, mock := newMock(t)
	log, _ := logger.NewTestLogger(t)
	owner := domain.NewID()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM tasks WHERE user_id = $1")).
		WithArgs(owner.String()).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id = $1")).
		WillReturnError(&pgconn.PgError{Code: "57014", Message: "canceling statement"})
	mock.ExpectRollback()

	err := postgres.NewTransactor(db, log).WithinTx(context.Background(),
		func(ctx context.Context, stores store.Stores) error {
			if err := stores.Tasks.DeleteByUser(ctx, owner); err != nil {
				return err
			}
			return stores.Users.Delete(ctx, owner)
		})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
