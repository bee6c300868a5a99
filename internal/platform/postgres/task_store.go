package postgres

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/phrazzld/taskhub-api/internal/domain"
	"github.com/phrazzld/taskhub-api/internal/redact"
	"github.com/phrazzld/taskhub-api/internal/store"
)

// PostgresTaskStore implements the store.TaskStore interface using PostgreSQL
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgresTaskStore. db may be a
// *sql.DB or a *sql.Tx.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

var _ store.TaskStore = (*PostgresTaskStore)(nil)

const taskColumns = `id, user_id, name, description, status, created_at, updated_at`

// Save implements store.TaskStore.Save as an upsert on the primary key.
func (s *PostgresTaskStore) Save(ctx context.Context, task domain.Task) (domain.Task, error) {
	query := `
		INSERT INTO tasks (id, user_id, name, description, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
		    description = EXCLUDED.description,
		    status = EXCLUDED.status,
		    updated_at = EXCLUDED.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		task.ID.String(),
		task.UserID.String(),
		task.Name.String(),
		task.Description,
		task.Status.String(),
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		s.logger.Error("failed to save task",
			"task_id", task.ID,
			"status", task.Status,
			"error", redact.Error(err))
		return domain.Task{}, store.NewStoreError("task", "save", "write failed", MapError(err))
	}
	return task, nil
}

// FindByID implements store.TaskStore.FindByID
func (s *PostgresTaskStore) FindByID(ctx context.Context, id domain.ID) (domain.Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id.String())
	t, err := scanTask(row)
	if err == nil {
		return t, nil
	}
	if errors.Is(err, store.ErrNotFound) {
		return domain.Task{}, store.ErrTaskNotFound
	}
	s.logger.Error("failed to load task", "task_id", id, "error", redact.Error(err))
	return domain.Task{}, err
}

// FindByUser implements store.TaskStore.FindByUser
func (s *PostgresTaskStore) FindByUser(ctx context.Context, userID domain.ID) ([]domain.Task, error) {
	return s.query(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE user_id = $1 ORDER BY created_at, id`,
		userID.String())
}

// FindByUserAndStatus implements store.TaskStore.FindByUserAndStatus
func (s *PostgresTaskStore) FindByUserAndStatus(
	ctx context.Context,
	userID domain.ID,
	status domain.TaskStatus,
) ([]domain.Task, error) {
	return s.query(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE user_id = $1 AND status = $2 ORDER BY created_at, id`,
		userID.String(), status.String())
}

// FindAll implements store.TaskStore.FindAll
func (s *PostgresTaskStore) FindAll(ctx context.Context) ([]domain.Task, error) {
	return s.query(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY created_at, id`)
}

// Delete implements store.TaskStore.Delete
func (s *PostgresTaskStore) Delete(ctx context.Context, id domain.ID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id.String()); err != nil {
		s.logger.Error("failed to delete task", "task_id", id, "error", redact.Error(err))
		return store.NewStoreError("task", "delete", "write failed", MapError(err))
	}
	return nil
}

// DeleteByUser implements store.TaskStore.DeleteByUser
func (s *PostgresTaskStore) DeleteByUser(ctx context.Context, userID domain.ID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE user_id = $1`, userID.String())
	if err != nil {
		s.logger.Error("failed to delete tasks of user", "user_id", userID, "error", redact.Error(err))
		return store.NewStoreError("task", "delete_by_user", "write failed", MapError(err))
	}
	if n, err := result.RowsAffected(); err == nil {
		s.logger.Debug("deleted tasks of user", "user_id", userID, "count", n)
	}
	return nil
}

// ExistsByID implements store.TaskStore.ExistsByID
func (s *PostgresTaskStore) ExistsByID(ctx context.Context, id domain.ID) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM tasks WHERE id = $1)`, id.String()).
		Scan(&exists)
	if err != nil {
		s.logger.Error("failed to check task", "task_id", id, "error", redact.Error(err))
		return false, store.NewStoreError("task", "exists", "read failed", MapError(err))
	}
	return exists, nil
}

func (s *PostgresTaskStore) query(ctx context.Context, query string, args ...any) ([]domain.Task, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		s.logger.Error("failed to query tasks", "error", redact.Error(err))
		return nil, store.NewStoreError("task", "list", "query failed", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	tasks := []domain.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			s.logger.Error("failed to scan task row", "error", redact.Error(err))
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		s.logger.Error("error iterating task rows", "error", redact.Error(err))
		return nil, store.NewStoreError("task", "list", "row iteration failed", err)
	}
	return tasks, nil
}

func scanTask(row scanner) (domain.Task, error) {
	var (
		id, userID, name, description, status string
		createdAt, updatedAt                  time.Time
	)
	if err := row.Scan(&id, &userID, &name, &description, &status, &createdAt, &updatedAt); err != nil {
		return domain.Task{}, MapError(err)
	}
	t, err := domain.RestoreTask(id, userID, name, description, status, createdAt, updatedAt)
	if err != nil {
		return domain.Task{}, corruptRow("task", err)
	}
	return t, nil
}
