package sqlite

import (
	"context"
	"errors"
	"log/slog"

	"github.com/phrazzld/taskhub-api/internal/domain"
	"github.com/phrazzld/taskhub-api/internal/redact"
	"github.com/phrazzld/taskhub-api/internal/store"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TaskStore implements store.TaskStore on gorm.
type TaskStore struct {
	db     *gorm.DB
	logger *slog.Logger
}

var _ store.TaskStore = (*TaskStore)(nil)

// NewTaskStore creates a TaskStore. db may be a transaction handle.
func NewTaskStore(db *gorm.DB, logger *slog.Logger) *TaskStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskStore{db: db, logger: logger.With(slog.String("component", "task_store"))}
}

// Save upserts the task on its id. The owner is fixed at creation.
func (s *TaskStore) Save(ctx context.Context, task domain.Task) (domain.Task, error) {
	row := toTaskRow(task)
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "description", "status", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		s.logger.Error("failed to save task",
			"task_id", task.ID,
			"status", task.Status,
			"error", redact.Error(err))
		return domain.Task{}, store.NewStoreError("task", "save", "write failed", mapError(err))
	}
	return task, nil
}

// FindByID implements store.TaskStore.FindByID
func (s *TaskStore) FindByID(ctx context.Context, id domain.ID) (domain.Task, error) {
	var row taskRow
	err := s.db.WithContext(ctx).Where("id = ?", id.String()).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Task{}, store.ErrTaskNotFound
	}
	if err != nil {
		s.logger.Error("failed to load task", "task_id", id, "error", redact.Error(err))
		return domain.Task{}, store.NewStoreError("task", "find", "read failed", mapError(err))
	}
	t, err := row.toDomain()
	if err != nil {
		s.logger.Error("failed to decode task row", "task_id", row.ID, "error", err)
		return domain.Task{}, corruptRow("task", err)
	}
	return t, nil
}

// FindByUser implements store.TaskStore.FindByUser
func (s *TaskStore) FindByUser(ctx context.Context, userID domain.ID) ([]domain.Task, error) {
	return s.find(ctx, s.db.WithContext(ctx).Where("user_id = ?", userID.String()))
}

// FindByUserAndStatus implements store.TaskStore.FindByUserAndStatus
func (s *TaskStore) FindByUserAndStatus(
	ctx context.Context,
	userID domain.ID,
	status domain.TaskStatus,
) ([]domain.Task, error) {
	return s.find(ctx, s.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID.String(), status.String()))
}

// FindAll implements store.TaskStore.FindAll
func (s *TaskStore) FindAll(ctx context.Context) ([]domain.Task, error) {
	return s.find(ctx, s.db.WithContext(ctx))
}

// Delete implements store.TaskStore.Delete
func (s *TaskStore) Delete(ctx context.Context, id domain.ID) error {
	if err := s.db.WithContext(ctx).Where("id = ?", id.String()).Delete(&taskRow{}).Error; err != nil {
		s.logger.Error("failed to delete task", "task_id", id, "error", redact.Error(err))
		return store.NewStoreError("task", "delete", "write failed", mapError(err))
	}
	return nil
}

// DeleteByUser implements store.TaskStore.DeleteByUser
func (s *TaskStore) DeleteByUser(ctx context.Context, userID domain.ID) error {
	res := s.db.WithContext(ctx).Where("user_id = ?", userID.String()).Delete(&taskRow{})
	if res.Error != nil {
		s.logger.Error("failed to delete tasks of user", "user_id", userID, "error", redact.Error(res.Error))
		return store.NewStoreError("task", "delete_by_user", "write failed", mapError(res.Error))
	}
	s.logger.Debug("deleted tasks of user", "user_id", userID, "count", res.RowsAffected)
	return nil
}

// ExistsByID implements store.TaskStore.ExistsByID
func (s *TaskStore) ExistsByID(ctx context.Context, id domain.ID) (bool, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&taskRow{}).Where("id = ?", id.String()).Count(&n).Error; err != nil {
		s.logger.Error("failed to check task", "task_id", id, "error", redact.Error(err))
		return false, store.NewStoreError("task", "exists", "read failed", mapError(err))
	}
	return n > 0, nil
}

func (s *TaskStore) find(ctx context.Context, q *gorm.DB) ([]domain.Task, error) {
	var rows []taskRow
	if err := q.Order("created_at, id").Find(&rows).Error; err != nil {
		s.logger.Error("failed to query tasks", "error", redact.Error(err))
		return nil, store.NewStoreError("task", "list", "query failed", mapError(err))
	}
	tasks := make([]domain.Task, 0, len(rows))
	for _, r := range rows {
		t, err := r.toDomain()
		if err != nil {
			s.logger.Error("failed to decode task row", "task_id", r.ID, "error", err)
			return nil, corruptRow("task", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}
