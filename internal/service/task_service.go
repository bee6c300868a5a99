package service

import (
	"context"
	"log/slog"

	"github.com/phrazzld/taskhub-api/internal/domain"
	"github.com/phrazzld/taskhub-api/internal/redact"
	"github.com/phrazzld/taskhub-api/internal/store"
)

// TaskPatch carries the fields of a partial task update; nil means "leave as is".
type TaskPatch struct {
	Name        *string
	Description *string
}

// TaskService provides task management operations.
type TaskService interface {
	// CreateTask adds a NOT_STARTED task for an existing user.
	CreateTask(ctx context.Context, userID, name, description string) (domain.Task, error)

	// UpdateTask replaces name and description. Fails if nothing changes.
	UpdateTask(ctx context.Context, id, name, description string) (domain.Task, error)

	// PatchTask applies the non-nil fields of patch.
	PatchTask(ctx context.Context, id string, patch TaskPatch) (domain.Task, error)

	// GetTask retrieves a task by ID.
	GetTask(ctx context.Context, id string) (domain.Task, error)

	// ListTasks returns every task.
	ListTasks(ctx context.Context) ([]domain.Task, error)

	// ListTasksByUser returns the tasks of an existing user.
	ListTasksByUser(ctx context.Context, userID string) ([]domain.Task, error)

	// ListTasksByUserAndStatus returns the tasks of an existing user in one
	// status. status may be a status code or label, in any case.
	ListTasksByUserAndStatus(ctx context.Context, userID, status string) ([]domain.Task, error)

	// StartTask moves a task to IN_PROGRESS.
	StartTask(ctx context.Context, id string) (domain.Task, error)

	// CompleteTask moves a task to COMPLETED.
	CompleteTask(ctx context.Context, id string) (domain.Task, error)

	// CancelTask moves a task to CANCELLED.
	CancelTask(ctx context.Context, id string) (domain.Task, error)

	// ChangeTaskStatus moves a task to any status the state machine allows.
	ChangeTaskStatus(ctx context.Context, id, status string) (domain.Task, error)

	// DeleteTask removes a task.
	DeleteTask(ctx context.Context, id string) error

	// DeleteTasksByUser removes every task of a user. The user need not
	// exist and repeating the call is harmless.
	DeleteTasksByUser(ctx context.Context, userID string) error
}

// TaskServiceImpl implements the TaskService interface
type TaskServiceImpl struct {
	tasks        store.TaskStore
	users        store.UserStore
	cache        Cache
	cacheEnabled bool
	logger       *slog.Logger
}

var _ TaskService = (*TaskServiceImpl)(nil)

// NewTaskService creates a new TaskService. users is read to check that
// task owners exist.
func NewTaskService(
	tasks store.TaskStore,
	users store.UserStore,
	logger *slog.Logger,
	opts ...Option,
) *TaskServiceImpl {
	o := buildOptions(opts)
	return &TaskServiceImpl{
		tasks:        tasks,
		users:        users,
		cache:        o.cache,
		cacheEnabled: o.cacheEnabled,
		logger:       logger.With("component", "task_service"),
	}
}

// CreateTask implements TaskService.CreateTask
func (s *TaskServiceImpl) CreateTask(ctx context.Context, rawUserID, rawName, description string) (domain.Task, error) {
	userID, err := domain.ParseID(rawUserID)
	if err != nil {
		return domain.Task{}, err
	}
	name, err := domain.NewTaskName(rawName)
	if err != nil {
		logFailure(s.logger, "invalid task name", err, "user_id", rawUserID)
		return domain.Task{}, err
	}
	if err := s.ensureUser(ctx, userID); err != nil {
		return domain.Task{}, err
	}

	saved, err := s.save(ctx, domain.NewTask(userID, name, description))
	if err != nil {
		return domain.Task{}, err
	}

	s.logger.Info("task created", "task_id", saved.ID, "user_id", userID)
	return saved, nil
}

// UpdateTask implements TaskService.UpdateTask
func (s *TaskServiceImpl) UpdateTask(ctx context.Context, rawID, rawName, description string) (domain.Task, error) {
	id, err := domain.ParseID(rawID)
	if err != nil {
		return domain.Task{}, err
	}
	name, err := domain.NewTaskName(rawName)
	if err != nil {
		logFailure(s.logger, "invalid task name", err, "task_id", rawID)
		return domain.Task{}, err
	}

	return s.mutate(ctx, id, "task updated", func(t domain.Task) (domain.Task, error) {
		return t.UpdateTask(name, description)
	})
}

// PatchTask implements TaskService.PatchTask
func (s *TaskServiceImpl) PatchTask(ctx context.Context, rawID string, patch TaskPatch) (domain.Task, error) {
	id, err := domain.ParseID(rawID)
	if err != nil {
		return domain.Task{}, err
	}
	if patch.Name == nil && patch.Description == nil {
		return domain.Task{}, domain.NewBusinessRuleError(domain.ErrNoChanges, "nothing to update")
	}

	var name *domain.TaskName
	if patch.Name != nil {
		n, err := domain.NewTaskName(*patch.Name)
		if err != nil {
			logFailure(s.logger, "invalid task name", err, "task_id", rawID)
			return domain.Task{}, err
		}
		name = &n
	}

	return s.mutate(ctx, id, "task patched", func(t domain.Task) (domain.Task, error) {
		if name != nil {
			t = t.UpdateName(*name)
		}
		if patch.Description != nil {
			t = t.UpdateDescription(*patch.Description)
		}
		return t, nil
	})
}

// GetTask implements TaskService.GetTask
func (s *TaskServiceImpl) GetTask(ctx context.Context, rawID string) (domain.Task, error) {
	id, err := domain.ParseID(rawID)
	if err != nil {
		return domain.Task{}, err
	}

	if cached, ok, err := s.cache.GetTask(ctx, id); err != nil {
		s.logger.Warn("task cache read failed", "task_id", id, "error", redact.Error(err))
	} else if ok {
		return cached, nil
	}

	task, err := s.find(ctx, id)
	if err != nil {
		return domain.Task{}, err
	}
	if err := s.cache.SetTask(ctx, task); err != nil {
		s.logger.Warn("task cache write failed", "task_id", id, "error", redact.Error(err))
	}
	return task, nil
}

// ListTasks implements TaskService.ListTasks
func (s *TaskServiceImpl) ListTasks(ctx context.Context) ([]domain.Task, error) {
	tasks, err := s.tasks.FindAll(ctx)
	if err != nil {
		logFailure(s.logger, "failed to list tasks", err)
		return nil, wrapInfra("list tasks", err)
	}
	return tasks, nil
}

// ListTasksByUser implements TaskService.ListTasksByUser
func (s *TaskServiceImpl) ListTasksByUser(ctx context.Context, rawUserID string) ([]domain.Task, error) {
	userID, err := domain.ParseID(rawUserID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}

	tasks, err := s.tasks.FindByUser(ctx, userID)
	if err != nil {
		logFailure(s.logger, "failed to list tasks of user", err, "user_id", userID)
		return nil, wrapInfra("list tasks of user", err)
	}
	return tasks, nil
}

// ListTasksByUserAndStatus implements TaskService.ListTasksByUserAndStatus
func (s *TaskServiceImpl) ListTasksByUserAndStatus(
	ctx context.Context,
	rawUserID, rawStatus string,
) ([]domain.Task, error) {
	userID, err := domain.ParseID(rawUserID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}
	status, err := domain.ParseTaskStatus(rawStatus)
	if err != nil {
		logFailure(s.logger, "invalid status filter", err, "user_id", userID)
		return nil, err
	}

	tasks, err := s.tasks.FindByUserAndStatus(ctx, userID, status)
	if err != nil {
		logFailure(s.logger, "failed to list tasks of user by status", err,
			"user_id", userID, "status", status)
		return nil, wrapInfra("list tasks of user by status", err)
	}
	return tasks, nil
}

// StartTask implements TaskService.StartTask
func (s *TaskServiceImpl) StartTask(ctx context.Context, rawID string) (domain.Task, error) {
	return s.transition(ctx, rawID, domain.Task.Start)
}

// CompleteTask implements TaskService.CompleteTask
func (s *TaskServiceImpl) CompleteTask(ctx context.Context, rawID string) (domain.Task, error) {
	return s.transition(ctx, rawID, domain.Task.Complete)
}

// CancelTask implements TaskService.CancelTask
func (s *TaskServiceImpl) CancelTask(ctx context.Context, rawID string) (domain.Task, error) {
	return s.transition(ctx, rawID, domain.Task.Cancel)
}

// ChangeTaskStatus implements TaskService.ChangeTaskStatus
func (s *TaskServiceImpl) ChangeTaskStatus(ctx context.Context, rawID, rawStatus string) (domain.Task, error) {
	status, err := domain.ParseTaskStatus(rawStatus)
	if err != nil {
		logFailure(s.logger, "invalid target status", err, "task_id", rawID)
		return domain.Task{}, err
	}
	return s.transition(ctx, rawID, func(t domain.Task) (domain.Task, error) {
		return t.ChangeStatus(status)
	})
}

// DeleteTask implements TaskService.DeleteTask
func (s *TaskServiceImpl) DeleteTask(ctx context.Context, rawID string) error {
	id, err := domain.ParseID(rawID)
	if err != nil {
		return err
	}
	if _, err := s.find(ctx, id); err != nil {
		return err
	}

	if err := s.tasks.Delete(ctx, id); err != nil {
		logFailure(s.logger, "failed to delete task", err, "task_id", id)
		return wrapInfra("delete task", err)
	}
	s.forget(ctx, id)

	s.logger.Info("task deleted", "task_id", id)
	return nil
}

// DeleteTasksByUser implements TaskService.DeleteTasksByUser
func (s *TaskServiceImpl) DeleteTasksByUser(ctx context.Context, rawUserID string) error {
	userID, err := domain.ParseID(rawUserID)
	if err != nil {
		return err
	}

	// Cached entries are keyed by task ID, so collect them before they go.
	var owned []domain.Task
	if s.cacheEnabled {
		owned, err = s.tasks.FindByUser(ctx, userID)
		if err != nil {
			logFailure(s.logger, "failed to list tasks of user", err, "user_id", userID)
			return wrapInfra("list tasks of user", err)
		}
	}

	if err := s.tasks.DeleteByUser(ctx, userID); err != nil {
		logFailure(s.logger, "failed to delete tasks of user", err, "user_id", userID)
		return wrapInfra("delete tasks of user", err)
	}
	if len(owned) > 0 {
		ids := make([]domain.ID, len(owned))
		for i, t := range owned {
			ids[i] = t.ID
		}
		s.forget(ctx, ids...)
	}

	s.logger.Info("tasks of user deleted", "user_id", userID)
	return nil
}

// transition loads a task, applies a status change and persists it.
func (s *TaskServiceImpl) transition(
	ctx context.Context,
	rawID string,
	change func(domain.Task) (domain.Task, error),
) (domain.Task, error) {
	id, err := domain.ParseID(rawID)
	if err != nil {
		return domain.Task{}, err
	}
	return s.mutate(ctx, id, "task status changed", change)
}

// mutate is the load, apply, save sequence shared by every task update.
func (s *TaskServiceImpl) mutate(
	ctx context.Context,
	id domain.ID,
	logMsg string,
	apply func(domain.Task) (domain.Task, error),
) (domain.Task, error) {
	current, err := s.find(ctx, id)
	if err != nil {
		return domain.Task{}, err
	}

	next, err := apply(current)
	if err != nil {
		logFailure(s.logger, "task change rejected", err, "task_id", id, "status", current.Status)
		return domain.Task{}, err
	}

	saved, err := s.save(ctx, next)
	if err != nil {
		return domain.Task{}, err
	}
	s.invalidate(ctx, saved)

	s.logger.Info(logMsg, "task_id", id, "from", current.Status, "to", saved.Status)
	return saved, nil
}

func (s *TaskServiceImpl) find(ctx context.Context, id domain.ID) (domain.Task, error) {
	task, err := s.tasks.FindByID(ctx, id)
	if err == nil {
		return task, nil
	}
	if store.IsNotFoundError(err) {
		s.logger.Debug("task not found", "task_id", id)
		return domain.Task{}, domain.TaskNotFound(id)
	}
	s.logger.Error("failed to retrieve task", "task_id", id, "error", redact.Error(err))
	return domain.Task{}, wrapInfra("retrieve task", err)
}

// ensureUser fails with NotFound unless the user exists.
func (s *TaskServiceImpl) ensureUser(ctx context.Context, userID domain.ID) error {
	_, err := s.users.FindByID(ctx, userID)
	if err == nil {
		return nil
	}
	if store.IsNotFoundError(err) {
		s.logger.Debug("task owner not found", "user_id", userID)
		return domain.UserNotFound(userID)
	}
	s.logger.Error("failed to retrieve task owner", "user_id", userID, "error", redact.Error(err))
	return wrapInfra("retrieve user", err)
}

func (s *TaskServiceImpl) save(ctx context.Context, task domain.Task) (domain.Task, error) {
	saved, err := s.tasks.Save(ctx, task)
	if err != nil {
		s.logger.Error("failed to save task", "task_id", task.ID, "error", redact.Error(err))
		return domain.Task{}, wrapInfra("save task", err)
	}
	return saved, nil
}

// invalidate drops the cached copy of a task that was just saved.
func (s *TaskServiceImpl) invalidate(ctx context.Context, saved domain.Task) {
	if err := s.cache.InvalidateTask(ctx, saved); err != nil {
		s.logger.Warn("task cache invalidation failed", "task_id", saved.ID, "error", redact.Error(err))
	}
}

// forget drops the cached copies of deleted tasks.
func (s *TaskServiceImpl) forget(ctx context.Context, ids ...domain.ID) {
	if err := s.cache.DeleteTasks(ctx, ids...); err != nil {
		s.logger.Warn("task cache invalidation failed", "task_count", len(ids), "error", redact.Error(err))
	}
}
