package mocks

import (
	"context"

	"github.com/phrazzld/taskhub-api/internal/domain"
	"github.com/phrazzld/taskhub-api/internal/store"
	"github.com/stretchr/testify/mock"
)

// TaskStore is a mock of store.TaskStore.
type TaskStore struct {
	mock.Mock
}

var _ store.TaskStore = (*TaskStore)(nil)

// Save is a mock implementation of store.TaskStore.Save
func (m *TaskStore) Save(ctx context.Context, task domain.Task) (domain.Task, error) {
	args := m.Called(ctx, task)
	if t, ok := args.Get(0).(domain.Task); ok {
		return t, args.Error(1)
	}
	return domain.Task{}, args.Error(1)
}

// FindByID is a mock implementation of store.TaskStore.FindByID
func (m *TaskStore) FindByID(ctx context.Context, id domain.ID) (domain.Task, error) {
	args := m.Called(ctx, id)
	if t, ok := args.Get(0).(domain.Task); ok {
		return t, args.Error(1)
	}
	return domain.Task{}, args.Error(1)
}

// FindByUser is a mock implementation of store.TaskStore.FindByUser
func (m *TaskStore) FindByUser(ctx context.Context, userID domain.ID) ([]domain.Task, error) {
	args := m.Called(ctx, userID)
	return tasksArg(args, 0), args.Error(1)
}

// FindByUserAndStatus is a mock implementation of store.TaskStore.FindByUserAndStatus
func (m *TaskStore) FindByUserAndStatus(
	ctx context.Context,
	userID domain.ID,
	status domain.TaskStatus,
) ([]domain.Task, error) {
	args := m.Called(ctx, userID, status)
	return tasksArg(args, 0), args.Error(1)
}

// FindAll is a mock implementation of store.TaskStore.FindAll
func (m *TaskStore) FindAll(ctx context.Context) ([]domain.Task, error) {
	args := m.Called(ctx)
	return tasksArg(args, 0), args.Error(1)
}

// Delete is a mock implementation of store.TaskStore.Delete
func (m *TaskStore) Delete(ctx context.Context, id domain.ID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// DeleteByUser is a mock implementation of store.TaskStore.DeleteByUser
func (m *TaskStore) DeleteByUser(ctx context.Context, userID domain.ID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// ExistsByID is a mock implementation of store.TaskStore.ExistsByID
func (m *TaskStore) ExistsByID(ctx context.Context, id domain.ID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func tasksArg(args mock.Arguments, i int) []domain.Task {
	if tasks, ok := args.Get(i).([]domain.Task); ok {
		return tasks
	}
	return nil
}
