package memory

import (
	"context"

	"github.com/phrazzld/taskhub-api/internal/domain"
	"github.com/phrazzld/taskhub-api/internal/store"
)

// TaskStore implements store.TaskStore on top of Store.
type TaskStore struct {
	g  guard
	st *state
}

var _ store.TaskStore = (*TaskStore)(nil)

// Save implements store.TaskStore.Save.
func (s *TaskStore) Save(ctx context.Context, task domain.Task) (domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return domain.Task{}, err
	}
	s.g.Lock()
	defer s.g.Unlock()

	s.st.tasks[task.ID] = task
	return task, nil
}

// FindByID implements store.TaskStore.FindByID.
func (s *TaskStore) FindByID(ctx context.Context, id domain.ID) (domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return domain.Task{}, err
	}
	s.g.RLock()
	defer s.g.RUnlock()

	t, ok := s.st.tasks[id]
	if !ok {
		return domain.Task{}, store.ErrTaskNotFound
	}
	return t, nil
}

// FindByUser implements store.TaskStore.FindByUser.
func (s *TaskStore) FindByUser(ctx context.Context, userID domain.ID) ([]domain.Task, error) {
	return s.filter(ctx, func(t domain.Task) bool { return t.UserID == userID })
}

// FindByUserAndStatus implements store.TaskStore.FindByUserAndStatus.
func (s *TaskStore) FindByUserAndStatus(
	ctx context.Context,
	userID domain.ID,
	status domain.TaskStatus,
) ([]domain.Task, error) {
	return s.filter(ctx, func(t domain.Task) bool { return t.UserID == userID && t.Status == status })
}

// FindAll implements store.TaskStore.FindAll.
func (s *TaskStore) FindAll(ctx context.Context) ([]domain.Task, error) {
	return s.filter(ctx, func(domain.Task) bool { return true })
}

// Delete implements store.TaskStore.Delete.
func (s *TaskStore) Delete(ctx context.Context, id domain.ID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.g.Lock()
	defer s.g.Unlock()

	delete(s.st.tasks, id)
	return nil
}

// DeleteByUser implements store.TaskStore.DeleteByUser.
func (s *TaskStore) DeleteByUser(ctx context.Context, userID domain.ID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.g.Lock()
	defer s.g.Unlock()

	for id, t := range s.st.tasks {
		if t.UserID == userID {
			delete(s.st.tasks, id)
		}
	}
	return nil
}

// ExistsByID implements store.TaskStore.ExistsByID.
func (s *TaskStore) ExistsByID(ctx context.Context, id domain.ID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.g.RLock()
	defer s.g.RUnlock()

	_, ok := s.st.tasks[id]
	return ok, nil
}

func (s *TaskStore) filter(ctx context.Context, keep func(domain.Task) bool) ([]domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.g.RLock()
	defer s.g.RUnlock()

	tasks := make([]domain.Task, 0)
	for _, t := range s.st.tasks {
		if keep(t) {
			tasks = append(tasks, t)
		}
	}
	sortTasks(tasks)
	return tasks, nil
}
