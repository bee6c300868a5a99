package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/phrazzld/taskhub-api/internal/domain"
	"github.com/phrazzld/taskhub-api/internal/store"
)

// guard is the subset of sync.RWMutex the stores need. Stores handed to a
// transaction callback use noGuard because the transaction already holds
// the write lock.
type guard interface {
	Lock()
	Unlock()
	RLock()
	RUnlock()
}

type noGuard struct{}

func (noGuard) Lock()    {}
func (noGuard) Unlock()  {}
func (noGuard) RLock()   {}
func (noGuard) RUnlock() {}

type state struct {
	users map[domain.ID]domain.User
	tasks map[domain.ID]domain.Task
}

func newState() *state {
	return &state{
		users: make(map[domain.ID]domain.User),
		tasks: make(map[domain.ID]domain.Task),
	}
}

func (s *state) clone() *state {
	c := &state{
		users: make(map[domain.ID]domain.User, len(s.users)),
		tasks: make(map[domain.ID]domain.Task, len(s.tasks)),
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.tasks {
		c.tasks[k] = v
	}
	return c
}

// Store keeps users and tasks in process memory. It is safe for concurrent
// use; every method takes the store-wide lock.
type Store struct {
	mu sync.RWMutex
	st *state
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{st: newState()}
}

// Users returns the user store view.
func (s *Store) Users() *UserStore {
	return &UserStore{g: &s.mu, st: s.st}
}

// Tasks returns the task store view.
func (s *Store) Tasks() *TaskStore {
	return &TaskStore{g: &s.mu, st: s.st}
}

// WithinTx runs fn against a private copy of the data while holding the
// write lock, and publishes the copy only if fn succeeds.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, stores store.Stores) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	draft := s.st.clone()
	stores := store.Stores{
		Users: &UserStore{g: noGuard{}, st: draft},
		Tasks: &TaskStore{g: noGuard{}, st: draft},
	}
	if err := fn(ctx, stores); err != nil {
		return err
	}

	s.st.users = draft.users
	s.st.tasks = draft.tasks
	return nil
}

var _ store.Transactor = (*Store)(nil)

func sortUsers(users []domain.User) {
	sort.Slice(users, func(i, j int) bool {
		if !users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].CreatedAt.Before(users[j].CreatedAt)
		}
		return users[i].ID.String() < users[j].ID.String()
	})
}

func sortTasks(tasks []domain.Task) {
	sort.Slice(tasks, func(i, j int) bool {
		if !tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
		}
		return tasks[i].ID.String() < tasks[j].ID.String()
	})
}
