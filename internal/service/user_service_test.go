package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/taskhub-api/internal/domain"
	"github.com/phrazzld/taskhub-api/internal/mocks"
	"github.com/phrazzld/taskhub-api/internal/platform/logger"
	"github.com/phrazzld/taskhub-api/internal/platform/memory"
	"github.com/phrazzld/taskhub-api/internal/service"
	"github.com/phrazzld/taskhub-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newMemoryServices(t *testing.T, opts ...service.Option) (*service.UserServiceImpl, *service.TaskServiceImpl, *memory.Store) {
	t.Helper()
	log, _ := logger.NewTestLogger(t)
	st := memory.NewStore()
	users := service.NewUserService(st.Users(), st.Tasks(), st, log, opts...)
	tasks := service.NewTaskService(st.Tasks(), st.Users(), log, opts...)
	return users, tasks, st
}

func TestUserService_CreateUser(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		users, _, _ := newMemoryServices(t)

		u, err := users.CreateUser(ctx, "Jane Doe", "jane@example.com")
		require.NoError(t, err)
		assert.False(t, u.ID.IsZero())
		assert.Equal(t, "Jane Doe", u.Name.String())
		assert.Equal(t, "jane@example.com", u.Email.String())
		assert.Equal(t, u.CreatedAt, u.UpdatedAt)

		got, err := users.GetUser(ctx, u.ID.String())
		require.NoError(t, err)
		assert.Equal(t, u, got)
	})

	t.Run("duplicate email", func(t *testing.T) {
		t.Parallel()
		users, _, _ := newMemoryServices(t)

		_, err := users.CreateUser(ctx, "Jane Doe", "jane@example.com")
		require.NoError(t, err)

		_, err = users.CreateUser(ctx, "Other Jane", "jane@example.com")
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrBusinessRule)
		assert.ErrorIs(t, err, domain.ErrEmailInUse)
		assert.Equal(t, "this email address is already in use: jane@example.com", err.Error())

		all, err := users.ListUsers(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("invalid input", func(t *testing.T) {
		t.Parallel()
		users, _, _ := newMemoryServices(t)

		_, err := users.CreateUser(ctx, "J", "jane@example.com")
		assert.ErrorIs(t, err, domain.ErrInvalidUserName)
		assert.Equal(t, domain.KindInvalidValue, domain.KindOf(err))

		_, err = users.CreateUser(ctx, "Jane", "not-an-email")
		assert.ErrorIs(t, err, domain.ErrInvalidEmail)
		assert.Equal(t, "invalid email format: not-an-email", err.Error())

		all, err := users.ListUsers(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})
}

func TestUserService_CreateUser_StoreConflict(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	log, _ := logger.NewTestLogger(t)

	users := new(mocks.UserStore)
	users.On("ExistsByEmail", mock.Anything, mock.Anything, domain.ID{}).Return(false, nil)
	users.On("Save", mock.Anything, mock.Anything).
		Return(domain.User{}, store.ErrEmailExists).Once()

	svc := service.NewUserService(users, new(mocks.TaskStore), &mocks.Transactor{}, log)

	_, err := svc.CreateUser(ctx, "Jane Doe", "jane@example.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmailInUse)
	assert.Equal(t, domain.KindBusinessRule, domain.KindOf(err))
	users.AssertExpectations(t)
}

func TestUserService_CreateUser_SavesOnce(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	log, _ := logger.NewTestLogger(t)

	users := new(mocks.UserStore)
	users.On("ExistsByEmail", mock.Anything, mock.Anything, domain.ID{}).Return(false, nil).Once()
	stored := mustUser(t, "Jane Doe", "jane@example.com")
	users.On("Save", mock.Anything, mock.AnythingOfType("domain.User")).Return(stored, nil).Once()

	svc := service.NewUserService(users, new(mocks.TaskStore), &mocks.Transactor{}, log)

	got, err := svc.CreateUser(ctx, "Jane Doe", "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, stored, got)
	users.AssertNumberOfCalls(t, "Save", 1)
	users.AssertExpectations(t)
}

func TestUserService_UpdateUser(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("changes name and email", func(t *testing.T) {
		t.Parallel()
		users, _, _ := newMemoryServices(t)
		u, err := users.CreateUser(ctx, "Jane Doe", "jane@example.com")
		require.NoError(t, err)

		updated, err := users.UpdateUser(ctx, u.ID.String(), "Jane Roe", "roe@example.com")
		require.NoError(t, err)
		assert.Equal(t, u.ID, updated.ID)
		assert.Equal(t, u.CreatedAt, updated.CreatedAt)
		assert.True(t, updated.UpdatedAt.After(u.UpdatedAt))
		assert.Equal(t, "Jane Roe", updated.Name.String())
	})

	t.Run("unchanged values", func(t *testing.T) {
		t.Parallel()
		users, _, _ := newMemoryServices(t)
		u, err := users.CreateUser(ctx, "Jane Doe", "jane@example.com")
		require.NoError(t, err)

		_, err = users.UpdateUser(ctx, u.ID.String(), "Jane Doe", "jane@example.com")
		assert.ErrorIs(t, err, domain.ErrNoChanges)
		assert.Equal(t, domain.KindBusinessRule, domain.KindOf(err))
	})

	t.Run("keeping own email is allowed", func(t *testing.T) {
		t.Parallel()
		users, _, _ := newMemoryServices(t)
		u, err := users.CreateUser(ctx, "Jane Doe", "jane@example.com")
		require.NoError(t, err)

		_, err = users.UpdateUser(ctx, u.ID.String(), "Jane Roe", "jane@example.com")
		assert.NoError(t, err)
	})

	t.Run("email of another user", func(t *testing.T) {
		t.Parallel()
		users, _, _ := newMemoryServices(t)
		_, err := users.CreateUser(ctx, "Jane Doe", "jane@example.com")
		require.NoError(t, err)
		john, err := users.CreateUser(ctx, "John Doe", "john@example.com")
		require.NoError(t, err)

		_, err = users.UpdateUser(ctx, john.ID.String(), "John Doe", "jane@example.com")
		assert.ErrorIs(t, err, domain.ErrEmailInUse)
	})

	t.Run("unknown user", func(t *testing.T) {
		t.Parallel()
		users, _, _ := newMemoryServices(t)
		id := domain.NewID()

		_, err := users.UpdateUser(ctx, id.String(), "Jane Doe", "jane@example.com")
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
		assert.Equal(t, "user not found: "+id.String(), err.Error())
	})

	t.Run("malformed id", func(t *testing.T) {
		t.Parallel()
		users, _, _ := newMemoryServices(t)

		_, err := users.UpdateUser(ctx, "nope", "Jane Doe", "jane@example.com")
		assert.ErrorIs(t, err, domain.ErrInvalidID)
	})
}

func TestUserService_PatchUser(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	users, _, _ := newMemoryServices(t)

	u, err := users.CreateUser(ctx, "Jane Doe", "jane@example.com")
	require.NoError(t, err)

	name := "Jane Roe"
	patched, err := users.PatchUser(ctx, u.ID.String(), service.UserPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Jane Roe", patched.Name.String())
	assert.Equal(t, "jane@example.com", patched.Email.String())

	_, err = users.PatchUser(ctx, u.ID.String(), service.UserPatch{})
	assert.ErrorIs(t, err, domain.ErrNoChanges)

	bad := "x"
	_, err = users.PatchUser(ctx, u.ID.String(), service.UserPatch{Email: &bad})
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)
}

func TestUserService_DeleteUser(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	users, tasks, _ := newMemoryServices(t)

	u, err := users.CreateUser(ctx, "Jane Doe", "jane@example.com")
	require.NoError(t, err)
	task, err := tasks.CreateTask(ctx, u.ID.String(), "Write report", "")
	require.NoError(t, err)

	require.NoError(t, users.DeleteUser(ctx, u.ID.String()))

	_, err = users.GetUser(ctx, u.ID.String())
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	// Plain deletion leaves the tasks behind.
	orphan, err := tasks.GetTask(ctx, task.ID.String())
	require.NoError(t, err)
	assert.Equal(t, u.ID, orphan.UserID)

	err = users.DeleteUser(ctx, u.ID.String())
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUserService_DeleteUserWithTasks(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("removes user and tasks", func(t *testing.T) {
		t.Parallel()
		users, tasks, _ := newMemoryServices(t)

		u, err := users.CreateUser(ctx, "Jane Doe", "jane@example.com")
		require.NoError(t, err)
		other, err := users.CreateUser(ctx, "John Doe", "john@example.com")
		require.NoError(t, err)
		for _, name := range []string{"one", "two"} {
			_, err := tasks.CreateTask(ctx, u.ID.String(), name, "")
			require.NoError(t, err)
		}
		kept, err := tasks.CreateTask(ctx, other.ID.String(), "keep", "")
		require.NoError(t, err)

		require.NoError(t, users.DeleteUserWithTasks(ctx, u.ID.String()))

		_, err = users.GetUser(ctx, u.ID.String())
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
		all, err := tasks.ListTasks(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, kept.ID, all[0].ID)
	})

	t.Run("rolls back when a delete fails", func(t *testing.T) {
		t.Parallel()
		log, _ := logger.NewTestLogger(t)
		st := memory.NewStore()
		seed := service.NewUserService(st.Users(), st.Tasks(), st, log)
		taskSvc := service.NewTaskService(st.Tasks(), st.Users(), log)

		u, err := seed.CreateUser(ctx, "Jane Doe", "jane@example.com")
		require.NoError(t, err)
		_, err = taskSvc.CreateTask(ctx, u.ID.String(), "one", "")
		require.NoError(t, err)

		boom := errors.New("disk on fire")
		failing := &failingUserDeleteTx{inner: st, err: boom}
		svc := service.NewUserService(st.Users(), st.Tasks(), failing, log)

		err = svc.DeleteUserWithTasks(ctx, u.ID.String())
		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, domain.KindUnknown, domain.KindOf(err))

		_, err = seed.GetUser(ctx, u.ID.String())
		assert.NoError(t, err)
		owned, err := taskSvc.ListTasksByUser(ctx, u.ID.String())
		require.NoError(t, err)
		assert.Len(t, owned, 1)
	})

	t.Run("transaction cannot start", func(t *testing.T) {
		t.Parallel()
		log, _ := logger.NewTestLogger(t)
		u := mustUser(t, "Jane Doe", "jane@example.com")

		users := new(mocks.UserStore)
		users.On("FindByID", mock.Anything, u.ID).Return(u, nil)
		tx := &mocks.Transactor{Err: store.ErrTransactionFailed}

		svc := service.NewUserService(users, new(mocks.TaskStore), tx, log)
		err := svc.DeleteUserWithTasks(ctx, u.ID.String())
		assert.ErrorIs(t, err, store.ErrTransactionFailed)
		assert.Equal(t, 1, tx.Calls)
	})

	t.Run("unknown user", func(t *testing.T) {
		t.Parallel()
		users, _, _ := newMemoryServices(t)

		err := users.DeleteUserWithTasks(ctx, domain.NewID().String())
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})
}

func TestUserService_GetUser_Cache(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cache := newFakeCache()
	users, _, st := newMemoryServices(t, service.WithCache(cache))

	u, err := users.CreateUser(ctx, "Jane Doe", "jane@example.com")
	require.NoError(t, err)

	_, err = users.GetUser(ctx, u.ID.String())
	require.NoError(t, err)
	assert.Contains(t, cache.users, u.ID)

	// A cached user is served even after the row is gone underneath.
	require.NoError(t, st.Users().Delete(ctx, u.ID))
	got, err := users.GetUser(ctx, u.ID.String())
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	// Service-level writes invalidate.
	cache.users = map[domain.ID]domain.User{}
	_, err = st.Users().Save(ctx, u)
	require.NoError(t, err)
	_, err = users.GetUser(ctx, u.ID.String())
	require.NoError(t, err)
	name := "Jane Roe"
	_, err = users.PatchUser(ctx, u.ID.String(), service.UserPatch{Name: &name})
	require.NoError(t, err)
	assert.NotContains(t, cache.users, u.ID)
}

func TestUserService_CacheFillLosesToConcurrentUpdate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	log, _ := logger.NewTestLogger(t)
	cache := newFakeCache()
	st := memory.NewStore()

	writer := service.NewUserService(st.Users(), st.Tasks(), st, log, service.WithCache(cache))
	u, err := writer.CreateUser(ctx, "Taro", "taro@example.com")
	require.NoError(t, err)

	var updateErr error
	racing := &racingUsers{UserStore: st.Users(), after: func() {
		_, updateErr = writer.UpdateUser(ctx, u.ID.String(), "Jiro", "taro@example.com")
	}}
	reader := service.NewUserService(racing, st.Tasks(), st, log, service.WithCache(cache))

	// The read started before the update, so it may return the old name,
	// but it must not leave that snapshot in the cache.
	first, err := reader.GetUser(ctx, u.ID.String())
	require.NoError(t, err)
	require.NoError(t, updateErr)
	assert.Equal(t, "Taro", first.Name.String())

	got, err := reader.GetUser(ctx, u.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Jiro", got.Name.String())

	got, err = reader.GetUser(ctx, u.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Jiro", got.Name.String(), "the fresh snapshot is cached")
	assert.Contains(t, cache.users, u.ID)
}

func TestUserService_DeletedUserIsNotRefilled(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cache := newFakeCache()
	users, _, _ := newMemoryServices(t, service.WithCache(cache))

	u, err := users.CreateUser(ctx, "Jane Doe", "jane@example.com")
	require.NoError(t, err)
	require.NoError(t, users.DeleteUser(ctx, u.ID.String()))

	// A late fill carrying the pre-delete snapshot is refused.
	require.NoError(t, cache.SetUser(ctx, u))
	assert.NotContains(t, cache.users, u.ID)
}

func TestUserService_CacheFailuresAreIgnored(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cache := newFakeCache()
	cache.err = errors.New("redis down")
	users, _, _ := newMemoryServices(t, service.WithCache(cache))

	u, err := users.CreateUser(ctx, "Jane Doe", "jane@example.com")
	require.NoError(t, err)
	got, err := users.GetUser(ctx, u.ID.String())
	require.NoError(t, err)
	assert.Equal(t, u, got)
	require.NoError(t, users.DeleteUser(ctx, u.ID.String()))
}

func TestUserService_InfrastructureErrors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	log, buf := logger.NewTestLogger(t)

	boom := errors.New("connection reset")
	users := new(mocks.UserStore)
	users.On("FindAll", mock.Anything).Return(nil, boom)

	svc := service.NewUserService(users, new(mocks.TaskStore), &mocks.Transactor{}, log)
	_, err := svc.ListUsers(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, domain.KindUnknown, domain.KindOf(err))
	assert.Contains(t, buf.String(), `"level":"ERROR"`)
}

func TestUserService_StoreErrorsKeepTheirKind(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	log, _ := logger.NewTestLogger(t)

	missing := domain.NewID()
	broken := domain.NewID()
	readFailed := store.NewStoreError("user", "find", "read failed", errors.New("connection reset"))
	users := new(mocks.UserStore)
	users.On("FindByID", mock.Anything, missing).
		Return(nil, store.NewStoreError("user", "find", "no row", store.ErrUserNotFound))
	users.On("FindByID", mock.Anything, broken).Return(nil, readFailed)

	svc := service.NewUserService(users, new(mocks.TaskStore), &mocks.Transactor{}, log)

	_, err := svc.GetUser(ctx, missing.String())
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))

	_, err = svc.GetUser(ctx, broken.String())
	var se *store.StoreError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "find", se.Operation)
	assert.Equal(t, domain.KindUnknown, domain.KindOf(err))
}

func mustUser(t *testing.T, name, email string) domain.User {
	t.Helper()
	n, err := domain.NewUserName(name)
	require.NoError(t, err)
	e, err := domain.NewEmail(email)
	require.NoError(t, err)
	return domain.NewUser(n, e)
}

// failingUserDeleteTx runs the callback in a real memory transaction but
// makes the user delete fail after the tasks are already gone.
type failingUserDeleteTx struct {
	inner store.Transactor
	err   error
}

func (f *failingUserDeleteTx) WithinTx(ctx context.Context, fn func(ctx context.Context, stores store.Stores) error) error {
	return f.inner.WithinTx(ctx, func(ctx context.Context, stores store.Stores) error {
		stores.Users = &failingDeleteUsers{UserStore: stores.Users, err: f.err}
		return fn(ctx, stores)
	})
}

type failingDeleteUsers struct {
	store.UserStore
	err error
}

func (f *failingDeleteUsers) Delete(context.Context, domain.ID) error {
	return f.err
}

// fakeCache is an in-process service.Cache that keeps the versioning
// contract of the port. Setting err makes every call fail.
type fakeCache struct {
	mu        sync.Mutex
	users     map[domain.ID]domain.User
	tasks     map[domain.ID]domain.Task
	userFloor map[domain.ID]time.Time
	taskFloor map[domain.ID]time.Time
	err       error
}

// removed is the floor recorded for deleted entries; no version reaches it.
var removed = time.Unix(1<<40, 0)

func newFakeCache() *fakeCache {
	return &fakeCache{
		users:     map[domain.ID]domain.User{},
		tasks:     map[domain.ID]domain.Task{},
		userFloor: map[domain.ID]time.Time{},
		taskFloor: map[domain.ID]time.Time{},
	}
}

func (c *fakeCache) GetUser(_ context.Context, id domain.ID) (domain.User, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return domain.User{}, false, c.err
	}
	u, ok := c.users[id]
	return u, ok, nil
}

func (c *fakeCache) SetUser(_ context.Context, u domain.User) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	if u.UpdatedAt.Before(c.userFloor[u.ID]) {
		return nil
	}
	if cur, ok := c.users[u.ID]; ok && cur.UpdatedAt.After(u.UpdatedAt) {
		return nil
	}
	c.users[u.ID] = u
	return nil
}

func (c *fakeCache) InvalidateUser(_ context.Context, u domain.User) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	delete(c.users, u.ID)
	if u.UpdatedAt.After(c.userFloor[u.ID]) {
		c.userFloor[u.ID] = u.UpdatedAt
	}
	return nil
}

func (c *fakeCache) DeleteUsers(_ context.Context, ids ...domain.ID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	for _, id := range ids {
		delete(c.users, id)
		c.userFloor[id] = removed
	}
	return nil
}

func (c *fakeCache) GetTask(_ context.Context, id domain.ID) (domain.Task, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return domain.Task{}, false, c.err
	}
	t, ok := c.tasks[id]
	return t, ok, nil
}

func (c *fakeCache) SetTask(_ context.Context, t domain.Task) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	if t.UpdatedAt.Before(c.taskFloor[t.ID]) {
		return nil
	}
	if cur, ok := c.tasks[t.ID]; ok && cur.UpdatedAt.After(t.UpdatedAt) {
		return nil
	}
	c.tasks[t.ID] = t
	return nil
}

func (c *fakeCache) InvalidateTask(_ context.Context, t domain.Task) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	delete(c.tasks, t.ID)
	if t.UpdatedAt.After(c.taskFloor[t.ID]) {
		c.taskFloor[t.ID] = t.UpdatedAt
	}
	return nil
}

func (c *fakeCache) DeleteTasks(_ context.Context, ids ...domain.ID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	for _, id := range ids {
		delete(c.tasks, id)
		c.taskFloor[id] = removed
	}
	return nil
}

// racingUsers runs after once, right after the first FindByID returns, to
// slot a write between a cache miss's store read and its cache fill.
type racingUsers struct {
	store.UserStore
	once  sync.Once
	after func()
}

func (r *racingUsers) FindByID(ctx context.Context, id domain.ID) (domain.User, error) {
	u, err := r.UserStore.FindByID(ctx, id)
	r.once.Do(r.after)
	return u, err
}
