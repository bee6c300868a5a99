// Package storetest holds a behavioural test suite that every store
// implementation runs against itself.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/taskhub-api/internal/domain"
	"github.com/phrazzld/taskhub-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Stores is what a backend under test hands to the suite.
type Stores struct {
	Users      store.UserStore
	Tasks      store.TaskStore
	Transactor store.Transactor
}

// Factory returns empty stores. It is called once per subtest.
type Factory func(t *testing.T) Stores

// Run exercises s against the store contracts.
func Run(t *testing.T, newStores Factory) {
	t.Run("user save and find", func(t *testing.T) { testUserSaveFind(t, newStores(t)) })
	t.Run("user email uniqueness", func(t *testing.T) { testUserEmailUnique(t, newStores(t)) })
	t.Run("user concurrent email claims", func(t *testing.T) { testConcurrentEmailClaims(t, newStores(t)) })
	t.Run("user delete leaves tasks", func(t *testing.T) { testUserDeleteLeavesTasks(t, newStores(t)) })
	t.Run("task queries", func(t *testing.T) { testTaskQueries(t, newStores(t)) })
	t.Run("task delete by user", func(t *testing.T) { testTaskDeleteByUser(t, newStores(t)) })
	t.Run("transaction commit", func(t *testing.T) { testTxCommit(t, newStores(t)) })
	t.Run("transaction rollback", func(t *testing.T) { testTxRollback(t, newStores(t)) })
}

// NewUser builds a user with the given name and email.
func NewUser(t *testing.T, name, email string) domain.User {
	t.Helper()
	n, err := domain.NewUserName(name)
	require.NoError(t, err)
	e, err := domain.NewEmail(email)
	require.NoError(t, err)
	return domain.NewUser(n, e)
}

// NewTask builds a task owned by userID.
func NewTask(t *testing.T, userID domain.ID, name string) domain.Task {
	t.Helper()
	n, err := domain.NewTaskName(name)
	require.NoError(t, err)
	return domain.NewTask(userID, n, "description of "+name)
}

func assertSameUser(t *testing.T, want, got domain.User) {
	t.Helper()
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Name, got.Name)
	assert.Equal(t, want.Email, got.Email)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt), "created_at %v != %v", want.CreatedAt, got.CreatedAt)
	assert.True(t, want.UpdatedAt.Equal(got.UpdatedAt), "updated_at %v != %v", want.UpdatedAt, got.UpdatedAt)
}

func assertSameTask(t *testing.T, want, got domain.Task) {
	t.Helper()
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.UserID, got.UserID)
	assert.Equal(t, want.Name, got.Name)
	assert.Equal(t, want.Description, got.Description)
	assert.Equal(t, want.Status, got.Status)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
	assert.True(t, want.UpdatedAt.Equal(got.UpdatedAt))
}

func testUserSaveFind(t *testing.T, s Stores) {
	ctx := context.Background()
	u := NewUser(t, "Taro", "taro@example.com")

	saved, err := s.Users.Save(ctx, u)
	require.NoError(t, err)
	assertSameUser(t, u, saved)

	got, err := s.Users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assertSameUser(t, u, got)

	got, err = s.Users.FindByEmail(ctx, u.Email)
	require.NoError(t, err)
	assertSameUser(t, u, got)

	_, err = s.Users.FindByID(ctx, domain.NewID())
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, err, store.ErrUserNotFound)

	renamed, err := u.UpdateProfile(NewUser(t, "Jiro", "x@example.com").Name, u.Email)
	require.NoError(t, err)
	_, err = s.Users.Save(ctx, renamed)
	require.NoError(t, err)
	got, err = s.Users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jiro", got.Name.String())

	time.Sleep(2 * time.Millisecond)
	second := NewUser(t, "Hanako", "hanako@example.com")
	_, err = s.Users.Save(ctx, second)
	require.NoError(t, err)

	all, err := s.Users.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, u.ID, all[0].ID)
	assert.Equal(t, second.ID, all[1].ID)
}

func testUserEmailUnique(t *testing.T, s Stores) {
	ctx := context.Background()
	first := NewUser(t, "Taro", "shared@example.com")
	_, err := s.Users.Save(ctx, first)
	require.NoError(t, err)

	exists, err := s.Users.ExistsByEmail(ctx, first.Email, domain.ID{})
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = s.Users.ExistsByEmail(ctx, first.Email, first.ID)
	require.NoError(t, err)
	assert.False(t, exists, "the holder itself is excluded")

	second := NewUser(t, "Jiro", "shared@example.com")
	_, err = s.Users.Save(ctx, second)
	assert.ErrorIs(t, err, store.ErrEmailExists)
	assert.ErrorIs(t, err, store.ErrDuplicate)

	_, err = s.Users.FindByID(ctx, second.ID)
	assert.ErrorIs(t, err, store.ErrNotFound, "rejected user must not be stored")
}

func testConcurrentEmailClaims(t *testing.T, s Stores) {
	ctx := context.Background()
	const n = 8

	racers := make([]domain.User, n)
	for i := range racers {
		racers[i] = NewUser(t, "Racer", "race@example.com")
	}

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.Users.Save(ctx, racers[i])
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, errors.Is(err, store.ErrEmailExists), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, succeeded)
}

func testUserDeleteLeavesTasks(t *testing.T, s Stores) {
	ctx := context.Background()
	u := NewUser(t, "Taro", "taro@example.com")
	_, err := s.Users.Save(ctx, u)
	require.NoError(t, err)
	task := NewTask(t, u.ID, "orphan")
	_, err = s.Tasks.Save(ctx, task)
	require.NoError(t, err)

	require.NoError(t, s.Users.Delete(ctx, u.ID))
	require.NoError(t, s.Users.Delete(ctx, u.ID), "deleting twice is not an error")

	_, err = s.Users.FindByID(ctx, u.ID)
	assert.ErrorIs(t, err, store.ErrUserNotFound)

	exists, err := s.Tasks.ExistsByID(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func testTaskQueries(t *testing.T, s Stores) {
	ctx := context.Background()
	owner := domain.NewID()
	other := domain.NewID()

	first := NewTask(t, owner, "first")
	_, err := s.Tasks.Save(ctx, first)
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)

	second := NewTask(t, owner, "second")
	second, err = second.Start()
	require.NoError(t, err)
	_, err = s.Tasks.Save(ctx, second)
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)

	foreign := NewTask(t, other, "foreign")
	_, err = s.Tasks.Save(ctx, foreign)
	require.NoError(t, err)

	got, err := s.Tasks.FindByID(ctx, second.ID)
	require.NoError(t, err)
	assertSameTask(t, second, got)

	_, err = s.Tasks.FindByID(ctx, domain.NewID())
	assert.ErrorIs(t, err, store.ErrTaskNotFound)

	mine, err := s.Tasks.FindByUser(ctx, owner)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, first.ID, mine[0].ID)
	assert.Equal(t, second.ID, mine[1].ID)

	inProgress, err := s.Tasks.FindByUserAndStatus(ctx, owner, domain.StatusInProgress)
	require.NoError(t, err)
	require.Len(t, inProgress, 1)
	assert.Equal(t, second.ID, inProgress[0].ID)

	none, err := s.Tasks.FindByUserAndStatus(ctx, owner, domain.StatusCancelled)
	require.NoError(t, err)
	assert.Empty(t, none)

	all, err := s.Tasks.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	require.NoError(t, s.Tasks.Delete(ctx, first.ID))
	exists, err := s.Tasks.ExistsByID(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func testTaskDeleteByUser(t *testing.T, s Stores) {
	ctx := context.Background()
	owner := domain.NewID()
	keep := NewTask(t, domain.NewID(), "keep")
	_, err := s.Tasks.Save(ctx, keep)
	require.NoError(t, err)
	for _, name := range []string{"a", "b", "c"} {
		_, err := s.Tasks.Save(ctx, NewTask(t, owner, name))
		require.NoError(t, err)
	}

	require.NoError(t, s.Tasks.DeleteByUser(ctx, owner))
	require.NoError(t, s.Tasks.DeleteByUser(ctx, owner), "idempotent")

	mine, err := s.Tasks.FindByUser(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, mine)

	exists, err := s.Tasks.ExistsByID(ctx, keep.ID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func testTxCommit(t *testing.T, s Stores) {
	ctx := context.Background()
	u := NewUser(t, "Taro", "taro@example.com")
	_, err := s.Users.Save(ctx, u)
	require.NoError(t, err)
	_, err = s.Tasks.Save(ctx, NewTask(t, u.ID, "one"))
	require.NoError(t, err)

	err = s.Transactor.WithinTx(ctx, func(ctx context.Context, tx store.Stores) error {
		if err := tx.Tasks.DeleteByUser(ctx, u.ID); err != nil {
			return err
		}
		return tx.Users.Delete(ctx, u.ID)
	})
	require.NoError(t, err)

	_, err = s.Users.FindByID(ctx, u.ID)
	assert.ErrorIs(t, err, store.ErrUserNotFound)
	tasks, err := s.Tasks.FindByUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func testTxRollback(t *testing.T, s Stores) {
	ctx := context.Background()
	u := NewUser(t, "Taro", "taro@example.com")
	_, err := s.Users.Save(ctx, u)
	require.NoError(t, err)
	task := NewTask(t, u.ID, "survivor")
	_, err = s.Tasks.Save(ctx, task)
	require.NoError(t, err)

	boom := errors.New("boom")
	err = s.Transactor.WithinTx(ctx, func(ctx context.Context, tx store.Stores) error {
		if err := tx.Tasks.DeleteByUser(ctx, u.ID); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	exists, err := s.Tasks.ExistsByID(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, exists, "rolled back delete must not be visible")
}
