package mocks

import (
	"context"

	"github.com/phrazzld/taskhub-api/internal/domain"
	"github.com/phrazzld/taskhub-api/internal/store"
	"github.com/stretchr/testify/mock"
)

// UserStore is a mock of store.UserStore.
type UserStore struct {
	mock.Mock
}

var _ store.UserStore = (*UserStore)(nil)

// Save is a mock implementation of store.UserStore.Save
func (m *UserStore) Save(ctx context.Context, user domain.User) (domain.User, error) {
	args := m.Called(ctx, user)
	if u, ok := args.Get(0).(domain.User); ok {
		return u, args.Error(1)
	}
	return domain.User{}, args.Error(1)
}

// FindByID is a mock implementation of store.UserStore.FindByID
func (m *UserStore) FindByID(ctx context.Context, id domain.ID) (domain.User, error) {
	args := m.Called(ctx, id)
	if u, ok := args.Get(0).(domain.User); ok {
		return u, args.Error(1)
	}
	return domain.User{}, args.Error(1)
}

// FindByEmail is a mock implementation of store.UserStore.FindByEmail
func (m *UserStore) FindByEmail(ctx context.Context, email domain.Email) (domain.User, error) {
	args := m.Called(ctx, email)
	if u, ok := args.Get(0).(domain.User); ok {
		return u, args.Error(1)
	}
	return domain.User{}, args.Error(1)
}

// FindAll is a mock implementation of store.UserStore.FindAll
func (m *UserStore) FindAll(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	if users, ok := args.Get(0).([]domain.User); ok {
		return users, args.Error(1)
	}
	return nil, args.Error(1)
}

// Delete is a mock implementation of store.UserStore.Delete
func (m *UserStore) Delete(ctx context.Context, id domain.ID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// ExistsByEmail is a mock implementation of store.UserStore.ExistsByEmail
func (m *UserStore) ExistsByEmail(ctx context.Context, email domain.Email, excludeID domain.ID) (bool, error) {
	args := m.Called(ctx, email, excludeID)
	return args.Bool(0), args.Error(1)
}
