package memory

import (
	"context"

	"github.com/phrazzld/taskhub-api/internal/domain"
	"github.com/phrazzld/taskhub-api/internal/store"
)

// UserStore implements store.UserStore on top of Store.
type UserStore struct {
	g  guard
	st *state
}

var _ store.UserStore = (*UserStore)(nil)

// Save implements store.UserStore.Save. The email check and the write happen
// under one lock, so two concurrent saves cannot both claim an address.
func (s *UserStore) Save(ctx context.Context, user domain.User) (domain.User, error) {
	if err := ctx.Err(); err != nil {
		return domain.User{}, err
	}
	s.g.Lock()
	defer s.g.Unlock()

	for id, existing := range s.st.users {
		if id != user.ID && existing.Email == user.Email {
			return domain.User{}, store.ErrEmailExists
		}
	}
	s.st.users[user.ID] = user
	return user, nil
}

// FindByID implements store.UserStore.FindByID.
func (s *UserStore) FindByID(ctx context.Context, id domain.ID) (domain.User, error) {
	if err := ctx.Err(); err != nil {
		return domain.User{}, err
	}
	s.g.RLock()
	defer s.g.RUnlock()

	u, ok := s.st.users[id]
	if !ok {
		return domain.User{}, store.ErrUserNotFound
	}
	return u, nil
}

// FindByEmail implements store.UserStore.FindByEmail.
func (s *UserStore) FindByEmail(ctx context.Context, email domain.Email) (domain.User, error) {
	if err := ctx.Err(); err != nil {
		return domain.User{}, err
	}
	s.g.RLock()
	defer s.g.RUnlock()

	for _, u := range s.st.users {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, store.ErrUserNotFound
}

// FindAll implements store.UserStore.FindAll.
func (s *UserStore) FindAll(ctx context.Context) ([]domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.g.RLock()
	defer s.g.RUnlock()

	users := make([]domain.User, 0, len(s.st.users))
	for _, u := range s.st.users {
		users = append(users, u)
	}
	sortUsers(users)
	return users, nil
}

// Delete implements store.UserStore.Delete.
func (s *UserStore) Delete(ctx context.Context, id domain.ID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.g.Lock()
	defer s.g.Unlock()

	delete(s.st.users, id)
	return nil
}

// ExistsByEmail implements store.UserStore.ExistsByEmail.
func (s *UserStore) ExistsByEmail(ctx context.Context, email domain.Email, excludeID domain.ID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.g.RLock()
	defer s.g.RUnlock()

	for id, u := range s.st.users {
		if id != excludeID && u.Email == email {
			return true, nil
		}
	}
	return false, nil
}
