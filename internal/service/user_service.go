package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/phrazzld/taskhub-api/internal/domain"
	"github.com/phrazzld/taskhub-api/internal/redact"
	"github.com/phrazzld/taskhub-api/internal/store"
)

// UserPatch carries the fields of a partial user update; nil means "leave as is".
type UserPatch struct {
	Name  *string
	Email *string
}

// UserService provides user management operations.
type UserService interface {
	// CreateUser registers a user. Fails if the email is already in use.
	CreateUser(ctx context.Context, name, email string) (domain.User, error)

	// UpdateUser replaces name and email. Fails if nothing changes or if
	// another user holds the email.
	UpdateUser(ctx context.Context, id, name, email string) (domain.User, error)

	// PatchUser applies the non-nil fields of patch.
	PatchUser(ctx context.Context, id string, patch UserPatch) (domain.User, error)

	// GetUser retrieves a user by ID.
	GetUser(ctx context.Context, id string) (domain.User, error)

	// ListUsers returns every user, oldest first.
	ListUsers(ctx context.Context) ([]domain.User, error)

	// DeleteUser removes a user. The user's tasks are kept.
	DeleteUser(ctx context.Context, id string) error

	// DeleteUserWithTasks removes a user and all of the user's tasks
	// atomically: either both deletes happen or neither does.
	DeleteUserWithTasks(ctx context.Context, id string) error
}

// UserServiceImpl implements the UserService interface
type UserServiceImpl struct {
	users  store.UserStore
	tasks  store.TaskStore
	tx     store.Transactor
	cache  Cache
	logger *slog.Logger
}

var _ UserService = (*UserServiceImpl)(nil)

// NewUserService creates a new UserService. tasks and tx are only used by
// DeleteUserWithTasks.
func NewUserService(
	users store.UserStore,
	tasks store.TaskStore,
	tx store.Transactor,
	logger *slog.Logger,
	opts ...Option,
) *UserServiceImpl {
	o := buildOptions(opts)
	return &UserServiceImpl{
		users:  users,
		tasks:  tasks,
		tx:     tx,
		cache:  o.cache,
		logger: logger.With("component", "user_service"),
	}
}

// CreateUser implements UserService.CreateUser
func (s *UserServiceImpl) CreateUser(ctx context.Context, rawName, rawEmail string) (domain.User, error) {
	name, err := domain.NewUserName(rawName)
	if err != nil {
		logFailure(s.logger, "invalid user name", err)
		return domain.User{}, err
	}
	email, err := domain.NewEmail(rawEmail)
	if err != nil {
		logFailure(s.logger, "invalid email", err)
		return domain.User{}, err
	}

	if err := s.ensureEmailFree(ctx, email, domain.ID{}); err != nil {
		return domain.User{}, err
	}

	saved, err := s.save(ctx, domain.NewUser(name, email))
	if err != nil {
		return domain.User{}, err
	}

	s.logger.Info("user created",
		"user_id", saved.ID,
		"email", redact.Email(saved.Email.String()))
	return saved, nil
}

// UpdateUser implements UserService.UpdateUser
func (s *UserServiceImpl) UpdateUser(ctx context.Context, rawID, rawName, rawEmail string) (domain.User, error) {
	id, err := domain.ParseID(rawID)
	if err != nil {
		return domain.User{}, err
	}
	name, err := domain.NewUserName(rawName)
	if err != nil {
		logFailure(s.logger, "invalid user name", err, "user_id", rawID)
		return domain.User{}, err
	}
	email, err := domain.NewEmail(rawEmail)
	if err != nil {
		logFailure(s.logger, "invalid email", err, "user_id", rawID)
		return domain.User{}, err
	}

	current, err := s.find(ctx, id)
	if err != nil {
		return domain.User{}, err
	}
	if err := s.ensureEmailFree(ctx, email, id); err != nil {
		return domain.User{}, err
	}

	updated, err := current.UpdateProfile(name, email)
	if err != nil {
		logFailure(s.logger, "user update rejected", err, "user_id", id)
		return domain.User{}, err
	}

	saved, err := s.save(ctx, updated)
	if err != nil {
		return domain.User{}, err
	}
	s.invalidate(ctx, saved)

	s.logger.Info("user updated", "user_id", id)
	return saved, nil
}

// PatchUser implements UserService.PatchUser
func (s *UserServiceImpl) PatchUser(ctx context.Context, rawID string, patch UserPatch) (domain.User, error) {
	id, err := domain.ParseID(rawID)
	if err != nil {
		return domain.User{}, err
	}
	if patch.Name == nil && patch.Email == nil {
		return domain.User{}, domain.NewBusinessRuleError(domain.ErrNoChanges, "nothing to update")
	}

	var name *domain.UserName
	if patch.Name != nil {
		n, err := domain.NewUserName(*patch.Name)
		if err != nil {
			logFailure(s.logger, "invalid user name", err, "user_id", rawID)
			return domain.User{}, err
		}
		name = &n
	}
	var email *domain.Email
	if patch.Email != nil {
		e, err := domain.NewEmail(*patch.Email)
		if err != nil {
			logFailure(s.logger, "invalid email", err, "user_id", rawID)
			return domain.User{}, err
		}
		email = &e
	}

	user, err := s.find(ctx, id)
	if err != nil {
		return domain.User{}, err
	}
	if email != nil {
		if err := s.ensureEmailFree(ctx, *email, id); err != nil {
			return domain.User{}, err
		}
		user = user.UpdateEmail(*email)
	}
	if name != nil {
		user = user.UpdateName(*name)
	}

	saved, err := s.save(ctx, user)
	if err != nil {
		return domain.User{}, err
	}
	s.invalidate(ctx, saved)

	s.logger.Info("user patched", "user_id", id)
	return saved, nil
}

// GetUser implements UserService.GetUser
func (s *UserServiceImpl) GetUser(ctx context.Context, rawID string) (domain.User, error) {
	id, err := domain.ParseID(rawID)
	if err != nil {
		return domain.User{}, err
	}

	if cached, ok, err := s.cache.GetUser(ctx, id); err != nil {
		s.logger.Warn("user cache read failed", "user_id", id, "error", redact.Error(err))
	} else if ok {
		return cached, nil
	}

	user, err := s.find(ctx, id)
	if err != nil {
		return domain.User{}, err
	}
	if err := s.cache.SetUser(ctx, user); err != nil {
		s.logger.Warn("user cache write failed", "user_id", id, "error", redact.Error(err))
	}

	s.logger.Debug("retrieved user successfully", "user_id", id)
	return user, nil
}

// ListUsers implements UserService.ListUsers
func (s *UserServiceImpl) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.FindAll(ctx)
	if err != nil {
		logFailure(s.logger, "failed to list users", err)
		return nil, wrapInfra("list users", err)
	}
	return users, nil
}

// DeleteUser implements UserService.DeleteUser
func (s *UserServiceImpl) DeleteUser(ctx context.Context, rawID string) error {
	id, err := domain.ParseID(rawID)
	if err != nil {
		return err
	}
	if _, err := s.find(ctx, id); err != nil {
		return err
	}

	if err := s.users.Delete(ctx, id); err != nil {
		logFailure(s.logger, "failed to delete user", err, "user_id", id)
		return wrapInfra("delete user", err)
	}
	s.forget(ctx, id)

	s.logger.Info("user deleted", "user_id", id)
	return nil
}

// DeleteUserWithTasks implements UserService.DeleteUserWithTasks
func (s *UserServiceImpl) DeleteUserWithTasks(ctx context.Context, rawID string) error {
	id, err := domain.ParseID(rawID)
	if err != nil {
		return err
	}
	if _, err := s.find(ctx, id); err != nil {
		return err
	}

	var taskIDs []domain.ID
	err = s.tx.WithinTx(ctx, func(ctx context.Context, stores store.Stores) error {
		owned, err := stores.Tasks.FindByUser(ctx, id)
		if err != nil {
			return err
		}
		if err := stores.Tasks.DeleteByUser(ctx, id); err != nil {
			return err
		}
		if err := stores.Users.Delete(ctx, id); err != nil {
			return err
		}
		for _, t := range owned {
			taskIDs = append(taskIDs, t.ID)
		}
		return nil
	})
	if err != nil {
		logFailure(s.logger, "failed to delete user with tasks", err, "user_id", id)
		return wrapInfra("delete user with tasks", err)
	}

	s.forget(ctx, id)
	if len(taskIDs) > 0 {
		if err := s.cache.DeleteTasks(ctx, taskIDs...); err != nil {
			s.logger.Warn("task cache invalidation failed", "user_id", id, "error", redact.Error(err))
		}
	}

	s.logger.Info("user deleted with tasks", "user_id", id, "task_count", len(taskIDs))
	return nil
}

// find loads a user, translating store absence into a domain NotFound error.
func (s *UserServiceImpl) find(ctx context.Context, id domain.ID) (domain.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err == nil {
		return user, nil
	}
	if store.IsNotFoundError(err) {
		s.logger.Debug("user not found", "user_id", id)
		return domain.User{}, domain.UserNotFound(id)
	}
	s.logger.Error("failed to retrieve user", "user_id", id, "error", redact.Error(err))
	return domain.User{}, wrapInfra("retrieve user", err)
}

// ensureEmailFree fails with EmailInUse when a user other than self holds email.
// The store's own uniqueness constraint remains the final guard.
func (s *UserServiceImpl) ensureEmailFree(ctx context.Context, email domain.Email, self domain.ID) error {
	taken, err := s.users.ExistsByEmail(ctx, email, self)
	if err != nil {
		s.logger.Error("failed to check email availability", "error", redact.Error(err))
		return wrapInfra("check email availability", err)
	}
	if taken {
		s.logger.Debug("email already in use", "email", redact.Email(email.String()))
		return domain.EmailInUse(email)
	}
	return nil
}

func (s *UserServiceImpl) save(ctx context.Context, user domain.User) (domain.User, error) {
	saved, err := s.users.Save(ctx, user)
	if err == nil {
		return saved, nil
	}
	if errors.Is(err, store.ErrEmailExists) {
		s.logger.Debug("email claimed concurrently", "email", redact.Email(user.Email.String()))
		return domain.User{}, domain.EmailInUse(user.Email)
	}
	s.logger.Error("failed to save user", "user_id", user.ID, "error", redact.Error(err))
	return domain.User{}, wrapInfra("save user", err)
}

// invalidate drops the cached copy of a user that was just saved.
func (s *UserServiceImpl) invalidate(ctx context.Context, saved domain.User) {
	if err := s.cache.InvalidateUser(ctx, saved); err != nil {
		s.logger.Warn("user cache invalidation failed", "user_id", saved.ID, "error", redact.Error(err))
	}
}

// forget drops the cached copy of a deleted user.
func (s *UserServiceImpl) forget(ctx context.Context, id domain.ID) {
	if err := s.cache.DeleteUsers(ctx, id); err != nil {
		s.logger.Warn("user cache invalidation failed", "user_id", id, "error", redact.Error(err))
	}
}
