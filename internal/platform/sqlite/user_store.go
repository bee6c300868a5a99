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

// UserStore implements store.UserStore on gorm.
type UserStore struct {
	db     *gorm.DB
	logger *slog.Logger
}

var _ store.UserStore = (*UserStore)(nil)

// NewUserStore creates a UserStore. db may be a transaction handle.
func NewUserStore(db *gorm.DB, logger *slog.Logger) *UserStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &UserStore{db: db, logger: logger.With(slog.String("component", "user_store"))}
}

// Save upserts the user on its id. The unique email index rejects a second
// holder of an address.
func (s *UserStore) Save(ctx context.Context, user domain.User) (domain.User, error) {
	row := toUserRow(user)
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "email", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		err = mapError(err)
		if errors.Is(err, store.ErrDuplicate) {
			s.logger.Debug("email already held by another user",
				"user_id", user.ID, "email", redact.Email(user.Email.String()))
			return domain.User{}, store.ErrEmailExists
		}
		s.logger.Error("failed to save user", "user_id", user.ID, "error", redact.Error(err))
		return domain.User{}, store.NewStoreError("user", "save", "write failed", err)
	}
	return user, nil
}

// FindByID implements store.UserStore.FindByID
func (s *UserStore) FindByID(ctx context.Context, id domain.ID) (domain.User, error) {
	return s.findOne(ctx, "id = ?", id.String())
}

// FindByEmail implements store.UserStore.FindByEmail
func (s *UserStore) FindByEmail(ctx context.Context, email domain.Email) (domain.User, error) {
	return s.findOne(ctx, "email = ?", email.String())
}

// FindAll implements store.UserStore.FindAll
func (s *UserStore) FindAll(ctx context.Context) ([]domain.User, error) {
	var rows []userRow
	if err := s.db.WithContext(ctx).Order("created_at, id").Find(&rows).Error; err != nil {
		s.logger.Error("failed to query users", "error", redact.Error(err))
		return nil, store.NewStoreError("user", "list", "query failed", mapError(err))
	}
	users := make([]domain.User, 0, len(rows))
	for _, r := range rows {
		u, err := r.toDomain()
		if err != nil {
			s.logger.Error("failed to decode user row", "user_id", r.ID, "error", err)
			return nil, corruptRow("user", err)
		}
		users = append(users, u)
	}
	return users, nil
}

// Delete implements store.UserStore.Delete
func (s *UserStore) Delete(ctx context.Context, id domain.ID) error {
	if err := s.db.WithContext(ctx).Where("id = ?", id.String()).Delete(&userRow{}).Error; err != nil {
		s.logger.Error("failed to delete user", "user_id", id, "error", redact.Error(err))
		return store.NewStoreError("user", "delete", "write failed", mapError(err))
	}
	return nil
}

// ExistsByEmail implements store.UserStore.ExistsByEmail
func (s *UserStore) ExistsByEmail(ctx context.Context, email domain.Email, excludeID domain.ID) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&userRow{}).
		Where("email = ? AND id <> ?", email.String(), excludeID.String()).
		Count(&n).Error
	if err != nil {
		s.logger.Error("failed to check email", "error", redact.Error(err))
		return false, store.NewStoreError("user", "exists_by_email", "read failed", mapError(err))
	}
	return n > 0, nil
}

func (s *UserStore) findOne(ctx context.Context, where string, arg string) (domain.User, error) {
	var row userRow
	err := s.db.WithContext(ctx).Where(where, arg).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.User{}, store.ErrUserNotFound
	}
	if err != nil {
		s.logger.Error("failed to load user", "error", redact.Error(err))
		return domain.User{}, store.NewStoreError("user", "find", "read failed", mapError(err))
	}
	u, err := row.toDomain()
	if err != nil {
		s.logger.Error("failed to decode user row", "user_id", row.ID, "error", err)
		return domain.User{}, corruptRow("user", err)
	}
	return u, nil
}
