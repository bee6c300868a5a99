package postgres

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/phrazzld/taskhub-api/internal/domain"
	"github.com/phrazzld/taskhub-api/internal/redact"
	"github.com/phrazzld/taskhub-api/internal/store"
)

// PostgresUserStore implements the store.UserStore interface
// using a PostgreSQL database as the storage backend.
type PostgresUserStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresUserStore creates a PostgreSQL UserStore. db may be a *sql.DB
// or a *sql.Tx. If logger is nil, the default logger is used.
func NewPostgresUserStore(db store.DBTX, logger *slog.Logger) *PostgresUserStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresUserStore{
		db:     db,
		logger: logger.With(slog.String("component", "user_store")),
	}
}

// Ensure PostgresUserStore implements store.UserStore interface
var _ store.UserStore = (*PostgresUserStore)(nil)

const userColumns = `id, name, email, created_at, updated_at`

// Save implements store.UserStore.Save as an upsert on the primary key.
// The unique index on email rejects a second holder of an address.
func (s *PostgresUserStore) Save(ctx context.Context, user domain.User) (domain.User, error) {
	query := `
		INSERT INTO users (id, name, email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, email = EXCLUDED.email, updated_at = EXCLUDED.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		user.ID.String(),
		user.Name.String(),
		user.Email.String(),
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		err = MapError(err)
		if errors.Is(err, store.ErrEmailExists) {
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
func (s *PostgresUserStore) FindByID(ctx context.Context, id domain.ID) (domain.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id.String())
	return s.scanOne(row, "user_id", id.String())
}

// FindByEmail implements store.UserStore.FindByEmail
func (s *PostgresUserStore) FindByEmail(ctx context.Context, email domain.Email) (domain.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email.String())
	return s.scanOne(row, "email", redact.Email(email.String()))
}

// FindAll implements store.UserStore.FindAll
func (s *PostgresUserStore) FindAll(ctx context.Context) ([]domain.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		s.logger.Error("failed to query users", "error", redact.Error(err))
		return nil, store.NewStoreError("user", "list", "query failed", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	users := []domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			s.logger.Error("failed to scan user row", "error", redact.Error(err))
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		s.logger.Error("error iterating user rows", "error", redact.Error(err))
		return nil, store.NewStoreError("user", "list", "row iteration failed", err)
	}
	return users, nil
}

// Delete implements store.UserStore.Delete
func (s *PostgresUserStore) Delete(ctx context.Context, id domain.ID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id.String()); err != nil {
		s.logger.Error("failed to delete user", "user_id", id, "error", redact.Error(err))
		return store.NewStoreError("user", "delete", "write failed", MapError(err))
	}
	return nil
}

// ExistsByEmail implements store.UserStore.ExistsByEmail
func (s *PostgresUserStore) ExistsByEmail(ctx context.Context, email domain.Email, excludeID domain.ID) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 AND id <> $2)`,
		email.String(), excludeID.String(),
	).Scan(&exists)
	if err != nil {
		s.logger.Error("failed to check email", "error", redact.Error(err))
		return false, store.NewStoreError("user", "exists_by_email", "read failed", MapError(err))
	}
	return exists, nil
}

func (s *PostgresUserStore) scanOne(row scanner, key, value string) (domain.User, error) {
	u, err := scanUser(row)
	if err == nil {
		return u, nil
	}
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, store.ErrUserNotFound
	}
	s.logger.Error("failed to load user", key, value, "error", redact.Error(err))
	return domain.User{}, err
}

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (domain.User, error) {
	var (
		id, name, email      string
		createdAt, updatedAt time.Time
	)
	if err := row.Scan(&id, &name, &email, &createdAt, &updatedAt); err != nil {
		return domain.User{}, MapError(err)
	}
	u, err := domain.RestoreUser(id, name, email, createdAt, updatedAt)
	if err != nil {
		return domain.User{}, corruptRow("user", err)
	}
	return u, nil
}
