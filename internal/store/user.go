package store

import (
	"context"

	"github.com/phrazzld/taskhub-api/internal/domain"
)

// UserStore defines the interface for user data persistence.
type UserStore interface {
	// Save inserts the user or replaces the stored user with the same ID,
	// and returns the stored value.
	// Returns ErrEmailExists if another user already holds the email.
	Save(ctx context.Context, user domain.User) (domain.User, error)

	// FindByID retrieves a user by their ID.
	// Returns ErrUserNotFound if the user does not exist.
	FindByID(ctx context.Context, id domain.ID) (domain.User, error)

	// FindByEmail retrieves a user by their email address.
	// Returns ErrUserNotFound if no user holds the address.
	FindByEmail(ctx context.Context, email domain.Email) (domain.User, error)

	// FindAll returns every user, oldest first.
	FindAll(ctx context.Context) ([]domain.User, error)

	// Delete removes a user by their ID. Deleting an absent user is not an error.
	// Tasks owned by the user are left untouched.
	Delete(ctx context.Context, id domain.ID) error

	// ExistsByEmail reports whether a user other than excludeID holds the email.
	// Pass the zero ID to consider every user.
	ExistsByEmail(ctx context.Context, email domain.Email, excludeID domain.ID) (bool, error)
}
