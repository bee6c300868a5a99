package store

import (
	"context"

	"github.com/phrazzld/taskhub-api/internal/domain"
)

// TaskStore defines the interface for task data persistence.
// List methods return tasks oldest first.
type TaskStore interface {
	// Save inserts the task or replaces the stored task with the same ID,
	// and returns the stored value.
	Save(ctx context.Context, task domain.Task) (domain.Task, error)

	// FindByID retrieves a task by its ID.
	// Returns ErrTaskNotFound if the task does not exist.
	FindByID(ctx context.Context, id domain.ID) (domain.Task, error)

	// FindByUser returns every task owned by userID.
	FindByUser(ctx context.Context, userID domain.ID) ([]domain.Task, error)

	// FindByUserAndStatus returns the tasks owned by userID that are in status.
	FindByUserAndStatus(ctx context.Context, userID domain.ID, status domain.TaskStatus) ([]domain.Task, error)

	// FindAll returns every task.
	FindAll(ctx context.Context) ([]domain.Task, error)

	// Delete removes a task by its ID. Deleting an absent task is not an error.
	Delete(ctx context.Context, id domain.ID) error

	// DeleteByUser removes every task owned by userID.
	DeleteByUser(ctx context.Context, userID domain.ID) error

	// ExistsByID reports whether a task with the ID is stored.
	ExistsByID(ctx context.Context, id domain.ID) (bool, error)
}
