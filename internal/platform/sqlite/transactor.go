package sqlite

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/taskhub-api/internal/store"
	"gorm.io/gorm"
)

// Transactor implements store.Transactor with gorm transactions.
type Transactor struct {
	db     *gorm.DB
	logger *slog.Logger
}

var _ store.Transactor = (*Transactor)(nil)

// NewTransactor creates a Transactor over db.
func NewTransactor(db *gorm.DB, logger *slog.Logger) *Transactor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Transactor{db: db, logger: logger}
}

// WithinTx implements store.Transactor. Errors from fn are returned as is;
// a failure to begin or commit wraps store.ErrTransactionFailed.
func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context, stores store.Stores) error) error {
	var fnErr error
	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fnErr = fn(ctx, store.Stores{
			Users: NewUserStore(tx, t.logger),
			Tasks: NewTaskStore(tx, t.logger),
		})
		return fnErr
	})
	if err != nil && fnErr == nil {
		t.logger.Error("sqlite transaction failed", "error", err)
		return fmt.Errorf("%w: %w", store.ErrTransactionFailed, err)
	}
	return err
}
