package postgres

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/phrazzld/taskhub-api/internal/store"
)

// Transactor implements store.Transactor with database/sql transactions.
type Transactor struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ store.Transactor = (*Transactor)(nil)

// NewTransactor creates a Transactor over db.
func NewTransactor(db *sql.DB, logger *slog.Logger) *Transactor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Transactor{db: db, logger: logger}
}

// WithinTx implements store.Transactor. The stores handed to fn run every
// query on the same *sql.Tx.
func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context, stores store.Stores) error) error {
	return store.RunInTransaction(ctx, t.db, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, store.Stores{
			Users: NewPostgresUserStore(tx, t.logger),
			Tasks: NewPostgresTaskStore(tx, t.logger),
		})
	})
}
