package mocks

import (
	"context"

	"github.com/phrazzld/taskhub-api/internal/store"
)

// Transactor runs the callback directly against Stores, without any
// isolation. Set Err to make WithinTx fail before the callback runs.
type Transactor struct {
	Stores store.Stores
	Err    error
	Calls  int
}

var _ store.Transactor = (*Transactor)(nil)

// WithinTx implements store.Transactor.
func (m *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context, stores store.Stores) error) error {
	m.Calls++
	if m.Err != nil {
		return m.Err
	}
	return fn(ctx, m.Stores)
}
