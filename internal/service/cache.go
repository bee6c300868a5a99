package service

import (
	"context"

	"github.com/phrazzld/taskhub-api/internal/domain"
)

// Cache is a read-through cache for single-aggregate lookups. It only
// speeds up GetUser and GetTask; rule checks always read the store.
// Implementations report a miss as (zero, false, nil).
//
// Entries are versioned by UpdatedAt. A fill racing a write must never
// leave the older snapshot behind, so Invalidate records the version that
// was written and Set refuses anything older than the newest version seen.
type Cache interface {
	GetUser(ctx context.Context, id domain.ID) (domain.User, bool, error)
	// SetUser fills the entry unless a newer version was cached or invalidated.
	SetUser(ctx context.Context, user domain.User) error
	// InvalidateUser drops the entry after user was saved.
	InvalidateUser(ctx context.Context, user domain.User) error
	// DeleteUsers drops the entries of removed users and refuses later fills.
	DeleteUsers(ctx context.Context, ids ...domain.ID) error

	GetTask(ctx context.Context, id domain.ID) (domain.Task, bool, error)
	SetTask(ctx context.Context, task domain.Task) error
	InvalidateTask(ctx context.Context, task domain.Task) error
	DeleteTasks(ctx context.Context, ids ...domain.ID) error
}

// noCache is used when no cache is configured.
type noCache struct{}

func (noCache) GetUser(context.Context, domain.ID) (domain.User, bool, error) {
	return domain.User{}, false, nil
}

func (noCache) SetUser(context.Context, domain.User) error { return nil }

func (noCache) InvalidateUser(context.Context, domain.User) error { return nil }

func (noCache) DeleteUsers(context.Context, ...domain.ID) error { return nil }

func (noCache) GetTask(context.Context, domain.ID) (domain.Task, bool, error) {
	return domain.Task{}, false, nil
}

func (noCache) SetTask(context.Context, domain.Task) error { return nil }

func (noCache) InvalidateTask(context.Context, domain.Task) error { return nil }

func (noCache) DeleteTasks(context.Context, ...domain.ID) error { return nil }

// Option configures a service.
type Option func(*options)

type options struct {
	cache        Cache
	cacheEnabled bool
}

// WithCache enables read-through caching of single lookups.
func WithCache(c Cache) Option {
	return func(o *options) {
		if c != nil {
			o.cache = c
			o.cacheEnabled = true
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{cache: noCache{}}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
