// Package store defines the persistence ports for users and tasks.
// These interfaces abstract the underlying data storage mechanism from
// the application's core logic; implementations live under internal/platform.
//
// Absence is reported with ErrNotFound (or an entity-specific error wrapping
// it), uniqueness violations with ErrDuplicate. Any other error is an
// infrastructure failure.
package store
