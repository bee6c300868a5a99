// Package sqlite provides gorm-backed implementations of the store
// interfaces for single-node deployments and local development.
//
// Open and Migrate prepare a database; the schema is managed by gorm's
// AutoMigrate rather than the goose migrations used for PostgreSQL.
package sqlite
