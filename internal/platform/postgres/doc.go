// Package postgres implements the store interfaces on PostgreSQL through
// database/sql and the pgx driver. Schema changes live in embedded goose
// migrations; see Migrate.
package postgres
