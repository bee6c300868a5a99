// Package memory provides process-local implementations of the store
// interfaces. It backs the "memory" database driver and the service and
// API tests.
package memory
