// Package api exposes the user and task services over HTTP. It decodes and
// validates JSON requests, calls the services and maps domain errors to
// status codes.
package api
