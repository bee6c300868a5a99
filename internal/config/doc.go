// Package config handles configuration loading, parsing, and validation
// from defaults, an optional YAML file, and TASKHUB_-prefixed environment
// variables. It gives the rest of the application typed access to server,
// storage, cache, and metrics settings.
package config
