// Package config loads and validates reporeel's TOML configuration.
package config
