// Package config loads keysafe configuration from a YAML file and
// KEYSAFE_* environment variables, with per-attribute source tracking.
// Environment variables take precedence over file values.
package config
