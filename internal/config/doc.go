// Package config loads, normalizes, and validates tunegrab configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// TUNEGRAB_NTFY_TOPIC. The Config type centralizes every knob the CLI and the
// acquisition pipeline need so download/tool directories and installer
// settings are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// expanded paths, canonical log formats, and clear validation errors.
package config
