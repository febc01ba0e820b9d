// Package config loads, normalizes, and validates Soundleaf configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// SOUNDLEAF_API_KEY. The Config type centralizes every knob the pipeline and
// CLI need, so data/catalog directories and classifier credentials are
// discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
