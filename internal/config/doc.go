// Package config loads, normalizes, and validates bazaarscan configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// BAZAARSCAN_CATALOG_DB. The Config type centralizes every knob the classifier
// and CLI need: catalog sources, fetch limits, cache lifetime, and the matching
// thresholds that decide between matches, ambiguity, and suppression.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
