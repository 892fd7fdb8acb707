// Package logging assembles structured slog loggers and formatting helpers used
// across bazaarscan.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so pipeline code can tag log
// lines with request correlation IDs and component names. The package also
// provides a no-op logger for tests and wiring code that cannot fail.
//
// Logs default to stderr: stdout belongs to the classification contract.
package logging
