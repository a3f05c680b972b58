// Package logging assembles structured slog loggers and formatting helpers used
// across tunegrab.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so pipeline code automatically
// tags log lines with stage names, correlation IDs, and batch positions. The
// package also provides a no-op logger for tests and wiring code that cannot
// fail.
package logging
