// Package notifications delivers batch outcomes via ntfy.
//
// NewService returns a no-op implementation when no topic is configured, so
// callers publish unconditionally. Per-event toggles in config decide which
// events reach the network.
package notifications
