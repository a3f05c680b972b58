// Package main hosts the tunegrab CLI entrypoint and command graph.
//
// The Cobra-based command tree turns terminal invocations into acquisition
// batches, CSV imports, tool provisioning, history queries and configuration
// scaffolding. It centralizes configuration resolution and logger setup so
// subcommands can focus on output instead of wiring.
//
// Keep this package lean: new behaviour belongs in the internal packages
// first and is surfaced here through commands or flags.
package main
