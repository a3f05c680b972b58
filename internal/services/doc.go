// Package services defines shared utilities consumed by the acquisition
// pipeline and its external tool integrations.
//
// Key responsibilities:
//   - Context helpers that stamp request correlation identifiers, stage names,
//     and batch positions for logging and progress events.
//   - Structured error markers plus the Wrap helper so every failure carries
//     its category (tool unavailable, subprocess, parse, filesystem, input).
//
// Use these helpers when wiring new stage logic so error handling and
// observability stay uniform across the pipeline.
package services
