// Package history records completed acquisitions in a SQLite ledger.
//
// The ledger is append-only and informational: it lets `tunegrab history`
// list what was fetched and where it landed. Nothing reads it back to resume
// or deduplicate work. Connections use WAL and retry briefly on SQLITE_BUSY
// so concurrent batch workers can record without coordinating.
package history
