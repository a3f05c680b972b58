// Package preflight provides readiness checks for the directories and
// external tools tunegrab depends on.
//
// The CLI runs RunAll before a fetch or import so a missing download
// directory or an unrunnable tool is reported once, up front, rather than
// as a failure on every request. "tunegrab tools status" renders the same
// results.
package preflight
