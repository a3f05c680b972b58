// Package textutil provides text processing utilities for track filenames and
// search results.
//
// The primary use cases are:
//   - Removing promotional decorations such as "(Official Video)" from
//     downloaded filenames
//   - Scoring how closely a search result title matches the query that found it
package textutil
