// Package csvimport turns playlist exports (Exportify-style CSV files) into
// search requests.
//
// Headers are matched fuzzily against six canonical column names, so
// variants such as "Artist", "Artists" or "artist_name(s)" resolve to
// "Artist Name(s)". Every data row is processed independently: a malformed
// row or one without any searchable name becomes a numbered error string and
// the rest of the file still imports.
package csvimport
