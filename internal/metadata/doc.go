// Package metadata models the tags attached to an acquired track and infers
// artist and title from "Artist - Title" style names.
//
// Caller-supplied values always win: inference only fills fields that are
// still empty (see Track.FillMissing).
package metadata
