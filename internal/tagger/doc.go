// Package tagger writes and reads ID3v2.4 tags on MP3 files.
package tagger
