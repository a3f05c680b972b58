// Package ytdlp drives the yt-dlp executable for search and audio download.
//
// Search runs a ytsearch query and decodes the first JSON result into a
// VideoInfo. Download extracts MP3 audio into a directory and recovers the
// final file path from yt-dlp's log output through a PathResolver, because
// the tool does not report it in any structured form. Subprocesses run through
// an Executor so tests can substitute canned output.
package ytdlp
