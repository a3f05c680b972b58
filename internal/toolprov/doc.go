// Package toolprov locates and installs the external executables the
// pipeline drives: ffmpeg for audio conversion and yt-dlp for search and
// download.
//
// Lookup order is an explicitly configured binary, then the PATH, then a
// private install under the tools directory. A candidate only counts when it
// is executable and answers its version flag with exit code 0. Install
// downloads a platform build, extracts it when it arrives as an archive,
// writes it atomically and verifies it. Installs of the same tool are
// serialized within the process and across processes via a lock file.
package toolprov
