// Package procexec runs external tools and streams their output line by
// line. The yt-dlp and ffmpeg clients share it, and tests substitute their
// own Executor.
package procexec
