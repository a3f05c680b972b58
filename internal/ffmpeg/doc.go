// Package ffmpeg drives the provisioned ffmpeg binary to transcode audio
// files to MP3. The pipeline uses it when a download does not arrive as an
// MP3, and the convert command exposes it directly.
package ffmpeg
