package toolprov

import (
	"fmt"
	"strings"
)

// Tool describes one provisionable executable.
type Tool struct {
	// Name is the bare executable name and private install subdirectory.
	Name string
	// Version pins the private install subdirectory.
	Version string
	// VersionArgs is the invocation that must exit 0 for the binary to count.
	VersionArgs []string

	candidates func(goos string) []string
	source     func(goos, goarch string) (string, bool)
}

const (
	ffbinariesBase = "https://github.com/ffbinaries/ffbinaries-prebuilt/releases/download/v6.1/"
	ytdlpRelease   = "2025.10.22"
	ytdlpBase      = "https://github.com/yt-dlp/yt-dlp/releases/download/" + ytdlpRelease + "/"
)

// FFmpeg is the media transcoder yt-dlp uses to produce MP3 files.
var FFmpeg = Tool{
	Name:        "ffmpeg",
	Version:     "6.1",
	VersionArgs: []string{"-version"},
	candidates: func(goos string) []string {
		if goos == "windows" {
			return []string{"ffmpeg.exe", "ffmpeg.bat", "ffmpeg.cmd"}
		}
		return []string{"ffmpeg"}
	},
	source: func(goos, goarch string) (string, bool) {
		switch goos + "/" + goarch {
		case "windows/amd64":
			return ffbinariesBase + "ffmpeg-6.1-win-64.zip", true
		case "linux/amd64":
			return ffbinariesBase + "ffmpeg-6.1-linux-64.zip", true
		case "linux/arm64":
			return ffbinariesBase + "ffmpeg-6.1-linux-arm-64.zip", true
		case "darwin/amd64", "darwin/arm64":
			return ffbinariesBase + "ffmpeg-6.1-macos-64.zip", true
		}
		return "", false
	},
}

// YTDLP is the video search and download utility.
var YTDLP = Tool{
	Name:        "yt-dlp",
	Version:     ytdlpRelease,
	VersionArgs: []string{"--version"},
	candidates: func(goos string) []string {
		if goos == "windows" {
			return []string{"yt-dlp.exe"}
		}
		return []string{"yt-dlp"}
	},
	source: func(goos, goarch string) (string, bool) {
		switch goos + "/" + goarch {
		case "windows/amd64":
			return ytdlpBase + "yt-dlp.exe", true
		case "windows/386":
			return ytdlpBase + "yt-dlp_x86.exe", true
		case "darwin/amd64", "darwin/arm64":
			return ytdlpBase + "yt-dlp_macos", true
		case "linux/amd64":
			return ytdlpBase + "yt-dlp_linux", true
		case "linux/arm64":
			return ytdlpBase + "yt-dlp_linux_aarch64", true
		case "linux/arm":
			return ytdlpBase + "yt-dlp_linux_armv7l", true
		}
		return "", false
	},
}

// Candidates returns the executable filenames searched on PATH.
func (t Tool) Candidates(goos string) []string {
	if t.candidates == nil {
		return []string{t.InstallName(goos)}
	}
	return t.candidates(goos)
}

// InstallName is the filename used for the private install.
func (t Tool) InstallName(goos string) string {
	if goos == "windows" {
		return t.Name + ".exe"
	}
	return t.Name
}

// SourceURL returns the download location for the platform.
func (t Tool) SourceURL(goos, goarch string) (string, error) {
	if t.source != nil {
		if url, ok := t.source(goos, goarch); ok {
			return url, nil
		}
	}
	return "", fmt.Errorf("%w: no %s build for %s/%s", ErrUnsupportedPlatform, t.Name, goos, goarch)
}

// archiveKind classifies a download by its URL suffix.
type archiveKind int

const (
	archiveNone archiveKind = iota
	archiveZip
	archiveTarXZ
	archiveTarGz
)

func classifyArchive(url string) archiveKind {
	lower := strings.ToLower(url)
	if idx := strings.IndexAny(lower, "?#"); idx >= 0 {
		lower = lower[:idx]
	}
	switch {
	case strings.HasSuffix(lower, ".zip"):
		return archiveZip
	case strings.HasSuffix(lower, ".tar.xz"), strings.HasSuffix(lower, ".txz"):
		return archiveTarXZ
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return archiveTarGz
	default:
		return archiveNone
	}
}
