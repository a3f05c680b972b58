package metadata

import (
	"regexp"
	"strings"
)

const (
	maxArtistLength = 100
	maxTitleLength  = 200
)

// titlePatterns split "Artist - Title" style names. The dash family is tried
// before the colon; the lazy left group takes the first separator.
var titlePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(.+?)\s*[-–—]\s*(.+)`),
	regexp.MustCompile(`(.+?)\s*:\s*(.+)`),
}

// Infer derives artist and title from a cleaned track name. When no
// separator yields a plausible pair the whole trimmed input becomes the title.
func Infer(name string) Track {
	trimmed := strings.TrimSpace(name)
	for _, pattern := range titlePatterns {
		match := pattern.FindStringSubmatch(trimmed)
		if match == nil {
			continue
		}
		artist := strings.TrimSpace(match[1])
		title := strings.TrimSpace(match[2])
		if artist == "" || title == "" {
			continue
		}
		if len(artist) >= maxArtistLength || len(title) >= maxTitleLength {
			continue
		}
		return Track{Artist: artist, Title: title}
	}
	return Track{Title: trimmed}
}
