package ytdlp

import (
	"regexp"
	"strings"
)

// PathResolver recovers the produced file from a download's stdout.
type PathResolver interface {
	Resolve(output string) (string, bool)
}

// PatternResolver tries each pattern in order against the whole output; the
// first submatch of the first matching pattern is the path.
type PatternResolver struct {
	Patterns []*regexp.Regexp
}

var defaultPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\[ExtractAudio\] Destination: (.+\.mp3)`),
	regexp.MustCompile(`\[Merger\] Merging formats into "?(.+\.mp3)"?`),
	regexp.MustCompile(`\[info\] (.+\.mp3)`),
}

// DefaultResolver recognizes the audio extraction, merger and info lines.
func DefaultResolver() PatternResolver {
	return PatternResolver{Patterns: defaultPatterns}
}

func (r PatternResolver) Resolve(output string) (string, bool) {
	for _, pattern := range r.Patterns {
		match := pattern.FindStringSubmatch(output)
		if len(match) < 2 {
			continue
		}
		path := strings.TrimSpace(match[1])
		if path != "" {
			return path, true
		}
	}
	return "", false
}
