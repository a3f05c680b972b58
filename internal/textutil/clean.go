package textutil

import (
	"regexp"
	"strings"
)

// bannedPhrases are decorations video titles commonly carry that do not
// belong in a music filename. Matching is case-insensitive.
var bannedPhrases = []string{
	"[Audio HD]",
	"(Radio Mix)",
	"(Official Video)",
	"(lyrics)",
	"(Radio Edit)",
	"[High Quality]",
	"(Official Music Video)",
	"(Audio)",
	"[Clean version]",
	"[visualizer]",
	"[Official]",
	"[Lyric Video]",
	"[Lyrics]",
	"(Lyric Video)",
	"(Explicit)",
	"[Explicit]",
	"(Clean)",
	"[Live]",
	"(Studio)",
	"[Studio]",
	"[Remastered]",
	"[Remix]",
	"(Remix)",
	"[DJ Mix]",
	"(DJ Mix)",
	"[Acoustic]",
	"(Acoustic)",
	"[Instrumental]",
	"(Instrumental)",
	"[Extended]",
	"(Extended)",
	"[Edit]",
	"(Edit)",
	"[Version]",
	"(Version)",
	"[Mixed]",
	"(Mixed)",
}

var (
	bannedPatterns  = compileBanned(bannedPhrases)
	whitespaceRunRe = regexp.MustCompile(`\s+`)
)

// BannedPhrases returns a copy of the phrases CleanFileName removes.
func BannedPhrases() []string {
	out := make([]string, len(bannedPhrases))
	copy(out, bannedPhrases)
	return out
}

func compileBanned(phrases []string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(phrases))
	for _, phrase := range phrases {
		patterns = append(patterns, regexp.MustCompile(`(?i)\s*`+regexp.QuoteMeta(phrase)))
	}
	return patterns
}

// CleanFileName removes banned phrases (and the whitespace before them),
// collapses whitespace runs to a single space, and trims the result. The
// whole pass repeats until the name stops changing, so a second call is
// always a no-op.
func CleanFileName(original string) string {
	cleaned := original
	for {
		next := cleanOnce(cleaned)
		if next == cleaned {
			return next
		}
		cleaned = next
	}
}

func cleanOnce(name string) string {
	name = strings.TrimSpace(whitespaceRunRe.ReplaceAllString(name, " "))
	for _, pattern := range bannedPatterns {
		name = pattern.ReplaceAllString(name, "")
	}
	return strings.TrimSpace(whitespaceRunRe.ReplaceAllString(name, " "))
}
