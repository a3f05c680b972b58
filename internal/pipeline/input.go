package pipeline

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"tunegrab/internal/csvimport"
	"tunegrab/internal/metadata"
	"tunegrab/internal/services"
)

// InputType says how a request finds its video.
type InputType string

const (
	InputURL    InputType = "url"
	InputSearch InputType = "search"
)

// AudioMode picks the suffix appended to free-text searches.
type AudioMode string

const (
	ModeOfficial AudioMode = "official"
	ModeRaw      AudioMode = "raw"
	ModeClean    AudioMode = "clean"
)

// Suffix returns the words appended to a search line.
func (m AudioMode) Suffix() string {
	switch m {
	case ModeRaw:
		return "raw audio"
	case ModeClean:
		return "clean audio"
	default:
		return "official audio"
	}
}

// ParseAudioMode accepts official, raw or clean (case-insensitive).
func ParseAudioMode(value string) (AudioMode, error) {
	switch mode := AudioMode(strings.ToLower(strings.TrimSpace(value))); mode {
	case ModeOfficial, ModeRaw, ModeClean:
		return mode, nil
	case "":
		return ModeOfficial, nil
	default:
		return "", services.Wrap(services.ErrInputValidation, "input", "audio mode",
			fmt.Sprintf("unknown mode %q (expected official, raw or clean)", value), nil)
	}
}

// Request is one classified unit of work. It is not modified after
// classification.
type Request struct {
	ID           string         `json:"id"`
	Type         InputType      `json:"input_type"`
	OriginalText string         `json:"original_text"`
	VideoID      string         `json:"video_id,omitempty"`
	Query        string         `json:"query,omitempty"`
	Metadata     metadata.Track `json:"metadata,omitzero"`
}

// Label is a short human description for logs and tables.
func (r Request) Label() string {
	if r.Type == InputURL {
		return r.VideoID
	}
	return r.Query
}

// InputResult is the classification of a block of free text.
type InputResult struct {
	Items       []Request `json:"items"`
	TotalCount  int       `json:"total_count"`
	URLCount    int       `json:"url_count"`
	SearchCount int       `json:"search_count"`
}

var videoURLPattern = regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/|youtube\.com/shorts/)([a-zA-Z0-9_-]{11})`)

// ExtractVideoID returns the 11-character id from a watch, short or shorts URL.
func ExtractVideoID(text string) (string, bool) {
	match := videoURLPattern.FindStringSubmatch(text)
	if match == nil {
		return "", false
	}
	return match[1], true
}

// ProcessInput classifies each non-blank line as a video URL or a search
// phrase. Search phrases get the mode suffix appended; URL requests keep the
// trimmed line as their query.
func ProcessInput(text string, mode AudioMode) InputResult {
	result := InputResult{Items: []Request{}}
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		req := Request{ID: uuid.NewString(), OriginalText: line}
		if id, ok := ExtractVideoID(line); ok {
			req.Type = InputURL
			req.VideoID = id
			req.Query = line
			result.URLCount++
		} else {
			req.Type = InputSearch
			req.Query = line + " " + mode.Suffix()
			result.SearchCount++
		}
		result.Items = append(result.Items, req)
	}
	result.TotalCount = len(result.Items)
	return result
}

// FromCSV turns each imported row into a search request carrying the row's
// metadata. CSV queries are used verbatim, without a mode suffix.
func FromCSV(result csvimport.Result) []Request {
	requests := make([]Request, 0, len(result.Entries))
	for _, entry := range result.Entries {
		requests = append(requests, Request{
			ID:           uuid.NewString(),
			Type:         InputSearch,
			OriginalText: entry.SearchQuery,
			Query:        entry.SearchQuery,
			Metadata:     entry.Track(),
		})
	}
	return requests
}

// WithMetadata returns a copy of reqs whose empty metadata fields are filled
// from defaults. Used for --album/--genre style overrides on a whole batch.
func WithMetadata(reqs []Request, defaults metadata.Track) []Request {
	out := make([]Request, len(reqs))
	for i, req := range reqs {
		req.Metadata.FillMissing(defaults)
		out[i] = req
	}
	return out
}
