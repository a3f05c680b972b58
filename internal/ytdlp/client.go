package ytdlp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"tunegrab/internal/logging"
	"tunegrab/internal/procexec"
	"tunegrab/internal/textutil"
)

const (
	searchResultCount    = 10
	defaultSearchBackoff = time.Second
	watchURLPrefix       = "https://www.youtube.com/watch?v="
	outputTemplate       = "%(title)s [%(id)s].%(ext)s"
	audioFormat          = "bestaudio[ext=m4a]/bestaudio[ext=webm]/bestaudio"
)

// VideoInfo is the first search hit.
type VideoInfo struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	URL             string  `json:"url"`
	ThumbnailURL    string  `json:"thumbnail_url,omitempty"`
	Uploader        string  `json:"uploader,omitempty"`
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
	UploadDate      string  `json:"upload_date,omitempty"`
}

// WatchURL returns the canonical watch page for a video id.
func WatchURL(id string) string {
	return watchURLPrefix + id
}

// ProgressFunc receives the coarse download milestones: 0 "starting",
// 90 "processing" and 100 "complete".
type ProgressFunc func(percent float64, message string)

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// WithResolver replaces the completion-path resolver.
func WithResolver(resolver PathResolver) Option {
	return func(c *Client) {
		if resolver != nil {
			c.resolver = resolver
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithSearchRetries sets how many times a failed search is retried.
func WithSearchRetries(retries int) Option {
	return func(c *Client) {
		if retries >= 0 {
			c.searchRetries = retries
		}
	}
}

// WithSearchBackoff sets the delay before the first search retry.
func WithSearchBackoff(delay time.Duration) Option {
	return func(c *Client) {
		if delay >= 0 {
			c.searchBackoff = delay
		}
	}
}

// WithMinSimilarity sets the match score below which a search hit is logged
// as a probable mismatch.
func WithMinSimilarity(threshold float64) Option {
	return func(c *Client) {
		c.minSimilarity = threshold
	}
}

// Executor runs the yt-dlp subprocess.
type Executor = procexec.Executor

// Client wraps yt-dlp CLI interactions.
type Client struct {
	binary        string
	exec          Executor
	resolver      PathResolver
	logger        *slog.Logger
	searchRetries int
	searchBackoff time.Duration
	minSimilarity float64
}

// New constructs a client for the yt-dlp binary at path.
func New(binary string, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("yt-dlp binary required")
	}
	client := &Client{
		binary:        binary,
		exec:          procexec.Command{},
		resolver:      DefaultResolver(),
		searchRetries: 1,
		searchBackoff: defaultSearchBackoff,
	}
	for _, opt := range opts {
		opt(client)
	}
	client.logger = logging.NewComponentLogger(client.logger, "ytdlp")
	return client, nil
}

// Search returns the first hit for query, or nil when there is none.
func (c *Client) Search(ctx context.Context, query string) (*VideoInfo, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", ErrSearch)
	}
	logger := logging.WithContext(ctx, c.logger)

	delay := c.searchBackoff
	var lastErr error
	for attempt := 0; attempt <= c.searchRetries; attempt++ {
		if attempt > 0 {
			logging.WarnWithContext(logger, "search failed; retrying", "search_retry",
				logging.Int("attempt", attempt),
				logging.Error(lastErr),
				logging.String(logging.FieldErrorHint, "yt-dlp may be rate limited or outdated"),
			)
			if err := sleepContext(ctx, delay); err != nil {
				return nil, err
			}
			delay *= 2
		}
		info, err := c.searchOnce(ctx, query)
		if err == nil {
			if info != nil {
				c.logMatch(logger, query, info)
			}
			return info, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

func (c *Client) searchOnce(ctx context.Context, query string) (*VideoInfo, error) {
	args := []string{
		"--dump-json",
		"--no-download",
		"--quiet",
		"--no-warnings",
		fmt.Sprintf("ytsearch%d:%s", searchResultCount, query),
	}

	var (
		first  string
		stderr procexec.Tail
	)
	err := c.exec.Run(ctx, c.binary, args, func(line string) {
		if first == "" && strings.TrimSpace(line) != "" {
			first = line
		}
	}, stderr.Add)
	if err != nil {
		return nil, fmt.Errorf("%w: %v%s", ErrSearch, err, stderr.Suffix())
	}
	if first == "" {
		return nil, nil
	}
	return parseVideoInfo(first)
}

type searchPayload struct {
	ID              string          `json:"id"`
	Title           string          `json:"title"`
	Thumbnail       string          `json:"thumbnail"`
	Thumbnails      []thumbnail     `json:"thumbnails"`
	Uploader        string          `json:"uploader"`
	UploaderName    string          `json:"uploader_name"`
	Duration        json.RawMessage `json:"duration"`
	DurationSeconds json.RawMessage `json:"duration_seconds"`
	UploadDate      string          `json:"upload_date"`
}

type thumbnail struct {
	URL string `json:"url"`
}

func parseVideoInfo(line string) (*VideoInfo, error) {
	var payload searchPayload
	if err := json.Unmarshal([]byte(line), &payload); err != nil {
		return nil, fmt.Errorf("%w: decode result: %v", ErrSearch, err)
	}
	id := strings.TrimSpace(payload.ID)
	if id == "" {
		return nil, fmt.Errorf("%w: result has no video id", ErrSearch)
	}
	info := &VideoInfo{
		ID:         id,
		Title:      payload.Title,
		URL:        WatchURL(id),
		Uploader:   payload.Uploader,
		UploadDate: payload.UploadDate,
	}
	info.ThumbnailURL = payload.Thumbnail
	if info.ThumbnailURL == "" && len(payload.Thumbnails) > 0 {
		info.ThumbnailURL = payload.Thumbnails[0].URL
	}
	if info.Uploader == "" {
		info.Uploader = payload.UploaderName
	}
	if seconds, ok := number(payload.Duration); ok {
		info.DurationSeconds = seconds
	} else if seconds, ok := number(payload.DurationSeconds); ok {
		info.DurationSeconds = seconds
	}
	return info, nil
}

// number accepts a JSON number or numeric string; null and other types yield false.
func number(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

func (c *Client) logMatch(logger *slog.Logger, query string, info *VideoInfo) {
	score := textutil.MatchScore(query, info.Title)
	attrs := []logging.Attr{
		logging.String("query", query),
		logging.String("video_id", info.ID),
		logging.String("title", info.Title),
		logging.Float64("match_score", score),
	}
	if c.minSimilarity > 0 && score < c.minSimilarity {
		attrs = append(attrs, logging.String(logging.FieldErrorHint, "search hit may not be the requested track; pass a URL instead"))
		logging.WarnWithContext(logger, "low confidence search match", "search_match", attrs...)
		return
	}
	logger.Debug("search match", logging.Args(attrs...)...)
}

var downloadPercent = regexp.MustCompile(`^\[download\]\s+(\d+(?:\.\d+)?)%`)

// Download extracts MP3 audio for videoID into outputDir and returns the
// produced file. ffmpegLocation may be empty to let yt-dlp search PATH.
// Transfer percentages from yt-dlp go to the debug log only.
func (c *Client) Download(ctx context.Context, videoID, outputDir, ffmpegLocation string, onProgress ProgressFunc) (string, error) {
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return "", fmt.Errorf("%w: video id required", ErrDownload)
	}
	if strings.TrimSpace(outputDir) == "" {
		return "", fmt.Errorf("%w: output directory required", ErrDownload)
	}
	progress := func(percent float64, message string) {
		if onProgress != nil {
			onProgress(percent, message)
		}
	}
	logger := logging.WithContext(ctx, c.logger)
	sampler := logging.NewProgressSampler(25)

	args := []string{
		"--format", audioFormat,
		"--output", filepath.Join(outputDir, outputTemplate),
		"--extract-audio",
		"--audio-format", "mp3",
		"--audio-quality", "0",
		"--no-playlist",
		"--no-warnings",
		"--progress",
	}
	if ffmpegLocation = strings.TrimSpace(ffmpegLocation); ffmpegLocation != "" {
		args = append(args, "--ffmpeg-location", ffmpegLocation)
	}
	args = append(args, WatchURL(videoID))

	progress(0, "starting")

	var (
		mu     sync.Mutex
		stdout strings.Builder
		stderr procexec.Tail
	)
	err := c.exec.Run(ctx, c.binary, args, func(line string) {
		mu.Lock()
		stdout.WriteString(line)
		stdout.WriteByte('\n')
		mu.Unlock()
		if match := downloadPercent.FindStringSubmatch(line); match != nil {
			pct, parseErr := strconv.ParseFloat(match[1], 64)
			if parseErr != nil {
				return
			}
			if sampler.ShouldLog(pct, "download") {
				logger.Debug("download progress", logging.String("video_id", videoID), logging.Float64("percent", pct))
			}
		}
	}, stderr.Add)
	if err != nil {
		return "", fmt.Errorf("%w: %v%s", ErrDownload, err, stderr.Suffix())
	}
	progress(90, "processing")

	mu.Lock()
	output := stdout.String()
	mu.Unlock()
	path, ok := c.resolver.Resolve(output)
	if !ok {
		logging.WarnWithContext(logger, "download finished without a recognizable destination", "path_recovery",
			logging.String("video_id", videoID),
			logging.String(logging.FieldErrorHint, "yt-dlp output format may have changed; update yt-dlp"),
		)
		return "", fmt.Errorf("%w: video %s", ErrPathRecovery, videoID)
	}
	progress(100, "complete")
	return path, nil
}

func sleepContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

