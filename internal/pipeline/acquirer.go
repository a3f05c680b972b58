package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"tunegrab/internal/ffmpeg"
	"tunegrab/internal/fileutil"
	"tunegrab/internal/history"
	"tunegrab/internal/logging"
	"tunegrab/internal/metadata"
	"tunegrab/internal/notifications"
	"tunegrab/internal/services"
	"tunegrab/internal/tagger"
	"tunegrab/internal/textutil"
	"tunegrab/internal/toolprov"
	"tunegrab/internal/ytdlp"
)

// ToolProvider makes ffmpeg and yt-dlp available. toolprov.Set implements it.
type ToolProvider interface {
	EnsureAll(ctx context.Context, onStatus toolprov.StatusFunc) (map[string]toolprov.Location, error)
}

// VideoClient searches and downloads. ytdlp.Client implements it.
type VideoClient interface {
	Search(ctx context.Context, query string) (*ytdlp.VideoInfo, error)
	Download(ctx context.Context, videoID, outputDir, ffmpegLocation string, onProgress ytdlp.ProgressFunc) (string, error)
}

// ClientFactory builds a VideoClient for a located yt-dlp binary.
type ClientFactory func(ytdlpPath string) (VideoClient, error)

// Transcoder converts a non-MP3 download. ffmpeg.Client implements it.
type Transcoder interface {
	Convert(ctx context.Context, input, output string) (string, error)
}

// TranscoderFactory builds a Transcoder for a located ffmpeg binary.
type TranscoderFactory func(ffmpegPath string) (Transcoder, error)

// TagFunc writes tags to a file. tagger.Tag is the default.
type TagFunc func(path string, track metadata.Track) error

// Recorder stores completed acquisitions. history.Store implements it.
type Recorder interface {
	Add(ctx context.Context, rec history.Record) (history.Record, error)
}

// Result is the outcome of one request.
type Result struct {
	RequestID  string         `json:"request_id"`
	Request    Request        `json:"request"`
	VideoID    string         `json:"video_id,omitempty"`
	VideoTitle string         `json:"video_title,omitempty"`
	Path       string         `json:"path,omitempty"`
	Metadata   metadata.Track `json:"metadata,omitzero"`
	Stage      string         `json:"failed_stage,omitempty"`
	Error      string         `json:"error,omitempty"`
	Category   string         `json:"error_category,omitempty"`
	Err        error          `json:"-"`
}

// OK reports whether the request succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// Option configures an Acquirer.
type Option func(*Acquirer)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Acquirer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithRecorder enables the record stage.
func WithRecorder(recorder Recorder) Option {
	return func(a *Acquirer) { a.recorder = recorder }
}

// WithNotifier publishes failures and batch summaries.
func WithNotifier(notifier notifications.Service) Option {
	return func(a *Acquirer) {
		if notifier != nil {
			a.notifier = notifier
		}
	}
}

// WithTagFunc replaces the tagger.
func WithTagFunc(tag TagFunc) Option {
	return func(a *Acquirer) {
		if tag != nil {
			a.tag = tag
		}
	}
}

// WithTranscoder enables conversion of downloads that are not MP3.
func WithTranscoder(factory TranscoderFactory) Option {
	return func(a *Acquirer) { a.newTranscoder = factory }
}

// WithEventBuffer sets the event channel capacity.
func WithEventBuffer(size int) Option {
	return func(a *Acquirer) { a.eventBuffer = size }
}

// Acquirer runs requests through the acquisition stages.
type Acquirer struct {
	tools         ToolProvider
	newClient     ClientFactory
	newTranscoder TranscoderFactory
	outputDir     string
	tag           TagFunc
	recorder      Recorder
	notifier      notifications.Service
	logger        *slog.Logger
	eventBuffer   int
	events        *emitter
}

// New builds an Acquirer that writes into outputDir.
func New(tools ToolProvider, newClient ClientFactory, outputDir string, opts ...Option) (*Acquirer, error) {
	if tools == nil {
		return nil, errors.New("tool provider required")
	}
	if newClient == nil {
		return nil, errors.New("client factory required")
	}
	if strings.TrimSpace(outputDir) == "" {
		return nil, errors.New("output directory required")
	}
	a := &Acquirer{
		tools:     tools,
		newClient: newClient,
		outputDir: outputDir,
		tag:       tagger.Tag,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = logging.NewComponentLogger(a.logger, "pipeline")
	a.events = newEmitter(a.eventBuffer)
	return a, nil
}

// Events returns the event stream. It is closed by Close.
func (a *Acquirer) Events() <-chan Event {
	return a.events.ch
}

// DroppedEvents counts events discarded because the stream was full.
func (a *Acquirer) DroppedEvents() int64 {
	return a.events.dropped.Load()
}

// Close closes the event stream. Acquire must not be called afterwards.
func (a *Acquirer) Close() {
	a.events.close()
}

// Acquire runs one request to completion. The returned error, when non-nil,
// is a *StageError and is also stored in Result.Err.
func (a *Acquirer) Acquire(ctx context.Context, req Request) (Result, error) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	ctx = services.WithRequestID(ctx, req.ID)
	res := Result{RequestID: req.ID, Request: req, VideoID: req.VideoID}

	emit := func(ev Event) {
		ev.RequestID = req.ID
		a.events.emit(ev)
	}

	var (
		locations map[string]toolprov.Location
		client    VideoClient
		path      string
		stem      string
		track     metadata.Track
	)

	steps := []struct {
		stage string
		fn    func(context.Context, *slog.Logger) error
	}{
		{StageProvision, func(ctx context.Context, _ *slog.Logger) error {
			var (
				err       error
				installed []string
			)
			locations, err = a.tools.EnsureAll(ctx, func(ev toolprov.StatusEvent) {
				emit(Event{Kind: EventToolStatus, Stage: StageProvision, Tool: ev.Tool, ToolStatus: string(ev.Status), Message: ev.Message})
				if ev.Status == toolprov.StatusComplete {
					installed = append(installed, ev.Tool)
				}
			})
			if err != nil {
				return err
			}
			for _, tool := range installed {
				a.notifyToolInstalled(ctx, tool, locations[tool].Path)
			}
			ytdlpLoc, ok := locations[toolprov.YTDLP.Name]
			if !ok {
				return fmt.Errorf("%w: yt-dlp location missing", toolprov.ErrNotFound)
			}
			client, err = a.newClient(ytdlpLoc.Path)
			return err
		}},
		{StageResolve, func(ctx context.Context, logger *slog.Logger) error {
			if res.VideoID != "" {
				return nil
			}
			emit(Event{Kind: EventProgress, Stage: StageResolve, Message: "searching"})
			info, err := client.Search(ctx, req.Query)
			if err != nil {
				return err
			}
			if info == nil {
				return fmt.Errorf("%w: %q", ErrNoResults, req.Query)
			}
			res.VideoID = info.ID
			res.VideoTitle = info.Title
			logger.Info("search resolved",
				logging.String("query", req.Query),
				logging.String("video_id", info.ID),
				logging.String("video_title", info.Title),
			)
			return nil
		}},
		{StageDownload, func(ctx context.Context, _ *slog.Logger) error {
			if err := os.MkdirAll(a.outputDir, 0o755); err != nil {
				return services.Wrap(services.ErrFileSystem, StageDownload, "create output directory", a.outputDir, err)
			}
			var err error
			path, err = client.Download(ctx, res.VideoID, a.outputDir, locations[toolprov.FFmpeg.Name].Path, func(percent float64, message string) {
				emit(Event{Kind: EventProgress, Stage: StageDownload, Percent: percent, Message: message})
			})
			return err
		}},
		{StageConvert, func(ctx context.Context, logger *slog.Logger) error {
			if strings.EqualFold(filepath.Ext(path), ".mp3") {
				return nil
			}
			if a.newTranscoder == nil {
				return fmt.Errorf("%w: %s", ErrNoTranscoder, filepath.Base(path))
			}
			transcoder, err := a.newTranscoder(locations[toolprov.FFmpeg.Name].Path)
			if err != nil {
				return err
			}
			emit(Event{Kind: EventProgress, Stage: StageConvert, Percent: 90, Message: "converting"})
			converted, err := convertDownload(ctx, logger, transcoder, path)
			if err != nil {
				return err
			}
			logger.Info("download converted to mp3",
				logging.String("source", filepath.Base(path)),
				logging.String("path", converted),
			)
			path = converted
			return nil
		}},
		{StageSanitize, func(_ context.Context, logger *slog.Logger) error {
			var err error
			path, stem, err = sanitizeDownload(path, res.VideoID)
			if err == nil {
				logger.Debug("file sanitized", logging.String("path", path))
			}
			return err
		}},
		{StageInfer, func(context.Context, *slog.Logger) error {
			track = req.Metadata.Normalized()
			track.FillMissing(metadata.Infer(stem))
			if track.Comment == "" {
				track.Comment = ytdlp.WatchURL(res.VideoID)
			}
			return nil
		}},
		{StageTag, func(context.Context, *slog.Logger) error {
			return a.tag(path, track)
		}},
		{StageRecord, func(ctx context.Context, _ *slog.Logger) error {
			if a.recorder == nil {
				return nil
			}
			_, err := a.recorder.Add(ctx, history.Record{
				RequestID: req.ID,
				VideoID:   res.VideoID,
				Query:     req.Query,
				Title:     track.Title,
				Artist:    track.Artist,
				Album:     track.Album,
				Path:      path,
			})
			if err != nil {
				return services.Wrap(services.ErrFileSystem, StageRecord, "history", "", err)
			}
			return nil
		}},
	}

	for _, step := range steps {
		if err := runStage(ctx, a.logger, step.stage, step.fn); err != nil {
			return a.fail(ctx, res, path, err)
		}
	}

	res.Path = path
	res.Metadata = track
	emit(Event{Kind: EventCompleted, Stage: StageRecord, Percent: 100, Path: path, Message: "complete"})
	logging.WithContext(ctx, a.logger).Info("track acquired",
		logging.String(logging.FieldEventType, "acquisition_complete"),
		logging.String("video_id", res.VideoID),
		logging.String("path", path),
		logging.String("artist", track.Artist),
		logging.String("title", track.Title),
	)
	return res, nil
}

func (a *Acquirer) fail(ctx context.Context, res Result, path string, err error) (Result, error) {
	stage, _ := FailedStage(err)
	res.Stage = stage
	res.Path = path
	res.Err = err
	res.Error = err.Error()
	res.Category = services.Category(err)
	a.events.emit(Event{RequestID: res.RequestID, Kind: EventFailed, Stage: stage, Path: path, Error: res.Error})

	if a.notifier != nil && ctx.Err() == nil {
		label := fmt.Sprintf("%s of %q", stage, res.Request.Label())
		if notifyErr := a.notifier.Publish(ctx, notifications.EventError, notifications.Payload{
			"error":   err,
			"context": label,
		}); notifyErr != nil {
			a.logger.Debug("error notification failed", logging.Error(notifyErr))
		}
	}
	return res, err
}

func (a *Acquirer) notifyToolInstalled(ctx context.Context, tool, path string) {
	if a.notifier == nil {
		return
	}
	if err := a.notifier.Publish(ctx, notifications.EventToolInstalled, notifications.Payload{
		"tool": tool,
		"path": path,
	}); err != nil {
		a.logger.Debug("tool notification failed", logging.Error(err))
	}
}

// convertDownload transcodes path to a sibling .mp3 and removes the source.
// The target name is claimed with an exclusive create first so a concurrent
// request cannot be overwritten.
func convertDownload(ctx context.Context, logger *slog.Logger, transcoder Transcoder, path string) (string, error) {
	target := ffmpeg.MP3Path(path)
	placeholder, err := os.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("%w: %s", ErrRenameCollision, target)
		}
		return "", services.Wrap(services.ErrFileSystem, StageConvert, "claim output", target, err)
	}
	_ = placeholder.Close()

	converted, err := transcoder.Convert(ctx, path, target)
	if err != nil {
		_ = os.Remove(target)
		return "", err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("converted source not removed", logging.String("path", path), logging.Error(err))
	}
	return converted, nil
}

// sanitizeDownload strips the " [<videoID>]" suffix and ban-list phrases
// from the file's stem and renames the file when the stem changed. It
// returns the final path and the cleaned stem.
func sanitizeDownload(path, videoID string) (string, string, error) {
	if strings.TrimSpace(path) == "" {
		return "", "", services.Wrap(services.ErrFileSystem, StageSanitize, "", "no downloaded file", nil)
	}
	dir := filepath.Dir(path)
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(filepath.Base(path), ext)

	stripped := stem
	if videoID != "" {
		idSuffix := regexp.MustCompile(`\s*` + regexp.QuoteMeta("["+videoID+"]") + `$`)
		stripped = strings.TrimSpace(idSuffix.ReplaceAllString(stem, ""))
	}
	cleaned := textutil.CleanFileName(stripped)
	if cleaned == "" {
		cleaned = stripped
	}
	if cleaned == "" {
		cleaned = videoID
	}
	if cleaned == stem {
		return path, cleaned, nil
	}

	target := filepath.Join(dir, cleaned+ext)
	if err := fileutil.MoveNoClobber(path, target); err != nil {
		if errors.Is(err, fileutil.ErrDestinationExists) {
			return path, cleaned, fmt.Errorf("%w: %s", ErrRenameCollision, target)
		}
		return path, cleaned, services.Wrap(services.ErrFileSystem, StageSanitize, "rename", target, err)
	}
	return target, cleaned, nil
}
