package pipeline

import (
	"log/slog"

	"tunegrab/internal/config"
	"tunegrab/internal/ffmpeg"
	"tunegrab/internal/notifications"
	"tunegrab/internal/toolprov"
	"tunegrab/internal/ytdlp"
)

// ClientFactoryFromConfig builds ytdlp clients with the configured search
// retry and match-confidence settings.
func ClientFactoryFromConfig(cfg *config.Config, logger *slog.Logger) ClientFactory {
	return func(binary string) (VideoClient, error) {
		return ytdlp.New(binary,
			ytdlp.WithLogger(logger),
			ytdlp.WithSearchRetries(cfg.Search.Retries),
			ytdlp.WithMinSimilarity(cfg.Search.MinMatchSimilarity),
		)
	}
}

// TranscoderFactoryFromConfig builds ffmpeg clients for non-MP3 downloads.
func TranscoderFactoryFromConfig(logger *slog.Logger) TranscoderFactory {
	return func(binary string) (Transcoder, error) {
		return ffmpeg.New(binary, ffmpeg.WithLogger(logger))
	}
}

// NewFromConfig wires an Acquirer to the configured tools, download
// directory and notifier. outputDir overrides paths.download_dir when set.
// The caller attaches a recorder with WithRecorder when history is enabled.
func NewFromConfig(cfg *config.Config, tools *toolprov.Set, logger *slog.Logger, outputDir string, opts ...Option) (*Acquirer, error) {
	if outputDir == "" {
		outputDir = cfg.Paths.DownloadDir
	}
	base := []Option{
		WithLogger(logger),
		WithNotifier(notifications.NewService(cfg)),
		WithTranscoder(TranscoderFactoryFromConfig(logger)),
	}
	return New(tools, ClientFactoryFromConfig(cfg, logger), outputDir, append(base, opts...)...)
}
