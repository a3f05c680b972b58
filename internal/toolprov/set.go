package toolprov

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"tunegrab/internal/config"
	"tunegrab/internal/deps"
	"tunegrab/internal/httpx"
)

// Set bundles the provisioners for every tool the pipeline needs.
type Set struct {
	FFmpeg *Provisioner
	YTDLP  *Provisioner
}

// NewSet builds provisioners from configuration. Extra options apply to both.
func NewSet(cfg *config.Config, logger *slog.Logger, extra ...Option) *Set {
	client := httpx.NewClient(
		time.Duration(cfg.Tools.DownloadTimeoutSeconds)*time.Second,
		cfg.Tools.DownloadRetries,
	)
	return NewSetWithClient(cfg, client, logger, extra...)
}

// NewSetWithClient is NewSet with a caller-supplied HTTP client.
func NewSetWithClient(cfg *config.Config, client *http.Client, logger *slog.Logger, extra ...Option) *Set {
	common := []Option{
		WithHTTPClient(client),
		WithLogger(logger),
		WithVerifyTimeout(time.Duration(cfg.Tools.VerifyTimeoutSeconds) * time.Second),
	}
	ffmpegOpts := append(append([]Option{}, common...),
		WithExplicitPath(cfg.Tools.FFmpegBinary),
		WithSourceURL(cfg.Tools.FFmpegURL),
	)
	ytdlpOpts := append(append([]Option{}, common...),
		WithExplicitPath(cfg.Tools.YTDLPBinary),
		WithSourceURL(cfg.Tools.YTDLPURL),
	)
	return &Set{
		FFmpeg: New(FFmpeg, cfg.Paths.ToolsDir, append(ffmpegOpts, extra...)...),
		YTDLP:  New(YTDLP, cfg.Paths.ToolsDir, append(ytdlpOpts, extra...)...),
	}
}

// All returns the provisioners in install order.
func (s *Set) All() []*Provisioner {
	return []*Provisioner{s.FFmpeg, s.YTDLP}
}

// Lookup returns the provisioner for a tool name such as "ffmpeg" or "yt-dlp".
func (s *Set) Lookup(name string) (*Provisioner, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	switch normalized {
	case FFmpeg.Name:
		return s.FFmpeg, nil
	case YTDLP.Name, "ytdlp", "youtube-dl":
		return s.YTDLP, nil
	}
	return nil, fmt.Errorf("unknown tool %q (expected ffmpeg or yt-dlp)", name)
}

// Statuses reports every tool's availability.
func (s *Set) Statuses(ctx context.Context) []deps.Status {
	out := make([]deps.Status, 0, 2)
	for _, p := range s.All() {
		out = append(out, p.Status(ctx))
	}
	return out
}

// EnsureAll installs any missing tool and returns their locations keyed by
// tool name. The first failure aborts.
func (s *Set) EnsureAll(ctx context.Context, onStatus StatusFunc) (map[string]Location, error) {
	locations := make(map[string]Location, 2)
	for _, p := range s.All() {
		loc, err := p.Install(ctx, onStatus)
		if err != nil {
			return nil, err
		}
		locations[p.Tool().Name] = loc
	}
	return locations, nil
}
