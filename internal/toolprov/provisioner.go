package toolprov

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"tunegrab/internal/deps"
	"tunegrab/internal/fileutil"
	"tunegrab/internal/httpx"
	"tunegrab/internal/logging"
)

const (
	defaultVerifyTimeout = 15 * time.Second
	lockRetryDelay       = 250 * time.Millisecond
)

// Source says where a located binary came from.
type Source string

const (
	SourceConfigured Source = "configured"
	SourceSystem     Source = "system"
	SourcePrivate    Source = "private"
)

// Location is a verified, runnable executable. It is never cached; every
// Locate call re-checks the filesystem.
type Location struct {
	Path   string `json:"path"`
	Source Source `json:"source"`
}

// InstallStatus is the phase reported to a StatusFunc during Install.
type InstallStatus string

const (
	StatusAlreadyInstalled InstallStatus = "already_installed"
	StatusDownloading      InstallStatus = "downloading"
	StatusInstalling       InstallStatus = "installing"
	StatusComplete         InstallStatus = "complete"
	StatusError            InstallStatus = "error"
)

// StatusEvent describes install progress. Delivery is best effort.
type StatusEvent struct {
	Tool    string        `json:"tool"`
	Status  InstallStatus `json:"status"`
	Message string        `json:"message"`
}

// StatusFunc receives install status events.
type StatusFunc func(StatusEvent)

// Provisioner locates and installs one Tool.
type Provisioner struct {
	tool          Tool
	toolsDir      string
	explicitPath  string
	sourceURL     string
	client        *http.Client
	verifyTimeout time.Duration
	logger        *slog.Logger
	goos          string
	goarch        string

	mu sync.Mutex
}

// Option configures a Provisioner.
type Option func(*Provisioner)

// WithExplicitPath pins a binary that must be used instead of searching.
func WithExplicitPath(path string) Option {
	return func(p *Provisioner) { p.explicitPath = strings.TrimSpace(path) }
}

// WithSourceURL overrides the platform download URL.
func WithSourceURL(url string) Option {
	return func(p *Provisioner) { p.sourceURL = strings.TrimSpace(url) }
}

// WithHTTPClient sets the client used for downloads.
func WithHTTPClient(client *http.Client) Option {
	return func(p *Provisioner) {
		if client != nil {
			p.client = client
		}
	}
}

// WithVerifyTimeout bounds each version check.
func WithVerifyTimeout(timeout time.Duration) Option {
	return func(p *Provisioner) {
		if timeout > 0 {
			p.verifyTimeout = timeout
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Provisioner) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithPlatform overrides GOOS/GOARCH for source selection and filenames.
func WithPlatform(goos, goarch string) Option {
	return func(p *Provisioner) {
		p.goos = goos
		p.goarch = goarch
	}
}

// New builds a provisioner for tool with private installs under toolsDir.
func New(tool Tool, toolsDir string, opts ...Option) *Provisioner {
	p := &Provisioner{
		tool:          tool,
		toolsDir:      toolsDir,
		verifyTimeout: defaultVerifyTimeout,
		goos:          runtime.GOOS,
		goarch:        runtime.GOARCH,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.client == nil {
		p.client = httpx.NewClient(0, -1)
	}
	p.logger = logging.NewComponentLogger(p.logger, "toolprov").With(logging.String("tool", tool.Name))
	return p
}

// Tool returns the tool definition.
func (p *Provisioner) Tool() Tool {
	return p.tool
}

// PrivatePath is where Install places the binary.
func (p *Provisioner) PrivatePath() string {
	return filepath.Join(p.toolsDir, p.tool.Name, p.tool.Version, p.tool.InstallName(p.goos))
}

// Locate resolves a runnable binary. A configured path is authoritative;
// otherwise every PATH candidate is checked in order, then the private
// install. A PATH binary that fails its version check is skipped.
func (p *Provisioner) Locate(ctx context.Context) (Location, error) {
	if p.explicitPath != "" {
		if err := p.check(ctx, p.explicitPath); err != nil {
			return Location{}, fmt.Errorf("%w: configured %s %s: %v", ErrNotFound, p.tool.Name, p.explicitPath, err)
		}
		return Location{Path: p.explicitPath, Source: SourceConfigured}, nil
	}

	for _, path := range deps.FindAllInPath(p.tool.Candidates(p.goos)) {
		err := p.check(ctx, path)
		if err == nil {
			return Location{Path: path, Source: SourceSystem}, nil
		}
		logging.WarnWithContext(p.logger, "system binary not runnable; trying next candidate", "tool_verify",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "repair or remove the PATH binary"),
		)
	}

	private := p.PrivatePath()
	if deps.IsExecutableFile(private) {
		if err := p.check(ctx, private); err == nil {
			return Location{Path: private, Source: SourcePrivate}, nil
		}
	}
	return Location{}, fmt.Errorf("%w: %s", ErrNotFound, p.tool.Name)
}

func (p *Provisioner) check(ctx context.Context, path string) error {
	if !deps.IsExecutableFile(path) {
		return errors.New("missing or not executable")
	}
	return deps.VerifyRunnable(ctx, path, p.verifyTimeout, p.tool.VersionArgs...)
}

// Install returns the located binary when one is usable, and otherwise
// downloads, extracts, writes and verifies the private copy.
func (p *Provisioner) Install(ctx context.Context, onStatus StatusFunc) (Location, error) {
	emit := func(status InstallStatus, format string, args ...any) {
		if onStatus == nil {
			return
		}
		onStatus(StatusEvent{Tool: p.tool.Name, Status: status, Message: fmt.Sprintf(format, args...)})
	}

	loc, err := p.Locate(ctx)
	if err == nil {
		emit(StatusAlreadyInstalled, "%s already installed at %s", p.tool.Name, loc.Path)
		return loc, nil
	}
	if p.explicitPath != "" {
		emit(StatusError, "%v", err)
		return Location{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := os.MkdirAll(p.toolsDir, 0o755); err != nil {
		emit(StatusError, "create tools directory: %v", err)
		return Location{}, fmt.Errorf("%w: create tools directory: %v", ErrInstall, err)
	}
	lock := flock.New(filepath.Join(p.toolsDir, p.tool.Name+".lock"))
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil || !locked {
		emit(StatusError, "acquire install lock: %v", err)
		return Location{}, fmt.Errorf("%w: acquire install lock: %v", ErrInstall, err)
	}
	defer func() {
		_ = lock.Unlock()
	}()

	// Another installer may have finished while we waited for the lock.
	if loc, err := p.Locate(ctx); err == nil {
		emit(StatusAlreadyInstalled, "%s already installed at %s", p.tool.Name, loc.Path)
		return loc, nil
	}

	loc, err = p.install(ctx, emit)
	if err != nil {
		emit(StatusError, "%v", err)
		logging.ErrorWithContext(p.logger, "tool install failed", "tool_install",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check network access or set tools.*_url / tools.*_binary"),
		)
		return Location{}, err
	}
	emit(StatusComplete, "%s installed successfully", p.tool.Name)
	p.logger.Info("tool installed",
		logging.String(logging.FieldEventType, "tool_install"),
		logging.String("path", loc.Path),
	)
	return loc, nil
}

func (p *Provisioner) install(ctx context.Context, emit func(InstallStatus, string, ...any)) (Location, error) {
	url := p.sourceURL
	if url == "" {
		var err error
		if url, err = p.tool.SourceURL(p.goos, p.goarch); err != nil {
			return Location{}, err
		}
	}

	emit(StatusDownloading, "Starting download...")
	archivePath, size, err := p.download(ctx, url, func(total int64) {
		emit(StatusDownloading, "Downloading %d bytes...", total)
	})
	if err != nil {
		return Location{}, err
	}
	defer os.Remove(archivePath)
	p.logger.Debug("tool downloaded", logging.String("url", url), logging.Int64("bytes", size))

	emit(StatusInstalling, "Writing binary to disk...")
	target := p.PrivatePath()
	write := func(r io.Reader) error {
		if _, _, err := fileutil.WriteFileAtomic(target, r, 0o755); err != nil {
			return fmt.Errorf("%w: write %s: %v", ErrInstall, target, err)
		}
		return nil
	}

	if kind := classifyArchive(url); kind != archiveNone {
		if err := extractTo(archivePath, kind, p.tool.InstallName(p.goos), write); err != nil {
			return Location{}, err
		}
	} else {
		file, err := os.Open(archivePath)
		if err != nil {
			return Location{}, fmt.Errorf("%w: reopen download: %v", ErrInstall, err)
		}
		err = write(file)
		file.Close()
		if err != nil {
			return Location{}, err
		}
	}

	if err := deps.VerifyRunnable(ctx, target, p.verifyTimeout, p.tool.VersionArgs...); err != nil {
		return Location{}, fmt.Errorf("%w: %v", ErrVerification, err)
	}
	return Location{Path: target, Source: SourcePrivate}, nil
}

// download streams url into a temporary file in the tools directory.
func (p *Provisioner) download(ctx context.Context, url string, onSize func(int64)) (string, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrDownload, err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %s: %v", ErrDownload, url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", 0, fmt.Errorf("%w: %s: HTTP %d", ErrDownload, url, resp.StatusCode)
	}
	onSize(max(resp.ContentLength, 0))

	tmp, err := os.CreateTemp(p.toolsDir, "."+p.tool.Name+".*.download")
	if err != nil {
		return "", 0, fmt.Errorf("%w: create temp file: %v", ErrInstall, err)
	}
	written, err := io.Copy(tmp, resp.Body)
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return "", 0, fmt.Errorf("%w: read body: %v", ErrDownload, err)
	}
	return tmp.Name(), written, nil
}

// Status reports availability for display without installing anything.
func (p *Provisioner) Status(ctx context.Context) deps.Status {
	status := deps.Status{
		Name:        p.tool.Name,
		Command:     p.tool.InstallName(p.goos),
		Description: p.description(),
	}
	loc, err := p.Locate(ctx)
	if err != nil {
		status.Detail = "not found; run 'tunegrab tools install " + p.tool.Name + "'"
		if p.explicitPath != "" {
			status.Command = p.explicitPath
			status.Source = string(SourceConfigured)
			status.Detail = err.Error()
		}
		return status
	}
	status.Available = true
	status.Command = loc.Path
	status.Source = string(loc.Source)
	return status
}

func (p *Provisioner) description() string {
	switch p.tool.Name {
	case FFmpeg.Name:
		return "Converts downloaded audio to MP3"
	case YTDLP.Name:
		return "Searches and downloads videos"
	default:
		return ""
	}
}
