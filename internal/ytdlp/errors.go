package ytdlp

import (
	"fmt"

	"tunegrab/internal/services"
)

var (
	// ErrSearch covers a failed search subprocess or an unusable result.
	ErrSearch = fmt.Errorf("%w: yt-dlp search failed", services.ErrSubprocess)
	// ErrDownload covers a download subprocess that exited non-zero.
	ErrDownload = fmt.Errorf("%w: yt-dlp download failed", services.ErrSubprocess)
	// ErrPathRecovery means the download succeeded but no output line
	// identified the produced file.
	ErrPathRecovery = fmt.Errorf("%w: could not determine downloaded file path", services.ErrParse)
)
