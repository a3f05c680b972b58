package toolprov

import (
	"fmt"

	"tunegrab/internal/services"
)

var (
	ErrNotFound            = fmt.Errorf("%w: not found", services.ErrToolUnavailable)
	ErrUnsupportedPlatform = fmt.Errorf("%w: unsupported platform", services.ErrToolUnavailable)
	ErrDownload            = fmt.Errorf("%w: download failed", services.ErrToolUnavailable)
	ErrExtraction          = fmt.Errorf("%w: extraction failed", services.ErrToolUnavailable)
	ErrVerification        = fmt.Errorf("%w: verification failed", services.ErrToolUnavailable)
	ErrInstall             = fmt.Errorf("%w: install failed", services.ErrToolUnavailable)
)
