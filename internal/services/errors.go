package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInputValidation = errors.New("input validation error")
	ErrToolUnavailable = errors.New("tool unavailable")
	ErrSubprocess      = errors.New("subprocess failure")
	ErrParse           = errors.New("parse failure")
	ErrFileSystem      = errors.New("filesystem error")
	ErrConfiguration   = errors.New("configuration error")
	ErrTransient       = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of
// the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Category maps an error to a short machine-readable label suitable for
// events, JSON output, and notifications.
func Category(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInputValidation):
		return "input_validation"
	case errors.Is(err, ErrToolUnavailable):
		return "tool_unavailable"
	case errors.Is(err, ErrSubprocess):
		return "subprocess_failure"
	case errors.Is(err, ErrParse):
		return "parse_failure"
	case errors.Is(err, ErrFileSystem):
		return "filesystem"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	default:
		return "transient"
	}
}

// Hint returns an operator-facing next step for the error category.
func Hint(err error) string {
	switch Category(err) {
	case "tool_unavailable":
		return "run 'tunegrab tools install' or set tools.*_binary in config"
	case "subprocess_failure":
		return "check yt-dlp output in the log; updating yt-dlp often helps"
	case "parse_failure":
		return "yt-dlp output format may have changed; update yt-dlp"
	case "filesystem":
		return "check permissions and free space in the download directory"
	case "input_validation":
		return "check the input line or CSV row"
	case "configuration":
		return "run 'tunegrab config validate'"
	case "":
		return ""
	default:
		return "retry the request"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
