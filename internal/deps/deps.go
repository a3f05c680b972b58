package deps

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// Status reports the availability of an external executable.
type Status struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Source      string `json:"source,omitempty"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// ErrNotRunnable indicates a binary exists but did not answer its version
// check with a zero exit code.
var ErrNotRunnable = errors.New("binary not runnable")

// ExecutableName appends the platform executable suffix to base.
func ExecutableName(base string) string {
	if runtime.GOOS == "windows" && !strings.HasSuffix(strings.ToLower(base), ".exe") {
		return base + ".exe"
	}
	return base
}

// IsExecutable reports whether info describes a regular file the current
// platform would execute. Windows has no permission bits, so any file counts.
func IsExecutable(info os.FileInfo) bool {
	if info == nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}

// IsExecutableFile stats path and applies IsExecutable.
func IsExecutableFile(path string) bool {
	if strings.TrimSpace(path) == "" {
		return false
	}
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return IsExecutable(info)
}

// FindInPath searches each PATH directory, in order, for the first of names
// that exists and is executable. Unlike exec.LookPath every candidate name is
// tried per directory before moving on, so "ffmpeg.bat" in an earlier
// directory wins over "ffmpeg.exe" in a later one.
func FindInPath(names []string) (string, bool) {
	all := FindAllInPath(names)
	if len(all) == 0 {
		return "", false
	}
	return all[0], true
}

// FindAllInPath returns every executable match in FindInPath order, so a
// caller can fall through to a later candidate when an earlier one fails
// verification.
func FindAllInPath(names []string) []string {
	var found []string
	seen := make(map[string]bool)
	for _, dir := range filepath.SplitList(os.Getenv("PATH")) {
		if dir == "" {
			continue
		}
		for _, name := range names {
			candidate := filepath.Join(dir, name)
			if seen[candidate] || !IsExecutableFile(candidate) {
				continue
			}
			seen[candidate] = true
			found = append(found, candidate)
		}
	}
	return found
}

// VerifyRunnable executes path with args and succeeds only on exit code 0.
// A non-positive timeout disables the deadline.
func VerifyRunnable(ctx context.Context, path string, timeout time.Duration, args ...string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.WaitDelay = 2 * time.Second
	output, err := cmd.CombinedOutput()
	if err != nil {
		detail := strings.TrimSpace(string(output))
		if len(detail) > 200 {
			detail = detail[:200]
		}
		if detail != "" {
			return fmt.Errorf("%w: %s %s: %v (%s)", ErrNotRunnable, path, strings.Join(args, " "), err, detail)
		}
		return fmt.Errorf("%w: %s %s: %v", ErrNotRunnable, path, strings.Join(args, " "), err)
	}
	return nil
}
