package preflight

import (
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"tunegrab/internal/deps"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckTools converts tool statuses into results. Unavailable tools fail
// only when their detail says they are broken or misconfigured; a tool
// that is simply not installed yet passes because it is installed on first
// use.
func CheckTools(ctx context.Context, tools ToolStatuser) []Result {
	statuses := tools.Statuses(ctx)
	results := make([]Result, 0, len(statuses))
	for _, status := range statuses {
		results = append(results, toolResult(status))
	}
	return results
}

func toolResult(status deps.Status) Result {
	if status.Available {
		detail := status.Command
		if status.Source != "" {
			detail = fmt.Sprintf("%s (%s)", status.Command, status.Source)
		}
		return Result{Name: status.Name, Passed: true, Detail: detail}
	}
	if status.Source == "configured" {
		return Result{Name: status.Name, Detail: status.Detail}
	}
	return Result{Name: status.Name, Passed: true, Detail: "not installed (installs on first use)"}
}
