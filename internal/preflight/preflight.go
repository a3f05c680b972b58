package preflight

import (
	"context"

	"tunegrab/internal/config"
	"tunegrab/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// ToolStatuser reports tool availability. toolprov.Set implements it.
type ToolStatuser interface {
	Statuses(ctx context.Context) []deps.Status
}

// RunAll checks the download, tools and state directories and, when tools
// is non-nil, each tool. A tool that is missing but installable passes with
// a note, since the provision stage installs it on demand.
func RunAll(ctx context.Context, cfg *config.Config, tools ToolStatuser) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Download directory", cfg.Paths.DownloadDir),
		CheckDirectoryAccess("Tools directory", cfg.Paths.ToolsDir),
	}
	if cfg.Pipeline.RecordHistory {
		results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))
	}
	if tools != nil {
		results = append(results, CheckTools(ctx, tools)...)
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
