package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tunegrab/internal/notifications"
	"tunegrab/internal/preflight"
	"tunegrab/internal/toolprov"
)

func newToolsCommand(ctx *commandContext) *cobra.Command {
	toolsCmd := &cobra.Command{
		Use:   "tools",
		Short: "Inspect and install ffmpeg and yt-dlp",
	}
	toolsCmd.AddCommand(newToolsStatusCommand(ctx))
	toolsCmd.AddCommand(newToolsInstallCommand(ctx))
	return toolsCmd
}

func newToolsStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show where each tool is found and whether directories are usable",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			tools, err := ctx.toolSet()
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, map[string]any{
					"tools":     tools.Statuses(cmd.Context()),
					"preflight": preflight.RunAll(cmd.Context(), cfg, nil),
				})
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			lines := renderSectionHeader("Tools", colorize)
			for _, status := range tools.Statuses(cmd.Context()) {
				kind, msg := statusWarn, status.Detail
				if status.Available {
					kind, msg = statusOK, fmt.Sprintf("%s (%s)", status.Command, status.Source)
				} else if status.Source == string(toolprov.SourceConfigured) {
					kind = statusError
				}
				lines = append(lines, renderStatusLine(status.Name, kind, msg, colorize))
			}
			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Directories", colorize)...)
			for _, check := range preflight.RunAll(cmd.Context(), cfg, nil) {
				kind := statusError
				if check.Passed {
					kind = statusOK
				}
				lines = append(lines, renderStatusLine(check.Name, kind, check.Detail, colorize))
			}
			for _, line := range lines {
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newToolsInstallCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:       "install [ffmpeg|yt-dlp]",
		Short:     "Install missing tools into the private tools directory",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{toolprov.FFmpeg.Name, toolprov.YTDLP.Name},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			tools, err := ctx.toolSet()
			if err != nil {
				return err
			}
			targets := tools.All()
			if len(args) == 1 {
				p, err := tools.Lookup(args[0])
				if err != nil {
					return err
				}
				targets = []*toolprov.Provisioner{p}
			}

			notifier := notifications.NewService(cfg)
			out := cmd.OutOrStdout()
			for _, p := range targets {
				installed := false
				loc, err := p.Install(cmd.Context(), func(ev toolprov.StatusEvent) {
					if ev.Status == toolprov.StatusComplete {
						installed = true
					}
					fmt.Fprintf(out, "%s: %s\n", ev.Tool, ev.Message)
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s: %s (%s)\n", p.Tool().Name, loc.Path, loc.Source)
				if installed {
					if err := notifier.Publish(cmd.Context(), notifications.EventToolInstalled, notifications.Payload{
						"tool": p.Tool().Name,
						"path": loc.Path,
					}); err != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "notification failed: %v\n", err)
					}
				}
			}
			return nil
		},
	}
}
