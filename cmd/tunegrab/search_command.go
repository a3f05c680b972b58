package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tunegrab/internal/pipeline"
	"tunegrab/internal/toolprov"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var (
		mode    string
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "search <query...>",
		Short: "Show the video a search phrase resolves to without downloading",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			query := strings.TrimSpace(strings.Join(args, " "))
			if mode != "" {
				audioMode, err := pipeline.ParseAudioMode(mode)
				if err != nil {
					return err
				}
				query += " " + audioMode.Suffix()
			}

			tools, err := ctx.toolSet()
			if err != nil {
				return err
			}
			loc, err := tools.YTDLP.Install(cmd.Context(), printToolStatus(cmd))
			if err != nil {
				return err
			}
			client, err := pipeline.ClientFactoryFromConfig(cfg, ctx.ensureLogger())(loc.Path)
			if err != nil {
				return err
			}
			info, err := client.Search(cmd.Context(), query)
			if err != nil {
				return err
			}
			if info == nil {
				if jsonOut {
					return writeJSON(cmd, nil)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "No results for %q\n", query)
				return nil
			}
			if jsonOut {
				return writeJSON(cmd, info)
			}
			duration := time.Duration(info.DurationSeconds * float64(time.Second)).Round(time.Second)
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]column{{header: "Field"}, {header: "Value", maxWidth: 70}}, [][]string{
				{"Query", query},
				{"Title", info.Title},
				{"Uploader", info.Uploader},
				{"Duration", duration.String()},
				{"Uploaded", info.UploadDate},
				{"URL", info.URL},
				{"Thumbnail", info.ThumbnailURL},
			}))
			return nil
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", "", "Append an audio mode suffix (official, raw or clean)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

// printToolStatus reports install progress on stderr, skipping the common
// already-installed case.
func printToolStatus(cmd *cobra.Command) toolprov.StatusFunc {
	out := cmd.ErrOrStderr()
	return func(ev toolprov.StatusEvent) {
		if ev.Status == toolprov.StatusAlreadyInstalled {
			return
		}
		fmt.Fprintf(out, "%s: %s\n", ev.Tool, ev.Message)
	}
}
