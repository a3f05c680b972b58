package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"tunegrab/internal/config"
	"tunegrab/internal/csvimport"
	"tunegrab/internal/pipeline"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	var (
		opts   batchOptions
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "import <csv>",
		Short: "Download and tag every track listed in a playlist CSV export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			result, err := csvimport.ParseFile(path, csvimport.Options{StrictQuotes: cfg.CSV.StrictQuotes})
			if err != nil {
				return err
			}

			if dryRun {
				if opts.jsonOut {
					return writeJSON(cmd, result)
				}
				printImport(cmd.OutOrStdout(), result)
				return nil
			}

			if !opts.jsonOut {
				printImportErrors(cmd.ErrOrStderr(), result)
			}
			if result.SuccessCount == 0 {
				return fmt.Errorf("no importable rows in %s", path)
			}
			return runBatch(cmd, ctx, pipeline.FromCSV(result), opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Parse and list the rows without downloading")
	return cmd
}

func printImport(out io.Writer, result csvimport.Result) {
	rows := make([][]string, 0, len(result.Entries))
	for _, entry := range result.Entries {
		track := entry.Track()
		rows = append(rows, []string{
			fmt.Sprintf("%d", entry.RowNumber),
			entry.SearchQuery,
			track.Album,
			track.Year,
		})
	}
	fmt.Fprintln(out, renderTable([]column{
		{header: "Row", align: alignRight},
		{header: "Search", maxWidth: 60},
		{header: "Album", maxWidth: 30},
		{header: "Year"},
	}, rows))
	fmt.Fprintf(out, "%d rows: %d importable, %d skipped\n", result.TotalCount, result.SuccessCount, result.ErrorCount)
	printImportErrors(out, result)
}

func printImportErrors(out io.Writer, result csvimport.Result) {
	for _, msg := range result.Errors {
		fmt.Fprintln(out, "  "+msg)
	}
}

func newHeadersCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "headers <csv>",
		Short:       "Show which recognized columns a CSV provides",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			file, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open csv: %w", err)
			}
			defer file.Close()

			found, err := csvimport.ValidateHeaders(file)
			if err != nil {
				return err
			}
			present := make(map[string]bool, len(found))
			for _, h := range found {
				present[h] = true
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, canonical := range csvimport.CanonicalHeaders {
				kind, msg := statusWarn, "missing"
				if present[canonical] {
					kind, msg = statusOK, "found"
				}
				fmt.Fprintln(out, renderStatusLine(canonical, kind, msg, colorize))
			}
			if !present[csvimport.HeaderArtistNames] && !present[csvimport.HeaderTrackName] {
				return fmt.Errorf("neither %q nor %q found; no rows can be imported", csvimport.HeaderArtistNames, csvimport.HeaderTrackName)
			}
			return nil
		},
	}
}
