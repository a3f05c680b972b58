package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"tunegrab/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var (
		limit   int
		videoID string
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List previously acquired tracks",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			var records []history.Record
			if id := strings.TrimSpace(videoID); id != "" {
				records, err = store.FindByVideoID(cmd.Context(), id)
			} else {
				records, err = store.List(cmd.Context(), limit)
			}
			if err != nil {
				return err
			}
			if jsonOut {
				if records == nil {
					records = []history.Record{}
				}
				return writeJSON(cmd, records)
			}

			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No acquisitions recorded")
				return nil
			}
			rows := make([][]string, 0, len(records))
			for _, rec := range records {
				rows = append(rows, []string{
					fmt.Sprintf("%d", rec.ID),
					rec.AcquiredAt.Local().Format("2006-01-02 15:04"),
					rec.Artist,
					rec.Title,
					rec.VideoID,
					rec.Path,
				})
			}
			fmt.Fprintln(out, renderTable([]column{
				{header: "ID", align: alignRight},
				{header: "Acquired"},
				{header: "Artist", maxWidth: 25},
				{header: "Title", maxWidth: 35},
				{header: "Video"},
				{header: "Path", maxWidth: 50},
			}, rows))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum records to show (0 for all)")
	cmd.Flags().StringVar(&videoID, "video", "", "Only show acquisitions of this video id")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	cmd.AddCommand(newHistoryClearCommand(ctx))
	return cmd
}

func newHistoryClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every history record (downloaded files are kept)",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openHistory()
			if err != nil {
				return err
			}
			defer store.Close()
			removed, err := store.Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d history records\n", removed)
			return nil
		},
	}
}
