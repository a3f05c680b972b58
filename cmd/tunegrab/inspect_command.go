package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tunegrab/internal/config"
	"tunegrab/internal/tagger"
)

func newInspectCommand() *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:         "inspect <mp3>",
		Short:       "Show the tags written to an MP3 file",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			track, err := tagger.Read(path)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, track)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]column{{header: "Tag"}, {header: "Value", maxWidth: 70}}, [][]string{
				{"Title", track.Title},
				{"Artist", track.Artist},
				{"Album", track.Album},
				{"Album artist", track.AlbumArtist},
				{"Track", track.TrackNumber},
				{"Year", track.Year},
				{"Genre", track.Genre},
				{"Comment", track.Comment},
			}))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}
