package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tunegrab/internal/ffmpeg"
)

func newConvertCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert <input> [output]",
		Short: "Transcode an audio or video file to MP3 with the managed ffmpeg",
		Long: "Transcode an audio or video file to a VBR MP3. The output defaults to\n" +
			"the input path with an .mp3 extension and is overwritten if present.",
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := ctx.ensureConfig(); err != nil {
				return err
			}
			input := args[0]
			output := ffmpeg.MP3Path(input)
			if len(args) == 2 {
				output = args[1]
			}

			tools, err := ctx.toolSet()
			if err != nil {
				return err
			}
			loc, err := tools.FFmpeg.Install(cmd.Context(), printToolStatus(cmd))
			if err != nil {
				return err
			}
			client, err := ffmpeg.New(loc.Path, ffmpeg.WithLogger(ctx.ensureLogger()))
			if err != nil {
				return err
			}
			converted, err := client.Convert(cmd.Context(), input, output)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Converted %s\n", converted)
			return nil
		},
	}
	return cmd
}
