package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"tunegrab/internal/config"
	"tunegrab/internal/metadata"
	"tunegrab/internal/pipeline"
	"tunegrab/internal/preflight"
)

type batchOptions struct {
	outDir    string
	parallel  int
	jsonOut   bool
	noHistory bool
}

func (o *batchOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.outDir, "out", "o", "", "Directory for downloaded files (default paths.download_dir)")
	cmd.Flags().IntVarP(&o.parallel, "parallel", "p", 0, "Concurrent downloads (default pipeline.max_parallel)")
	cmd.Flags().BoolVar(&o.jsonOut, "json", false, "Output results as JSON")
	cmd.Flags().BoolVar(&o.noHistory, "no-history", false, "Do not record acquisitions in the history database")
}

func newFetchCommand(ctx *commandContext) *cobra.Command {
	var (
		opts      batchOptions
		inputFile string
		mode      string
		album     string
		genre     string
		year      string
		artist    string
	)

	cmd := &cobra.Command{
		Use:   "fetch [url-or-search...]",
		Short: "Download and tag tracks from URLs or search phrases",
		Long: "Each argument (or each line of --file) is either a YouTube URL or a search\n" +
			"phrase. Search phrases get the audio mode suffix appended.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if mode == "" {
				mode = cfg.Search.AudioMode
			}
			audioMode, err := pipeline.ParseAudioMode(mode)
			if err != nil {
				return err
			}

			lines := append([]string(nil), args...)
			if inputFile != "" {
				content, err := readInput(cmd.InOrStdin(), inputFile)
				if err != nil {
					return err
				}
				lines = append(lines, content)
			}
			input := pipeline.ProcessInput(strings.Join(lines, "\n"), audioMode)
			if input.TotalCount == 0 {
				return errors.New("nothing to fetch: pass URLs or search phrases as arguments or with --file")
			}

			reqs := pipeline.WithMetadata(input.Items, metadata.Track{
				Artist: artist,
				Album:  album,
				Genre:  genre,
				Year:   year,
			})
			return runBatch(cmd, ctx, reqs, opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&inputFile, "file", "f", "", "Read one URL or search phrase per line from a file ('-' for stdin)")
	cmd.Flags().StringVarP(&mode, "mode", "m", "", "Search suffix: official, raw or clean (default search.audio_mode)")
	cmd.Flags().StringVar(&artist, "artist", "", "Artist tag for every track")
	cmd.Flags().StringVar(&album, "album", "", "Album tag for every track")
	cmd.Flags().StringVar(&genre, "genre", "", "Genre tag for every track")
	cmd.Flags().StringVar(&year, "year", "", "Year tag for every track")
	return cmd
}

func readInput(stdin io.Reader, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	expanded, err := config.ExpandPath(path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return "", fmt.Errorf("read input file: %w", err)
	}
	return string(data), nil
}

// runBatch provisions, acquires and reports reqs. It returns an error when
// any request failed so the process exits non-zero.
func runBatch(cmd *cobra.Command, ctx *commandContext, reqs []pipeline.Request, opts batchOptions) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger := ctx.ensureLogger()

	outDir := cfg.Paths.DownloadDir
	if strings.TrimSpace(opts.outDir) != "" {
		if outDir, err = config.ExpandPath(opts.outDir); err != nil {
			return err
		}
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	parallel := opts.parallel
	if parallel <= 0 {
		parallel = cfg.Pipeline.MaxParallel
	}

	runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tools, err := ctx.toolSet()
	if err != nil {
		return err
	}
	checks := preflight.RunAll(runCtx, cfg, tools)
	checks = append(checks, preflight.CheckDirectoryAccess("Output directory", outDir))
	if failed := preflight.Failed(checks); len(failed) > 0 {
		var parts []string
		for _, f := range failed {
			parts = append(parts, fmt.Sprintf("%s: %s", f.Name, f.Detail))
		}
		return fmt.Errorf("preflight failed: %s", strings.Join(parts, "; "))
	}

	var extra []pipeline.Option
	if cfg.Pipeline.RecordHistory && !opts.noHistory {
		store, err := ctx.openHistory()
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		defer store.Close()
		extra = append(extra, pipeline.WithRecorder(store))
	}

	acq, err := pipeline.NewFromConfig(cfg, tools, logger, outDir, extra...)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	if !opts.jsonOut {
		errOut := cmd.ErrOrStderr()
		renderer := newProgressRenderer(errOut, reqs, shouldColorize(errOut))
		wg.Add(1)
		go func() {
			defer wg.Done()
			renderer.consume(acq.Events())
		}()
	}

	batch := acq.Run(runCtx, reqs, parallel)
	acq.Close()
	wg.Wait()

	if opts.jsonOut {
		if err := writeJSON(cmd, batch); err != nil {
			return err
		}
	} else {
		printBatch(cmd.OutOrStdout(), batch)
	}

	if errors.Is(runCtx.Err(), context.Canceled) {
		return context.Canceled
	}
	if batch.Failed > 0 {
		return fmt.Errorf("%d of %d requests failed", batch.Failed, len(batch.Results))
	}
	return nil
}

func printBatch(out io.Writer, batch pipeline.BatchResult) {
	rows := make([][]string, 0, len(batch.Results))
	for i, res := range batch.Results {
		status := "ok"
		detail := filepath.Base(res.Path)
		if !res.OK() {
			status = "failed (" + res.Stage + ")"
			detail = res.Error
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			displayLabel(res.Request),
			status,
			detail,
		})
	}
	fmt.Fprintln(out, renderTable([]column{
		{header: "#", align: alignRight},
		{header: "Input", maxWidth: 40},
		{header: "Status"},
		{header: "File / Error", maxWidth: 60},
	}, rows))
	fmt.Fprintf(out, "%d succeeded, %d failed in %s\n", batch.Succeeded, batch.Failed, batch.Duration.Round(time.Millisecond))
	if batch.DroppedEvents > 0 {
		fmt.Fprintf(out, "(%d progress updates were not displayed)\n", batch.DroppedEvents)
	}
}
