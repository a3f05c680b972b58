package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tunegrab/internal/logging"
	"tunegrab/internal/procexec"
	"tunegrab/internal/services"
)

var (
	// ErrInput means the source file is missing or unusable.
	ErrInput = fmt.Errorf("%w: conversion input", services.ErrInputValidation)
	// ErrConvert covers an ffmpeg process that exited non-zero.
	ErrConvert = fmt.Errorf("%w: ffmpeg conversion failed", services.ErrSubprocess)
)

// Option configures a Client.
type Option func(*Client)

// WithExecutor injects a custom executor.
func WithExecutor(exec procexec.Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// Client runs the ffmpeg binary.
type Client struct {
	binary string
	exec   procexec.Executor
	logger *slog.Logger
}

// New constructs a client for the ffmpeg binary at path.
func New(binary string, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("ffmpeg binary required")
	}
	client := &Client{binary: binary, exec: procexec.Command{}}
	for _, opt := range opts {
		opt(client)
	}
	client.logger = logging.NewComponentLogger(client.logger, "ffmpeg")
	return client, nil
}

// ConvertArgs is the argument list for transcoding input to a VBR V0 MP3
// with the video stream dropped. The output is overwritten.
func ConvertArgs(input, output string) []string {
	return []string{"-i", input, "-vn", "-acodec", "libmp3lame", "-q:a", "0", "-y", output}
}

// Convert transcodes input into an MP3 at output, creating the output
// directory when needed, and returns output.
func (c *Client) Convert(ctx context.Context, input, output string) (string, error) {
	input = strings.TrimSpace(input)
	output = strings.TrimSpace(output)
	if input == "" || output == "" {
		return "", fmt.Errorf("%w: input and output paths required", ErrInput)
	}
	info, err := os.Stat(input)
	if err != nil {
		return "", fmt.Errorf("%w: %s does not exist", ErrInput, input)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", ErrInput, input)
	}
	if filepath.Clean(input) == filepath.Clean(output) {
		return "", fmt.Errorf("%w: output must differ from input", ErrInput)
	}
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return "", services.Wrap(services.ErrFileSystem, "convert", "create output directory", filepath.Dir(output), err)
	}

	logger := logging.WithContext(ctx, c.logger)
	started := time.Now()
	var stderr procexec.Tail
	if err := c.exec.Run(ctx, c.binary, ConvertArgs(input, output), nil, stderr.Add); err != nil {
		return "", fmt.Errorf("%w: %v%s", ErrConvert, err, stderr.Suffix())
	}
	logger.Debug("audio converted",
		logging.String("input", input),
		logging.String("output", output),
		logging.Duration("elapsed", time.Since(started)),
	)
	return output, nil
}

// MP3Path returns input with its extension replaced by .mp3.
func MP3Path(input string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + ".mp3"
}
