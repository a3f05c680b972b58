package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"sort"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateTools(); err != nil {
		return err
	}
	if err := c.validateSearch(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DownloadDir) == "" {
		return errors.New("paths.download_dir must be set")
	}
	if strings.TrimSpace(c.Paths.ToolsDir) == "" {
		return errors.New("paths.tools_dir must be set")
	}
	return nil
}

func (c *Config) validateTools() error {
	if err := ensurePositiveMap(map[string]int{
		"tools.download_timeout_seconds": c.Tools.DownloadTimeoutSeconds,
		"tools.verify_timeout_seconds":   c.Tools.VerifyTimeoutSeconds,
	}); err != nil {
		return err
	}
	if c.Tools.DownloadRetries < 0 {
		return errors.New("tools.download_retries must be zero or positive")
	}
	for key, value := range map[string]string{
		"tools.ffmpeg_url": c.Tools.FFmpegURL,
		"tools.ytdlp_url":  c.Tools.YTDLPURL,
	} {
		if value == "" {
			continue
		}
		if err := validateHTTPURL(value); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	return nil
}

func (c *Config) validateSearch() error {
	if !slices.Contains(AudioModes, c.Search.AudioMode) {
		return fmt.Errorf("search.audio_mode must be one of %s, got %q", strings.Join(AudioModes, ", "), c.Search.AudioMode)
	}
	if c.Search.Retries < 0 {
		return errors.New("search.retries must be zero or positive")
	}
	if c.Search.MinMatchSimilarity < 0 || c.Search.MinMatchSimilarity > 1 {
		return errors.New("search.min_match_similarity must be between 0 and 1")
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.MaxParallel < 1 {
		return errors.New("pipeline.max_parallel must be at least 1")
	}
	if c.Pipeline.MaxParallel > maxParallelLimit {
		return fmt.Errorf("pipeline.max_parallel must not exceed %d", maxParallelLimit)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive (seconds)")
	}
	if c.Notifications.NtfyTopic != "" {
		if err := validateHTTPURL(c.Notifications.NtfyTopic); err != nil {
			return fmt.Errorf("notifications.ntfy_topic: %w", err)
		}
	}
	return nil
}

func validateHTTPURL(value string) error {
	parsed, err := url.Parse(value)
	if err != nil {
		return err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return errors.New("missing host")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if values[key] <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
