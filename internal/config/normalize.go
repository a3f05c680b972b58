package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeTools(); err != nil {
		return err
	}
	c.normalizeSearch()
	c.normalizeLogging()
	c.normalizeNotifications()
	return nil
}

func (c *Config) normalizePaths() error {
	fields := []struct {
		key      string
		value    *string
		fallback string
	}{
		{"paths.download_dir", &c.Paths.DownloadDir, defaultDownloadDir},
		{"paths.tools_dir", &c.Paths.ToolsDir, defaultToolsDir},
		{"paths.log_dir", &c.Paths.LogDir, defaultLogDir},
		{"paths.state_dir", &c.Paths.StateDir, defaultStateDir},
	}
	for _, field := range fields {
		if strings.TrimSpace(*field.value) == "" {
			*field.value = field.fallback
		}
		expanded, err := expandPath(strings.TrimSpace(*field.value))
		if err != nil {
			return fmt.Errorf("%s: %w", field.key, err)
		}
		*field.value = expanded
	}
	return nil
}

func (c *Config) normalizeTools() error {
	var err error
	c.Tools.FFmpegBinary = strings.TrimSpace(c.Tools.FFmpegBinary)
	if c.Tools.FFmpegBinary != "" {
		if c.Tools.FFmpegBinary, err = expandPath(c.Tools.FFmpegBinary); err != nil {
			return fmt.Errorf("tools.ffmpeg_binary: %w", err)
		}
	}
	c.Tools.YTDLPBinary = strings.TrimSpace(c.Tools.YTDLPBinary)
	if c.Tools.YTDLPBinary != "" {
		if c.Tools.YTDLPBinary, err = expandPath(c.Tools.YTDLPBinary); err != nil {
			return fmt.Errorf("tools.ytdlp_binary: %w", err)
		}
	}
	c.Tools.FFmpegURL = strings.TrimSpace(c.Tools.FFmpegURL)
	c.Tools.YTDLPURL = strings.TrimSpace(c.Tools.YTDLPURL)
	return nil
}

func (c *Config) normalizeSearch() {
	mode := strings.ToLower(strings.TrimSpace(c.Search.AudioMode))
	if mode == "" {
		mode = defaultAudioMode
	}
	c.Search.AudioMode = mode
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if format == "" {
		format = defaultLogFormat
	}
	c.Logging.Format = format

	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if level == "" {
		level = defaultLogLevel
	}
	c.Logging.Level = level
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("TUNEGRAB_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
}
