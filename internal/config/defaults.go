package config

const (
	defaultConfigPath             = "~/.config/tunegrab/config.toml"
	defaultDownloadDir            = "~/Music/tunegrab"
	defaultToolsDir               = "~/.local/share/tunegrab/tools"
	defaultLogDir                 = "~/.local/share/tunegrab/logs"
	defaultStateDir               = "~/.local/share/tunegrab"
	defaultDownloadTimeoutSeconds = 300
	defaultDownloadRetries        = 2
	defaultVerifyTimeoutSeconds   = 15
	defaultAudioMode              = "official"
	defaultSearchRetries          = 1
	defaultMinMatchSimilarity     = 0.45
	defaultMaxParallel            = 2
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
	defaultNotifyRequestTimeout   = 10
	maxParallelLimit              = 16
)

// AudioModes lists the accepted values for search.audio_mode.
var AudioModes = []string{"official", "raw", "clean"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DownloadDir: defaultDownloadDir,
			ToolsDir:    defaultToolsDir,
			LogDir:      defaultLogDir,
			StateDir:    defaultStateDir,
		},
		Tools: Tools{
			DownloadTimeoutSeconds: defaultDownloadTimeoutSeconds,
			DownloadRetries:        defaultDownloadRetries,
			VerifyTimeoutSeconds:   defaultVerifyTimeoutSeconds,
		},
		Search: Search{
			AudioMode:          defaultAudioMode,
			Retries:            defaultSearchRetries,
			MinMatchSimilarity: defaultMinMatchSimilarity,
		},
		Pipeline: Pipeline{
			MaxParallel:   defaultMaxParallel,
			RecordHistory: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			BatchComplete:  true,
			Errors:         true,
		},
	}
}
