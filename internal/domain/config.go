package domain

import "time"

// Config represents the application configuration
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	API          APIConfig          `mapstructure:"api"`
	Download     DownloadConfig     `mapstructure:"download"`
	History      HistoryConfig      `mapstructure:"history"`
	Notification NotificationConfig `mapstructure:"notification"`
	Storage      StorageConfig      `mapstructure:"storage"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// APIConfig contains the remote manga API settings
type APIConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	UserBaseURL string        `mapstructure:"user_base_url"`
	Cookie      string        `mapstructure:"cookie"` // SESSDATA value
	Timeout     time.Duration `mapstructure:"timeout"`
	SearchLimit int           `mapstructure:"search_limit"`
}

// DownloadConfig contains download-related configuration
type DownloadConfig struct {
	Dir                 string        `mapstructure:"dir"`
	ResourceConcurrency int           `mapstructure:"resource_concurrency"` // fetches in flight across all episodes
	EpisodeConcurrency  int           `mapstructure:"episode_concurrency"`
	FetchTimeout        time.Duration `mapstructure:"fetch_timeout"`
	SkipLocked          bool          `mapstructure:"skip_locked"`
	PageSize            int           `mapstructure:"page_size"`
}

// HistoryConfig contains download history persistence configuration
type HistoryConfig struct {
	DatabasePath string `mapstructure:"database_path"`
}

// NotificationConfig contains notification-related configuration
type NotificationConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Sound   bool   `mapstructure:"sound"`
	Method  string `mapstructure:"method"` // osascript, notify-send
}

// StorageConfig contains optional archive upload configuration
type StorageConfig struct {
	S3 S3Config `mapstructure:"s3"`
}

// S3Config describes an S3-compatible bucket that receives finished archives
type S3Config struct {
	Enabled   bool   `mapstructure:"enabled"`
	Endpoint  string `mapstructure:"endpoint"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Prefix    string `mapstructure:"prefix"`
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, or file path
	LogsDir    string `mapstructure:"logs_dir"`
}

// DefaultResourceConcurrency keeps the remote image CDN from rate limiting us.
const DefaultResourceConcurrency = 6

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8089,
		},
		API: APIConfig{
			BaseURL:     "https://manga.bilibili.com",
			UserBaseURL: "https://api.bilibili.com",
			Cookie:      "",
			Timeout:     30 * time.Second,
			SearchLimit: 3,
		},
		Download: DownloadConfig{
			Dir:                 "$HOME/Downloads/manga-dl",
			ResourceConcurrency: DefaultResourceConcurrency,
			EpisodeConcurrency:  3,
			FetchTimeout:        2 * time.Minute,
			SkipLocked:          true,
			PageSize:            10,
		},
		History: HistoryConfig{
			DatabasePath: "$HOME/.manga-dl/history.db",
		},
		Notification: NotificationConfig{
			Enabled: false,
			Sound:   false,
			Method:  "notify-send",
		},
		Storage: StorageConfig{
			S3: S3Config{
				Enabled: false,
				Region:  "us-east-1",
				UseSSL:  true,
				Prefix:  "manga",
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stderr",
			LogsDir:    "$HOME/.manga-dl/logs",
		},
	}
}
