package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"
	"github.com/yourusername/manga-dl-go/internal/domain"
)

// DefaultConfigPath is where SaveConfig writes when no path is given
const DefaultConfigPath = "$HOME/.manga-dl/config.yaml"

// LoadConfig loads configuration from file and environment
func LoadConfig(configPath string) (*domain.Config, error) {
	// Start with default config
	config := domain.DefaultConfig()

	// Set up viper
	v := viper.New()
	v.SetConfigType("yaml")

	// If config path is provided, use it
	if configPath != "" {
		v.SetConfigFile(expandPath(configPath))
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("./configs")
		v.AddConfigPath(expandPath("$HOME/.manga-dl"))
		v.AddConfigPath("/etc/manga-dl")
	}

	// Read environment variables
	v.SetEnvPrefix("MANGADL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)

	// Try to read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !(configPath != "" && os.IsNotExist(err)) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults
	}

	// Unmarshal into config struct
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Expand environment variables in paths
	config = expandPaths(config)

	// Validate config
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// bindEnvKeys registers every key so AutomaticEnv also works for keys
// absent from the config file
func bindEnvKeys(v *viper.Viper) {
	for key := range configValues(domain.DefaultConfig()) {
		_ = v.BindEnv(key)
	}
}

// expandPaths expands environment variables in path configurations
func expandPaths(config *domain.Config) *domain.Config {
	config.Download.Dir = expandPath(config.Download.Dir)
	config.History.DatabasePath = expandPath(config.History.DatabasePath)
	config.Logging.LogsDir = expandPath(config.Logging.LogsDir)

	if config.Logging.OutputPath != "stdout" && config.Logging.OutputPath != "stderr" {
		config.Logging.OutputPath = expandPath(config.Logging.OutputPath)
	}

	return config
}

// expandPath expands environment variables and ~ in paths
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	return os.ExpandEnv(path)
}

// validateConfig validates the configuration
func validateConfig(config *domain.Config) error {
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.API.BaseURL == "" {
		return fmt.Errorf("api base url not configured")
	}

	if config.Download.Dir == "" {
		return fmt.Errorf("download directory not configured")
	}

	if config.Download.ResourceConcurrency < 1 {
		return fmt.Errorf("resource concurrency must be at least 1")
	}

	if config.Download.EpisodeConcurrency < 1 {
		return fmt.Errorf("episode concurrency must be at least 1")
	}

	if config.Download.PageSize < 1 {
		config.Download.PageSize = 10
	}

	if config.History.DatabasePath == "" {
		return fmt.Errorf("history database path not configured")
	}

	if config.Storage.S3.Enabled && (config.Storage.S3.Endpoint == "" || config.Storage.S3.Bucket == "") {
		return fmt.Errorf("s3 upload enabled but endpoint or bucket missing")
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}

	return nil
}

// SaveConfig saves configuration to file
func SaveConfig(config *domain.Config, path string) error {
	if path == "" {
		path = DefaultConfigPath
	}
	path = expandPath(path)

	v := viper.New()
	v.SetConfigType("yaml")

	// Marshal config to viper
	for key, value := range configValues(config) {
		v.Set(key, value)
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// The file holds the session credential
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("failed to restrict config file: %w", err)
	}

	return nil
}

// configValues flattens config into viper keys matching the mapstructure tags
func configValues(config *domain.Config) map[string]interface{} {
	return map[string]interface{}{
		"server.host":                   config.Server.Host,
		"server.port":                   config.Server.Port,
		"api.base_url":                  config.API.BaseURL,
		"api.user_base_url":             config.API.UserBaseURL,
		"api.cookie":                    config.API.Cookie,
		"api.timeout":                   config.API.Timeout.String(),
		"api.search_limit":              config.API.SearchLimit,
		"download.dir":                  config.Download.Dir,
		"download.resource_concurrency": config.Download.ResourceConcurrency,
		"download.episode_concurrency":  config.Download.EpisodeConcurrency,
		"download.fetch_timeout":        config.Download.FetchTimeout.String(),
		"download.skip_locked":          config.Download.SkipLocked,
		"download.page_size":            config.Download.PageSize,
		"history.database_path":         config.History.DatabasePath,
		"notification.enabled":          config.Notification.Enabled,
		"notification.sound":            config.Notification.Sound,
		"notification.method":           config.Notification.Method,
		"storage.s3.enabled":            config.Storage.S3.Enabled,
		"storage.s3.endpoint":           config.Storage.S3.Endpoint,
		"storage.s3.bucket":             config.Storage.S3.Bucket,
		"storage.s3.region":             config.Storage.S3.Region,
		"storage.s3.access_key":         config.Storage.S3.AccessKey,
		"storage.s3.secret_key":         config.Storage.S3.SecretKey,
		"storage.s3.use_ssl":            config.Storage.S3.UseSSL,
		"storage.s3.prefix":             config.Storage.S3.Prefix,
		"logging.level":                 config.Logging.Level,
		"logging.format":                config.Logging.Format,
		"logging.output_path":           config.Logging.OutputPath,
		"logging.logs_dir":              config.Logging.LogsDir,
	}
}

// SetConfigValue assigns value to one config key, e.g. "download.dir".
// The value is decoded into the field's type and the result is validated.
func SetConfigValue(config *domain.Config, key, value string) error {
	key = strings.ToLower(strings.TrimSpace(key))

	values := configValues(config)
	if _, ok := values[key]; !ok {
		return fmt.Errorf("unknown config key: %s", key)
	}

	v := viper.New()
	for k, current := range values {
		v.Set(k, current)
	}
	v.Set(key, value)

	updated := *config
	if err := v.Unmarshal(&updated); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	expandPaths(&updated)
	if err := validateConfig(&updated); err != nil {
		return err
	}

	*config = updated
	return nil
}

// ConfigKeys returns every settable key in sorted order with its current value
func ConfigKeys(config *domain.Config) ([]string, map[string]interface{}) {
	values := configValues(config)
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, values
}
