// Package config provides configuration management for catarr using Viper.
// It supports configuration from files, environment variables, and defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Default configuration values.
const (
	defaultServerPort      = 8080
	defaultServerTimeout   = 30 * time.Second
	defaultShutdownTimeout = 10 * time.Second

	defaultIngestWorkers     = 4
	defaultIngestQueueSize   = 256
	defaultIngestGroup       = "Uncategorized"
	defaultHTTPTimeout       = 30 * time.Second
	defaultRetryAttempts     = 3
	defaultRetryDelay        = 1 * time.Second
	defaultRetryMaxDelay     = 30 * time.Second
	defaultProgressEvery     = 100
	defaultProgressInterval  = 500 * time.Millisecond
	defaultMaxPlaylistSize   = "100MB"
	defaultSnapshotDirectory = "./data"
	defaultSnapshotMaxAge    = "7d"
	defaultRefreshCron       = "0 */6 * * *"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Ingest   IngestConfig   `mapstructure:"ingest"`
	Snapshot SnapshotConfig `mapstructure:"snapshot"`
	Refresh  RefreshConfig  `mapstructure:"refresh"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`  // debug, info, warn, error
	Format     string `mapstructure:"format"` // json, text
	AddSource  bool   `mapstructure:"add_source"`
	TimeFormat string `mapstructure:"time_format"`
}

// IngestConfig holds playlist ingestion configuration.
type IngestConfig struct {
	// Workers is the number of channel builder workers.
	Workers int `mapstructure:"workers"`
	// QueueSize is the bounded task queue capacity between parser and workers.
	QueueSize int `mapstructure:"queue_size"`
	// DefaultGroup is the group for channels without a group-title attribute.
	DefaultGroup string `mapstructure:"default_group"`
	// HTTPTimeout is the per-attempt timeout for playlist fetches.
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
	// RetryAttempts is the total number of fetch attempts.
	RetryAttempts int `mapstructure:"retry_attempts"`
	// RetryDelay is the initial backoff delay between attempts.
	RetryDelay time.Duration `mapstructure:"retry_delay"`
	// RetryMaxDelay caps the exponential backoff.
	RetryMaxDelay time.Duration `mapstructure:"retry_max_delay"`
	// ProgressEvery reports progress every N parsed entries.
	ProgressEvery int `mapstructure:"progress_every"`
	// ProgressInterval is the minimum time between progress reports.
	ProgressInterval time.Duration `mapstructure:"progress_interval"`
	// MaxPlaylistSize caps the raw bytes read from a playlist source.
	// Zero disables the cap.
	MaxPlaylistSize ByteSize `mapstructure:"max_playlist_size"`
}

// SnapshotConfig holds catalog snapshot persistence configuration.
type SnapshotConfig struct {
	// Directory is where catalog snapshots are written.
	Directory string `mapstructure:"directory"`
	// MaxAge is the oldest snapshot worth restoring on startup. Zero
	// disables the age check.
	MaxAge Duration `mapstructure:"max_age"`
}

// RefreshConfig holds scheduled catalog refresh configuration.
type RefreshConfig struct {
	// Enabled turns on cron-based refresh of the configured source.
	Enabled bool `mapstructure:"enabled"`
	// Cron is a 5-field cron expression for refresh runs.
	Cron string `mapstructure:"cron"`
	// Source is the playlist source (URL or file path) to refresh from.
	Source string `mapstructure:"source"`
}

// Load reads configuration from file and environment variables.
// Environment variables take precedence over file configuration.
// Environment variables are prefixed with CATARR_ and use underscores for nesting.
// Example: CATARR_SERVER_PORT=8080.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	SetDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/catarr")
		v.AddConfigPath("$HOME/.catarr")
	}

	v.SetEnvPrefix("CATARR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file not found is OK - defaults and env vars still apply.
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, DecodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// SetDefaults configures default values for all configuration options.
// This should be called before reading the config file to ensure defaults are in place.
func SetDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", defaultServerPort)
	v.SetDefault("server.read_timeout", defaultServerTimeout)
	v.SetDefault("server.write_timeout", defaultServerTimeout)
	v.SetDefault("server.shutdown_timeout", defaultShutdownTimeout)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Ingest defaults
	v.SetDefault("ingest.workers", defaultIngestWorkers)
	v.SetDefault("ingest.queue_size", defaultIngestQueueSize)
	v.SetDefault("ingest.default_group", defaultIngestGroup)
	v.SetDefault("ingest.http_timeout", defaultHTTPTimeout)
	v.SetDefault("ingest.retry_attempts", defaultRetryAttempts)
	v.SetDefault("ingest.retry_delay", defaultRetryDelay)
	v.SetDefault("ingest.retry_max_delay", defaultRetryMaxDelay)
	v.SetDefault("ingest.progress_every", defaultProgressEvery)
	v.SetDefault("ingest.progress_interval", defaultProgressInterval)
	v.SetDefault("ingest.max_playlist_size", defaultMaxPlaylistSize)

	// Snapshot defaults
	v.SetDefault("snapshot.directory", defaultSnapshotDirectory)
	v.SetDefault("snapshot.max_age", defaultSnapshotMaxAge)

	// Refresh defaults
	v.SetDefault("refresh.enabled", false)
	v.SetDefault("refresh.cron", defaultRefreshCron)
	v.SetDefault("refresh.source", "")
}

// DecodeHook returns the viper option that enables Duration and ByteSize
// parsing during Unmarshal. Viper's stock hooks cover time.Duration but not
// encoding.TextUnmarshaler.
func DecodeHook() viper.DecoderConfigOption {
	return viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		mapstructure.TextUnmarshallerHookFunc(),
	))
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	const maxPort = 65535
	if c.Server.Port < 1 || c.Server.Port > maxPort {
		return fmt.Errorf("server.port must be between 1 and %d", maxPort)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	if c.Ingest.Workers < 1 {
		return fmt.Errorf("ingest.workers must be at least 1")
	}
	if c.Ingest.QueueSize < 1 {
		return fmt.Errorf("ingest.queue_size must be at least 1")
	}
	if c.Ingest.DefaultGroup == "" {
		return fmt.Errorf("ingest.default_group is required")
	}
	if c.Ingest.RetryAttempts < 1 {
		return fmt.Errorf("ingest.retry_attempts must be at least 1")
	}
	if c.Ingest.MaxPlaylistSize < 0 {
		return fmt.Errorf("ingest.max_playlist_size must not be negative")
	}

	if c.Snapshot.Directory == "" {
		return fmt.Errorf("snapshot.directory is required")
	}
	if c.Snapshot.MaxAge < 0 {
		return fmt.Errorf("snapshot.max_age must not be negative")
	}

	if c.Refresh.Enabled && c.Refresh.Source == "" {
		return fmt.Errorf("refresh.source is required when refresh is enabled")
	}

	return nil
}

// Address returns the server address in host:port format.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SnapshotPath returns the full path to the catalog snapshot file.
func (c *SnapshotConfig) SnapshotPath() string {
	return fmt.Sprintf("%s/catalog.json", c.Directory)
}
