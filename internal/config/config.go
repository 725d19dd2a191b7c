// Package config loads application configuration from a YAML file and
// environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/linkforge/linkwatch/internal/database"
	"github.com/linkforge/linkwatch/internal/logger"
)

// envPrefix namespaces environment variable overrides,
// e.g. LINKWATCH_SERVER_ADDRESS.
const envPrefix = "LINKWATCH"

// Server defaults.
const (
	defaultServerAddress      = ":8080"
	defaultServerReadTimeout  = 30 * time.Second
	defaultServerWriteTimeout = 30 * time.Second
	defaultServerIdleTimeout  = 60 * time.Second
)

// ServerConfig represents HTTP server configuration.
type ServerConfig struct {
	// Address is the address to listen on (e.g. ":8080").
	Address string `yaml:"address" mapstructure:"address"`
	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	// WriteTimeout is the maximum duration before timing out response writes.
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	// IdleTimeout is the maximum time to wait for the next request.
	IdleTimeout time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout"`
	// APIKey protects the interactive endpoints when non-empty.
	APIKey string `yaml:"api_key" json:"-" mapstructure:"api_key"`
	// CronSecret protects the scheduled batch endpoint when non-empty.
	CronSecret string `yaml:"cron_secret" json:"-" mapstructure:"cron_secret"`
}

// MonitorConfig represents check and batch configuration.
type MonitorConfig struct {
	// UserAgent identifies the engine to source sites.
	UserAgent string `yaml:"user_agent" mapstructure:"user_agent"`
	// FetchTimeout bounds a single page fetch.
	FetchTimeout time.Duration `yaml:"fetch_timeout" mapstructure:"fetch_timeout"`
	// BatchLimit bounds how many backlinks one batch selects.
	BatchLimit int `yaml:"batch_limit" mapstructure:"batch_limit"`
	// BatchWorkers is the outbound fetch concurrency (1 = sequential).
	BatchWorkers int `yaml:"batch_workers" mapstructure:"batch_workers"`
	// BatchWallClock bounds one batch's total run time.
	BatchWallClock time.Duration `yaml:"batch_wall_clock" mapstructure:"batch_wall_clock"`
	// CronSchedule is the in-process batch schedule (5-field cron spec,
	// empty disables the in-process cron).
	CronSchedule string `yaml:"cron_schedule" mapstructure:"cron_schedule"`
}

// Config represents the application configuration.
type Config struct {
	Server   ServerConfig    `yaml:"server"   mapstructure:"server"`
	Database database.Config `yaml:"database" mapstructure:"database"`
	Monitor  MonitorConfig   `yaml:"monitor"  mapstructure:"monitor"`
	Logger   logger.Config   `yaml:"logger"   mapstructure:"logger"`
}

// Load reads configuration from config.yaml (working directory or ./config)
// and the environment. A missing config file is not an error: defaults plus
// environment variables are enough to run.
func Load(cfgFile string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets production-safe default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", defaultServerAddress)
	v.SetDefault("server.read_timeout", defaultServerReadTimeout)
	v.SetDefault("server.write_timeout", defaultServerWriteTimeout)
	v.SetDefault("server.idle_timeout", defaultServerIdleTimeout)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "linkwatch")
	v.SetDefault("database.dbname", "linkwatch")
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("monitor.fetch_timeout", 15*time.Second)
	v.SetDefault("monitor.batch_limit", 50)
	v.SetDefault("monitor.batch_workers", 1)
	v.SetDefault("monitor.batch_wall_clock", 4*time.Minute)
	v.SetDefault("monitor.cron_schedule", "")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.encoding", "json")
	v.SetDefault("logger.development", false)
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return errors.New("server address is required")
	}

	if c.Database.Host == "" || c.Database.DBName == "" {
		return errors.New("database host and dbname are required")
	}

	if c.Monitor.FetchTimeout <= 0 {
		return errors.New("monitor fetch timeout must be positive")
	}

	if c.Monitor.BatchLimit <= 0 {
		return errors.New("monitor batch limit must be positive")
	}

	return nil
}
