package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the load-scheduling engine.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Upstream   UpstreamConfig   `mapstructure:"upstream"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	Host         string        `mapstructure:"host"`
	Debug        bool          `mapstructure:"debug"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	FilePath string `mapstructure:"file_path"`
}

// CacheConfig holds the price/emission time-series cache's freshness and
// backfill policy.
type CacheConfig struct {
	// PriceReleaseHour is the fixed UTC hour at which day-ahead spot
	// prices are released.
	PriceReleaseHour int `mapstructure:"price_release_hour"`
	// EmissionPollInterval is loaded from configuration but no code reads
	// it; the emission backfill runs whenever the cached series does not
	// cover a request's window, regardless of this value.
	EmissionPollInterval time.Duration `mapstructure:"emission_poll_interval"`
}

// UpstreamConfig holds the base URLs and retry policy for the day-ahead
// price and carbon-intensity feeds the cache backfills from.
type UpstreamConfig struct {
	PriceBaseURL    string        `mapstructure:"price_base_url"`
	EmissionBaseURL string        `mapstructure:"emission_base_url"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	MaxRetries      int           `mapstructure:"max_retries"`
	RetryBackoff    time.Duration `mapstructure:"retry_backoff"`
}

// SchedulerConfig holds engine-tuning knobs that are not part of the core
// algorithm but govern how an individual request invokes it.
type SchedulerConfig struct {
	// MaxTasksPerRequest caps the permutation sweep, which is factorial
	// in the task count; requests above this are rejected before the
	// engine runs.
	MaxTasksPerRequest int `mapstructure:"max_tasks_per_request"`
	// DefaultHorizon is loaded from configuration but no code reads it;
	// the horizon a request is scheduled against comes from the price
	// cache's release calendar and the cached price series.
	DefaultHorizon time.Duration `mapstructure:"default_horizon"`
}

// MonitoringConfig holds monitoring/metrics configuration.
type MonitoringConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	MetricsPath string `mapstructure:"metrics_path"`
	HealthPath  string `mapstructure:"health_path"`
}

// LoadConfig loads configuration in layers: programmatic defaults, then
// the YAML file, then environment variables.
func LoadConfig(configPath ...string) (*Config, error) {
	if len(configPath) > 0 && configPath[0] != "" {
		viper.SetConfigFile(configPath[0])
	} else {
		viper.SetConfigName("config")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
		viper.AddConfigPath("/etc/loadsched")
	}
	viper.SetConfigType("yaml")

	setDefaults()

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	setServerDefaults()
	setLoggingDefaults()
	setCacheDefaults()
	setUpstreamDefaults()
	setSchedulerDefaults()
	setMonitoringDefaults()
}

func setServerDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")
}

func setLoggingDefaults() {
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output", "stdout")
}

func setCacheDefaults() {
	viper.SetDefault("cache.price_release_hour", 13)
	viper.SetDefault("cache.emission_poll_interval", "5m")
}

func setUpstreamDefaults() {
	viper.SetDefault("upstream.request_timeout", "10s")
	viper.SetDefault("upstream.max_retries", 3)
	viper.SetDefault("upstream.retry_backoff", "500ms")
}

func setSchedulerDefaults() {
	viper.SetDefault("scheduler.max_tasks_per_request", 7)
	viper.SetDefault("scheduler.default_horizon", "48h")
}

func setMonitoringDefaults() {
	viper.SetDefault("monitoring.enabled", true)
	viper.SetDefault("monitoring.metrics_path", "/metrics")
	viper.SetDefault("monitoring.health_path", "/health")
}
