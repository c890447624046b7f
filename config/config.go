package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Black-And-White-Club/pingpong-bot/app/shared/observability"
)

// Config struct to hold the configuration settings
type Config struct {
	Postgres      PostgresConfig      `yaml:"postgres"`
	NATS          NATSConfig          `yaml:"nats"`
	Observability ObservabilityConfig `yaml:"observability"`
	Rating        RatingConfig        `yaml:"rating"`
	Queue         QueueConfig         `yaml:"queue"`
	HTTP          HTTPConfig          `yaml:"http"`
}

// PostgresConfig holds Postgres configuration.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// NATSConfig holds NATS configuration. An empty URL selects the in-memory bus.
type NATSConfig struct {
	URL string `yaml:"url"`
}

// ObservabilityConfig holds configuration for observability components
type ObservabilityConfig struct {
	Environment    string `yaml:"environment"`
	LogLevel       string `yaml:"log_level"`
	MetricsAddress string `yaml:"metrics_address"`
	Version        string `yaml:"version"`
}

// RatingConfig holds defaults for newly created groups.
type RatingConfig struct {
	BaselineRating int `yaml:"baseline_rating"`
}

// QueueConfig controls the river maintenance queue.
type QueueConfig struct {
	Enabled             bool          `yaml:"enabled"`
	SeasonCheckInterval time.Duration `yaml:"season_check_interval"`
	ReplayInterval      time.Duration `yaml:"replay_interval"`
	MaxWorkers          int           `yaml:"max_workers"`
}

// HTTPConfig holds the ops server settings.
type HTTPConfig struct {
	Address string `yaml:"address"`
	// ChartRatePerMinute limits chart renders per client.
	ChartRatePerMinute int `yaml:"chart_rate_per_minute"`
}

// Defaults returns a config with every optional field filled.
func Defaults() Config {
	return Config{
		Observability: ObservabilityConfig{Environment: "development", LogLevel: "info"},
		Rating:        RatingConfig{BaselineRating: 1000},
		Queue: QueueConfig{
			Enabled:             true,
			SeasonCheckInterval: time.Hour,
			ReplayInterval:      24 * time.Hour,
			MaxWorkers:          5,
		},
		HTTP: HTTPConfig{Address: ":8080", ChartRatePerMinute: 30},
	}
}

// LoadConfig loads the configuration from a YAML file.
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		// If the file is not found, try loading from environment variables
		return loadConfigFromEnv()
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadConfigFromEnv loads the configuration from environment variables.
func loadConfigFromEnv() (*Config, error) {
	cfg := Defaults()
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	if cfg.Postgres.DSN == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv overrides file values with environment variables when present.
func applyEnv(cfg *Config) error {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("METRICS_ADDRESS"); v != "" {
		cfg.Observability.MetricsAddress = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}
	if v := os.Getenv("ENV"); v != "" {
		cfg.Observability.Environment = v
	}
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("QUEUE_ENABLED"); v != "" {
		cfg.Queue.Enabled = v == "true"
	}
	if v := os.Getenv("RATING_BASELINE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid RATING_BASELINE value: %v", err)
		}
		cfg.Rating.BaselineRating = n
	}
	if v := os.Getenv("SEASON_CHECK_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid SEASON_CHECK_INTERVAL value: %v", err)
		}
		cfg.Queue.SeasonCheckInterval = d
	}
	return nil
}

// Validate rejects settings the services cannot run with.
func (c *Config) Validate() error {
	if c.Rating.BaselineRating < 100 {
		return fmt.Errorf("rating.baseline_rating must be at least 100, got %d", c.Rating.BaselineRating)
	}
	if c.Queue.Enabled && c.Queue.SeasonCheckInterval <= 0 {
		return fmt.Errorf("queue.season_check_interval must be positive")
	}
	if c.Queue.Enabled && c.Queue.ReplayInterval <= 0 {
		return fmt.Errorf("queue.replay_interval must be positive")
	}
	if c.HTTP.ChartRatePerMinute < 0 {
		return fmt.Errorf("http.chart_rate_per_minute must not be negative")
	}
	return nil
}

func ToObsConfig(appCfg *Config) observability.Config {
	return observability.Config{
		Environment: appCfg.Observability.Environment,
		LogLevel:    appCfg.Observability.LogLevel,
		Version:     appCfg.Observability.Version,
	}
}
