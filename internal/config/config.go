package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string        `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT" envDefault:"json"`
	ShutdownTimeout time.Duration // SHUTDOWN_TIMEOUT, read by sharedcfg

	// Scenario tables come from DataDir unless DataBaseURL is set.
	DataDir          string        `env:"DATA_DIR" envDefault:"data"`
	DataBaseURL      string        `env:"DATA_BASE_URL"`
	DataTimeout      time.Duration `env:"DATA_TIMEOUT" envDefault:"10s"`
	ScenarioRegistry string        `env:"SCENARIO_REGISTRY"`

	CacheEnabled bool          `env:"CACHE_ENABLED" envDefault:"true"`
	CacheSize    int           `env:"CACHE_SIZE" envDefault:"8"`
	CacheTTL     time.Duration `env:"CACHE_TTL" envDefault:"0"`

	// Readiness flips on the first assembled dashboard, so turning off the
	// startup warm requires a schedule to do it instead.
	WarmOnStart  bool   `env:"WARM_ON_START" envDefault:"true"`
	WarmSchedule string `env:"WARM_SCHEDULE"`

	KafkaBrokers []string // KAFKA_BROKERS, comma-separated
	KafkaTopic   string   `env:"KAFKA_TOPIC" envDefault:"nitrogen-dashboard"`

	OTelEndpoint    string `env:"OTEL_ENDPOINT"`
	OTelServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"nitrogen-dashboard"`
}

// Load reads configuration from environment variables, applying defaults
// where unset. Variables in envFile are loaded first without overriding the
// process environment; a missing envFile is not an error.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}
	cfg.ShutdownTimeout = shutdownTimeout
	cfg.KafkaBrokers = sharedcfg.ParseBrokers(os.Getenv("KAFKA_BROKERS"))

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// KafkaEnabled reports whether assembled dashboards are published.
func (c *Config) KafkaEnabled() bool { return len(c.KafkaBrokers) > 0 }

// RemoteData reports whether tables are fetched over HTTP.
func (c *Config) RemoteData() bool { return c.DataBaseURL != "" }

func (c *Config) validate() error {
	if c.ShutdownTimeout <= 0 {
		return errors.New("SHUTDOWN_TIMEOUT must be positive")
	}
	if c.DataTimeout <= 0 {
		return errors.New("DATA_TIMEOUT must be positive")
	}
	if !c.RemoteData() && c.DataDir == "" {
		return errors.New("DATA_DIR is required when DATA_BASE_URL is not set")
	}
	if c.CacheEnabled && c.CacheSize <= 0 {
		return errors.New("CACHE_SIZE must be positive when CACHE_ENABLED is true")
	}
	if c.CacheTTL < 0 {
		return errors.New("CACHE_TTL must not be negative")
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "console", "text":
	default:
		return fmt.Errorf("LOG_FORMAT %q must be json or console", c.LogFormat)
	}
	if c.WarmSchedule != "" {
		if _, err := cron.ParseStandard(c.WarmSchedule); err != nil {
			return fmt.Errorf("invalid WARM_SCHEDULE %q: %w", c.WarmSchedule, err)
		}
	} else if !c.WarmOnStart {
		return errors.New("WARM_ON_START=false requires WARM_SCHEDULE, otherwise the service never becomes ready")
	}
	if c.KafkaEnabled() && c.KafkaTopic == "" {
		return errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}
	return nil
}
