package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/rezonia/cfdi-processor/internal/logger"
)

// Config is loaded from the environment, optionally seeded from a .env file
type Config struct {
	Log struct {
		Level      string `envconfig:"LOG_LEVEL" default:"info"`
		Format     string `envconfig:"LOG_FORMAT" default:"console"`
		TimeFormat string `envconfig:"LOG_TIME_FORMAT" default:"2006-01-02T15:04:05Z07:00"`
		Output     string `envconfig:"LOG_OUTPUT" default:"stderr"`
	}

	Server struct {
		Address      string        `envconfig:"SERVER_ADDRESS" default:":8080"`
		ReadTimeout  time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"30s"`
		WriteTimeout time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"30s"`
		Debug        bool          `envconfig:"SERVER_DEBUG" default:"false"`
		MaxBodyBytes int64         `envconfig:"SERVER_MAX_BODY_BYTES" default:"10485760"`
	}

	ParseTimeout time.Duration `envconfig:"PARSE_TIMEOUT" default:"10s"`
}

// Load reads configuration from the environment. Missing env files are ignored.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("SERVER_MAX_BODY_BYTES must be positive")
	}
	if c.ParseTimeout <= 0 {
		return fmt.Errorf("PARSE_TIMEOUT must be positive")
	}
	return nil
}

// GetLoggerConfig returns the logger configuration
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.Log.Level,
		Format:     c.Log.Format,
		TimeFormat: c.Log.TimeFormat,
		Output:     c.Log.Output,
	}
}
