// Package config loads, validates and watches the fitdex configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/fitdex/fitdex/pkg/exerciseapi"
	"github.com/fitdex/fitdex/pkg/storage"
	"github.com/fitdex/fitdex/pkg/telemetry"
)

// DefaultPath is used when neither --config nor FITDEX_CONFIG is set.
const DefaultPath = "./fitdex.yaml"

// Environment variables consulted by Load.
const (
	EnvConfigPath = "FITDEX_CONFIG"
	EnvAPIKey     = "FITDEX_API_KEY"
	EnvAPIKeyAlt  = "API_NINJAS_KEY"
	EnvLogLevel   = "LOG_LEVEL"
)

// Config is the complete application configuration.
type Config struct {
	// DataDir holds the SQLite database when storage.sqlite.path is unset.
	DataDir string `yaml:"data_dir" validate:"required"`

	Storage   storage.Config     `yaml:"storage"`
	API       exerciseapi.Config `yaml:"api"`
	Telemetry telemetry.Config   `yaml:"telemetry"`

	// path is the file this config was loaded from.
	path string
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		DataDir: "./data",
		Storage: storage.Config{
			Driver: storage.DriverSQLite,
			Redis: storage.RedisConfig{
				Addr:   "localhost:6379",
				Prefix: storage.DefaultRedisPrefix,
			},
		},
		API: exerciseapi.Config{
			BaseURL: exerciseapi.DefaultBaseURL,
			Timeout: exerciseapi.DefaultTimeout,
		},
		Telemetry: *telemetry.DefaultConfig(),
	}
}

// ResolvePath picks the config path: explicit flag, then FITDEX_CONFIG,
// then DefaultPath.
func ResolvePath(flag string) string {
	if flag != "" {
		return flag
	}
	if env := os.Getenv(EnvConfigPath); env != "" {
		return env
	}
	return DefaultPath
}

// Load reads path over the defaults and applies environment overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	cfg.path = path

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if key := os.Getenv(EnvAPIKey); key != "" {
		c.API.APIKey = key
	} else if key := os.Getenv(EnvAPIKeyAlt); key != "" {
		c.API.APIKey = key
	}
	if level := os.Getenv(EnvLogLevel); level != "" {
		c.Telemetry.Logging.Level = strings.ToLower(level)
	}
}

func (c *Config) applyDefaults() {
	if c.Storage.Driver == "" {
		c.Storage.Driver = storage.DriverSQLite
	}
	if c.Storage.Driver == storage.DriverSQLite && c.Storage.SQLite.Path == "" {
		c.Storage.SQLite.Path = filepath.Join(c.DataDir, "fitdex.db")
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	switch c.Storage.Driver {
	case storage.DriverSQLite:
		if c.Storage.SQLite.Path == "" {
			return fmt.Errorf("invalid configuration: storage.sqlite.path is required")
		}
	case storage.DriverRedis:
		if c.Storage.Redis.Addr == "" {
			return fmt.Errorf("invalid configuration: storage.redis.addr is required")
		}
	}

	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("invalid telemetry configuration: %w", err)
	}
	return nil
}

// Path returns the file the configuration was loaded from.
func (c *Config) Path() string {
	return c.path
}

// Save writes the configuration as YAML. The API key is never written.
func (c *Config) Save(path string) error {
	out := *c
	out.API.APIKey = ""

	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	header := []byte("# fitdex configuration\n# The API key is read from FITDEX_API_KEY or API_NINJAS_KEY.\n\n")
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, append(header, data...), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
