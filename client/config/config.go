package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/TFMV/deltabox/pkg/errors"
)

// Config represents the client configuration
type Config struct {
	Server  ServerConfig `yaml:"server"`
	Logging LogConfig    `yaml:"logging"`
}

// ServerConfig holds engine connection configuration
type ServerConfig struct {
	Address string        `yaml:"address"`
	Port    int           `yaml:"port"`
	Timeout time.Duration `yaml:"timeout"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Endpoint returns the engine endpoint as host:port.
func (c *Config) Endpoint() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// DefaultConfig returns default client configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Address: "localhost",
			Port:    15002,
			Timeout: 30 * time.Second,
		},
		Logging: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from file or falls back to defaults
func Load() (*Config, error) {
	configPath := findConfigFile()
	if configPath != "" {
		return LoadFromFile(configPath)
	}
	return DefaultConfig(), nil
}

// LoadFromFile loads configuration from a specific file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(ErrConfigFileReadFailed, err, "failed to read config file")
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(ErrConfigFileParseFailed, err, "failed to parse config file")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for obvious mistakes
func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return errors.New(ErrServerAddressEmpty, "server address must not be empty")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.Newf(ErrServerPortInvalid, "server port %d out of range", c.Server.Port)
	}
	switch c.Logging.Level {
	case "", "trace", "debug", "info", "warn", "error":
	default:
		return errors.Newf(ErrLogLevelInvalid, "unknown log level %q", c.Logging.Level)
	}
	return nil
}

// findConfigFile searches the working directory and its parents for
// .deltabox.yml, then falls back to the home directory.
func findConfigFile() string {
	dir, err := os.Getwd()
	if err == nil {
		for {
			candidate := filepath.Join(dir, ".deltabox.yml")
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		candidate := filepath.Join(home, ".deltabox.yml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}
