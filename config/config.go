// Package config loads and validates the process configuration: the HTTP
// server's host/port, logging level/format, and engine tuning knobs. It
// follows the
// same Validate/SetDefaults contract and YAML+env-var-expansion loading
// style as hector's config package.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Interface is implemented by every configuration section: Validate
// checks the loaded values, SetDefaults fills in anything left zero.
type Interface interface {
	Validate() error
	SetDefaults()
}

// Config is the single entry point for all process configuration,
// mirroring hector's docker-compose-like top-level Config struct.
type Config struct {
	Server  ServerConfig  `yaml:"server,omitempty"`
	Logging LoggingConfig `yaml:"logging,omitempty"`
	Engine  EngineConfig  `yaml:"engine,omitempty"`
}

// ServerConfig configures the HTTP transport.
type ServerConfig struct {
	Host string `yaml:"host,omitempty"`
	Port int    `yaml:"port,omitempty"`
}

func (c *ServerConfig) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	return nil
}

func (c *ServerConfig) SetDefaults() {
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = 8080
	}
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

func (c *LoggingConfig) Validate() error {
	switch c.Level {
	case "", "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("invalid log level: %q", c.Level)
	}
}

func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "simple"
	}
}

// EngineConfig tunes the execution engine's retry backoff and completed-
// workflow retention.
type EngineConfig struct {
	BackoffBaseSeconds float64 `yaml:"backoff_base_seconds,omitempty"`
	BackoffCapSeconds  float64 `yaml:"backoff_cap_seconds,omitempty"`
	HistoryLimit       int     `yaml:"history_limit,omitempty"`
}

func (c *EngineConfig) Validate() error {
	if c.BackoffBaseSeconds < 0 {
		return fmt.Errorf("backoff_base_seconds cannot be negative")
	}
	if c.BackoffCapSeconds < 0 {
		return fmt.Errorf("backoff_cap_seconds cannot be negative")
	}
	if c.HistoryLimit < 0 {
		return fmt.Errorf("history_limit cannot be negative")
	}
	return nil
}

func (c *EngineConfig) SetDefaults() {
	if c.BackoffBaseSeconds == 0 {
		c.BackoffBaseSeconds = 1
	}
	if c.BackoffCapSeconds == 0 {
		c.BackoffCapSeconds = 60
	}
	if c.HistoryLimit == 0 {
		c.HistoryLimit = 256
	}
}

func (c *EngineConfig) BackoffBase() time.Duration {
	return time.Duration(c.BackoffBaseSeconds * float64(time.Second))
}

func (c *EngineConfig) BackoffCap() time.Duration {
	return time.Duration(c.BackoffCapSeconds * float64(time.Second))
}

// Validate validates every section in turn.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config validation failed: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config validation failed: %w", err)
	}
	if err := c.Engine.Validate(); err != nil {
		return fmt.Errorf("engine config validation failed: %w", err)
	}
	return nil
}

// SetDefaults fills in every section's zero-config defaults.
func (c *Config) SetDefaults() {
	c.Server.SetDefaults()
	c.Logging.SetDefaults()
	c.Engine.SetDefaults()
}

// Load reads, env-expands, and unmarshals the YAML config at path,
// applies defaults, and validates the result. A missing path is not an
// error: it returns a defaulted zero-config Config.
func Load(path string) (*Config, error) {
	if err := LoadEnvFiles(); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := loadYAMLFile(path, cfg); err != nil {
				return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to stat config file %s: %w", path, err)
		}
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func loadYAMLFile(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var generic map[string]any
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return fmt.Errorf("invalid YAML: %w", err)
	}
	expanded := ExpandEnvVarsInData(generic)

	reencoded, err := yaml.Marshal(expanded)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(reencoded, cfg)
}

// Watch watches path for changes and invokes onChange with the newly
// loaded, validated Config whenever it is written. The returned closer
// stops the watch. Modeled on the fsnotify-based live reload hector's
// RAG document watcher uses for its source directories.
func Watch(path string, onChange func(*Config, error)) (func() error, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create config watcher: %w", err)
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", path, err)
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				cfg, err := Load(path)
				onChange(cfg, err)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				onChange(nil, err)
			}
		}
	}()

	return watcher.Close, nil
}
