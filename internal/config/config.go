// Package config provides configuration management for the theft detection
// system.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Config represents the main system configuration
type Config struct {
	Version   string          `yaml:"version"`
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Bus       BusConfig       `yaml:"bus"`
	Detection DetectionConfig `yaml:"detection"`
	Alerting  AlertingConfig  `yaml:"alerting"`
	Logging   LoggingConfig   `yaml:"logging"`

	// Internal fields
	mu       sync.RWMutex    `yaml:"-"`
	path     string          `yaml:"-"`
	watchers []func(*Config) `yaml:"-"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins,omitempty"`
}

// DatabaseConfig holds database settings
type DatabaseConfig struct {
	Path string `yaml:"path"` // SQLite path; empty selects the in-memory store
}

// BusConfig holds embedded event bus settings
type BusConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host,omitempty"`
	Port    int    `yaml:"port,omitempty"`
}

// DetectionConfig holds classifier and video analysis settings
type DetectionConfig struct {
	ModelPath           string `yaml:"model_path,omitempty"`
	VideoTimeoutSeconds int    `yaml:"video_timeout_seconds"`
	MaxUploadMB         int    `yaml:"max_upload_mb"`
}

// AlertingConfig holds alert store settings
type AlertingConfig struct {
	SeedSamples bool `yaml:"seed_samples"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns a configuration with all defaults applied, suitable for
// running without a config file.
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// Load loads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.path = path
	cfg.setDefaults()
	cfg.applyEnvOverrides()

	return &cfg, nil
}

// Save saves the configuration to a YAML file
func (c *Config) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saveUnlocked()
}

// saveUnlocked saves without acquiring lock (caller must hold lock)
func (c *Config) saveUnlocked() error {
	// Copy fields individually to avoid marshaling the mutex
	cfgCopy := &Config{
		Version:   c.Version,
		Server:    c.Server,
		Database:  c.Database,
		Bus:       c.Bus,
		Detection: c.Detection,
		Alerting:  c.Alerting,
		Logging:   c.Logging,
	}

	data, err := yaml.Marshal(cfgCopy)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := "# Theft Detection System Configuration\n\n"
	data = append([]byte(header), data...)

	// Atomic write
	tmpPath := c.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return os.Rename(tmpPath, c.path)
}

// Watch starts watching for configuration file changes
func (c *Config) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	go func() {
		defer watcher.Close()

		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&fsnotify.Write == fsnotify.Write {
					time.Sleep(100 * time.Millisecond) // Debounce
					c.reload()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Error("Config watch error", "error", err)
			}
		}
	}()

	return watcher.Add(c.path)
}

// OnChange registers a callback for config changes
func (c *Config) OnChange(fn func(*Config)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.watchers = append(c.watchers, fn)
}

// reload reloads the configuration from disk
func (c *Config) reload() {
	newCfg, err := Load(c.path)
	if err != nil {
		slog.Error("Failed to reload config", "error", err)
		return
	}

	c.mu.Lock()
	c.Version = newCfg.Version
	c.Server = newCfg.Server
	c.Database = newCfg.Database
	c.Bus = newCfg.Bus
	c.Detection = newCfg.Detection
	c.Alerting = newCfg.Alerting
	c.Logging = newCfg.Logging
	watchers := c.watchers
	c.mu.Unlock()

	slog.Info("Configuration reloaded")

	for _, fn := range watchers {
		fn(c)
	}
}

// SetPath sets the path for the config file (used for saving)
func (c *Config) SetPath(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.path = path
}

// GetPath returns the current config file path
func (c *Config) GetPath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.path
}

// Addr returns the server listen address
func (c *Config) Addr() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// VideoTimeout returns the video analysis deadline as a duration
func (c *Config) VideoTimeout() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Duration(c.Detection.VideoTimeoutSeconds) * time.Second
}

// setDefaults sets default values for unset fields
func (c *Config) setDefaults() {
	if c.Version == "" {
		c.Version = "1.0"
	}
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 5000
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"*"}
	}
	if c.Bus.Host == "" {
		c.Bus.Host = "127.0.0.1"
	}
	if c.Bus.Port == 0 {
		c.Bus.Port = 12001
	}
	if c.Detection.VideoTimeoutSeconds == 0 {
		c.Detection.VideoTimeoutSeconds = 120
	}
	if c.Detection.MaxUploadMB == 0 {
		c.Detection.MaxUploadMB = 100
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
}

// applyEnvOverrides lets deployment environments override file settings
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("THEFTGUARD_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("THEFTGUARD_DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("THEFTGUARD_MODEL_PATH"); v != "" {
		c.Detection.ModelPath = v
	}
	if v := os.Getenv("THEFTGUARD_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// LogLevel maps the configured level string to a slog level
func (c *Config) LogLevel() slog.Level {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch c.Logging.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
