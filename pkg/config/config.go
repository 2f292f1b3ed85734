package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the mail exporter
type Config struct {
	// IMAP server settings
	Server ServerConfig `yaml:"server" json:"server"`

	// Export output settings
	Export ExportConfig `yaml:"export" json:"export"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Retry behavior for page fetches
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// ServerConfig holds IMAP connection settings
type ServerConfig struct {
	Host    string        `yaml:"host" json:"host"`
	Port    int           `yaml:"port" json:"port"`
	UseTLS  bool          `yaml:"use_tls" json:"use_tls"`
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// ExportConfig holds artifact output and pagination settings
type ExportConfig struct {
	OutputDirectory     string `yaml:"output_directory" json:"output_directory"`
	CheckpointDirectory string `yaml:"checkpoint_directory" json:"checkpoint_directory"`
	PageSize            int    `yaml:"page_size" json:"page_size"`
}

// RateLimitConfig holds rate limiting configuration for IMAP commands
type RateLimitConfig struct {
	CommandsPerMinute int `yaml:"commands_per_minute" json:"commands_per_minute"`
	BurstSize         int `yaml:"burst_size" json:"burst_size"`
}

// RetryConfig holds retry configuration for page fetches
type RetryConfig struct {
	MaxAttempts  int           `yaml:"max_attempts" json:"max_attempts"`
	BaseDelay    time.Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay     time.Duration `yaml:"max_delay" json:"max_delay"`
	Multiplier   float64       `yaml:"multiplier" json:"multiplier"`
	JitterFactor float64       `yaml:"jitter_factor" json:"jitter_factor"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:    993,
			UseTLS:  true,
			Timeout: 30 * time.Second,
		},
		Export: ExportConfig{
			OutputDirectory: "./context",
			PageSize:        100,
		},
		RateLimit: RateLimitConfig{
			CommandsPerMinute: 60,
			BurstSize:         10,
		},
		Retry: RetryConfig{
			MaxAttempts:  3,
			BaseDelay:    1 * time.Second,
			MaxDelay:     60 * time.Second,
			Multiplier:   2.0,
			JitterFactor: 0.1,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration overrides from environment variables.
// A .env file in the working directory is honored if present.
func (c *Config) LoadFromEnv() error {
	// Ignore a missing .env file, but not a malformed one
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to load .env file: %w", err)
	}

	if host := os.Getenv("MAILEXPORT_IMAP_HOST"); host != "" {
		c.Server.Host = host
	}
	if port := os.Getenv("MAILEXPORT_IMAP_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid MAILEXPORT_IMAP_PORT: %w", err)
		}
		c.Server.Port = p
	}
	if tls := os.Getenv("MAILEXPORT_IMAP_TLS"); tls != "" {
		c.Server.UseTLS = strings.EqualFold(tls, "true") || tls == "1"
	}
	if dir := os.Getenv("MAILEXPORT_OUTPUT_DIR"); dir != "" {
		c.Export.OutputDirectory = dir
	}
	if dir := os.Getenv("MAILEXPORT_CHECKPOINT_DIR"); dir != "" {
		c.Export.CheckpointDirectory = dir
	}
	if size := os.Getenv("MAILEXPORT_PAGE_SIZE"); size != "" {
		n, err := strconv.Atoi(size)
		if err != nil {
			return fmt.Errorf("invalid MAILEXPORT_PAGE_SIZE: %w", err)
		}
		c.Export.PageSize = n
	}
	if level := os.Getenv("MAILEXPORT_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if file := os.Getenv("MAILEXPORT_LOG_FILE"); file != "" {
		c.Logging.File = file
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file, overlaying c
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// ApplyFlags overlays command-line flag values onto the configuration
func (c *Config) ApplyFlags(flags map[string]interface{}) {
	for key, value := range flags {
		switch key {
		case "output":
			if v, ok := value.(string); ok && v != "" {
				c.Export.OutputDirectory = v
			}
		case "page-size":
			if v, ok := value.(int); ok && v > 0 {
				c.Export.PageSize = v
			}
		case "commands-per-minute":
			if v, ok := value.(int); ok && v > 0 {
				c.RateLimit.CommandsPerMinute = v
			}
		case "max-attempts":
			if v, ok := value.(int); ok && v > 0 {
				c.Retry.MaxAttempts = v
			}
		case "log-level":
			if v, ok := value.(string); ok && v != "" {
				c.Logging.Level = v
			}
		}
	}
}

// Validate checks the configuration for invalid values
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Export.PageSize <= 0 {
		return errors.New("export page_size must be positive")
	}
	if c.Export.OutputDirectory == "" {
		return errors.New("export output_directory must not be empty")
	}
	if c.RateLimit.CommandsPerMinute <= 0 {
		return errors.New("rate_limit commands_per_minute must be positive")
	}
	if c.Retry.MaxAttempts < 0 {
		return errors.New("retry max_attempts must not be negative")
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error", "fatal", "disabled":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	return nil
}

// Load builds the effective configuration: defaults, then the config
// file (explicit path or the default location), then environment
// variables, then flags. Missing default-location files are fine.
func Load(path string, flags map[string]interface{}) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = DefaultConfigPath()
		if _, err := os.Stat(path); err != nil {
			path = ""
		}
	}
	if path != "" {
		if err := cfg.LoadFromFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.LoadFromEnv(); err != nil {
		return nil, err
	}
	cfg.ApplyFlags(flags)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultConfigPath returns the default config file location
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".mailexport.yaml"
	}
	return filepath.Join(home, ".mailexport.yaml")
}

// Save writes the configuration to a YAML file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
