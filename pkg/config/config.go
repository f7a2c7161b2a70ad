package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for photosync
type Config struct {
	// Remote API settings
	API APIConfig `yaml:"api" json:"api"`

	// Sync behavior
	Sync SyncConfig `yaml:"sync" json:"sync"`

	// Database settings
	Database DatabaseConfig `yaml:"database" json:"database"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// APIConfig holds settings for the remote blog API
type APIConfig struct {
	BaseURL     string        `yaml:"base_url" json:"base_url"`
	ConsumerKey string        `yaml:"consumer_key" json:"consumer_key"`
	UserAgent   string        `yaml:"user_agent" json:"user_agent"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout"`
	MaxRetries  int           `yaml:"max_retries" json:"max_retries"`
}

// SyncConfig holds sync behavior configuration
type SyncConfig struct {
	PageSize     int    `yaml:"page_size" json:"page_size"`
	DefaultDepth int    `yaml:"default_depth" json:"default_depth"`
	MaxNgramSize int    `yaml:"max_ngram_size" json:"max_ngram_size"`
	Tagger       string `yaml:"tagger" json:"tagger"`
}

// DatabaseConfig holds database settings
type DatabaseConfig struct {
	Path string `yaml:"path" json:"path"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:    "https://api.tumblr.com/v2",
			UserAgent:  "photosync/1.0",
			Timeout:    30 * time.Second,
			MaxRetries: 3,
		},
		Sync: SyncConfig{
			PageSize:     20,
			DefaultDepth: 10,
			MaxNgramSize: 3,
			Tagger:       "lexicon",
		},
		Database: DatabaseConfig{
			Path: "./photosync.db",
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if key := os.Getenv("PHOTOSYNC_CONSUMER_KEY"); key != "" {
		c.API.ConsumerKey = key
	}
	if baseURL := os.Getenv("PHOTOSYNC_API_BASE_URL"); baseURL != "" {
		c.API.BaseURL = baseURL
	}
	if userAgent := os.Getenv("PHOTOSYNC_USER_AGENT"); userAgent != "" {
		c.API.UserAgent = userAgent
	}
	if dbPath := os.Getenv("PHOTOSYNC_DB_PATH"); dbPath != "" {
		c.Database.Path = dbPath
	}
	if rpm := os.Getenv("PHOTOSYNC_REQUESTS_PER_MINUTE"); rpm != "" {
		var val int
		fmt.Sscanf(rpm, "%d", &val)
		if val > 0 {
			c.RateLimit.RequestsPerMinute = val
		}
	}
	if depth := os.Getenv("PHOTOSYNC_DEFAULT_DEPTH"); depth != "" {
		var val int
		fmt.Sscanf(depth, "%d", &val)
		if val > 0 {
			c.Sync.DefaultDepth = val
		}
	}
	if tagger := os.Getenv("PHOTOSYNC_TAGGER"); tagger != "" {
		c.Sync.Tagger = tagger
	}
	if logLevel := os.Getenv("PHOTOSYNC_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	// Check in order of precedence
	locations := []string{
		".photosync.yaml",
		".photosync.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "photosync", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "photosync", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".photosync.yaml"),
		filepath.Join(os.Getenv("HOME"), ".photosync.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.API.BaseURL == "" {
		errs = append(errs, errors.New("API base URL is required"))
	}
	if c.API.Timeout <= 0 {
		errs = append(errs, errors.New("API timeout must be positive"))
	}
	if c.API.MaxRetries < 0 {
		errs = append(errs, errors.New("max retries cannot be negative"))
	}

	if c.Sync.PageSize <= 0 {
		errs = append(errs, errors.New("page size must be positive"))
	}
	if c.Sync.DefaultDepth <= 0 {
		errs = append(errs, errors.New("default depth must be positive"))
	}
	if c.Sync.MaxNgramSize < 2 {
		errs = append(errs, errors.New("max ngram size must be at least 2"))
	}
	validTaggers := map[string]bool{
		"": true, "lexicon": true, "kagome": true,
	}
	if !validTaggers[strings.ToLower(c.Sync.Tagger)] {
		errs = append(errs, errors.New("invalid tagger"))
	}

	if c.Database.Path == "" {
		errs = append(errs, errors.New("database path is required"))
	}

	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if key, ok := flags["consumer-key"].(string); ok && key != "" {
		c.API.ConsumerKey = key
	}
	if dbPath, ok := flags["database"].(string); ok && dbPath != "" {
		c.Database.Path = dbPath
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".photosync.env"))

	// Start with defaults
	config := DefaultConfig()

	// Load from config file
	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Override with command line flags
	config.MergeCommandLineFlags(flags)

	// Validate final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
