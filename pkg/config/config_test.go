package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.API.BaseURL != "https://api.tumblr.com/v2" {
		t.Errorf("Expected default base URL, got %s", cfg.API.BaseURL)
	}
	if cfg.Sync.PageSize != 20 {
		t.Errorf("Expected page size 20, got %d", cfg.Sync.PageSize)
	}
	if cfg.Sync.DefaultDepth != 10 {
		t.Errorf("Expected default depth 10, got %d", cfg.Sync.DefaultDepth)
	}
	if cfg.Sync.MaxNgramSize != 3 {
		t.Errorf("Expected max ngram size 3, got %d", cfg.Sync.MaxNgramSize)
	}
	if cfg.Sync.Tagger != "lexicon" {
		t.Errorf("Expected default tagger lexicon, got %s", cfg.Sync.Tagger)
	}
	if cfg.RateLimit.RequestsPerMinute != 60 {
		t.Errorf("Expected 60 requests per minute, got %d", cfg.RateLimit.RequestsPerMinute)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should be valid: %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PHOTOSYNC_CONSUMER_KEY", "env-key")
	t.Setenv("PHOTOSYNC_DB_PATH", "/tmp/env.db")
	t.Setenv("PHOTOSYNC_DEFAULT_DEPTH", "5")
	t.Setenv("PHOTOSYNC_TAGGER", "kagome")
	t.Setenv("PHOTOSYNC_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	if err := cfg.LoadFromEnv(); err != nil {
		t.Fatalf("LoadFromEnv failed: %v", err)
	}

	if cfg.API.ConsumerKey != "env-key" {
		t.Errorf("Expected consumer key from env, got %s", cfg.API.ConsumerKey)
	}
	if cfg.Database.Path != "/tmp/env.db" {
		t.Errorf("Expected database path from env, got %s", cfg.Database.Path)
	}
	if cfg.Sync.DefaultDepth != 5 {
		t.Errorf("Expected depth 5, got %d", cfg.Sync.DefaultDepth)
	}
	if cfg.Sync.Tagger != "kagome" {
		t.Errorf("Expected tagger from env, got %s", cfg.Sync.Tagger)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Expected log level debug, got %s", cfg.Logging.Level)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `api:
  consumer_key: file-key
  timeout: 10s
sync:
  page_size: 10
  max_ngram_size: 4
database:
  path: /tmp/file.db
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg := DefaultConfig()
	if err := cfg.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if cfg.API.ConsumerKey != "file-key" {
		t.Errorf("Expected consumer key from file, got %s", cfg.API.ConsumerKey)
	}
	if cfg.API.Timeout != 10*time.Second {
		t.Errorf("Expected timeout 10s, got %v", cfg.API.Timeout)
	}
	if cfg.Sync.PageSize != 10 {
		t.Errorf("Expected page size 10, got %d", cfg.Sync.PageSize)
	}
	if cfg.Sync.MaxNgramSize != 4 {
		t.Errorf("Expected max ngram size 4, got %d", cfg.Sync.MaxNgramSize)
	}
	// Values the file does not mention keep their defaults
	if cfg.RateLimit.RequestsPerMinute != 60 {
		t.Errorf("Expected default rate limit, got %d", cfg.RateLimit.RequestsPerMinute)
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.LoadFromFile("/nonexistent/config.yaml"); err == nil {
		t.Error("Expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid defaults", func(c *Config) {}, false},
		{"missing consumer key is allowed", func(c *Config) { c.API.ConsumerKey = "" }, false},
		{"empty base URL", func(c *Config) { c.API.BaseURL = "" }, true},
		{"zero timeout", func(c *Config) { c.API.Timeout = 0 }, true},
		{"negative retries", func(c *Config) { c.API.MaxRetries = -1 }, true},
		{"zero page size", func(c *Config) { c.Sync.PageSize = 0 }, true},
		{"ngram size below 2", func(c *Config) { c.Sync.MaxNgramSize = 1 }, true},
		{"kagome tagger", func(c *Config) { c.Sync.Tagger = "kagome" }, false},
		{"empty tagger", func(c *Config) { c.Sync.Tagger = "" }, false},
		{"unknown tagger", func(c *Config) { c.Sync.Tagger = "brill" }, true},
		{"empty database path", func(c *Config) { c.Database.Path = "" }, true},
		{"zero rate limit", func(c *Config) { c.RateLimit.RequestsPerMinute = 0 }, true},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("Expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Unexpected validation error: %v", err)
			}
		})
	}
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeCommandLineFlags(map[string]interface{}{
		"consumer-key": "flag-key",
		"database":     "/tmp/flag.db",
		"log-level":    "warn",
	})

	if cfg.API.ConsumerKey != "flag-key" {
		t.Errorf("Expected consumer key from flag, got %s", cfg.API.ConsumerKey)
	}
	if cfg.Database.Path != "/tmp/flag.db" {
		t.Errorf("Expected database path from flag, got %s", cfg.Database.Path)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Expected log level warn, got %s", cfg.Logging.Level)
	}
}

func TestFlagsOverrideEnv(t *testing.T) {
	t.Setenv("PHOTOSYNC_CONSUMER_KEY", "env-key")

	cfg, err := Load("", map[string]interface{}{"consumer-key": "flag-key"})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.API.ConsumerKey != "flag-key" {
		t.Errorf("Flags should take precedence over env, got %s", cfg.API.ConsumerKey)
	}
}

func TestSaveAndReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "config.yaml")

	cfg := DefaultConfig()
	cfg.API.ConsumerKey = "saved-key"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	reloaded := DefaultConfig()
	if err := reloaded.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if reloaded.API.ConsumerKey != "saved-key" {
		t.Errorf("Expected saved consumer key, got %s", reloaded.API.ConsumerKey)
	}
}
