// Package config provides YAML-based configuration loading for newschat.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up when no --config flag is given.
const DefaultPath = "newschat.yaml"

// Config is the top-level newschat configuration, loaded from newschat.yaml.
type Config struct {
	BaseURL        string           `yaml:"base_url"`
	RequestTimeout time.Duration    `yaml:"request_timeout"`
	Retry          RetryConfig      `yaml:"retry"`
	Log            LogConfig        `yaml:"log"`
	UI             UIConfig         `yaml:"ui"`
	Transcript     TranscriptConfig `yaml:"transcript"`
	Stub           StubConfig       `yaml:"stub"`
}

// RetryConfig bounds the retries applied to idempotent backend calls.
type RetryConfig struct {
	MaxAttempts     int           `yaml:"max_attempts"`
	InitialInterval time.Duration `yaml:"initial_interval"`
	MaxInterval     time.Duration `yaml:"max_interval"`
}

// LogConfig controls the structured log file.
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	Console    bool   `yaml:"console"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// UIConfig controls terminal rendering.
type UIConfig struct {
	NoColor   bool `yaml:"no_color"`
	PlainText bool `yaml:"plain_text"` // skip markdown rendering of replies
	Width     int  `yaml:"width"`
}

// TranscriptConfig controls the optional audit journal of conversations.
type TranscriptConfig struct {
	Enabled bool        `yaml:"enabled"`
	Driver  string      `yaml:"driver"` // "sqlite" or "mysql"
	Path    string      `yaml:"path"`   // sqlite file
	MySQL   MySQLConfig `yaml:"mysql"`
}

// MySQLConfig holds connection settings for a MySQL-compatible journal.
type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// StubConfig controls the local stub answering service.
type StubConfig struct {
	Port           int           `yaml:"port"`
	ArticlesPath   string        `yaml:"articles_path"`
	SessionTTL     time.Duration `yaml:"session_ttl"`
	ReloadSchedule string        `yaml:"reload_schedule"`
	TopK           int           `yaml:"top_k"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// LoadOrDefault behaves like Load but falls back to the defaults (plus
// environment overrides) when path does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Parse(nil)
	}
	return cfg, err
}

// Parse unmarshals YAML bytes into a validated Config. Environment overrides
// are applied after the file and before defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv overlays NEWSCHAT_* environment variables.
func (c *Config) applyEnv() error {
	if v, ok := os.LookupEnv("NEWSCHAT_BASE_URL"); ok {
		c.BaseURL = strings.TrimSpace(v)
	}
	if v, ok := os.LookupEnv("NEWSCHAT_REQUEST_TIMEOUT"); ok {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("config: NEWSCHAT_REQUEST_TIMEOUT: %w", err)
		}
		c.RequestTimeout = d
	}
	if v, ok := os.LookupEnv("NEWSCHAT_LOG_LEVEL"); ok {
		c.Log.Level = strings.TrimSpace(v)
	}
	if v, ok := os.LookupEnv("NEWSCHAT_LOG_FILE"); ok {
		c.Log.File = strings.TrimSpace(v)
	}
	if v, ok := os.LookupEnv("NEWSCHAT_STUB_PORT"); ok {
		port, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("config: NEWSCHAT_STUB_PORT: %w", err)
		}
		c.Stub.Port = port
	}
	if v, ok := os.LookupEnv("NEWSCHAT_ARTICLES_PATH"); ok {
		c.Stub.ArticlesPath = strings.TrimSpace(v)
	}
	return nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "http://localhost:8000"
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 30 * time.Second
	}
	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = 3
	}
	if c.Retry.InitialInterval == 0 {
		c.Retry.InitialInterval = 200 * time.Millisecond
	}
	if c.Retry.MaxInterval == 0 {
		c.Retry.MaxInterval = 2 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.File == "" {
		c.Log.File = "newschat.log"
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = 10
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = 5
	}
	if c.Log.MaxAgeDays == 0 {
		c.Log.MaxAgeDays = 30
	}
	if c.UI.Width == 0 {
		c.UI.Width = 80
	}
	if c.Transcript.Driver == "" {
		c.Transcript.Driver = "sqlite"
	}
	if c.Transcript.Path == "" {
		c.Transcript.Path = "newschat-transcript.db"
	}
	if c.Transcript.MySQL.Host == "" {
		c.Transcript.MySQL.Host = "127.0.0.1"
	}
	if c.Transcript.MySQL.Port == 0 {
		c.Transcript.MySQL.Port = 3306
	}
	if c.Transcript.MySQL.User == "" {
		c.Transcript.MySQL.User = "root"
	}
	if c.Transcript.MySQL.Database == "" {
		c.Transcript.MySQL.Database = "newschat"
	}
	if c.Stub.Port == 0 {
		c.Stub.Port = 8000
	}
	if c.Stub.ArticlesPath == "" {
		c.Stub.ArticlesPath = "./data/articles.json"
	}
	if c.Stub.SessionTTL == 0 {
		c.Stub.SessionTTL = time.Hour
	}
	if c.Stub.ReloadSchedule == "" {
		c.Stub.ReloadSchedule = "*/5 * * * *"
	}
	if c.Stub.TopK == 0 {
		c.Stub.TopK = 3
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if u, err := url.Parse(c.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Sprintf("base_url %q must be an absolute http(s) URL", c.BaseURL))
	}
	if c.RequestTimeout < 0 {
		errs = append(errs, "request_timeout must be positive")
	}
	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, "retry.max_attempts must be >= 1")
	}
	if c.Retry.InitialInterval < 0 || c.Retry.MaxInterval < 0 {
		errs = append(errs, "retry intervals must be positive")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("log.level %q must be one of debug, info, warn, error", c.Log.Level))
	}
	if c.UI.Width < 20 {
		errs = append(errs, "ui.width must be >= 20")
	}
	switch c.Transcript.Driver {
	case "sqlite", "mysql":
	default:
		errs = append(errs, fmt.Sprintf("transcript.driver %q must be sqlite or mysql", c.Transcript.Driver))
	}
	if c.Stub.Port <= 0 || c.Stub.Port > 65535 {
		errs = append(errs, fmt.Sprintf("stub.port %d out of range", c.Stub.Port))
	}
	if c.Stub.SessionTTL < 0 {
		errs = append(errs, "stub.session_ttl must be positive")
	}
	if c.Stub.TopK < 1 {
		errs = append(errs, "stub.top_k must be >= 1")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
