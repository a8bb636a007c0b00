package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const fullYAML = `
base_url: https://news.example.com/api/
request_timeout: 12s

retry:
  max_attempts: 5
  initial_interval: 100ms
  max_interval: 1s

log:
  level: debug
  file: /tmp/newschat-test.log
  console: true

ui:
  no_color: true
  plain_text: true
  width: 100

transcript:
  enabled: true
  driver: mysql
  mysql:
    host: 10.0.0.5
    port: 3307
    user: chat
    database: newschat_audit

stub:
  port: 9000
  articles_path: ./fixtures/articles.json
  session_ttl: 30m
  reload_schedule: "0 * * * *"
  top_k: 5
`

var envKeys = []string{
	"NEWSCHAT_BASE_URL",
	"NEWSCHAT_REQUEST_TIMEOUT",
	"NEWSCHAT_LOG_LEVEL",
	"NEWSCHAT_LOG_FILE",
	"NEWSCHAT_STUB_PORT",
	"NEWSCHAT_ARTICLES_PATH",
}

// clearEnv unsets every override for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestParse_FullConfig(t *testing.T) {
	clearEnv(t)
	cfg, err := Parse([]byte(fullYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.BaseURL != "https://news.example.com/api" {
		t.Errorf("BaseURL = %q, want trailing slash trimmed", cfg.BaseURL)
	}
	if cfg.RequestTimeout != 12*time.Second {
		t.Errorf("RequestTimeout = %v, want 12s", cfg.RequestTimeout)
	}
	if cfg.Retry.MaxAttempts != 5 {
		t.Errorf("Retry.MaxAttempts = %d, want 5", cfg.Retry.MaxAttempts)
	}
	if cfg.Retry.InitialInterval != 100*time.Millisecond {
		t.Errorf("Retry.InitialInterval = %v, want 100ms", cfg.Retry.InitialInterval)
	}
	if cfg.Log.Level != "debug" || !cfg.Log.Console {
		t.Errorf("Log = %+v, want debug level with console", cfg.Log)
	}
	if !cfg.UI.NoColor || !cfg.UI.PlainText || cfg.UI.Width != 100 {
		t.Errorf("UI = %+v", cfg.UI)
	}
	if !cfg.Transcript.Enabled || cfg.Transcript.Driver != "mysql" {
		t.Errorf("Transcript = %+v, want enabled mysql", cfg.Transcript)
	}
	if cfg.Transcript.MySQL.Port != 3307 || cfg.Transcript.MySQL.Database != "newschat_audit" {
		t.Errorf("Transcript.MySQL = %+v", cfg.Transcript.MySQL)
	}
	if cfg.Stub.Port != 9000 {
		t.Errorf("Stub.Port = %d, want 9000", cfg.Stub.Port)
	}
	if cfg.Stub.SessionTTL != 30*time.Minute {
		t.Errorf("Stub.SessionTTL = %v, want 30m", cfg.Stub.SessionTTL)
	}
	if cfg.Stub.ReloadSchedule != "0 * * * *" {
		t.Errorf("Stub.ReloadSchedule = %q", cfg.Stub.ReloadSchedule)
	}
	if cfg.Stub.TopK != 5 {
		t.Errorf("Stub.TopK = %d, want 5", cfg.Stub.TopK)
	}
}

func TestParse_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.BaseURL != "http://localhost:8000" {
		t.Errorf("BaseURL = %q, want %q", cfg.BaseURL, "http://localhost:8000")
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Errorf("RequestTimeout = %v, want 30s", cfg.RequestTimeout)
	}
	if cfg.Retry.MaxAttempts != 3 {
		t.Errorf("Retry.MaxAttempts = %d, want 3", cfg.Retry.MaxAttempts)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want info", cfg.Log.Level)
	}
	if cfg.Log.File != "newschat.log" {
		t.Errorf("Log.File = %q, want newschat.log", cfg.Log.File)
	}
	if cfg.UI.Width != 80 {
		t.Errorf("UI.Width = %d, want 80", cfg.UI.Width)
	}
	if cfg.Transcript.Enabled {
		t.Error("Transcript should be disabled by default")
	}
	if cfg.Transcript.Driver != "sqlite" {
		t.Errorf("Transcript.Driver = %q, want sqlite", cfg.Transcript.Driver)
	}
	if cfg.Stub.Port != 8000 {
		t.Errorf("Stub.Port = %d, want 8000", cfg.Stub.Port)
	}
	if cfg.Stub.SessionTTL != time.Hour {
		t.Errorf("Stub.SessionTTL = %v, want 1h", cfg.Stub.SessionTTL)
	}
	if cfg.Stub.TopK != 3 {
		t.Errorf("Stub.TopK = %d, want 3", cfg.Stub.TopK)
	}
}

func TestParse_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("NEWSCHAT_BASE_URL", "http://10.1.1.1:9999")
	t.Setenv("NEWSCHAT_REQUEST_TIMEOUT", "5s")
	t.Setenv("NEWSCHAT_LOG_LEVEL", "warn")
	t.Setenv("NEWSCHAT_STUB_PORT", "8123")
	t.Setenv("NEWSCHAT_ARTICLES_PATH", "/srv/articles.json")

	cfg, err := Parse([]byte(fullYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.BaseURL != "http://10.1.1.1:9999" {
		t.Errorf("BaseURL = %q, want env override", cfg.BaseURL)
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Errorf("RequestTimeout = %v, want 5s", cfg.RequestTimeout)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want warn", cfg.Log.Level)
	}
	if cfg.Stub.Port != 8123 {
		t.Errorf("Stub.Port = %d, want 8123", cfg.Stub.Port)
	}
	if cfg.Stub.ArticlesPath != "/srv/articles.json" {
		t.Errorf("Stub.ArticlesPath = %q", cfg.Stub.ArticlesPath)
	}
}

func TestParse_BadEnvOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("NEWSCHAT_REQUEST_TIMEOUT", "soon")

	_, err := Parse(nil)
	if err == nil {
		t.Fatal("expected error for unparseable duration")
	}
	if !strings.Contains(err.Error(), "NEWSCHAT_REQUEST_TIMEOUT") {
		t.Errorf("error = %q, want to mention the variable", err.Error())
	}
}

func TestParse_ValidationErrors(t *testing.T) {
	clearEnv(t)
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"relative base url", "base_url: localhost:8000", "base_url"},
		{"ftp base url", "base_url: ftp://example.com", "base_url"},
		{"zero attempts", "retry:\n  max_attempts: -1", "retry.max_attempts"},
		{"bad level", "log:\n  level: chatty", "log.level"},
		{"narrow ui", "ui:\n  width: 5", "ui.width"},
		{"bad driver", "transcript:\n  driver: postgres", "transcript.driver"},
		{"bad port", "stub:\n  port: 70000", "stub.port"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want to contain %q", err.Error(), tt.want)
			}
		})
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	clearEnv(t)
	_, err := Parse([]byte("base_url: [unterminated"))
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !strings.Contains(err.Error(), "config: parse") {
		t.Errorf("error = %q, want config: parse prefix", err.Error())
	}
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "newschat.yaml")
	if err := os.WriteFile(path, []byte(fullYAML), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Stub.Port != 9000 {
		t.Errorf("Stub.Port = %d, want 9000", cfg.Stub.Port)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadOrDefault_MissingFile(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadOrDefault: %v", err)
	}
	if cfg.BaseURL != "http://localhost:8000" {
		t.Errorf("BaseURL = %q, want default", cfg.BaseURL)
	}
}

func TestLoadOrDefault_BrokenFileStillFails(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "newschat.yaml")
	if err := os.WriteFile(path, []byte("log:\n  level: loud\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadOrDefault(path); err == nil {
		t.Fatal("expected validation error to surface")
	}
}
