package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "console.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load("", envconfig.MapLookuper(map[string]string{"SESSION_SECRET": "s3cret"}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" || cfg.Upstream.BaseURL != "http://localhost:8000/api" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.LogStream.Capacity != 200 || cfg.LogStream.PollInterval != 5*time.Second {
		t.Fatalf("unexpected log stream defaults: %+v", cfg.LogStream)
	}
	if cfg.Session.RememberTTL != 720*time.Hour || cfg.Retry.Backoff != "exponential" {
		t.Fatalf("unexpected session/retry defaults: %+v %+v", cfg.Session, cfg.Retry)
	}
	if cfg.Redis.Addr != "" || cfg.Mongo.URI != "" {
		t.Fatalf("stores must be disabled by default")
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeFile(t, `
port: "9090"
session_secret: from-file
upstream:
  base_url: http://backend:8000/api
  timeout: 5s
log_stream:
  capacity: 50
`)
	cfg, err := load(path, envconfig.MapLookuper(map[string]string{"PORT": "7070"}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "7070" {
		t.Fatalf("env must override the file, got port %q", cfg.Port)
	}
	if cfg.SessionSecret != "from-file" || cfg.Upstream.BaseURL != "http://backend:8000/api" {
		t.Fatalf("file values lost: %+v", cfg)
	}
	if cfg.Upstream.Timeout != 5*time.Second || cfg.LogStream.Capacity != 50 {
		t.Fatalf("file values lost: %+v %+v", cfg.Upstream, cfg.LogStream)
	}
	if cfg.LogStream.PollInterval != 5*time.Second {
		t.Fatalf("defaults must fill what the file omits, got %v", cfg.LogStream.PollInterval)
	}
}

func TestLoad_Validation(t *testing.T) {
	_, err := load("", envconfig.MapLookuper(map[string]string{"RETRY_BACKOFF": "random"}))
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, want := range []string{"SESSION_SECRET", "RETRY_BACKOFF"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q does not mention %s", err, want)
		}
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := load(filepath.Join(t.TempDir(), "nope.yaml"), envconfig.MapLookuper(nil)); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
