package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"
)

// EnvConfigFile names the variable that points at an optional YAML file.
const EnvConfigFile = "CONSOLE_CONFIG_FILE"

type Config struct {
	Port          string `env:"PORT,           default=8080"        yaml:"port"`
	Env           string `env:"ENV,            default=development" yaml:"env"`
	LogLevel      string `env:"LOG_LEVEL,      default=info"        yaml:"log_level"`
	SessionSecret string `env:"SESSION_SECRET"                      yaml:"session_secret"`

	Upstream  UpstreamConfig  `yaml:"upstream"`
	Retry     RetryConfig     `yaml:"retry"`
	Session   SessionConfig   `yaml:"session"`
	LogStream LogStreamConfig `yaml:"log_stream"`
	Audit     AuditConfig     `yaml:"audit"`
	Mongo     MongoConfig     `yaml:"mongo"`
	Redis     RedisConfig     `yaml:"redis"`
}

// UpstreamConfig points at the print proxy backend.
type UpstreamConfig struct {
	BaseURL string        `env:"UPSTREAM_URL,     default=http://localhost:8000/api" yaml:"base_url"`
	Timeout time.Duration `env:"UPSTREAM_TIMEOUT, default=30s"                       yaml:"timeout"`
}

// RetryConfig tunes retries of idempotent backend reads.
type RetryConfig struct {
	MaxAttempts int           `env:"RETRY_MAX_ATTEMPTS, default=3"           yaml:"max_attempts"`
	Delay       time.Duration `env:"RETRY_DELAY,        default=1s"          yaml:"delay"`
	MaxDelay    time.Duration `env:"RETRY_MAX_DELAY,    default=10s"         yaml:"max_delay"`
	Backoff     string        `env:"RETRY_BACKOFF,      default=exponential" yaml:"backoff"`
}

// SessionConfig controls the two persistence scopes and the cookie.
type SessionConfig struct {
	RememberTTL  time.Duration `env:"SESSION_REMEMBER_TTL,  default=720h" yaml:"remember_ttl"`
	EphemeralTTL time.Duration `env:"SESSION_EPHEMERAL_TTL, default=8h"   yaml:"ephemeral_ttl"`
	SecureCookie bool          `env:"SESSION_SECURE_COOKIE, default=false" yaml:"secure_cookie"`
	SweepEvery   time.Duration `env:"SESSION_SWEEP_EVERY,   default=5m"   yaml:"sweep_every"`
}

// LogStreamConfig tunes the real-time log poller.
type LogStreamConfig struct {
	Capacity     int           `env:"LOG_STREAM_CAPACITY,      default=200" yaml:"capacity"`
	PollInterval time.Duration `env:"LOG_STREAM_POLL_INTERVAL, default=5s"  yaml:"poll_interval"`
}

type AuditConfig struct {
	Workers int `env:"AUDIT_WORKERS, default=4" yaml:"workers"`
}

// MongoConfig backs the audit journal. An empty URI disables it.
type MongoConfig struct {
	URI      string `env:"MONGO_URI"                      yaml:"uri"`
	Database string `env:"MONGO_DB,  default=print_console" yaml:"database"`
}

// RedisConfig backs the "remember me" session scope. An empty address keeps
// every session in memory.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"              yaml:"addr"`
	Password string `env:"REDIS_PASSWORD"          yaml:"password"`
	DB       int    `env:"REDIS_DB,   default=0"   yaml:"db"`
}

// Load reads configuration from environment variables using go-envconfig,
// layered over the YAML file named by CONSOLE_CONFIG_FILE when set.
func Load() *Config {
	cfg, err := LoadFile(os.Getenv(EnvConfigFile))
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadFile applies, lowest precedence first: struct defaults, the YAML file
// at path (skipped when path is empty), environment variables.
func LoadFile(path string) (*Config, error) {
	return load(path, envconfig.OsLookuper())
}

func load(path string, env envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := envconfig.ProcessWith(context.Background(), &envconfig.Config{
		Target:           &cfg,
		Lookuper:         env,
		DefaultOverwrite: true,
	}); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.SessionSecret == "" {
		errs = append(errs, errors.New("SESSION_SECRET is required"))
	}
	if c.Upstream.BaseURL == "" {
		errs = append(errs, errors.New("UPSTREAM_URL is required"))
	}
	switch c.Retry.Backoff {
	case "linear", "exponential":
	default:
		errs = append(errs, fmt.Errorf("RETRY_BACKOFF must be linear or exponential, got %q", c.Retry.Backoff))
	}
	return errors.Join(errs...)
}

// Production reports whether the console runs with production defaults.
func (c *Config) Production() bool {
	return c.Env == "production"
}
