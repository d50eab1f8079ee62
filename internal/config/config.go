// Package config loads client configuration from the environment, with
// an optional YAML file layered underneath.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds every knob of the client data layer. The base URL is the
// single required surface; everything else has a working default.
type Config struct {
	BaseURL           string        `env:"TASKBOARD_API_BASE_URL,default=http://localhost:8080"`
	RequestTimeout    time.Duration `env:"TASKBOARD_REQUEST_TIMEOUT,default=30s"`
	CacheTTL          time.Duration `env:"TASKBOARD_CACHE_TTL,default=10s"`
	RequestsPerSecond int           `env:"TASKBOARD_REQUESTS_PER_SECOND,default=0"`
	SessionFile       string        `env:"TASKBOARD_SESSION_FILE,default="`
	RedisAddr         string        `env:"TASKBOARD_REDIS_ADDR,default="`
	RedisPassword     string        `env:"TASKBOARD_REDIS_PASSWORD,default="`
}

// fileConfig is the YAML schema. Durations are strings so the file can
// use the same "10s" syntax the environment does.
type fileConfig struct {
	BaseURL           string `yaml:"base_url"`
	RequestTimeout    string `yaml:"request_timeout"`
	CacheTTL          string `yaml:"cache_ttl"`
	RequestsPerSecond int    `yaml:"requests_per_second"`
	SessionFile       string `yaml:"session_file"`
	RedisAddr         string `yaml:"redis_addr"`
	RedisPassword     string `yaml:"redis_password"`
}

// Load reads configuration from the environment. A .env file in the
// working directory is loaded first when present; environment variables
// already set take precedence over it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode environment: %w", err)
	}
	return &cfg, nil
}

// LoadFile reads configuration from a YAML file. Fields absent from
// the file keep the same defaults Load applies.
func LoadFile(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg := Config{
		BaseURL:           "http://localhost:8080",
		RequestTimeout:    30 * time.Second,
		CacheTTL:          10 * time.Second,
		RequestsPerSecond: fc.RequestsPerSecond,
		SessionFile:       fc.SessionFile,
		RedisAddr:         fc.RedisAddr,
		RedisPassword:     fc.RedisPassword,
	}
	if fc.BaseURL != "" {
		cfg.BaseURL = fc.BaseURL
	}
	if fc.RequestTimeout != "" {
		d, err := time.ParseDuration(fc.RequestTimeout)
		if err != nil {
			return nil, fmt.Errorf("parse request_timeout: %w", err)
		}
		cfg.RequestTimeout = d
	}
	if fc.CacheTTL != "" {
		d, err := time.ParseDuration(fc.CacheTTL)
		if err != nil {
			return nil, fmt.Errorf("parse cache_ttl: %w", err)
		}
		cfg.CacheTTL = d
	}
	return &cfg, nil
}

// SessionFilePath returns the configured session file, defaulting to
// ~/.taskboard/session.json.
func (c *Config) SessionFilePath() string {
	if c.SessionFile != "" {
		return c.SessionFile
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".taskboard-session.json"
	}
	return home + "/.taskboard/session.json"
}
