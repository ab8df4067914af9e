package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tilsley/repopush/apps/server/internal/uploads"
)

const (
	historyMemory   = "memory"
	historyRedis    = "redis"
	historyPostgres = "postgres"
)

// Config is the server configuration, read from the environment with an
// optional YAML file for collector tuning.
type Config struct {
	Port      string
	SourceDir string

	GitHubToken   string
	GitHubAPIURL  string
	GitHubOrg     string
	GitHubTimeout time.Duration
	// GitHubWriteRate caps contents writes per second; 0 disables pacing.
	GitHubWriteRate float64

	HistoryBackend string
	HistoryMax     int
	RedisAddr      string
	RedisTTL       time.Duration
	PostgresURL    string

	OTelEnabled bool

	Collector uploads.CollectorOptions
}

// fileConfig is the shape of CONFIG_FILE.
type fileConfig struct {
	Collector uploads.CollectorOptions `yaml:"collector"`
}

func envOr(getenv func(string) string, key, fallback string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return fallback
}

// loadConfig builds a Config from getenv. SOURCE_DIR defaults to the working
// directory at start-up.
func loadConfig(getenv func(string) string) (Config, error) {
	cfg := Config{
		Port:           envOr(getenv, "PORT", "8080"),
		SourceDir:      getenv("SOURCE_DIR"),
		GitHubToken:    getenv("GITHUB_TOKEN"),
		GitHubAPIURL:   getenv("GITHUB_API_URL"),
		GitHubOrg:      getenv("GITHUB_ORG"),
		HistoryBackend: envOr(getenv, "HISTORY_BACKEND", historyMemory),
		RedisAddr:      envOr(getenv, "REDIS_ADDR", "localhost:6379"),
		PostgresURL:    getenv("POSTGRES_URL"),
		OTelEnabled:    getenv("OTEL_ENABLED") == "true",
	}

	var err error
	if cfg.GitHubTimeout, err = time.ParseDuration(envOr(getenv, "GITHUB_TIMEOUT", "30s")); err != nil {
		return Config{}, fmt.Errorf("GITHUB_TIMEOUT: %w", err)
	}
	if cfg.GitHubWriteRate, err = strconv.ParseFloat(envOr(getenv, "GITHUB_WRITE_RATE", "0"), 64); err != nil {
		return Config{}, fmt.Errorf("GITHUB_WRITE_RATE: %w", err)
	}
	if cfg.RedisTTL, err = time.ParseDuration(envOr(getenv, "HISTORY_TTL", "720h")); err != nil {
		return Config{}, fmt.Errorf("HISTORY_TTL: %w", err)
	}
	if cfg.HistoryMax, err = strconv.Atoi(envOr(getenv, "HISTORY_MAX", "1000")); err != nil {
		return Config{}, fmt.Errorf("HISTORY_MAX: %w", err)
	}

	if cfg.SourceDir == "" {
		if cfg.SourceDir, err = os.Getwd(); err != nil {
			return Config{}, fmt.Errorf("resolve working directory: %w", err)
		}
	}

	if path := getenv("CONFIG_FILE"); path != "" {
		fc, err := readConfigFile(path)
		if err != nil {
			return Config{}, err
		}
		cfg.Collector = fc.Collector
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func readConfigFile(path string) (fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return fileConfig{}, fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fileConfig{}, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return fc, nil
}

func (c Config) validate() error {
	var errs []error
	if c.GitHubToken == "" {
		errs = append(errs, errors.New("GITHUB_TOKEN is required"))
	}
	switch c.HistoryBackend {
	case historyMemory, historyRedis:
	case historyPostgres:
		if c.PostgresURL == "" {
			errs = append(errs, errors.New("POSTGRES_URL is required when HISTORY_BACKEND=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown HISTORY_BACKEND %q (want memory, redis or postgres)", c.HistoryBackend))
	}
	return errors.Join(errs...)
}
