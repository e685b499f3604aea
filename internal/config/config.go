// Package config provides application configuration.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ashureev/orlo/internal/store"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Port               string
	FrontendURL        string
	AllowedOrigins     []string
	StoreBackend       string
	DBPath             string
	SessionTTL         time.Duration
	SweepInterval      time.Duration
	MaxRequestBodySize int64
	LogLevel           string
	Gemini             GeminiConfig
}

// GeminiConfig configures the generation service client.
type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// fileConfig mirrors the optional YAML file named by CONFIG_FILE.
type fileConfig struct {
	Port               string   `yaml:"port"`
	FrontendURL        string   `yaml:"frontend_url"`
	AllowedOrigins     []string `yaml:"allowed_origins"`
	StoreBackend       string   `yaml:"store_backend"`
	DBPath             string   `yaml:"db_path"`
	SessionTTL         string   `yaml:"session_ttl"`
	SweepInterval      string   `yaml:"sweep_interval"`
	MaxRequestBodySize int64    `yaml:"max_request_body_size"`
	LogLevel           string   `yaml:"log_level"`
	Gemini             struct {
		Model   string `yaml:"model"`
		BaseURL string `yaml:"base_url"`
	} `yaml:"gemini"`
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		Port:               "8080",
		StoreBackend:       store.BackendMemory,
		DBPath:             "./data/orlo.db",
		SessionTTL:         60 * time.Minute,
		SweepInterval:      time.Minute,
		MaxRequestBodySize: 64 << 10,
		LogLevel:           "info",
		Gemini: GeminiConfig{
			Model: "gemini-1.5-flash",
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file named
// by CONFIG_FILE, then environment variables, in increasing precedence.
func Load() (*Config, error) {
	cfg := Defaults()

	if path := getEnv("CONFIG_FILE", ""); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.FrontendURL = getEnv("FRONTEND_URL", cfg.FrontendURL)
	cfg.AllowedOrigins = getEnvList("ALLOWED_ORIGINS", cfg.AllowedOrigins)
	cfg.StoreBackend = strings.ToLower(getEnv("STORE_BACKEND", cfg.StoreBackend))
	cfg.DBPath = getEnv("DB_PATH", cfg.DBPath)
	cfg.SessionTTL = getEnvDuration("SESSION_TTL", cfg.SessionTTL)
	cfg.SweepInterval = getEnvDuration("SWEEP_INTERVAL", cfg.SweepInterval)
	cfg.MaxRequestBodySize = int64(getEnvInt("MAX_REQUEST_BODY_SIZE", int(cfg.MaxRequestBodySize)))
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.Gemini.APIKey = getEnv("GEMINI_API_KEY", getEnv("GOOGLE_API_KEY", ""))
	cfg.Gemini.Model = getEnv("GEMINI_MODEL", cfg.Gemini.Model)
	cfg.Gemini.BaseURL = getEnv("GEMINI_BASE_URL", cfg.Gemini.BaseURL)

	if len(cfg.AllowedOrigins) == 0 && cfg.FrontendURL != "" {
		cfg.AllowedOrigins = []string{cfg.FrontendURL}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&c.Port, fc.Port)
	setString(&c.FrontendURL, fc.FrontendURL)
	setString(&c.StoreBackend, fc.StoreBackend)
	setString(&c.DBPath, fc.DBPath)
	setString(&c.LogLevel, fc.LogLevel)
	setString(&c.Gemini.Model, fc.Gemini.Model)
	setString(&c.Gemini.BaseURL, fc.Gemini.BaseURL)
	if len(fc.AllowedOrigins) > 0 {
		c.AllowedOrigins = fc.AllowedOrigins
	}
	if fc.MaxRequestBodySize > 0 {
		c.MaxRequestBodySize = fc.MaxRequestBodySize
	}
	if err := setDuration(&c.SessionTTL, fc.SessionTTL); err != nil {
		return fmt.Errorf("parse session_ttl: %w", err)
	}
	if err := setDuration(&c.SweepInterval, fc.SweepInterval); err != nil {
		return fmt.Errorf("parse sweep_interval: %w", err)
	}
	return nil
}

// Validate checks that all required configuration fields are set.
// The API key is checked by the commands that call the service.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT cannot be empty")
	}
	switch c.StoreBackend {
	case store.BackendMemory:
	case store.BackendSQLite:
		if c.DBPath == "" {
			return errors.New("DB_PATH cannot be empty with the sqlite backend")
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", store.BackendMemory, store.BackendSQLite, c.StoreBackend)
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be > 0")
	}
	if c.SweepInterval <= 0 {
		return errors.New("SWEEP_INTERVAL must be > 0")
	}
	if c.MaxRequestBodySize <= 0 {
		return errors.New("MAX_REQUEST_BODY_SIZE must be > 0")
	}
	if c.Gemini.Model == "" {
		return errors.New("GEMINI_MODEL cannot be empty")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

// SlogLevel maps LogLevel to a slog level. Unknown values mean info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v string) error {
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}

func getEnvList(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
