// Package config loads server settings from defaults, an optional YAML file
// and environment variables, in that order of precedence.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Transports the server can run on.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Environment variables read by Load.
const (
	EnvConfigFile  = "MEALDB_MCP_CONFIG"
	EnvRecipesDir  = "RECIPES_DIR"
	EnvBaseURL     = "MEALDB_BASE_URL"
	EnvTimeout     = "MEALDB_TIMEOUT"
	EnvCacheTTL    = "MEALDB_CACHE_TTL"
	EnvTransport   = "MCP_TRANSPORT"
	EnvPort        = "PORT"
	EnvRateLimit   = "MCP_RATE_LIMIT"
	EnvMaxBodySize = "MCP_MAX_BODY_SIZE"
	EnvLogLevel    = "LOG_LEVEL"
)

// Config holds the server configuration.
type Config struct {
	// RecipesDir is the root of the persisted collections. Defaults to
	// "recipes" next to the executable.
	RecipesDir string `yaml:"recipes_dir"`

	MealDB MealDBConfig `yaml:"mealdb"`
	Server ServerConfig `yaml:"server"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// MealDBConfig configures the recipe API client.
type MealDBConfig struct {
	BaseURL  string        `yaml:"base_url"`
	Timeout  time.Duration `yaml:"timeout"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// ServerConfig configures the MCP transport.
type ServerConfig struct {
	Transport string `yaml:"transport"`
	Port      int    `yaml:"port"`
	// RateLimit is requests per minute per client IP on the HTTP transport.
	// Zero disables rate limiting.
	RateLimit   int   `yaml:"rate_limit"`
	MaxBodySize int64 `yaml:"max_body_size"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		RecipesDir: DefaultRecipesDir(),
		MealDB: MealDBConfig{
			BaseURL:  "https://www.themealdb.com/api/json/v1/1",
			Timeout:  10 * time.Second,
			CacheTTL: 5 * time.Minute,
		},
		Server: ServerConfig{
			Transport:   TransportStdio,
			Port:        8000,
			RateLimit:   60,
			MaxBodySize: 1 << 20,
		},
		LogLevel: "info",
	}
}

// DefaultRecipesDir is the "recipes" directory beside the running
// executable, falling back to the working directory.
func DefaultRecipesDir() string {
	if exe, err := os.Executable(); err == nil {
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		return filepath.Join(filepath.Dir(exe), "recipes")
	}
	return "recipes"
}

// Load builds the configuration. path names a YAML file; when empty the
// MEALDB_MCP_CONFIG variable is consulted, and when that is empty too no file
// is read. Environment variables override file values.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvRecipesDir); v != "" {
		c.RecipesDir = v
	}
	if v := os.Getenv(EnvBaseURL); v != "" {
		c.MealDB.BaseURL = v
	}
	if v := os.Getenv(EnvTransport); v != "" {
		c.Server.Transport = strings.ToLower(v)
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = strings.ToLower(v)
	}

	var err error
	if c.MealDB.Timeout, err = envDuration(EnvTimeout, c.MealDB.Timeout); err != nil {
		return err
	}
	if c.MealDB.CacheTTL, err = envDuration(EnvCacheTTL, c.MealDB.CacheTTL); err != nil {
		return err
	}
	if c.Server.Port, err = envInt(EnvPort, c.Server.Port); err != nil {
		return err
	}
	if c.Server.RateLimit, err = envInt(EnvRateLimit, c.Server.RateLimit); err != nil {
		return err
	}
	size, err := envInt(EnvMaxBodySize, int(c.Server.MaxBodySize))
	if err != nil {
		return err
	}
	c.Server.MaxBodySize = int64(size)
	return nil
}

// envDuration accepts Go durations ("15s") or plain seconds ("15").
func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q", key, v)
	}
	return d, nil
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", key, v)
	}
	return n, nil
}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.RecipesDir) == "" {
		return fmt.Errorf("recipes_dir must not be empty")
	}
	if !strings.HasPrefix(c.MealDB.BaseURL, "http://") && !strings.HasPrefix(c.MealDB.BaseURL, "https://") {
		return fmt.Errorf("mealdb.base_url must be an http(s) URL, got %q", c.MealDB.BaseURL)
	}
	if c.MealDB.Timeout <= 0 {
		return fmt.Errorf("mealdb.timeout must be positive")
	}
	if c.MealDB.CacheTTL < 0 {
		return fmt.Errorf("mealdb.cache_ttl must not be negative")
	}
	switch c.Server.Transport {
	case TransportStdio, TransportHTTP:
	default:
		return fmt.Errorf("server.transport must be %q or %q, got %q", TransportStdio, TransportHTTP, c.Server.Transport)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("server.rate_limit must not be negative")
	}
	if c.Server.MaxBodySize <= 0 {
		return fmt.Errorf("server.max_body_size must be positive")
	}
	if _, ok := parseLevel(c.LogLevel); !ok {
		return fmt.Errorf("log_level must be debug, info, warn or error, got %q", c.LogLevel)
	}
	return nil
}

// SlogLevel returns the configured log level.
func (c *Config) SlogLevel() slog.Level {
	level, _ := parseLevel(c.LogLevel)
	return level
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}
