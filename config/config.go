package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/sunnygitgud/nyaaterm/nyaa"
)

const (
	appName   = "nyaaterm"
	envPrefix = "NYAA"

	// LogDisabled as log_file turns logging off.
	LogDisabled = "-"
)

// Config holds all application configuration
type Config struct {
	// Index
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	Category  nyaa.Category
	Sort      nyaa.Sort
	Filter    nyaa.Filter

	// Politeness
	RateLimit float64 // requests per second, 0 disables
	RateBurst int

	// Logging
	LogFile  string
	LogLevel string

	// Metrics
	MetricsAddr string // empty disables the /metrics listener

	// Theme
	ThemePath string // explicit theme.json; empty means search the usual places
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("base_url", nyaa.DefaultBaseURL)
	v.SetDefault("timeout", nyaa.DefaultTimeout)
	v.SetDefault("user_agent", nyaa.DefaultUserAgent)
	v.SetDefault("category", "all")
	v.SetDefault("sort", "date")
	v.SetDefault("filter", "none")
	v.SetDefault("rate_limit", 1.0)
	v.SetDefault("rate_burst", 3)
	v.SetDefault("log_file", defaultLogFile())
	v.SetDefault("log_level", "info")
	v.SetDefault("metrics_addr", "")
	v.SetDefault("theme", "")
}

// Load reads configuration from .env, the environment and config.yaml into v
// and validates the result. Flags bound to v before calling Load take
// precedence over everything else.
func Load(v *viper.Viper) (*Config, error) {
	// .env is optional; existing environment variables win over it
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	SetDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, appName))
	}
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	category, err := nyaa.ParseCategory(v.GetString("category"))
	if err != nil {
		return nil, err
	}
	sort, err := nyaa.ParseSort(v.GetString("sort"))
	if err != nil {
		return nil, err
	}
	filter, err := nyaa.ParseFilter(v.GetString("filter"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		BaseURL:   strings.TrimSpace(v.GetString("base_url")),
		Timeout:   v.GetDuration("timeout"),
		UserAgent: v.GetString("user_agent"),
		Category:  category,
		Sort:      sort,
		Filter:    filter,

		RateLimit: v.GetFloat64("rate_limit"),
		RateBurst: v.GetInt("rate_burst"),

		LogFile:  v.GetString("log_file"),
		LogLevel: v.GetString("log_level"),

		MetricsAddr: v.GetString("metrics_addr"),

		ThemePath: v.GetString("theme"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values enums and parsing cannot catch.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return fmt.Errorf("base_url must be an http(s) URL, got %q", c.BaseURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate_limit must not be negative, got %v", c.RateLimit)
	}
	if c.RateLimit > 0 && c.RateBurst < 1 {
		return fmt.Errorf("rate_burst must be at least 1 when rate_limit is set, got %d", c.RateBurst)
	}
	return nil
}

// ClientOptions maps the index settings onto nyaa.Options.
func (c *Config) ClientOptions() nyaa.Options {
	return nyaa.Options{
		BaseURL:   c.BaseURL,
		Timeout:   c.Timeout,
		UserAgent: c.UserAgent,
		Filter:    c.Filter,
		RateLimit: c.RateLimit,
		RateBurst: c.RateBurst,
	}
}

// NewLogger opens the configured log file. The returned closer must be
// called on exit; it is a no-op when logging is disabled.
func (c *Config) NewLogger() (zerolog.Logger, io.Closer, error) {
	if c.LogFile == "" || c.LogFile == LogDisabled {
		return zerolog.Nop(), io.NopCloser(nil), nil
	}

	if err := os.MkdirAll(filepath.Dir(c.LogFile), 0o755); err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("failed to open log file: %w", err)
	}

	level, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	logger := zerolog.New(f).Level(level).With().Timestamp().Logger()
	return logger, f, nil
}

func defaultLogFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), appName+".log")
	}
	return filepath.Join(dir, appName, appName+".log")
}
