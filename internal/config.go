package internal

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Env      string
	LogLevel string
	Port     uint16
	Lookup   LookupConfig
	Session  SessionConfig
	Limits   LimitsConfig
	Metrics  MetricsConfig
	CORS     CORSConfig
	Sentry   SentryConfig
}

// LookupConfig configures the zip code lookup service client.
type LookupConfig struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string

	// Trace logs request and response dumps at debug level
	Trace bool
}

// SessionConfig configures browser sessions and the cookies that carry them.
type SessionConfig struct {
	// TTL is both the session cookie lifetime and the idle time after which
	// a page's lookup state is evicted.
	TTL          time.Duration
	CookieDomain string
	CookieSecure bool
}

// LimitsConfig holds per-request protection limits.
type LimitsConfig struct {
	RateLimitRPS   float64
	RateLimitBurst int
	RequestTimeout time.Duration
	MaxBodyBytes   int64
}

type MetricsConfig struct {
	Namespace string
}

// CORSConfig lists the origins allowed to call the JSON lookup API.
type CORSConfig struct {
	AllowedOrigins []string
}

// SentryConfig holds configuration for Sentry error tracking
type SentryConfig struct {
	DSN              string
	Enabled          bool
	Environment      string
	Release          string
	SampleRate       float64
	TracesSampleRate float64
	Debug            bool
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", "dev")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("PORT", 3000)

	v.SetDefault("LOOKUP_BASE_URL", "http://api.zippopotam.us/us/")
	v.SetDefault("LOOKUP_TIMEOUT", "10s")
	v.SetDefault("LOOKUP_USER_AGENT", "zipfinder/1.0")
	v.SetDefault("LOOKUP_TRACE", false)

	v.SetDefault("SESSION_TTL", "30m")
	v.SetDefault("COOKIE_DOMAIN", "")
	v.SetDefault("COOKIE_SECURE", false)

	v.SetDefault("RATE_LIMIT_RPS", 5.0)
	v.SetDefault("RATE_LIMIT_BURST", 10)
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("MAX_BODY_BYTES", 64<<10)

	v.SetDefault("METRICS_NAMESPACE", "zipfinder")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "")

	v.SetDefault("SENTRY_DSN", "")
	v.SetDefault("SENTRY_ENABLED", false) // Disabled by default for development
	v.SetDefault("SENTRY_ENVIRONMENT", "development")
	v.SetDefault("SENTRY_RELEASE", "")
	v.SetDefault("SENTRY_SAMPLE_RATE", 1.0)
	v.SetDefault("SENTRY_TRACES_SAMPLE_RATE", 0.0)
	v.SetDefault("SENTRY_DEBUG", false)
}

func NewConfig() (*Config, error) {
	// Try to load .env from current directory, then walk up to find it (max 2 levels)
	err := godotenv.Load()
	if err != nil {
		dir, _ := os.Getwd()
		found := false
		for i := 0; i < 2; i++ {
			dir = filepath.Join(dir, "..")
			if err := godotenv.Load(filepath.Join(dir, ".env")); err == nil {
				found = true
				break
			}
		}
		if !found {
			slog.Default().Warn("Warning: .env file not found, using environment variables and defaults")
		}
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	return loadConfig(v)
}

func loadConfig(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Env:      strings.ToLower(v.GetString("ENV")),
		LogLevel: strings.ToLower(v.GetString("LOG_LEVEL")),
		Lookup: LookupConfig{
			BaseURL:   v.GetString("LOOKUP_BASE_URL"),
			Timeout:   v.GetDuration("LOOKUP_TIMEOUT"),
			UserAgent: v.GetString("LOOKUP_USER_AGENT"),
			Trace:     v.GetBool("LOOKUP_TRACE"),
		},
		Session: SessionConfig{
			TTL:          v.GetDuration("SESSION_TTL"),
			CookieDomain: v.GetString("COOKIE_DOMAIN"),
			CookieSecure: v.GetBool("COOKIE_SECURE"),
		},
		Limits: LimitsConfig{
			RateLimitRPS:   v.GetFloat64("RATE_LIMIT_RPS"),
			RateLimitBurst: v.GetInt("RATE_LIMIT_BURST"),
			RequestTimeout: v.GetDuration("REQUEST_TIMEOUT"),
			MaxBodyBytes:   v.GetInt64("MAX_BODY_BYTES"),
		},
		Metrics: MetricsConfig{
			Namespace: v.GetString("METRICS_NAMESPACE"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Sentry: SentryConfig{
			DSN:              v.GetString("SENTRY_DSN"),
			Enabled:          v.GetBool("SENTRY_ENABLED"),
			Environment:      v.GetString("SENTRY_ENVIRONMENT"),
			Release:          v.GetString("SENTRY_RELEASE"),
			SampleRate:       v.GetFloat64("SENTRY_SAMPLE_RATE"),
			TracesSampleRate: v.GetFloat64("SENTRY_TRACES_SAMPLE_RATE"),
			Debug:            v.GetBool("SENTRY_DEBUG"),
		},
	}

	// Validate env
	validEnv := cfg.Env == "dev" || cfg.Env == "prod"
	if !validEnv {
		slog.Default().Warn("Invalid environment. Using default: prod", slog.String("env", cfg.Env))
		cfg.Env = "prod"
	}

	// Validate log level
	validLevel := cfg.LogLevel == "info" || cfg.LogLevel == "debug" || cfg.LogLevel == "warn" || cfg.LogLevel == "error"
	if !validLevel {
		slog.Default().Warn("Invalid log level. Using default: info", slog.String("value", cfg.LogLevel))
		cfg.LogLevel = "info"
	}

	port := v.GetInt("PORT")
	if port < 1 || port > 65535 {
		return nil, fmt.Errorf("PORT must be between 1 and 65535, got %q", v.GetString("PORT"))
	}
	cfg.Port = uint16(port)

	u, err := url.Parse(cfg.Lookup.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("LOOKUP_BASE_URL must be an absolute http(s) URL, got %q", cfg.Lookup.BaseURL)
	}

	if cfg.Lookup.Timeout <= 0 {
		return nil, fmt.Errorf("LOOKUP_TIMEOUT must be positive")
	}
	if cfg.Session.TTL <= 0 {
		return nil, fmt.Errorf("SESSION_TTL must be positive")
	}
	if cfg.Limits.RequestTimeout <= 0 {
		return nil, fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}
	if cfg.Limits.MaxBodyBytes <= 0 {
		return nil, fmt.Errorf("MAX_BODY_BYTES must be positive")
	}
	if cfg.Limits.RateLimitRPS <= 0 || cfg.Limits.RateLimitBurst <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}

	if cfg.Sentry.Enabled && cfg.Sentry.DSN == "" {
		return nil, fmt.Errorf("SENTRY_DSN required when SENTRY_ENABLED is set")
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
