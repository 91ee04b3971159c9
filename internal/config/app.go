// Package config loads the process configuration of the API server and the
// optional seed file of bootstrap registrations.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	pkgconfig "channel-notifier/internal/pkg/config"
	envconfig "channel-notifier/pkg/config"
)

var (
	// ErrMissingAPIKey is fatal at startup.
	ErrMissingAPIKey = errors.New("YOUTUBE_API_KEY is required")
	// ErrMissingDatabaseURL is fatal at startup.
	ErrMissingDatabaseURL = errors.New("DATABASE_URL is required")
)

// AppConfig is the configuration of the HTTP API process.
type AppConfig struct {
	YouTubeAPIKey string
	DatabaseURL   string

	Host string
	Port int

	// CORSAllowedOrigins defaults to a single origin built from
	// CORS_ORIGIN_HOST and CORS_ORIGIN_PORT.
	CORSAllowedOrigins []string

	ShutdownTimeout time.Duration
	RequestTimeout  time.Duration

	// RegisterPerMinute bounds channel registrations, each of which spends
	// provider quota. Zero disables the limit.
	RegisterPerMinute int

	// CSPReportOnly sends the content security policy without enforcing it.
	CSPReportOnly bool

	SeedFile string
}

// Addr returns host:port for http.Server.
func (c *AppConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// DefaultAppConfig returns defaults for everything except the credentials.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		Host:               "0.0.0.0",
		Port:               8008,
		CORSAllowedOrigins: []string{"http://localhost:3000"},
		ShutdownTimeout:    10 * time.Second,
		RequestTimeout:     30 * time.Second,
		RegisterPerMinute:  10,
	}
}

// LoadAppConfig reads the environment. Missing credentials are errors; every
// other malformed value falls back to its default with a warning.
// metrics may be nil.
func LoadAppConfig(logger *slog.Logger, metrics *pkgconfig.ConfigMetrics) (*AppConfig, error) {
	cfg := DefaultAppConfig()

	cfg.YouTubeAPIKey = pkgconfig.LoadEnvString("YOUTUBE_API_KEY", "")
	if cfg.YouTubeAPIKey == "" {
		return nil, ErrMissingAPIKey
	}
	cfg.DatabaseURL = pkgconfig.LoadEnvString("DATABASE_URL", "")
	if cfg.DatabaseURL == "" {
		return nil, ErrMissingDatabaseURL
	}

	tr := pkgconfig.NewTracker(metrics, logger)

	cfg.Host = pkgconfig.LoadEnvString("HOST", cfg.Host)
	cfg.Port = pkgconfig.Track(tr, "port", pkgconfig.LoadEnvInt("PORT", cfg.Port, func(v int) error {
		return pkgconfig.ValidateIntRange(v, 1, 65535)
	}))

	originHost := envconfig.GetEnvString("CORS_ORIGIN_HOST", "localhost")
	originPort := pkgconfig.Track(tr, "cors_origin_port", pkgconfig.LoadEnvInt("CORS_ORIGIN_PORT", 3000, func(v int) error {
		return pkgconfig.ValidateIntRange(v, 1, 65535)
	}))
	derived := fmt.Sprintf("http://%s", net.JoinHostPort(originHost, strconv.Itoa(originPort)))
	cfg.CORSAllowedOrigins = envconfig.GetEnvStringList("CORS_ALLOWED_ORIGINS", []string{derived})

	cfg.ShutdownTimeout = pkgconfig.Track(tr, "shutdown_timeout",
		pkgconfig.LoadEnvDuration("SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout, pkgconfig.ValidatePositiveDuration))
	cfg.RequestTimeout = pkgconfig.Track(tr, "request_timeout",
		pkgconfig.LoadEnvDuration("REQUEST_TIMEOUT", cfg.RequestTimeout, pkgconfig.ValidatePositiveDuration))
	cfg.RegisterPerMinute = pkgconfig.Track(tr, "register_per_minute",
		pkgconfig.LoadEnvInt("REGISTER_RATE_PER_MINUTE", cfg.RegisterPerMinute, func(v int) error {
			return pkgconfig.ValidateIntRange(v, 0, 600)
		}))

	cfg.CSPReportOnly = pkgconfig.Track(tr, "csp_report_only", pkgconfig.LoadEnvBool("CSP_REPORT_ONLY", cfg.CSPReportOnly))
	cfg.SeedFile = pkgconfig.LoadEnvString("SEED_FILE", "")

	tr.Done()
	return &cfg, nil
}
