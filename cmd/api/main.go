package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/time/rate"

	"channel-notifier/internal/config"
	pgRepo "channel-notifier/internal/infra/adapter/persistence/postgres"
	"channel-notifier/internal/infra/db"
	"channel-notifier/internal/infra/worker"
	"channel-notifier/internal/observability/logging"
	"channel-notifier/internal/observability/tracing"
	pkgconfig "channel-notifier/internal/pkg/config"
	envconfig "channel-notifier/pkg/config"

	chUC "channel-notifier/internal/usecase/channel"
	destUC "channel-notifier/internal/usecase/destination"
	"channel-notifier/internal/usecase/seed"

	hhttp "channel-notifier/internal/handler/http"
	hchannel "channel-notifier/internal/handler/http/channel"
	hdest "channel-notifier/internal/handler/http/destination"
	"channel-notifier/internal/handler/http/middleware"
	"channel-notifier/internal/handler/http/requestid"
	hsystem "channel-notifier/internal/handler/http/system"
)

const serviceName = "channel-notifier"

func main() {
	logger := initLogger()
	version := getVersion()

	shutdownTracing := func(context.Context) error { return nil }
	if !envconfig.GetEnvBool("OTEL_SDK_DISABLED", false) {
		shutdownTracing = tracing.Init(serviceName, version, traceSampleRatio(logger))
	}

	appCfg, err := config.LoadAppConfig(logger, pkgconfig.NewConfigMetrics("api"))
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	pollCfg := worker.LoadConfigFromEnv(logger, worker.Metrics())

	database := initDatabase(logger, appCfg.DatabaseURL)
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	components := setupServer(logger, database, appCfg, pollCfg, version)

	runServer(logger, components, appCfg, shutdownTracing)
}

// initLogger initializes and returns a structured logger based on environment configuration.
func initLogger() *slog.Logger {
	logger := logging.NewLogger(logging.OptionsFromEnv(serviceName))
	slog.SetDefault(logger)
	return logger
}

// initDatabase opens the database connection and runs migrations.
func initDatabase(logger *slog.Logger, dsn string) *sql.DB {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	database, err := db.Open(ctx, dsn)
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	if err := db.MigrateUp(database); err != nil {
		logger.Error("failed to migrate database", slog.Any("error", err))
		os.Exit(1)
	}
	return database
}

// traceSampleRatio reads OTEL_TRACES_SAMPLER_ARG, a ratio in [0, 1].
func traceSampleRatio(logger *slog.Logger) float64 {
	r := pkgconfig.LoadEnvFloat("OTEL_TRACES_SAMPLER_ARG", 1.0, func(f float64) error {
		if f < 0 || f > 1 {
			return errors.New("must be between 0 and 1")
		}
		return nil
	})
	if r.FallbackApplied {
		logger.Warn(r.Warning)
	}
	return r.Value
}

// getVersion returns the application version from environment or default.
func getVersion() string {
	return envconfig.GetEnvString("VERSION", "dev")
}

// ServerComponents holds components needed for server operation and cleanup.
type ServerComponents struct {
	Handler    http.Handler
	Poller     *worker.Poller
	QuotaReset *cron.Cron // nil when no reset schedule is configured
	AutoStart  bool
}

// setupServer wires the poller, the use cases and the HTTP routes.
func setupServer(logger *slog.Logger, database *sql.DB, appCfg *config.AppConfig, pollCfg *worker.PollerConfig, version string) *ServerComponents {
	destRepo := pgRepo.NewDestinationRepo(database)
	chRepo := pgRepo.NewChannelRepo(database)

	poller := worker.NewPoller(pollCfg, appCfg.YouTubeAPIKey,
		worker.Stores{Destinations: destRepo, Channels: chRepo}, logger)

	destSvc := &destUC.Service{Repo: destRepo, Channels: chRepo}
	chSvc := &chUC.Service{Repo: chRepo, Destinations: destRepo, Resolver: poller.Provider}

	if appCfg.SeedFile != "" {
		applySeed(logger, appCfg.SeedFile, destSvc, chSvc)
	}

	quotaReset, err := worker.StartQuotaReset(pollCfg, poller.Provider, worker.Metrics(), logger)
	if err != nil {
		logger.Error("failed to schedule quota reset", slog.Any("error", err))
		os.Exit(1)
	}

	mux := setupRoutes(logger, database, appCfg, version, poller, destSvc, chSvc)
	handler := applyMiddleware(logger, mux, appCfg)

	return &ServerComponents{
		Handler:    handler,
		Poller:     poller,
		QuotaReset: quotaReset,
		AutoStart:  pollCfg.AutoStart,
	}
}

// applySeed registers the destinations and channels listed in the seed file.
// A broken seed file is fatal; individual channel failures are only logged.
func applySeed(logger *slog.Logger, path string, destSvc *destUC.Service, chSvc *chUC.Service) {
	s, err := config.LoadSeed(path)
	if err != nil {
		logger.Error("failed to load seed file", slog.String("path", path), slog.Any("error", err))
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	res, err := seed.Apply(ctx, s, destSvc, chSvc, logger)
	if err != nil {
		logger.Error("failed to apply seed file", slog.String("path", path), slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("seed applied",
		slog.String("path", path),
		slog.Int("destinations_created", res.DestinationsCreated),
		slog.Int("channels_created", res.ChannelsCreated),
		slog.Int("channels_skipped", res.ChannelsSkipped),
		slog.Int("channel_errors", res.ChannelErrors))
}

// setupRoutes registers all HTTP routes.
func setupRoutes(
	logger *slog.Logger,
	database *sql.DB,
	appCfg *config.AppConfig,
	version string,
	poller *worker.Poller,
	destSvc *destUC.Service,
	chSvc *chUC.Service,
) *http.ServeMux {
	// 登録は解決のたびにクォータを消費するため、分あたりの回数を制限する
	var registerLimiter *rate.Limiter
	if n := appCfg.RegisterPerMinute; n > 0 {
		registerLimiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), n)
		logger.Info("channel registration rate limited", slog.Int("per_minute", n))
	} else {
		logger.Warn("channel registration rate limiting is DISABLED")
	}

	mux := http.NewServeMux()
	hdest.Register(mux, destSvc)
	hchannel.Register(mux, chSvc, registerLimiter)
	hsystem.Register(mux, poller.Scheduler, poller.Provider)

	// ヘルスチェックエンドポイント
	mux.Handle("GET /health", &hhttp.HealthHandler{
		DB:       database,
		Version:  version,
		Breakers: poller.Notify,
		Poller:   poller.Scheduler,
		SLO:      poller.SLO,
	})
	mux.Handle("GET /ready", &hhttp.ReadyHandler{DB: database})
	mux.Handle("GET /live", &hhttp.LiveHandler{})
	mux.Handle("GET /metrics", hhttp.MetricsHandler())

	return mux
}

// applyMiddleware wraps the handler with middleware chain.
// Middleware order: CORS → Request ID → Logging → Tracing → Metrics → Recovery → Body Limit → Security Headers
func applyMiddleware(logger *slog.Logger, handler http.Handler, appCfg *config.AppConfig) http.Handler {
	if err := middleware.ValidateOrigins(appCfg.CORSAllowedOrigins); err != nil {
		logger.Error("invalid CORS configuration", slog.Any("error", err))
		os.Exit(1)
	}
	corsConfig := middleware.DefaultCORSConfig(appCfg.CORSAllowedOrigins)
	logger.Info("CORS enabled",
		slog.Any("allowed_origins", corsConfig.AllowedOrigins),
		slog.Any("allowed_methods", corsConfig.AllowedMethods))

	chain := handler

	// Apply in reverse order (innermost to outermost)
	chain = middleware.SecurityHeaders(appCfg.CSPReportOnly)(chain)
	chain = hhttp.LimitRequestBody(1 << 20)(chain) // 1MB limit
	chain = hhttp.Recover(logger)(chain)
	chain = hhttp.MetricsMiddleware(chain)
	chain = tracing.Middleware(chain)
	chain = hhttp.Logging(logger)(chain)
	chain = requestid.Middleware(chain)
	chain = middleware.CORS(corsConfig)(chain)

	return chain
}

// runServer starts the poll scheduler and the HTTP server, then handles
// graceful shutdown on SIGINT/SIGTERM.
func runServer(logger *slog.Logger, c *ServerComponents, appCfg *config.AppConfig, shutdownTracing func(context.Context) error) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if c.AutoStart {
		c.Poller.Scheduler.Start()
	} else {
		logger.Info("poll scheduler not started (POLL_AUTOSTART=false)")
	}

	srv := &http.Server{
		Addr:              appCfg.Addr(),
		Handler:           c.Handler,
		ReadHeaderTimeout: 10 * time.Second, // Prevent Slowloris attacks
		ReadTimeout:       appCfg.RequestTimeout,
		WriteTimeout:      appCfg.RequestTimeout,
		IdleTimeout:       60 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		logger.Info("server starting", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	// 進行中の実行をキャンセルしてからサーバを止める
	c.Poller.Scheduler.Stop()
	if c.QuotaReset != nil {
		<-c.QuotaReset.Stop().Done()
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), appCfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", slog.Any("error", err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("tracer shutdown failed", slog.Any("error", err))
	}
	logger.Info("server stopped")
}
