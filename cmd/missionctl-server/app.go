package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	jsonfileAdapter "missionctl/adapters/jsonfile"
	mem "missionctl/adapters/memory"
	redisAdapter "missionctl/adapters/redis"
	sqlxAdapter "missionctl/adapters/sqlx"
	"missionctl/api/httpapi"
	"missionctl/config"
	"missionctl/core"
	"missionctl/engine"
	"missionctl/integrations/webhook"
	"missionctl/mission"
	"missionctl/realtime"
	"missionctl/seed"
	"missionctl/stats"
)

// App aggregates the assembled server components.
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Hub       *realtime.Hub
	Metrics   *stats.Metrics
	Reporting *stats.Service
	Service   *engine.MissionService
	Handler   http.Handler
	Server    *http.Server
}

func provideConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.Environment == config.EnvProduction {
		cfg.LoadSecretsFromEnv(ctx, config.NewEnvironmentSecretStore())
	}
	return cfg, nil
}

func provideLogger(cfg *config.Config) *slog.Logger {
	return setupLogging(cfg)
}

func provideHub() *realtime.Hub {
	return realtime.NewHub()
}

func provideMetrics() *stats.Metrics {
	return stats.NewMetrics()
}

// provideReporting assembles the rollup and export pipeline. An export
// endpoint in the config turns on batched HTTP delivery of daily rollups.
func provideReporting(cfg *config.Config) *stats.Service {
	var exporters []stats.Exporter
	if cfg.Metrics.ExportEndpoint != "" {
		exporters = append(exporters, stats.NewHTTPExporter(cfg.Metrics.ExportEndpoint, cfg.Metrics.ExportAPIKey, 0))
	}
	return stats.NewService(stats.ServiceOptions{
		RollupInterval: cfg.Metrics.RollupInterval,
		ExportInterval: cfg.Metrics.ExportInterval,
		Exporters:      exporters,
	})
}

func provideSeed(cfg *config.Config) ([]core.Intern, error) {
	if cfg.Storage.SeedPath != "" {
		return seed.Load(cfg.Storage.SeedPath)
	}
	return seed.Default()
}

func provideStorage(cfg *config.Config, records []core.Intern) (engine.Storage, error) {
	return setupStorage(cfg, records)
}

func provideService(cfg *config.Config, hub *realtime.Hub, storage engine.Storage, metrics *stats.Metrics, reporting *stats.Service) *engine.MissionService {
	opts := []mission.Option{
		mission.WithRealtime(hub),
		mission.WithStorage(storage),
		mission.WithHook(metrics),
		mission.WithHook(reporting.Hook()),
		mission.WithDispatchMode(engine.DispatchAsync),
	}
	if len(cfg.Security.WebhookEndpoints) > 0 {
		opts = append(opts, mission.WithHook(webhook.New(cfg.Security.WebhookEndpoints)))
	}
	return mission.New(opts...)
}

func provideHandler(svc *engine.MissionService, hub *realtime.Hub, cfg *config.Config) http.Handler {
	return httpapi.NewMux(svc, hub, httpapi.Options{
		PathPrefix:       cfg.Server.PathPrefix,
		AllowCORSOrigin:  cfg.Server.CORSOrigin,
		APIKeys:          cfg.Security.APIKeys,
		RateLimitEnabled: cfg.Security.EnableRateLimit,
		RateLimitRPM:     cfg.Security.RateLimit.RequestsPerMinute,
		RateLimitBurst:   cfg.Security.RateLimit.BurstSize,
	})
}

func provideServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           handler,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
}

// setupLogging configures the logger based on configuration.
func setupLogging(cfg *config.Config) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Logging.Level),
	}

	out := os.Stdout
	if cfg.Logging.Output == "stderr" {
		out = os.Stderr
	}

	switch cfg.Logging.Format {
	case "text":
		handler = slog.NewTextHandler(out, opts)
	case "json":
		handler = slog.NewJSONHandler(out, opts)
	default:
		handler = slog.NewJSONHandler(out, opts)
	}

	if len(cfg.Logging.Attributes) > 0 {
		handler = handler.WithAttrs(convertAttributes(cfg.Logging.Attributes))
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// convertAttributes converts map[string]string to []slog.Attr.
func convertAttributes(attrs map[string]string) []slog.Attr {
	var result []slog.Attr
	for k, v := range attrs {
		result = append(result, slog.String(k, v))
	}
	return result
}

// setupStorage creates the appropriate record store adapter based on configuration.
func setupStorage(cfg *config.Config, records []core.Intern) (engine.Storage, error) {
	switch cfg.Storage.Adapter {
	case "memory":
		return mem.New(records), nil
	case "redis":
		return redisAdapter.New(cfg.Storage.Redis, records)
	case "sql":
		return sqlxAdapter.New(cfg.Storage.SQL, records)
	case "file":
		return jsonfileAdapter.New(cfg.Storage.File.Path, records)
	default:
		return nil, fmt.Errorf("unknown storage adapter: %s", cfg.Storage.Adapter)
	}
}
