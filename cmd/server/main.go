package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	_ "github.com/pendencias/backend/docs"
	pendencyapp "github.com/pendencias/backend/internal/application/pendency"
	"github.com/pendencias/backend/internal/infrastructure/bureau"
	"github.com/pendencias/backend/internal/infrastructure/cache"
	"github.com/pendencias/backend/internal/infrastructure/config"
	"github.com/pendencias/backend/internal/infrastructure/logger"
	"github.com/pendencias/backend/internal/infrastructure/migration"
	"github.com/pendencias/backend/internal/infrastructure/persistence"
	"github.com/pendencias/backend/internal/infrastructure/scheduler"
	"github.com/pendencias/backend/internal/infrastructure/telemetry"
	"github.com/pendencias/backend/internal/interfaces/http/handler"
	"github.com/pendencias/backend/internal/interfaces/http/middleware"
	"github.com/pendencias/backend/internal/interfaces/http/router"
	"github.com/pendencias/backend/migrations"
)

//	@title			Pendency API
//	@version		1.0
//	@description	Consolidated debt (pendency) lookup for Brazilian CPF and CNPJ numbers across credit bureaus and the PGFN.

//	@BasePath	/api/v1

//	@securityDefinitions.apikey	ClientID
//	@in							header
//	@name						X-Client-ID
//	@description				Optional caller identity. Scopes search history and rate limits.

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// The OTLP log bridge needs a logger of its own to report export errors
	bootLog, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	loggerProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize log exporter", zap.Error(err))
	}

	log := bootLog
	if loggerProvider.IsEnabled() {
		log, err = newLogger(cfg, telemetry.NewZapOTELCore(loggerProvider, cfg.Telemetry.ServiceName, logger.ParseLevel(cfg.Log.Level)))
		if err != nil {
			bootLog.Fatal("Failed to initialize logger", zap.Error(err))
		}
	}
	defer logger.Sync(log)

	log.Info("Starting Pendency API",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}

	historyStore, err := cache.NewHistoryStoreFactory(cfg.Redis, cfg.History,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	).CreateStore()
	if err != nil {
		log.Fatal("Failed to create history store", zap.Error(err))
	}
	defer func() {
		if err := historyStore.Close(); err != nil {
			log.Warn("Failed to close history store", zap.Error(err))
		}
	}()

	opts := []pendencyapp.Option{pendencyapp.WithHistory(historyStore)}
	systemOpts := []handler.SystemOption{
		handler.WithVersion(cfg.App.Name, telemetry.ServiceVersion),
		handler.WithHealthCheck("history", historyCheck(historyStore)),
	}

	if meterProvider.IsEnabled() {
		searchMetrics, err := telemetry.NewSearchMetrics(meterProvider.Meter("pendency"))
		if err != nil {
			log.Fatal("Failed to create search metrics", zap.Error(err))
		}
		opts = append(opts, pendencyapp.WithMetrics(searchMetrics))
	}

	var (
		db        *persistence.Database
		dbMetrics *telemetry.DBMetrics
		retention *scheduler.AuditRetention
	)
	if cfg.Audit.Enabled {
		db, dbMetrics, err = openAuditDatabase(ctx, cfg, log, meterProvider)
		if err != nil {
			log.Fatal("Failed to set up audit database", zap.Error(err))
		}
		defer func() {
			if err := db.Close(); err != nil {
				log.Warn("Failed to close database", zap.Error(err))
			}
		}()

		fingerprinter, err := persistence.NewFingerprinter(cfg.Audit.HashKey)
		if err != nil {
			log.Fatal("Invalid audit hash key", zap.Error(err))
		}
		auditRepo := persistence.NewSearchAuditRepository(db.DB, fingerprinter)
		opts = append(opts, pendencyapp.WithAuditRepository(auditRepo))
		systemOpts = append(systemOpts, handler.WithHealthCheck("database", func(context.Context) error {
			return db.Ping()
		}))
		log.Info("Search audit enabled")

		if cfg.Audit.Retention > 0 {
			retention, err = scheduler.NewAuditRetention(auditRepo, cfg.Audit.Retention, cfg.Audit.PurgeSchedule, log)
			if err != nil {
				log.Fatal("Invalid audit retention settings", zap.Error(err))
			}
			if err := retention.Start(ctx); err != nil {
				log.Fatal("Failed to start audit retention", zap.Error(err))
			}
			log.Info("Audit retention enabled",
				zap.Duration("retention", cfg.Audit.Retention),
				zap.String("schedule", cfg.Audit.PurgeSchedule),
			)
		}
	}

	settings, credentials := bureau.SettingsFromConfig(cfg.Bureau)
	providers, err := bureau.NewProviders(settings, bureau.WithLogger(log))
	if err != nil {
		log.Fatal("Failed to create providers", zap.Error(err))
	}
	for _, s := range settings {
		_, configured := credentials[s.Code]
		log.Info("Provider registered",
			zap.String("provider", string(s.Code)),
			zap.String("base_url", s.Client.BaseURL),
			zap.Bool("configured", configured),
		)
	}

	searchService := pendencyapp.NewSearchService(providers, credentials, log, opts...)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	var limiter *middleware.RateLimiter
	if cfg.HTTP.RateLimitEnabled {
		limiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		defer limiter.Stop()
	}

	engine, _, err := router.NewEngine(router.EngineConfig{
		Logger:        log,
		HTTP:          cfg.HTTP,
		Swagger:       cfg.Swagger,
		Telemetry:     cfg.Telemetry,
		MeterProvider: meterProvider,
		RateLimiter:   limiter,
	}, router.Handlers{
		Pendency: handler.NewPendencyHandler(searchService),
		System:   handler.NewSystemHandler(systemOpts...),
	})
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	if retention != nil {
		if err := retention.Stop(shutdownCtx); err != nil {
			log.Warn("Failed to stop audit retention", zap.Error(err))
		}
	}
	if dbMetrics != nil {
		dbMetrics.Stop()
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Failed to shut down meter provider", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Failed to shut down tracer provider", zap.Error(err))
	}
	if err := loggerProvider.Shutdown(shutdownCtx); err != nil {
		bootLog.Warn("Failed to shut down logger provider", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

func newLogger(cfg *config.Config, extra ...zapcore.Core) (*zap.Logger, error) {
	return logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}, extra...)
}

// openAuditDatabase connects GORM, applies the embedded migrations and
// installs tracing and metrics hooks
func openAuditDatabase(
	ctx context.Context,
	cfg *config.Config,
	log *zap.Logger,
	meterProvider *telemetry.MeterProvider,
) (*persistence.Database, *telemetry.DBMetrics, error) {
	if err := applyMigrations(&cfg.Database, log); err != nil {
		return nil, nil, err
	}

	gormLogger := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithFullSQL(cfg.Telemetry.DBLogFullSQL),
	)
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLogger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("Database connected",
		zap.String("host", cfg.Database.Host),
		zap.Int("port", cfg.Database.Port),
		zap.String("database", cfg.Database.DBName),
	)

	tracing := telemetry.DefaultDBTracingConfig()
	tracing.Enabled = cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled
	tracing.LogFullSQL = cfg.Telemetry.DBLogFullSQL
	if err := telemetry.RegisterDBTracing(db.DB, tracing, log); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to register database tracing: %w", err)
	}

	if !meterProvider.IsEnabled() {
		return db, nil, nil
	}
	dbMetrics, err := telemetry.NewDBMetrics(meterProvider.Meter("pendency/db"), telemetry.DBMetricsConfig{}, log)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to create database metrics: %w", err)
	}
	if err := dbMetrics.Register(db.DB); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to register database metrics: %w", err)
	}
	dbMetrics.StartPoolStatsCollection(ctx)
	return db, dbMetrics, nil
}

// applyMigrations runs on a dedicated connection: closing the migrator
// closes the *sql.DB it was given.
func applyMigrations(cfg *config.DatabaseConfig, log *zap.Logger) error {
	sqlDB, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return fmt.Errorf("failed to open migration connection: %w", err)
	}

	m, err := migration.NewWithFS(sqlDB, migrations.FS, ".", log)
	if err != nil {
		_ = sqlDB.Close()
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn("Failed to close migrator", zap.Error(err))
		}
	}()

	if err := m.Up(); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// historyCheck reports whether the history backend answers a read
func historyCheck(store cache.HistoryStore) handler.HealthCheck {
	return func(ctx context.Context) error {
		_, err := store.List(ctx, "health")
		return err
	}
}
