package router

import (
	"fmt"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/pendencias/backend/internal/infrastructure/config"
	"github.com/pendencias/backend/internal/infrastructure/logger"
	"github.com/pendencias/backend/internal/infrastructure/telemetry"
	"github.com/pendencias/backend/internal/interfaces/http/handler"
	"github.com/pendencias/backend/internal/interfaces/http/middleware"
)

// EngineConfig holds what the HTTP engine needs besides the handlers
type EngineConfig struct {
	Logger        *zap.Logger
	HTTP          config.HTTPConfig
	Swagger       config.SwaggerConfig
	Telemetry     config.TelemetryConfig
	MeterProvider *telemetry.MeterProvider
	// RateLimiter is applied to the pendency routes; nil disables rate limiting
	RateLimiter *middleware.RateLimiter
}

// Handlers groups the HTTP handlers mounted by NewEngine
type Handlers struct {
	Pendency *handler.PendencyHandler
	System   *handler.SystemHandler
}

// NewEngine builds the gin engine with the global middleware chain and
// every route of the service
func NewEngine(cfg EngineConfig, h Handlers) (*gin.Engine, *Router, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			return nil, nil, fmt.Errorf("invalid trusted proxies: %w", err)
		}
	} else {
		if err := engine.SetTrustedProxies(nil); err != nil {
			return nil, nil, err
		}
	}

	// identity first so logs and spans carry request and client ids
	engine.Use(middleware.RequestID())
	engine.Use(middleware.ClientIdentity())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.TracingAttributeInjector())
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: cfg.MeterProvider,
		Enabled:       cfg.Telemetry.MetricsEnabled,
	}))
	engine.Use(middleware.Secure())

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	if cfg.HTTP.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	}

	if h.System != nil {
		engine.GET("/health", h.System.Health)
	}

	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(middleware.SwaggerConfig{
			Enabled:    cfg.Swagger.Enabled,
			AllowedIPs: cfg.Swagger.AllowedIPs,
		}),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)

	r := NewRouter(engine, WithAPIVersion("v1"))

	if h.Pendency != nil {
		pendencies := NewDomainGroup("pendencies", "/pendencies")
		if cfg.RateLimiter != nil {
			pendencies.Use(middleware.RateLimit(cfg.RateLimiter))
		}
		pendencies.POST("/search", h.Pendency.Search)
		pendencies.GET("/validate/:tax_id", h.Pendency.ValidateTaxID)
		pendencies.GET("/history", h.Pendency.History)
		pendencies.DELETE("/history", h.Pendency.ClearHistory)
		pendencies.GET("/providers", h.Pendency.Providers)

		audits := pendencies.Group("audits", "/audits")
		audits.GET("", h.Pendency.ListAudits)
		audits.GET("/:id", h.Pendency.GetAudit)

		r.Register(pendencies)
	}

	if h.System != nil {
		system := NewDomainGroup("system", "/system")
		system.GET("/ping", h.System.Ping)
		system.GET("/info", h.System.GetSystemInfo)
		r.Register(system)
	}

	r.Setup()

	for _, route := range r.Routes() {
		log.Debug("Route registered",
			zap.String("group", route.Group),
			zap.String("method", route.Method),
			zap.String("path", route.Path),
		)
	}

	return engine, r, nil
}
