package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/rsierra/ex-maps/internal/maps"
	"github.com/rsierra/ex-maps/pkg/common"
	"github.com/rsierra/ex-maps/pkg/config"
	sentryerrors "github.com/rsierra/ex-maps/pkg/errors"
	"github.com/rsierra/ex-maps/pkg/logger"
	"github.com/rsierra/ex-maps/pkg/middleware"
	"github.com/rsierra/ex-maps/pkg/redis"
	"github.com/rsierra/ex-maps/pkg/resilience"
)

const serviceName = "maps-gateway"

func main() {
	cfg, err := config.Load(serviceName)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	if err := logger.Init(cfg.Server.Environment); err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	if cfg.Google.APIKey == "" {
		logger.Warn("GOOGLE_MAPS_API_KEY is not set; upstream requests will be rejected")
	}

	sentryCfg := sentryerrors.DefaultSentryConfig(serviceName, cfg.Server.Environment)
	sentryEnabled := false
	if err := sentryerrors.InitSentry(sentryCfg); err != nil {
		logger.Warn("sentry disabled", zap.Error(err))
	} else {
		sentryEnabled = true
		defer sentryerrors.Flush(2 * time.Second)
	}

	var cache redis.ClientInterface
	var redisClient *redis.Client
	if cfg.Cache.Enabled {
		redisClient, err = redis.NewClient(&cfg.Redis)
		if err != nil {
			logger.Warn("redis unavailable, caching disabled", zap.Error(err))
		} else {
			cache = redisClient
			defer redisClient.Close()
		}
	}

	var breaker *resilience.CircuitBreaker
	if cfg.Breaker.Enabled {
		breaker = resilience.New(resilience.SettingsFromConfig("google-maps", cfg.Breaker))
	}

	client := maps.NewClient(cfg.Google)
	service := maps.NewService(client, cache, breaker, maps.ServiceConfigFromCache(cfg.Cache))
	handler := maps.NewHandler(service)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if sentryEnabled {
		router.Use(middleware.SentryRecovery())
	}
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(serviceName))
	router.Use(middleware.Metrics(serviceName))
	router.Use(middleware.CORS(cfg.Server.CORSOrigins))
	router.Use(middleware.RequestTimeout(time.Duration(cfg.Server.RequestTimeout) * time.Second))

	router.NoRoute(common.NoRouteHandler())
	router.NoMethod(common.NoMethodHandler())

	router.GET("/health", common.HealthCheck(serviceName, cfg.Server.Version))
	router.GET("/health/live", common.LivenessProbe(serviceName, cfg.Server.Version))
	router.GET("/health/ready", common.ReadinessProbe(serviceName, cfg.Server.Version, readinessChecks(redisClient, service)))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	handler.RegisterRoutes(api)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("starting server",
			zap.String("service", serviceName),
			zap.String("port", cfg.Server.Port),
			zap.String("environment", cfg.Server.Environment),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}

func readinessChecks(redisClient *redis.Client, service *maps.Service) map[string]func() error {
	checks := map[string]func() error{
		"upstream": func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return service.HealthCheck(ctx)
		},
	}
	if redisClient != nil {
		checks["redis"] = func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return redisClient.Ping(ctx)
		}
	}
	return checks
}
