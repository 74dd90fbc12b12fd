package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kcloud-opt/loadsched/api/handlers"
	"github.com/kcloud-opt/loadsched/api/routes"
	"github.com/kcloud-opt/loadsched/internal/cache"
	"github.com/kcloud-opt/loadsched/internal/config"
	"github.com/kcloud-opt/loadsched/internal/logger"
	"github.com/kcloud-opt/loadsched/internal/metrics"
	"github.com/kcloud-opt/loadsched/internal/upstream"
	"github.com/kcloud-opt/loadsched/internal/validator"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
	gitCommit = "unknown"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(&cfg.Logging)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()

	appLogger.Info("starting deferrable load scheduling engine", "version", version, "commit", gitCommit, "build_time", buildTime)

	priceCache := cache.NewPriceCache()
	emissionCache := cache.NewEmissionCache()
	appLogger.Info("time-series caches initialized")

	fetcher := upstream.New(cfg.Upstream, appLogger)
	appLogger.Info("upstream fetcher initialized", "price_base_url", cfg.Upstream.PriceBaseURL, "emission_base_url", cfg.Upstream.EmissionBaseURL)

	schemaValidator, err := validator.NewSchemaValidator(appLogger)
	if err != nil {
		appLogger.Fatal("failed to initialize schema validator", "error", err)
	}
	appLogger.Info("schema validator initialized")

	metricsInstance := metrics.NewMetrics(appLogger)
	metricsInstance.Initialize()
	appLogger.Info("metrics initialized")

	handlersInstance := handlers.NewHandlers(priceCache, emissionCache, fetcher, schemaValidator, cfg, metricsInstance, appLogger)
	appLogger.Info("handlers initialized")

	var metricsMW *metrics.MetricsMiddleware
	if cfg.Monitoring.Enabled {
		metricsMW = metrics.NewMetricsMiddleware(metricsInstance, appLogger)
	}

	router := routes.NewRouter(handlersInstance, cfg, appLogger, metricsMW)
	httpRouter := router.SetupRoutes()
	if cfg.Monitoring.Enabled {
		httpRouter.GET(cfg.Monitoring.MetricsPath, gin.WrapH(promhttp.Handler()))
		appLogger.Info("prometheus scrape endpoint mounted", "path", cfg.Monitoring.MetricsPath)
	}
	appLogger.Info("router initialized")

	metricsManager := metrics.NewMetricsManager(metricsInstance, appLogger, priceCache, emissionCache)
	backgroundCtx, cancelBackground := context.WithCancel(context.Background())
	defer cancelBackground()
	go metricsManager.Start(backgroundCtx)
	appLogger.Info("metrics collection started")

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      httpRouter,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		appLogger.Info("starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("failed to start HTTP server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		appLogger.Error("server forced to shutdown", "error", err)
	}

	appLogger.Info("server exited")
}
