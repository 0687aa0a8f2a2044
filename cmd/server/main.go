package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wso2/financial-recommendation-api/internal/system/backend"
	"github.com/wso2/financial-recommendation-api/internal/system/config"
	"github.com/wso2/financial-recommendation-api/internal/system/log"
	"github.com/wso2/financial-recommendation-api/internal/system/metrics"
	"github.com/wso2/financial-recommendation-api/internal/system/middleware"
)

var (
	// Set at build time with -ldflags
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.GetLogger().Fatal("Failed to load configuration", log.Error(err))
	}

	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, os.Stdout); err != nil {
		log.GetLogger().Fatal("Invalid logging configuration", log.Error(err))
	}
	logger := log.GetLogger()

	logger.Info("Starting Financial Recommendation API",
		log.String("version", version),
		log.String("build_date", buildDate),
		log.String("log_level", logger.Level()))

	metrics.Init()

	backends, err := backend.Open(cfg)
	if err != nil {
		logger.Fatal("Failed to open backends", log.Error(err))
	}
	defer backends.Close()

	if err := backends.WaitHealthy(5 * time.Second); err != nil {
		logger.Fatal("Backend health check failed", log.Error(err))
	}
	logger.Info("Backend health check passed",
		log.String("database", cfg.Database.Recommendation.Type),
		log.String("cache", cfg.Cache.Type))

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.CorrelationIDMiddleware(),
		middleware.RequestLoggingMiddleware(),
		middleware.CORSMiddleware(cfg.CORS),
	)

	registerServices(router, cfg, backends)

	server := &http.Server{
		Addr:           cfg.Server.GetServerAddress(),
		Handler:        router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}

	go func() {
		logger.Info("Starting HTTP server...", log.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", log.Error(err))
		}
	}()

	logger.Info("Server is running", log.String("address", server.Addr))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", log.Error(err))
	}
	unregisterServices()

	logger.Info("Server exited gracefully")
}
