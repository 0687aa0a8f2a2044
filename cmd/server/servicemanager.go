package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wso2/financial-recommendation-api/internal/consent"
	"github.com/wso2/financial-recommendation-api/internal/recommendation"
	"github.com/wso2/financial-recommendation-api/internal/recommendation/generatorclient"
	"github.com/wso2/financial-recommendation-api/internal/review"
	"github.com/wso2/financial-recommendation-api/internal/system/backend"
	"github.com/wso2/financial-recommendation-api/internal/system/config"
	"github.com/wso2/financial-recommendation-api/internal/system/constants"
	"github.com/wso2/financial-recommendation-api/internal/system/log"
	"github.com/wso2/financial-recommendation-api/internal/system/metrics"
)

// Package-level service references for cleanup during shutdown
var (
	reviewService  review.ReviewServiceInterface
	consentService consent.ConsentServiceInterface
	orchestrator   recommendation.OrchestratorInterface
)

// registerServices wires every module onto the router.
func registerServices(router *gin.Engine, cfg *config.Config, backends *backend.Backends) {
	logger := log.GetLogger()

	api := router.Group(constants.APIBasePath)

	reviewService = review.Initialize(api, backends.Reviews, backends.Directory)
	logger.Info("Review module initialized")

	consentService = consent.Initialize(api, backends.Consents, backends.Directory, backends.Invalidator)
	logger.Info("Consent module initialized")

	generator := generatorclient.NewClient(cfg.Generator)
	orchestrator = recommendation.Initialize(api,
		recommendation.Dependencies{
			Consent:     consentService,
			Reviews:     backends.Reviews,
			Profiles:    generator,
			Candidates:  generator,
			Invalidator: backends.Invalidator,
		},
		recommendation.Options{
			GenerationTimeout: cfg.Recommendation.GenerationTimeout,
			ProfileTTL:        cfg.Cache.ProfileTTL,
			Tone:              cfg.Guardrails.Tone,
		},
		cfg.Recommendation.RetryAfter,
	)
	logger.Info("Recommendation module initialized", log.String("generator", cfg.Generator.BaseURL))

	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := backends.HealthCheck(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
}

// unregisterServices performs cleanup of all services during shutdown.
// Module services hold no resources of their own; backends are closed by main.
func unregisterServices() {
	reviewService = nil
	consentService = nil
	orchestrator = nil
	log.GetLogger().Info("Services unregistered")
}
