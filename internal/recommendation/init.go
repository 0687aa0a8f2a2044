// Package recommendation implements the guarded recommendation pipeline: consent gate,
// review lookup, generation, guardrails and the pending review write.
package recommendation

import (
	"time"

	"github.com/gin-gonic/gin"
)

// Initialize sets up the recommendation module and registers its routes on the API group
func Initialize(api *gin.RouterGroup, deps Dependencies, opts Options, retryAfter time.Duration) OrchestratorInterface {
	orchestrator := NewOrchestrator(deps, opts)
	handler := newRecommendationHandler(orchestrator, retryAfter)

	api.GET("/users/:userId/recommendations", handler.handleGet)

	return orchestrator
}
