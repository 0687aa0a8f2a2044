package recommendation

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wso2/financial-recommendation-api/internal/system/utils"
)

// recommendationHandler handles end-user recommendation requests
type recommendationHandler struct {
	orchestrator OrchestratorInterface
	retryAfter   time.Duration
}

func newRecommendationHandler(orchestrator OrchestratorInterface, retryAfter time.Duration) *recommendationHandler {
	return &recommendationHandler{orchestrator: orchestrator, retryAfter: retryAfter}
}

// handleGet handles GET /users/:userId/recommendations
func (h *recommendationHandler) handleGet(c *gin.Context) {
	userID, serviceErr := utils.ParseUserID(c)
	if serviceErr != nil {
		utils.SendError(c, serviceErr)
		return
	}

	response, serviceErr := h.orchestrator.GetRecommendations(c.Request.Context(), userID)
	if serviceErr != nil {
		if serviceErr.IsRetryable() {
			utils.SendRetryableError(c, serviceErr, h.retryAfter)
			return
		}
		utils.SendError(c, serviceErr)
		return
	}
	c.JSON(http.StatusOK, response)
}
