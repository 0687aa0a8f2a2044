package review

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/wso2/financial-recommendation-api/internal/review/model"
	"github.com/wso2/financial-recommendation-api/internal/system/error/serviceerror"
	"github.com/wso2/financial-recommendation-api/internal/system/utils"
)

// reviewHandler handles operator review HTTP requests
type reviewHandler struct {
	service ReviewServiceInterface
}

func newReviewHandler(service ReviewServiceInterface) *reviewHandler {
	return &reviewHandler{service: service}
}

// handleQueue handles GET /reviews
func (h *reviewHandler) handleQueue(c *gin.Context) {
	reviews, serviceErr := h.service.GetReviewQueue(c.Request.Context(), c.Query("order"))
	if serviceErr != nil {
		utils.SendError(c, serviceErr)
		return
	}
	c.JSON(http.StatusOK, model.ListResponse{Data: reviews, Count: len(reviews)})
}

// handleGet handles GET /reviews/:reviewId
func (h *reviewHandler) handleGet(c *gin.Context) {
	reviewID, ok := reviewIDParam(c)
	if !ok {
		return
	}
	review, serviceErr := h.service.GetReview(c.Request.Context(), reviewID)
	if serviceErr != nil {
		utils.SendError(c, serviceErr)
		return
	}
	c.JSON(http.StatusOK, review)
}

// handleListByUser handles GET /users/:userId/reviews
func (h *reviewHandler) handleListByUser(c *gin.Context) {
	userID, serviceErr := utils.ParseUserID(c)
	if serviceErr != nil {
		utils.SendError(c, serviceErr)
		return
	}

	reviews, serviceErr := h.service.ListUserReviews(c.Request.Context(), userID)
	if serviceErr != nil {
		utils.SendError(c, serviceErr)
		return
	}
	c.JSON(http.StatusOK, model.ListResponse{Data: reviews, Count: len(reviews)})
}

// handleApprove handles POST /reviews/:reviewId/approve
func (h *reviewHandler) handleApprove(c *gin.Context) {
	reviewID, ok := reviewIDParam(c)
	if !ok {
		return
	}
	request, ok := bindDecision(c, false)
	if !ok {
		return
	}

	review, serviceErr := h.service.Approve(c.Request.Context(), reviewID, request.Notes, request.ReviewedBy)
	if serviceErr != nil {
		utils.SendError(c, serviceErr)
		return
	}
	c.JSON(http.StatusOK, review)
}

// handleOverride handles POST /reviews/:reviewId/override
func (h *reviewHandler) handleOverride(c *gin.Context) {
	reviewID, ok := reviewIDParam(c)
	if !ok {
		return
	}
	request, ok := bindDecision(c, true)
	if !ok {
		return
	}

	review, serviceErr := h.service.Override(c.Request.Context(), reviewID, request.Notes, request.ReviewedBy)
	if serviceErr != nil {
		utils.SendError(c, serviceErr)
		return
	}
	c.JSON(http.StatusOK, review)
}

// reviewIDParam rejects ids that cannot name a review with 404, without a store lookup.
func reviewIDParam(c *gin.Context) (string, bool) {
	reviewID := c.Param("reviewId")
	if !utils.IsValidUUID(reviewID) {
		utils.SendError(c, serviceerror.CustomServiceError(
			serviceerror.ResourceNotFoundError,
			"review "+reviewID+" not found",
		))
		return "", false
	}
	return reviewID, true
}

func bindDecision(c *gin.Context, notesRequired bool) (*model.DecisionRequest, bool) {
	var request model.DecisionRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.SendError(c, serviceerror.CustomServiceError(
			serviceerror.InvalidRequestError,
			"invalid request body: "+err.Error(),
		))
		return nil, false
	}

	request.ReviewedBy = strings.TrimSpace(request.ReviewedBy)
	request.Notes = strings.TrimSpace(request.Notes)
	if request.ReviewedBy == "" {
		utils.SendError(c, serviceerror.CustomServiceError(serviceerror.InvalidRequestError, "reviewedBy is required"))
		return nil, false
	}
	if notesRequired && request.Notes == "" {
		utils.SendError(c, serviceerror.CustomServiceError(
			serviceerror.InvalidRequestError,
			"notes are required when overriding a review",
		))
		return nil, false
	}
	return &request, true
}
