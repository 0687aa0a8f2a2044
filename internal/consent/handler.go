package consent

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wso2/financial-recommendation-api/internal/system/utils"
)

// consentHandler handles consent HTTP requests
type consentHandler struct {
	service ConsentServiceInterface
}

func newConsentHandler(service ConsentServiceInterface) *consentHandler {
	return &consentHandler{service: service}
}

// handleGrant handles POST /users/:userId/consents/:kind/grant
func (h *consentHandler) handleGrant(c *gin.Context) {
	userID, serviceErr := utils.ParseUserID(c)
	if serviceErr != nil {
		utils.SendError(c, serviceErr)
		return
	}

	record, serviceErr := h.service.Grant(c.Request.Context(), userID, c.Param("kind"))
	if serviceErr != nil {
		utils.SendError(c, serviceErr)
		return
	}
	c.JSON(http.StatusOK, record)
}

// handleRevoke handles POST /users/:userId/consents/:kind/revoke
func (h *consentHandler) handleRevoke(c *gin.Context) {
	userID, serviceErr := utils.ParseUserID(c)
	if serviceErr != nil {
		utils.SendError(c, serviceErr)
		return
	}

	record, serviceErr := h.service.Revoke(c.Request.Context(), userID, c.Param("kind"))
	if serviceErr != nil {
		utils.SendError(c, serviceErr)
		return
	}
	c.JSON(http.StatusOK, record)
}

// handleStatus handles GET /users/:userId/consents/:kind
func (h *consentHandler) handleStatus(c *gin.Context) {
	userID, serviceErr := utils.ParseUserID(c)
	if serviceErr != nil {
		utils.SendError(c, serviceErr)
		return
	}

	status, serviceErr := h.service.Status(c.Request.Context(), userID, c.Param("kind"))
	if serviceErr != nil {
		utils.SendError(c, serviceErr)
		return
	}
	c.JSON(http.StatusOK, status)
}

// handleList handles GET /users/:userId/consents
func (h *consentHandler) handleList(c *gin.Context) {
	userID, serviceErr := utils.ParseUserID(c)
	if serviceErr != nil {
		utils.SendError(c, serviceErr)
		return
	}

	list, serviceErr := h.service.ListForUser(c.Request.Context(), userID)
	if serviceErr != nil {
		utils.SendError(c, serviceErr)
		return
	}
	c.JSON(http.StatusOK, list)
}
