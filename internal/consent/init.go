// Package consent implements the consent gate: per-user data_processing and ai_features flags.
package consent

import (
	"github.com/gin-gonic/gin"

	"github.com/wso2/financial-recommendation-api/internal/cache"
	"github.com/wso2/financial-recommendation-api/internal/user"
)

// Initialize sets up the consent module and registers its routes on the API group
func Initialize(api *gin.RouterGroup, store ConsentStore, directory user.Directory, invalidator cache.Invalidator) ConsentServiceInterface {
	service := NewConsentService(store, directory, invalidator)
	handler := newConsentHandler(service)

	consents := api.Group("/users/:userId/consents")
	{
		consents.GET("", handler.handleList)
		consents.GET("/:kind", handler.handleStatus)
		consents.POST("/:kind/grant", handler.handleGrant)
		consents.POST("/:kind/revoke", handler.handleRevoke)
	}

	return service
}
