// Package review implements the review ledger and the operator review service.
package review

import (
	"github.com/gin-gonic/gin"

	"github.com/wso2/financial-recommendation-api/internal/user"
)

// Initialize sets up the review module and registers its routes on the API group
func Initialize(api *gin.RouterGroup, store ReviewStore, directory user.Directory) ReviewServiceInterface {
	service := NewReviewService(store, directory)
	handler := newReviewHandler(service)

	registerRoutes(api, handler)

	return service
}

func registerRoutes(api *gin.RouterGroup, handler *reviewHandler) {
	reviews := api.Group("/reviews")
	{
		reviews.GET("", handler.handleQueue)
		reviews.GET("/:reviewId", handler.handleGet)
		reviews.POST("/:reviewId/approve", handler.handleApprove)
		reviews.POST("/:reviewId/override", handler.handleOverride)
	}

	api.GET("/users/:userId/reviews", handler.handleListByUser)
}
