package utils

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wso2/financial-recommendation-api/internal/system/constants"
	"github.com/wso2/financial-recommendation-api/internal/system/error/serviceerror"
)

// ErrorResponse is the JSON body written for every failed request
type ErrorResponse struct {
	Code        string `json:"error"`
	Description string `json:"error_description"`
}

// StatusCodeFor maps a ServiceError to its HTTP status code
func StatusCodeFor(err *serviceerror.ServiceError) int {
	switch err.Code {
	case serviceerror.ResourceNotFoundError.Code:
		return http.StatusNotFound
	case serviceerror.ConsentRequiredError.Code:
		return http.StatusForbidden
	case serviceerror.InvalidTransitionError.Code:
		return http.StatusConflict
	case serviceerror.InsufficientDataError.Code:
		return http.StatusUnprocessableEntity
	case serviceerror.StorageUnavailableError.Code, serviceerror.GenerationTimeoutError.Code:
		return http.StatusServiceUnavailable
	case serviceerror.GenerationFailedError.Code:
		return http.StatusBadGateway
	}
	if err.Type == serviceerror.ClientErrorType {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// SendError writes a ServiceError as an HTTP response with appropriate status code
func SendError(c *gin.Context, err *serviceerror.ServiceError) {
	c.AbortWithStatusJSON(StatusCodeFor(err), ErrorResponse{
		Code:        err.Error,
		Description: err.ErrorDescription,
	})
}

// SendRetryableError writes a ServiceError and advertises when the client may retry
func SendRetryableError(c *gin.Context, err *serviceerror.ServiceError, retryAfter time.Duration) {
	if retryAfter > 0 {
		c.Header(constants.RetryAfterHeaderName, strconv.Itoa(int(retryAfter.Seconds())))
	}
	SendError(c, err)
}

// ParseUserID reads and validates the userId path parameter
func ParseUserID(c *gin.Context) (int64, *serviceerror.ServiceError) {
	raw := c.Param("userId")
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || userID <= 0 {
		return 0, serviceerror.CustomServiceError(
			serviceerror.InvalidRequestError,
			fmt.Sprintf("invalid user ID: %q", raw),
		)
	}
	return userID, nil
}
