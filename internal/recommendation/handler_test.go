package recommendation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wso2/financial-recommendation-api/internal/recommendation/model"
	"github.com/wso2/financial-recommendation-api/internal/system/error/serviceerror"
)

type stubOrchestrator struct {
	response   *Response
	serviceErr *serviceerror.ServiceError
}

func (s stubOrchestrator) GetRecommendations(context.Context, int64) (*Response, *serviceerror.ServiceError) {
	return s.response, s.serviceErr
}

func serveRecommendations(t *testing.T, orch OrchestratorInterface, path string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/api/v1/users/:userId/recommendations", newRecommendationHandler(orch, 5*time.Second).handleGet)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHandler_ServesResponse(t *testing.T) {
	orch := stubOrchestrator{response: &Response{
		Status:         StatusApproved,
		EducationItems: []model.Item{{ID: "edu-1", Rationale: "r"}},
		PartnerOffers:  []model.Item{},
	}}

	w := serveRecommendations(t, orch, "/api/v1/users/42/recommendations")

	require.Equal(t, http.StatusOK, w.Code)
	var body Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, StatusApproved, body.Status)
	assert.Len(t, body.EducationItems, 1)
}

func TestHandler_ErrorCategories(t *testing.T) {
	tests := []struct {
		name       string
		err        serviceerror.ServiceError
		status     int
		retryAfter string
	}{
		{name: "forbidden", err: serviceerror.ConsentRequiredError, status: http.StatusForbidden},
		{name: "not found", err: serviceerror.ResourceNotFoundError, status: http.StatusNotFound},
		{name: "insufficient data", err: serviceerror.InsufficientDataError, status: http.StatusUnprocessableEntity},
		{name: "timeout", err: serviceerror.GenerationTimeoutError, status: http.StatusServiceUnavailable, retryAfter: "5"},
		{name: "storage", err: serviceerror.StorageUnavailableError, status: http.StatusServiceUnavailable, retryAfter: "5"},
		{name: "generator", err: serviceerror.GenerationFailedError, status: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orch := stubOrchestrator{serviceErr: serviceerror.CustomServiceError(tt.err, "boom")}

			w := serveRecommendations(t, orch, "/api/v1/users/42/recommendations")

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.retryAfter, w.Header().Get("Retry-After"))
			assert.Contains(t, w.Body.String(), tt.err.Error)
		})
	}
}

func TestHandler_InvalidUserID(t *testing.T) {
	w := serveRecommendations(t, stubOrchestrator{}, "/api/v1/users/me/recommendations")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
