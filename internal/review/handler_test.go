package review

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wso2/financial-recommendation-api/internal/review/model"
	"github.com/wso2/financial-recommendation-api/internal/user"
)

func newTestRouter(t *testing.T) (*gin.Engine, ReviewStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	store := NewMemoryReviewStore()
	Initialize(router.Group("/api/v1"), store, user.NewMemoryDirectory(1))
	return router, store
}

func doRequest(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandler_QueueAndApprove(t *testing.T) {
	router, store := newTestRouter(t)
	created, err := store.UpsertPending(context.Background(), 1, sampleData(), model.DecisionTrace{})
	require.NoError(t, err)

	w := doRequest(router, http.MethodGet, "/api/v1/reviews?order=oldest", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list model.ListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Count)

	w = doRequest(router, http.MethodPost, "/api/v1/reviews/"+created.ReviewID+"/approve", `{"reviewedBy":"ops"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var review model.Review
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &review))
	assert.Equal(t, model.StatusApproved, review.Status)

	w = doRequest(router, http.MethodPost, "/api/v1/reviews/"+created.ReviewID+"/override", `{"reviewedBy":"ops","notes":"late"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_transition")
}

func TestHandler_ValidationAndNotFound(t *testing.T) {
	router, store := newTestRouter(t)
	created, err := store.UpsertPending(context.Background(), 1, sampleData(), model.DecisionTrace{})
	require.NoError(t, err)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{name: "missing reviewer", method: http.MethodPost, path: "/api/v1/reviews/" + created.ReviewID + "/approve", body: `{}`, status: http.StatusBadRequest},
		{name: "override without notes", method: http.MethodPost, path: "/api/v1/reviews/" + created.ReviewID + "/override", body: `{"reviewedBy":"ops"}`, status: http.StatusBadRequest},
		{name: "malformed body", method: http.MethodPost, path: "/api/v1/reviews/" + created.ReviewID + "/approve", body: `{`, status: http.StatusBadRequest},
		{name: "unknown review", method: http.MethodPost, path: "/api/v1/reviews/nope/approve", body: `{"reviewedBy":"ops"}`, status: http.StatusNotFound},
		{name: "get unknown", method: http.MethodGet, path: "/api/v1/reviews/nope", status: http.StatusNotFound},
		{name: "get unknown uuid", method: http.MethodGet, path: "/api/v1/reviews/8f14e45f-ceea-4e7a-9b1d-2c3f0a6b7d10", status: http.StatusNotFound},
		{name: "bad order", method: http.MethodGet, path: "/api/v1/reviews?order=random", status: http.StatusBadRequest},
		{name: "bad user id", method: http.MethodGet, path: "/api/v1/users/abc/reviews", status: http.StatusBadRequest},
		{name: "unknown user", method: http.MethodGet, path: "/api/v1/users/99/reviews", status: http.StatusNotFound},
		{name: "user history", method: http.MethodGet, path: "/api/v1/users/1/reviews", status: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}

	// failed validation never touches the review
	stored, err := store.GetByID(context.Background(), created.ReviewID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, stored.Status)
}
