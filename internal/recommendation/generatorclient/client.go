// Package generatorclient calls the external signals service that computes personas and
// scores candidate content.
package generatorclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/wso2/financial-recommendation-api/internal/recommendation"
	"github.com/wso2/financial-recommendation-api/internal/recommendation/model"
	"github.com/wso2/financial-recommendation-api/internal/system/config"
	"github.com/wso2/financial-recommendation-api/internal/system/constants"
	"github.com/wso2/financial-recommendation-api/internal/system/log"
	"github.com/wso2/financial-recommendation-api/internal/system/middleware"
)

var (
	_ recommendation.ProfileGenerator   = (*Client)(nil)
	_ recommendation.CandidateGenerator = (*Client)(nil)
)

// ProfileRequest is the payload sent to the persona profile endpoint
type ProfileRequest struct {
	UserID int64 `json:"userId"`
}

// ProfileResponse is returned by the persona profile endpoint
type ProfileResponse struct {
	Persona model.Persona `json:"persona"`
	Signals model.Signals `json:"signals"`
}

// CandidatesRequest is the payload sent to the candidates endpoint
type CandidatesRequest struct {
	UserID  int64         `json:"userId"`
	Persona model.Persona `json:"persona"`
	Signals model.Signals `json:"signals"`
}

// statusError is a non-2xx response from the signals service
type statusError struct {
	StatusCode int
	Body       string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("signals service returned status %d: %s", e.StatusCode, e.Body)
}

func (e *statusError) retryable() bool {
	return e.StatusCode >= http.StatusInternalServerError || e.StatusCode == http.StatusTooManyRequests
}

// Client implements the profile and candidate generators over HTTP
type Client struct {
	httpClient *http.Client
	config     config.GeneratorConfig
	logger     *log.Logger
	backoff    time.Duration
}

// NewClient creates a signals service client
func NewClient(cfg config.GeneratorConfig) *Client {
	timeout := 30 * time.Second
	if cfg.Timeout > 0 {
		timeout = cfg.Timeout
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		config:  cfg,
		logger:  log.GetLogger().With(log.String(log.LoggerKeyComponentName, "GeneratorClient")),
		backoff: 200 * time.Millisecond,
	}
}

// GeneratePersonaProfile asks the signals service for the user's persona and signals.
// A 422 response means there is not enough data and maps to ErrInsufficientData.
func (c *Client) GeneratePersonaProfile(ctx context.Context, userID int64) (model.Persona, model.Signals, error) {
	var resp ProfileResponse
	err := c.call(ctx, c.config.Endpoints.PersonaProfile, &ProfileRequest{UserID: userID}, &resp)
	if err != nil {
		var se *statusError
		if errors.As(err, &se) && se.StatusCode == http.StatusUnprocessableEntity {
			return model.Persona{}, nil, fmt.Errorf("%w: %s", recommendation.ErrInsufficientData, se.Body)
		}
		return model.Persona{}, nil, err
	}
	return resp.Persona, resp.Signals, nil
}

// GenerateCandidates asks the signals service for scored candidate content.
func (c *Client) GenerateCandidates(
	ctx context.Context,
	userID int64,
	persona model.Persona,
	signals model.Signals,
) (model.CandidateSet, error) {
	var resp model.CandidateSet
	err := c.call(ctx, c.config.Endpoints.Candidates, &CandidatesRequest{UserID: userID, Persona: persona, Signals: signals}, &resp)
	if err != nil {
		return model.CandidateSet{}, err
	}
	return resp, nil
}

// call POSTs the request and decodes a 2xx response, retrying transport failures and 5xx
// responses up to the configured number of extra attempts.
func (c *Client) call(ctx context.Context, endpoint string, request, response interface{}) error {
	url := c.config.GetEndpointURL(endpoint)

	payload, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.RetryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return errors.Join(lastErr, ctx.Err())
			case <-time.After(time.Duration(attempt) * c.backoff):
			}
		}

		lastErr = c.do(ctx, url, payload, response)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return lastErr
		}
		var se *statusError
		if errors.As(lastErr, &se) && !se.retryable() {
			return lastErr
		}
		c.logger.Warn("Signals service call failed",
			log.String("url", url), log.Int("attempt", attempt+1), log.Error(lastErr))
	}
	return lastErr
}

func (c *Client) do(ctx context.Context, url string, payload []byte, response interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(constants.ContentTypeHeaderName, constants.ContentTypeJSON)
	req.Header.Set("Accept", constants.ContentTypeJSON)
	if correlationID := middleware.CorrelationIDFromContext(ctx); correlationID != "" {
		req.Header.Set(constants.CorrelationIDHeaderName, correlationID)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("signals service call failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug("Signals service response received",
		log.String("url", url),
		log.Int("status_code", resp.StatusCode),
		log.Int64("duration_ms", time.Since(start).Milliseconds()))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &statusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.Unmarshal(body, response); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}
