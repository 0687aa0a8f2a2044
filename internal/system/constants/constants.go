package constants

const (
	APIBasePath = "/api/v1"

	ContentTypeHeaderName   = "Content-Type"
	CorrelationIDHeaderName = "X-Correlation-ID"
	RetryAfterHeaderName    = "Retry-After"
	ContentTypeJSON         = "application/json"

	// CorrelationIDContextKey is the gin context key holding the request correlation id
	CorrelationIDContextKey = "correlation_id"
)
