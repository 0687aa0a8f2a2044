package serviceerror

type ServiceErrorType string

const (
	ClientErrorType ServiceErrorType = "client_error"
	ServerErrorType ServiceErrorType = "server_error"
)

type ServiceError struct {
	Code             string           `json:"code"`
	Type             ServiceErrorType `json:"type"`
	Error            string           `json:"error"`
	ErrorDescription string           `json:"error_description,omitempty"`
}

var (
	InternalServerError = ServiceError{
		Type:             ServerErrorType,
		Code:             "SSE-5000",
		Error:            "internal_server_error",
		ErrorDescription: "An unexpected error occurred",
	}

	DatabaseError = ServiceError{
		Type:             ServerErrorType,
		Code:             "SSE-5001",
		Error:            "database_error",
		ErrorDescription: "A database error occurred",
	}

	GenerationFailedError = ServiceError{
		Type:             ServerErrorType,
		Code:             "SSE-5020",
		Error:            "generation_failed",
		ErrorDescription: "Recommendation generation failed",
	}

	StorageUnavailableError = ServiceError{
		Type:             ServerErrorType,
		Code:             "SSE-5030",
		Error:            "storage_unavailable",
		ErrorDescription: "The storage backend is unavailable",
	}

	GenerationTimeoutError = ServiceError{
		Type:             ServerErrorType,
		Code:             "SSE-5040",
		Error:            "generation_timeout",
		ErrorDescription: "Recommendation generation timed out, retry later",
	}

	InvalidRequestError = ServiceError{
		Type:             ClientErrorType,
		Code:             "CSE-4000",
		Error:            "invalid_request",
		ErrorDescription: "The request is invalid",
	}

	ResourceNotFoundError = ServiceError{
		Type:             ClientErrorType,
		Code:             "CSE-4004",
		Error:            "resource_not_found",
		ErrorDescription: "Resource not found",
	}

	ConsentRequiredError = ServiceError{
		Type:             ClientErrorType,
		Code:             "CSE-4030",
		Error:            "consent_required",
		ErrorDescription: "Data processing consent has not been granted",
	}

	InvalidTransitionError = ServiceError{
		Type:             ClientErrorType,
		Code:             "CSE-4090",
		Error:            "invalid_transition",
		ErrorDescription: "The review is not pending",
	}

	InsufficientDataError = ServiceError{
		Type:             ClientErrorType,
		Code:             "CSE-4220",
		Error:            "insufficient_data",
		ErrorDescription: "Not enough data to generate recommendations",
	}
)

func CustomServiceError(baseError ServiceError, description string) *ServiceError {
	return &ServiceError{
		Type:             baseError.Type,
		Code:             baseError.Code,
		Error:            baseError.Error,
		ErrorDescription: description,
	}
}

// Is reports whether err was derived from base.
func (e *ServiceError) Is(base ServiceError) bool {
	return e != nil && e.Code == base.Code
}

// IsRetryable reports whether the caller may retry the same request later.
func (e *ServiceError) IsRetryable() bool {
	return e.Is(GenerationTimeoutError) || e.Is(StorageUnavailableError)
}
