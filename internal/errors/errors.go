package errors

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// Error codes, sent as the error_code member of a problem.
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeValidationFailed   = "VALIDATION_FAILED"
	CodeNotFound           = "NOT_FOUND"
	CodeRateLimitExceeded  = "RATE_LIMIT_EXCEEDED"
	CodeTimeout            = "REQUEST_TIMEOUT"
	CodeInternal           = "INTERNAL_SERVER_ERROR"
	CodeExportFailed       = "EXPORT_FAILED"
	CodeDatasetNotLoaded   = "DATASET_NOT_LOADED"
	CodeDatasetUnavailable = "DATASET_UNAVAILABLE"
	CodeReloadInProgress   = "RELOAD_IN_PROGRESS"
	CodeWebSocketUpgrade   = "WEBSOCKET_UPGRADE_FAILED"
)

var problemTypes = map[string]string{
	CodeInvalidRequest:     TypeValidation,
	CodeValidationFailed:   TypeValidation,
	CodeNotFound:           TypeNotFound,
	CodeRateLimitExceeded:  TypeRateLimit,
	CodeTimeout:            TypeTimeout,
	CodeInternal:           TypeInternal,
	CodeExportFailed:       TypeExportFailed,
	CodeDatasetNotLoaded:   TypeDatasetNotLoaded,
	CodeDatasetUnavailable: TypeDatasetUnavailable,
	CodeReloadInProgress:   TypeConflict,
	CodeWebSocketUpgrade:   TypeWebSocketUpgrade,
}

// APIError is an error with the HTTP status and code it is reported with.
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// ProblemType returns the problem type URI of the error code.
func (e *APIError) ProblemType() string {
	if t, ok := problemTypes[e.ErrorCode]; ok {
		return t
	}
	return TypeInternal
}

// Problem renders e as problem details for the request path instance.
func (e *APIError) Problem(instance string) *ProblemDetails {
	pd := NewProblemDetails(e.StatusCode, e.ProblemType(), http.StatusText(e.StatusCode), e.Message, instance).
		WithExtension("error_code", e.ErrorCode)
	if e.Details != nil {
		pd.WithExtension("details", e.Details)
	}
	return pd
}

// New creates an APIError.
func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{StatusCode: statusCode, ErrorCode: errorCode, Message: message}
}

// NewWithDetails creates an APIError carrying details.
func NewWithDetails(statusCode int, errorCode, message string, details interface{}) *APIError {
	return &APIError{StatusCode: statusCode, ErrorCode: errorCode, Message: message, Details: details}
}

var (
	ErrInvalidRequest    = New(http.StatusBadRequest, CodeInvalidRequest, "Invalid request format")
	ErrValidationFailed  = New(http.StatusBadRequest, CodeValidationFailed, "Request validation failed")
	ErrNotFound          = New(http.StatusNotFound, CodeNotFound, "Resource not found")
	ErrRateLimitExceeded = New(http.StatusTooManyRequests, CodeRateLimitExceeded, "Rate limit exceeded")
	ErrTimeout           = New(http.StatusGatewayTimeout, CodeTimeout, "The request took too long to process and was cancelled")
	ErrInternalServer    = New(http.StatusInternalServerError, CodeInternal, "An unexpected error occurred while processing your request")
	ErrWebSocketUpgrade  = New(http.StatusBadRequest, CodeWebSocketUpgrade, "WebSocket upgrade failed")
	ErrDatasetNotLoaded  = New(http.StatusServiceUnavailable, CodeDatasetNotLoaded, "Sales dataset is not loaded yet")
	ErrReloadInProgress  = New(http.StatusConflict, CodeReloadInProgress, "A dataset reload is already running")
)

// InvalidRequestWithError reports a request body or query that could not
// be decoded.
func InvalidRequestWithError(err error) *APIError {
	return NewWithDetails(http.StatusBadRequest, CodeInvalidRequest, "Invalid request format", err.Error())
}

// ValidationError describes one invalid request field
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrValidation creates a validation error for a single field
func ErrValidation(field, message string) *APIError {
	return NewValidationErrors([]ValidationError{{Field: field, Message: message}})
}

// NewValidationErrors creates validation errors from multiple fields
func NewValidationErrors(errs []ValidationError) *APIError {
	return NewWithDetails(http.StatusBadRequest, CodeValidationFailed, "Request validation failed", errs)
}

// FromValidator flattens validator/v10 field errors.
func FromValidator(verrs validator.ValidationErrors) []ValidationError {
	out := make([]ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		out = append(out, ValidationError{Field: fe.Field(), Message: fmt.Sprintf("failed on the '%s' rule", rule)})
	}
	return out
}

// DatasetUnavailableError reports that the dataset could not be (re)built
func DatasetUnavailableError(err error) *APIError {
	return NewWithDetails(http.StatusServiceUnavailable, CodeDatasetUnavailable, "Sales dataset could not be loaded", err.Error())
}

// ExportError reports a failed export
func ExportError(format string, err error) *APIError {
	return NewWithDetails(http.StatusInternalServerError, CodeExportFailed, fmt.Sprintf("Failed to export %s", format), err.Error())
}
