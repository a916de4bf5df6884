package errors

const (
	HttpInternalError        = "internal_error"
	HttpInvalidJsonError     = "invalid_json"
	HttpInvalidIntervalError = "invalid_interval"
	HttpInvalidRangeError    = "invalid_range"
	HttpUnknownNetworkError  = "unknown_network"
	HttpNoDataError          = "no_data"
)

// ErrorResponse is the error response body for API errors.
type ErrorResponse struct {
	ErrorType string      `json:"error_type"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
}
