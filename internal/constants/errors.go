package constants

import "net/http"

// APIError represents a standardized API error with code, message, and HTTP status.
// Use these predefined errors for consistent API responses across the application.
type APIError struct {
	Code    string
	Message string
	Status  int
}

// WithMessage returns a copy of the APIError with a custom message.
// Useful for validation errors or other dynamic messages.
func (e APIError) WithMessage(message string) APIError {
	return APIError{
		Code:    e.Code,
		Message: message,
		Status:  e.Status,
	}
}

// Common errors - shared across multiple modules
var (
	ErrInvalidRequestBody = APIError{
		Code:    CodeInvalidRequest,
		Message: MsgInvalidRequestBody,
		Status:  http.StatusBadRequest,
	}
	ErrInternalError = APIError{
		Code:    CodeInternalError,
		Message: MsgInternalError,
		Status:  http.StatusInternalServerError,
	}
	ErrUnauthorized = APIError{
		Code:    CodeUnauthorized,
		Message: MsgUnauthorized,
		Status:  http.StatusUnauthorized,
	}
	ErrForbidden = APIError{
		Code:    CodeForbidden,
		Message: MsgForbidden,
		Status:  http.StatusForbidden,
	}
	ErrRateLimited = APIError{
		Code:    CodeRateLimited,
		Message: MsgRateLimited,
		Status:  http.StatusTooManyRequests,
	}
)

// Shortener-specific errors
var (
	ErrInvalidURL = APIError{
		Code:    CodeInvalidURL,
		Message: MsgInvalidURL,
		Status:  http.StatusBadRequest,
	}
	ErrInvalidKey = APIError{
		Code:    CodeInvalidKey,
		Message: MsgInvalidKey,
		Status:  http.StatusBadRequest,
	}
	ErrKeyTaken = APIError{
		Code:    CodeKeyTaken,
		Message: MsgKeyTaken,
		Status:  http.StatusConflict,
	}
	ErrKeyExhausted = APIError{
		Code:    CodeKeyExhausted,
		Message: MsgKeyExhausted,
		Status:  http.StatusServiceUnavailable,
	}
	ErrInvalidExpiry = APIError{
		Code:    CodeInvalidExpiry,
		Message: MsgInvalidExpiry,
		Status:  http.StatusBadRequest,
	}
	ErrInvalidRange = APIError{
		Code:    CodeInvalidRange,
		Message: MsgInvalidRange,
		Status:  http.StatusBadRequest,
	}
	ErrLinkExpired = APIError{
		Code:    CodeLinkExpired,
		Message: MsgLinkExpired,
		Status:  http.StatusGone,
	}
	ErrLinkNotFound = APIError{
		Code:    CodeLinkNotFound,
		Message: MsgLinkNotFound,
		Status:  http.StatusNotFound,
	}
)

// Account errors
var (
	ErrUsernameTaken = APIError{
		Code:    CodeUsernameTaken,
		Message: MsgUsernameTaken,
		Status:  http.StatusConflict,
	}
	ErrInvalidCredentials = APIError{
		Code:    CodeInvalidCredentials,
		Message: MsgInvalidCredentials,
		Status:  http.StatusUnauthorized,
	}
)
