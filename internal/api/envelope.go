package api

import "encoding/json"

// ErrCode is the backend's typed error code enum.
type ErrCode string

const (
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrSessionActive      ErrCode = "SESSION_ALREADY_ACTIVE"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrTokenExpired       ErrCode = "TOKEN_EXPIRED"
	ErrForbidden          ErrCode = "FORBIDDEN"
	ErrValidation         ErrCode = "VALIDATION_ERROR"
	ErrNotFound           ErrCode = "NOT_FOUND"
	ErrExamNotAvailable   ErrCode = "EXAM_NOT_AVAILABLE"
	ErrAttemptCompleted   ErrCode = "ATTEMPT_COMPLETED"
	ErrRateLimitExceeded  ErrCode = "RATE_LIMIT_EXCEEDED"
	ErrInternal           ErrCode = "INTERNAL_ERROR"
)

// Envelope is the backend's standardized response wrapper.
type Envelope struct {
	Data       json.RawMessage `json:"data"`
	Error      *ErrorBody      `json:"error,omitempty"`
	Pagination *Pagination     `json:"pagination,omitempty"`
}

// ErrorBody is the structured error half of the envelope.
type ErrorBody struct {
	Code    ErrCode           `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Pagination mirrors the backend's pagination block on list endpoints.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}
