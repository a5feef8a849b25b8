package api

import (
	"errors"
	"fmt"
)

// APIError is a request the server received and rejected. Network-level
// failures (timeouts, refused connections) are returned as plain wrapped
// errors and answer false to both IsAuthError and AsAPIError.
type APIError struct {
	Status  int
	Code    ErrCode
	Message string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: %s (%s)", e.Message, e.Code)
	}
	return fmt.Sprintf("api: status %d (%s)", e.Status, e.Code)
}

// AsAPIError unwraps err into an *APIError if it is one.
func AsAPIError(err error) (*APIError, bool) {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// IsAuthError reports whether err means the session token is missing,
// invalid, expired, or revoked. The caller should re-authenticate rather
// than retry.
func IsAuthError(err error) bool {
	ae, ok := AsAPIError(err)
	if !ok {
		return false
	}
	switch ae.Code {
	case ErrTokenRequired, ErrTokenInvalid, ErrTokenExpired, ErrSessionInvalidated:
		return true
	}
	return ae.Status == 401
}
