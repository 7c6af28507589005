package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Error represents an error response from the ingestion service with the
// HTTP status code and the server's error message.
type Error struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("ingest: %s (%d): %s", e.Code, e.StatusCode, e.Message)
}

// IsServiceError returns true if the error is an error response from the
// ingestion service, as opposed to a transport or programming error.
func IsServiceError(err error) bool {
	var e *Error
	return errors.As(err, &e)
}

// IsUnauthorized returns true if the error is a 401.
func IsUnauthorized(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.StatusCode == 401
	}
	return false
}

// IsThrottled returns true if the error is a 429 (Too Many Requests).
func IsThrottled(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.StatusCode == 429
	}
	return false
}

// errorEnvelope is the service's standard error response wrapper.
type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func parseErrorResponse(statusCode int, body []byte) *Error {
	svcErr := &Error{StatusCode: statusCode}

	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		svcErr.Code = envelope.Error.Code
		svcErr.Message = envelope.Error.Message
	} else {
		svcErr.Code = http.StatusText(statusCode)
		svcErr.Message = string(body)
	}

	return svcErr
}
