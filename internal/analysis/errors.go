package analysis

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents the type of analysis failure
type ErrorType string

const (
	// ErrTypeNetwork indicates the request never got a response
	ErrTypeNetwork ErrorType = "network"

	// ErrTypeTimeout indicates the request exceeded its deadline
	ErrTypeTimeout ErrorType = "timeout"

	// ErrTypeRateLimit indicates the server asked us to slow down
	ErrTypeRateLimit ErrorType = "rate_limit"

	// ErrTypeStatus indicates a non-success HTTP status
	ErrTypeStatus ErrorType = "status"

	// ErrTypeDecode indicates an unreadable response body
	ErrTypeDecode ErrorType = "decode"

	// ErrTypeInternal indicates a failure building the request
	ErrTypeInternal ErrorType = "internal"
)

// TransportError represents a failed analysis request
type TransportError struct {
	// Type categorizes the error
	Type ErrorType `json:"type"`

	// Message provides human-readable error description
	Message string `json:"message"`

	// StatusCode for HTTP-related errors
	StatusCode int `json:"status_code,omitempty"`

	// Detail is the server's own explanation, when it sent one
	Detail string `json:"detail,omitempty"`

	// Underlying error that caused this error
	Cause error `json:"-"`

	// Retryable indicates if the operation can be retried
	Retryable bool `json:"retryable"`
}

// Error implements the error interface
func (e *TransportError) Error() string {
	parts := []string{fmt.Sprintf("type=%s", e.Type)}

	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.StatusCode))
	}

	parts = append(parts, e.Message)

	if e.Detail != "" {
		parts = append(parts, e.Detail)
	}
	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause=%s", e.Cause.Error()))
	}

	return strings.Join(parts, ": ")
}

// Unwrap returns the underlying error
func (e *TransportError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target error type
func (e *TransportError) Is(target error) bool {
	if te, ok := target.(*TransportError); ok {
		return e.Type == te.Type
	}
	return false
}

// Describe returns the text shown to the user for this failure
func (e *TransportError) Describe() string {
	switch {
	case e.Detail != "":
		return e.Detail
	case e.StatusCode > 0:
		return fmt.Sprintf("서버 응답 오류 (%d)", e.StatusCode)
	case e.Type == ErrTypeTimeout:
		return "서버 응답 시간이 초과되었습니다."
	default:
		return e.Message
	}
}

// NewTransportError creates a transport error
func NewTransportError(errType ErrorType, message string) *TransportError {
	return &TransportError{
		Type:      errType,
		Message:   message,
		Retryable: isRetryableError(errType),
	}
}

// NewTransportErrorWithCause creates a transport error with an underlying cause
func NewTransportErrorWithCause(errType ErrorType, message string, cause error) *TransportError {
	e := NewTransportError(errType, message)
	e.Cause = cause
	return e
}

// NewStatusError creates an error for a non-success response
func NewStatusError(status int, detail string) *TransportError {
	errType := ErrTypeStatus
	if status == 429 {
		errType = ErrTypeRateLimit
	}
	return &TransportError{
		Type:       errType,
		Message:    fmt.Sprintf("request failed with status %d", status),
		StatusCode: status,
		Detail:     detail,
		Retryable:  errType == ErrTypeRateLimit || status >= 500,
	}
}

func isRetryableError(errType ErrorType) bool {
	switch errType {
	case ErrTypeNetwork, ErrTypeTimeout, ErrTypeRateLimit:
		return true
	default:
		return false
	}
}

// IsRetryableError checks if an error is retryable
func IsRetryableError(err error) bool {
	var te *TransportError
	if errors.As(err, &te) {
		return te.Retryable
	}
	return false
}

// Describe returns the user-facing text for any analysis failure
func Describe(err error) string {
	var te *TransportError
	if errors.As(err, &te) {
		return te.Describe()
	}
	return err.Error()
}
