// Package errors maps dispatch and session failures onto stable API error codes.
package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/hrygo/ghiseu/plugin/ai/agent"
)

// ErrorCode represents a specific error type returned by the API.
type ErrorCode string

const (
	// ErrCodeRateLimitExceeded indicates rate limit has been exceeded.
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
	// ErrCodeInvalidArgument indicates invalid input parameters.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrCodeNotFound indicates the session or resource does not exist.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeServiceUnavailable indicates the service is not available.
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	// ErrCodeAgentExecutionFailed indicates an agent failed during a turn.
	ErrCodeAgentExecutionFailed ErrorCode = "AGENT_EXECUTION_FAILED"
	// ErrCodeAgentNotFound indicates a turn was routed to an unregistered agent.
	ErrCodeAgentNotFound ErrorCode = "AGENT_NOT_FOUND"
	// ErrCodeHopLimitExceeded indicates a turn never settled.
	ErrCodeHopLimitExceeded ErrorCode = "HOP_LIMIT_EXCEEDED"
	// ErrCodeSessionBusy indicates another turn of the same session is running.
	ErrCodeSessionBusy ErrorCode = "SESSION_BUSY"
	// ErrCodeCaseCreationFailed indicates the case service rejected a submission.
	ErrCodeCaseCreationFailed ErrorCode = "CASE_CREATION_FAILED"
	// ErrCodeLLMUnavailable indicates the LLM service is not available.
	ErrCodeLLMUnavailable ErrorCode = "LLM_UNAVAILABLE"
	// ErrCodeContextCanceled indicates the operation was canceled.
	ErrCodeContextCanceled ErrorCode = "CONTEXT_CANCELED"
	// ErrCodeTimeout indicates the operation timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeInternal is anything unclassified.
	ErrCodeInternal ErrorCode = "INTERNAL"
)

// AIError represents a structured API error.
type AIError struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Cause   error          `json:"-"`
	Context map[string]any `json:"context,omitempty"`
}

// Error implements the error interface.
func (e *AIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *AIError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error.
func (e *AIError) WithContext(key string, value any) *AIError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// HTTPStatus returns the status code the API answers with.
func (e *AIError) HTTPStatus() int {
	switch e.Code {
	case ErrCodeInvalidArgument:
		return http.StatusBadRequest
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeRateLimitExceeded:
		return http.StatusTooManyRequests
	case ErrCodeSessionBusy:
		return http.StatusConflict
	case ErrCodeServiceUnavailable, ErrCodeLLMUnavailable:
		return http.StatusServiceUnavailable
	case ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case ErrCodeContextCanceled:
		return 499
	case ErrCodeCaseCreationFailed:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Convenience constructors for common error types.

// RateLimitExceeded creates a rate limit exceeded error.
func RateLimitExceeded(msg string) *AIError {
	return &AIError{Code: ErrCodeRateLimitExceeded, Message: msg}
}

// InvalidArgument creates an invalid argument error.
func InvalidArgument(msg string) *AIError {
	return &AIError{Code: ErrCodeInvalidArgument, Message: msg}
}

// NotFound creates a not found error.
func NotFound(msg string) *AIError {
	return &AIError{Code: ErrCodeNotFound, Message: msg}
}

// ServiceUnavailable creates a service unavailable error.
func ServiceUnavailable(msg string) *AIError {
	return &AIError{Code: ErrCodeServiceUnavailable, Message: msg}
}

// LLMUnavailable creates an LLM unavailable error.
func LLMUnavailable(msg string) *AIError {
	return &AIError{Code: ErrCodeLLMUnavailable, Message: msg}
}

// Timeout creates a timeout error.
func Timeout(msg string) *AIError {
	return &AIError{Code: ErrCodeTimeout, Message: msg}
}

// Wrap wraps an existing error with additional context.
func Wrap(cause error, code ErrorCode, msg string) *AIError {
	return &AIError{Code: code, Message: msg, Cause: cause}
}

// IsCode checks if an error is of a specific code.
func IsCode(err error, code ErrorCode) bool {
	var aiErr *AIError
	if stderrors.As(err, &aiErr) {
		return aiErr.Code == code
	}
	return false
}

// GetCodeFromError extracts the error code from any error.
// Returns the provided default code if the error is not an AIError.
func GetCodeFromError(err error, defaultCode ErrorCode) ErrorCode {
	var aiErr *AIError
	if stderrors.As(err, &aiErr) {
		return aiErr.Code
	}
	return defaultCode
}

// FromError classifies any error returned by the turn service.
// AIErrors pass through unchanged.
func FromError(err error) *AIError {
	if err == nil {
		return nil
	}
	var aiErr *AIError
	if stderrors.As(err, &aiErr) {
		return aiErr
	}

	switch {
	case stderrors.Is(err, agent.ErrSessionBusy):
		return Wrap(err, ErrCodeSessionBusy, "another message of this session is being processed")
	case stderrors.Is(err, agent.ErrHopLimitExceeded):
		return Wrap(err, ErrCodeHopLimitExceeded, "turn exceeded the hop limit")
	case stderrors.Is(err, agent.ErrUnknownAgent):
		return Wrap(err, ErrCodeAgentNotFound, "turn routed to an unknown agent")
	case stderrors.Is(err, agent.ErrAgentFailed):
		return Wrap(err, ErrCodeAgentExecutionFailed, "agent execution failed")
	case stderrors.Is(err, agent.ErrCaseCreation):
		return Wrap(err, ErrCodeCaseCreationFailed, "case creation failed")
	case stderrors.Is(err, agent.ErrInvalidInput):
		return Wrap(err, ErrCodeInvalidArgument, "invalid input")
	case stderrors.Is(err, agent.ErrServiceUnavailable):
		return Wrap(err, ErrCodeServiceUnavailable, "service unavailable")
	case stderrors.Is(err, context.DeadlineExceeded):
		return Wrap(err, ErrCodeTimeout, "operation timed out")
	case stderrors.Is(err, context.Canceled):
		return Wrap(err, ErrCodeContextCanceled, "operation canceled")
	default:
		return Wrap(err, ErrCodeInternal, "internal error")
	}
}
