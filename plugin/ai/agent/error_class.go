package agent

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// ErrorClass represents the category of a collaborator error.
// Case creation is at-most-once, so the class only selects the reply; nothing is retried.
type ErrorClass int

const (
	// ErrorClassTransient indicates a temporary failure; the user may resubmit.
	// Examples: network timeout, temporary service unavailability
	ErrorClassTransient ErrorClass = iota

	// ErrorClassPermanent indicates the request itself is wrong.
	// Examples: validation failures, unknown program
	ErrorClassPermanent

	// ErrorClassConflict indicates the case already exists.
	// Examples: duplicate case number
	ErrorClassConflict
)

// String returns the string representation of ErrorClass.
func (e ErrorClass) String() string {
	switch e {
	case ErrorClassTransient:
		return "transient"
	case ErrorClassPermanent:
		return "permanent"
	case ErrorClassConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// ClassifiedError wraps an error with its classification.
type ClassifiedError struct {
	Class    ErrorClass
	Original error
}

// Error returns a formatted error message.
func (c *ClassifiedError) Error() string {
	if c.Original == nil {
		return fmt.Sprintf("classified error: class=%s", c.Class)
	}
	return fmt.Sprintf("%s: %v", c.Class, c.Original)
}

// Unwrap returns the original error for errors.Is/As.
func (c *ClassifiedError) Unwrap() error {
	return c.Original
}

// IsTransient returns true if the error is temporary.
func (c *ClassifiedError) IsTransient() bool {
	return c != nil && c.Class == ErrorClassTransient
}

// IsPermanent returns true if the request itself was rejected.
func (c *ClassifiedError) IsPermanent() bool {
	return c != nil && c.Class == ErrorClassPermanent
}

// IsConflict returns true if the error is a conflict.
func (c *ClassifiedError) IsConflict() bool {
	return c != nil && c.Class == ErrorClassConflict
}

// ClassifyError analyzes an error and determines its class.
func ClassifyError(err error) *ClassifiedError {
	if err == nil {
		return nil
	}

	// 1. Known sentinels first
	if errors.Is(err, ErrInvalidInput) {
		return &ClassifiedError{Class: ErrorClassPermanent, Original: err}
	}
	if errors.Is(err, ErrServiceUnavailable) || errors.Is(err, context.DeadlineExceeded) {
		return &ClassifiedError{Class: ErrorClassTransient, Original: err}
	}

	// 2. Unique constraint violations from sqlite or postgres
	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "unique constraint") || strings.Contains(errMsg, "duplicate key") {
		return &ClassifiedError{Class: ErrorClassConflict, Original: err}
	}

	// 3. Network and timeout errors (transient)
	if isNetworkError(err) || isTimeoutError(errMsg) {
		return &ClassifiedError{Class: ErrorClassTransient, Original: err}
	}

	// Default to permanent for unknown errors (fail safe)
	return &ClassifiedError{Class: ErrorClassPermanent, Original: err}
}

// isNetworkError checks if an error is network-related (transient).
func isNetworkError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	errMsg := strings.ToLower(err.Error())
	networkPatterns := []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"network is unreachable",
		"no such host",
		"temporary failure",
		"dial tcp",
		"database is locked",
	}
	for _, pattern := range networkPatterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}
	return false
}

// isTimeoutError checks if an error message is timeout-related (transient).
func isTimeoutError(errMsg string) bool {
	timeoutPatterns := []string{
		"timeout",
		"deadline exceeded",
		"operation timed out",
	}
	for _, pattern := range timeoutPatterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}
	return false
}
