package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// ErrorClass represents the category of an upstream LLM error for retry
// decisions.
type ErrorClass int

const (
	// ErrorClassTransient errors are likely to succeed on retry.
	// Examples: rate limiting, server-side 5xx, timeout, connection reset.
	ErrorClassTransient ErrorClass = iota

	// ErrorClassTerminal errors will not succeed on retry.
	// Examples: invalid API key, forbidden model, malformed request.
	ErrorClassTerminal
)

// String returns the string representation of ErrorClass.
func (e ErrorClass) String() string {
	switch e {
	case ErrorClassTransient:
		return "transient"
	case ErrorClassTerminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// ClassifiedError wraps an upstream error with its classification and retry
// guidance.
type ClassifiedError struct {
	Original   error
	Class      ErrorClass
	RetryAfter time.Duration
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

// IsTransient returns true if the error is temporary and should be retried.
func (c *ClassifiedError) IsTransient() bool {
	return c.Class == ErrorClassTransient
}

// ClassifyError analyzes an upstream error and determines whether a retry is
// worthwhile. Unknown errors default to terminal so a misbehaving upstream
// never traps a request in the retry loop.
func ClassifyError(err error) *ClassifiedError {
	if err == nil {
		return nil
	}

	// API errors carry an HTTP status code from the provider.
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == http.StatusTooManyRequests:
			return &ClassifiedError{Original: err, Class: ErrorClassTransient, RetryAfter: 2 * time.Second}
		case apiErr.HTTPStatusCode >= 500:
			return &ClassifiedError{Original: err, Class: ErrorClassTransient, RetryAfter: time.Second}
		case apiErr.HTTPStatusCode == http.StatusUnauthorized || apiErr.HTTPStatusCode == http.StatusForbidden:
			return &ClassifiedError{Original: err, Class: ErrorClassTerminal}
		case apiErr.HTTPStatusCode >= 400:
			return &ClassifiedError{Original: err, Class: ErrorClassTerminal}
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &ClassifiedError{Original: err, Class: ErrorClassTransient, RetryAfter: 3 * time.Second}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return &ClassifiedError{Original: err, Class: ErrorClassTransient, RetryAfter: 2 * time.Second}
	}

	msg := strings.ToLower(err.Error())

	transientPatterns := []string{
		"rate limit",
		"too many requests",
		"timeout",
		"timed out",
		"connection reset",
		"connection refused",
		"broken pipe",
		"no such host",
		"temporary failure",
		"service unavailable",
		"server error",
		"eof",
	}
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return &ClassifiedError{Original: err, Class: ErrorClassTransient, RetryAfter: 2 * time.Second}
		}
	}

	terminalPatterns := []string{
		"invalid api key",
		"incorrect api key",
		"unauthorized",
		"forbidden",
		"model not found",
		"invalid request",
	}
	for _, p := range terminalPatterns {
		if strings.Contains(msg, p) {
			return &ClassifiedError{Original: err, Class: ErrorClassTerminal}
		}
	}

	return &ClassifiedError{Original: err, Class: ErrorClassTerminal}
}
