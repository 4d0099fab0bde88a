package api

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorSeverity represents how the fetch loop reacts to an error.
type ErrorSeverity int

const (
	ErrorSeverityRetryable ErrorSeverity = iota
	ErrorSeverityFatal
)

func (s ErrorSeverity) String() string {
	if s == ErrorSeverityFatal {
		return "fatal"
	}
	return "retryable"
}

// FatalError is returned when retrying cannot succeed: rejected credentials,
// exhausted quota or balance.
type FatalError struct {
	Provider   string
	StatusCode int
	Reason     string
	Err        error
}

func (e *FatalError) Error() string {
	msg := fmt.Sprintf("%s: fatal provider error", e.Provider)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FatalError) Unwrap() error { return e.Err }

// RetryableError wraps a transient failure: transport errors, 5xx,
// malformed or empty bodies.
type RetryableError struct {
	Provider   string
	StatusCode int
	Reason     string
	Err        error
}

func (e *RetryableError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Provider, e.Reason)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RetryableError) Unwrap() error { return e.Err }

// IsFatal reports whether err (or anything it wraps) is a *FatalError.
func IsFatal(err error) bool {
	var fatal *FatalError
	return errors.As(err, &fatal)
}

// ErrorClassifier decides whether an error is worth another attempt.
type ErrorClassifier interface {
	ClassifyError(err error) ErrorSeverity
	ClassifyStatus(status int, body []byte) ErrorSeverity
}

// ProviderErrorClassifier is the default classifier shared by all adapters.
type ProviderErrorClassifier struct{}

// NewProviderErrorClassifier creates the default classifier.
func NewProviderErrorClassifier() ErrorClassifier {
	return &ProviderErrorClassifier{}
}

// ClassifyError classifies error by severity level
func (c *ProviderErrorClassifier) ClassifyError(err error) ErrorSeverity {
	if err == nil {
		return ErrorSeverityRetryable
	}
	if IsFatal(err) {
		return ErrorSeverityFatal
	}
	// A cancelled run cannot make progress.
	if errors.Is(err, context.Canceled) {
		return ErrorSeverityFatal
	}
	return ErrorSeverityRetryable
}

// ClassifyStatus maps non-2xx status codes. Auth and quota statuses are
// fatal; everything else, including 429 and 5xx, is retried.
func (c *ProviderErrorClassifier) ClassifyStatus(status int, body []byte) ErrorSeverity {
	switch status {
	case 401, 403:
		return ErrorSeverityFatal
	case 402:
		return ErrorSeverityFatal
	case 456: // DeepL: quota exceeded
		return ErrorSeverityFatal
	}

	lower := strings.ToLower(string(body))
	if strings.Contains(lower, "insufficient funds") || strings.Contains(lower, "quota exceeded") {
		return ErrorSeverityFatal
	}
	return ErrorSeverityRetryable
}
