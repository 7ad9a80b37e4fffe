package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// ERROR TAXONOMY
// =============================================================================
// Every failure from the completion service is classified into a fixed set
// of kinds. The kind decides whether the retry layer backs off and tries
// again or propagates immediately.

// ErrorKind identifies the class of a completion-service failure.
type ErrorKind string

const (
	KindTimeout            ErrorKind = "TIMEOUT"
	KindRateLimit          ErrorKind = "RATE_LIMIT"
	KindQuotaExceeded      ErrorKind = "QUOTA_EXCEEDED"
	KindInvalidCredential  ErrorKind = "INVALID_CREDENTIAL"
	KindServiceUnavailable ErrorKind = "SERVICE_UNAVAILABLE"
	KindInvalidRequest     ErrorKind = "INVALID_REQUEST"
	KindUnknown            ErrorKind = "UNKNOWN"
)

// Retryable reports whether failures of this kind are worth retrying.
func (k ErrorKind) Retryable() bool {
	switch k {
	case KindTimeout, KindRateLimit, KindServiceUnavailable, KindUnknown:
		return true
	}
	return false
}

// AIError is a classified completion-service failure.
type AIError struct {
	Kind      ErrorKind
	Retryable bool
	Message   string
	Err       error // underlying cause, may be nil
}

// Error implements the error interface.
func (e *AIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause.
func (e *AIError) Unwrap() error {
	return e.Err
}

// NewAIError constructs a classified error of the given kind.
func NewAIError(kind ErrorKind, message string, cause error) *AIError {
	return &AIError{
		Kind:      kind,
		Retryable: kind.Retryable(),
		Message:   message,
		Err:       cause,
	}
}

// kindMatchers maps error-text fragments to kinds. Checked in order; the
// first match wins, so the more specific fragments come first.
var kindMatchers = []struct {
	kind      ErrorKind
	fragments []string
}{
	{KindQuotaExceeded, []string{"quota", "insufficient credit", "billing"}},
	{KindRateLimit, []string{"429", "rate limit", "rate_limit", "too many requests"}},
	{KindInvalidCredential, []string{"401", "403", "unauthorized", "invalid api key", "invalid_api_key", "forbidden", "authentication"}},
	{KindTimeout, []string{"timeout", "timed out", "deadline exceeded", "context deadline"}},
	{KindServiceUnavailable, []string{"503", "502", "unavailable", "overloaded", "network", "connection refused", "connection reset", "no such host", "eof"}},
	{KindInvalidRequest, []string{"400", "invalid request", "invalid_request", "bad request", "malformed"}},
}

// ClassifyError turns a raw failure into an AIError by matching substrings
// of its message against the taxonomy. Already-classified errors pass
// through unchanged; context cancellation/deadline maps to TIMEOUT.
func ClassifyError(err error) *AIError {
	if err == nil {
		return nil
	}

	var aiErr *AIError
	if errors.As(err, &aiErr) {
		return aiErr
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewAIError(KindTimeout, "operation timed out", err)
	}

	msg := strings.ToLower(err.Error())
	for _, m := range kindMatchers {
		for _, frag := range m.fragments {
			if strings.Contains(msg, frag) {
				return NewAIError(m.kind, err.Error(), err)
			}
		}
	}

	return NewAIError(KindUnknown, err.Error(), err)
}

// ClassifyStatus maps an HTTP status code (plus response body text) to an
// AIError. Used by HTTP-backed clients so the retry layer sees typed
// failures instead of raw status strings.
func ClassifyStatus(status int, body string) *AIError {
	msg := fmt.Sprintf("status %d: %s", status, truncate(body, 200))
	lower := strings.ToLower(body)

	switch {
	case status == 429:
		if strings.Contains(lower, "quota") || strings.Contains(lower, "billing") {
			return NewAIError(KindQuotaExceeded, msg, nil)
		}
		return NewAIError(KindRateLimit, msg, nil)
	case status == 401 || status == 403:
		return NewAIError(KindInvalidCredential, msg, nil)
	case status == 400 || status == 404 || status == 422:
		return NewAIError(KindInvalidRequest, msg, nil)
	case status == 408 || status == 504:
		return NewAIError(KindTimeout, msg, nil)
	case status >= 500:
		return NewAIError(KindServiceUnavailable, msg, nil)
	default:
		return NewAIError(KindUnknown, msg, nil)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
