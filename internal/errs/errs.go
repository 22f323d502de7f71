package errs

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"
)

// Error classes shared by every pipeline stage. Callers test with errors.Is.
var (
	ErrConfig      = errors.New("configuration error")
	ErrProvider    = errors.New("provider rejected request")
	ErrRateLimited = errors.New("rate limited")
	ErrEmptyResult = errors.New("empty result")
	ErrUpstream    = errors.New("upstream error")
	ErrNotFound    = errors.New("not found")
	ErrValidation  = errors.New("validation failed")
	ErrPersistence = errors.New("persistence failed")
)

// ProviderFailure carries the details of a failed call to an external service.
// It unwraps to one of the error classes above.
type ProviderFailure struct {
	Provider   string
	StatusCode int
	Message    string
	Kind       error
}

func (e *ProviderFailure) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: %v (status %d): %s", e.Provider, e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %v: %s", e.Provider, e.Kind, e.Message)
}

func (e *ProviderFailure) Unwrap() error {
	return e.Kind
}

// Config returns an ErrConfig-classed error.
func Config(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConfig, fmt.Sprintf(format, args...))
}

// Validation returns an ErrValidation-classed error.
func Validation(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// FromStatus classifies a non-2xx HTTP response from a provider.
func FromStatus(provider string, status int, body string) error {
	kind := ErrUpstream
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = ErrProvider
	case status == http.StatusTooManyRequests:
		kind = ErrRateLimited
	case mentionsRateLimit(body):
		kind = ErrRateLimited
	}
	return &ProviderFailure{
		Provider:   provider,
		StatusCode: status,
		Message:    truncate(strings.TrimSpace(body), 300),
		Kind:       kind,
	}
}

// FromMessage classifies a provider error that only surfaces as text.
func FromMessage(provider, msg string) error {
	kind := ErrUpstream
	lower := strings.ToLower(msg)
	switch {
	case mentionsRateLimit(msg):
		kind = ErrRateLimited
	case strings.Contains(lower, "invalid api key"),
		strings.Contains(lower, "unauthorized"),
		strings.Contains(lower, "forbidden"),
		strings.Contains(lower, "permission denied"),
		strings.Contains(lower, "401"),
		strings.Contains(lower, "403"):
		kind = ErrProvider
	}
	return &ProviderFailure{Provider: provider, Message: truncate(msg, 300), Kind: kind}
}

// Retryable reports whether a stage may try the call again.
func Retryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrEmptyResult)
}

func mentionsRateLimit(msg string) bool {
	lower := strings.ToLower(msg)
	for _, marker := range []string{"429", "rate limit", "rate_limit", "too many requests", "quota", "resource_exhausted", "run out of searches"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// truncate keeps the first n runes of s.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
