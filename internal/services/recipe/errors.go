package recipe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// ErrMalformedResponse means the service answered 2xx with a body that is
// not a chat completion envelope.
var ErrMalformedResponse = errors.New("malformed completion response")

// StatusError is a non-success HTTP answer from a provider.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.StatusCode, e.Body)
}

// Error classes reported by ClassifyError.
const (
	ErrorClassRateLimit       = "rate_limit"
	ErrorClassCreditExhausted = "credit_exhausted"
	ErrorClassServerError     = "server_error"
	ErrorClassClientError     = "client_error"
	ErrorClassNetwork         = "network"
	ErrorClassMalformed       = "malformed"
	ErrorClassCanceled        = "canceled"
	ErrorClassUnknown         = "unknown"
)

// ProviderError represents a classified error from an AI provider
type ProviderError struct {
	Type     string
	Message  string
	Provider string
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	return e.Message
}

// ClassifyError analyzes an error and returns a ProviderError with classification.
// Typed errors decide first; message heuristics cover errors from elsewhere.
func ClassifyError(err error, provider string) *ProviderError {
	if err == nil {
		return nil
	}
	return &ProviderError{Type: classify(err), Message: err.Error(), Provider: provider}
}

func classify(err error) string {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusTooManyRequests:
			return ErrorClassRateLimit
		case statusErr.StatusCode == http.StatusPaymentRequired:
			return ErrorClassCreditExhausted
		case statusErr.StatusCode >= 500:
			return ErrorClassServerError
		default:
			return ErrorClassClientError
		}
	}

	if errors.Is(err, ErrMalformedResponse) {
		return ErrorClassMalformed
	}
	if errors.Is(err, context.Canceled) {
		return ErrorClassCanceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorClassNetwork
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return ErrorClassNetwork
	}

	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, "status 429", "http 429", "rate limit", "too many requests"):
		return ErrorClassRateLimit
	case containsAny(msg, "status 402", "http 402", "insufficient credit", "credit exhausted", "billing"):
		return ErrorClassCreditExhausted
	case containsAny(msg, "status 5", "http 5", "server error", "internal error"):
		return ErrorClassServerError
	case containsAny(msg, "status 4", "http 4", "bad request", "unauthorized", "forbidden"):
		return ErrorClassClientError
	case containsAny(msg, "connection refused", "connection reset", "timeout", "eof"):
		return ErrorClassNetwork
	default:
		return ErrorClassUnknown
	}
}

// IsRetryableError reports whether another provider might succeed where this
// one failed.
func IsRetryableError(err error) bool {
	switch classOf(err) {
	case ErrorClassRateLimit, ErrorClassCreditExhausted, ErrorClassServerError, ErrorClassNetwork:
		return true
	default:
		return false
	}
}

// IsTransientError reports whether repeating the same call might succeed.
func IsTransientError(err error) bool {
	switch classOf(err) {
	case ErrorClassRateLimit, ErrorClassServerError, ErrorClassNetwork:
		return true
	default:
		return false
	}
}

func classOf(err error) string {
	if err == nil {
		return ""
	}
	return classify(err)
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
