package recipe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
)

func TestClassifyError_StatusError(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{429, ErrorClassRateLimit},
		{402, ErrorClassCreditExhausted},
		{500, ErrorClassServerError},
		{503, ErrorClassServerError},
		{400, ErrorClassClientError},
		{401, ErrorClassClientError},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			err := fmt.Errorf("wrapped: %w", &StatusError{Provider: "OpenAI", StatusCode: tt.status})
			if got := ClassifyError(err, "openai").Type; got != tt.want {
				t.Errorf("ClassifyError(status %d) = %s, want %s", tt.status, got, tt.want)
			}
		})
	}
}

func TestClassifyError_Messages(t *testing.T) {
	tests := []struct {
		msg  string
		want string
	}{
		{"API error: status 429", ErrorClassRateLimit},
		{"Rate Limit Error", ErrorClassRateLimit},
		{"insufficient credits", ErrorClassCreditExhausted},
		{"billing issue", ErrorClassCreditExhausted},
		{"HTTP 503", ErrorClassServerError},
		{"Internal Server Error", ErrorClassServerError},
		{"bad request", ErrorClassClientError},
		{"Unauthorized", ErrorClassClientError},
		{"read: connection reset by peer", ErrorClassNetwork},
		{"something weird", ErrorClassUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			providerErr := ClassifyError(errors.New(tt.msg), "groq")
			if providerErr.Type != tt.want {
				t.Errorf("Expected %s for '%s', got %s", tt.want, tt.msg, providerErr.Type)
			}
			if providerErr.Provider != "groq" {
				t.Errorf("Expected provider 'groq', got %s", providerErr.Provider)
			}
		})
	}
}

func TestClassifyError_TypedErrors(t *testing.T) {
	if got := ClassifyError(fmt.Errorf("%w: eof", ErrMalformedResponse), "x").Type; got != ErrorClassMalformed {
		t.Errorf("expected malformed, got %s", got)
	}
	if got := ClassifyError(context.Canceled, "x").Type; got != ErrorClassCanceled {
		t.Errorf("expected canceled, got %s", got)
	}
	if got := ClassifyError(context.DeadlineExceeded, "x").Type; got != ErrorClassNetwork {
		t.Errorf("expected network for deadline, got %s", got)
	}
	opErr := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("refused")}
	if got := ClassifyError(opErr, "x").Type; got != ErrorClassNetwork {
		t.Errorf("expected network for net.OpError, got %s", got)
	}
}

func TestClassifyError_Nil(t *testing.T) {
	if ClassifyError(nil, "groq") != nil {
		t.Error("Expected nil for nil error")
	}
}

func TestRetryPredicates(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		fallback  bool
		transient bool
	}{
		{"nil", nil, false, false},
		{"rate limit", &StatusError{StatusCode: 429}, true, true},
		{"credit", &StatusError{StatusCode: 402}, true, false},
		{"server", &StatusError{StatusCode: 502}, true, true},
		{"client", &StatusError{StatusCode: 401}, false, false},
		{"malformed", ErrMalformedResponse, false, false},
		{"canceled", context.Canceled, false, false},
		{"timeout", context.DeadlineExceeded, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryableError(tt.err); got != tt.fallback {
				t.Errorf("IsRetryableError() = %v, want %v", got, tt.fallback)
			}
			if got := IsTransientError(tt.err); got != tt.transient {
				t.Errorf("IsTransientError() = %v, want %v", got, tt.transient)
			}
		})
	}
}

func TestStatusError_Error(t *testing.T) {
	err := &StatusError{Provider: "Groq", StatusCode: 503, Body: "overloaded"}
	if err.Error() != "Groq API error (status 503): overloaded" {
		t.Errorf("unexpected message %q", err.Error())
	}
}
