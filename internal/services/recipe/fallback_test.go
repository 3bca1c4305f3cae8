package recipe

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubProvider returns canned answers in order and counts calls.
type stubProvider struct {
	responses []string
	errs      []error
	calls     int
	prompts   []string
}

func (s *stubProvider) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	i := s.calls
	s.calls++
	s.prompts = append(s.prompts, userPrompt)
	var text string
	var err error
	if i < len(s.responses) {
		text = s.responses[i]
	}
	if i < len(s.errs) {
		err = s.errs[i]
	}
	return text, err
}

func TestFallbackProvider_PrimarySucceeds(t *testing.T) {
	primary := &stubProvider{responses: []string{"primary"}}
	secondary := &stubProvider{responses: []string{"secondary"}}

	text, err := NewFallbackProvider(primary, secondary, "openai", "groq").Complete(context.Background(), "s", "u")
	require.NoError(t, err)
	assert.Equal(t, "primary", text)
	assert.Equal(t, 0, secondary.calls)
}

func TestFallbackProvider_FallsBackOnServerError(t *testing.T) {
	primary := &stubProvider{errs: []error{&StatusError{Provider: "OpenAI", StatusCode: 500}}}
	secondary := &stubProvider{responses: []string{"secondary"}}

	text, err := NewFallbackProvider(primary, secondary, "openai", "groq").Complete(context.Background(), "s", "u")
	require.NoError(t, err)
	assert.Equal(t, "secondary", text)
	assert.Equal(t, 1, secondary.calls)
}

func TestFallbackProvider_NoFallbackOnClientError(t *testing.T) {
	clientErr := &StatusError{Provider: "OpenAI", StatusCode: 401}
	primary := &stubProvider{errs: []error{clientErr}}
	secondary := &stubProvider{responses: []string{"secondary"}}

	_, err := NewFallbackProvider(primary, secondary, "openai", "groq").Complete(context.Background(), "s", "u")
	assert.Same(t, clientErr, err)
	assert.Equal(t, 0, secondary.calls)
}

func TestFallbackProvider_BothFail(t *testing.T) {
	secondErr := &StatusError{Provider: "Groq", StatusCode: 429}
	primary := &stubProvider{errs: []error{&StatusError{Provider: "OpenAI", StatusCode: 503}}}
	secondary := &stubProvider{errs: []error{secondErr}}

	_, err := NewFallbackProvider(primary, secondary, "openai", "groq").Complete(context.Background(), "s", "u")
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, 429, statusErr.StatusCode)
}
