package recipe

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIProvider_Complete(t *testing.T) {
	var got chatRequest
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Toast\nIngredients:\n- bread"}}]}`))
	})

	p := NewOpenAIProvider("sk-test", Options{
		BaseURL:     srv.URL + "/v1",
		MaxTokens:   500,
		Temperature: 0.7,
		HTTPClient:  srv.Client(),
	})

	text, err := p.Complete(context.Background(), "system", "Generate 3 creative recipes")
	require.NoError(t, err)
	assert.Equal(t, "Toast\nIngredients:\n- bread", text)

	assert.Equal(t, openAIDefaultModel, got.Model)
	assert.Equal(t, 500, got.MaxTokens)
	assert.Equal(t, 0.7, got.Temperature)
	assert.Nil(t, got.ResponseFormat)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "Generate 3 creative recipes", got.Messages[1].Content)
}

func TestChat_LegacyTextChoice(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"text":"Pancakes"}]}`))
	})

	p := NewGroqProvider("gsk", Options{BaseURL: srv.URL, HTTPClient: srv.Client()})
	text, err := p.Complete(context.Background(), "", "prompt")
	require.NoError(t, err)
	assert.Equal(t, "Pancakes", text)
}

func TestChat_PlainTextBody(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("Omelette\nIngredients:\n- eggs"))
	})

	p := NewCerebrasProvider("csk", Options{BaseURL: srv.URL, HTTPClient: srv.Client()})
	text, err := p.Complete(context.Background(), "", "prompt")
	require.NoError(t, err)
	assert.Equal(t, "Omelette\nIngredients:\n- eggs", text)
}

func TestChat_EnvelopeLabelledPlainText(t *testing.T) {
	bodies := map[string]string{
		"message": `{"choices":[{"message":{"content":"Toast\nIngredients:\n- bread"}}]}`,
		"text":    `{"choices":[{"text":"Toast\nIngredients:\n- bread"}]}`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/plain; charset=utf-8")
				w.Write([]byte(body))
			})

			p := NewOpenAIProvider("sk", Options{BaseURL: srv.URL, HTTPClient: srv.Client()})
			text, err := p.Complete(context.Background(), "", "prompt")
			require.NoError(t, err)
			assert.Equal(t, "Toast\nIngredients:\n- bread", text)
		})
	}
}

func TestChat_EmptyChoicesLabelledPlainText(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte(`{"choices":[]}`))
	})

	p := NewOpenAIProvider("sk", Options{BaseURL: srv.URL, HTTPClient: srv.Client()})
	_, err := p.Complete(context.Background(), "", "prompt")
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestChat_JSONMode(t *testing.T) {
	var got chatRequest
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"choices":[{"message":{"content":"{}"}}]}`))
	})

	p := NewOpenAIProvider("sk", Options{BaseURL: srv.URL, JSONMode: true, Model: "gpt-4o-mini", HTTPClient: srv.Client()})
	_, err := p.Complete(context.Background(), "sys", "user")
	require.NoError(t, err)
	require.NotNil(t, got.ResponseFormat)
	assert.Equal(t, "json_object", got.ResponseFormat.Type)
	assert.Equal(t, "gpt-4o-mini", got.Model)
}

func TestChat_StatusError(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":"overloaded"}`))
	})

	p := NewOpenAIProvider("sk", Options{BaseURL: srv.URL, HTTPClient: srv.Client()})
	_, err := p.Complete(context.Background(), "", "prompt")

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.Equal(t, "OpenAI", statusErr.Provider)
	assert.Contains(t, statusErr.Body, "overloaded")
}

func TestChat_MalformedEnvelope(t *testing.T) {
	bodies := map[string]string{
		"not json":   `<html>oops</html>`,
		"no choices": `{"choices":[]}`,
		"empty":      `{"choices":[{}]}`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(body))
			})

			p := NewOpenAIProvider("sk", Options{BaseURL: srv.URL, HTTPClient: srv.Client()})
			_, err := p.Complete(context.Background(), "", "prompt")
			assert.True(t, errors.Is(err, ErrMalformedResponse), "got %v", err)
		})
	}
}

func TestChat_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	p := NewOpenAIProvider("sk", Options{BaseURL: url})
	_, err := p.Complete(context.Background(), "", "prompt")
	require.Error(t, err)
	assert.Equal(t, ErrorClassNetwork, ClassifyError(err, "openai").Type)
}
