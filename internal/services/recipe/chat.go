package recipe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/socialchef/larder/internal/httpclient"
	"github.com/socialchef/larder/internal/metrics"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// maxErrorBody caps how much of a failed response is kept on StatusError.
const maxErrorBody = 2048

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message *struct {
			Content string `json:"content"`
		} `json:"message"`
		Text *string `json:"text"`
	} `json:"choices"`
}

// chatClient speaks the OpenAI-compatible chat completions protocol shared by
// every supported provider.
type chatClient struct {
	name        string
	endpoint    string
	apiKey      string
	model       string
	maxTokens   int
	temperature float64
	jsonMode    bool
	client      *http.Client
}

func newChatClient(name, defaultBaseURL, defaultModel, apiKey string, opts Options) *chatClient {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := opts.Model
	if model == "" {
		model = defaultModel
	}
	client := opts.HTTPClient
	if client == nil {
		client = httpclient.InstrumentedClient
	}
	return &chatClient{
		name:        name,
		endpoint:    strings.TrimRight(baseURL, "/") + "/chat/completions",
		apiKey:      apiKey,
		model:       model,
		maxTokens:   opts.MaxTokens,
		temperature: opts.Temperature,
		jsonMode:    opts.JSONMode,
		client:      client,
	}
}

func (c *chatClient) complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	startTime := time.Now()
	outcome := "success"
	defer func() {
		duration := time.Since(startTime).Seconds()
		attrs := metric.WithAttributes(
			attribute.String("provider", c.name),
			attribute.String("outcome", outcome),
		)
		metrics.ExternalAPIDuration.Record(ctx, duration, attrs)
		metrics.ExternalAPICallsTotal.Add(ctx, 1, attrs)
	}()

	req := chatRequest{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}
	if systemPrompt != "" {
		req.Messages = append(req.Messages, chatMessage{Role: "system", Content: systemPrompt})
	}
	req.Messages = append(req.Messages, chatMessage{Role: "user", Content: userPrompt})
	if c.jsonMode {
		req.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	body, err := json.Marshal(req)
	if err != nil {
		outcome = "error"
		return "", fmt.Errorf("encode %s request: %w", c.name, err)
	}

	httpReq, err := http.NewRequestWithContext(httpclient.WithProvider(ctx, c.name), http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		outcome = "error"
		return "", err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		outcome = "error"
		return "", fmt.Errorf("%s request failed: %w", c.name, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		outcome = "error"
		return "", fmt.Errorf("read %s response: %w", c.name, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		outcome = "status_error"
		if len(respBody) > maxErrorBody {
			respBody = respBody[:maxErrorBody]
		}
		return "", &StatusError{Provider: c.name, StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var chatResp chatResponse
	decodeErr := json.Unmarshal(respBody, &chatResp)
	if decodeErr != nil || chatResp.Choices == nil {
		// Some compatible servers answer with bare completion text.
		if mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type")); mediaType == "text/plain" {
			return string(respBody), nil
		}
	}
	if decodeErr != nil {
		outcome = "malformed"
		return "", fmt.Errorf("%w from %s: %v", ErrMalformedResponse, c.name, decodeErr)
	}
	if len(chatResp.Choices) == 0 {
		outcome = "malformed"
		return "", fmt.Errorf("%w from %s: no choices", ErrMalformedResponse, c.name)
	}

	choice := chatResp.Choices[0]
	switch {
	case choice.Message != nil:
		return choice.Message.Content, nil
	case choice.Text != nil:
		return *choice.Text, nil
	default:
		outcome = "malformed"
		return "", fmt.Errorf("%w from %s: choice has no content", ErrMalformedResponse, c.name)
	}
}
