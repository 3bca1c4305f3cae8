package recipe

import "context"

const (
	groqBaseURL      = "https://api.groq.com/openai/v1"
	groqDefaultModel = "llama-3.3-70b-versatile"
)

// GroqProvider implements Provider for Groq's OpenAI-compatible endpoint.
type GroqProvider struct {
	chat *chatClient
}

func NewGroqProvider(apiKey string, opts Options) *GroqProvider {
	return &GroqProvider{chat: newChatClient("Groq", groqBaseURL, groqDefaultModel, apiKey, opts)}
}

func (p *GroqProvider) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return p.chat.complete(ctx, systemPrompt, userPrompt)
}
