package recipe

import "context"

const (
	cerebrasBaseURL      = "https://api.cerebras.ai/v1"
	cerebrasDefaultModel = "gpt-oss-120b"
)

// CerebrasProvider implements Provider for the Cerebras inference API.
type CerebrasProvider struct {
	chat *chatClient
}

func NewCerebrasProvider(apiKey string, opts Options) *CerebrasProvider {
	return &CerebrasProvider{chat: newChatClient("Cerebras", cerebrasBaseURL, cerebrasDefaultModel, apiKey, opts)}
}

func (p *CerebrasProvider) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return p.chat.complete(ctx, systemPrompt, userPrompt)
}
