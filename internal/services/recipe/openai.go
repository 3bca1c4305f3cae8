package recipe

import "context"

const (
	openAIBaseURL      = "https://api.openai.com/v1"
	openAIDefaultModel = "gpt-3.5-turbo"
)

// OpenAIProvider implements Provider for the OpenAI chat completions API.
type OpenAIProvider struct {
	chat *chatClient
}

func NewOpenAIProvider(apiKey string, opts Options) *OpenAIProvider {
	return &OpenAIProvider{chat: newChatClient("OpenAI", openAIBaseURL, openAIDefaultModel, apiKey, opts)}
}

func (p *OpenAIProvider) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return p.chat.complete(ctx, systemPrompt, userPrompt)
}
