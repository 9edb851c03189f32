package llm

import (
	"context"
	"errors"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider generates text with the OpenAI chat completions API.
type OpenAIProvider struct {
	client *openai.Client
	cfg    ModelConfig
}

// NewOpenAI creates an OpenAI provider for cfg.
func NewOpenAI(cfg ModelConfig, opts ...Option) (*OpenAIProvider, error) {
	if err := checkCredentials(KindOpenAI, cfg); err != nil {
		return nil, err
	}
	o := newClientOptions(opts)

	config := openai.DefaultConfig(cfg.APIKey)
	config.HTTPClient = o.httpClient
	if o.baseURL != "" {
		config.BaseURL = o.baseURL
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(config),
		cfg:    cfg,
	}, nil
}

// Kind returns KindOpenAI.
func (p *OpenAIProvider) Kind() Kind { return KindOpenAI }

// Model returns the configured model name.
func (p *OpenAIProvider) Model() string { return p.cfg.Name }

// Generate sends an optional system message followed by prompt.
func (p *OpenAIProvider) Generate(ctx context.Context, prompt string, opts ...GenerateOption) (string, error) {
	req := newRequest(p.cfg, prompt, opts)

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.system != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.system,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.prompt,
	})

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.cfg.Name,
		Messages:    messages,
		Temperature: float32(req.temperature),
		MaxTokens:   req.maxTokens,
	})
	if err != nil {
		return "", &ProviderError{Kind: KindOpenAI, Model: p.cfg.Name, Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &ProviderError{Kind: KindOpenAI, Model: p.cfg.Name, Err: errors.New("response contained no choices")}
	}
	return resp.Choices[0].Message.Content, nil
}
