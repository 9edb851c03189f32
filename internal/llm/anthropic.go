package llm

import (
	"context"
	"errors"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// defaultAnthropicMaxTokens is sent when no limit is configured;
// the Messages API requires max_tokens.
const defaultAnthropicMaxTokens = 4096

// AnthropicProvider generates text with the Anthropic Messages API.
type AnthropicProvider struct {
	client anthropic.Client
	cfg    ModelConfig
}

// NewAnthropic creates an Anthropic provider for cfg.
func NewAnthropic(cfg ModelConfig, opts ...Option) (*AnthropicProvider, error) {
	if err := checkCredentials(KindAnthropic, cfg); err != nil {
		return nil, err
	}
	o := newClientOptions(opts)

	reqOpts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(o.httpClient),
	}
	if o.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(o.baseURL))
	}

	return &AnthropicProvider{
		client: anthropic.NewClient(reqOpts...),
		cfg:    cfg,
	}, nil
}

// Kind returns KindAnthropic.
func (p *AnthropicProvider) Kind() Kind { return KindAnthropic }

// Model returns the configured model name.
func (p *AnthropicProvider) Model() string { return p.cfg.Name }

// Generate sends prompt as a single user message.
func (p *AnthropicProvider) Generate(ctx context.Context, prompt string, opts ...GenerateOption) (string, error) {
	req := newRequest(p.cfg, prompt, opts)

	maxTokens := req.maxTokens
	if maxTokens == 0 {
		maxTokens = defaultAnthropicMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.cfg.Name),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.prompt)),
		},
		Temperature: anthropic.Float(req.temperature),
	}
	// System instruction is a top-level field, not a message
	if req.system != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.system}}
	}

	response, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", &ProviderError{Kind: KindAnthropic, Model: p.cfg.Name, Err: err}
	}

	var responseText string
	var sawText bool
	for _, block := range response.Content {
		if block.Type == "text" {
			responseText += block.Text
			sawText = true
		}
	}
	if !sawText {
		return "", &ProviderError{Kind: KindAnthropic, Model: p.cfg.Name, Err: errors.New("response contained no text content")}
	}
	return responseText, nil
}
