// Package llm provides the vendor backends used to generate replies.
package llm

import (
	"context"
	"fmt"
	"net/http"
)

// DefaultTemperature is used when a model is configured without one.
const DefaultTemperature = 0.7

// DefaultModel is used when no model is given or selected.
const DefaultModel = "gemini-2.5-flash"

// ModelConfig is the stored configuration of one model.
type ModelConfig struct {
	Name        string  `json:"-"`
	Provider    string  `json:"provider"`
	APIKey      string  `json:"api_key"`
	Temperature float64 `json:"temperature"`
	MaxTokens   *int    `json:"max_tokens"`
}

// NewModelConfig returns a config with the default temperature and no token limit.
func NewModelConfig(name, provider, apiKey string) ModelConfig {
	return ModelConfig{
		Name:        name,
		Provider:    provider,
		APIKey:      apiKey,
		Temperature: DefaultTemperature,
	}
}

// Validate checks the fields that every stored model must satisfy.
func (c ModelConfig) Validate() error {
	if c.Name == "" {
		return &ConfigurationError{Msg: "model name is required"}
	}
	if c.Temperature < 0 || c.Temperature > 1 {
		return &ConfigurationError{Model: c.Name, Msg: fmt.Sprintf("temperature %.2f is outside [0, 1]", c.Temperature)}
	}
	if c.MaxTokens != nil && *c.MaxTokens <= 0 {
		return &ConfigurationError{Model: c.Name, Msg: "max_tokens must be positive"}
	}
	return nil
}

// Provider generates text from a single vendor model.
type Provider interface {
	// Generate sends prompt to the model and returns the reply text.
	// Failures are reported as *ProviderError.
	Generate(ctx context.Context, prompt string, opts ...GenerateOption) (string, error)
	// Kind returns the vendor
	Kind() Kind
	// Model returns the configured model name
	Model() string
}

// GenerateOptions overrides the configured generation parameters for one call.
type GenerateOptions struct {
	Temperature       *float64
	MaxTokens         *int
	SystemInstruction string
}

// GenerateOption sets a field of GenerateOptions.
type GenerateOption func(*GenerateOptions)

// WithTemperature overrides the configured temperature.
func WithTemperature(t float64) GenerateOption {
	return func(o *GenerateOptions) {
		o.Temperature = &t
	}
}

// WithMaxTokens overrides the configured token limit.
func WithMaxTokens(n int) GenerateOption {
	return func(o *GenerateOptions) {
		o.MaxTokens = &n
	}
}

// WithSystemInstruction sets the system prompt sent alongside the user prompt.
func WithSystemInstruction(s string) GenerateOption {
	return func(o *GenerateOptions) {
		o.SystemInstruction = s
	}
}

// request is a fully resolved generation call.
type request struct {
	prompt      string
	system      string
	temperature float64
	maxTokens   int // 0 means the vendor default
}

func newRequest(cfg ModelConfig, prompt string, opts []GenerateOption) request {
	var o GenerateOptions
	for _, opt := range opts {
		opt(&o)
	}
	r := request{
		prompt:      prompt,
		system:      o.SystemInstruction,
		temperature: cfg.Temperature,
	}
	if cfg.MaxTokens != nil {
		r.maxTokens = *cfg.MaxTokens
	}
	if o.Temperature != nil {
		r.temperature = *o.Temperature
	}
	if o.MaxTokens != nil {
		r.maxTokens = *o.MaxTokens
	}
	return r
}

// clientOptions holds transport settings shared by all vendors.
type clientOptions struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures how a provider reaches its vendor.
type Option func(*clientOptions)

// WithBaseURL overrides the vendor API endpoint. Useful for proxies and tests.
func WithBaseURL(url string) Option {
	return func(o *clientOptions) {
		o.baseURL = url
	}
}

// WithHTTPClient overrides the HTTP client, e.g. to set a timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *clientOptions) {
		o.httpClient = hc
	}
}

func newClientOptions(opts []Option) clientOptions {
	var o clientOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{}
	}
	return o
}

// checkCredentials is the fail-fast check every vendor constructor runs.
func checkCredentials(kind Kind, cfg ModelConfig) error {
	if cfg.Name == "" {
		return &ConfigurationError{Msg: "model name is required"}
	}
	if cfg.APIKey == "" {
		return &ConfigurationError{Model: cfg.Name, Msg: fmt.Sprintf("API key is required for %s", kind.DisplayName())}
	}
	return nil
}

// Verify that every vendor implements Provider
var (
	_ Provider = (*GeminiProvider)(nil)
	_ Provider = (*OpenAIProvider)(nil)
	_ Provider = (*AnthropicProvider)(nil)
)
