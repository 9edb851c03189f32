package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// DefaultGeminiBaseURL is the Gemini REST endpoint; Generate appends
// /v1beta/models/{model}:generateContent.
const DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com"

// geminiRequest is the body for generateContent. The system prompt is a
// top-level field and generation parameters nest under generationConfig.
type geminiRequest struct {
	Contents          []geminiContent   `json:"contents"`
	SystemInstruction *geminiContent    `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text,omitempty"`
}

// generationConfig uses pointers so an explicit temperature of 0 is sent.
type generationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
}

// geminiError is the error envelope returned with non-200 statuses.
type geminiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// GeminiProvider generates text with the Gemini generateContent API.
type GeminiProvider struct {
	cfg        ModelConfig
	baseURL    string
	httpClient *http.Client
}

// NewGemini creates a Gemini provider for cfg.
func NewGemini(cfg ModelConfig, opts ...Option) (*GeminiProvider, error) {
	if err := checkCredentials(KindGoogle, cfg); err != nil {
		return nil, err
	}
	o := newClientOptions(opts)
	baseURL := o.baseURL
	if baseURL == "" {
		baseURL = DefaultGeminiBaseURL
	}
	return &GeminiProvider{
		cfg:        cfg,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: o.httpClient,
	}, nil
}

// Kind returns KindGoogle.
func (p *GeminiProvider) Kind() Kind { return KindGoogle }

// Model returns the configured model name.
func (p *GeminiProvider) Model() string { return p.cfg.Name }

// Generate sends prompt as a single user content.
func (p *GeminiProvider) Generate(ctx context.Context, prompt string, opts ...GenerateOption) (string, error) {
	text, err := p.generate(ctx, newRequest(p.cfg, prompt, opts))
	if err != nil {
		return "", &ProviderError{Kind: KindGoogle, Model: p.cfg.Name, Err: err}
	}
	return text, nil
}

func (p *GeminiProvider) generate(ctx context.Context, req request) (string, error) {
	temp := req.temperature
	body := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: req.prompt}}},
		},
		GenerationConfig: &generationConfig{
			Temperature:     &temp,
			MaxOutputTokens: req.maxTokens,
		},
	}
	if req.system != "" {
		body.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.system}}}
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	// The model is part of the URL path, not the body
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", p.baseURL, url.PathEscape(p.cfg.Name))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", p.cfg.APIKey)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr geminiError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
			return "", fmt.Errorf("HTTP %d %s: %s", resp.StatusCode, apiErr.Error.Status, apiErr.Error.Message)
		}
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var nativeResp geminiResponse
	if err := json.Unmarshal(respBody, &nativeResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(nativeResp.Candidates) == 0 {
		if nativeResp.PromptFeedback != nil && nativeResp.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("prompt blocked: %s", nativeResp.PromptFeedback.BlockReason)
		}
		return "", errors.New("response contained no candidates")
	}

	var text strings.Builder
	for _, part := range nativeResp.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	return text.String(), nil
}
