package llm

import (
	"sort"
	"strings"
)

// Kind enumerates the supported vendors.
type Kind int

const (
	KindUnknown Kind = iota
	KindGoogle
	KindOpenAI
	KindAnthropic
)

// String returns the canonical provider tag stored in configuration.
func (k Kind) String() string {
	switch k {
	case KindGoogle:
		return "google"
	case KindOpenAI:
		return "openai"
	case KindAnthropic:
		return "anthropic"
	default:
		return "unknown"
	}
}

// DisplayName returns a human readable vendor name.
func (k Kind) DisplayName() string {
	switch k {
	case KindGoogle:
		return "Google Gemini"
	case KindOpenAI:
		return "OpenAI"
	case KindAnthropic:
		return "Anthropic Claude"
	default:
		return "Unknown"
	}
}

// providerTags maps accepted provider tags (lowercase) to kinds.
var providerTags = map[string]Kind{
	"google":    KindGoogle,
	"gemini":    KindGoogle,
	"openai":    KindOpenAI,
	"anthropic": KindAnthropic,
	"claude":    KindAnthropic,
}

// ModelPattern maps a model name substring to a vendor.
type ModelPattern struct {
	Pattern string
	Kind    Kind
}

// modelPatterns is checked in order; the first match wins.
var modelPatterns = []ModelPattern{
	{Pattern: "gemini", Kind: KindGoogle},
	{Pattern: "gpt", Kind: KindOpenAI},
	{Pattern: "claude", Kind: KindAnthropic},
}

// ParseKind matches a provider tag case-insensitively.
func ParseKind(tag string) (Kind, bool) {
	k, ok := providerTags[strings.ToLower(strings.TrimSpace(tag))]
	return k, ok
}

// InferKind guesses the vendor from a model name.
func InferKind(model string) (Kind, bool) {
	lower := strings.ToLower(model)
	for _, p := range modelPatterns {
		if strings.Contains(lower, p.Pattern) {
			return p.Kind, true
		}
	}
	return KindUnknown, false
}

// SupportedProviders returns the accepted provider tags, sorted.
func SupportedProviders() []string {
	tags := make([]string, 0, len(providerTags))
	for tag := range providerTags {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// ModelPatterns returns the name patterns used for inference, in match order.
func ModelPatterns() []ModelPattern {
	result := make([]ModelPattern, len(modelPatterns))
	copy(result, modelPatterns)
	return result
}
