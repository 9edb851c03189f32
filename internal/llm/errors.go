package llm

import (
	"fmt"
	"strings"
)

// ConfigurationError reports a missing or invalid model setting,
// such as an empty credential or model name.
type ConfigurationError struct {
	Model string
	Msg   string
}

func (e *ConfigurationError) Error() string {
	if e.Model == "" {
		return e.Msg
	}
	return fmt.Sprintf("model '%s': %s", e.Model, e.Msg)
}

// NotFoundError reports an operation on a model name that is not configured.
type NotFoundError struct {
	Model string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("model '%s' is not configured", e.Model)
}

// UnsupportedProviderError reports a provider that could be neither matched
// from its tag nor inferred from the model name.
type UnsupportedProviderError struct {
	Value     string
	Supported []string
}

func (e *UnsupportedProviderError) Error() string {
	return fmt.Sprintf("unsupported provider: %s. Available: %s", e.Value, strings.Join(e.Supported, ", "))
}

// ProviderError wraps a transport, auth or quota failure from a vendor.
type ProviderError struct {
	Kind  Kind
	Model string
	Err   error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Kind.DisplayName(), e.Model, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
