package llm

// Resolve picks the vendor for cfg: the explicit provider tag first, then the
// model name patterns.
func Resolve(cfg ModelConfig) (Kind, error) {
	if k, ok := ParseKind(cfg.Provider); ok {
		return k, nil
	}
	if k, ok := InferKind(cfg.Name); ok {
		return k, nil
	}
	value := cfg.Provider
	if value == "" {
		value = cfg.Name
	}
	return KindUnknown, &UnsupportedProviderError{Value: value, Supported: SupportedProviders()}
}

// New creates the provider for cfg.
func New(cfg ModelConfig, opts ...Option) (Provider, error) {
	kind, err := Resolve(cfg)
	if err != nil {
		return nil, err
	}

	// Typed nil pointers must not leak into the interface
	var p Provider
	switch kind {
	case KindGoogle:
		p, err = wrap(NewGemini(cfg, opts...))
	case KindOpenAI:
		p, err = wrap(NewOpenAI(cfg, opts...))
	case KindAnthropic:
		p, err = wrap(NewAnthropic(cfg, opts...))
	default:
		return nil, &UnsupportedProviderError{Value: kind.String(), Supported: SupportedProviders()}
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func wrap[P Provider](p P, err error) (Provider, error) {
	if err != nil {
		return nil, err
	}
	return p, nil
}
