// Package service turns user input into a model reply using the stored model
// configuration and the rolling chat history.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/NERVsystems/tex/internal/history"
	"github.com/NERVsystems/tex/internal/llm"
)

// Store is the read side of the model configuration.
type Store interface {
	Get(name string) (llm.ModelConfig, bool)
	Selected() (string, bool)
}

// Factory builds a provider for a model configuration.
type Factory func(cfg llm.ModelConfig) (llm.Provider, error)

// DefaultFactory returns a Factory backed by llm.New.
func DefaultFactory(opts ...llm.Option) Factory {
	return func(cfg llm.ModelConfig) (llm.Provider, error) {
		return llm.New(cfg, opts...)
	}
}

// Indicator shows progress while a provider call is running.
// The returned stop function must block until the indicator is gone.
type Indicator interface {
	Start(ctx context.Context) (stop func())
}

// Presenter displays a reply.
type Presenter interface {
	Present(text string) error
}

// Config holds the collaborators of a Service.
type Config struct {
	Store     Store
	History   *history.Buffer
	Factory   Factory
	Indicator Indicator
	Presenter Presenter
	Logger    zerolog.Logger

	// FallbackModel defaults to llm.DefaultModel
	FallbackModel string
	// SystemInstruction is sent with every Ask
	SystemInstruction string
}

// Service orchestrates one request/response exchange.
type Service struct {
	store     Store
	history   *history.Buffer
	factory   Factory
	indicator Indicator
	presenter Presenter
	log       zerolog.Logger
	fallback  string
	system    string

	mu        sync.Mutex
	providers map[string]llm.Provider
}

// Reply is the outcome of Ask.
type Reply struct {
	Model string
	// Text is the reply shown to the user, "Error: ..." when generation failed
	Text string
	// Err is the generation failure, if any
	Err error
}

// New creates a Service. Store and History are required.
func New(cfg Config) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("service: store is required")
	}
	if cfg.History == nil {
		return nil, errors.New("service: history is required")
	}
	s := &Service{
		store:     cfg.Store,
		history:   cfg.History,
		factory:   cfg.Factory,
		indicator: cfg.Indicator,
		presenter: cfg.Presenter,
		log:       cfg.Logger,
		fallback:  cfg.FallbackModel,
		system:    cfg.SystemInstruction,
		providers: make(map[string]llm.Provider),
	}
	if s.factory == nil {
		s.factory = DefaultFactory()
	}
	if s.fallback == "" {
		s.fallback = llm.DefaultModel
	}
	return s, nil
}

// Model picks the model to use: explicit, else selected, else the fallback.
func (s *Service) Model(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if name, ok := s.store.Selected(); ok {
		return name
	}
	return s.fallback
}

// provider returns the cached provider for name, building it on first use.
func (s *Service) provider(name string) (llm.Provider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.providers[name]; ok {
		return p, nil
	}

	cfg, ok := s.store.Get(name)
	if !ok {
		return nil, &llm.NotFoundError{Model: name}
	}
	if cfg.APIKey == "" {
		return nil, &llm.ConfigurationError{Model: name, Msg: "no API key configured"}
	}

	p, err := s.factory(cfg)
	if err != nil {
		return nil, err
	}
	s.providers[name] = p
	s.log.Debug().Str("model", name).Str("provider", p.Kind().String()).Msg("provider created")
	return p, nil
}

// Generate sends prompt to the chosen model under the progress indicator.
// History is neither read nor written.
func (s *Service) Generate(ctx context.Context, prompt, model string, opts ...llm.GenerateOption) (string, error) {
	p, err := s.provider(s.Model(model))
	if err != nil {
		return "", err
	}
	return s.run(ctx, p, prompt, opts...)
}

func (s *Service) run(ctx context.Context, p llm.Provider, prompt string, opts ...llm.GenerateOption) (string, error) {
	stop := func() {}
	if s.indicator != nil {
		stop = s.indicator.Start(ctx)
	}
	text, err := p.Generate(ctx, prompt, opts...)
	stop()
	return text, err
}

// Ask records input in the history, sends the transcript to the model and
// presents the reply. Configuration and lookup errors are returned before
// history is touched; generation failures are reported as the reply text.
func (s *Service) Ask(ctx context.Context, input, model string) (Reply, error) {
	name := s.Model(model)
	p, err := s.provider(name)
	if err != nil {
		return Reply{Model: name}, err
	}

	if err := s.history.Append(history.RoleUser, input); err != nil {
		s.log.Warn().Err(err).Msg("failed to save history")
	}

	var opts []llm.GenerateOption
	if s.system != "" {
		opts = append(opts, llm.WithSystemInstruction(s.system))
	}

	reply := Reply{Model: name}
	text, genErr := s.run(ctx, p, s.history.RenderPrompt(), opts...)
	if genErr != nil {
		s.log.Debug().Err(genErr).Str("model", name).Msg("generation failed")
		reply.Err = genErr
		reply.Text = "Error: " + genErr.Error()
		text = ""
	} else {
		reply.Text = text
	}

	if err := s.history.Append(history.RoleAssistant, text); err != nil {
		s.log.Warn().Err(err).Msg("failed to save history")
	}

	if s.presenter != nil {
		if err := s.presenter.Present(reply.Text); err != nil {
			return reply, fmt.Errorf("failed to present reply: %w", err)
		}
	}
	return reply, nil
}
