package main

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/NERVsystems/tex/internal/config"
	"github.com/NERVsystems/tex/internal/history"
	"github.com/NERVsystems/tex/internal/llm"
	"github.com/NERVsystems/tex/internal/service"
	"github.com/NERVsystems/tex/internal/settings"
	"github.com/NERVsystems/tex/internal/ui"
)

// app carries the state shared by all commands of one invocation.
type app struct {
	stdout io.Writer
	stderr io.Writer

	verbose  bool
	settings *settings.Settings
	log      zerolog.Logger

	// indicator and presenter are replaced in tests
	indicator service.Indicator
	presenter service.Presenter
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{stdout: stdout, stderr: stderr, log: zerolog.Nop()}
}

// load loads settings and configures logging. It runs before every command.
func (a *app) load() error {
	s, err := settings.Load()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	a.settings = s

	level := s.Level()
	if a.verbose {
		level = zerolog.DebugLevel
	}
	cw := zerolog.ConsoleWriter{Out: a.stderr, TimeFormat: time.RFC3339}
	a.log = zerolog.New(cw).Level(level).With().Timestamp().Logger()
	a.log.Debug().
		Str("config", s.ConfigPath).
		Str("history", s.HistoryPath).
		Msg("settings loaded")
	return nil
}

func (a *app) openStore() (*config.Store, error) {
	return config.Open(a.settings.ConfigPath, config.WithLogger(a.log.With().Str("component", "config").Logger()))
}

func (a *app) openHistory() *history.Buffer {
	return history.Load(a.settings.HistoryPath, a.settings.HistorySize,
		history.WithLogger(a.log.With().Str("component", "history").Logger()))
}

// factory builds providers with the configured timeout and endpoint overrides.
func (a *app) factory() service.Factory {
	httpClient := &http.Client{Timeout: a.settings.Timeout()}
	endpoints := a.settings.Endpoints
	return func(cfg llm.ModelConfig) (llm.Provider, error) {
		opts := []llm.Option{llm.WithHTTPClient(httpClient)}
		if kind, err := llm.Resolve(cfg); err == nil {
			if url := endpoints.For(kind); url != "" {
				opts = append(opts, llm.WithBaseURL(url))
			}
		}
		return llm.New(cfg, opts...)
	}
}

func (a *app) newService() (*service.Service, *history.Buffer, error) {
	store, err := a.openStore()
	if err != nil {
		return nil, nil, err
	}
	hist := a.openHistory()

	indicator := a.indicator
	if indicator == nil {
		indicator = ui.StderrSpinner()
	}
	presenter := a.presenter
	if presenter == nil {
		presenter = ui.StdoutPresenter(a.stdout)
	}

	svc, err := service.New(service.Config{
		Store:             store,
		History:           hist,
		Factory:           a.factory(),
		Indicator:         indicator,
		Presenter:         presenter,
		Logger:            a.log.With().Str("component", "service").Logger(),
		FallbackModel:     a.settings.FallbackModel,
		SystemInstruction: a.settings.SystemInstruction,
	})
	if err != nil {
		return nil, nil, err
	}
	return svc, hist, nil
}
