package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
)

// Presenter writes replies, rendering markdown for terminals.
type Presenter struct {
	out      io.Writer
	renderer *glamour.TermRenderer
}

// PresenterOption configures a Presenter.
type PresenterOption func(*presenterConfig)

type presenterConfig struct {
	markdown bool
	style    string
	wrap     int
}

// WithMarkdown enables glamour rendering.
func WithMarkdown(enabled bool) PresenterOption {
	return func(c *presenterConfig) {
		c.markdown = enabled
	}
}

// WithStyle selects a glamour standard style such as "dark" or "notty".
// The default detects the terminal background.
func WithStyle(name string) PresenterOption {
	return func(c *presenterConfig) {
		c.style = name
	}
}

// WithWordWrap sets the wrap column for rendered markdown.
func WithWordWrap(n int) PresenterOption {
	return func(c *presenterConfig) {
		c.wrap = n
	}
}

// NewPresenter returns a presenter writing to out. If the markdown renderer
// cannot be built the presenter falls back to raw text.
func NewPresenter(out io.Writer, opts ...PresenterOption) *Presenter {
	cfg := presenterConfig{wrap: 80}
	for _, opt := range opts {
		opt(&cfg)
	}

	p := &Presenter{out: out}
	if !cfg.markdown {
		return p
	}

	styleOpt := glamour.WithAutoStyle()
	if cfg.style != "" {
		styleOpt = glamour.WithStandardStyle(cfg.style)
	}
	renderer, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(cfg.wrap))
	if err == nil {
		p.renderer = renderer
	}
	return p
}

// StdoutPresenter renders markdown only when stdout is a terminal so piped
// output stays plain.
func StdoutPresenter(out io.Writer) *Presenter {
	return NewPresenter(out, WithMarkdown(IsStdoutTTY()))
}

// Present writes text, rendered when possible.
func (p *Presenter) Present(text string) error {
	text = strings.TrimSpace(text)
	if p.renderer != nil {
		if rendered, err := p.renderer.Render(text); err == nil {
			_, err = fmt.Fprint(p.out, rendered)
			return err
		}
	}
	_, err := fmt.Fprintln(p.out, text)
	return err
}
