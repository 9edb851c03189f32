package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
)

// clearLine returns the cursor to column 0 and erases the line.
const clearLine = "\r\033[K"

// Spinner draws a progress indicator on a single terminal line.
type Spinner struct {
	out      io.Writer
	frames   []string
	interval time.Duration
	message  string
	disabled bool
}

// SpinnerOption configures a Spinner.
type SpinnerOption func(*Spinner)

// WithMessage sets the text drawn after the frame.
func WithMessage(msg string) SpinnerOption {
	return func(s *Spinner) {
		s.message = msg
	}
}

// WithInterval overrides the frame interval.
func WithInterval(d time.Duration) SpinnerOption {
	return func(s *Spinner) {
		s.interval = d
	}
}

// NewSpinner returns a spinner drawing on out with the bubbles Line frames.
func NewSpinner(out io.Writer, opts ...SpinnerOption) *Spinner {
	s := &Spinner{
		out:      out,
		frames:   spinner.Line.Frames,
		interval: spinner.Line.FPS,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StderrSpinner draws on stderr, or does nothing when stderr is not a terminal.
func StderrSpinner(opts ...SpinnerOption) *Spinner {
	s := NewSpinner(os.Stderr, opts...)
	s.disabled = !IsStderrTTY()
	return s
}

// Start animates until ctx is done or stop is called. stop blocks until the
// line has been cleared, and is safe to call more than once.
func (s *Spinner) Start(ctx context.Context) (stop func()) {
	if s.disabled || len(s.frames) == 0 {
		return func() {}
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		i := 0
		for {
			s.draw(s.frames[i%len(s.frames)])
			i++
			select {
			case <-ctx.Done():
				fmt.Fprint(s.out, clearLine)
				return
			case <-ticker.C:
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}
}

func (s *Spinner) draw(frame string) {
	if s.message == "" {
		fmt.Fprintf(s.out, "\r%s", frame)
		return
	}
	fmt.Fprintf(s.out, "\r%s %s", frame, s.message)
}
