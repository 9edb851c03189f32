// tex sends prompts to Gemini, OpenAI or Anthropic models from the terminal,
// keeping a short rolling history between calls.
//
// Usage:
//
//	tex config gemini-2.5-flash $GEMINI_API_KEY
//	tex select gemini-2.5-flash
//	tex how do I find large files
//
// Recent shell commands can be sent for diagnosis with:
//
//	tex debug -n 5
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/NERVsystems/tex/internal/ui"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(newApp(os.Stdout, os.Stderr)).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, ui.ErrorStyle.Render("Error: "+err.Error()))
		stop()
		os.Exit(1)
	}
}
