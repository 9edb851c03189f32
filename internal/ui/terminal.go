// Package ui holds the terminal pieces of the CLI: the progress spinner,
// the reply presenter and shared styles.
package ui

import (
	"os"

	"golang.org/x/term"
)

// IsStdoutTTY reports whether stdout is a terminal.
func IsStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// IsStderrTTY reports whether stderr is a terminal.
func IsStderrTTY() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}
