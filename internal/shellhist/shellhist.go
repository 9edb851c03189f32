// Package shellhist reads recent commands from the user's shell history file.
package shellhist

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// maxLineSize bounds a single history line; zsh multi-line entries can be long.
const maxLineSize = 1024 * 1024

// DefaultPath returns $HISTFILE if set, else ~/.bash_history.
func DefaultPath() (string, error) {
	if p := os.Getenv("HISTFILE"); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".bash_history"), nil
}

// Recent returns up to n of the last commands in path, oldest first.
// Both plain bash lines and zsh extended entries (": 1700000000:0;cmd") are
// understood; bash timestamp comments are skipped.
func Recent(path string, n int) ([]string, error) {
	if n < 1 {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open shell history: %w", err)
	}
	defer f.Close()

	ring := make([]string, 0, n)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for scanner.Scan() {
		cmd, ok := parseLine(scanner.Text())
		if !ok {
			continue
		}
		if len(ring) == n {
			copy(ring, ring[1:])
			ring = ring[:n-1]
		}
		ring = append(ring, cmd)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read shell history: %w", err)
	}
	return ring, nil
}

func parseLine(line string) (string, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", false
	}
	// bash HISTTIMEFORMAT writes "#1700000000" before each entry
	if strings.HasPrefix(line, "#") && isDigits(line[1:]) {
		return "", false
	}
	if strings.HasPrefix(line, ": ") {
		if i := strings.IndexByte(line, ';'); i > 0 {
			line = strings.TrimSpace(line[i+1:])
		}
	}
	return line, line != ""
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// debugInstruction ends every debug request.
const debugInstruction = "output what is wrong with the commands used and suggest correct ones"

// Prompt builds the debug request sent for cmds. extra is placed between the
// commands and the fixed instruction.
func Prompt(cmds []string, extra string) string {
	var b strings.Builder
	b.WriteString("Recent shell commands:\n")
	for _, c := range cmds {
		b.WriteString("$ ")
		b.WriteString(c)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	if extra = strings.TrimSpace(extra); extra != "" {
		b.WriteString(extra)
		b.WriteString(" ")
	}
	b.WriteString(debugInstruction)
	return b.String()
}
