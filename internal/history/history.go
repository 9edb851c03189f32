// Package history provides the rolling chat history shared across CLI calls.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/NERVsystems/tex/internal/fsutil"
)

// DefaultCapacity is the number of turns kept when no capacity is configured.
const DefaultCapacity = 10

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Label is the transcript prefix for the role.
func (r Role) Label() string {
	switch r {
	case RoleUser:
		return "User"
	case RoleAssistant:
		return "Assistant"
	default:
		return string(r)
	}
}

// Turn is a single role-tagged message.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// file is the on-disk layout of the history file.
type file struct {
	SessionID string `json:"session_id"`
	Turns     []Turn `json:"turns"`
}

// Buffer is a capacity-bounded FIFO of turns.
// When path is set every mutation is written through to disk.
type Buffer struct {
	mu        sync.RWMutex
	turns     []Turn
	capacity  int
	path      string
	sessionID string
	log       zerolog.Logger
}

// Option configures a Buffer.
type Option func(*Buffer)

// WithLogger sets the logger used for load diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(b *Buffer) {
		b.log = l
	}
}

// New creates an in-memory buffer. A capacity below 1 means DefaultCapacity.
func New(capacity int, opts ...Option) *Buffer {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	b := &Buffer{
		turns:     make([]Turn, 0, capacity),
		capacity:  capacity,
		sessionID: uuid.NewString(),
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Load reads the history file at path into a buffer backed by that file.
// A missing or malformed file yields an empty buffer.
func Load(path string, capacity int, opts ...Option) *Buffer {
	b := New(capacity, opts...)
	b.path = path

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			b.log.Warn().Err(err).Str("path", path).Msg("history unreadable, starting empty")
		}
		return b
	}

	var f file
	if err := json.Unmarshal(data, &f); err != nil {
		b.log.Warn().Err(err).Str("path", path).Msg("history malformed, starting empty")
		return b
	}

	for _, t := range f.Turns {
		if !t.Role.Valid() {
			continue
		}
		b.turns = append(b.turns, t)
	}
	b.evict()
	if f.SessionID != "" {
		b.sessionID = f.SessionID
	}
	return b
}

// Append adds a turn, evicting the oldest turns beyond capacity.
func (b *Buffer) Append(role Role, text string) error {
	if !role.Valid() {
		return fmt.Errorf("unknown role %q", role)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.turns = append(b.turns, Turn{Role: role, Text: text})
	b.evict()
	return b.saveLocked()
}

// evict drops turns from the front until len <= capacity. Caller holds mu.
func (b *Buffer) evict() {
	if over := len(b.turns) - b.capacity; over > 0 {
		kept := make([]Turn, b.capacity, b.capacity)
		copy(kept, b.turns[over:])
		b.turns = kept
	}
}

// RenderPrompt returns the transcript in chronological order.
func (b *Buffer) RenderPrompt() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	lines := make([]string, 0, len(b.turns))
	for _, t := range b.turns {
		lines = append(lines, t.Role.Label()+": "+t.Text)
	}
	return strings.Join(lines, "\n")
}

// Turns returns a copy of the stored turns.
func (b *Buffer) Turns() []Turn {
	b.mu.RLock()
	defer b.mu.RUnlock()
	result := make([]Turn, len(b.turns))
	copy(result, b.turns)
	return result
}

// Len returns the number of stored turns.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.turns)
}

// Capacity returns the maximum number of turns kept.
func (b *Buffer) Capacity() int {
	return b.capacity
}

// SessionID identifies the conversation since the last Reset.
func (b *Buffer) SessionID() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.sessionID
}

// Path returns the backing file, or "" for in-memory buffers.
func (b *Buffer) Path() string {
	return b.path
}

// Reset clears the history and starts a new session.
func (b *Buffer) Reset() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.turns = make([]Turn, 0, b.capacity)
	b.sessionID = uuid.NewString()
	return b.saveLocked()
}

// Save writes the buffer to its backing file.
func (b *Buffer) Save() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.saveLocked()
}

func (b *Buffer) saveLocked() error {
	if b.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(file{SessionID: b.sessionID, Turns: b.turns}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}
	if err := fsutil.WriteFileAtomic(b.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	return nil
}
