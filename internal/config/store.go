// Package config persists per-model settings and the selected model.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/NERVsystems/tex/internal/fsutil"
	"github.com/NERVsystems/tex/internal/llm"
)

// SchemaVersion is written to every saved configuration file.
const SchemaVersion = 2

// document is the in-memory configuration.
type document struct {
	Version       int
	SelectedModel *string
	Models        map[string]llm.ModelConfig

	// unreadable holds entries that failed to decode or validate. They are
	// written back unchanged and cannot be selected or used.
	unreadable map[string]json.RawMessage
}

// fileDocument is the on-disk layout.
type fileDocument struct {
	Version       int                    `json:"version"`
	SelectedModel *string                `json:"selected_model"`
	Models        map[string]interface{} `json:"models"`
}

func emptyDocument() document {
	return document{
		Version:    SchemaVersion,
		Models:     make(map[string]llm.ModelConfig),
		unreadable: make(map[string]json.RawMessage),
	}
}

func (d document) clone() document {
	c := emptyDocument()
	c.Version = d.Version
	if d.SelectedModel != nil {
		s := *d.SelectedModel
		c.SelectedModel = &s
	}
	for name, m := range d.Models {
		c.Models[name] = m
	}
	for name, raw := range d.unreadable {
		c.unreadable[name] = raw
	}
	return c
}

func (d document) MarshalJSON() ([]byte, error) {
	models := make(map[string]interface{}, len(d.Models)+len(d.unreadable))
	for name, raw := range d.unreadable {
		models[name] = raw
	}
	for name, m := range d.Models {
		models[name] = m
	}
	return json.Marshal(fileDocument{Version: d.Version, SelectedModel: d.SelectedModel, Models: models})
}

// Store is the model configuration file. All mutations are written through.
type Store struct {
	mu   sync.RWMutex
	path string
	doc  document
	log  zerolog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for load and migration diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) {
		s.log = l
	}
}

// DefaultPath returns ~/.config/ai_model_manager/models_config.json.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "ai_model_manager", "models_config.json"), nil
}

// Open loads the configuration at path, writing the default skeleton when the
// file does not exist. A corrupt file is treated as empty and left in place
// until the next mutation.
func Open(path string, opts ...Option) (*Store, error) {
	s := &Store{
		path: path,
		doc:  emptyDocument(),
		log:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		if err := s.save(); err != nil {
			return nil, err
		}
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	doc, migrated, err := decode(data, s.log)
	if err != nil {
		s.log.Warn().Err(err).Str("path", path).Msg("config corrupt, treating as empty")
		return s, nil
	}

	if sel := doc.SelectedModel; sel != nil {
		if _, ok := doc.Models[*sel]; !ok {
			s.log.Warn().Str("model", *sel).Msg("selected model is not usable, clearing selection")
			doc.SelectedModel = nil
		}
	}
	for name := range doc.unreadable {
		s.log.Warn().Str("model", name).Msg("model entry unreadable, keeping it as is; reconfigure it to use it")
	}
	s.doc = doc

	if migrated {
		if err := s.save(); err != nil {
			return nil, err
		}
		s.log.Info().Str("path", path).Int("models", len(doc.Models)).Msg("migrated legacy config to version 2")
	}
	return s, nil
}

// decode parses data and reports whether the legacy schema was found.
func decode(data []byte, log zerolog.Logger) (document, bool, error) {
	doc := emptyDocument()
	if !gjson.ValidBytes(data) {
		return doc, false, errors.New("invalid JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return doc, false, errors.New("top level is not an object")
	}

	if root.Get("models").IsObject() {
		decodeCurrent(&doc, root, log)
		return doc, false, nil
	}
	decodeLegacy(&doc, root, log)
	return doc, true, nil
}

func decodeCurrent(doc *document, root gjson.Result, log zerolog.Logger) {
	if sel := root.Get("selected_model"); sel.Type == gjson.String {
		name := sel.String()
		doc.SelectedModel = &name
	}

	root.Get("models").ForEach(func(key, value gjson.Result) bool {
		name := key.String()
		cfg := llm.NewModelConfig(name, "", "")
		if !value.IsObject() {
			doc.unreadable[name] = json.RawMessage(value.Raw)
			return true
		}
		if err := json.Unmarshal([]byte(value.Raw), &cfg); err != nil {
			log.Debug().Err(err).Str("model", name).Msg("model entry does not decode")
			doc.unreadable[name] = json.RawMessage(value.Raw)
			return true
		}
		cfg.Name = name
		if err := cfg.Validate(); err != nil {
			log.Debug().Err(err).Str("model", name).Msg("model entry is invalid")
			doc.unreadable[name] = json.RawMessage(value.Raw)
			return true
		}
		doc.Models[name] = cfg
		return true
	})
}

// decodeLegacy converts {"selected_model": ..., "<model>": "<key>"|null}.
func decodeLegacy(doc *document, root gjson.Result, log zerolog.Logger) {
	root.ForEach(func(key, value gjson.Result) bool {
		name := key.String()
		if name == "selected_model" {
			if value.Type == gjson.String {
				sel := value.String()
				doc.SelectedModel = &sel
			}
			return true
		}
		if name == "version" {
			return true
		}

		var apiKey string
		switch value.Type {
		case gjson.String:
			apiKey = value.String()
		case gjson.Null:
		default:
			log.Debug().Str("model", name).Msg("legacy entry has unexpected value")
			doc.unreadable[name] = json.RawMessage(value.Raw)
			return true
		}

		provider := ""
		if k, ok := llm.InferKind(name); ok {
			provider = k.String()
		}
		doc.Models[name] = llm.NewModelConfig(name, provider, apiKey)
		return true
	})
}

// Path returns the backing file.
func (s *Store) Path() string {
	return s.path
}

// Get returns the configuration stored for name.
func (s *Store) Get(name string) (llm.ModelConfig, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg, ok := s.doc.Models[name]
	return cfg, ok
}

// Set inserts or replaces the configuration for cfg.Name.
func (s *Store) Set(cfg llm.ModelConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	return s.mutate(func(d *document) error {
		delete(d.unreadable, cfg.Name)
		d.Models[cfg.Name] = cfg
		return nil
	})
}

// Remove deletes name, clearing the selection if it pointed there.
func (s *Store) Remove(name string) error {
	return s.mutate(func(d *document) error {
		_, usable := d.Models[name]
		_, unreadable := d.unreadable[name]
		if !usable && !unreadable {
			return &llm.NotFoundError{Model: name}
		}
		delete(d.Models, name)
		delete(d.unreadable, name)
		if d.SelectedModel != nil && *d.SelectedModel == name {
			d.SelectedModel = nil
		}
		return nil
	})
}

// Select makes name the default model. The model must exist and have an API key.
func (s *Store) Select(name string) error {
	return s.mutate(func(d *document) error {
		cfg, ok := d.Models[name]
		if !ok {
			if _, unreadable := d.unreadable[name]; unreadable {
				return &llm.ConfigurationError{Model: name, Msg: "entry could not be read, configure it again"}
			}
			return &llm.NotFoundError{Model: name}
		}
		if cfg.APIKey == "" {
			return &llm.ConfigurationError{Model: name, Msg: "no API key configured"}
		}
		d.SelectedModel = &name
		return nil
	})
}

// Selected returns the selected model name, if any.
func (s *Store) Selected() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.doc.SelectedModel == nil {
		return "", false
	}
	return *s.doc.SelectedModel, true
}

// List returns a snapshot of every configured model.
func (s *Store) List() map[string]llm.ModelConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make(map[string]llm.ModelConfig, len(s.doc.Models))
	for name, cfg := range s.doc.Models {
		result[name] = cfg
	}
	return result
}

// Names returns the configured model names, sorted.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.doc.Models))
	for name := range s.doc.Models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Unreadable returns the names of entries kept on disk that could not be
// loaded, sorted.
func (s *Store) Unreadable() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.doc.unreadable))
	for name := range s.doc.unreadable {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Reset discards every model and the selection.
func (s *Store) Reset() error {
	return s.mutate(func(d *document) error {
		*d = emptyDocument()
		return nil
	})
}

// mutate applies fn to a copy of the document and commits it only if both fn
// and the write succeed.
func (s *Store) mutate(fn func(*document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.doc.clone()
	if err := fn(&next); err != nil {
		return err
	}
	prev := s.doc
	s.doc = next
	if err := s.save(); err != nil {
		s.doc = prev
		return err
	}
	return nil
}

// save writes s.doc. Caller holds mu or has exclusive access.
func (s *Store) save() error {
	s.doc.Version = SchemaVersion
	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := fsutil.WriteFileAtomic(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
