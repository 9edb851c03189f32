// Package settings loads application settings from an optional TOML file
// and the environment.
//
// Precedence, lowest first:
//   - built-in defaults
//   - ~/.config/ai_model_manager/settings.toml
//   - TEX_* environment variables
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"

	"github.com/NERVsystems/tex/internal/llm"
)

const (
	// DefaultSystemInstruction is sent with every chat request.
	DefaultSystemInstruction = "Give response in short and MD format, if asked for commands then give commands and don't explain too much"

	DefaultHistorySize    = 10
	DefaultTimeoutSeconds = 120
	DefaultDebugCount     = 3
	DefaultLogLevel       = "warn"
)

// Settings holds everything that is not per-model configuration.
type Settings struct {
	ConfigPath        string `toml:"config_path"`
	HistoryPath       string `toml:"history_path"`
	HistorySize       int    `toml:"history_size"`
	FallbackModel     string `toml:"fallback_model"`
	SystemInstruction string `toml:"system_instruction"`
	TimeoutSeconds    int    `toml:"request_timeout_secs"`
	ShellHistoryPath  string `toml:"shell_history_path"`
	DebugCount        int    `toml:"debug_count"`
	LogLevel          string `toml:"log_level"`

	Endpoints Endpoints `toml:"endpoints"`
}

// Endpoints overrides vendor API base URLs, e.g. for a proxy.
// Empty fields use the vendor default.
type Endpoints struct {
	Google    string `toml:"google"`
	OpenAI    string `toml:"openai"`
	Anthropic string `toml:"anthropic"`
}

// For returns the override for k, or "".
func (e Endpoints) For(k llm.Kind) string {
	switch k {
	case llm.KindGoogle:
		return e.Google
	case llm.KindOpenAI:
		return e.OpenAI
	case llm.KindAnthropic:
		return e.Anthropic
	default:
		return ""
	}
}

// Dir returns ~/.config/ai_model_manager.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "ai_model_manager"), nil
}

// Path returns the settings file location.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "settings.toml"), nil
}

// Default returns the built-in settings. Paths are left empty when the home
// directory cannot be determined.
func Default() *Settings {
	s := &Settings{
		HistorySize:       DefaultHistorySize,
		FallbackModel:     llm.DefaultModel,
		SystemInstruction: DefaultSystemInstruction,
		TimeoutSeconds:    DefaultTimeoutSeconds,
		DebugCount:        DefaultDebugCount,
		LogLevel:          DefaultLogLevel,
	}
	if home, err := os.UserHomeDir(); err == nil {
		s.ConfigPath = filepath.Join(home, ".config", "ai_model_manager", "models_config.json")
		s.HistoryPath = filepath.Join(home, ".cache", "cli_chat_history.json")
	}
	return s
}

// Load returns the defaults overlaid with the settings file, if it exists,
// and then the environment.
func Load() (*Settings, error) {
	s := Default()
	path, err := Path()
	if err == nil {
		if err := LoadTOML(s, path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}
	if err := s.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return s, s.Validate()
}

// LoadTOML decodes the file at path over s.
func LoadTOML(s *Settings, path string) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}
	if _, err := toml.DecodeFile(path, s); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	s.ConfigPath = expandHome(s.ConfigPath)
	s.HistoryPath = expandHome(s.HistoryPath)
	s.ShellHistoryPath = expandHome(s.ShellHistoryPath)
	return nil
}

// ApplyEnv overrides fields from TEX_* variables using lookup.
func (s *Settings) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("TEX_CONFIG"); ok && v != "" {
		s.ConfigPath = expandHome(v)
	}
	if v, ok := lookup("TEX_HISTORY"); ok && v != "" {
		s.HistoryPath = expandHome(v)
	}
	if v, ok := lookup("TEX_HISTORY_SIZE"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("TEX_HISTORY_SIZE: %w", err)
		}
		s.HistorySize = n
	}
	if v, ok := lookup("TEX_MODEL"); ok && v != "" {
		s.FallbackModel = v
	}
	if v, ok := lookup("TEX_TIMEOUT"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("TEX_TIMEOUT: %w", err)
		}
		s.TimeoutSeconds = n
	}
	if v, ok := lookup("TEX_LOG_LEVEL"); ok && v != "" {
		s.LogLevel = v
	}
	return nil
}

// Validate rejects values the rest of the program cannot use.
func (s *Settings) Validate() error {
	if s.ConfigPath == "" {
		return errors.New("config path is not set and the home directory is unknown")
	}
	if s.HistoryPath == "" {
		return errors.New("history path is not set and the home directory is unknown")
	}
	if s.HistorySize < 1 {
		return fmt.Errorf("history_size must be at least 1, got %d", s.HistorySize)
	}
	if s.TimeoutSeconds < 0 {
		return fmt.Errorf("request_timeout_secs must not be negative, got %d", s.TimeoutSeconds)
	}
	if s.FallbackModel == "" {
		return errors.New("fallback_model must not be empty")
	}
	if _, err := zerolog.ParseLevel(s.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}

// Timeout is the HTTP client timeout; zero means none.
func (s *Settings) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// Level returns the configured log level, or warn if it does not parse.
func (s *Settings) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(s.LogLevel)
	if err != nil {
		return zerolog.WarnLevel
	}
	return lvl
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
