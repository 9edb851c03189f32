package settings

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NERVsystems/tex/internal/llm"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func TestDefault(t *testing.T) {
	s := Default()
	assert.Equal(t, llm.DefaultModel, s.FallbackModel)
	assert.Equal(t, DefaultHistorySize, s.HistorySize)
	assert.Equal(t, 120*time.Second, s.Timeout())
	assert.Equal(t, zerolog.WarnLevel, s.Level())
	assert.Contains(t, s.SystemInstruction, "MD format")
	assert.True(t, filepath.IsAbs(s.ConfigPath))
	assert.Equal(t, "models_config.json", filepath.Base(s.ConfigPath))
	assert.Equal(t, "cli_chat_history.json", filepath.Base(s.HistoryPath))
	assert.NoError(t, s.Validate())
}

func TestLoadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	content := `
history_size = 4
fallback_model = "gpt-4o"
request_timeout_secs = 30
config_path = "/tmp/tex/models.json"
log_level = "debug"

[endpoints]
openai = "http://localhost:8080/v1"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	s := Default()
	require.NoError(t, LoadTOML(s, path))
	assert.Equal(t, 4, s.HistorySize)
	assert.Equal(t, "gpt-4o", s.FallbackModel)
	assert.Equal(t, 30*time.Second, s.Timeout())
	assert.Equal(t, "/tmp/tex/models.json", s.ConfigPath)
	assert.Equal(t, zerolog.DebugLevel, s.Level())
	assert.Equal(t, "http://localhost:8080/v1", s.Endpoints.For(llm.KindOpenAI))
	assert.Equal(t, "", s.Endpoints.For(llm.KindGoogle))
	// Unset keys keep their defaults
	assert.Equal(t, DefaultSystemInstruction, s.SystemInstruction)
}

func TestLoadTOML_ExpandsHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "settings.toml")
	require.NoError(t, os.WriteFile(path, []byte(`history_path = "~/h.json"`), 0600))

	s := Default()
	require.NoError(t, LoadTOML(s, path))
	assert.Equal(t, filepath.Join(home, "h.json"), s.HistoryPath)
}

func TestLoadTOML_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	require.NoError(t, os.WriteFile(path, []byte(`history_size = "lots"`), 0600))

	assert.Error(t, LoadTOML(Default(), path))
}

func TestLoadTOML_Missing(t *testing.T) {
	err := LoadTOML(Default(), filepath.Join(t.TempDir(), "none.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestApplyEnv(t *testing.T) {
	s := Default()
	err := s.ApplyEnv(env(map[string]string{
		"TEX_CONFIG":       "/etc/tex/models.json",
		"TEX_HISTORY":      "/var/tmp/h.json",
		"TEX_HISTORY_SIZE": "3",
		"TEX_MODEL":        "claude-3-opus",
		"TEX_TIMEOUT":      "0",
		"TEX_LOG_LEVEL":    "info",
	}))
	require.NoError(t, err)

	assert.Equal(t, "/etc/tex/models.json", s.ConfigPath)
	assert.Equal(t, "/var/tmp/h.json", s.HistoryPath)
	assert.Equal(t, 3, s.HistorySize)
	assert.Equal(t, "claude-3-opus", s.FallbackModel)
	assert.Equal(t, time.Duration(0), s.Timeout())
	assert.Equal(t, zerolog.InfoLevel, s.Level())
}

func TestApplyEnv_BadNumbers(t *testing.T) {
	for _, key := range []string{"TEX_HISTORY_SIZE", "TEX_TIMEOUT"} {
		t.Run(key, func(t *testing.T) {
			err := Default().ApplyEnv(env(map[string]string{key: "many"}))
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
	}{
		{"zero history", func(s *Settings) { s.HistorySize = 0 }},
		{"negative timeout", func(s *Settings) { s.TimeoutSeconds = -1 }},
		{"empty fallback", func(s *Settings) { s.FallbackModel = "" }},
		{"bad level", func(s *Settings) { s.LogLevel = "loud" }},
		{"no config path", func(s *Settings) { s.ConfigPath = "" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := Default()
			tc.mutate(s)
			assert.Error(t, s.Validate())
		})
	}
}
