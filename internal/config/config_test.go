package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "taskmind.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func clearKeyEnv(t *testing.T) {
	t.Helper()
	t.Setenv("TASKMIND_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
}

func TestLoadUserConfigDefaults(t *testing.T) {
	clearKeyEnv(t)

	cfg, err := LoadUserConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err, "a missing config file is not an error")

	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, 3, cfg.Retry.MaxRetries)
	assert.Equal(t, 60, cfg.Dialogue.VaguenessThreshold)
	assert.Equal(t, 3, cfg.Dialogue.MaxFollowUps)
	assert.Empty(t, cfg.LLM.APIKey)
}

func TestLoadUserConfigFromFile(t *testing.T) {
	clearKeyEnv(t)
	path := writeConfig(t, `
llm:
  provider: gemini
  api_key: file-key
  model: gemini-2.0-flash
retry:
  max_retries: 5
  initial_delay: 500ms
dialogue:
  vagueness_threshold: 70
logging:
  debug: true
`)

	cfg, err := LoadUserConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "file-key", cfg.LLM.APIKey)
	assert.Equal(t, 5, cfg.Retry.MaxRetries)
	assert.Equal(t, "500ms", cfg.Retry.InitialDelay)
	assert.Equal(t, 70, cfg.Dialogue.VaguenessThreshold)
	assert.True(t, cfg.Logging.Debug)
	// Unset sections keep their defaults.
	assert.Equal(t, 3, cfg.Dialogue.MaxFollowUps)
}

func TestLoadUserConfigMalformed(t *testing.T) {
	path := writeConfig(t, "llm: [not a mapping")
	_, err := LoadUserConfig(path)
	assert.Error(t, err)
}

func TestApplyEnvFilePrecedence(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv("OPENAI_API_KEY", "env-key")
	path := writeConfig(t, `
llm:
  api_key: file-key
`)

	cfg, err := LoadUserConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "file-key", cfg.LLM.APIKey, "file key beats env key")
}

func TestApplyEnvFallbackSwitchesProvider(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv("GEMINI_API_KEY", "gem-key")

	cfg, err := LoadUserConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "gem-key", cfg.LLM.APIKey)
	assert.Equal(t, "gemini", cfg.LLM.Provider, "provider follows the key source when not pinned")
}

func TestApplyEnvTaskmindKeyWins(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv("TASKMIND_API_KEY", "own-key")
	t.Setenv("OPENAI_API_KEY", "openai-key")

	cfg, err := LoadUserConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "own-key", cfg.LLM.APIKey)
	assert.Equal(t, "openai", cfg.LLM.Provider, "dedicated key does not switch provider")
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, 5*time.Second, ParseDuration("5s", time.Minute))
	assert.Equal(t, time.Minute, ParseDuration("", time.Minute))
	assert.Equal(t, time.Minute, ParseDuration("not-a-duration", time.Minute))
}
