// Package config holds the user-facing configuration for taskmind: which
// completion-service provider to talk to, retry tuning, dialogue policy
// thresholds, and logging switches. Config is loaded from a YAML file with
// environment-variable fallbacks for API keys.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// UserConfig is the root configuration document.
type UserConfig struct {
	LLM      LLMConfig      `yaml:"llm"`
	Retry    RetryConfig    `yaml:"retry"`
	Dialogue DialogueConfig `yaml:"dialogue"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LLMConfig configures the completion-service provider.
type LLMConfig struct {
	Provider string `yaml:"provider"` // openai, gemini
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
	Timeout  string `yaml:"timeout"` // Go duration string, e.g. "60s"
}

// RetryConfig tunes the backoff layer. Zero values take the defaults.
type RetryConfig struct {
	MaxRetries     int    `yaml:"max_retries"`
	InitialDelay   string `yaml:"initial_delay"`
	MaxDelay       string `yaml:"max_delay"`
	Multiplier     float64 `yaml:"multiplier"`
	AttemptTimeout string `yaml:"attempt_timeout"`
}

// DialogueConfig tunes the clarification policy.
type DialogueConfig struct {
	// VaguenessThreshold is the score above which an utterance is treated
	// as unactionable without contextual clarification. The one-extra-round
	// cap holds regardless of this value.
	VaguenessThreshold int `yaml:"vagueness_threshold"`

	// MaxFollowUps caps the combined follow-up question list.
	MaxFollowUps int `yaml:"max_follow_ups"`
}

// LoggingConfig controls the categorized logger.
type LoggingConfig struct {
	Debug      bool            `yaml:"debug"`
	Categories map[string]bool `yaml:"categories"`
}

// DefaultUserConfig returns the defaults used when no config file exists.
func DefaultUserConfig() *UserConfig {
	return &UserConfig{
		LLM: LLMConfig{
			Provider: "openai",
			Timeout:  "60s",
		},
		Retry: RetryConfig{
			MaxRetries:     3,
			InitialDelay:   "1s",
			MaxDelay:       "10s",
			Multiplier:     2,
			AttemptTimeout: "30s",
		},
		Dialogue: DialogueConfig{
			VaguenessThreshold: 60,
			MaxFollowUps:       3,
		},
	}
}

// DefaultUserConfigPath returns the default config file location.
func DefaultUserConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".taskmind.yaml"
	}
	return home + "/.taskmind.yaml"
}

// LoadUserConfig reads the config file at path, applying defaults for
// anything unset. A missing file is not an error: defaults plus env
// overrides are returned.
func LoadUserConfig(path string) (*UserConfig, error) {
	cfg := DefaultUserConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnv()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv fills API key and provider from the environment when the file
// left them blank. File values take precedence over env vars.
func (c *UserConfig) applyEnv() {
	if c.LLM.APIKey != "" {
		return
	}
	if key := os.Getenv("TASKMIND_API_KEY"); key != "" {
		c.LLM.APIKey = key
		return
	}
	for _, p := range []struct {
		envVar   string
		provider string
	}{
		{"OPENAI_API_KEY", "openai"},
		{"GEMINI_API_KEY", "gemini"},
	} {
		if key := os.Getenv(p.envVar); key != "" {
			c.LLM.APIKey = key
			if c.LLM.Provider == "" || c.LLM.Provider == DefaultUserConfig().LLM.Provider {
				c.LLM.Provider = p.provider
			}
			return
		}
	}
}

// ParseDuration parses a duration string, returning fallback when the
// string is empty or malformed. Config files are user-written; a typo in a
// tuning knob should not prevent startup.
func ParseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
