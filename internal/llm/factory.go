package llm

import (
	"context"
	"fmt"

	"taskmind/internal/config"
)

// Provider identifies a completion-service backend.
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
)

// NewClientFromConfig builds a Client from user configuration. The result
// is wrapped in a TracingClient so every provider gets api-category logs.
func NewClientFromConfig(ctx context.Context, cfg *config.UserConfig) (Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.LLM.APIKey == "" {
		return nil, NewAIError(KindInvalidCredential,
			"no API key configured; set llm.api_key or one of TASKMIND_API_KEY, OPENAI_API_KEY, GEMINI_API_KEY", nil)
	}

	var (
		client Client
		err    error
	)

	label := cfg.LLM.Provider
	if label == "" {
		label = string(ProviderOpenAI)
	}

	switch Provider(cfg.LLM.Provider) {
	case ProviderGemini:
		gemCfg := DefaultGeminiConfig(cfg.LLM.APIKey)
		if cfg.LLM.Model != "" {
			gemCfg.Model = cfg.LLM.Model
		}
		client, err = NewGeminiClientWithConfig(ctx, gemCfg)
		if err != nil {
			return nil, err
		}

	case ProviderOpenAI, "":
		chatCfg := DefaultChatConfig(cfg.LLM.APIKey)
		if cfg.LLM.Model != "" {
			chatCfg.Model = cfg.LLM.Model
		}
		if cfg.LLM.BaseURL != "" {
			chatCfg.BaseURL = cfg.LLM.BaseURL
		}
		chatCfg.Timeout = config.ParseDuration(cfg.LLM.Timeout, chatCfg.Timeout)
		client = NewChatClientWithConfig(chatCfg)

	default:
		return nil, fmt.Errorf("unknown provider: %s (valid: openai, gemini)", cfg.LLM.Provider)
	}

	return NewTracingClient(client, label), nil
}

// NewClientFromEnv loads the default config file and builds a client.
func NewClientFromEnv(ctx context.Context) (Client, error) {
	cfg, err := config.LoadUserConfig(config.DefaultUserConfigPath())
	if err != nil {
		return nil, err
	}
	return NewClientFromConfig(ctx, cfg)
}

// RetryConfigFromUser maps config-file retry tuning onto the retry layer,
// falling back to the defaults for anything unset.
func RetryConfigFromUser(cfg *config.UserConfig) RetryConfig {
	rc := DefaultRetryConfig()
	if cfg == nil {
		return rc
	}
	if cfg.Retry.MaxRetries > 0 {
		rc.MaxRetries = cfg.Retry.MaxRetries
	}
	rc.InitialDelay = config.ParseDuration(cfg.Retry.InitialDelay, rc.InitialDelay)
	rc.MaxDelay = config.ParseDuration(cfg.Retry.MaxDelay, rc.MaxDelay)
	rc.AttemptTimeout = config.ParseDuration(cfg.Retry.AttemptTimeout, rc.AttemptTimeout)
	if cfg.Retry.Multiplier > 0 {
		rc.Multiplier = cfg.Retry.Multiplier
	}
	return rc
}
