package config

import (
	"time"

	"github.com/ShipCreekGroup/email-parser/internal/providers"
)

// Config holds email-parser configuration.
// Loaded from ./config.yaml or ~/.email-parser/config.yaml.
type Config struct {
	LLMProviders map[string]LLMProviderCfg `mapstructure:"llm_providers" yaml:"llm_providers"`
	Defaults     DefaultsCfg               `mapstructure:"defaults" yaml:"defaults"`
	Server       ServerCfg                 `mapstructure:"server" yaml:"server"`
}

// LLMProviderCfg configures a streaming LLM provider.
type LLMProviderCfg struct {
	Type           string `mapstructure:"type" yaml:"type"`                       // "openai", "openrouter", "mock"
	Model          string `mapstructure:"model" yaml:"model"`                     // Model name
	APIKey         string `mapstructure:"api_key" yaml:"api_key"`                 // API key (supports ${ENV_VAR} syntax)
	BaseURL        string `mapstructure:"base_url" yaml:"base_url"`               // OpenAI-compatible endpoint override
	TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"` // Bound on one streamed call
	Enabled        bool   `mapstructure:"enabled" yaml:"enabled"`
}

// DefaultsCfg specifies default provider selection.
type DefaultsCfg struct {
	LLMProvider string `mapstructure:"llm_provider" yaml:"llm_provider"`
}

// ServerCfg holds HTTP server settings.
type ServerCfg struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port string `mapstructure:"port" yaml:"port"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LLMProviders: map[string]LLMProviderCfg{
			"openai": {
				Type:           "openai",
				Model:          "gpt-4o-mini",
				APIKey:         "${OPENAI_API_KEY}",
				TimeoutSeconds: 300,
				Enabled:        true,
			},
		},
		Defaults: DefaultsCfg{
			LLMProvider: "openai",
		},
		Server: ServerCfg{
			Host: "127.0.0.1",
			Port: "8080",
		},
	}
}

// ToProviderRegistryConfig converts the config to a format suitable for
// providers.Registry, resolving ${ENV_VAR} references in API keys.
func (c *Config) ToProviderRegistryConfig() providers.RegistryConfig {
	cfg := providers.RegistryConfig{
		LLMProviders: make(map[string]providers.LLMProviderConfig, len(c.LLMProviders)),
	}
	for name, llm := range c.LLMProviders {
		cfg.LLMProviders[name] = providers.LLMProviderConfig{
			Type:    llm.Type,
			Model:   llm.Model,
			APIKey:  ResolveEnvVars(llm.APIKey),
			BaseURL: llm.BaseURL,
			Timeout: time.Duration(llm.TimeoutSeconds) * time.Second,
			Enabled: llm.Enabled,
		}
	}
	return cfg
}

// Timeout returns the configured bound for one extraction call of the
// named provider, or zero when unset.
func (c *Config) Timeout(provider string) time.Duration {
	if llm, ok := c.LLMProviders[provider]; ok {
		return time.Duration(llm.TimeoutSeconds) * time.Second
	}
	return 0
}
