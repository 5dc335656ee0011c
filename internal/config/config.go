package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Completion backends.
const (
	ProviderOpenAI   = "openai"
	ProviderVertex   = "vertex"
	ProviderScripted = "scripted"
)

// DefaultModel is the LLM_MODEL default, an OpenAI model name.
const DefaultModel = "gpt-4o-mini"

type Config struct {
	Port          string        `mapstructure:"PORT"`
	Env           string        `mapstructure:"ENV"`
	LLMProvider   string        `mapstructure:"LLM_PROVIDER"`
	OpenAIAPIKey  string        `mapstructure:"OPENAI_API_KEY"`
	OpenAIBaseURL string        `mapstructure:"OPENAI_BASE_URL"`
	LLMModel      string        `mapstructure:"LLM_MODEL"`
	LLMMaxTokens  int           `mapstructure:"LLM_MAX_TOKENS"`
	LLMTimeout    time.Duration `mapstructure:"LLM_TIMEOUT"`
	GCPProject    string        `mapstructure:"GCP_PROJECT"`
	GCPLocation   string        `mapstructure:"GCP_LOCATION"`
	MessageCap    int           `mapstructure:"MESSAGE_CAP"`
	DatabaseURL   string        `mapstructure:"DATABASE_URL"`
	NotifyChannel string        `mapstructure:"NOTIFY_CHANNEL"`
}

var keys = []string{
	"PORT",
	"ENV",
	"LLM_PROVIDER",
	"OPENAI_API_KEY",
	"OPENAI_BASE_URL",
	"LLM_MODEL",
	"LLM_MAX_TOKENS",
	"LLM_TIMEOUT",
	"GCP_PROJECT",
	"GCP_LOCATION",
	"MESSAGE_CAP",
	"DATABASE_URL",
	"NOTIFY_CHANNEL",
}

// Load reads configuration from the environment and an optional .env file.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LLM_PROVIDER", ProviderOpenAI)
	v.SetDefault("LLM_MODEL", DefaultModel)
	v.SetDefault("LLM_MAX_TOKENS", 1000)
	v.SetDefault("LLM_TIMEOUT", "30s")
	v.SetDefault("GCP_LOCATION", "us-central1")
	v.SetDefault("MESSAGE_CAP", 50)
	v.SetDefault("NOTIFY_CHANNEL", "triage_emergency")

	// Bind env vars explicitly so Unmarshal picks them up
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// AuditEnabled reports whether pipeline events go to Postgres.
func (c *Config) AuditEnabled() bool {
	return c.DatabaseURL != ""
}

// Validate checks that the selected completion backend can be built.
func (c *Config) Validate() error {
	switch c.LLMProvider {
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" && c.OpenAIBaseURL == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when LLM_PROVIDER is %q", ProviderOpenAI)
		}
	case ProviderVertex:
		if c.GCPProject == "" {
			return fmt.Errorf("GCP_PROJECT is required when LLM_PROVIDER is %q", ProviderVertex)
		}
	case ProviderScripted:
	default:
		return fmt.Errorf("LLM_PROVIDER must be %q, %q, or %q, got %q",
			ProviderOpenAI, ProviderVertex, ProviderScripted, c.LLMProvider)
	}

	if c.MessageCap < 0 {
		return fmt.Errorf("MESSAGE_CAP must not be negative, got %d", c.MessageCap)
	}
	if c.LLMTimeout < 0 {
		return fmt.Errorf("LLM_TIMEOUT must not be negative, got %s", c.LLMTimeout)
	}
	if c.LLMMaxTokens <= 0 {
		return fmt.Errorf("LLM_MAX_TOKENS must be positive, got %d", c.LLMMaxTokens)
	}
	return nil
}
