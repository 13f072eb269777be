package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/go-multierror"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/fx"
)

const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"

	// FallbackRules answers upstream failures with the degraded notice and a rule-based reply.
	FallbackRules = "rules"
	// FallbackApology answers upstream failures with the apology prompt only.
	FallbackApology = "apology"
)

// Config holds all configuration from environment variables.
type Config struct {
	// OPENAI_API_KEY is the only credential source. Leaving it empty selects rule-based replies.
	APIKey    string `envconfig:"OPENAI_API_KEY"`
	BaseURL   string `envconfig:"OPENAI_BASE_URL" default:"https://api.openai.com/v1"`
	Model     string `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	Provider  string `envconfig:"LLM_PROVIDER" default:"openai"`
	// Ollama needs no key; OLLAMA_SERVER_URL is what opts in to it.
	OllamaURL string `envconfig:"OLLAMA_SERVER_URL"`

	// Generation parameters
	MaxTokens        int     `envconfig:"MAX_TOKENS" default:"1500"`
	Temperature      float64 `envconfig:"TEMPERATURE" default:"0.8"`
	TopP             float64 `envconfig:"TOP_P" default:"0.95"`
	FrequencyPenalty float64 `envconfig:"FREQUENCY_PENALTY" default:"0.2"`
	PresencePenalty  float64 `envconfig:"PRESENCE_PENALTY" default:"0.3"`

	UpstreamTimeout time.Duration `envconfig:"UPSTREAM_TIMEOUT" default:"30s"`
	StreamTimeout   time.Duration `envconfig:"STREAM_TIMEOUT" default:"2m"`

	HistoryLimit   int    `envconfig:"HISTORY_LIMIT" default:"15"`
	FallbackPolicy string `envconfig:"FALLBACK_POLICY" default:"rules"`

	Host string `envconfig:"HOST" default:"0.0.0.0"`
	Port int    `envconfig:"PORT" default:"5000"`

	// Optional side file holding the rule table
	RulesFile string `envconfig:"RULES_FILE" default:"responses.json"`

	// Path to config.toml file
	ConfigFile string `envconfig:"CONFIG_FILE" default:"config.toml"`

	// Optional channels and storage
	TelegramToken string `envconfig:"TELEGRAM_API_TOKEN"`
	DatabaseURL   string `envconfig:"DATABASE_URL"`

	Debug     bool   `envconfig:"DEBUG" default:"false"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"console"`

	// Prompts loaded from config.toml
	Prompts Prompts `ignored:"true"`
}

// Prompts holds the texts loaded from config.toml.
type Prompts struct {
	System   string `toml:"system"`
	Degraded string `toml:"degraded"`
	Apology  string `toml:"apology"`
	Service  string `toml:"service"`
}

// FileConfig represents the structure of config.toml.
type FileConfig struct {
	Prompts Prompts `toml:"prompts"`
}

// DefaultPrompts provides fallback prompts if config.toml is not found.
var DefaultPrompts = Prompts{
	System: `You are NeuraNest, an advanced AI assistant with enhanced reasoning capabilities.

Your personality:
- Intelligent, helpful, and genuinely curious about helping users
- Conversational and engaging, like talking to a knowledgeable friend
- Provide detailed explanations when helpful, but be concise when appropriate
- Ask follow-up questions when you need clarification
- Admit when you're uncertain and explain your reasoning process

Always strive to be helpful, accurate, and engaging in your responses.`,
	Degraded: "I apologize, but I'm experiencing some technical difficulties with my AI processing right now. Let me try to help you with a simpler response:",
	Apology:  "I apologize, but I encountered an issue processing your request. Please try again.",
	Service:  "NeuraNest Backend",
}

// LoadEnv loads the configuration from environment variables.
func (c Config) LoadEnv() (Config, error) {
	cfg := c

	if err := envconfig.Process("", &cfg); err != nil {
		return c, err
	}

	return cfg, nil
}

// LoadFile loads prompts from config.toml file.
func (c *Config) LoadFile() error {
	configPath := c.ConfigFile
	if !filepath.IsAbs(configPath) {
		// Try current directory first, then the executable directory
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			execPath, err := os.Executable()
			if err == nil {
				configPath = filepath.Join(filepath.Dir(execPath), c.ConfigFile)
			}
		}
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		c.Prompts = DefaultPrompts
		return nil
	}

	var fileConfig FileConfig
	if _, err := toml.DecodeFile(configPath, &fileConfig); err != nil {
		return fmt.Errorf("failed to decode %s: %w", configPath, err)
	}

	c.Prompts = fileConfig.Prompts

	// Use defaults for empty prompts
	if c.Prompts.System == "" {
		c.Prompts.System = DefaultPrompts.System
	}
	if c.Prompts.Degraded == "" {
		c.Prompts.Degraded = DefaultPrompts.Degraded
	}
	if c.Prompts.Apology == "" {
		c.Prompts.Apology = DefaultPrompts.Apology
	}
	if c.Prompts.Service == "" {
		c.Prompts.Service = DefaultPrompts.Service
	}

	return nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var result *multierror.Error

	switch c.Provider {
	case ProviderOpenAI, ProviderOllama:
	default:
		result = multierror.Append(result, fmt.Errorf("LLM_PROVIDER must be %q or %q, got %q", ProviderOpenAI, ProviderOllama, c.Provider))
	}

	switch c.FallbackPolicy {
	case FallbackRules, FallbackApology:
	default:
		result = multierror.Append(result, fmt.Errorf("FALLBACK_POLICY must be %q or %q, got %q", FallbackRules, FallbackApology, c.FallbackPolicy))
	}

	if c.Port <= 0 || c.Port > 65535 {
		result = multierror.Append(result, fmt.Errorf("PORT out of range: %d", c.Port))
	}
	if c.HistoryLimit < 0 {
		result = multierror.Append(result, fmt.Errorf("HISTORY_LIMIT must not be negative: %d", c.HistoryLimit))
	}
	if c.MaxTokens < 0 {
		result = multierror.Append(result, fmt.Errorf("MAX_TOKENS must not be negative: %d", c.MaxTokens))
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		result = multierror.Append(result, fmt.Errorf("TEMPERATURE must be within [0, 2]: %v", c.Temperature))
	}
	if c.TopP < 0 || c.TopP > 1 {
		result = multierror.Append(result, fmt.Errorf("TOP_P must be within [0, 1]: %v", c.TopP))
	}
	if c.UpstreamTimeout <= 0 {
		result = multierror.Append(result, errors.New("UPSTREAM_TIMEOUT must be positive"))
	}
	if c.StreamTimeout <= 0 {
		result = multierror.Append(result, errors.New("STREAM_TIMEOUT must be positive"))
	}

	return result.ErrorOrNil()
}

// AIEnabled reports whether an upstream model is configured. A provider
// without its credential or server URL selects rule-based replies.
func (c *Config) AIEnabled() bool {
	if c.Provider == ProviderOllama {
		return c.OllamaURL != ""
	}
	return c.APIKey != ""
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func NewConfig() (*Config, error) {
	var cfg Config
	loadedCfg, err := cfg.LoadEnv()
	if err != nil {
		return nil, err
	}

	// Load prompts from config.toml
	if err := loadedCfg.LoadFile(); err != nil {
		return nil, err
	}

	if err := loadedCfg.Validate(); err != nil {
		return nil, err
	}

	return &loadedCfg, nil
}

func Module() fx.Option {
	return fx.Module(
		"config",
		fx.Provide(
			NewConfig,
		),
	)
}
