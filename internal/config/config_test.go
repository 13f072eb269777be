package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate clears variables that would leak in from the host environment.
func isolate(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"OPENAI_API_KEY", "OPENAI_MODEL", "LLM_PROVIDER", "OLLAMA_SERVER_URL", "PORT", "HISTORY_LIMIT",
		"FALLBACK_POLICY", "TEMPERATURE", "TELEGRAM_API_TOKEN", "DATABASE_URL", "DEBUG",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.toml"))
}

func TestNewConfigDefaults(t *testing.T) {
	isolate(t)

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "", cfg.APIKey)
	assert.False(t, cfg.AIEnabled())
	assert.Equal(t, ProviderOpenAI, cfg.Provider)
	assert.Equal(t, 15, cfg.HistoryLimit)
	assert.Equal(t, 1500, cfg.MaxTokens)
	assert.InDelta(t, 0.8, cfg.Temperature, 1e-9)
	assert.Equal(t, 30*time.Second, cfg.UpstreamTimeout)
	assert.Equal(t, FallbackRules, cfg.FallbackPolicy)
	assert.Equal(t, "0.0.0.0:5000", cfg.Addr())
	assert.Equal(t, DefaultPrompts, cfg.Prompts)
}

func TestNewConfigFromEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_MODEL", "gpt-4")
	t.Setenv("HISTORY_LIMIT", "10")
	t.Setenv("PORT", "8080")
	t.Setenv("FALLBACK_POLICY", "apology")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.True(t, cfg.AIEnabled())
	assert.Equal(t, "gpt-4", cfg.Model)
	assert.Equal(t, 10, cfg.HistoryLimit)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, FallbackApology, cfg.FallbackPolicy)
}

func TestOllamaNeedsNoKey(t *testing.T) {
	cfg := Config{Provider: ProviderOllama}
	assert.True(t, cfg.AIEnabled())
}

func TestLoadFileOverridesPrompts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[prompts]
system = "You are a terse bot."
apology = "Oops."
`), 0o600))

	cfg := Config{ConfigFile: path}
	require.NoError(t, cfg.LoadFile())

	assert.Equal(t, "You are a terse bot.", cfg.Prompts.System)
	assert.Equal(t, "Oops.", cfg.Prompts.Apology)
	assert.Equal(t, DefaultPrompts.Degraded, cfg.Prompts.Degraded)
	assert.Equal(t, DefaultPrompts.Service, cfg.Prompts.Service)
}

func TestLoadFileRejectsMalformedTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[prompts\nsystem = "), 0o600))

	cfg := Config{ConfigFile: path}
	assert.Error(t, cfg.LoadFile())
}

func TestValidateCollectsEveryProblem(t *testing.T) {
	cfg := Config{
		Provider:        "bard",
		FallbackPolicy:  "shrug",
		Port:            70000,
		HistoryLimit:    -1,
		Temperature:     3,
		UpstreamTimeout: time.Second,
		StreamTimeout:   time.Second,
	}

	err := cfg.Validate()
	require.Error(t, err)

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	assert.Len(t, merr.Errors, 5)
}

func TestValidateAcceptsDefaults(t *testing.T) {
	isolate(t)

	var cfg Config
	loaded, err := cfg.LoadEnv()
	require.NoError(t, err)
	assert.NoError(t, loaded.Validate())
}

func TestAIEnabled(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want bool
	}{
		{name: "nothing configured", want: false},
		{name: "openai key", env: map[string]string{"OPENAI_API_KEY": "sk-test"}, want: true},
		{name: "ollama without server url", env: map[string]string{"LLM_PROVIDER": "ollama"}, want: false},
		{name: "ollama ignores openai key", env: map[string]string{"LLM_PROVIDER": "ollama", "OPENAI_API_KEY": "sk-test"}, want: false},
		{
			name: "ollama with server url",
			env:  map[string]string{"LLM_PROVIDER": "ollama", "OLLAMA_SERVER_URL": "http://localhost:11434"},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := NewConfig()
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.AIEnabled())
		})
	}
}
