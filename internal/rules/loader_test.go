package rules

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func names(table *Table) []string {
	var out []string
	for _, r := range table.Rules() {
		out = append(out, r.Name)
	}
	return out
}

func TestLoadFlatJSONKeepsDocumentOrder(t *testing.T) {
	path := writeFile(t, "responses.json", `{
		"how are you": "I'm doing great, thanks for asking!",
		"hello": "Hi, I'm NeuraNest 👋. How can I help you?",
		"bye": ["Goodbye!", "See you soon!"],
		"fallback": ["Sorry, I don't understand that yet."]
	}`)

	table, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"how are you", "hello", "bye"}, names(table))
	assert.Equal(t, []string{"Sorry, I don't understand that yet."}, table.FallbackReplies())

	reply, ok := table.Match("Bye then")
	require.True(t, ok)
	assert.Contains(t, []string{"Goodbye!", "See you soon!"}, reply)
}

func TestLoadStructuredJSON(t *testing.T) {
	path := writeFile(t, "rules.json", `{
		"rules": [
			{"name": "weather", "triggers": ["weather", "rain"], "replies": ["Bring an umbrella."]},
			{"name": "thanks", "trigger": "thank", "reply": "You're welcome!"}
		],
		"fallback": "Tell me more."
	}`)

	table, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"weather", "thanks"}, names(table))
	reply, ok := table.Match("Will it RAIN today?")
	require.True(t, ok)
	assert.Equal(t, "Bring an umbrella.", reply)
	assert.Equal(t, "Tell me more.", table.Fallback())
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "rules.yaml", `
rules:
  - name: pricing
    triggers: [price, cost]
    replies:
      - It's free.
fallback:
  - Could you rephrase that?
`)

	table, err := Load(path)
	require.NoError(t, err)

	reply, ok := table.Match("how much does it cost")
	require.True(t, ok)
	assert.Equal(t, "It's free.", reply)
	assert.Equal(t, "Could you rephrase that?", table.Fallback())
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name     string
		path     func(t *testing.T) string
		notFound bool
	}{
		{
			name:     "missing file",
			path:     func(t *testing.T) string { return filepath.Join(t.TempDir(), "absent.json") },
			notFound: true,
		},
		{
			name: "malformed json",
			path: func(t *testing.T) string { return writeFile(t, "bad.json", `{"hello": `) },
		},
		{
			name: "json array",
			path: func(t *testing.T) string { return writeFile(t, "list.json", `["hello"]`) },
		},
		{
			name: "no usable rules",
			path: func(t *testing.T) string { return writeFile(t, "empty.json", `{"fallback": ["x"]}`) },
		},
		{
			name: "malformed yaml",
			path: func(t *testing.T) string { return writeFile(t, "bad.yml", "rules: [\n") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path(t))
			require.Error(t, err)

			var cfgErr *ConfigurationError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.notFound, errors.Is(err, os.ErrNotExist))
		})
	}
}

func TestLoadOrDefaultFallsBack(t *testing.T) {
	log := zerolog.Nop()

	missing := LoadOrDefault(filepath.Join(t.TempDir(), "absent.json"), log)
	assert.Equal(t, names(DefaultTable()), names(missing))

	broken := LoadOrDefault(writeFile(t, "bad.json", "not json"), log)
	assert.Equal(t, names(DefaultTable()), names(broken))

	unset := LoadOrDefault("", log)
	assert.Equal(t, names(DefaultTable()), names(unset))

	custom := LoadOrDefault(writeFile(t, "ok.json", `{"ping": "pong"}`), log)
	assert.Equal(t, []string{"ping"}, names(custom))
}
