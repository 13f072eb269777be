package rules

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

// fallbackKey names the fallback reply set in rule files.
const fallbackKey = "fallback"

// ConfigurationError reports a rule file that could not be used.
type ConfigurationError struct {
	Path string
	Err  error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("rule table %s: %v", e.Path, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// fileTable is the structured rule file layout shared by JSON and YAML.
type fileTable struct {
	Rules    []fileRule `yaml:"rules"`
	Fallback []string   `yaml:"fallback"`
}

type fileRule struct {
	Name     string   `yaml:"name"`
	Triggers []string `yaml:"triggers"`
	Replies  []string `yaml:"replies"`
}

// Load reads a rule table from path. JSON files may use the structured
// layout ({"rules": [...], "fallback": [...]}) or the flat trigger-to-reply
// object, whose key order sets precedence. YAML files use the structured layout.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigurationError{Path: path, Err: err}
	}

	var table *Table
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		table, err = parseYAML(data)
	default:
		table, err = parseJSON(data)
	}
	if err != nil {
		return nil, &ConfigurationError{Path: path, Err: err}
	}

	if table.Len() == 0 {
		return nil, &ConfigurationError{Path: path, Err: errors.New("no usable rules")}
	}

	return table, nil
}

// LoadOrDefault loads path and falls back to DefaultTable on any error.
func LoadOrDefault(path string, log zerolog.Logger) *Table {
	if path == "" {
		log.Info().Msg("no rule file configured, using default rule table")
		return DefaultTable()
	}

	table, err := Load(path)
	if err != nil {
		var cfgErr *ConfigurationError
		if errors.As(err, &cfgErr) && errors.Is(cfgErr.Err, os.ErrNotExist) {
			log.Info().Str("path", path).Msg("rule file not found, using default rule table")
		} else {
			log.Warn().Err(err).Str("path", path).Msg("unable to load rule file, using default rule table")
		}
		return DefaultTable()
	}

	log.Info().Str("path", path).Int("rules", table.Len()).Msg("rule table loaded")
	return table
}

func parseJSON(data []byte) (*Table, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("invalid JSON")
	}

	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil, errors.New("rule file must be a JSON object")
	}

	if rulesField := doc.Get("rules"); rulesField.IsArray() {
		return parseStructuredJSON(doc, rulesField), nil
	}

	var (
		rules    []Rule
		fallback []string
	)
	doc.ForEach(func(key, value gjson.Result) bool {
		phrase := key.String()
		if phrase == fallbackKey {
			fallback = stringsOf(value)
			return true
		}
		rules = append(rules, Rule{
			Name:     phrase,
			Triggers: []string{phrase},
			Replies:  stringsOf(value),
		})
		return true
	})

	return NewTable(rules, fallback), nil
}

func parseStructuredJSON(doc, rulesField gjson.Result) *Table {
	var rules []Rule
	for _, item := range rulesField.Array() {
		triggers := stringsOf(item.Get("triggers"))
		if single := item.Get("trigger"); single.Exists() {
			triggers = append(triggers, stringsOf(single)...)
		}
		replies := stringsOf(item.Get("replies"))
		if single := item.Get("reply"); single.Exists() {
			replies = append(replies, stringsOf(single)...)
		}

		rules = append(rules, Rule{
			Name:     item.Get("name").String(),
			Triggers: triggers,
			Replies:  replies,
		})
	}
	return NewTable(rules, stringsOf(doc.Get(fallbackKey)))
}

func parseYAML(data []byte) (*Table, error) {
	var file fileTable
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}

	rules := make([]Rule, 0, len(file.Rules))
	for _, r := range file.Rules {
		rules = append(rules, Rule{Name: r.Name, Triggers: r.Triggers, Replies: r.Replies})
	}
	return NewTable(rules, file.Fallback), nil
}

// stringsOf accepts either a single string or an array of strings.
func stringsOf(value gjson.Result) []string {
	switch {
	case value.IsArray():
		var out []string
		for _, v := range value.Array() {
			if v.Type == gjson.String {
				out = append(out, v.String())
			}
		}
		return out
	case value.Type == gjson.String:
		return []string{value.String()}
	default:
		return nil
	}
}
