package rules

import (
	"math/rand/v2"
	"strings"
)

// defaultFallbackReply is used when a table carries no fallback replies.
const defaultFallbackReply = "I understand. How can I assist you further?"

// Rule maps a set of trigger phrases to candidate replies.
type Rule struct {
	Name     string
	Triggers []string
	Replies  []string
}

// Table is an ordered rule set. Earlier rules take precedence.
// A Table is never mutated after construction.
type Table struct {
	rules    []Rule
	fallback []string
	pick     func(n int) int
}

// NewTable builds a table from rules in precedence order. Triggers are
// normalized to lowercase; rules without usable triggers or replies are dropped.
func NewTable(rules []Rule, fallback []string) *Table {
	t := &Table{
		rules:    make([]Rule, 0, len(rules)),
		fallback: nonEmpty(fallback),
		pick:     rand.IntN,
	}

	for _, r := range rules {
		triggers := make([]string, 0, len(r.Triggers))
		for _, trigger := range r.Triggers {
			trigger = strings.ToLower(strings.TrimSpace(trigger))
			if trigger != "" {
				triggers = append(triggers, trigger)
			}
		}

		replies := nonEmpty(r.Replies)
		if len(triggers) == 0 || len(replies) == 0 {
			continue
		}

		name := r.Name
		if name == "" {
			name = triggers[0]
		}

		t.rules = append(t.rules, Rule{Name: name, Triggers: triggers, Replies: replies})
	}

	return t
}

// Rules returns a deep copy of the rules in precedence order.
func (t *Table) Rules() []Rule {
	out := make([]Rule, 0, len(t.rules))
	for _, r := range t.rules {
		out = append(out, r.clone())
	}
	return out
}

func (r Rule) clone() Rule {
	return Rule{
		Name:     r.Name,
		Triggers: append([]string(nil), r.Triggers...),
		Replies:  append([]string(nil), r.Replies...),
	}
}

// Len returns the number of rules.
func (t *Table) Len() int {
	return len(t.rules)
}

// Lookup returns the first rule with a trigger contained in message.
func (t *Table) Lookup(message string) (Rule, bool) {
	normalized := strings.ToLower(strings.TrimSpace(message))
	if normalized == "" {
		return Rule{}, false
	}

	for _, r := range t.rules {
		for _, trigger := range r.Triggers {
			if strings.Contains(normalized, trigger) {
				return r.clone(), true
			}
		}
	}
	return Rule{}, false
}

// Match returns a reply from the first matching rule, picked uniformly at
// random among its candidates.
func (t *Table) Match(message string) (string, bool) {
	r, ok := t.Lookup(message)
	if !ok {
		return "", false
	}
	return t.choose(r.Replies), true
}

// Fallback returns a reply for messages no rule matched.
func (t *Table) Fallback() string {
	if len(t.fallback) == 0 {
		return defaultFallbackReply
	}
	return t.choose(t.fallback)
}

// FallbackReplies returns a copy of the fallback candidates.
func (t *Table) FallbackReplies() []string {
	if len(t.fallback) == 0 {
		return []string{defaultFallbackReply}
	}
	return append([]string(nil), t.fallback...)
}

// Reply resolves message to a matched reply or, failing that, a fallback one.
func (t *Table) Reply(message string) string {
	if reply, ok := t.Match(message); ok {
		return reply
	}
	return t.Fallback()
}

func (t *Table) choose(candidates []string) string {
	if len(candidates) == 1 {
		return candidates[0]
	}
	return candidates[t.pick(len(candidates))]
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
