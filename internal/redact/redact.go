// Package redact removes credentials from concept documents before their
// text is sent to the tracking API.
//
// Detection is rule based: each Rule is a regular expression, optionally
// gated by keywords that must appear somewhere in the text (case-insensitive)
// before the pattern is tried. When a pattern has a capturing group only the
// first group is replaced, so the surrounding text (a key name, a URL's
// host) survives. Overlapping spans are merged and replaced by a single
// placeholder.
package redact

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Placeholder replaces every redacted span.
const Placeholder = "[REDACTED]"

// Rule describes one kind of credential.
type Rule struct {
	ID       string
	Pattern  string
	Keywords []string
}

type compiledRule struct {
	id       string
	pattern  *regexp.Regexp
	keywords []string
}

// Finding is one matched span in the original text.
type Finding struct {
	RuleID string
	Line   int
}

// Result is the outcome of Redact.
type Result struct {
	Text     string
	Findings []Finding
}

// Redacted reports whether anything was replaced.
func (r Result) Redacted() bool {
	return len(r.Findings) > 0
}

// RuleIDs returns the distinct rules that matched, sorted.
func (r Result) RuleIDs() []string {
	seen := make(map[string]struct{}, len(r.Findings))
	ids := make([]string, 0, len(r.Findings))
	for _, f := range r.Findings {
		if _, ok := seen[f.RuleID]; ok {
			continue
		}
		seen[f.RuleID] = struct{}{}
		ids = append(ids, f.RuleID)
	}
	sort.Strings(ids)
	return ids
}

// Redactor applies a fixed rule set. It is safe for concurrent use.
type Redactor struct {
	rules []compiledRule
}

// New compiles rules. With no rules, DefaultRules is used.
func New(rules ...Rule) (*Redactor, error) {
	if len(rules) == 0 {
		rules = DefaultRules()
	}

	r := &Redactor{rules: make([]compiledRule, 0, len(rules))}
	for i, rule := range rules {
		if rule.ID == "" {
			return nil, fmt.Errorf("rule %d: ID is required", i)
		}
		if rule.Pattern == "" {
			return nil, fmt.Errorf("rule %s: pattern is required", rule.ID)
		}
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rule %s: invalid pattern: %w", rule.ID, err)
		}
		kws := make([]string, len(rule.Keywords))
		for j, kw := range rule.Keywords {
			kws[j] = strings.ToLower(kw)
		}
		r.rules = append(r.rules, compiledRule{id: rule.ID, pattern: re, keywords: kws})
	}
	return r, nil
}

type span struct{ start, end int }

// Redact returns text with every match replaced by Placeholder.
func (r *Redactor) Redact(text string) Result {
	res := Result{Text: text}
	lower := strings.ToLower(text)

	var spans []span
	for _, rule := range r.rules {
		if !hasKeyword(lower, rule.keywords) {
			continue
		}
		for _, m := range rule.pattern.FindAllStringSubmatchIndex(text, -1) {
			start, end := m[0], m[1]
			if len(m) >= 4 && m[2] >= 0 {
				start, end = m[2], m[3]
			}
			res.Findings = append(res.Findings, Finding{
				RuleID: rule.id,
				Line:   strings.Count(text[:start], "\n") + 1,
			})
			spans = append(spans, span{start: start, end: end})
		}
	}
	if len(spans) == 0 {
		return res
	}

	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, s := range merge(spans) {
		b.WriteString(text[last:s.start])
		b.WriteString(Placeholder)
		last = s.end
	}
	b.WriteString(text[last:])
	res.Text = b.String()
	return res
}

func hasKeyword(lower string, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// merge sorts spans and joins overlapping or touching ones.
func merge(spans []span) []span {
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
	out := []span{spans[0]}
	for _, s := range spans[1:] {
		last := &out[len(out)-1]
		if s.start <= last.end {
			if s.end > last.end {
				last.end = s.end
			}
			continue
		}
		out = append(out, s)
	}
	return out
}
