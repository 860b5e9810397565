package security

import (
	"cmp"
	"regexp"
	"slices"
	"strings"
	"sync"
)

// RedactPlaceholder is the replacement string for redacted secrets.
const RedactPlaceholder = "***REDACTED***"

// redactRule rewrites every match of pattern with replacement, which may
// reference capture groups to keep the non-secret prefix of a match.
type redactRule struct {
	pattern     *regexp.Regexp
	replacement string
}

// Redactor scrubs secrets from text headed for logs and the audit trail.
// Tool arguments are agent-supplied and may carry credentials pasted into a
// diff or a note; the artifacts on disk are written verbatim, only their
// echoes in logs are scrubbed.
// All methods are safe for concurrent use.
type Redactor struct {
	mu       sync.RWMutex
	rules    []redactRule
	literals []string
}

// NewRedactor returns a Redactor loaded with DefaultPatterns.
func NewRedactor() *Redactor {
	r := &Redactor{}
	for _, p := range DefaultPatterns() {
		r.AddPattern(p)
	}
	r.rules = append(r.rules, contextRules()...)
	return r
}

// AddPattern redacts every match of pattern in full.
func (r *Redactor) AddPattern(pattern *regexp.Regexp) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules = append(r.rules, redactRule{pattern: pattern, replacement: RedactPlaceholder})
}

// AddLiteral redacts secret wherever it appears. Empty strings and
// duplicates are ignored.
func (r *Redactor) AddLiteral(secret string) {
	if secret == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if slices.Contains(r.literals, secret) {
		return
	}
	r.literals = append(r.literals, secret)
	// Longest first, so a secret containing another is replaced whole.
	slices.SortFunc(r.literals, func(a, b string) int { return cmp.Compare(len(b), len(a)) })
}

// Redact returns s with literals replaced first, then every rule applied.
// Redact is idempotent.
func (r *Redactor) Redact(s string) string {
	if s == "" {
		return s
	}

	r.mu.RLock()
	rules := r.rules
	literals := r.literals
	r.mu.RUnlock()

	for _, lit := range literals {
		s = strings.ReplaceAll(s, lit, RedactPlaceholder)
	}
	for _, rule := range rules {
		s = rule.pattern.ReplaceAllString(s, rule.replacement)
	}
	return s
}

// DefaultPatterns returns patterns for well-known credential formats that
// are redacted in full.
func DefaultPatterns() []*regexp.Regexp {
	return []*regexp.Regexp{
		// Anthropic and OpenAI style keys.
		regexp.MustCompile(`sk-(?:ant-)?[a-zA-Z0-9\-_]{20,}`),
		// GitHub tokens.
		regexp.MustCompile(`(?:ghp_|gho_|ghs_|ghu_|github_pat_)[a-zA-Z0-9_]{20,}`),
		// AWS access key IDs.
		regexp.MustCompile(`AKIA[A-Z0-9]{16}`),
		// Slack tokens.
		regexp.MustCompile(`xox[bpas]-[0-9]+-[a-zA-Z0-9\-]+`),
		// PEM private key bodies.
		regexp.MustCompile(`-----BEGIN [A-Z ]*PRIVATE KEY-----[\s\S]*?-----END [A-Z ]*PRIVATE KEY-----`),
	}
}

// contextRules keep the label of a secret and drop its value: bearer
// headers, URL userinfo passwords and key=value assignments whose key
// names a secret.
func contextRules() []redactRule {
	return []redactRule{
		{
			pattern:     regexp.MustCompile(`(?i)(\bbearer\s+)[a-z0-9\-._~+/]+=*`),
			replacement: "${1}" + RedactPlaceholder,
		},
		{
			pattern:     regexp.MustCompile(`(://[^/\s:@]+:)[^/\s@]+@`),
			replacement: "${1}" + RedactPlaceholder + "@",
		},
		{
			pattern:     regexp.MustCompile(`(?i)(\b(?:password|passwd|secret|token|api[_-]?key)"?\s*[=:]\s*"?)[^\s"&,]+`),
			replacement: "${1}" + RedactPlaceholder,
		},
	}
}
