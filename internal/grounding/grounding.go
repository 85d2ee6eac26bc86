// Package grounding prefixes contract-related chat messages with a compact
// summary of the analysis state before they reach the conversational agent.
package grounding

import (
	"fmt"
	"strings"

	"github.com/ryandumpert/flint/internal/model"
)

// DefaultKeywords decide whether a message is about the contract. Matching
// is case-insensitive substring containment, so stems like "indemnif" cover
// every inflection.
var DefaultKeywords = []string{
	"contract", "clause", "risk", "issue", "section",
	"liability", "indemnif", "terminat", "obligation",
	"payment", "penalty", "summarize", "review", "analyze",
	"draft", "safer", "alternative", "financial", "money",
	"deadline", "critical", "high", "medium", "low",
	"red flag", "concern", "suggest", "edit", "find", "show",
}

// Matcher decides whether a message should be grounded.
type Matcher interface {
	Match(message string) bool
}

// MatcherFunc adapts a function to Matcher.
type MatcherFunc func(message string) bool

func (f MatcherFunc) Match(message string) bool { return f(message) }

// KeywordMatcher matches messages containing any of its keywords.
type KeywordMatcher struct {
	keywords []string
}

// NewKeywordMatcher builds a matcher over the given keywords.
func NewKeywordMatcher(keywords ...string) *KeywordMatcher {
	kw := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			kw = append(kw, k)
		}
	}
	return &KeywordMatcher{keywords: kw}
}

func (m *KeywordMatcher) Match(message string) bool {
	lower := strings.ToLower(message)
	for _, k := range m.keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// Grounder prefixes messages with contract state.
type Grounder struct {
	matcher Matcher
}

// Option configures a Grounder.
type Option func(*Grounder)

// WithMatcher replaces the relevance predicate.
func WithMatcher(m Matcher) Option {
	return func(g *Grounder) { g.matcher = m }
}

// WithKeywords adds keywords to the default set.
func WithKeywords(extra ...string) Option {
	return func(g *Grounder) {
		all := append(append([]string{}, DefaultKeywords...), extra...)
		g.matcher = NewKeywordMatcher(all...)
	}
}

// New returns a Grounder using DefaultKeywords unless overridden.
func New(opts ...Option) *Grounder {
	g := &Grounder{matcher: NewKeywordMatcher(DefaultKeywords...)}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Ground returns message unchanged when there is no contract or the message
// is not about it. Otherwise it returns the summary lines, a blank line and
// the original message verbatim.
func (g *Grounder) Ground(message string, s model.ContractSummaryContext) string {
	if !s.HasContract || !g.matcher.Match(message) {
		return message
	}
	return Header(s) + "\n\n" + message
}

// Header renders the bracketed summary lines for s.
func Header(s model.ContractSummaryContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[Contract: %s | %d words]", s.FileName, s.WordCount)

	var parts []string
	if s.IssueCount > 0 {
		parts = append(parts, fmt.Sprintf("%d issues (%s)", s.IssueCount, severityBreakdown(s.SeverityCounts)))
	}
	if len(s.TopCategories) > 0 {
		parts = append(parts, "top categories: "+strings.Join(s.TopCategories, ", "))
	}
	if len(parts) > 0 {
		fmt.Fprintf(&b, "\n[Analysis: %s]", strings.Join(parts, " | "))
	}
	return b.String()
}

func severityBreakdown(counts map[model.Severity]int) string {
	var parts []string
	for _, sev := range model.Severities {
		if n := counts[sev]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, sev))
		}
	}
	return strings.Join(parts, ", ")
}

var defaultGrounder = New()

// Ground grounds message with the default keyword set.
func Ground(message string, s model.ContractSummaryContext) string {
	return defaultGrounder.Ground(message, s)
}
