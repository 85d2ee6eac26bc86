package locate

import (
	"regexp"
	"strings"
)

const (
	// MaxDisplayLen caps Match.MatchedText, in characters.
	MaxDisplayLen = 200
	// headingSpan caps a heading match that runs to the next header.
	headingSpan = 2000
	// headingFallbackSpan caps a heading match with no following header.
	headingFallbackSpan = 500
	// contextSpan is how far a plain match extends past the hit.
	contextSpan = 200
)

// nextHeader finds the start of the next line that looks like a section
// header.
var nextHeader = regexp.MustCompile(`(?im)^[ \t]*(?:SECTION|ARTICLE|CLAUSE|\d+\.)`)

// Match is a located clause. Start and End are byte offsets into the text.
type Match struct {
	Start       int    `json:"start"`
	End         int    `json:"end"`
	MatchedText string `json:"matchedText"`
	Strategy    string `json:"strategy"`
}

// FindClause locates query in text. Strategies run in order and the first
// hit wins: a heading such as "Section 4.2: <query>", the query as a whole
// word, then the query as a case-insensitive substring. Empty input never
// matches.
func FindClause(text, query string) (Match, bool) {
	if text == "" || query == "" {
		return Match{}, false
	}
	q := regexp.QuoteMeta(query)

	heading := regexp.MustCompile(`(?i)(?:section|article|clause)\s*\d*\.?\d*\s*[:.]?\s*` + q)
	if loc := heading.FindStringIndex(text); loc != nil {
		start := loc[0]
		end := min(start+headingFallbackSpan, len(text))
		if nl := strings.IndexByte(text[loc[1]:], '\n'); nl >= 0 {
			from := loc[1] + nl + 1
			if next := nextHeader.FindStringIndex(text[from:]); next != nil {
				end = min(from+next[0], start+headingSpan)
			}
		}
		return newMatch(text, start, end, "heading"), true
	}

	word := regexp.MustCompile(`(?i)\b` + q + `\b`)
	if loc := word.FindStringIndex(text); loc != nil {
		return newMatch(text, loc[0], min(loc[1]+contextSpan, len(text)), "word"), true
	}

	sub := regexp.MustCompile(`(?i)` + q)
	if loc := sub.FindStringIndex(text); loc != nil {
		return newMatch(text, loc[0], min(loc[1]+contextSpan, len(text)), "substring"), true
	}

	return Match{}, false
}

// Locate parses message as a navigation request and finds it in text.
func Locate(message, text string) (Match, NavigationRequest, bool) {
	req, ok := ParseNavigationRequest(message)
	if !ok {
		return Match{}, NavigationRequest{}, false
	}
	m, ok := FindClause(text, req.SearchQuery)
	return m, req, ok
}

func newMatch(text string, start, end int, strategy string) Match {
	return Match{
		Start:       start,
		End:         end,
		MatchedText: truncate(text[start:end], MaxDisplayLen),
		Strategy:    strategy,
	}
}

// truncate cuts s to at most n characters.
func truncate(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
