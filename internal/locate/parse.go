// Package locate turns free-text navigation requests into a located span
// of contract text.
package locate

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// NavigationRequest is a parsed "take me to X" message.
type NavigationRequest struct {
	SearchQuery string `json:"searchQuery"`
	SectionName string `json:"sectionName"`
}

// navPatterns are tried in order; the first capture longer than two
// characters that is not a bare article wins.
var navPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:show me|go to|find|navigate to|jump to|take me to)\s+(?:the\s+)?(.+?)\s*(?:clause|section|provision|paragraph|article)?\s*[?.!]*$`),
	regexp.MustCompile(`(?i)\b(?:where is|what does)\s+(?:the\s+)?(.+?)\s*(?:clause|section)?\s*(?:say|says|state|states)?\s*[?.!]*$`),
	regexp.MustCompile(`(?i)\b(?:read|show)\s+((?:section|clause|article)\s+[\w.]+)`),
}

// ParseNavigationRequest extracts what the user wants to look at. It
// reports false for messages that are not navigation requests.
func ParseNavigationRequest(message string) (NavigationRequest, bool) {
	for _, re := range navPatterns {
		m := re.FindStringSubmatch(message)
		if m == nil {
			continue
		}
		target := strings.TrimSpace(m[1])
		if utf8.RuneCountInString(target) <= 2 || strings.EqualFold(target, "the") {
			continue
		}
		return NavigationRequest{SearchQuery: target, SectionName: capitalize(target)}, true
	}
	return NavigationRequest{}, false
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
