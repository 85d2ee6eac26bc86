// Package textnorm turns extracted document text into the canonical form
// that all character offsets in the system index into.
package textnorm

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TabWidth is the number of spaces a tab expands to.
const TabWidth = 4

var blankRuns = regexp.MustCompile(`\n{3,}`)

var lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// Normalize returns the canonical form of raw. The steps run in a fixed
// order and the result is a fixed point: Normalize(Normalize(s)) == Normalize(s).
func Normalize(raw string) string {
	s := lineEndings.Replace(raw)
	s = strings.ReplaceAll(s, "\t", strings.Repeat(" ", TabWidth))

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRightFunc(line, unicode.IsSpace)
	}
	s = strings.Join(lines, "\n")

	s = blankRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// WordCount counts whitespace-separated tokens.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

// CharCount counts characters (not bytes).
func CharCount(s string) int {
	return utf8.RuneCountInString(s)
}

// Stats is the size summary reported for an ingested document.
type Stats struct {
	WordCount int `json:"wordCount"`
	CharCount int `json:"charCount"`
}

// Canonicalize normalizes raw and reports its size.
func Canonicalize(raw string) (string, Stats) {
	text := Normalize(raw)
	return text, Stats{WordCount: WordCount(text), CharCount: CharCount(text)}
}
