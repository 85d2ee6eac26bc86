// Package section splits canonical contract text into an outline of
// sections for indexing and navigation.
package section

import (
	"regexp"
	"strings"
)

const (
	DefaultTargetSize = 1200
	DefaultMaxSize    = 4000
)

// Options configures splitting behavior.
type Options struct {
	TargetSize int
	MaxSize    int
}

// DefaultOptions returns default splitting options.
func DefaultOptions() Options {
	return Options{
		TargetSize: DefaultTargetSize,
		MaxSize:    DefaultMaxSize,
	}
}

// Section is a span of the canonical text. Text is always
// canonical[Start:End].
type Section struct {
	Heading string `json:"heading,omitempty"`
	Start   int    `json:"start"`
	End     int    `json:"end"`
	Text    string `json:"text"`
}

// headingLine matches lines such as "SECTION 4", "Article IX", "Clause 2"
// or "12.3. Fees".
var headingLine = regexp.MustCompile(`(?i)^(?:(?:section|article|clause)\b|\d+(?:\.\d+)*\.\s)`)

// IsHeading reports whether a line starts a new section.
func IsHeading(line string) bool {
	return headingLine.MatchString(strings.TrimSpace(line))
}

// Split splits text into sections. Text outside any heading (a preamble)
// is split on blank lines and merged back up to opts.TargetSize.
func Split(text string, opts Options) []Section {
	if opts.TargetSize == 0 {
		opts = DefaultOptions()
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return mergeBlocks(text, splitBlocks(text), opts)
}

// block is an intermediate [start, end) span.
type block struct {
	start   int
	end     int
	heading string
}

// splitBlocks starts a block at every heading line. Blank lines end
// preamble paragraphs but not headed sections.
func splitBlocks(text string) []block {
	var blocks []block
	cur := block{start: -1}

	flush := func() {
		if cur.start >= 0 {
			blocks = append(blocks, cur)
		}
		cur = block{start: -1}
	}

	pos := 0
	for _, line := range strings.SplitAfter(text, "\n") {
		lineStart := pos
		pos += len(line)
		content := strings.TrimSuffix(line, "\n")
		trimmed := strings.TrimSpace(content)

		if trimmed == "" {
			if cur.start >= 0 && cur.heading == "" {
				flush()
			}
			continue
		}

		if headingLine.MatchString(trimmed) {
			flush()
			cur = block{start: lineStart, heading: trimmed}
		} else if cur.start < 0 {
			cur = block{start: lineStart}
		}
		cur.end = lineStart + len(content)
	}
	flush()

	return blocks
}

// mergeBlocks combines small preamble blocks and splits oversized ones.
func mergeBlocks(text string, blocks []block, opts Options) []Section {
	var results []Section
	accum := block{start: -1}

	flushAccum := func() {
		if accum.start < 0 {
			return
		}
		if accum.end-accum.start > opts.MaxSize {
			results = append(results, hardSplit(text, accum, opts)...)
		} else {
			results = append(results, newSection(text, accum.heading, accum.start, accum.end))
		}
		accum = block{start: -1}
	}

	for _, b := range blocks {
		if accum.start < 0 {
			accum = b
			continue
		}

		if b.heading == "" && accum.heading == "" && b.end-accum.start <= opts.TargetSize {
			accum.end = b.end
		} else {
			flushAccum()
			accum = b
		}
	}
	flushAccum()

	return results
}

// hardSplit breaks a block that exceeds MaxSize on line boundaries. Every
// piece keeps the block's heading.
func hardSplit(text string, b block, opts Options) []Section {
	var results []Section
	curStart, curEnd := -1, -1

	pos := b.start
	for _, line := range strings.SplitAfter(text[b.start:b.end], "\n") {
		lineStart := pos
		pos += len(line)
		lineEnd := lineStart + len(strings.TrimSuffix(line, "\n"))

		if curStart >= 0 && lineEnd-curStart > opts.TargetSize {
			results = append(results, newSection(text, b.heading, curStart, curEnd))
			curStart = -1
		}
		if curStart < 0 {
			if strings.TrimSpace(line) == "" {
				continue
			}
			curStart = lineStart
		}
		curEnd = lineEnd
	}

	if curStart >= 0 {
		results = append(results, newSection(text, b.heading, curStart, curEnd))
	}

	return results
}

func newSection(text, heading string, start, end int) Section {
	return Section{Heading: heading, Start: start, End: end, Text: text[start:end]}
}
