// Package anchor maps an AI-reported issue location back onto a trustworthy
// byte range in a contract's canonical text.
package anchor

import (
	"strings"

	"github.com/ryandumpert/flint/internal/model"
)

// Method records which strategy produced a resolution.
type Method string

const (
	MethodOffset Method = "offset"
	MethodQuote  Method = "quote"
	MethodFailed Method = "failed"
)

const (
	// OffsetProbeLen is how many leading quote characters must appear inside
	// the reported range for the offsets to be trusted.
	OffsetProbeLen = 30
	// PartialProbeLen is the quote prefix searched for when the full quote
	// is not present verbatim.
	PartialProbeLen = 50
)

// Result is a resolved range. A failed resolution has Start == End == -1.
type Result struct {
	Start  int    `json:"start"`
	End    int    `json:"end"`
	Method Method `json:"method"`
}

// Failed reports whether no strategy matched.
func (r Result) Failed() bool {
	return r.Method == MethodFailed
}

// Anchor converts the result back into an anchor, carrying fingerprint over.
func (r Result) Anchor(fingerprint string) model.Anchor {
	return model.Anchor{Start: r.Start, End: r.End, Fingerprint: fingerprint}
}

// Resolve finds where quote lives in text, using a's offsets when they can
// be trusted. Strategies run in a fixed order and the first match wins:
//
//  1. the given offsets, if in bounds and the range contains the first
//     OffsetProbeLen characters of quote;
//  2. the first exact occurrence of quote;
//  3. the first occurrence of the first PartialProbeLen characters of quote.
//     The end is still computed from the full quote length, so it may run
//     past the true clause end (or past the text) when the quote is inexact.
//
// Resolve never fails loudly: no match yields MethodFailed.
func Resolve(a model.Anchor, quote, text string) Result {
	if a.Start >= 0 && a.Start < a.End && a.End <= len(text) && quote != "" {
		if strings.Contains(text[a.Start:a.End], prefix(quote, OffsetProbeLen)) {
			return Result{Start: a.Start, End: a.End, Method: MethodOffset}
		}
	}

	if quote == "" {
		return failed()
	}

	if idx := strings.Index(text, quote); idx >= 0 {
		return Result{Start: idx, End: idx + len(quote), Method: MethodQuote}
	}

	if idx := strings.Index(text, prefix(quote, PartialProbeLen)); idx >= 0 {
		return Result{Start: idx, End: idx + len(quote), Method: MethodQuote}
	}

	return failed()
}

func failed() Result {
	return Result{Start: -1, End: -1, Method: MethodFailed}
}

// prefix returns the first n characters of s without splitting a rune.
func prefix(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
